// internal/rules/comparators.go
package rules

/*
 * Comparator table for IF / IF-ELSE conditions.
 *
 * The formula language accepts six comparators. Aliases typed by hand ("==",
 * "<>") are normalised so the generated formula always uses the canonical
 * spelling. Comparison is never executed here; the table only drives
 * validation and rendering.
 *
 * Canonical comparators:
 *   - "="  equality
 *   - "!=" inequality (alias "<>")
 *   - "<" "<=" ">" ">=" ordering
 */

// Comparator is a canonical comparison symbol.
type Comparator string

const (
	CmpEq  Comparator = "="
	CmpNeq Comparator = "!="
	CmpLt  Comparator = "<"
	CmpLte Comparator = "<="
	CmpGt  Comparator = ">"
	CmpGte Comparator = ">="
)

var comparatorAliases = map[string]Comparator{
	"=":  CmpEq,
	"==": CmpEq,
	"!=": CmpNeq,
	"<>": CmpNeq,
	"<":  CmpLt,
	"<=": CmpLte,
	">":  CmpGt,
	">=": CmpGte,
}

// ParseComparator returns the canonical comparator for s.
func ParseComparator(s string) (Comparator, bool) {
	c, ok := comparatorAliases[s]
	return c, ok
}

// Comparators lists the canonical comparators in display order.
func Comparators() []Comparator {
	return []Comparator{CmpEq, CmpNeq, CmpLt, CmpLte, CmpGt, CmpGte}
}

// Ordering reports whether c only makes sense for numbers.
func (c Comparator) Ordering() bool {
	switch c {
	case CmpLt, CmpLte, CmpGt, CmpGte:
		return true
	}
	return false
}
