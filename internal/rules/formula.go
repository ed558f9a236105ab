// internal/rules/formula.go
package rules

import (
	"fmt"
	"strings"

	"github.com/solatis/formulatree/internal/types"
)

/*
 * Formula rendering.
 *
 * Renders a rule tree into a single formula string. Rendering is recursive
 * and side-effect free; the string is never parsed back.
 *
 *   None:    [p] op v | [p] | literal (Number / String)
 *   IF:      IF(<left> <cmp> <right>, <true>)
 *   IF-ELSE: IF(<left> <cmp> <right>, <true>, <false>)
 *   LOOKUP:  LOOKUP(p1, p2, ..., pn)
 *
 * Siblings in one branch are joined left to right with "+", or with each
 * sibling's own combinator when PerRowOperators is set. Root rows are wrapped
 * in parentheses when there is more than one.
 *
 * LOOKUP parameters past the third are either further arguments
 * (LookupArguments) or a trailing " * " multiplier chain (LookupMultiplier).
 */

// LookupPolicy decides how LOOKUP parameters beyond MinLookupParams render.
type LookupPolicy string

const (
	LookupArguments  LookupPolicy = "arguments"
	LookupMultiplier LookupPolicy = "multiplier"
)

// ParseLookupPolicy validates a configured policy. Empty means LookupArguments.
func ParseLookupPolicy(s string) (LookupPolicy, error) {
	switch LookupPolicy(s) {
	case "", LookupArguments:
		return LookupArguments, nil
	case LookupMultiplier:
		return LookupMultiplier, nil
	}
	return "", fmt.Errorf("%w: lookup policy %q", types.ErrInvalidValue, s)
}

// Sentinels emitted for blank literal operands.
const (
	EmptyNumber = "0"
	EmptyString = "EMPTY_STRING"
)

// Generator renders formulas.
type Generator struct {
	Policy          LookupPolicy
	PerRowOperators bool
}

// Tree renders the complete formula for all root rows.
func (g Generator) Tree(t *types.Tree) string {
	if t == nil || len(t.Roots) == 0 {
		return ""
	}
	if len(t.Roots) == 1 {
		return g.node(t.Roots[0], 0)
	}
	var sb strings.Builder
	for i, r := range t.Roots {
		if i > 0 {
			sb.WriteString(" " + g.joiner(r) + " ")
		}
		sb.WriteString("(" + g.node(r, 0) + ")")
	}
	return sb.String()
}

// Node renders the formula of n and its subtree.
func (g Generator) Node(n *types.Node) string {
	return g.node(n, 0)
}

func (g Generator) node(n *types.Node, depth int) string {
	if n == nil || depth >= types.MaxTreeDepth {
		return EmptyNumber
	}
	switch c := n.Condition.(type) {
	case types.Comparison:
		head := fmt.Sprintf("IF(%s %s %s, %s", FormatOperand(c.Left), c.Comparator, FormatOperand(c.Right),
			g.combine(n.TrueChildren, depth))
		if c.Else {
			return head + ", " + g.combine(n.FalseChildren, depth) + ")"
		}
		return head + ")"
	case types.Lookup:
		return g.lookup(n, depth)
	case types.Computation:
		return computation(c)
	}
	return computation(types.Computation{})
}

func computation(c types.Computation) string {
	if c.Operation.Literal() {
		if strings.TrimSpace(c.Operand) == "" {
			if c.Operation == types.OpString {
				return EmptyString
			}
			return EmptyNumber
		}
		return c.Operand
	}
	ref := "[" + strings.TrimSpace(c.ParamID) + "]"
	if c.Operation == "" || IsZeroOperand(c.Operand) {
		return ref
	}
	return fmt.Sprintf("%s %s %s", ref, c.Operation, strings.TrimSpace(c.Operand))
}

// combine joins sibling formulas left to right.
func (g Generator) combine(children []*types.Node, depth int) string {
	if len(children) == 0 {
		return EmptyNumber
	}
	var sb strings.Builder
	for i, c := range children {
		if i > 0 {
			sb.WriteString(" " + g.joiner(c) + " ")
		}
		sb.WriteString(g.node(c, depth+1))
	}
	return sb.String()
}

func (g Generator) joiner(n *types.Node) string {
	if g.PerRowOperators && n.Combinator.Combinator() {
		return string(n.Combinator)
	}
	return string(types.OpAdd)
}

func (g Generator) lookup(n *types.Node, depth int) string {
	params := make([]string, len(n.TrueChildren))
	for i, p := range n.TrueChildren {
		params[i] = g.lookupParam(p, depth+1)
	}
	args, extra := params, []string(nil)
	if g.Policy == LookupMultiplier && len(params) > types.MinLookupParams {
		args, extra = params[:types.MinLookupParams], params[types.MinLookupParams:]
	}
	out := "LOOKUP(" + strings.Join(args, ", ") + ")"
	for _, m := range extra {
		out += " * " + m
	}
	return out
}

func (g Generator) lookupParam(p *types.Node, depth int) string {
	v := strings.TrimSpace(p.Param.Value)
	switch p.Param.Type {
	case types.LookupParamID:
		var sb strings.Builder
		for _, id := range SplitParamIDs(v) {
			sb.WriteString("[" + id + "]")
		}
		if sb.Len() == 0 {
			return "[]"
		}
		return sb.String()
	case types.LookupString:
		return "'" + v + "'"
	case types.LookupMLCode:
		return "{" + v + "}"
	case types.LookupNested:
		return g.node(p, depth)
	default:
		return v
	}
}
