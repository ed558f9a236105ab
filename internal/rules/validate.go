// internal/rules/validate.go
package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/solatis/formulatree/internal/types"
)

/*
 * Rule tree validation.
 *
 * Walks the tree and collects human-readable messages keyed by a
 * path-qualified field name. A path is the root row id followed by
 * ".true.<i>" / ".false.<i>" segments, so two nodes never share a key:
 *
 *   12.comment               comment of root row 12
 *   12.true.0.paramId        paramId of the first true-branch step of row 12
 *   12.true.1.false.0.leftType
 *
 * Rules by condition type:
 *   - None:       paramId, uom, operation, operand, comment; operand charset by operation
 *   - IF/IF-ELSE: both operand types and values, comparator, comment; children recursively
 *   - LOOKUP:     comment, >=MinLookupParams parameters; each parameter needs type,
 *                 value (except Nested LOOKUP, validated as a subtree) and comment
 *
 * Validation is pure: the tree is never modified.
 */

// GeneralErrorKey holds errors that do not belong to a single node.
const GeneralErrorKey = "general"

// Errors maps path-qualified field names to messages. Empty means valid.
type Errors map[string]string

// Keys returns the error keys in sorted order.
func (e Errors) Keys() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String lists every error on its own line in key order.
func (e Errors) String() string {
	var sb strings.Builder
	for _, k := range e.Keys() {
		fmt.Fprintf(&sb, "%s: %s\n", k, e[k])
	}
	return sb.String()
}

// ValidationError blocks a save. It unwraps to types.ErrValidationFailed.
type ValidationError struct {
	Errors Errors
}

func (v *ValidationError) Error() string {
	return fmt.Sprintf("%s: %d error(s)", types.ErrValidationFailed, len(v.Errors))
}

func (v *ValidationError) Unwrap() error {
	return types.ErrValidationFailed
}

// Validate checks every node of t. catalog may be nil.
func Validate(t *types.Tree, catalog *Catalog) Errors {
	errs := Errors{}
	if t == nil || len(t.Roots) == 0 {
		errs[GeneralErrorKey] = "At least one rule row is required"
		return errs
	}
	v := validator{catalog: catalog, errs: errs}
	for _, r := range t.Roots {
		v.node(r, fmt.Sprintf("%d", r.ID), 0)
	}
	return errs
}

type validator struct {
	catalog *Catalog
	errs    Errors
}

func (v *validator) add(path string, field Field, msg string) {
	v.errs[path+"."+string(field)] = msg
}

func (v *validator) node(n *types.Node, path string, depth int) {
	if depth >= types.MaxTreeDepth {
		v.errs[path] = fmt.Sprintf("Nesting deeper than %d levels", types.MaxTreeDepth)
		return
	}
	if strings.TrimSpace(n.Comment) == "" {
		v.add(path, FieldComment, "Comment is required")
	}
	if n.Role == types.RoleLookupParam {
		v.lookupParam(n, path, depth)
		return
	}
	v.condition(n, path, depth)
}

func (v *validator) lookupParam(n *types.Node, path string, depth int) {
	switch {
	case n.Param.Type == "":
		v.add(path, FieldLookupParamType, "Parameter type is required")
	case !n.Param.Type.Valid():
		v.add(path, FieldLookupParamType, fmt.Sprintf("Unknown parameter type %q", n.Param.Type))
	}
	if n.Param.Type == types.LookupNested {
		v.condition(n, path, depth)
		return
	}
	if strings.TrimSpace(n.Param.Value) == "" {
		v.add(path, FieldLookupParamValue, "Parameter value is required")
		return
	}
	if n.Param.Type == types.LookupParamID {
		ids := SplitParamIDs(n.Param.Value)
		if len(ids) == 0 {
			v.add(path, FieldLookupParamValue, "Parameter value is required")
			return
		}
		for _, id := range ids {
			if !v.catalog.KnownParam(id) {
				v.add(path, FieldLookupParamValue, fmt.Sprintf("Unknown parameter %q", id))
				return
			}
		}
	}
	if n.Param.Type == types.LookupNumber {
		if _, err := CoerceNumber(n.Param.Value); err != nil {
			v.add(path, FieldLookupParamValue, "Parameter value must be a number")
		}
	}
}

func (v *validator) condition(n *types.Node, path string, depth int) {
	switch c := n.Condition.(type) {
	case types.Comparison:
		v.comparison(c, path)
		v.children(n.TrueChildren, path, "true", depth)
		if len(n.TrueChildren) == 0 {
			v.errs[path+".true"] = "At least one step is required in the true branch"
		}
		if c.Else {
			v.children(n.FalseChildren, path, "false", depth)
			if len(n.FalseChildren) == 0 {
				v.errs[path+".false"] = "At least one step is required in the false branch"
			}
		}
	case types.Lookup:
		if len(n.TrueChildren) < types.MinLookupParams {
			v.errs[path+".params"] = fmt.Sprintf("LOOKUP requires at least %d parameters", types.MinLookupParams)
		}
		v.children(n.TrueChildren, path, "true", depth)
	case types.Computation:
		v.computation(c, path)
	default:
		v.computation(types.Computation{}, path)
	}
}

func (v *validator) children(nodes []*types.Node, path, branch string, depth int) {
	for i, c := range nodes {
		v.node(c, fmt.Sprintf("%s.%s.%d", path, branch, i), depth+1)
	}
}

func (v *validator) computation(c types.Computation, path string) {
	switch {
	case strings.TrimSpace(c.ParamID) == "":
		v.add(path, FieldParamID, "Parameter ID is required")
	case !v.catalog.KnownParam(c.ParamID):
		v.add(path, FieldParamID, fmt.Sprintf("Unknown parameter %q", c.ParamID))
	}
	switch {
	case strings.TrimSpace(c.UOM) == "":
		v.add(path, FieldUOM, "Unit of measure is required")
	case !v.catalog.KnownUOM(c.UOM):
		v.add(path, FieldUOM, fmt.Sprintf("Unknown unit of measure %q", c.UOM))
	}
	switch {
	case c.Operation == "":
		v.add(path, FieldOperation, "Operation is required")
	case !c.Operation.Valid():
		v.add(path, FieldOperation, fmt.Sprintf("Unknown operation %q", c.Operation))
	}
	if strings.TrimSpace(c.Operand) == "" {
		v.add(path, FieldOperand, "Value is required")
		return
	}
	if c.Operation.Valid() {
		if err := CheckOperand(c.Operation, c.Operand); err != nil {
			if c.Operation == types.OpString {
				v.add(path, FieldOperand, "Value may only contain letters, underscore, dash and single spaces")
			} else {
				v.add(path, FieldOperand, "Value may only contain digits and arithmetic characters")
			}
		}
	}
}

func (v *validator) comparison(c types.Comparison, path string) {
	v.operand(c.Left, path, FieldLeftType, FieldLeftValue, "Left")
	v.operand(c.Right, path, FieldRightType, FieldRightValue, "Right")
	switch _, ok := ParseComparator(c.Comparator); {
	case c.Comparator == "":
		v.add(path, FieldComparator, "Comparator is required")
	case !ok:
		v.add(path, FieldComparator, fmt.Sprintf("Unknown comparator %q", c.Comparator))
	}
}

func (v *validator) operand(o types.Operand, path string, typeField, valueField Field, side string) {
	switch {
	case o.Type == "":
		v.add(path, typeField, side+" type is required")
	case !o.Type.Valid():
		v.add(path, typeField, fmt.Sprintf("Unknown %s type %q", strings.ToLower(side), o.Type))
	}
	if strings.TrimSpace(o.Value) == "" {
		v.add(path, valueField, side+" value is required")
		return
	}
	switch o.Type {
	case types.OperandNumber:
		if _, err := CoerceNumber(o.Value); err != nil {
			v.add(path, valueField, side+" value must be a number")
		}
	case types.OperandParamID:
		if !v.catalog.KnownParam(strings.TrimSpace(o.Value)) {
			v.add(path, valueField, fmt.Sprintf("Unknown parameter %q", o.Value))
		}
	}
}
