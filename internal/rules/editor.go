// internal/rules/editor.go
package rules

import (
	"fmt"
	"slices"

	"github.com/solatis/formulatree/internal/types"
)

/*
 * Copy-on-write tree mutation.
 *
 * Every Editor operation clones the input tree, changes the clone and returns
 * it. The input is never touched, so a snapshot held by the View stays valid.
 *
 * Condition-type transitions:
 *   - * -> None:    both branches cleared, collapsed
 *   - * -> IF:      >=1 true child, false branch cleared, expanded
 *   - * -> IF-ELSE: >=1 true and >=1 false child, expanded
 *   - * -> LOOKUP:  >=MinLookupParams true children, false branch cleared, expanded
 *
 * Switching among IF / IF-ELSE / LOOKUP keeps existing true children; only the
 * missing minimum is created and disallowed branches are dropped. All children
 * created by one transition draw their ids from a single NextIDs batch.
 *
 * Structural violations (removing a required child) are silent no-ops: the
 * returned tree equals the input and the error is nil. Any other failure
 * returns a nil tree and the caller keeps its previous snapshot.
 */

// Field names accepted by SetField.
type Field string

const (
	FieldParamID          Field = "paramId"
	FieldUOM              Field = "uom"
	FieldOperation        Field = "operation"
	FieldOperand          Field = "operand"
	FieldLeftType         Field = "leftType"
	FieldLeftValue        Field = "leftValue"
	FieldComparator       Field = "comparator"
	FieldRightType        Field = "rightType"
	FieldRightValue       Field = "rightValue"
	FieldComment          Field = "comment"
	FieldLookupParamType  Field = "lookupParamType"
	FieldLookupParamValue Field = "lookupParamValue"
	FieldCombinator       Field = "combinator"
)

// Editor applies mutations to rule trees for one editing session.
type Editor struct {
	alloc   *Allocator
	catalog *Catalog
}

// NewEditor returns an editor whose allocator is seeded from t.
func NewEditor(t *types.Tree, catalog *Catalog) *Editor {
	alloc := NewAllocator()
	alloc.Seed(t)
	return &Editor{alloc: alloc, catalog: catalog}
}

// Allocator exposes the session's id allocator.
func (e *Editor) Allocator() *Allocator {
	return e.alloc
}

// begin clones t and makes sure the allocator is ahead of every id in it.
func (e *Editor) begin(t *types.Tree) *types.Tree {
	out := t.Clone()
	e.alloc.Observe(out)
	return out
}

func finish(t *types.Tree) *types.Tree {
	t.Reindex()
	return t
}

func (e *Editor) find(t *types.Tree, id types.NodeID) (*types.Node, error) {
	n := t.Find(id)
	if n == nil {
		return nil, fmt.Errorf("%w: %d", types.ErrNodeNotFound, id)
	}
	return n, nil
}

// SetField updates one field on the node with id. Setting paramId also recomputes
// the derived description.
func (e *Editor) SetField(t *types.Tree, id types.NodeID, field Field, value string) (*types.Tree, error) {
	out := e.begin(t)
	n, err := e.find(out, id)
	if err != nil {
		return nil, err
	}
	if err := e.setField(out, n, field, value); err != nil {
		return nil, fmt.Errorf("setting %s on node %d: %w", field, id, err)
	}
	return finish(out), nil
}

func (e *Editor) setField(t *types.Tree, n *types.Node, field Field, value string) error {
	switch field {
	case FieldComment:
		n.Comment = value
		return nil
	case FieldCombinator:
		op := types.Operation(value)
		if value != "" && !op.Combinator() {
			return fmt.Errorf("%w: combinator %q", types.ErrInvalidValue, value)
		}
		n.Combinator = op
		return nil
	case FieldLookupParamType, FieldLookupParamValue:
		return e.setLookupParam(t, n, field, value)
	}

	switch c := n.Condition.(type) {
	case types.Computation:
		switch field {
		case FieldParamID:
			c.ParamID = value
			c.ParamDescription = e.catalog.Describe(value)
		case FieldUOM:
			c.UOM = value
		case FieldOperation:
			op := types.Operation(value)
			if value != "" && !op.Valid() {
				return fmt.Errorf("%w: operation %q", types.ErrInvalidValue, value)
			}
			c.Operation = op
		case FieldOperand:
			c.Operand = value
		default:
			return inactiveOrUnknown(field, n.Type())
		}
		n.Condition = c
	case types.Comparison:
		switch field {
		case FieldLeftType:
			if err := checkOperandType(value); err != nil {
				return err
			}
			c.Left.Type = types.OperandType(value)
		case FieldLeftValue:
			c.Left.Value = value
		case FieldComparator:
			if cmp, ok := ParseComparator(value); ok {
				value = string(cmp)
			}
			c.Comparator = value
		case FieldRightType:
			if err := checkOperandType(value); err != nil {
				return err
			}
			c.Right.Type = types.OperandType(value)
		case FieldRightValue:
			c.Right.Value = value
		default:
			return inactiveOrUnknown(field, n.Type())
		}
		n.Condition = c
	case types.Lookup:
		return inactiveOrUnknown(field, n.Type())
	case nil:
		n.Condition = types.Computation{}
		return e.setField(t, n, field, value)
	}
	return nil
}

func (e *Editor) setLookupParam(t *types.Tree, n *types.Node, field Field, value string) error {
	if n.Role != types.RoleLookupParam {
		return fmt.Errorf("%w: %s requires a lookup parameter", types.ErrInactiveField, field)
	}
	if field == FieldLookupParamValue {
		n.Param.Value = value
		return nil
	}
	pt := types.LookupParamType(value)
	if value != "" && !pt.Valid() {
		return fmt.Errorf("%w: lookup parameter type %q", types.ErrInvalidValue, value)
	}
	prev := n.Param.Type
	n.Param.Type = pt
	switch {
	case pt == types.LookupNested && n.Type() != types.ConditionLookup:
		return e.transition(t, n, types.ConditionLookup)
	case prev == types.LookupNested && pt != types.LookupNested:
		return e.transition(t, n, types.ConditionNone)
	}
	return nil
}

func checkOperandType(value string) error {
	if value != "" && !types.OperandType(value).Valid() {
		return fmt.Errorf("%w: operand type %q", types.ErrInvalidValue, value)
	}
	return nil
}

func inactiveOrUnknown(field Field, ct types.ConditionType) error {
	switch field {
	case FieldParamID, FieldUOM, FieldOperation, FieldOperand,
		FieldLeftType, FieldLeftValue, FieldComparator, FieldRightType, FieldRightValue:
		return fmt.Errorf("%w: %s on %s", types.ErrInactiveField, field, ct)
	}
	return fmt.Errorf("%w: %q", types.ErrUnknownField, field)
}

// SetConditionType moves the node with id to ct, growing or pruning its branches.
func (e *Editor) SetConditionType(t *types.Tree, id types.NodeID, ct types.ConditionType) (*types.Tree, error) {
	out := e.begin(t)
	n, err := e.find(out, id)
	if err != nil {
		return nil, err
	}
	ct, err = types.ParseConditionType(string(ct))
	if err != nil {
		return nil, err
	}
	if err := e.transition(out, n, ct); err != nil {
		return nil, err
	}
	return finish(out), nil
}

// transition applies the condition-type state machine to n in place.
// t is the tree being edited; it is only read for size limits.
func (e *Editor) transition(t *types.Tree, n *types.Node, target types.ConditionType) error {
	if target.Branching() {
		_, ancestors := t.FindWithAncestors(n.ID)
		if len(ancestors)+1 >= types.MaxTreeDepth {
			return fmt.Errorf("%w: deeper than %d levels", types.ErrTreeTooLarge, types.MaxTreeDepth)
		}
	}
	switch target {
	case types.ConditionNone:
		if _, ok := n.Condition.(types.Computation); !ok {
			n.Condition = types.Computation{}
		}
		n.TrueChildren = nil
		n.FalseChildren = nil
		n.Expanded = false
		return nil

	case types.ConditionIf, types.ConditionIfElse:
		cmp, _ := n.Condition.(types.Comparison)
		cmp.Else = target == types.ConditionIfElse
		needTrue := missing(len(n.TrueChildren), 1)
		needFalse := 0
		if cmp.Else {
			needFalse = missing(len(n.FalseChildren), 1)
		}
		if err := checkGrowth(t, needTrue+needFalse); err != nil {
			return err
		}
		n.Condition = cmp
		if !cmp.Else {
			n.FalseChildren = nil
		}
		ids := e.alloc.NextIDs(needTrue + needFalse)
		n.TrueChildren = appendNew(n.TrueChildren, ids[:needTrue])
		n.FalseChildren = appendNew(n.FalseChildren, ids[needTrue:])
		n.Expanded = true
		return nil

	case types.ConditionLookup:
		need := missing(len(n.TrueChildren), types.MinLookupParams)
		if err := checkGrowth(t, need); err != nil {
			return err
		}
		n.Condition = types.Lookup{}
		n.FalseChildren = nil
		n.TrueChildren = appendNew(n.TrueChildren, e.alloc.NextIDs(need))
		n.Expanded = true
		return nil
	}
	return fmt.Errorf("%w: %q", types.ErrUnknownConditionType, target)
}

func missing(have, want int) int {
	if have >= want {
		return 0
	}
	return want - have
}

func appendNew(nodes []*types.Node, ids []types.NodeID) []*types.Node {
	for _, id := range ids {
		nodes = append(nodes, types.NewNode(id))
	}
	return nodes
}

func checkGrowth(t *types.Tree, add int) error {
	if add > 0 && t.Len()+add > types.MaxTreeNodes {
		return fmt.Errorf("%w: more than %d nodes", types.ErrTreeTooLarge, types.MaxTreeNodes)
	}
	return nil
}

// AddChild appends a fresh node to the parent's branch for role.
// RoleTrue on a LOOKUP parent adds a lookup parameter.
func (e *Editor) AddChild(t *types.Tree, parentID types.NodeID, role types.BranchRole) (*types.Tree, error) {
	out := e.begin(t)
	parent, ancestors := out.FindWithAncestors(parentID)
	if parent == nil {
		return nil, fmt.Errorf("%w: %d", types.ErrNodeNotFound, parentID)
	}
	if err := checkBranch(parent, role); err != nil {
		return nil, err
	}
	if len(ancestors)+1 >= types.MaxTreeDepth {
		return nil, fmt.Errorf("%w: deeper than %d levels", types.ErrTreeTooLarge, types.MaxTreeDepth)
	}
	if err := checkGrowth(out, 1); err != nil {
		return nil, err
	}
	if role == types.RoleLookupParam {
		role = types.RoleTrue
	}
	parent.SetChildren(role, append(parent.Children(role), types.NewNode(e.alloc.NextID())))
	parent.Expanded = true
	return finish(out), nil
}

func checkBranch(parent *types.Node, role types.BranchRole) error {
	ct := parent.Type()
	ok := false
	switch role {
	case types.RoleTrue:
		ok = ct.Branching()
	case types.RoleFalse:
		ok = ct == types.ConditionIfElse
	case types.RoleLookupParam:
		ok = ct == types.ConditionLookup
	}
	if !ok {
		return fmt.Errorf("%w: %s on %s", types.ErrBranchNotAllowed, role, ct)
	}
	return nil
}

// RemoveChild removes the child at index from the parent's branch for role and
// re-sequences the remaining siblings. Removing one of the first MinLookupParams
// LOOKUP parameters, or the last child of an IF / IF-ELSE branch, is a no-op.
func (e *Editor) RemoveChild(t *types.Tree, parentID types.NodeID, role types.BranchRole, index int) (*types.Tree, error) {
	out := e.begin(t)
	parent, err := e.find(out, parentID)
	if err != nil {
		return nil, err
	}
	if err := checkBranch(parent, role); err != nil {
		return nil, err
	}
	branch := parent.Children(role)
	if index < 0 || index >= len(branch) {
		return nil, fmt.Errorf("%w: %d of %d", types.ErrIndexOutOfRange, index, len(branch))
	}
	if !removable(parent, len(branch), index) {
		return finish(out), nil
	}
	rest := append(branch[:index:index], branch[index+1:]...)
	if len(rest) == 0 {
		rest = nil
	}
	parent.SetChildren(role, rest)
	if !parent.HasChildren() {
		parent.Expanded = false
	}
	return finish(out), nil
}

func removable(parent *types.Node, count, index int) bool {
	switch parent.Type() {
	case types.ConditionLookup:
		return index >= types.MinLookupParams
	case types.ConditionIf, types.ConditionIfElse:
		return count > 1
	}
	return true
}

// ToggleExpanded flips the node's expanded flag.
func (e *Editor) ToggleExpanded(t *types.Tree, id types.NodeID) (*types.Tree, error) {
	out := e.begin(t)
	n, err := e.find(out, id)
	if err != nil {
		return nil, err
	}
	n.Expanded = !n.Expanded
	return finish(out), nil
}

// AddRootRow appends a fresh computation row at the top level.
func (e *Editor) AddRootRow(t *types.Tree) (*types.Tree, error) {
	out := e.begin(t)
	if err := checkGrowth(out, 1); err != nil {
		return nil, err
	}
	out.Roots = append(out.Roots, types.NewNode(e.alloc.NextID()))
	return finish(out), nil
}

// RemoveRow removes the root row with id together with its subtree, and purges
// any other node carrying the same id anywhere in the tree. A nested id is a
// no-op; an id not in the tree is ErrNodeNotFound.
func (e *Editor) RemoveRow(t *types.Tree, id types.NodeID) (*types.Tree, error) {
	out := e.begin(t)
	if _, err := e.find(out, id); err != nil {
		return nil, err
	}
	isRoot := slices.ContainsFunc(out.Roots, func(r *types.Node) bool { return r.ID == id })
	if !isRoot {
		return finish(out), nil
	}
	out.Roots = purge(out.Roots, id)
	return finish(out), nil
}

func purge(nodes []*types.Node, id types.NodeID) []*types.Node {
	var kept []*types.Node
	for _, n := range nodes {
		if n.ID == id {
			continue
		}
		n.TrueChildren = purge(n.TrueChildren, id)
		n.FalseChildren = purge(n.FalseChildren, id)
		if !n.HasChildren() {
			n.Expanded = false
		}
		kept = append(kept, n)
	}
	return kept
}

// Normalize tops up branches that fall short of their type's minimum and drops
// branches the type does not own. Branching nodes at the depth limit become None.
// Used when a tree comes from storage.
func (e *Editor) Normalize(t *types.Tree) (*types.Tree, error) {
	out := e.begin(t)
	type visit struct {
		node  *types.Node
		depth int
	}
	var nodes []visit
	out.Walk(func(n *types.Node, depth int) bool {
		nodes = append(nodes, visit{n, depth})
		return true
	})
	for _, v := range nodes {
		n := v.node
		ct := n.Type()
		if ct.Branching() && v.depth+1 >= types.MaxTreeDepth {
			ct = types.ConditionNone
		}
		if !ct.Branching() {
			if err := e.transition(out, n, types.ConditionNone); err != nil {
				return nil, err
			}
			continue
		}
		expanded := n.Expanded
		if err := e.transition(out, n, ct); err != nil {
			return nil, fmt.Errorf("normalizing node %d: %w", n.ID, err)
		}
		n.Expanded = expanded
	}
	return finish(out), nil
}
