// internal/types/rules.go
package types

import "fmt"

/*
 * Domain types for formula rule trees.
 *
 * A rule tree is an ordered list of root nodes. Each node carries a condition
 * variant selected by its ConditionType and two owned child branches:
 *
 *   - None:    Computation payload, no children
 *   - IF:      Comparison payload, >=1 true-branch child
 *   - IF-ELSE: Comparison payload, >=1 child in each branch
 *   - LOOKUP:  Lookup payload, >=MinLookupParams lookup-param children (true branch)
 *
 * Ownership: a node is reachable from exactly one position in exactly one tree.
 * Mutation always works on a Clone, so snapshots handed out earlier never change.
 *
 * ParentID, Role and Index are positional and recomputed by Tree.Reindex; the
 * child slices are authoritative.
 */

// NodeID identifies a node within one tree. IDs are never reused after deletion.
type NodeID int64

// MaxNodeID is the largest accepted node id. Ids stay exact as JSON numbers
// in any client, and the allocator can never wrap past it.
const MaxNodeID NodeID = 1<<53 - 1

// Valid reports whether id is in 1..MaxNodeID.
func (id NodeID) Valid() bool {
	return id > 0 && id <= MaxNodeID
}

// ConditionType is the variant tag of a node.
type ConditionType string

const (
	ConditionNone   ConditionType = "None"
	ConditionIf     ConditionType = "IF"
	ConditionIfElse ConditionType = "IF-ELSE"
	ConditionLookup ConditionType = "LOOKUP"
)

// ParseConditionType converts a stored or user-supplied tag. Empty means None.
func ParseConditionType(s string) (ConditionType, error) {
	switch ConditionType(s) {
	case "", ConditionNone:
		return ConditionNone, nil
	case ConditionIf, ConditionIfElse, ConditionLookup:
		return ConditionType(s), nil
	default:
		return ConditionNone, fmt.Errorf("%w: %q", ErrUnknownConditionType, s)
	}
}

// Branching reports whether the type owns children.
func (c ConditionType) Branching() bool {
	return c == ConditionIf || c == ConditionIfElse || c == ConditionLookup
}

// BranchRole is the position of a node relative to its parent.
type BranchRole string

const (
	RoleRoot        BranchRole = "root"
	RoleTrue        BranchRole = "true-branch"
	RoleFalse       BranchRole = "false-branch"
	RoleLookupParam BranchRole = "lookup-param"
)

// Operation is the arithmetic or literal operation of a computation step.
type Operation string

const (
	OpAdd    Operation = "+"
	OpSub    Operation = "-"
	OpMul    Operation = "*"
	OpDiv    Operation = "/"
	OpNumber Operation = "Number"
	OpString Operation = "String"
)

// Valid reports whether o is one of the known operations.
func (o Operation) Valid() bool {
	switch o {
	case OpAdd, OpSub, OpMul, OpDiv, OpNumber, OpString:
		return true
	}
	return false
}

// Literal reports whether the operand is emitted verbatim instead of applied to a parameter.
func (o Operation) Literal() bool {
	return o == OpNumber || o == OpString
}

// Combinator reports whether o may join sibling formulas.
func (o Operation) Combinator() bool {
	switch o {
	case OpAdd, OpSub, OpMul, OpDiv:
		return true
	}
	return false
}

// OperandType tags one side of a comparison.
type OperandType string

const (
	OperandParamID OperandType = "PARAM ID"
	OperandNumber  OperandType = "NUMBER"
	OperandText    OperandType = "TEXT"
)

// Valid reports whether t is a known operand tag.
func (t OperandType) Valid() bool {
	return t == OperandParamID || t == OperandNumber || t == OperandText
}

// LookupParamType tags a LOOKUP parameter.
type LookupParamType string

const (
	LookupParamID  LookupParamType = "Param ID"
	LookupString   LookupParamType = "String"
	LookupNumber   LookupParamType = "Number"
	LookupVariable LookupParamType = "Variable"
	LookupMLCode   LookupParamType = "ML_CODE"
	LookupNested   LookupParamType = "Nested LOOKUP"
)

// Valid reports whether t is a known parameter tag.
func (t LookupParamType) Valid() bool {
	switch t {
	case LookupParamID, LookupString, LookupNumber, LookupVariable, LookupMLCode, LookupNested:
		return true
	}
	return false
}

// Condition is the payload selected by a node's ConditionType.
// Implemented by Computation, Comparison and Lookup only.
type Condition interface {
	Type() ConditionType
	isCondition()
}

// Computation is a plain parameter step: [ParamID] Operation Operand.
type Computation struct {
	ParamID          string
	ParamDescription string // derived from the catalog, never stored
	UOM              string
	Operation        Operation
	Operand          string
}

func (Computation) Type() ConditionType { return ConditionNone }
func (Computation) isCondition()        {}

// Operand is one typed side of a comparison.
type Operand struct {
	Type  OperandType
	Value string
}

// Comparison is the payload of IF and IF-ELSE nodes.
// Else distinguishes IF-ELSE so switching between the two keeps the comparison.
type Comparison struct {
	Else       bool
	Left       Operand
	Comparator string
	Right      Operand
}

func (c Comparison) Type() ConditionType {
	if c.Else {
		return ConditionIfElse
	}
	return ConditionIf
}
func (Comparison) isCondition() {}

// Lookup is the payload of LOOKUP nodes. Arguments live in the node's true branch.
type Lookup struct{}

func (Lookup) Type() ConditionType { return ConditionLookup }
func (Lookup) isCondition()        {}

// LookupParam is the typed value of a node whose role is RoleLookupParam.
// Param ID values may hold a comma-joined list.
type LookupParam struct {
	Type  LookupParamType
	Value string
}

// Node is one step of a formula.
type Node struct {
	ID       NodeID
	ParentID *NodeID // nil for roots
	Role     BranchRole
	Index    int

	Condition Condition
	Param     LookupParam // active only when Role == RoleLookupParam

	// Combinator joins this node to its previous sibling. Empty means "+".
	Combinator Operation
	Comment    string

	TrueChildren  []*Node
	FalseChildren []*Node

	Expanded bool // UI state only
}

// NewNode returns an empty computation node.
func NewNode(id NodeID) *Node {
	return &Node{ID: id, Condition: Computation{}}
}

// Type returns the node's condition type. A nil payload is treated as None.
func (n *Node) Type() ConditionType {
	if n.Condition == nil {
		return ConditionNone
	}
	return n.Condition.Type()
}

// HasChildren is recomputed from the child slices on every call.
func (n *Node) HasChildren() bool {
	return len(n.TrueChildren) > 0 || len(n.FalseChildren) > 0
}

// Computation returns the computation payload, or the zero value for other types.
func (n *Node) Computation() Computation {
	c, _ := n.Condition.(Computation)
	return c
}

// Comparison returns the comparison payload, or the zero value for other types.
func (n *Node) Comparison() Comparison {
	c, _ := n.Condition.(Comparison)
	return c
}

// Clone returns a deep copy of n and its whole subtree.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.ParentID != nil {
		pid := *n.ParentID
		c.ParentID = &pid
	}
	c.TrueChildren = cloneNodes(n.TrueChildren)
	c.FalseChildren = cloneNodes(n.FalseChildren)
	return &c
}

func cloneNodes(nodes []*Node) []*Node {
	if nodes == nil {
		return nil
	}
	out := make([]*Node, len(nodes))
	for i, child := range nodes {
		out[i] = child.Clone()
	}
	return out
}

// Children returns the branch slice for role. Lookup params live in the true branch.
func (n *Node) Children(role BranchRole) []*Node {
	if role == RoleFalse {
		return n.FalseChildren
	}
	return n.TrueChildren
}

// SetChildren replaces the branch slice for role.
func (n *Node) SetChildren(role BranchRole, nodes []*Node) {
	if role == RoleFalse {
		n.FalseChildren = nodes
		return
	}
	n.TrueChildren = nodes
}

// TrueRole returns the role of children in n's true branch.
func (n *Node) TrueRole() BranchRole {
	if n.Type() == ConditionLookup {
		return RoleLookupParam
	}
	return RoleTrue
}

// ParseBranchRole accepts both the role names and the short "true" / "false" forms.
func ParseBranchRole(s string) (BranchRole, error) {
	switch s {
	case "true", string(RoleTrue):
		return RoleTrue, nil
	case "false", string(RoleFalse):
		return RoleFalse, nil
	case string(RoleLookupParam):
		return RoleLookupParam, nil
	case string(RoleRoot):
		return RoleRoot, nil
	default:
		return "", fmt.Errorf("%w: branch role %q", ErrInvalidValue, s)
	}
}
