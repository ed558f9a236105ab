package types

import "errors"

// Sentinel errors for formulatree operations.
var (
	// ErrNodeNotFound indicates no node with the requested id exists in the tree.
	ErrNodeNotFound = errors.New("node not found")

	// ErrUnknownField indicates a field name the editor does not know.
	ErrUnknownField = errors.New("unknown field")

	// ErrInactiveField indicates a field that is not meaningful for the node's condition type.
	ErrInactiveField = errors.New("field not active for condition type")

	// ErrBranchNotAllowed indicates a child role the parent's condition type does not own.
	ErrBranchNotAllowed = errors.New("branch not allowed for condition type")

	// ErrIndexOutOfRange indicates a child index outside the branch.
	ErrIndexOutOfRange = errors.New("child index out of range")

	// ErrUnknownConditionType indicates an unrecognised condition type tag.
	ErrUnknownConditionType = errors.New("unknown condition type")

	// ErrUnknownMutation indicates an unrecognised mutation op.
	ErrUnknownMutation = errors.New("unknown mutation")

	// ErrInvalidValue indicates a field value outside its enumeration.
	ErrInvalidValue = errors.New("invalid field value")

	// ErrTreeTooLarge indicates a tree would exceed MaxTreeNodes or MaxTreeDepth.
	ErrTreeTooLarge = errors.New("tree exceeds size limits")

	// ErrRuleSetNotFound indicates a rule set does not exist for the tenant.
	ErrRuleSetNotFound = errors.New("rule set not found")

	// ErrValidationFailed indicates a save was blocked by validation errors.
	ErrValidationFailed = errors.New("rule tree failed validation")

	// ErrInvalidRuleSetName indicates an empty or overlong rule set name.
	ErrInvalidRuleSetName = errors.New("invalid rule set name")
)
