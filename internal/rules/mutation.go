package rules

import (
	"fmt"

	"github.com/solatis/formulatree/internal/types"
)

// MutationOp names one Editor operation.
type MutationOp string

const (
	OpSetField         MutationOp = "setField"
	OpSetConditionType MutationOp = "setConditionType"
	OpAddChild         MutationOp = "addChild"
	OpRemoveChild      MutationOp = "removeChild"
	OpToggleExpanded   MutationOp = "toggleExpanded"
	OpAddRootRow       MutationOp = "addRootRow"
	OpRemoveRow        MutationOp = "removeRow"
)

// Mutation is a serialisable Editor call, used by the transports.
// ID is the target node, or the parent for addChild / removeChild.
type Mutation struct {
	Op            MutationOp          `json:"op"`
	ID            types.NodeID        `json:"id,omitempty"`
	Role          string              `json:"role,omitempty"`
	Index         int                 `json:"index,omitempty"`
	Field         Field               `json:"field,omitempty"`
	Value         string              `json:"value,omitempty"`
	ConditionType types.ConditionType `json:"conditionType,omitempty"`
}

// Apply dispatches m to the matching Editor operation.
func (e *Editor) Apply(t *types.Tree, m Mutation) (*types.Tree, error) {
	switch m.Op {
	case OpSetField:
		return e.SetField(t, m.ID, m.Field, m.Value)
	case OpSetConditionType:
		ct, err := types.ParseConditionType(string(m.ConditionType))
		if err != nil {
			return nil, err
		}
		return e.SetConditionType(t, m.ID, ct)
	case OpAddChild, OpRemoveChild:
		role, err := types.ParseBranchRole(m.Role)
		if err != nil {
			return nil, err
		}
		if m.Op == OpAddChild {
			return e.AddChild(t, m.ID, role)
		}
		return e.RemoveChild(t, m.ID, role, m.Index)
	case OpToggleExpanded:
		return e.ToggleExpanded(t, m.ID)
	case OpAddRootRow:
		return e.AddRootRow(t)
	case OpRemoveRow:
		return e.RemoveRow(t, m.ID)
	}
	return nil, fmt.Errorf("%w: %q", types.ErrUnknownMutation, m.Op)
}
