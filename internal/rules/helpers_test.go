package rules

import (
	"testing"

	"github.com/solatis/formulatree/internal/types"
)

func computationNode(id types.NodeID, param string, op types.Operation, operand string) *types.Node {
	return &types.Node{
		ID:      id,
		Comment: "step",
		Condition: types.Computation{
			ParamID:   param,
			UOM:       "EA",
			Operation: op,
			Operand:   operand,
		},
	}
}

func ifNode(id types.NodeID, left, right types.Operand, cmp string, trueChildren ...*types.Node) *types.Node {
	return &types.Node{
		ID:           id,
		Comment:      "branch",
		Condition:    types.Comparison{Left: left, Comparator: cmp, Right: right},
		TrueChildren: trueChildren,
	}
}

func lookupParamNode(id types.NodeID, pt types.LookupParamType, value string) *types.Node {
	return &types.Node{
		ID:        id,
		Comment:   "param",
		Condition: types.Computation{},
		Param:     types.LookupParam{Type: pt, Value: value},
	}
}

func lookupNode(id types.NodeID, params ...*types.Node) *types.Node {
	return &types.Node{
		ID:           id,
		Comment:      "lookup",
		Condition:    types.Lookup{},
		TrueChildren: params,
	}
}

func tree(roots ...*types.Node) *types.Tree {
	t := &types.Tree{Roots: roots}
	t.Reindex()
	return t
}

func mustTree(t *testing.T) func(*types.Tree, error) *types.Tree {
	t.Helper()
	return func(tr *types.Tree, err error) *types.Tree {
		t.Helper()
		if err != nil {
			t.Fatalf("mutation error = %v, want nil", err)
		}
		return tr
	}
}

func collectIDs(t *types.Tree) []types.NodeID {
	var ids []types.NodeID
	t.Walk(func(n *types.Node, _ int) bool {
		ids = append(ids, n.ID)
		return true
	})
	return ids
}
