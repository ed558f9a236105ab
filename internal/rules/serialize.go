// internal/rules/serialize.go
package rules

import (
	"sort"

	"github.com/solatis/formulatree/internal/types"
)

/*
 * Conversion between the nested tree and flat storage records.
 *
 * Flatten walks the tree depth-first in pre-order and emits one record per
 * node. Only ParentID / BranchFlag / BranchIndex carry position.
 *
 * Unflatten is two-pass:
 *   1. build an id-keyed map of bare nodes (first record wins on duplicate ids)
 *   2. attach each record to its parent's branch; records whose parent is
 *      missing are dropped together with anything hanging below them
 *
 * Branches are then ordered by BranchIndex (stable, missing index last) and
 * re-sequenced. Branches the parent's condition type does not own are dropped,
 * and nodes beyond MaxTreeDepth or MaxTreeNodes are pruned.
 */

// Flatten converts t to storage records in pre-order.
func Flatten(t *types.Tree) []types.Record {
	if t == nil {
		return nil
	}
	var out []types.Record
	for i, r := range t.Roots {
		out = flattenNode(out, r, nil, types.RoleRoot, i)
	}
	return out
}

func flattenNode(out []types.Record, n *types.Node, parent *types.Node, role types.BranchRole, index int) []types.Record {
	idx := index
	rec := types.Record{
		ID:            n.ID,
		BranchIndex:   &idx,
		ConditionType: string(n.Type()),
		Comment:       n.Comment,
		Combinator:    string(n.Combinator),
	}
	if parent != nil {
		pid := parent.ID
		flag := role != types.RoleFalse
		rec.ParentID = &pid
		rec.BranchFlag = &flag
	}
	switch c := n.Condition.(type) {
	case types.Computation:
		rec.ParamID = c.ParamID
		rec.Operation = string(c.Operation)
		rec.StandardValue = c.Operand
		rec.UOM = c.UOM
	case types.Comparison:
		rec.LeftType = string(c.Left.Type)
		rec.LeftValue = c.Left.Value
		rec.Comparator = c.Comparator
		rec.RightType = string(c.Right.Type)
		rec.RightValue = c.Right.Value
	}
	if role == types.RoleLookupParam {
		rec.LookupParamType = string(n.Param.Type)
		rec.LookupParamValue = n.Param.Value
	}
	out = append(out, rec)
	for i, c := range n.TrueChildren {
		out = flattenNode(out, c, n, n.TrueRole(), i)
	}
	for i, c := range n.FalseChildren {
		out = flattenNode(out, c, n, types.RoleFalse, i)
	}
	return out
}

// Unflatten rebuilds a tree from storage records. It never fails; inconsistent
// records, including ids outside 1..MaxNodeID, are dropped.
func Unflatten(records []types.Record) *types.Tree {
	nodes := make(map[types.NodeID]*types.Node, len(records))
	order := make(map[types.NodeID]int, len(records))
	var kept []types.Record
	for i, rec := range records {
		if !rec.ID.Valid() {
			continue
		}
		if _, dup := nodes[rec.ID]; dup {
			continue
		}
		nodes[rec.ID] = nodeFromRecord(rec)
		order[rec.ID] = i
		kept = append(kept, rec)
	}

	t := &types.Tree{}
	for _, rec := range kept {
		n := nodes[rec.ID]
		if rec.ParentID == nil {
			t.Roots = append(t.Roots, n)
			continue
		}
		parent, ok := nodes[*rec.ParentID]
		if !ok || parent == n {
			continue
		}
		role := types.RoleTrue
		if rec.BranchFlag != nil && !*rec.BranchFlag {
			role = types.RoleFalse
		}
		parent.SetChildren(role, append(parent.Children(role), n))
	}

	index := func(id types.NodeID) (int, bool) {
		rec := records[order[id]]
		if rec.BranchIndex == nil {
			return 0, false
		}
		return *rec.BranchIndex, true
	}
	sortNodes := func(list []*types.Node) {
		sort.SliceStable(list, func(i, j int) bool {
			a, aok := index(list[i].ID)
			b, bok := index(list[j].ID)
			if aok != bok {
				return aok
			}
			return a < b
		})
	}
	sortNodes(t.Roots)
	budget := types.MaxTreeNodes
	t.Roots = shapeAll(t.Roots, 0, &budget, sortNodes)
	t.Reindex()

	for _, rec := range kept {
		n := nodes[rec.ID]
		if n.Role == types.RoleLookupParam {
			n.Param = types.LookupParam{
				Type:  types.LookupParamType(rec.LookupParamType),
				Value: rec.LookupParamValue,
			}
		}
	}
	return t
}

// shapeAll keeps the nodes that fit in the remaining budget and shapes each.
// Branches the condition type does not own are dropped and subtrees are cut
// at MaxTreeDepth.
func shapeAll(nodes []*types.Node, depth int, budget *int, sortNodes func([]*types.Node)) []*types.Node {
	var kept []*types.Node
	for _, n := range nodes {
		if *budget <= 0 {
			break
		}
		*budget--
		kept = append(kept, n)

		ct := n.Type()
		if !ct.Branching() || depth+1 >= types.MaxTreeDepth {
			n.TrueChildren, n.FalseChildren = nil, nil
			continue
		}
		if ct != types.ConditionIfElse {
			n.FalseChildren = nil
		}
		sortNodes(n.TrueChildren)
		sortNodes(n.FalseChildren)
		n.TrueChildren = shapeAll(n.TrueChildren, depth+1, budget, sortNodes)
		n.FalseChildren = shapeAll(n.FalseChildren, depth+1, budget, sortNodes)
	}
	return kept
}

func nodeFromRecord(rec types.Record) *types.Node {
	n := &types.Node{
		ID:         rec.ID,
		Comment:    rec.Comment,
		Combinator: types.Operation(rec.Combinator),
	}
	ct, err := types.ParseConditionType(rec.ConditionType)
	if err != nil {
		ct = types.ConditionNone
	}
	switch ct {
	case types.ConditionIf, types.ConditionIfElse:
		n.Condition = types.Comparison{
			Else:       ct == types.ConditionIfElse,
			Left:       types.Operand{Type: types.OperandType(rec.LeftType), Value: rec.LeftValue},
			Comparator: rec.Comparator,
			Right:      types.Operand{Type: types.OperandType(rec.RightType), Value: rec.RightValue},
		}
	case types.ConditionLookup:
		n.Condition = types.Lookup{}
	default:
		n.Condition = types.Computation{
			ParamID:   rec.ParamID,
			UOM:       rec.UOM,
			Operation: types.Operation(rec.Operation),
			Operand:   rec.StandardValue,
		}
	}
	return n
}
