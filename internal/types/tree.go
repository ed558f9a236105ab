package types

import "slices"

// Tree is an ordered list of root rows.
type Tree struct {
	Roots []*Node
}

// Clone returns a fully independent copy of t.
func (t *Tree) Clone() *Tree {
	if t == nil {
		return &Tree{}
	}
	return &Tree{Roots: cloneNodes(t.Roots)}
}

// Walk visits every node depth-first in pre-order, true branch before false branch.
// Returning false from fn skips the node's children.
func (t *Tree) Walk(fn func(n *Node, depth int) bool) {
	if t == nil {
		return
	}
	for _, r := range t.Roots {
		walk(r, 0, fn)
	}
}

func walk(n *Node, depth int, fn func(n *Node, depth int) bool) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.TrueChildren {
		walk(c, depth+1, fn)
	}
	for _, c := range n.FalseChildren {
		walk(c, depth+1, fn)
	}
}

// Find returns the first node with id in pre-order, or nil.
func (t *Tree) Find(id NodeID) *Node {
	n, _ := t.FindWithAncestors(id)
	return n
}

// FindWithAncestors returns the node with id and its ancestors, starting with
// the root row and ending with the immediate parent.
func (t *Tree) FindWithAncestors(id NodeID) (node *Node, ancestors []*Node) {
	if t == nil {
		return nil, nil
	}
	for _, r := range t.Roots {
		if found, a := findIn(r, id); found != nil {
			return found, a
		}
	}
	return nil, nil
}

func findIn(n *Node, id NodeID) (*Node, []*Node) {
	if n.ID == id {
		return n, nil
	}
	for _, branch := range [][]*Node{n.TrueChildren, n.FalseChildren} {
		for _, c := range branch {
			if found, a := findIn(c, id); found != nil {
				return found, append([]*Node{n}, a...)
			}
		}
	}
	return nil, nil
}

// Path returns the node with id preceded by all its ancestors, root first.
// Returns nil when id is not in the tree.
func (t *Tree) Path(id NodeID) []*Node {
	n, ancestors := t.FindWithAncestors(id)
	if n == nil {
		return nil
	}
	return append(slices.Clone(ancestors), n)
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	count := 0
	t.Walk(func(*Node, int) bool {
		count++
		return true
	})
	return count
}

// MaxID returns the largest id in the tree, or 0 for an empty tree.
func (t *Tree) MaxID() NodeID {
	var highest NodeID
	t.Walk(func(n *Node, _ int) bool {
		if n.ID > highest {
			highest = n.ID
		}
		return true
	})
	return highest
}

// Reindex recomputes ParentID, Role and Index from the child slices.
// Param is cleared on nodes that are no longer lookup parameters.
func (t *Tree) Reindex() {
	for i, r := range t.Roots {
		r.ParentID = nil
		r.Role = RoleRoot
		r.Index = i
		r.Param = LookupParam{}
		reindexChildren(r)
	}
}

func reindexChildren(n *Node) {
	assign := func(children []*Node, role BranchRole) {
		for i, c := range children {
			pid := n.ID
			c.ParentID = &pid
			c.Role = role
			c.Index = i
			if role != RoleLookupParam {
				c.Param = LookupParam{}
			}
			reindexChildren(c)
		}
	}
	assign(n.TrueChildren, n.TrueRole())
	assign(n.FalseChildren, RoleFalse)
}
