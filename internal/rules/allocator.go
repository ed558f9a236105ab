package rules

import "github.com/solatis/formulatree/internal/types"

// Allocator hands out node ids for one editing session.
// The counter only moves forward, so ids freed by deletion are never reissued.
// Not safe for concurrent use; each session owns its own Allocator.
type Allocator struct {
	next types.NodeID
}

// NewAllocator returns an allocator starting at 1.
func NewAllocator() *Allocator {
	return &Allocator{next: 1}
}

// Seed sets the next id to one greater than the largest id in t.
func (a *Allocator) Seed(t *types.Tree) {
	a.next = t.MaxID() + 1
	if a.next < 1 {
		a.next = 1
	}
}

// Observe raises the counter past every id in t without ever lowering it.
func (a *Allocator) Observe(t *types.Tree) {
	if m := t.MaxID(); m >= a.next {
		a.next = m + 1
	}
}

// NextID returns one fresh id.
func (a *Allocator) NextID() types.NodeID {
	return a.NextIDs(1)[0]
}

// NextIDs returns n fresh, strictly increasing ids drawn in a single batch.
func (a *Allocator) NextIDs(n int) []types.NodeID {
	if n <= 0 {
		return nil
	}
	ids := make([]types.NodeID, n)
	for i := range ids {
		ids[i] = a.next
		a.next++
	}
	return ids
}

// Peek returns the id the next allocation will start at.
func (a *Allocator) Peek() types.NodeID {
	return a.next
}

// Advance raises the counter to next when it is behind. Never lowers it.
// Values past MaxNodeID+1 are ignored.
func (a *Allocator) Advance(next types.NodeID) {
	if next > a.next && next-1 <= types.MaxNodeID {
		a.next = next
	}
}
