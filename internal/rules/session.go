package rules

import "github.com/solatis/formulatree/internal/types"

// Session is one View's editing state: the current tree snapshot, its editor,
// and a callback invoked with every new snapshot.
// Not safe for concurrent use.
type Session struct {
	engine   *Engine
	editor   *Editor
	tree     *types.Tree
	onChange func(*types.Tree)
}

// NewSession builds the tree from records. onChange may be nil.
func (e *Engine) NewSession(records []types.Record, onChange func(*types.Tree)) (*Session, error) {
	t, ed, err := e.BuildTree(records)
	if err != nil {
		return nil, err
	}
	return &Session{engine: e, editor: ed, tree: t, onChange: onChange}, nil
}

// Tree returns the current snapshot. Snapshots are never mutated afterwards.
func (s *Session) Tree() *types.Tree {
	return s.tree
}

// NextID is the id the next added node will receive.
func (s *Session) NextID() types.NodeID {
	return s.editor.Allocator().Peek()
}

// ResumeFrom continues id allocation at next when it is ahead of the tree,
// so ids a client saw freed earlier stay retired.
func (s *Session) ResumeFrom(next types.NodeID) {
	s.editor.Allocator().Advance(next)
}

// Apply runs m against the current snapshot. On success the new snapshot
// replaces the current one and is handed to the callback.
func (s *Session) Apply(m Mutation) error {
	next, err := s.editor.Apply(s.tree, m)
	if err != nil {
		return err
	}
	s.tree = next
	if s.onChange != nil {
		s.onChange(next)
	}
	return nil
}

// Validate checks the current snapshot.
func (s *Session) Validate() Errors {
	return s.engine.Validate(s.tree)
}

// Formula renders the current snapshot.
func (s *Session) Formula() string {
	return s.engine.GenerateFormula(s.tree)
}

// Save returns records and formula of the current snapshot, or a
// *ValidationError when the tree is not clean.
func (s *Session) Save() ([]types.Record, string, error) {
	return s.engine.Prepare(s.tree)
}
