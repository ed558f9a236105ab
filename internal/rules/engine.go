package rules

import (
	"github.com/solatis/formulatree/internal/types"
)

// Options select the rendering policies of an Engine.
type Options struct {
	LookupPolicy    LookupPolicy
	PerRowOperators bool
}

// Engine bundles the catalog and rendering policy behind the calls a View makes:
// BuildTree, Editor, Validate, GenerateFormula and Flatten.
// Engine holds no per-tree state and is safe for concurrent use.
type Engine struct {
	catalog   *Catalog
	generator Generator
}

// NewEngine creates an engine. catalog may be nil.
func NewEngine(catalog *Catalog, opts Options) *Engine {
	if opts.LookupPolicy == "" {
		opts.LookupPolicy = LookupArguments
	}
	return &Engine{
		catalog:   catalog,
		generator: Generator{Policy: opts.LookupPolicy, PerRowOperators: opts.PerRowOperators},
	}
}

// Catalog returns the engine's parameter catalog.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// Generator returns the engine's formula generator.
func (e *Engine) Generator() Generator {
	return e.generator
}

// BuildTree reconstructs a tree from storage records, derives parameter
// descriptions, expands nodes with children and tops up branch minimums.
// The returned Editor is seeded from the tree and must be used for every
// following mutation of it.
func (e *Engine) BuildTree(records []types.Record) (*types.Tree, *Editor, error) {
	t := Unflatten(records)
	ed := NewEditor(t, e.catalog)
	t, err := ed.Normalize(t)
	if err != nil {
		return nil, nil, err
	}
	t.Walk(func(n *types.Node, _ int) bool {
		if c, ok := n.Condition.(types.Computation); ok {
			c.ParamDescription = e.catalog.Describe(c.ParamID)
			n.Condition = c
		}
		n.Expanded = n.HasChildren()
		return true
	})
	return t, ed, nil
}

// Validate checks t against the engine's catalog.
func (e *Engine) Validate(t *types.Tree) Errors {
	return Validate(t, e.catalog)
}

// GenerateFormula renders the complete formula of t.
func (e *Engine) GenerateFormula(t *types.Tree) string {
	return e.generator.Tree(t)
}

// Flatten converts t to storage records.
func (e *Engine) Flatten(t *types.Tree) []types.Record {
	return Flatten(t)
}

// Prepare validates t and, when clean, returns its records and formula.
// A dirty tree yields a *ValidationError.
func (e *Engine) Prepare(t *types.Tree) ([]types.Record, string, error) {
	if errs := e.Validate(t); len(errs) > 0 {
		return nil, "", &ValidationError{Errors: errs}
	}
	return e.Flatten(t), e.GenerateFormula(t), nil
}
