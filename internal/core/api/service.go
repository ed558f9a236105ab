// Package api provides the formulatree FormulaService and its gRPC and HTTP
// adapters.
package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/solatis/formulatree/internal/core/auth"
	"github.com/solatis/formulatree/internal/core/db"
	"github.com/solatis/formulatree/internal/render"
	"github.com/solatis/formulatree/internal/rules"
	"github.com/solatis/formulatree/internal/types"
)

// Store is the persistence the service needs. Implemented by *db.RuleSetStore.
type Store interface {
	Save(ctx context.Context, tenantID string, rs db.RuleSet, records []types.Record) (*db.RuleSet, error)
	Load(ctx context.Context, tenantID string, id types.RuleSetID) (*db.RuleSet, []types.Record, error)
	List(ctx context.Context, tenantID string) ([]db.RuleSet, error)
	Delete(ctx context.Context, tenantID string, id types.RuleSetID) error
	Catalog(ctx context.Context, tenantID string) (*rules.Catalog, error)
}

// errMissingTenant means a handler ran without the auth layer in front of it.
var errMissingTenant = errors.New("missing tenant_id in context")

// FormulaService implements the editor operations shared by both transports.
// Thin orchestration layer over the rules engine and the store.
type FormulaService struct {
	store   Store
	catalog *rules.Catalog
	options rules.Options
}

// NewFormulaService creates the service. catalog is the fallback used for
// tenants without a stored catalog and may be nil.
func NewFormulaService(store Store, catalog *rules.Catalog, opts rules.Options) (*FormulaService, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	return &FormulaService{store: store, catalog: catalog, options: opts}, nil
}

// PreviewRequest carries a tree in storage form.
type PreviewRequest struct {
	Records []types.Record `json:"records"`
}

// MutateRequest carries a tree and the edits to apply to it, in order.
// NextID echoes the last TreeResponse.NextID so freed ids are not reissued.
type MutateRequest struct {
	Records   []types.Record   `json:"records"`
	Mutations []rules.Mutation `json:"mutations"`
	NextID    types.NodeID     `json:"nextId,omitempty"`
}

// TreeResponse is the View's picture of a tree: normalized records, the
// generated formula, the path-keyed validation errors and a text outline.
type TreeResponse struct {
	Records []types.Record `json:"records"`
	Formula string         `json:"formula"`
	Errors  rules.Errors   `json:"errors"`
	Valid   bool           `json:"valid"`
	NextID  types.NodeID   `json:"nextId"`
	Outline string         `json:"outline"`
}

// RuleSetRequest names one stored rule set.
type RuleSetRequest struct {
	ID string `json:"id"`
}

// SaveRuleSetRequest creates or replaces a rule set. An empty ID creates a new one.
type SaveRuleSetRequest struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Records []types.Record `json:"records"`
}

// RuleSetResponse is a stored rule set together with its tree.
type RuleSetResponse struct {
	RuleSet db.RuleSet   `json:"ruleSet"`
	Tree    TreeResponse `json:"tree"`
}

// ListRuleSetsRequest is empty; rule sets are scoped to the caller's tenant.
type ListRuleSetsRequest struct{}

// ListRuleSetsResponse lists rule set headers ordered by name.
type ListRuleSetsResponse struct {
	RuleSets []db.RuleSet `json:"ruleSets"`
}

// DeleteRuleSetResponse acknowledges a delete.
type DeleteRuleSetResponse struct {
	Deleted string `json:"deleted"`
}

// CatalogRequest is empty; the catalog is scoped to the caller's tenant.
type CatalogRequest struct{}

// CatalogResponse lists the options a View offers in its pickers.
type CatalogResponse struct {
	Params           []rules.ParamOption     `json:"params"`
	UOMs             []rules.UOMOption       `json:"uoms"`
	Comparators      []rules.Comparator      `json:"comparators"`
	ConditionTypes   []types.ConditionType   `json:"conditionTypes"`
	Operations       []types.Operation       `json:"operations"`
	OperandTypes     []types.OperandType     `json:"operandTypes"`
	LookupParamTypes []types.LookupParamType `json:"lookupParamTypes"`
}

func tenantID(ctx context.Context) (string, error) {
	id := auth.TenantIDFromContext(ctx)
	if id == "" {
		return "", errMissingTenant
	}
	return id, nil
}

// engine returns an engine over the tenant's stored catalog, falling back to
// the service catalog when the tenant has none.
func (s *FormulaService) engine(ctx context.Context, tenant string) (*rules.Engine, error) {
	catalog, err := s.store.Catalog(ctx, tenant)
	if err != nil {
		return nil, err
	}
	if len(catalog.Params()) == 0 && len(catalog.UOMs()) == 0 {
		catalog = s.catalog
	}
	return rules.NewEngine(catalog, s.options), nil
}

func (s *FormulaService) scope(ctx context.Context) (string, *rules.Engine, error) {
	tenant, err := tenantID(ctx)
	if err != nil {
		return "", nil, err
	}
	eng, err := s.engine(ctx, tenant)
	if err != nil {
		return "", nil, err
	}
	return tenant, eng, nil
}

func view(eng *rules.Engine, t *types.Tree, next types.NodeID) TreeResponse {
	errs := eng.Validate(t)
	if errs == nil {
		errs = rules.Errors{}
	}
	return TreeResponse{
		Records: nonNil(eng.Flatten(t)),
		Formula: eng.GenerateFormula(t),
		Errors:  errs,
		Valid:   len(errs) == 0,
		NextID:  next,
		Outline: render.Outline(t, eng.Generator()),
	}
}

// Preview normalizes a tree and reports its formula and validation state.
func (s *FormulaService) Preview(ctx context.Context, req *PreviewRequest) (*TreeResponse, error) {
	_, eng, err := s.scope(ctx)
	if err != nil {
		return nil, err
	}
	t, ed, err := eng.BuildTree(req.Records)
	if err != nil {
		return nil, err
	}
	resp := view(eng, t, ed.Allocator().Peek())
	return &resp, nil
}

// Mutate applies req.Mutations in order. The first failing mutation aborts
// the request; nothing is persisted either way.
func (s *FormulaService) Mutate(ctx context.Context, req *MutateRequest) (*TreeResponse, error) {
	_, eng, err := s.scope(ctx)
	if err != nil {
		return nil, err
	}
	session, err := eng.NewSession(req.Records, nil)
	if err != nil {
		return nil, err
	}
	session.ResumeFrom(req.NextID)
	for i, m := range req.Mutations {
		if err := session.Apply(m); err != nil {
			return nil, fmt.Errorf("mutation %d (%s): %w", i, m.Op, err)
		}
	}
	resp := view(eng, session.Tree(), session.NextID())
	return &resp, nil
}

// GetRuleSet loads a stored rule set.
func (s *FormulaService) GetRuleSet(ctx context.Context, req *RuleSetRequest) (*RuleSetResponse, error) {
	tenant, eng, err := s.scope(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseRuleSetID(req.ID)
	if err != nil {
		return nil, err
	}
	rs, records, err := s.store.Load(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	t, ed, err := eng.BuildTree(records)
	if err != nil {
		return nil, err
	}
	return &RuleSetResponse{RuleSet: *rs, Tree: view(eng, t, ed.Allocator().Peek())}, nil
}

// SaveRuleSet persists a tree. A tree with validation errors is rejected
// with a *rules.ValidationError and nothing is written.
func (s *FormulaService) SaveRuleSet(ctx context.Context, req *SaveRuleSetRequest) (*RuleSetResponse, error) {
	tenant, eng, err := s.scope(ctx)
	if err != nil {
		return nil, err
	}
	var id types.RuleSetID
	if req.ID != "" {
		if id, err = parseRuleSetID(req.ID); err != nil {
			return nil, err
		}
	}
	if _, err := db.ValidateRuleSetName(req.Name); err != nil {
		return nil, err
	}

	session, err := eng.NewSession(req.Records, nil)
	if err != nil {
		return nil, err
	}
	records, formula, err := session.Save()
	if err != nil {
		return nil, err
	}

	rs, err := s.store.Save(ctx, tenant, db.RuleSet{ID: id, Name: req.Name, Formula: formula}, records)
	if err != nil {
		return nil, err
	}
	return &RuleSetResponse{RuleSet: *rs, Tree: view(eng, session.Tree(), session.NextID())}, nil
}

// ListRuleSets lists the tenant's rule sets.
func (s *FormulaService) ListRuleSets(ctx context.Context, _ *ListRuleSetsRequest) (*ListRuleSetsResponse, error) {
	tenant, err := tenantID(ctx)
	if err != nil {
		return nil, err
	}
	sets, err := s.store.List(ctx, tenant)
	if err != nil {
		return nil, err
	}
	return &ListRuleSetsResponse{RuleSets: sets}, nil
}

// DeleteRuleSet removes a stored rule set.
func (s *FormulaService) DeleteRuleSet(ctx context.Context, req *RuleSetRequest) (*DeleteRuleSetResponse, error) {
	tenant, err := tenantID(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseRuleSetID(req.ID)
	if err != nil {
		return nil, err
	}
	if err := s.store.Delete(ctx, tenant, id); err != nil {
		return nil, err
	}
	return &DeleteRuleSetResponse{Deleted: string(id)}, nil
}

// Catalog returns the tenant's picker options.
func (s *FormulaService) Catalog(ctx context.Context, _ *CatalogRequest) (*CatalogResponse, error) {
	_, eng, err := s.scope(ctx)
	if err != nil {
		return nil, err
	}
	c := eng.Catalog()
	return &CatalogResponse{
		Params:           nonNil(c.Params()),
		UOMs:             nonNil(c.UOMs()),
		Comparators:      rules.Comparators(),
		ConditionTypes:   []types.ConditionType{types.ConditionNone, types.ConditionIf, types.ConditionIfElse, types.ConditionLookup},
		Operations:       []types.Operation{types.OpAdd, types.OpSub, types.OpMul, types.OpDiv, types.OpNumber, types.OpString},
		OperandTypes:     []types.OperandType{types.OperandParamID, types.OperandNumber, types.OperandText},
		LookupParamTypes: []types.LookupParamType{types.LookupParamID, types.LookupString, types.LookupNumber, types.LookupVariable, types.LookupMLCode, types.LookupNested},
	}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func parseRuleSetID(s string) (types.RuleSetID, error) {
	id, err := types.ParseRuleSetID(s)
	if err != nil {
		return "", fmt.Errorf("%w: rule set id %q", types.ErrInvalidValue, s)
	}
	return id, nil
}
