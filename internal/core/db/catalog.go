package db

import (
	"context"

	"github.com/solatis/formulatree/internal/rules"
)

// Catalog returns the parameter and unit options stored for tenantID. A
// tenant without stored options gets an empty catalog.
func (s *RuleSetStore) Catalog(ctx context.Context, tenantID string) (*rules.Catalog, error) {
	params := []rules.ParamOption{}
	if err := s.queries.SelectContext(ctx, "list-params", &params, tenantID); err != nil {
		return nil, dbError(err)
	}
	uoms := []rules.UOMOption{}
	if err := s.queries.SelectContext(ctx, "list-uoms", &uoms, tenantID); err != nil {
		return nil, dbError(err)
	}
	return rules.NewCatalog(params, uoms), nil
}

// ReplaceCatalog swaps the tenant's stored options for params and uoms.
// Duplicate values keep their first occurrence.
func (s *RuleSetStore) ReplaceCatalog(ctx context.Context, tenantID string, params []rules.ParamOption, uoms []rules.UOMOption) error {
	c := rules.NewCatalog(params, uoms)
	return s.queries.InTx(ctx, func(tx *Tx) error {
		if _, err := tx.ExecContext(ctx, "delete-params", tenantID); err != nil {
			return dbError(err)
		}
		if _, err := tx.ExecContext(ctx, "delete-uoms", tenantID); err != nil {
			return dbError(err)
		}
		for _, p := range c.Params() {
			if _, err := tx.ExecContext(ctx, "insert-param", tenantID, p.Value, p.Label, p.Description); err != nil {
				return dbError(err)
			}
		}
		for _, u := range c.UOMs() {
			if _, err := tx.ExecContext(ctx, "insert-uom", tenantID, u.Value, u.Label); err != nil {
				return dbError(err)
			}
		}
		return nil
	})
}
