package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/solatis/formulatree/internal/types"
)

// RuleSet is the stored header of a rule tree. The tree itself is kept as
// flat records in rule_nodes, in pre-order.
type RuleSet struct {
	ID        types.RuleSetID `db:"rule_set_id" json:"id"`
	TenantID  string          `db:"tenant_id" json:"tenantId"`
	Name      string          `db:"name" json:"name"`
	Formula   string          `db:"formula" json:"formula"`
	NodeCount int             `db:"node_count" json:"nodeCount"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time       `db:"updated_at" json:"updatedAt"`
}

// RuleSetStore persists rule sets per tenant.
type RuleSetStore struct {
	queries *Queries
	now     func() time.Time
}

// NewRuleSetStore creates a store over the loaded named queries.
func NewRuleSetStore(queries *Queries) *RuleSetStore {
	return &RuleSetStore{
		queries: queries,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ValidateRuleSetName trims name and checks it is non-empty and within
// MaxRuleSetNameLength.
func ValidateRuleSetName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", types.ErrInvalidRuleSetName)
	}
	if len(name) > types.MaxRuleSetNameLength {
		return "", fmt.Errorf("%w: name exceeds %d characters", types.ErrInvalidRuleSetName, types.MaxRuleSetNameLength)
	}
	return name, nil
}

// Save replaces the rule set rs.ID with records and formula, creating it when
// it does not exist yet. An empty rs.ID gets a fresh UUIDv7. Header and nodes
// are written in one transaction. An id owned by another tenant yields
// types.ErrRuleSetNotFound.
func (s *RuleSetStore) Save(ctx context.Context, tenantID string, rs RuleSet, records []types.Record) (*RuleSet, error) {
	name, err := ValidateRuleSetName(rs.Name)
	if err != nil {
		return nil, err
	}
	if rs.ID == "" {
		rs.ID = types.NewRuleSetID()
	}
	now := s.now()

	err = s.queries.InTx(ctx, func(tx *Tx) error {
		res, err := tx.ExecContext(ctx, "update-rule-set", name, rs.Formula, len(records), now, tenantID, rs.ID)
		if err != nil {
			return dbError(fmt.Errorf("failed to update rule set: %w", err))
		}
		updated, err := res.RowsAffected()
		if err != nil {
			return dbError(err)
		}
		if updated == 0 {
			res, err := tx.ExecContext(ctx, "insert-rule-set", rs.ID, tenantID, name, rs.Formula, len(records), now, now)
			if err != nil {
				return dbError(fmt.Errorf("failed to insert rule set: %w", err))
			}
			inserted, err := res.RowsAffected()
			if err != nil {
				return dbError(err)
			}
			// The id exists but belongs to another tenant.
			if inserted == 0 {
				return fmt.Errorf("%w: %s", types.ErrRuleSetNotFound, rs.ID)
			}
		}

		if _, err := tx.ExecContext(ctx, "delete-rule-nodes", rs.ID); err != nil {
			return dbError(fmt.Errorf("failed to clear rule nodes: %w", err))
		}
		for i, r := range records {
			if _, err := tx.ExecContext(ctx, "insert-rule-node", nodeArgs(rs.ID, i, r)...); err != nil {
				return dbError(fmt.Errorf("failed to insert node %d: %w", r.ID, err))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, tenantID, rs.ID)
}

func nodeArgs(id types.RuleSetID, position int, r types.Record) []interface{} {
	return []interface{}{
		id, position, r.ID, r.ParentID, r.BranchFlag, r.BranchIndex,
		r.ConditionType, r.ParamID, r.Operation, r.StandardValue,
		r.LeftType, r.LeftValue, r.Comparator, r.RightType, r.RightValue,
		r.UOM, r.Comment, r.LookupParamType, r.LookupParamValue, r.Combinator,
	}
}

// Get returns the header of one rule set.
func (s *RuleSetStore) Get(ctx context.Context, tenantID string, id types.RuleSetID) (*RuleSet, error) {
	var rs RuleSet
	err := s.queries.GetContext(ctx, "get-rule-set", &rs, tenantID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", types.ErrRuleSetNotFound, id)
	}
	if err != nil {
		return nil, dbError(err)
	}
	return &rs, nil
}

// Load returns a rule set with its records in stored (pre-order) order.
func (s *RuleSetStore) Load(ctx context.Context, tenantID string, id types.RuleSetID) (*RuleSet, []types.Record, error) {
	rs, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, nil, err
	}
	records := []types.Record{}
	if err := s.queries.SelectContext(ctx, "list-rule-nodes", &records, id); err != nil {
		return nil, nil, dbError(err)
	}
	return rs, records, nil
}

// List returns the tenant's rule sets ordered by name.
func (s *RuleSetStore) List(ctx context.Context, tenantID string) ([]RuleSet, error) {
	sets := []RuleSet{}
	if err := s.queries.SelectContext(ctx, "list-rule-sets", &sets, tenantID); err != nil {
		return nil, dbError(err)
	}
	return sets, nil
}

// Delete removes a rule set and its nodes.
func (s *RuleSetStore) Delete(ctx context.Context, tenantID string, id types.RuleSetID) error {
	return s.queries.InTx(ctx, func(tx *Tx) error {
		// Header first: the tenant check guards the node delete.
		res, err := tx.ExecContext(ctx, "delete-rule-set", tenantID, id)
		if err != nil {
			return dbError(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return dbError(err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", types.ErrRuleSetNotFound, id)
		}
		if _, err := tx.ExecContext(ctx, "delete-rule-nodes", id); err != nil {
			return dbError(err)
		}
		return nil
	})
}
