package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/solatis/formulatree/internal/types"
)

// Tenant owns API keys, rule sets and a catalog.
type Tenant struct {
	ID        string    `db:"tenant_id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

// EnsureTenant returns the tenant called name, creating it on first use.
func (s *RuleSetStore) EnsureTenant(ctx context.Context, name string) (*Tenant, error) {
	var t Tenant
	err := s.queries.GetContext(ctx, "get-tenant-by-name", &t, name)
	if err == nil {
		return &t, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, dbError(err)
	}

	t = Tenant{ID: uuid.Must(uuid.NewV7()).String(), Name: name, CreatedAt: s.now()}
	if _, err := s.queries.ExecContext(ctx, "insert-tenant", t.ID, t.Name, t.CreatedAt); err != nil {
		return nil, dbError(fmt.Errorf("failed to create tenant: %w", err))
	}
	return &t, nil
}

// CreateAPIKey stores the HMAC hash of a newly issued key and returns the row id.
// The plaintext key is never stored.
func (s *RuleSetStore) CreateAPIKey(ctx context.Context, tenantID, name, secretID string, keyHash []byte) (string, error) {
	id := types.NewAPIKeyID()
	if _, err := s.queries.ExecContext(ctx, "insert-api-key", id, tenantID, name, secretID, keyHash, s.now()); err != nil {
		return "", dbError(fmt.Errorf("failed to create api key: %w", err))
	}
	return id, nil
}

// RevokeAPIKey marks a key revoked. Revoking twice is not an error.
func (s *RuleSetStore) RevokeAPIKey(ctx context.Context, apiKeyID string) error {
	if _, err := s.queries.ExecContext(ctx, "revoke-api-key", s.now(), apiKeyID); err != nil {
		return dbError(err)
	}
	return nil
}
