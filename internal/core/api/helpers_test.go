package api

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solatis/formulatree/internal/core/auth"
	"github.com/solatis/formulatree/internal/core/db"
	"github.com/solatis/formulatree/internal/rules"
	"github.com/solatis/formulatree/internal/types"
)

const testTenant = "tenant-a"

func newTestService(t *testing.T, catalog *rules.Catalog) (*FormulaService, *db.RuleSetStore) {
	t.Helper()
	conn, err := db.Open("sqlite://" + filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.MigrateUp(conn))

	queries, err := db.LoadQueries(conn)
	require.NoError(t, err)
	store := db.NewRuleSetStore(queries)

	svc, err := NewFormulaService(store, catalog, rules.Options{})
	require.NoError(t, err)
	return svc, store
}

func tenantCtx() context.Context {
	return auth.WithTenantID(context.Background(), testTenant)
}

// overtimeMutations builds IF([1000] = 'OT1.1', [18910] * 1.39) from an
// empty tree, every required field filled.
func overtimeMutations() []rules.Mutation {
	return []rules.Mutation{
		{Op: rules.OpAddRootRow},
		{Op: rules.OpSetConditionType, ID: 1, ConditionType: types.ConditionIf},
		{Op: rules.OpSetField, ID: 1, Field: rules.FieldLeftType, Value: string(types.OperandParamID)},
		{Op: rules.OpSetField, ID: 1, Field: rules.FieldLeftValue, Value: "1000"},
		{Op: rules.OpSetField, ID: 1, Field: rules.FieldComparator, Value: "="},
		{Op: rules.OpSetField, ID: 1, Field: rules.FieldRightType, Value: string(types.OperandText)},
		{Op: rules.OpSetField, ID: 1, Field: rules.FieldRightValue, Value: "OT1.1"},
		{Op: rules.OpSetField, ID: 1, Field: rules.FieldComment, Value: "overtime"},
		{Op: rules.OpSetField, ID: 2, Field: rules.FieldParamID, Value: "18910"},
		{Op: rules.OpSetField, ID: 2, Field: rules.FieldUOM, Value: "HR"},
		{Op: rules.OpSetField, ID: 2, Field: rules.FieldOperation, Value: "*"},
		{Op: rules.OpSetField, ID: 2, Field: rules.FieldOperand, Value: "1.39"},
		{Op: rules.OpSetField, ID: 2, Field: rules.FieldComment, Value: "rate"},
	}
}

const overtimeFormula = "IF([1000] = 'OT1.1', [18910] * 1.39)"

// overtimeRecords returns the records of the overtime tree.
func overtimeRecords(t *testing.T, svc *FormulaService) []types.Record {
	t.Helper()
	resp, err := svc.Mutate(tenantCtx(), &MutateRequest{Mutations: overtimeMutations()})
	require.NoError(t, err)
	require.True(t, resp.Valid, resp.Errors)
	return resp.Records
}
