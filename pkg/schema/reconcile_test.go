package schema_test

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zphere-app/tenantdb/pkg/driver/sqlite"
	"github.com/zphere-app/tenantdb/pkg/schema"
)

type stubTenants struct {
	ids []string
	err error
}

func (s stubTenants) ListActiveIDs(ctx context.Context) ([]string, error) {
	return s.ids, s.err
}

type stubProvisioner struct{}

func (stubProvisioner) EnsureDatabase(ctx context.Context, tenantID string) (bool, error) {
	return false, nil
}

// stubPools serves pre-opened sqlite databases and can simulate one broken
// tenant whose pool cannot be borrowed.
type stubPools struct {
	dbs    map[string]*sql.DB
	failID string
}

func (p stubPools) Acquire(ctx context.Context, tenantID string) (*sql.DB, func(), error) {
	if tenantID == p.failID {
		return nil, nil, errors.New("pool unavailable")
	}
	return p.dbs[tenantID], func() {}, nil
}

func newReconcilerFixture(t *testing.T, ids ...string) (*sqlite.Driver, stubPools) {
	t.Helper()

	drv, err := sqlite.New(t.TempDir(), "zphere_tenant_")
	require.NoError(t, err)

	pools := stubPools{dbs: make(map[string]*sql.DB)}
	for _, id := range ids {
		dbName := drv.DatabaseName(id)
		require.NoError(t, drv.CreateDatabase(context.Background(), dbName))
		db, err := drv.Open(context.Background(), drv.TenantDSN(dbName), 2)
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		pools.dbs[id] = db
	}
	return drv, pools
}

func TestReconcileAll(t *testing.T) {
	t.Parallel()

	drv, pools := newReconcilerFixture(t, "a", "b", "c")
	rec := schema.NewReconciler(
		stubTenants{ids: []string{"a", "b", "c"}},
		stubProvisioner{},
		pools,
		drv,
		schema.Config{Workers: 2},
		slog.New(slog.DiscardHandler),
	)

	changes := []schema.Change{
		schema.CreateTable{Table: "projects", DDL: "CREATE TABLE projects (id TEXT PRIMARY KEY)"},
	}

	report, err := rec.ReconcileAll(context.Background(), changes)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, report.Applied)
	assert.Empty(t, report.Skipped)
	assert.Empty(t, report.Errors)

	// A second sweep finds everything up to date.
	report, err = rec.ReconcileAll(context.Background(), changes)
	require.NoError(t, err)
	assert.Empty(t, report.Applied)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, report.Skipped)
}

func TestReconcileAllPartialFailure(t *testing.T) {
	t.Parallel()

	drv, pools := newReconcilerFixture(t, "a", "b", "c")
	pools.failID = "b"

	rec := schema.NewReconciler(
		stubTenants{ids: []string{"a", "b", "c"}},
		stubProvisioner{},
		pools,
		drv,
		schema.Config{},
		slog.New(slog.DiscardHandler),
	)

	changes := []schema.Change{
		schema.CreateTable{Table: "projects", DDL: "CREATE TABLE projects (id TEXT PRIMARY KEY)"},
	}

	report, err := rec.ReconcileAll(context.Background(), changes)
	require.NoError(t, err)

	// One broken tenant never blocks the rest of the sweep.
	assert.ElementsMatch(t, []string{"a", "c"}, report.Applied)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "b", report.Errors[0].TenantID)
	assert.ErrorContains(t, report.Errors[0].Err, "pool unavailable")
}

func TestReconcileAllListFailure(t *testing.T) {
	t.Parallel()

	drv, pools := newReconcilerFixture(t)
	wantErr := errors.New("master database down")

	rec := schema.NewReconciler(
		stubTenants{err: wantErr},
		stubProvisioner{},
		pools,
		drv,
		schema.Config{},
		slog.New(slog.DiscardHandler),
	)

	_, err := rec.ReconcileAll(context.Background(), nil)
	assert.ErrorIs(t, err, wantErr)
}
