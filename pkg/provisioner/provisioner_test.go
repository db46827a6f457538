package provisioner_test

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zphere-app/tenantdb/pkg/driver/sqlite"
	"github.com/zphere-app/tenantdb/pkg/masterdb"
	"github.com/zphere-app/tenantdb/pkg/provisioner"
	"github.com/zphere-app/tenantdb/pkg/schema"
)

type evictorSpy struct {
	calls atomic.Int64
}

func (e *evictorSpy) Evict(ctx context.Context, tenantID string) error {
	e.calls.Add(1)
	return nil
}

func newFixture(t *testing.T) (*provisioner.Provisioner, *masterdb.Store, *sqlite.Driver) {
	t.Helper()
	ctx := context.Background()

	drv, err := sqlite.New(t.TempDir(), "zphere_tenant_")
	require.NoError(t, err)

	master, err := drv.Open(ctx, drv.MasterDSN(), 4)
	require.NoError(t, err)
	t.Cleanup(func() { master.Close() })
	require.NoError(t, masterdb.EnsureSchema(ctx, master))

	store := masterdb.NewStore(master, drv)
	prov := provisioner.New(store, drv, schema.Catalog(), slog.New(slog.DiscardHandler))
	return prov, store, drv
}

func TestEnsureDatabase(t *testing.T) {
	t.Parallel()

	prov, store, drv := newFixture(t)
	ctx := context.Background()

	org, err := store.Create(ctx, "Acme Corp", "acme")
	require.NoError(t, err)
	id := org.ID.String()

	created, err := prov.EnsureDatabase(ctx, id)
	require.NoError(t, err)
	assert.True(t, created)

	t.Run("physical database and initial schema exist", func(t *testing.T) {
		dbName := drv.DatabaseName(id)
		exists, err := drv.DatabaseExists(ctx, dbName)
		require.NoError(t, err)
		assert.True(t, exists)

		db, err := drv.Open(ctx, drv.TenantDSN(dbName), 2)
		require.NoError(t, err)
		defer db.Close()

		for _, table := range []string{"projects", "tasks", "customers", "invoices", "proposals"} {
			ok, err := drv.TableExists(ctx, db, table)
			require.NoError(t, err)
			assert.True(t, ok, table)
		}
	})

	t.Run("flag recorded durably", func(t *testing.T) {
		got, err := store.GetByID(ctx, id)
		require.NoError(t, err)
		assert.True(t, got.Settings.DatabaseCreated)
		assert.Equal(t, drv.DatabaseName(id), got.Settings.DatabaseName)
	})

	t.Run("repeated calls are no-ops", func(t *testing.T) {
		for range 3 {
			created, err := prov.EnsureDatabase(ctx, id)
			require.NoError(t, err)
			assert.False(t, created)
		}
	})

	t.Run("unknown tenant", func(t *testing.T) {
		_, err := prov.EnsureDatabase(ctx, "00000000-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, masterdb.ErrOrganizationNotFound)
	})
}

func TestEnsureDatabaseRecoversFromStaleFlag(t *testing.T) {
	t.Parallel()

	prov, store, drv := newFixture(t)
	ctx := context.Background()

	org, err := store.Create(ctx, "Acme Corp", "acme")
	require.NoError(t, err)
	id := org.ID.String()

	// A crash between physical creation and flag commit leaves the file
	// present and the flag false. EnsureDatabase must converge anyway.
	require.NoError(t, drv.CreateDatabase(ctx, drv.DatabaseName(id)))

	created, err := prov.EnsureDatabase(ctx, id)
	require.NoError(t, err)
	assert.True(t, created)

	got, err := store.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.Settings.DatabaseCreated)
}

func TestDropDatabase(t *testing.T) {
	t.Parallel()

	prov, store, drv := newFixture(t)
	ctx := context.Background()

	org, err := store.Create(ctx, "Acme Corp", "acme")
	require.NoError(t, err)
	id := org.ID.String()

	_, err = prov.EnsureDatabase(ctx, id)
	require.NoError(t, err)

	spy := &evictorSpy{}
	prov.SetEvictor(spy)

	require.NoError(t, prov.DropDatabase(ctx, id))
	assert.EqualValues(t, 1, spy.calls.Load())

	exists, err := drv.DatabaseExists(ctx, drv.DatabaseName(id))
	require.NoError(t, err)
	assert.False(t, exists)

	got, err := store.GetByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, got.Settings.DatabaseCreated)

	t.Run("re-provision after drop starts clean", func(t *testing.T) {
		created, err := prov.EnsureDatabase(ctx, id)
		require.NoError(t, err)
		assert.True(t, created)
	})
}
