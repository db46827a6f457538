package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zphere-app/tenantdb/pkg/driver/sqlite"
)

func TestDatabaseLifecycle(t *testing.T) {
	t.Parallel()

	d, err := sqlite.New(t.TempDir(), "zphere_tenant_")
	require.NoError(t, err)
	ctx := context.Background()

	dbName := d.DatabaseName("550e8400-e29b-41d4-a716-446655440000")

	exists, err := d.DatabaseExists(ctx, dbName)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, d.CreateDatabase(ctx, dbName))

	exists, err = d.DatabaseExists(ctx, dbName)
	require.NoError(t, err)
	assert.True(t, exists)

	// Creating an existing database is a no-op, never an error.
	require.NoError(t, d.CreateDatabase(ctx, dbName))

	require.NoError(t, d.DropDatabase(ctx, dbName))

	exists, err = d.DatabaseExists(ctx, dbName)
	require.NoError(t, err)
	assert.False(t, exists)

	// Dropping a missing database is also a no-op.
	require.NoError(t, d.DropDatabase(ctx, dbName))
}

func TestIntrospection(t *testing.T) {
	t.Parallel()

	d, err := sqlite.New(t.TempDir(), "zphere_tenant_")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, d.CreateDatabase(ctx, "zphere_tenant_abc"))
	db, err := d.Open(ctx, d.TenantDSN("zphere_tenant_abc"), 2)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.ExecContext(ctx, "CREATE TABLE tasks (id TEXT PRIMARY KEY, title TEXT NOT NULL)")
	require.NoError(t, err)

	t.Run("table exists", func(t *testing.T) {
		exists, err := d.TableExists(ctx, db, "tasks")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = d.TableExists(ctx, db, "projects")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("column exists", func(t *testing.T) {
		exists, err := d.ColumnExists(ctx, db, "tasks", "title")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = d.ColumnExists(ctx, db, "tasks", "sprint_id")
		require.NoError(t, err)
		assert.False(t, exists)

		exists, err = d.ColumnExists(ctx, db, "missing_table", "title")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestRebindIsIdentity(t *testing.T) {
	t.Parallel()

	d, err := sqlite.New(t.TempDir(), "")
	require.NoError(t, err)

	q := "SELECT id FROM organizations WHERE slug = ? AND is_active = ?"
	assert.Equal(t, q, d.Rebind(q))
	assert.Empty(t, d.RowLockClause())
}
