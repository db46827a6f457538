package driver

import (
	"context"
	"database/sql"
	"strings"
)

// Driver abstracts the physical database engine behind the tenant lifecycle.
// Two implementations exist: a server-hosted engine where every tenant gets
// its own database on a shared server, and a file-per-tenant engine where
// creating a database means initializing a new file. The registry,
// provisioner and schema layers are written against this interface only.
type Driver interface {
	// Name reports the engine identifier, "postgres" or "sqlite".
	Name() string

	// MasterDSN returns the DSN of the master database.
	MasterDSN() string

	// TenantDSN returns the DSN for the given tenant database name.
	TenantDSN(dbName string) string

	// DatabaseName derives the physical database name for a tenant ID,
	// applying the configured per-deployment prefix.
	DatabaseName(tenantID string) string

	// Open opens a connection pool to the given DSN, capped at maxConns
	// open connections, and verifies it with a ping.
	Open(ctx context.Context, dsn string, maxConns int) (*sql.DB, error)

	// CreateDatabase physically creates the named database. Creating a
	// database that already exists is a no-op, never an error.
	CreateDatabase(ctx context.Context, dbName string) error

	// DropDatabase removes the named database, disconnecting any active
	// users first. Dropping a missing database is a no-op.
	DropDatabase(ctx context.Context, dbName string) error

	// DatabaseExists reports whether the named database exists.
	DatabaseExists(ctx context.Context, dbName string) (bool, error)

	// TableExists reports whether a table exists in the given database.
	TableExists(ctx context.Context, db *sql.DB, table string) (bool, error)

	// ColumnExists reports whether a column exists on the given table.
	ColumnExists(ctx context.Context, db *sql.DB, table, column string) (bool, error)

	// RowLockClause returns the suffix appended to SELECT statements that
	// must take a row-level lock, or an empty string when the engine's
	// transaction model already serializes writers.
	RowLockClause() string

	// Rebind rewrites a query written with ? placeholders into the
	// engine's native placeholder style.
	Rebind(query string) string
}

// Config selects and parameterizes the database engine for a deployment.
type Config struct {
	Engine         string `env:"DB_DRIVER" envDefault:"postgres"`          // Engine selects the driver implementation: "postgres" or "sqlite".
	MasterURL      string `env:"MASTER_DB_URL,required"`                   // MasterURL is the connection string of the master database.
	TenantDBPrefix string `env:"TENANT_DB_PREFIX" envDefault:"zphere_tenant_"` // TenantDBPrefix prefixes every tenant database name.
	SQLiteDir      string `env:"SQLITE_DATA_DIR" envDefault:"./data"`      // SQLiteDir is where tenant database files live when Engine is "sqlite".
}

// SanitizeTenantID strips characters that are not safe inside a database
// identifier. Tenant IDs are UUIDs, so this only removes dashes.
func SanitizeTenantID(tenantID string) string {
	return strings.ReplaceAll(tenantID, "-", "")
}
