package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" database/sql driver

	"github.com/zphere-app/tenantdb/pkg/driver"
)

// Driver implements the lifecycle engine over one SQLite file per tenant.
// Creating a tenant database is initializing its file, which makes the
// operation implicitly idempotent; dropping it removes the file.
type Driver struct {
	dir    string
	prefix string
}

// New builds a sqlite driver rooted at dir. The directory is created if it
// does not exist; the master database lives at dir/master.db.
func New(dir, tenantDBPrefix string) (*Driver, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Join(driver.ErrFailedToOpenPool, err)
	}
	return &Driver{dir: dir, prefix: tenantDBPrefix}, nil
}

func (d *Driver) Name() string { return "sqlite" }

func (d *Driver) MasterDSN() string {
	return fileDSN(filepath.Join(d.dir, "master.db"))
}

func (d *Driver) TenantDSN(dbName string) string {
	return fileDSN(d.path(dbName))
}

func (d *Driver) DatabaseName(tenantID string) string {
	return d.prefix + driver.SanitizeTenantID(tenantID)
}

func (d *Driver) path(dbName string) string {
	return filepath.Join(d.dir, dbName+".db")
}

// fileDSN enables a busy timeout and foreign keys so concurrent borrowers
// of one tenant pool queue on the writer lock instead of failing fast.
func fileDSN(path string) string {
	return "file:" + path + "?_busy_timeout=5000&_foreign_keys=on"
}

func (d *Driver) Open(ctx context.Context, dsn string, maxConns int) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Join(driver.ErrFailedToOpenPool, err)
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Join(driver.ErrFailedToOpenPool, err)
	}
	return db, nil
}

func (d *Driver) CreateDatabase(ctx context.Context, dbName string) error {
	f, err := os.OpenFile(d.path(dbName), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return errors.Join(driver.ErrCreateDatabaseFailed, err)
	}
	return f.Close()
}

func (d *Driver) DropDatabase(ctx context.Context, dbName string) error {
	if err := os.Remove(d.path(dbName)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Join(driver.ErrDropDatabaseFailed, err)
	}
	return nil
}

func (d *Driver) DatabaseExists(ctx context.Context, dbName string) (bool, error) {
	_, err := os.Stat(d.path(dbName))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (d *Driver) TableExists(ctx context.Context, db *sql.DB, table string) (bool, error) {
	var name string
	err := db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (d *Driver) ColumnExists(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx,
		"SELECT 1 FROM pragma_table_info(?) WHERE name = ?", table, column).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RowLockClause is empty: SQLite serializes writers with its database-level
// write lock, so SELECT ... FOR UPDATE has no equivalent or need.
func (d *Driver) RowLockClause() string { return "" }

// Rebind is the identity: SQLite understands ? placeholders natively.
func (d *Driver) Rebind(query string) string { return query }
