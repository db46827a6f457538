package masterdb

import (
	"context"
	"database/sql"
	"errors"
)

// EnsureSchema creates the master schema with dialect-neutral DDL. It is
// the bootstrap path for file-backed deployments and tests, where a goose
// migration directory would be overkill; postgres deployments run Migrate
// instead.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS organizations (
			id         TEXT PRIMARY KEY,
			name       VARCHAR(255) NOT NULL,
			slug       VARCHAR(100) NOT NULL UNIQUE,
			is_active  BOOLEAN NOT NULL DEFAULT TRUE,
			settings   TEXT NOT NULL DEFAULT '{}',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	return nil
}
