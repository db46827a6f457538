package masterdb

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

var (
	ErrOrganizationNotFound    = errors.New("organization not found")
	ErrSlugTaken               = errors.New("organization slug already taken")
	ErrFailedToApplyMigrations = errors.New("failed to apply master migrations")
	ErrMigrationsDirNotFound   = errors.New("master migrations directory not found")
)

// IsNotFoundError detects sql.ErrNoRows for consistent "not found" handling.
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, sql.ErrNoRows)
}

// IsDuplicateKeyError detects unique constraint violations on either engine:
// SQLSTATE 23505 on postgres, SQLITE_CONSTRAINT_UNIQUE on sqlite. Used to
// map slug collisions to ErrSlugTaken.
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}

	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
