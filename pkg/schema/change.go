package schema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Inspector answers schema introspection questions for one engine. Both
// driver implementations satisfy it.
type Inspector interface {
	TableExists(ctx context.Context, db *sql.DB, table string) (bool, error)
	ColumnExists(ctx context.Context, db *sql.DB, table, column string) (bool, error)
}

// Change is one named, reviewed, additive DDL operation. Changes come from
// the fixed catalog in this package, never from free-form string
// interpolation, and each carries its own applicability check so applying
// it twice is a no-op rather than an error.
type Change interface {
	// Name identifies the change in reports and logs.
	Name() string

	// Applied reports whether the change is already satisfied.
	Applied(ctx context.Context, db *sql.DB, ins Inspector) (bool, error)

	// Apply executes the DDL. Callers go through Ensure, which checks
	// Applied first.
	Apply(ctx context.Context, db *sql.DB) error
}

// Ensure applies a change only if its applicability check is not yet
// satisfied. Returns true when DDL actually ran.
func Ensure(ctx context.Context, db *sql.DB, ins Inspector, ch Change) (bool, error) {
	applied, err := ch.Applied(ctx, db, ins)
	if err != nil {
		return false, fmt.Errorf("%s: check: %w", ch.Name(), err)
	}
	if applied {
		return false, nil
	}
	if err := ch.Apply(ctx, db); err != nil {
		return false, errors.Join(ErrChangeFailed, fmt.Errorf("%s: %w", ch.Name(), err))
	}
	return true, nil
}

// CreateTable creates a table from a complete, reviewed DDL statement.
type CreateTable struct {
	Table string
	DDL   string
}

func (c CreateTable) Name() string { return "create_table:" + c.Table }

func (c CreateTable) Applied(ctx context.Context, db *sql.DB, ins Inspector) (bool, error) {
	return ins.TableExists(ctx, db, c.Table)
}

func (c CreateTable) Apply(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, c.DDL)
	return err
}

// AddColumn adds one column to an existing table. Table, column and
// definition are fixed catalog values, quoted as identifiers where needed.
type AddColumn struct {
	Table      string
	Column     string
	Definition string
}

func (c AddColumn) Name() string { return "add_column:" + c.Table + "." + c.Column }

func (c AddColumn) Applied(ctx context.Context, db *sql.DB, ins Inspector) (bool, error) {
	exists, err := ins.TableExists(ctx, db, c.Table)
	if err != nil || !exists {
		// A missing table means the tenant predates this table's
		// CreateTable change; that change carries the column already.
		return err == nil, err
	}
	return ins.ColumnExists(ctx, db, c.Table, c.Column)
}

func (c AddColumn) Apply(ctx context.Context, db *sql.DB) error {
	stmt := fmt.Sprintf("ALTER TABLE %q ADD COLUMN %q %s", c.Table, c.Column, c.Definition)
	_, err := db.ExecContext(ctx, stmt)
	return err
}
