package masterdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Settings records per-organization provisioning state inside the master
// database. The database_created flag is the single durable source of truth
// for whether the tenant's physical database exists: it is only ever set
// after physical creation and initial schema setup have succeeded.
type Settings struct {
	DatabaseCreated bool   `json:"database_created"`
	DatabaseName    string `json:"database_name,omitempty"`
}

// Organization is a tenant's identity row in the master database.
// Organizations are deactivated rather than hard-deleted; IsActive gates
// subdomain resolution and reconciliation sweeps.
type Organization struct {
	ID        uuid.UUID
	Name      string
	Slug      string
	IsActive  bool
	Settings  Settings
	CreatedAt time.Time
	UpdatedAt time.Time
}

// locker is the subset of driver.Driver the store needs: dialect-specific
// row locking and placeholder style.
type locker interface {
	RowLockClause() string
	Rebind(query string) string
}

// Store reads and writes Organization rows. It is the only component that
// touches provisioning state; the registry's in-memory view is derived from
// it and rebuilt from scratch on restart.
type Store struct {
	db  *sql.DB
	drv locker
}

func NewStore(db *sql.DB, drv locker) *Store {
	return &Store{db: db, drv: drv}
}

// DB exposes the underlying master pool for transaction control.
func (s *Store) DB() *sql.DB { return s.db }

const orgColumns = "id, name, slug, is_active, settings, created_at, updated_at"

// Create inserts a new organization with provisioning pending. The physical
// database is created lazily on first use or explicitly by the provisioner.
func (s *Store) Create(ctx context.Context, name, slug string) (*Organization, error) {
	org := &Organization{
		ID:        uuid.New(),
		Name:      name,
		Slug:      slug,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	settings, err := json.Marshal(org.Settings)
	if err != nil {
		return nil, err
	}

	q := s.drv.Rebind(`
		INSERT INTO organizations (id, name, slug, is_active, settings, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err = s.db.ExecContext(ctx, q,
		org.ID.String(), org.Name, org.Slug, org.IsActive, string(settings), org.CreatedAt, org.UpdatedAt)
	if err != nil {
		if IsDuplicateKeyError(err) {
			return nil, errors.Join(ErrSlugTaken, err)
		}
		return nil, err
	}
	return org, nil
}

// GetByID loads an organization by its UUID.
func (s *Store) GetByID(ctx context.Context, id string) (*Organization, error) {
	q := s.drv.Rebind("SELECT " + orgColumns + " FROM organizations WHERE id = ?")
	return s.scanOne(s.db.QueryRowContext(ctx, q, id))
}

// GetActiveBySlug loads an active organization by slug. Inactive or unknown
// slugs both return ErrOrganizationNotFound so callers cannot distinguish
// suspended tenants from missing ones during resolution.
func (s *Store) GetActiveBySlug(ctx context.Context, slug string) (*Organization, error) {
	q := s.drv.Rebind("SELECT " + orgColumns + " FROM organizations WHERE slug = ? AND is_active = ?")
	return s.scanOne(s.db.QueryRowContext(ctx, q, slug, true))
}

// ListActiveIDs returns the IDs of all active organizations, the working set
// of a reconciliation sweep.
func (s *Store) ListActiveIDs(ctx context.Context) ([]string, error) {
	q := s.drv.Rebind("SELECT id FROM organizations WHERE is_active = ? ORDER BY created_at")
	rows, err := s.db.QueryContext(ctx, q, true)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SetActive toggles an organization's active flag. Suspension gates
// subdomain resolution and sweeps; it does not touch the physical database.
func (s *Store) SetActive(ctx context.Context, id string, active bool) error {
	q := s.drv.Rebind("UPDATE organizations SET is_active = ?, updated_at = ? WHERE id = ?")
	res, err := s.db.ExecContext(ctx, q, active, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOrganizationNotFound
	}
	return nil
}

// GetForProvisioning loads an organization inside the given transaction,
// taking a row-level lock where the engine supports one. Two concurrent
// provisioning attempts for the same tenant serialize on this lock.
func (s *Store) GetForProvisioning(ctx context.Context, tx *sql.Tx, id string) (*Organization, error) {
	q := s.drv.Rebind("SELECT "+orgColumns+" FROM organizations WHERE id = ?") + s.drv.RowLockClause()
	return s.scanOne(tx.QueryRowContext(ctx, q, id))
}

// MarkDatabaseCreated flips the provisioning flag inside the caller's
// transaction. Committing the transaction is the durability point.
func (s *Store) MarkDatabaseCreated(ctx context.Context, tx *sql.Tx, id, dbName string) error {
	settings, err := json.Marshal(Settings{DatabaseCreated: true, DatabaseName: dbName})
	if err != nil {
		return err
	}
	q := s.drv.Rebind("UPDATE organizations SET settings = ?, updated_at = ? WHERE id = ?")
	_, err = tx.ExecContext(ctx, q, string(settings), time.Now().UTC(), id)
	return err
}

// ClearDatabaseCreated resets provisioning state after an explicit drop.
func (s *Store) ClearDatabaseCreated(ctx context.Context, id string) error {
	settings, err := json.Marshal(Settings{})
	if err != nil {
		return err
	}
	q := s.drv.Rebind("UPDATE organizations SET settings = ?, updated_at = ? WHERE id = ?")
	_, err = s.db.ExecContext(ctx, q, string(settings), time.Now().UTC(), id)
	return err
}

func (s *Store) scanOne(row *sql.Row) (*Organization, error) {
	var (
		org      Organization
		id       string
		settings []byte
	)
	err := row.Scan(&id, &org.Name, &org.Slug, &org.IsActive, &settings, &org.CreatedAt, &org.UpdatedAt)
	if IsNotFoundError(err) {
		return nil, ErrOrganizationNotFound
	}
	if err != nil {
		return nil, err
	}

	org.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &org.Settings); err != nil {
			return nil, err
		}
	}
	return &org, nil
}
