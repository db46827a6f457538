package provisioner

import (
	"context"
	"errors"
	"log/slog"

	"github.com/zphere-app/tenantdb/pkg/driver"
	"github.com/zphere-app/tenantdb/pkg/masterdb"
	"github.com/zphere-app/tenantdb/pkg/schema"
)

// Evictor removes a tenant's cached connection handle before its database
// is dropped. Satisfied by the registry; wired after construction because
// the registry itself depends on the provisioner.
type Evictor interface {
	Evict(ctx context.Context, tenantID string) error
}

// Provisioner creates and destroys the physical database behind a tenant
// and keeps the durable provisioning flag in the master database honest:
// the flag is only ever set after physical creation and initial schema
// setup have both succeeded, inside the same locked master transaction that
// checked it.
type Provisioner struct {
	store   *masterdb.Store
	drv     driver.Driver
	changes []schema.Change
	evictor Evictor
	log     *slog.Logger
}

func New(store *masterdb.Store, drv driver.Driver, changes []schema.Change, log *slog.Logger) *Provisioner {
	return &Provisioner{
		store:   store,
		drv:     drv,
		changes: changes,
		log:     log,
	}
}

// SetEvictor wires the registry in after construction so DropDatabase can
// evict the cached handle before dropping the physical database.
func (p *Provisioner) SetEvictor(e Evictor) { p.evictor = e }

// EnsureDatabase creates the tenant's physical database and initial schema
// if it does not exist yet. The organization row is locked for the duration
// of the check-create-mark sequence, so two concurrent first requests for
// the same tenant serialize here and exactly one performs the creation.
// Every failure path leaves the provisioning flag false, making the
// operation crash-safe and retryable by construction.
func (p *Provisioner) EnsureDatabase(ctx context.Context, tenantID string) (created bool, err error) {
	tx, err := p.store.DB().BeginTx(ctx, nil)
	if err != nil {
		return false, errors.Join(ErrProvisioningFailed, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	org, err := p.store.GetForProvisioning(ctx, tx, tenantID)
	if err != nil {
		return false, err
	}
	if org.Settings.DatabaseCreated {
		_ = tx.Rollback()
		return false, nil
	}

	dbName := org.Settings.DatabaseName
	if dbName == "" {
		dbName = p.drv.DatabaseName(tenantID)
	}

	// Physical creation goes through the driver's administrative path,
	// never the tenant pool, which does not exist yet.
	if err = p.drv.CreateDatabase(ctx, dbName); err != nil {
		return false, errors.Join(ErrProvisioningFailed, err)
	}

	if err = p.applyInitialSchema(ctx, dbName); err != nil {
		return false, errors.Join(ErrProvisioningFailed, err)
	}

	if err = p.store.MarkDatabaseCreated(ctx, tx, tenantID, dbName); err != nil {
		return false, errors.Join(ErrProvisioningFailed, err)
	}
	if err = tx.Commit(); err != nil {
		return false, errors.Join(ErrProvisioningFailed, err)
	}

	p.log.InfoContext(ctx, "provisioned tenant database",
		slog.String("tenant_id", tenantID), slog.String("database", dbName))
	return true, nil
}

// applyInitialSchema runs the full change catalog against the fresh
// database over a short-lived administrative pool.
func (p *Provisioner) applyInitialSchema(ctx context.Context, dbName string) error {
	db, err := p.drv.Open(ctx, p.drv.TenantDSN(dbName), 2)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, ch := range p.changes {
		if _, err := schema.Ensure(ctx, db, p.drv, ch); err != nil {
			return err
		}
	}
	return nil
}

// DropDatabase removes a tenant's physical database. It is only invoked by
// explicit administrative action: evict the cached handle, drop the
// database, then clear the provisioning flag so a later re-provision starts
// clean.
func (p *Provisioner) DropDatabase(ctx context.Context, tenantID string) error {
	org, err := p.store.GetByID(ctx, tenantID)
	if err != nil {
		return err
	}

	if p.evictor != nil {
		if err := p.evictor.Evict(ctx, tenantID); err != nil {
			return errors.Join(ErrDropFailed, err)
		}
	}

	dbName := org.Settings.DatabaseName
	if dbName == "" {
		dbName = p.drv.DatabaseName(tenantID)
	}
	if err := p.drv.DropDatabase(ctx, dbName); err != nil {
		return errors.Join(ErrDropFailed, err)
	}

	if err := p.store.ClearDatabaseCreated(ctx, tenantID); err != nil {
		return errors.Join(ErrDropFailed, err)
	}

	p.log.InfoContext(ctx, "dropped tenant database",
		slog.String("tenant_id", tenantID), slog.String("database", dbName))
	return nil
}
