package schema

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// TenantSource lists the tenants a sweep covers.
type TenantSource interface {
	ListActiveIDs(ctx context.Context) ([]string, error)
}

// Provisioner ensures a tenant database exists before reconciling it.
type Provisioner interface {
	EnsureDatabase(ctx context.Context, tenantID string) (bool, error)
}

// PoolSource borrows a tenant's connection pool for the duration of its
// reconciliation.
type PoolSource interface {
	Acquire(ctx context.Context, tenantID string) (*sql.DB, func(), error)
}

type Config struct {
	Workers int `env:"RECONCILE_WORKERS" envDefault:"8"` // Workers bounds how many tenants reconcile concurrently.
}

// TenantError records one tenant's failure inside a sweep report.
type TenantError struct {
	TenantID string
	Err      error
}

// Report aggregates the outcome of a reconciliation sweep. Failures are
// collected per tenant instead of aborting the sweep, so one broken tenant
// never blocks the rest; they retry on the next sweep.
type Report struct {
	Applied []string      // tenants where at least one change ran
	Skipped []string      // tenants already fully up to date
	Errors  []TenantError // tenants whose reconciliation failed
}

// Reconciler applies additive schema changes across all active tenant
// databases with bounded parallelism.
type Reconciler struct {
	tenants TenantSource
	prov    Provisioner
	pools   PoolSource
	ins     Inspector
	cfg     Config
	log     *slog.Logger
}

func NewReconciler(tenants TenantSource, prov Provisioner, pools PoolSource, ins Inspector, cfg Config, log *slog.Logger) *Reconciler {
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	return &Reconciler{
		tenants: tenants,
		prov:    prov,
		pools:   pools,
		ins:     ins,
		cfg:     cfg,
		log:     log,
	}
}

// ReconcileAll sweeps every active tenant, applying changes in declaration
// order within each tenant. Tenants are processed independently across a
// bounded worker pool; cancellation stops scheduling new tenants while
// letting in-flight ones finish their DDL rather than aborting mid-change.
func (r *Reconciler) ReconcileAll(ctx context.Context, changes []Change) (Report, error) {
	ids, err := r.tenants.ListActiveIDs(ctx)
	if err != nil {
		return Report{}, err
	}

	var (
		mu     sync.Mutex
		report Report
	)

	g := new(errgroup.Group)
	g.SetLimit(r.cfg.Workers)

	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			// Detached so an in-flight tenant completes its DDL after
			// the sweep is canceled.
			opCtx := context.WithoutCancel(ctx)
			applied, err := r.reconcileTenant(opCtx, id, changes)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				r.log.ErrorContext(opCtx, "tenant schema reconciliation failed",
					slog.String("tenant_id", id), slog.Any("error", err))
				report.Errors = append(report.Errors, TenantError{TenantID: id, Err: err})
			case applied:
				report.Applied = append(report.Applied, id)
			default:
				report.Skipped = append(report.Skipped, id)
			}
			return nil
		})
	}

	_ = g.Wait()

	r.log.InfoContext(ctx, "schema reconciliation sweep finished",
		slog.Int("applied", len(report.Applied)),
		slog.Int("skipped", len(report.Skipped)),
		slog.Int("errors", len(report.Errors)))
	return report, nil
}

// reconcileTenant applies the change list to one tenant, sequentially, in
// order. The first failing change aborts this tenant only.
func (r *Reconciler) reconcileTenant(ctx context.Context, tenantID string, changes []Change) (bool, error) {
	if _, err := r.prov.EnsureDatabase(ctx, tenantID); err != nil {
		return false, err
	}

	db, release, err := r.pools.Acquire(ctx, tenantID)
	if err != nil {
		return false, err
	}
	defer release()

	anyApplied := false
	for _, ch := range changes {
		applied, err := Ensure(ctx, db, r.ins, ch)
		if err != nil {
			return anyApplied, err
		}
		if applied {
			anyApplied = true
			r.log.InfoContext(ctx, "applied schema change",
				slog.String("tenant_id", tenantID), slog.String("change", ch.Name()))
		}
	}
	return anyApplied, nil
}
