package session

import (
	"context"
	"database/sql"
	"errors"

	"github.com/zphere-app/tenantdb/pkg/tenant"
)

// Registry is the subset of the tenant registry the router needs.
type Registry interface {
	Acquire(ctx context.Context, tenantID string) (*sql.DB, func(), error)
}

// TxFunc runs inside a borrowed session's transaction. Returning nil
// commits; returning an error rolls back.
type TxFunc func(ctx context.Context, tx *sql.Tx) error

// Router turns a resolved tenant context into a database session on the
// correct physical database. It is the sole enforcement point keeping admin
// requests out of tenant databases and vice versa: every tenant session
// passes through the context check in WithTenant / TenantDB.
type Router struct {
	master *sql.DB
	reg    Registry
}

func NewRouter(master *sql.DB, reg Registry) *Router {
	return &Router{master: master, reg: reg}
}

// MasterDB returns the master database pool for non-transactional reads.
func (r *Router) MasterDB() *sql.DB { return r.master }

// TenantDB borrows the tenant's pool for the caller's request scope. The
// release function must run on every exit path.
func (r *Router) TenantDB(ctx context.Context, tctx tenant.Context) (*sql.DB, func(), error) {
	if err := requireTenant(tctx); err != nil {
		return nil, nil, err
	}
	db, release, err := r.reg.Acquire(ctx, tctx.ID)
	if err != nil {
		return nil, nil, classify(err)
	}
	return db, release, nil
}

// WithMaster runs fn in a transaction on the master database.
func (r *Router) WithMaster(ctx context.Context, fn TxFunc) error {
	return withTx(ctx, r.master, fn)
}

// WithTenant runs fn in a transaction on the tenant's database. The borrow
// is scoped: the session is returned to its pool when fn exits on any path,
// including panics and cancellation.
func (r *Router) WithTenant(ctx context.Context, tctx tenant.Context, fn TxFunc) error {
	db, release, err := r.TenantDB(ctx, tctx)
	if err != nil {
		return err
	}
	defer release()

	return withTx(ctx, db, fn)
}

func requireTenant(tctx tenant.Context) error {
	if !tctx.IsTenant() || tctx.ID == "" {
		return ErrNotTenantContext
	}
	return nil
}

func withTx(ctx context.Context, db *sql.DB, fn TxFunc) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// classify maps a deadline hit while waiting on the pool to the pool
// exhaustion sentinel. One saturated tenant pool surfaces as a timeout to
// its own callers and nothing else.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(ErrPoolExhausted, err)
	}
	return err
}
