package registry

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"
)

// Handle is an owned, reusable connection pool bound to one tenant's
// physical database. The registry is the only component that constructs
// handles; at most one exists per tenant at any time. Borrowers acquire and
// release the handle around their work so eviction can wait for in-flight
// requests to drain.
type Handle struct {
	tenantID string
	dsn      string
	db       *sql.DB

	mu       sync.Mutex
	refs     int
	lastUsed time.Time
	closed   bool
}

func newHandle(tenantID, dsn string, db *sql.DB) *Handle {
	return &Handle{
		tenantID: tenantID,
		dsn:      dsn,
		db:       db,
		lastUsed: time.Now(),
	}
}

// TenantID reports which tenant this handle is bound to.
func (h *Handle) TenantID() string { return h.tenantID }

// Acquire marks the handle borrowed and returns its pool. The caller must
// invoke the returned release function on every path when done.
func (h *Handle) Acquire() (*sql.DB, func()) {
	h.mu.Lock()
	h.refs++
	h.lastUsed = time.Now()
	h.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			h.mu.Lock()
			h.refs--
			h.lastUsed = time.Now()
			h.mu.Unlock()
		})
	}
	return h.db, release
}

func (h *Handle) refCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.refs
}

// LastUsed reports when the handle was last borrowed or returned.
func (h *Handle) LastUsed() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastUsed
}

func (h *Handle) touch() {
	h.mu.Lock()
	h.lastUsed = time.Now()
	h.mu.Unlock()
}

// close shuts the pool down, waiting up to grace for in-flight borrowers to
// release. A forced close after the grace period logs a warning; in-flight
// queries on the closed pool fail, other tenants are unaffected.
func (h *Handle) close(ctx context.Context, grace time.Duration, log *slog.Logger) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	deadline := time.Now().Add(grace)
	for h.refCount() > 0 {
		if time.Now().After(deadline) {
			log.WarnContext(ctx, "force-closing tenant pool with active borrowers",
				slog.String("tenant_id", h.tenantID),
				slog.Int("ref_count", h.refCount()))
			break
		}
		select {
		case <-ctx.Done():
			log.WarnContext(ctx, "force-closing tenant pool on shutdown",
				slog.String("tenant_id", h.tenantID),
				slog.Int("ref_count", h.refCount()))
			return h.db.Close()
		case <-time.After(20 * time.Millisecond):
		}
	}

	return h.db.Close()
}
