package registry

import (
	"container/list"
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"github.com/zphere-app/tenantdb/pkg/async"
	"github.com/zphere-app/tenantdb/pkg/driver"
)

// Provisioner ensures a tenant's physical database exists before the
// registry opens a pool to it. The call is idempotent and cheap once the
// tenant is provisioned.
type Provisioner interface {
	EnsureDatabase(ctx context.Context, tenantID string) (bool, error)
}

type Config struct {
	TenantPoolMaxConns int           `env:"TENANT_POOL_MAX_CONNS" envDefault:"10"` // TenantPoolMaxConns caps open connections per tenant pool.
	MaxOpenPools       int           `env:"REGISTRY_MAX_POOLS" envDefault:"500"`   // MaxOpenPools caps simultaneously open tenant pools; LRU pools beyond it are evicted.
	EvictGrace         time.Duration `env:"REGISTRY_EVICT_GRACE" envDefault:"5s"`  // EvictGrace is how long eviction waits for borrowers before force-closing.
}

// entry pairs the in-flight (or completed) creation future with the
// tenant's position in the LRU list. Storing the future in the map itself is
// what makes concurrent first access race-free: the map insert is the only
// synchronized step, and everyone else awaits the same future.
type entry struct {
	future *async.Future[*Handle]
	elem   *list.Element
}

// Registry is the process-wide cache of tenant connection handles. The
// mutex guards only map and LRU bookkeeping; database I/O always happens
// outside it, so unrelated tenants never serialize on each other.
type Registry struct {
	drv  driver.Driver
	prov Provisioner
	cfg  Config
	log  *slog.Logger

	mu      sync.Mutex
	entries map[string]*entry
	lru     *list.List // front = most recently used, values are tenant IDs
}

func New(drv driver.Driver, prov Provisioner, cfg Config, log *slog.Logger) *Registry {
	if cfg.TenantPoolMaxConns <= 0 {
		cfg.TenantPoolMaxConns = 10
	}
	if cfg.MaxOpenPools <= 0 {
		cfg.MaxOpenPools = 500
	}
	if cfg.EvictGrace <= 0 {
		cfg.EvictGrace = 5 * time.Second
	}
	return &Registry{
		drv:     drv,
		prov:    prov,
		cfg:     cfg,
		log:     log,
		entries: make(map[string]*entry),
		lru:     list.New(),
	}
}

// Get returns the connection handle for a tenant, creating the physical
// database and pool on first access. Concurrent callers for the same tenant
// block on one in-flight creation; a failed creation is never cached, so
// the next call retries cleanly.
func (r *Registry) Get(ctx context.Context, tenantID string) (*Handle, error) {
	if tenantID == "" {
		return nil, ErrEmptyTenantID
	}

	r.mu.Lock()
	if e, ok := r.entries[tenantID]; ok {
		r.lru.MoveToFront(e.elem)
		r.mu.Unlock()
		return r.awaitHandle(ctx, tenantID, e)
	}

	// First caller pays the creation cost. The creation context is
	// detached from this request so a canceled first caller does not
	// abort the creation other waiters depend on.
	fut := async.Async(context.WithoutCancel(ctx), tenantID, r.open)
	e := &entry{future: fut}
	e.elem = r.lru.PushFront(tenantID)
	r.entries[tenantID] = e
	r.mu.Unlock()

	h, err := r.awaitHandle(ctx, tenantID, e)
	if err != nil {
		return nil, err
	}

	r.enforceCap(ctx)
	return h, nil
}

// awaitHandle waits on an entry's creation future. A wait abandoned by the
// caller's own cancellation leaves the in-flight entry in place, so later
// callers join the same creation and at most one handle ever exists per
// tenant. Only a future that completed with an error is dropped; the handle
// of a creation that won the race against the caller's deadline is live and
// cached, so it is returned rather than orphaned.
func (r *Registry) awaitHandle(ctx context.Context, tenantID string, e *entry) (*Handle, error) {
	h, err := e.future.AwaitContext(ctx)
	if err == nil {
		h.touch()
		return h, nil
	}
	if !e.future.IsComplete() {
		return nil, err
	}

	h, cerr := e.future.Await()
	if cerr == nil {
		h.touch()
		return h, nil
	}
	r.dropEntry(tenantID, e)
	return nil, cerr
}

// Acquire is the borrow-shaped convenience over Get: it returns the
// tenant's pool together with a release function the caller must run when
// its request scope exits.
func (r *Registry) Acquire(ctx context.Context, tenantID string) (*sql.DB, func(), error) {
	h, err := r.Get(ctx, tenantID)
	if err != nil {
		return nil, nil, err
	}
	db, release := h.Acquire()
	return db, release, nil
}

// open provisions (idempotently) and connects a tenant database. Runs
// outside the registry lock, once per cache miss.
func (r *Registry) open(ctx context.Context, tenantID string) (*Handle, error) {
	if _, err := r.prov.EnsureDatabase(ctx, tenantID); err != nil {
		return nil, err
	}

	dsn := r.drv.TenantDSN(r.drv.DatabaseName(tenantID))
	db, err := r.drv.Open(ctx, dsn, r.cfg.TenantPoolMaxConns)
	if err != nil {
		return nil, err
	}

	r.log.InfoContext(ctx, "opened tenant pool", slog.String("tenant_id", tenantID))
	return newHandle(tenantID, dsn, db), nil
}

// dropEntry removes a failed creation from the cache, but only if it still
// owns the slot; a concurrent retry may have replaced it already.
func (r *Registry) dropEntry(tenantID string, e *entry) {
	r.mu.Lock()
	if cur, ok := r.entries[tenantID]; ok && cur == e {
		delete(r.entries, tenantID)
		r.lru.Remove(e.elem)
	}
	r.mu.Unlock()
}

// enforceCap closes least-recently-used pools beyond the configured cap to
// bound file descriptors and memory across many tenants. Victims are chosen
// under the lock but closed outside it.
func (r *Registry) enforceCap(ctx context.Context) {
	var victims []*entry

	r.mu.Lock()
	for len(r.entries) > r.cfg.MaxOpenPools {
		back := r.lru.Back()
		if back == nil {
			break
		}
		id := back.Value.(string)
		e := r.entries[id]
		if !e.future.IsComplete() {
			// Still being created; it is also the newest possible entry,
			// so nothing older remains to evict.
			break
		}
		delete(r.entries, id)
		r.lru.Remove(back)
		victims = append(victims, e)
	}
	r.mu.Unlock()

	for _, e := range victims {
		if h, err := e.future.Await(); err == nil {
			r.log.InfoContext(ctx, "evicting tenant pool over cap", slog.String("tenant_id", h.tenantID))
			_ = h.close(ctx, r.cfg.EvictGrace, r.log)
		}
	}
}

// Evict removes and closes a tenant's handle, waiting for the in-flight
// creation to settle first. A subsequent Get transparently re-creates a
// working handle.
func (r *Registry) Evict(ctx context.Context, tenantID string) error {
	r.mu.Lock()
	e, ok := r.entries[tenantID]
	if ok {
		delete(r.entries, tenantID)
		r.lru.Remove(e.elem)
	}
	r.mu.Unlock()

	if !ok {
		return nil
	}

	h, err := e.future.Await()
	if err != nil {
		return nil
	}
	return h.close(ctx, r.cfg.EvictGrace, r.log)
}

// CloseAll evicts every handle, typically at process shutdown.
func (r *Registry) CloseAll(ctx context.Context) {
	r.mu.Lock()
	all := make([]*entry, 0, len(r.entries))
	for id, e := range r.entries {
		delete(r.entries, id)
		all = append(all, e)
	}
	r.lru.Init()
	r.mu.Unlock()

	for _, e := range all {
		if h, err := e.future.Await(); err == nil {
			_ = h.close(ctx, r.cfg.EvictGrace, r.log)
		}
	}
}

// Len reports how many handles (ready or in creation) are cached.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
