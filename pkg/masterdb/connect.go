package masterdb

import (
	"context"
	"database/sql"
	"time"

	"github.com/zphere-app/tenantdb/pkg/driver"
)

// Connect opens the master database pool with retry logic so process startup
// survives transient network issues without overwhelming the server.
func Connect(ctx context.Context, drv driver.Driver, cfg Config) (*sql.DB, error) {
	var lastErr error

	// Linear backoff: attempt 1 waits RetryInterval, attempt 2 waits 2x,
	// attempt 3 waits 3x. This avoids a thundering herd when multiple
	// instances restart at the same time.
	for i := range cfg.RetryAttempts {
		db, err := drv.Open(ctx, drv.MasterDSN(), cfg.MaxOpenConns)
		if err == nil {
			return db, nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(i+1) * cfg.RetryInterval):
		}
	}

	return nil, lastErr
}

// Healthcheck returns a closure that validates master database connectivity
// for health endpoints.
func Healthcheck(db *sql.DB) func(context.Context) error {
	return func(ctx context.Context) error {
		return db.PingContext(ctx)
	}
}
