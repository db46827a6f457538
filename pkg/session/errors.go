package session

import "errors"

var (
	// ErrNotTenantContext means a tenant session was requested with an
	// admin or unresolved context. This is an authorization failure, not a
	// routing fallback; no database is selected.
	ErrNotTenantContext = errors.New("session: tenant context required")

	// ErrPoolExhausted means the tenant's connection pool was saturated
	// for the caller's full deadline.
	ErrPoolExhausted = errors.New("session: tenant connection pool exhausted")
)
