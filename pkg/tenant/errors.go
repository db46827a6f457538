package tenant

import "errors"

var (
	// ErrTenantNotFound is returned by providers when no active
	// organization matches an identifier.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrInactiveTenant is returned when an organization exists but is
	// suspended.
	ErrInactiveTenant = errors.New("tenant is inactive")

	// ErrNoTenantContext is returned when a route requiring a tenant runs
	// with an admin or unresolved context.
	ErrNoTenantContext = errors.New("tenant context required")

	// ErrAdminContextRequired is returned when a route requiring the admin
	// context runs with anything else.
	ErrAdminContextRequired = errors.New("admin context required")
)
