package registry

import "errors"

var (
	// ErrEmptyTenantID is returned when Get is called without a tenant ID.
	ErrEmptyTenantID = errors.New("registry: empty tenant id")
)
