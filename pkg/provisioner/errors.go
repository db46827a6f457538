package provisioner

import "errors"

var (
	// ErrProvisioningFailed means physical creation or initial schema setup
	// failed. The provisioning flag remains false, so retrying is safe.
	ErrProvisioningFailed = errors.New("tenant database provisioning failed")

	// ErrNotProvisioned means the tenant has no database yet; the caller
	// may retry after provisioning completes.
	ErrNotProvisioned = errors.New("tenant database not provisioned")

	// ErrDropFailed means an explicit database drop did not complete.
	ErrDropFailed = errors.New("tenant database drop failed")
)
