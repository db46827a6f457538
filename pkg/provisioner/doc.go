// Package provisioner creates and destroys the physical database behind a
// tenant.
//
// EnsureDatabase is idempotent and crash-safe by construction: the check of
// the durable database_created flag, the physical creation, the initial
// schema setup and the flag update all happen under a row-level lock on the
// tenant's organization row, and the flag is the last thing to change. A
// failure at any step rolls the transaction back with the flag still false,
// so the next call retries from scratch; a second call after success is a
// cheap flag check.
//
// DropDatabase is never invoked implicitly. It evicts the registry handle,
// drops the physical database, then clears the flag.
package provisioner
