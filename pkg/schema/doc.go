// Package schema keeps tenant databases aligned with the application schema
// as it evolves.
//
// Changes are declared once, in a fixed catalog of parameterized Change
// values with applicability checks, rather than as free-form DDL strings.
// That makes every change idempotent by construction: Ensure checks before
// applying, so running the catalog against an up-to-date database is a
// no-op.
//
// The Reconciler sweeps all active tenants with a bounded worker pool.
// Within one tenant, changes apply sequentially in declaration order; across
// tenants there is no ordering. One tenant's failure is recorded in the
// sweep Report and does not abort the others. The same sweep runs
// best-effort at process startup and on demand from the admin surface.
package schema
