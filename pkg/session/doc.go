// Package session hands request handlers a database session routed to the
// right physical database.
//
// Tenant sessions require a resolved tenant context with a non-empty ID;
// anything else fails with ErrNotTenantContext before any database is
// touched. This check is deliberately the single place where cross-tenant
// isolation is enforced, so it cannot drift between call sites.
//
// Borrows are scoped. WithMaster and WithTenant open a transaction, run the
// callback, and guarantee commit-or-rollback plus pool release on every
// exit path, including panics. A request's cancellation aborts only its own
// borrow, never other borrowers of the same pool.
package session
