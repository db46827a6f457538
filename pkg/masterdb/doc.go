// Package masterdb owns the master database: the single store of
// cross-tenant identity and the durable record of tenant provisioning
// state.
//
// The Organization row is the source of truth for whether a tenant's
// physical database exists. Its settings.database_created flag is only set
// inside the provisioning transaction, after the physical database and its
// initial schema have been created, so a crash at any earlier point leaves
// the flag false and the next attempt retries from scratch.
//
// The store works over database/sql and stays engine-agnostic through the
// driver's Rebind and RowLockClause hooks, so the same queries run against
// postgres and sqlite masters.
package masterdb
