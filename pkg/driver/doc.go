// Package driver defines the engine abstraction used by the tenant database
// lifecycle: DSN templating, physical database creation and removal, schema
// introspection, and placeholder rewriting.
//
// Two implementations are provided as subpackages:
//
//   - postgres: one database per tenant on a shared server, created through
//     an administrative connection (jackc/pgx).
//   - sqlite: one database file per tenant, where creation is initializing
//     the file (mattn/go-sqlite3).
//
// The registry, provisioner and schema packages depend only on the Driver
// interface, so the engine is selected once at startup by configuration.
package driver
