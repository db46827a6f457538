package schema

// The tenant schema catalog. Every change here is additive and reviewed;
// the reconciler walks the full list in declaration order on every sweep
// and the applicability checks make re-runs no-ops.
//
// DDL is written in the dialect-neutral subset both engines accept, with
// TEXT primary keys holding UUIDs.

// TenantTables returns the base tables provisioned into every new tenant
// database.
func TenantTables() []Change {
	return []Change{
		CreateTable{
			Table: "projects",
			DDL: `CREATE TABLE projects (
				id          TEXT PRIMARY KEY,
				name        VARCHAR(255) NOT NULL,
				description TEXT,
				status      VARCHAR(50) NOT NULL DEFAULT 'active',
				created_at  TIMESTAMP NOT NULL,
				updated_at  TIMESTAMP NOT NULL
			)`,
		},
		CreateTable{
			Table: "tasks",
			DDL: `CREATE TABLE tasks (
				id                  TEXT PRIMARY KEY,
				project_id          TEXT REFERENCES projects(id),
				title               VARCHAR(255) NOT NULL,
				description         TEXT,
				status              VARCHAR(50) NOT NULL DEFAULT 'todo',
				priority            VARCHAR(20) NOT NULL DEFAULT 'medium',
				due_date            TIMESTAMP,
				visible_to_customer BOOLEAN DEFAULT FALSE,
				sprint_name         VARCHAR(255),
				sprint_start_date   TIMESTAMP,
				sprint_end_date     TIMESTAMP,
				sprint_goal         TEXT,
				created_at          TIMESTAMP NOT NULL,
				updated_at          TIMESTAMP NOT NULL
			)`,
		},
		CreateTable{
			Table: "customers",
			DDL: `CREATE TABLE customers (
				id         TEXT PRIMARY KEY,
				name       VARCHAR(255) NOT NULL,
				email      VARCHAR(255),
				phone      VARCHAR(50),
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL
			)`,
		},
		CreateTable{
			Table: "invoices",
			DDL: `CREATE TABLE invoices (
				id           TEXT PRIMARY KEY,
				project_id   TEXT REFERENCES projects(id),
				customer_id  TEXT REFERENCES customers(id),
				number       VARCHAR(100) NOT NULL,
				amount_cents INTEGER NOT NULL DEFAULT 0,
				currency     VARCHAR(3) NOT NULL DEFAULT 'USD',
				status       VARCHAR(50) NOT NULL DEFAULT 'draft',
				issued_at    TIMESTAMP,
				created_at   TIMESTAMP NOT NULL,
				updated_at   TIMESTAMP NOT NULL
			)`,
		},
		CreateTable{
			Table: "proposals",
			DDL: `CREATE TABLE proposals (
				id          TEXT PRIMARY KEY,
				customer_id TEXT REFERENCES customers(id),
				title       VARCHAR(255) NOT NULL,
				body        TEXT,
				status      VARCHAR(50) NOT NULL DEFAULT 'draft',
				created_at  TIMESTAMP NOT NULL,
				updated_at  TIMESTAMP NOT NULL
			)`,
		},
	}
}

// PendingChanges returns additive changes for tenant databases created
// before the columns landed in the base tables. On fresh tenants every
// entry is already satisfied.
func PendingChanges() []Change {
	return []Change{
		AddColumn{Table: "tasks", Column: "visible_to_customer", Definition: "BOOLEAN DEFAULT FALSE"},
		AddColumn{Table: "tasks", Column: "sprint_name", Definition: "VARCHAR(255)"},
		AddColumn{Table: "tasks", Column: "sprint_start_date", Definition: "TIMESTAMP"},
		AddColumn{Table: "tasks", Column: "sprint_end_date", Definition: "TIMESTAMP"},
		AddColumn{Table: "tasks", Column: "sprint_goal", Definition: "TEXT"},
	}
}

// Catalog returns the complete ordered change set: base tables first, then
// pending additive changes. This is what provisioning applies to a new
// database and what a full sweep reconciles everywhere.
func Catalog() []Change {
	return append(TenantTables(), PendingChanges()...)
}
