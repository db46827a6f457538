package masterdb

import "time"

type Config struct {
	MaxOpenConns int `env:"MASTER_DB_MAX_OPEN_CONNS" envDefault:"10"` // MaxOpenConns is the maximum number of open connections to the master database.

	RetryAttempts int           `env:"MASTER_DB_RETRY_ATTEMPTS" envDefault:"3"` // RetryAttempts is the number of retry attempts to connect to the master database.
	RetryInterval time.Duration `env:"MASTER_DB_RETRY_INTERVAL" envDefault:"5s"` // RetryInterval is the interval between retry attempts. It should be in the format "5s" for 5 seconds.

	MigrationsPath  string `env:"MASTER_DB_MIGRATIONS_PATH" envDefault:"migrations"`      // MigrationsPath is the path to the master database migrations directory.
	MigrationsTable string `env:"MASTER_DB_MIGRATIONS_TABLE" envDefault:"schema_migrations"` // MigrationsTable is the name of the table used to store the migration version.
}
