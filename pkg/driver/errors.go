package driver

import "errors"

var (
	// ErrUnknownEngine is returned when the configured engine name does not
	// match any driver implementation.
	ErrUnknownEngine = errors.New("unknown database engine")

	// ErrInvalidMasterURL is returned when the master connection string
	// cannot be parsed.
	ErrInvalidMasterURL = errors.New("invalid master database URL")

	// ErrFailedToOpenPool is returned when a connection pool cannot be
	// opened or does not respond to a ping.
	ErrFailedToOpenPool = errors.New("failed to open connection pool")

	// ErrCreateDatabaseFailed is returned when the physical database
	// creation statement fails.
	ErrCreateDatabaseFailed = errors.New("failed to create database")

	// ErrDropDatabaseFailed is returned when the physical database removal
	// fails.
	ErrDropDatabaseFailed = errors.New("failed to drop database")
)
