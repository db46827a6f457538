// Package httpserver wraps net/http's Server with env-driven configuration
// and graceful shutdown on context cancellation or interrupt signals.
package httpserver
