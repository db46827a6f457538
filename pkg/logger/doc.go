// Package logger builds configured slog.Logger instances with per-request
// context injection.
//
// The factory wraps the chosen handler in a decorator that runs registered
// ContextExtractor functions on every emitted record, which is how log
// lines pick up the resolved tenant ID without every call site passing it
// explicitly. See tenant.LoggerExtractor for the standard extractor.
package logger
