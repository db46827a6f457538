package tenant

import (
	"context"
	"log/slog"
)

// contextKey is a private type to prevent collisions with other context keys.
type contextKey struct{}

// WithContext stores the resolved tenant context on the request context.
func WithContext(ctx context.Context, tctx Context) context.Context {
	return context.WithValue(ctx, contextKey{}, tctx)
}

// FromContext retrieves the tenant context. The second return is false when
// resolution never ran (e.g. a skipped path).
func FromContext(ctx context.Context) (Context, bool) {
	tctx, ok := ctx.Value(contextKey{}).(Context)
	return tctx, ok
}

// MustFromContext retrieves the tenant context and panics if resolution
// never ran. Use only in handlers mounted behind the middleware.
func MustFromContext(ctx context.Context) Context {
	tctx, ok := FromContext(ctx)
	if !ok {
		panic("tenant: no tenant context in request context")
	}
	return tctx
}

// LoggerExtractor returns a logger context extractor that annotates log
// records with the resolved tenant ID and type.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		tctx, ok := FromContext(ctx)
		if !ok || tctx.IsNone() {
			return slog.Attr{}, false
		}
		return slog.Group("tenant",
			slog.String("id", tctx.ID),
			slog.String("type", string(tctx.Type)),
		), true
	}
}
