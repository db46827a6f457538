package tenant

import (
	"net/http"
	"strings"
)

// Middleware resolves the tenant context once per request and stores it,
// immutable, on the request context. Requests matching a skip path bypass
// resolution entirely. Resolution that matches nothing stores the "none"
// context rather than failing, pushing the policy decision to the caller.
func Middleware(resolver Resolver, opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{
		errorHandler: defaultErrorHandler,
		skipPaths:    DefaultSkipPaths(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			tctx, ok, err := resolver.Resolve(r)
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}
			if !ok {
				tctx = None()
			}

			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), tctx)))
		})
	}
}

// DefaultSkipPaths lists the endpoints that never carry tenant context:
// health checks, API documentation, and public shared-resource endpoints.
func DefaultSkipPaths() []string {
	return []string{
		"/healthz",
		"/api/v1/docs",
		"/api/v1/openapi.json",
		"/favicon.ico",
		"/api/v1/analytics/shared/project/",
	}
}

// RequireTenant rejects requests whose resolved context is not a tenant.
// Mount it in front of routes that read or write tenant databases.
func RequireTenant(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = defaultErrorHandler
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tctx, ok := FromContext(r.Context())
			if !ok || !tctx.IsTenant() || tctx.ID == "" {
				errorHandler(w, r, ErrNoTenantContext)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin rejects requests whose resolved context is not admin.
func RequireAdmin(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = defaultErrorHandler
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tctx, ok := FromContext(r.Context())
			if !ok || !tctx.IsAdmin() {
				errorHandler(w, r, ErrAdminContextRequired)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
