package tenant_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zphere-app/tenantdb/pkg/tenant"
)

func captureContext(t *testing.T) (http.Handler, *tenant.Context, *bool) {
	t.Helper()

	var (
		captured   tenant.Context
		hadContext bool
	)
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, hadContext = tenant.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return h, &captured, &hadContext
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	resolver := tenant.NewChainResolver(
		tenant.NewHeaderResolver(),
		tenant.NewAdminPathResolver("/admin"),
		tenant.NewSubdomainResolver(".zphere.app", newProvider()),
	)

	t.Run("stores resolved context", func(t *testing.T) {
		t.Parallel()

		next, captured, had := captureContext(t)
		mw := tenant.Middleware(resolver)

		r := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
		r.Host = "acme.zphere.app"
		w := httptest.NewRecorder()
		mw(next).ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, *had)
		assert.Equal(t, "org-acme", captured.ID)
		assert.True(t, captured.IsTenant())
	})

	t.Run("no match stores the none context", func(t *testing.T) {
		t.Parallel()

		next, captured, had := captureContext(t)
		mw := tenant.Middleware(resolver)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Host = "zphere.app"
		w := httptest.NewRecorder()
		mw(next).ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, *had)
		assert.True(t, captured.IsNone())
	})

	t.Run("skip paths bypass resolution", func(t *testing.T) {
		t.Parallel()

		next, _, had := captureContext(t)
		mw := tenant.Middleware(resolver)

		r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		r.Host = "acme.zphere.app"
		w := httptest.NewRecorder()
		mw(next).ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		assert.False(t, *had)
	})

	t.Run("custom skip paths", func(t *testing.T) {
		t.Parallel()

		next, _, had := captureContext(t)
		mw := tenant.Middleware(resolver, tenant.WithSkipPaths([]string{"/public/"}))

		r := httptest.NewRequest(http.MethodGet, "/public/report", nil)
		w := httptest.NewRecorder()
		mw(next).ServeHTTP(w, r)

		assert.False(t, *had)
	})

	t.Run("resolver error invokes error handler", func(t *testing.T) {
		t.Parallel()

		failing := tenant.ResolverFunc(func(r *http.Request) (tenant.Context, bool, error) {
			return tenant.None(), false, errors.New("resolution broke")
		})

		handled := false
		mw := tenant.Middleware(failing, tenant.WithErrorHandler(
			func(w http.ResponseWriter, r *http.Request, err error) {
				handled = true
				w.WriteHeader(http.StatusBadGateway)
			}))

		next, _, _ := captureContext(t)
		w := httptest.NewRecorder()
		mw(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.True(t, handled)
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestRequireTenant(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mw := tenant.RequireTenant(nil)

	tests := []struct {
		name     string
		tctx     tenant.Context
		withCtx  bool
		wantCode int
	}{
		{
			name:     "tenant context passes",
			tctx:     tenant.Context{ID: "org-acme", Slug: "acme", Type: tenant.TypeTenant},
			withCtx:  true,
			wantCode: http.StatusOK,
		},
		{
			name:     "admin context rejected",
			tctx:     tenant.Admin("", ""),
			withCtx:  true,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "none context rejected",
			tctx:     tenant.None(),
			withCtx:  true,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "missing context rejected",
			withCtx:  false,
			wantCode: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
			if tt.withCtx {
				r = r.WithContext(tenant.WithContext(r.Context(), tt.tctx))
			}
			w := httptest.NewRecorder()
			mw(next).ServeHTTP(w, r)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mw := tenant.RequireAdmin(nil)

	t.Run("admin passes", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodGet, "/admin/tenants", nil)
		r = r.WithContext(tenant.WithContext(r.Context(), tenant.Admin("", "")))
		w := httptest.NewRecorder()
		mw(next).ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("tenant rejected", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodGet, "/admin/tenants", nil)
		r = r.WithContext(tenant.WithContext(r.Context(), tenant.Context{ID: "x", Type: tenant.TypeTenant}))
		w := httptest.NewRecorder()
		mw(next).ServeHTTP(w, r)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestMustFromContext(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		tenant.MustFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	})
}
