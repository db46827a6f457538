package tenant_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zphere-app/tenantdb/pkg/tenant"
)

// staticProvider serves a fixed set of active organizations and counts
// lookups so cache behavior is observable.
type staticProvider struct {
	orgs  map[string]*tenant.Organization
	calls atomic.Int64
}

func (p *staticProvider) GetActiveBySlug(ctx context.Context, slug string) (*tenant.Organization, error) {
	p.calls.Add(1)
	if org, ok := p.orgs[slug]; ok && org.Active {
		return org, nil
	}
	return nil, tenant.ErrTenantNotFound
}

func newProvider() *staticProvider {
	return &staticProvider{orgs: map[string]*tenant.Organization{
		"acme": {ID: "org-acme", Slug: "acme", Active: true},
		"dead": {ID: "org-dead", Slug: "dead", Active: false},
	}}
}

func TestHeaderResolver(t *testing.T) {
	t.Parallel()

	hr := tenant.NewHeaderResolver()

	tests := []struct {
		name     string
		headers  map[string]string
		wantCtx  tenant.Context
		wantOK   bool
	}{
		{
			name:    "tenant headers",
			headers: map[string]string{"X-Tenant-Type": "tenant", "X-Tenant-Slug": "acme", "X-Tenant-Id": "org-acme"},
			wantCtx: tenant.Context{ID: "org-acme", Slug: "acme", Type: tenant.TypeTenant},
			wantOK:  true,
		},
		{
			name:    "tenant headers without id fall back to slug",
			headers: map[string]string{"X-Tenant-Type": "tenant", "X-Tenant-Slug": "acme"},
			wantCtx: tenant.Context{ID: "acme", Slug: "acme", Type: tenant.TypeTenant},
			wantOK:  true,
		},
		{
			name:    "admin headers",
			headers: map[string]string{"X-Tenant-Type": "admin"},
			wantCtx: tenant.Admin("", ""),
			wantOK:  true,
		},
		{
			name:    "no headers",
			headers: nil,
			wantCtx: tenant.None(),
			wantOK:  false,
		},
		{
			name:    "tenant type without slug does not match",
			headers: map[string]string{"X-Tenant-Type": "tenant"},
			wantCtx: tenant.None(),
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}

			tctx, ok, err := hr.Resolve(r)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantCtx, tctx)
		})
	}
}

func TestAdminPathResolver(t *testing.T) {
	t.Parallel()

	ar := tenant.NewAdminPathResolver("")

	tctx, ok, err := ar.Resolve(httptest.NewRequest(http.MethodGet, "/admin/tenants", nil))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, tctx.IsAdmin())

	_, ok, err = ar.Resolve(httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSubdomainResolver(t *testing.T) {
	t.Parallel()

	newRequest := func(host string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Host = host
		return r
	}

	t.Run("known active slug", func(t *testing.T) {
		t.Parallel()

		sr := tenant.NewSubdomainResolver(".zphere.app", newProvider())
		tctx, ok, err := sr.Resolve(newRequest("acme.zphere.app"))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, tenant.Context{ID: "org-acme", Slug: "acme", Type: tenant.TypeTenant}, tctx)
	})

	t.Run("port is ignored", func(t *testing.T) {
		t.Parallel()

		sr := tenant.NewSubdomainResolver(".zphere.app", newProvider())
		_, ok, err := sr.Resolve(newRequest("acme.zphere.app:8443"))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("unknown slug resolves to none without error", func(t *testing.T) {
		t.Parallel()

		sr := tenant.NewSubdomainResolver(".zphere.app", newProvider())
		tctx, ok, err := sr.Resolve(newRequest("ghost.zphere.app"))
		require.NoError(t, err)
		assert.False(t, ok)
		assert.True(t, tctx.IsNone())
	})

	t.Run("inactive slug resolves to none", func(t *testing.T) {
		t.Parallel()

		sr := tenant.NewSubdomainResolver(".zphere.app", newProvider())
		_, ok, err := sr.Resolve(newRequest("dead.zphere.app"))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("reserved subdomains", func(t *testing.T) {
		t.Parallel()

		sr := tenant.NewSubdomainResolver(".zphere.app", newProvider())

		tctx, ok, err := sr.Resolve(newRequest("admin.zphere.app"))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, tctx.IsAdmin())

		_, ok, err = sr.Resolve(newRequest("www.zphere.app"))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("bare domain and foreign hosts", func(t *testing.T) {
		t.Parallel()

		sr := tenant.NewSubdomainResolver(".zphere.app", newProvider())
		for _, host := range []string{"zphere.app", "localhost", "evil.example.com"} {
			_, ok, err := sr.Resolve(newRequest(host))
			require.NoError(t, err)
			assert.False(t, ok, host)
		}
	})

	t.Run("no suffix requires three labels", func(t *testing.T) {
		t.Parallel()

		sr := tenant.NewSubdomainResolver("", newProvider())

		_, ok, err := sr.Resolve(newRequest("acme.example.com"))
		require.NoError(t, err)
		assert.True(t, ok)

		_, ok, err = sr.Resolve(newRequest("example.com"))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("validated lookups are cached", func(t *testing.T) {
		t.Parallel()

		provider := newProvider()
		sr := tenant.NewSubdomainResolver(".zphere.app", provider, tenant.WithLookupTTL(time.Minute))

		for range 5 {
			_, ok, err := sr.Resolve(newRequest("acme.zphere.app"))
			require.NoError(t, err)
			require.True(t, ok)
		}
		assert.EqualValues(t, 1, provider.calls.Load())
	})

	t.Run("noop cache disables caching", func(t *testing.T) {
		t.Parallel()

		provider := newProvider()
		sr := tenant.NewSubdomainResolver(".zphere.app", provider, tenant.WithLookupCache(tenant.NewNoOpCache()))

		for range 3 {
			_, _, err := sr.Resolve(newRequest("acme.zphere.app"))
			require.NoError(t, err)
		}
		assert.EqualValues(t, 3, provider.calls.Load())
	})
}

func TestChainResolverPrecedence(t *testing.T) {
	t.Parallel()

	chain := tenant.NewChainResolver(
		tenant.NewHeaderResolver(),
		tenant.NewAdminPathResolver("/admin"),
		tenant.NewSubdomainResolver(".zphere.app", newProvider()),
	)

	t.Run("headers beat admin path", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodGet, "/admin/tenants", nil)
		r.Header.Set("X-Tenant-Type", "tenant")
		r.Header.Set("X-Tenant-Slug", "acme")

		tctx, ok, err := chain.Resolve(r)
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, tctx.IsTenant())
		assert.Equal(t, "acme", tctx.Slug)
	})

	t.Run("admin path beats subdomain", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodGet, "/admin/tenants", nil)
		r.Host = "acme.zphere.app"

		tctx, ok, err := chain.Resolve(r)
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, tctx.IsAdmin())
	})

	t.Run("subdomain as last resort", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
		r.Host = "acme.zphere.app"

		tctx, ok, err := chain.Resolve(r)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "org-acme", tctx.ID)
	})

	t.Run("nothing matches", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Host = "zphere.app"

		tctx, ok, err := chain.Resolve(r)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.True(t, tctx.IsNone())
	})
}
