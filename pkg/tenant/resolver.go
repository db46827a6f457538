package tenant

import (
	"net/http"
	"strings"
	"time"
)

// Resolver extracts a tenant context from an HTTP request. The boolean
// reports whether this resolver produced a match; false means the next
// resolver in the chain should try.
type Resolver interface {
	Resolve(r *http.Request) (Context, bool, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(r *http.Request) (Context, bool, error)

func (f ResolverFunc) Resolve(r *http.Request) (Context, bool, error) {
	return f(r)
}

// HeaderResolver reads the explicit X-Tenant-Type / X-Tenant-Slug /
// X-Tenant-Id headers set by a trusted edge layer. It has the highest
// precedence in the chain; honor it only behind a reverse proxy that
// strips these headers from end clients.
type HeaderResolver struct{}

func NewHeaderResolver() *HeaderResolver { return &HeaderResolver{} }

func (hr *HeaderResolver) Resolve(r *http.Request) (Context, bool, error) {
	tenantType := strings.ToLower(r.Header.Get("X-Tenant-Type"))
	slug := r.Header.Get("X-Tenant-Slug")
	id := r.Header.Get("X-Tenant-Id")

	switch {
	case tenantType == string(TypeAdmin):
		return Admin(id, slug), true, nil
	case tenantType == string(TypeTenant) && slug != "":
		if id == "" {
			id = slug
		}
		return Context{ID: id, Slug: slug, Type: TypeTenant}, true, nil
	}
	return None(), false, nil
}

// AdminPathResolver maps requests under a path prefix (default "/admin") to
// the admin context.
type AdminPathResolver struct {
	Prefix string
}

func NewAdminPathResolver(prefix string) *AdminPathResolver {
	if prefix == "" {
		prefix = "/admin"
	}
	return &AdminPathResolver{Prefix: prefix}
}

func (ar *AdminPathResolver) Resolve(r *http.Request) (Context, bool, error) {
	if strings.HasPrefix(r.URL.Path, ar.Prefix) {
		return Admin("", ""), true, nil
	}
	return None(), false, nil
}

// SubdomainResolver extracts the first label of the Host header and
// validates it against an active organization. Unknown or inactive slugs
// resolve to none rather than erroring, so callers can apply their own
// fallback policy. The reserved "admin" subdomain maps to the admin
// context and "www" is skipped.
type SubdomainResolver struct {
	// Suffix to strip from the host before extraction (e.g. ".zphere.app").
	// Without a suffix, any host with at least three labels is treated as
	// subdomain.domain.tld.
	Suffix   string
	Provider Provider

	cache    Cache
	cacheTTL time.Duration
}

func NewSubdomainResolver(suffix string, provider Provider, opts ...SubdomainOption) *SubdomainResolver {
	sr := &SubdomainResolver{
		Suffix:   suffix,
		Provider: provider,
		cache:    NewInMemoryCache(),
		cacheTTL: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(sr)
	}
	return sr
}

// SubdomainOption configures the subdomain resolver.
type SubdomainOption func(*SubdomainResolver)

// WithLookupCache replaces the organization lookup cache, e.g. with the
// Redis-backed implementation for multi-instance deployments.
func WithLookupCache(c Cache) SubdomainOption {
	return func(sr *SubdomainResolver) {
		if c != nil {
			sr.cache = c
		}
	}
}

// WithLookupTTL sets how long validated organizations stay cached.
func WithLookupTTL(ttl time.Duration) SubdomainOption {
	return func(sr *SubdomainResolver) {
		if ttl > 0 {
			sr.cacheTTL = ttl
		}
	}
}

func (sr *SubdomainResolver) Resolve(r *http.Request) (Context, bool, error) {
	sub := sr.extract(r.Host)
	if sub == "" || sub == "www" {
		return None(), false, nil
	}
	if sub == "admin" {
		return Admin("", ""), true, nil
	}

	ctx := r.Context()
	if org, ok := sr.cache.Get(ctx, sub); ok {
		return Context{ID: org.ID, Slug: org.Slug, Type: TypeTenant}, true, nil
	}

	org, err := sr.Provider.GetActiveBySlug(ctx, sub)
	if err != nil {
		// Unknown and inactive slugs fall through to "none"; the caller
		// decides between a redirect, a 404, or default routing.
		return None(), false, nil
	}

	sr.cache.Set(ctx, sub, org, sr.cacheTTL)
	return Context{ID: org.ID, Slug: org.Slug, Type: TypeTenant}, true, nil
}

// extract pulls the candidate subdomain label out of a Host header value.
func (sr *SubdomainResolver) extract(host string) string {
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}
	if host == "" {
		return ""
	}

	if sr.Suffix != "" {
		if !strings.HasSuffix(host, sr.Suffix) {
			return ""
		}
		rest := strings.TrimSuffix(host, sr.Suffix)
		if rest == "" || strings.Contains(rest, ".") {
			return ""
		}
		return rest
	}

	// Need at least subdomain.domain.tld; localhost and bare domains have
	// no subdomain.
	parts := strings.Split(host, ".")
	if len(parts) < 3 {
		return ""
	}
	return parts[0]
}

// ChainResolver tries resolvers in order; the first match wins. This fixes
// the precedence order: headers, then admin path, then subdomain.
type ChainResolver struct {
	Resolvers []Resolver
}

func NewChainResolver(resolvers ...Resolver) *ChainResolver {
	return &ChainResolver{Resolvers: resolvers}
}

func (c *ChainResolver) Resolve(r *http.Request) (Context, bool, error) {
	for _, resolver := range c.Resolvers {
		tctx, ok, err := resolver.Resolve(r)
		if err != nil {
			return None(), false, err
		}
		if ok {
			return tctx, true, nil
		}
	}
	return None(), false, nil
}
