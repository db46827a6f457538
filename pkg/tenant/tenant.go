package tenant

import "context"

// Type classifies which side of the system a request belongs to.
type Type string

const (
	// TypeAdmin marks requests operating on the master database.
	TypeAdmin Type = "admin"
	// TypeTenant marks requests routed to one tenant's database.
	TypeTenant Type = "tenant"
	// TypeNone marks requests with no resolvable tenant context; the
	// caller's own policy decides what to do with them.
	TypeNone Type = "none"
)

// Context is the resolved tenant identity of one request. It is determined
// once by the middleware and immutable for the request's lifetime.
type Context struct {
	ID   string
	Slug string
	Type Type
}

func (c Context) IsAdmin() bool  { return c.Type == TypeAdmin }
func (c Context) IsTenant() bool { return c.Type == TypeTenant }
func (c Context) IsNone() bool   { return c.Type == TypeNone || c.Type == "" }

// None is the zero resolution: no tenant signal matched.
func None() Context { return Context{Type: TypeNone} }

// Admin builds an admin context; id and slug default to "admin" when the
// edge did not supply them.
func Admin(id, slug string) Context {
	if id == "" {
		id = "admin"
	}
	if slug == "" {
		slug = "admin"
	}
	return Context{ID: id, Slug: slug, Type: TypeAdmin}
}

// Organization is the slim view of a tenant used during resolution.
type Organization struct {
	ID     string
	Slug   string
	Active bool
}

// Provider loads organizations from the master database for subdomain
// validation. Returns ErrTenantNotFound for unknown or inactive slugs.
type Provider interface {
	GetActiveBySlug(ctx context.Context, slug string) (*Organization, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, slug string) (*Organization, error)

func (f ProviderFunc) GetActiveBySlug(ctx context.Context, slug string) (*Organization, error) {
	return f(ctx, slug)
}
