// Package tenant resolves which tenant, if any, an HTTP request belongs to,
// and carries that decision through the request context.
//
// # Resolution order
//
// The chain is fixed and the first match wins:
//
//  1. Explicit X-Tenant-Type / X-Tenant-Slug / X-Tenant-Id headers.
//  2. The /admin path prefix, which yields the admin context.
//  3. The Host subdomain, validated against an active organization in the
//     master database. The reserved "admin" subdomain yields the admin
//     context; unknown or inactive slugs yield "none", not an error.
//  4. Otherwise "none"; downstream policy decides what that means.
//
// A fixed skip list (health check, API docs, public shared endpoints)
// bypasses resolution entirely.
//
// # Trust boundary
//
// The header resolver trusts its input unconditionally, which is only safe
// when a reverse proxy in front of the service strips X-Tenant-* headers
// arriving from end clients. Deployments without such an edge should build
// the chain without the header resolver.
//
// # Enforcement
//
// Resolution only classifies the request. Access control happens at the
// session router, which refuses to hand a tenant database session to
// anything but a tenant context, and at the RequireTenant / RequireAdmin
// middlewares for route-level gating.
package tenant
