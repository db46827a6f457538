// Package registry caches one connection handle per tenant and owns their
// full lifecycle: lazy creation on first access, LRU eviction beyond a
// configurable cap, and drain-then-close semantics on eviction and shutdown.
//
// Concurrency model: a single mutex protects only the cache map and the LRU
// list. Creation work (provisioning, pool opening) runs in a per-tenant
// future stored inside the map, so concurrent first users of one tenant
// await the same creation while unrelated tenants proceed independently.
// Failed creations are removed from the map rather than cached, making the
// next access a clean retry.
//
// The registry's state is a derived, rebuildable view: it holds no durable
// data, and a process restart simply rebuilds pools on demand from the
// provisioning state recorded in the master database.
package registry
