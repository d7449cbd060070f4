// Package cache provides the short-lived in-memory store backing the
// resolved mod list payload and the per-item rescan flags. Values carry a
// TTL and disappear on read once expired; Delete is unconditional so
// invalidation removes an entry instead of waiting for expiry. The store
// is a pure cache: everything in it can be rebuilt from the catalog.
package cache
