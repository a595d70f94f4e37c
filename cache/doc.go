// Package cache defines the fast volatile tier: a string-keyed byte
// cache with per-entry TTLs. Entries are expendable; callers answer a
// miss from the durable tier or by recomputing, never by retrying the
// cache.
package cache
