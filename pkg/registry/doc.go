// Package registry provides a generic, thread-safe name table that remembers
// insertion order. It backs the member store of a cache, the process-wide
// directory of caches and the catalog of constructible types.
package registry
