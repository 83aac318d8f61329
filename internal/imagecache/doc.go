// Package imagecache retrieves remote images through a two-tier cache.
//
// The memory tier is an LRU bounded by total byte cost with a per-entry
// expiration. The disk tier stores one file per URL under the cache
// directory; each file's modification time records when it expires, and
// reading a file pushes that deadline out by the configured access
// extension. Callers choose per retrieval whether network results may be
// written to disk (CacheAll) or kept in memory only (CacheMemoryOnly).
//
// Concurrent retrievals of one URL share a single network request.
package imagecache
