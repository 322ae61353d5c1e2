// Package cache provides the result cache for aggregated Lodgify fetches.
//
// The cache memoizes the (availability, rates) tuple produced by one
// aggregation, keyed by property, room type, and date range. Caller identity
// (request origin) is deliberately excluded from the key because it does not
// affect the cached content.
//
// Two backends implement the Store interface:
//
//   - MemoryStore: process-local, bounded size with LRU eviction and a fixed
//     TTL. The default, matching the volatile cache of the original service.
//   - RedisStore: shared cache for multi-instance deployments, TTL enforced
//     by Redis key expiry.
//
// Both backends enforce the never-cache-failures rule: an entry whose Err
// field is non-nil is silently dropped on Set. A failed fetch is therefore
// always retried on the next call instead of being pinned for a TTL window.
//
// # Basic Usage
//
//	store := cache.NewMemoryStore(cache.DefaultMemoryConfig())
//
//	key := cache.Key{
//		PropertyID: "197244",
//		RoomTypeID: 257944,
//		Start:      "2025-06-01",
//		End:        "2025-06-30",
//	}
//
//	entry, err := store.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		// fetch upstream, then:
//		_ = store.Set(ctx, key, &cache.Entry{Availability: avail, Rates: rates})
//	}
//
// # Metrics
//
// The package exports Prometheus metrics:
//
//   - calendar_cache_hits_total{backend} - cache hits
//   - calendar_cache_misses_total - cache misses
//   - calendar_cache_evictions_total{reason} - evictions (expired, capacity)
//   - calendar_cache_rejected_total - error entries refused by Set
//   - calendar_cache_errors_total{operation} - backend operation errors
package cache
