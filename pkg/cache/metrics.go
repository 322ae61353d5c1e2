package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by backend (memory, redis).
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calendar_cache_hits_total",
			Help: "Total number of result cache hits",
		},
		[]string{"backend"},
	)

	// CacheMisses tracks cache misses.
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "calendar_cache_misses_total",
			Help: "Total number of result cache misses",
		},
	)

	// CacheEvictions tracks evictions by reason (expired, capacity).
	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calendar_cache_evictions_total",
			Help: "Total number of result cache evictions",
		},
		[]string{"reason"},
	)

	// CacheRejected tracks error-carrying entries refused by Set.
	CacheRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "calendar_cache_rejected_total",
			Help: "Total number of error entries refused by the result cache",
		},
	)

	// CacheErrors tracks backend operation errors.
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calendar_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
