// Package metrics provides the centralized Prometheus registry reference for
// the calendar service. All metrics are defined in their respective packages
// (lodgify, cache, credentials, aggregator) to maintain modularity and avoid
// circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the service.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Upstream Fetch Metrics (pkg/lodgify):
//   - lodgify_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - lodgify_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - lodgify_errors_total{kind} (Counter): Fetch errors by kind (upstream, transport, not_found)
//
// Credential Metrics (pkg/credentials):
//   - lodgify_credential_lookups_total{outcome} (Counter): Secret service lookups by outcome
//
// Result Cache Metrics (pkg/cache):
//   - calendar_cache_hits_total{backend} (Counter): Cache hits by backend (memory, redis)
//   - calendar_cache_misses_total (Counter): Cache misses
//   - calendar_cache_evictions_total{reason} (Counter): Evictions (expired, capacity)
//   - calendar_cache_rejected_total (Counter): Error entries refused by Set
//   - calendar_cache_errors_total{operation} (Counter): Backend operation errors
//
// Aggregation Metrics (pkg/aggregator):
//   - calendar_aggregations_total{outcome} (Counter): Aggregations by outcome
//     (cache_hit, fetched, credential_error, upstream_error, timeout)
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(calendar_cache_hits_total[5m])) /
//   (sum(rate(calendar_cache_hits_total[5m])) + sum(rate(calendar_cache_misses_total[5m])))
//
//   # Upstream Error Rate
//   rate(lodgify_errors_total[5m])
//
//   # P95 Upstream Latency
//   histogram_quantile(0.95, rate(lodgify_request_duration_seconds_bucket[5m]))
//
//   # Timeout Rate
//   rate(calendar_aggregations_total{outcome="timeout"}[5m])
