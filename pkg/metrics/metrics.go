// Package metrics provides the Prometheus metrics registry reference for the
// Slack export toolkit. Metrics are defined in the packages that emit them
// (pkg/slack) to keep registration next to the instrumented code.
//
// This package documents the full metric set in one place.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the toolkit. All
// metrics are registered automatically via promauto in their home packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request metrics (pkg/slack):
//   - slack_api_requests_total{endpoint, status} (Counter): requests by
//     endpoint and HTTP status ("network_error" when no response arrived)
//   - slack_api_request_duration_seconds{endpoint} (Histogram): request
//     duration per attempt, backoff sleeps excluded
//
// Pagination metrics (pkg/slack):
//   - slack_api_pages_total{endpoint} (Counter): pages fetched
//   - slack_api_items_total{endpoint} (Counter): items accumulated from
//     paginated responses
//
// Retry metrics (pkg/slack):
//   - slack_api_retries_total{endpoint} (Counter): rate-limit retry attempts
//   - slack_api_retry_wait_seconds{endpoint} (Histogram): server-directed
//     wait (Retry-After plus margin) before each retry
//   - slack_api_retry_exhausted_total{endpoint} (Counter): requests that ran
//     out of retry budget and aborted the fetch
//
// Example Prometheus queries:
//
//   # Share of requests answered 429
//   sum(rate(slack_api_requests_total{status="429"}[5m])) /
//   sum(rate(slack_api_requests_total[5m]))
//
//   # Items fetched per page
//   rate(slack_api_items_total[5m]) / rate(slack_api_pages_total[5m])
//
//   # P95 request latency
//   histogram_quantile(0.95, rate(slack_api_request_duration_seconds_bucket[5m]))
