package slack

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for rate-limit retry handling.
var (
	apiRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slack_api_retries_total",
		Help: "Total rate-limit retry attempts by endpoint",
	}, []string{"endpoint"})

	apiRetryWaitSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "slack_api_retry_wait_seconds",
		Help:    "Server-directed wait duration before a retry by endpoint",
		Buckets: []float64{1, 2, 5, 10, 30, 60, 120},
	}, []string{"endpoint"})

	apiRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slack_api_retry_exhausted_total",
		Help: "Total number of requests that exhausted the rate-limit retry budget",
	}, []string{"endpoint"})
)

// getWithRetry wraps get with the rate-limit retry policy. A 429 response is
// reissued after sleeping for the server-supplied Retry-After plus the
// configured margin; every other outcome, success or failure, is returned to
// the caller on the first attempt it appears. The sleep is the only blocking
// wait in the fetch core and holds the calling goroutine for its full
// duration unless the context is cancelled.
func (c *Client) getWithRetry(ctx context.Context, endpoint string, params url.Values) (*http.Response, error) {
	for attempt := 1; attempt <= c.config.MaxRetries; attempt++ {
		resp, err := c.get(ctx, endpoint, params)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		wait, err := retryWait(resp.Header, c.config.RetryMargin)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", endpoint, err)
		}

		apiRetriesTotal.WithLabelValues(endpoint).Inc()
		apiRetryWaitSeconds.WithLabelValues(endpoint).Observe(wait.Seconds())

		c.logger.Warn().
			Str("endpoint", endpoint).
			Dur("wait", wait).
			Int("attempt", attempt).
			Int("max_retries", c.config.MaxRetries).
			Msg("Rate-limited, retrying after wait")

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		case <-time.After(wait):
		}
	}

	apiRetryExhaustedTotal.WithLabelValues(endpoint).Inc()
	c.logger.Error().
		Str("endpoint", endpoint).
		Int("max_retries", c.config.MaxRetries).
		Msg("Rate-limit retries exhausted, giving up")

	return nil, fmt.Errorf("%w after %d attempts: %s", ErrRetryExhausted, c.config.MaxRetries, endpoint)
}

// retryWait computes the backoff before reissuing a rate-limited request:
// the whole-second Retry-After value plus the safety margin. Slack requires
// the header on every 429, so its absence is an error rather than a default.
func retryWait(header http.Header, margin time.Duration) (time.Duration, error) {
	value := header.Get("Retry-After")
	if value == "" {
		return 0, ErrMalformedRetryAfter
	}

	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedRetryAfter, value)
	}

	return time.Duration(seconds)*time.Second + margin, nil
}
