// Package slack provides a rate-limit-aware client for Slack's
// cursor-paginated Web API endpoints.
package slack

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for Slack API operations.
var (
	apiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slack_api_requests_total",
		Help: "Total Slack API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	apiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "slack_api_request_duration_seconds",
		Help:    "Slack API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	apiPagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slack_api_pages_total",
		Help: "Total pages fetched by endpoint",
	}, []string{"endpoint"})

	apiItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slack_api_items_total",
		Help: "Total items accumulated from paginated responses by endpoint",
	}, []string{"endpoint"})
)

// DefaultBaseURL is the Slack Web API root.
const DefaultBaseURL = "https://slack.com/api"

const (
	// DefaultMaxRetries is the rate-limit retry ceiling per request.
	DefaultMaxRetries = 10

	// DefaultRetryMargin is added to every server-supplied Retry-After wait.
	DefaultRetryMargin = 2 * time.Second

	// DefaultPageLimit is the page size requested from history endpoints.
	DefaultPageLimit = 200
)

// Client is a Slack Web API client. A single client is safe for use by one
// fetch operation at a time; independent fetches should not share in-flight
// state and the client keeps none between calls.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Token is the bearer token attached to every request (REQUIRED).
	Token string

	// BaseURL is the API root. Defaults to DefaultBaseURL.
	BaseURL string

	// MaxRetries caps how many attempts a single logical request may make
	// while the server keeps answering 429. Defaults to DefaultMaxRetries.
	MaxRetries int

	// RetryMargin is the safety margin added to the server-supplied
	// Retry-After wait before reissuing a rate-limited request.
	// DefaultConfig sets DefaultRetryMargin; zero means no margin.
	RetryMargin time.Duration

	// HTTPClient overrides the underlying HTTP client (for testing).
	HTTPClient *http.Client
}

// DefaultConfig returns a configuration with production defaults.
func DefaultConfig(token string) Config {
	return Config{
		Token:       token,
		BaseURL:     DefaultBaseURL,
		MaxRetries:  DefaultMaxRetries,
		RetryMargin: DefaultRetryMargin,
	}
}

// New creates a new Slack client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("token is required")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	if cfg.RetryMargin < 0 {
		return nil, fmt.Errorf("retry margin must not be negative (got %v)", cfg.RetryMargin)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 30 * time.Second,
		}
	}

	logger := log.With().Str("component", "slack-client").Logger()

	return &Client{
		httpClient: httpClient,
		config:     cfg,
		logger:     logger,
	}, nil
}

// get issues exactly one authenticated GET request. It has no retry
// awareness: status codes are returned to the caller untouched.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (*http.Response, error) {
	requestURL := c.config.BaseURL + "/" + endpoint
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	req.Header.Set("Accept", "application/json")

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	apiRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())

	if err != nil {
		apiRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return nil, fmt.Errorf("request %s: %w", endpoint, err)
	}

	apiRequestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()
	return resp, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
