package slack

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Common errors returned by the client. Every one of them is terminal: the
// fetch operation that hit it aborts without returning partial results.
var (
	// ErrRetryExhausted is returned when a request stayed rate-limited
	// through the configured maximum number of attempts.
	ErrRetryExhausted = errors.New("rate limit retries exhausted")

	// ErrContextCancelled is returned when the context is cancelled during
	// a rate-limit backoff sleep.
	ErrContextCancelled = errors.New("context cancelled")

	// ErrMalformedRetryAfter is returned when a 429 response is missing a
	// parseable Retry-After header. The server broke the wire contract, so
	// guessing a wait would hide the violation.
	ErrMalformedRetryAfter = errors.New("missing or malformed Retry-After header")
)

// HTTPError is a terminal non-2xx, non-429 response.
type HTTPError struct {
	Endpoint   string
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("slack API %s: %s", e.Endpoint, e.Status)
}

// APIError is a 2xx response whose payload carried "ok": false. The full
// payload is retained because Slack puts the error detail in the envelope.
type APIError struct {
	Endpoint string
	Detail   string
	Payload  json.RawMessage
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("slack API %s returned an error: %s", e.Endpoint, e.Detail)
	}
	return fmt.Sprintf("slack API %s returned an error: %s", e.Endpoint, string(e.Payload))
}

// MissingKeyError is an otherwise well-formed page that lacks the item
// collection the caller asked for. Skipping such a page would silently drop
// data, so it aborts the fetch instead.
type MissingKeyError struct {
	Endpoint string
	Key      string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("slack API %s: page is missing expected key %q", e.Endpoint, e.Key)
}
