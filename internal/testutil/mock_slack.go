// Package testutil provides testing utilities for the Slack export toolkit.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
)

// MockResponse defines one scripted response from the mock Slack API.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
}

// MockSlack is a scriptable mock Slack Web API server. Responses are queued
// per endpoint path and consumed in order, one per request, which makes
// multi-page and rate-limit sequences straightforward to express.
type MockSlack struct {
	server *httptest.Server
	mu     sync.Mutex
	queues map[string][]MockResponse

	// Tracking
	RequestCount int
	AuthHeaders  []string
	Queries      []url.Values
}

// NewMockSlack creates a new mock Slack API server.
func NewMockSlack() *MockSlack {
	mock := &MockSlack{
		queues: make(map[string][]MockResponse),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.AuthHeaders = append(mock.AuthHeaders, r.Header.Get("Authorization"))
		mock.Queries = append(mock.Queries, r.URL.Query())

		queue := mock.queues[r.URL.Path]
		var resp MockResponse
		if len(queue) > 0 {
			resp = queue[0]
			mock.queues[r.URL.Path] = queue[1:]
		} else {
			resp = MockResponse{StatusCode: http.StatusOK, Body: `{"ok": true}`}
		}
		mock.mu.Unlock()

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockSlack) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockSlack) Close() {
	m.server.Close()
}

// Reset clears all queues and tracking state.
func (m *MockSlack) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queues = make(map[string][]MockResponse)
	m.RequestCount = 0
	m.AuthHeaders = nil
	m.Queries = nil
}

// Enqueue appends a scripted response for an endpoint. The endpoint is the
// Slack method name, e.g. "conversations.history".
func (m *MockSlack) Enqueue(endpoint string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path := "/" + endpoint
	m.queues[path] = append(m.queues[path], resp)
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockSlack) GetRequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RequestCount
}

// CursorParams returns, per request in order, the value of the cursor query
// parameter and whether it was present at all.
func (m *MockSlack) CursorParams() []CursorParam {
	m.mu.Lock()
	defer m.mu.Unlock()

	params := make([]CursorParam, 0, len(m.Queries))
	for _, query := range m.Queries {
		_, present := query["cursor"]
		params = append(params, CursorParam{
			Present: present,
			Value:   query.Get("cursor"),
		})
	}
	return params
}

// CursorParam records how one request carried (or omitted) the pagination
// cursor.
type CursorParam struct {
	Present bool
	Value   string
}

// NewPageResponse creates a 200 page response with the given items under
// itemKey and an optional continuation cursor.
func NewPageResponse(itemKey, itemsJSON, nextCursor string) MockResponse {
	body := fmt.Sprintf(`{"ok": true, %q: %s`, itemKey, itemsJSON)
	if nextCursor != "" {
		body += fmt.Sprintf(`, "response_metadata": {"next_cursor": %q}`, nextCursor)
	}
	body += "}"

	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
	}
}

// NewRateLimitResponse creates a 429 response with a Retry-After header of
// the given whole seconds.
func NewRateLimitResponse(retryAfterSeconds int) MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"ok": false, "error": "ratelimited"}`,
		Headers: map[string]string{
			"Retry-After": strconv.Itoa(retryAfterSeconds),
		},
	}
}

// NewAPIErrorResponse creates a 200 response whose payload signals failure.
func NewAPIErrorResponse(detail string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       fmt.Sprintf(`{"ok": false, "error": %q}`, detail),
	}
}
