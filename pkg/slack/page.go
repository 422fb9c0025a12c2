package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// envelope is the part of every Slack API payload the pagination machinery
// inspects. Wire contract: "ok" signals payload-level success, and
// "response_metadata.next_cursor" carries the continuation token; a missing
// or blank-after-trimming token means there are no further pages.
type envelope struct {
	OK               bool   `json:"ok"`
	Error            string `json:"error"`
	ResponseMetadata struct {
		NextCursor string `json:"next_cursor"`
	} `json:"response_metadata"`
}

// Page is the decoded payload of one paginated API call. It is consumed
// immediately by the accumulation layer and never retained across pages.
type Page struct {
	endpoint string
	raw      []byte
	envelope
}

// Items returns the item collection stored under key. When key is empty the
// whole payload is the result: one item record per page. A non-empty key
// that is absent from the page is a MissingKeyError: a malformed page must
// abort the fetch, not shrink its result.
func (p *Page) Items(key string) ([]json.RawMessage, error) {
	if key == "" {
		return []json.RawMessage{json.RawMessage(p.raw)}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(p.raw, &fields); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", p.endpoint, err)
	}

	rawItems, exists := fields[key]
	if !exists {
		return nil, &MissingKeyError{Endpoint: p.endpoint, Key: key}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(rawItems, &items); err != nil {
		return nil, fmt.Errorf("decode %s collection %q: %w", p.endpoint, key, err)
	}
	return items, nil
}

// fetchPageAt fetches one page of endpoint. The cursor is merged into the
// query parameters only when non-empty, so the first page of a fetch never
// carries a cursor parameter. It returns the decoded page and the
// continuation token for the next page, normalized to "" when the server
// signalled exhaustion.
func (c *Client) fetchPageAt(ctx context.Context, endpoint string, params url.Values, cursor string) (*Page, string, error) {
	query := url.Values{}
	for key, values := range params {
		query[key] = values
	}
	if cursor != "" {
		query.Set("cursor", cursor)
	}

	resp, err := c.getWithRetry(ctx, endpoint, query)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode > 299 {
		return nil, "", &HTTPError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read %s response: %w", endpoint, err)
	}

	page := &Page{endpoint: endpoint, raw: body}
	if err := json.Unmarshal(body, &page.envelope); err != nil {
		return nil, "", fmt.Errorf("decode %s response: %w", endpoint, err)
	}

	if !page.OK {
		return nil, "", &APIError{
			Endpoint: endpoint,
			Detail:   page.Error,
			Payload:  body,
		}
	}

	next := strings.TrimSpace(page.ResponseMetadata.NextCursor)
	return page, next, nil
}

// FetchPage fetches one page and extracts the item collection stored under
// itemKey. It implements pagination.PageFetcher.
func (c *Client) FetchPage(ctx context.Context, endpoint string, params url.Values, cursor, itemKey string) ([]json.RawMessage, string, error) {
	page, next, err := c.fetchPageAt(ctx, endpoint, params, cursor)
	if err != nil {
		return nil, "", err
	}

	items, err := page.Items(itemKey)
	if err != nil {
		return nil, "", err
	}

	apiPagesTotal.WithLabelValues(endpoint).Inc()
	apiItemsTotal.WithLabelValues(endpoint).Add(float64(len(items)))

	c.logger.Debug().
		Str("endpoint", endpoint).
		Int("items", len(items)).
		Bool("has_next", next != "").
		Msg("Fetched page")

	return items, next, nil
}
