package slack

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/feedbacklab/slack-feedback-export/pkg/pagination"
)

// FetchAll fetches every page of endpoint and returns the items stored under
// itemKey across all pages, in server emission order. An empty itemKey means
// each page's whole payload is the item list.
func (c *Client) FetchAll(ctx context.Context, endpoint string, params url.Values, itemKey string) ([]json.RawMessage, error) {
	return pagination.NewAccumulator(c).FetchAll(ctx, endpoint, params, itemKey)
}

// HistoryOptions narrows a channel history fetch.
type HistoryOptions struct {
	// Oldest and Latest are unix timestamp strings bounding the fetched
	// range. Either may be empty for an open end.
	Oldest string
	Latest string

	// Limit is the page size requested per call. Defaults to
	// DefaultPageLimit.
	Limit int
}

// ChannelHistory fetches the full message history of a channel via
// conversations.history, honoring the optional time range.
func (c *Client) ChannelHistory(ctx context.Context, channelID string, opts HistoryOptions) ([]json.RawMessage, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultPageLimit
	}

	params := url.Values{}
	params.Set("channel", channelID)
	params.Set("limit", strconv.Itoa(limit))
	if opts.Oldest != "" {
		params.Set("oldest", opts.Oldest)
	}
	if opts.Latest != "" {
		params.Set("latest", opts.Latest)
	}

	return c.FetchAll(ctx, "conversations.history", params, "messages")
}
