// Package pagination drives cursor-paginated fetches to completion.
//
// Slack paginates with an opaque continuation cursor rather than numbered
// pages: each response may carry response_metadata.next_cursor, and the next
// page cannot be requested before the current one has been received. The
// accumulator therefore runs strictly sequentially, one page in flight at a
// time, and merges each page's items into a single ordered result.
//
// Example usage:
//
//	acc := pagination.NewAccumulator(slackClient)
//	messages, err := acc.FetchAll(ctx, "conversations.history", params, "messages")
//
// The accumulator:
//   - Always fetches at least one page, even for an empty result set
//   - Preserves server emission order across and within pages
//   - Stops when the continuation cursor is absent or blank
//   - Aborts the whole fetch on any page error, discarding partial results
//
// Concurrent fetches of distinct endpoints are possible by running one
// accumulator per fetch; nothing is shared between invocations.
package pagination
