package pagination

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

// PageFetcher is the interface the API client must implement for single-page
// fetching. FetchPage requests one page of endpoint, merging cursor into the
// query parameters when non-empty, and returns the items stored under
// itemKey together with the continuation cursor for the next page ("" when
// no further pages exist).
type PageFetcher interface {
	FetchPage(ctx context.Context, endpoint string, params url.Values, cursor, itemKey string) (items []json.RawMessage, nextCursor string, err error)
}

// State is a phase of the accumulation loop. The loop is an explicit state
// machine so that its termination conditions and fatal transitions can be
// tested without network I/O.
type State int

const (
	// StateStarting is the initial state; no page has been requested yet.
	StateStarting State = iota

	// StateAwaitingPage means a page request is in flight (including any
	// rate-limit backoff the fetcher performs internally).
	StateAwaitingPage

	// StateMerging means a page was received and its items are being
	// appended to the result.
	StateMerging

	// StateDone is terminal: the last page carried no continuation cursor.
	StateDone

	// StateFailed is terminal: a page request or extraction failed.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateAwaitingPage:
		return "awaiting_page"
	case StateMerging:
		return "merging"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Accumulator fetches every page of a cursor-paginated collection and merges
// the items into one ordered sequence. Each FetchAll call is an isolated
// fetch operation with its own cursor and result; an Accumulator holds no
// state between calls.
type Accumulator struct {
	fetcher PageFetcher
}

// NewAccumulator creates an accumulator on top of fetcher.
func NewAccumulator(fetcher PageFetcher) *Accumulator {
	return &Accumulator{fetcher: fetcher}
}

// FetchAll fetches pages until the continuation cursor is exhausted and
// returns the accumulated items in server emission order. Any error is
// fatal: the partial accumulation is discarded and the error returned.
// At least one page is always fetched, even for an empty result set.
func (a *Accumulator) FetchAll(ctx context.Context, endpoint string, params url.Values, itemKey string) ([]json.RawMessage, error) {
	start := time.Now()

	var (
		result []json.RawMessage
		cursor string
		items  []json.RawMessage
		next   string
		err    error
		pages  int
	)

	state := StateStarting
	for {
		switch state {
		case StateStarting:
			state = StateAwaitingPage

		case StateAwaitingPage:
			items, next, err = a.fetcher.FetchPage(ctx, endpoint, params, cursor, itemKey)
			if err != nil {
				state = StateFailed
				continue
			}
			pages++
			state = StateMerging

		case StateMerging:
			result = append(result, items...)
			log.Debug().
				Str("endpoint", endpoint).
				Int("page", pages).
				Int("page_items", len(items)).
				Int("total_items", len(result)).
				Msg("Merged page")
			if next == "" {
				state = StateDone
			} else {
				cursor = next
				state = StateAwaitingPage
			}

		case StateDone:
			log.Info().
				Str("endpoint", endpoint).
				Int("pages", pages).
				Int("items", len(result)).
				Dur("duration", time.Since(start)).
				Msg("Fetch complete")
			return result, nil

		case StateFailed:
			log.Error().
				Err(err).
				Str("endpoint", endpoint).
				Int("pages", pages).
				Msg("Fetch failed, discarding partial results")
			return nil, err
		}
	}
}
