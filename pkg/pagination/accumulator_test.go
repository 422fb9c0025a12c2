package pagination

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"
)

// scriptedPage is one page a stubFetcher hands out.
type scriptedPage struct {
	items []json.RawMessage
	next  string
	err   error
}

// stubFetcher serves scripted pages in order and records the cursor each
// call arrived with.
type stubFetcher struct {
	pages   []scriptedPage
	calls   int
	cursors []string
}

func (s *stubFetcher) FetchPage(ctx context.Context, endpoint string, params url.Values, cursor, itemKey string) ([]json.RawMessage, string, error) {
	s.cursors = append(s.cursors, cursor)
	if s.calls >= len(s.pages) {
		return nil, "", errors.New("fetched past the scripted pages")
	}
	page := s.pages[s.calls]
	s.calls++
	return page.items, page.next, page.err
}

func rawItems(values ...string) []json.RawMessage {
	items := make([]json.RawMessage, 0, len(values))
	for _, v := range values {
		items = append(items, json.RawMessage(v))
	}
	return items
}

func TestFetchAll_PaginationCompleteness(t *testing.T) {
	fetcher := &stubFetcher{
		pages: []scriptedPage{
			{items: rawItems(`"a"`, `"b"`), next: "c1"},
			{items: rawItems(`"c"`), next: "c2"},
			{items: rawItems(`"d"`, `"e"`, `"f"`), next: ""},
		},
	}

	result, err := NewAccumulator(fetcher).FetchAll(context.Background(), "conversations.history", url.Values{}, "messages")
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}

	if len(result) != 6 {
		t.Fatalf("Result length = %d, want 6 (sum of page sizes)", len(result))
	}

	// Order equals page order, intra-page order untouched.
	want := []string{`"a"`, `"b"`, `"c"`, `"d"`, `"e"`, `"f"`}
	for i, item := range result {
		if string(item) != want[i] {
			t.Errorf("Result[%d] = %s, want %s", i, item, want[i])
		}
	}

	if fetcher.calls != 3 {
		t.Errorf("Page fetches = %d, want 3", fetcher.calls)
	}
}

func TestFetchAll_CursorThreading(t *testing.T) {
	fetcher := &stubFetcher{
		pages: []scriptedPage{
			{items: rawItems(`"a"`), next: "cursor-1"},
			{items: rawItems(`"b"`), next: "cursor-2"},
			{items: rawItems(`"c"`), next: ""},
		},
	}

	_, err := NewAccumulator(fetcher).FetchAll(context.Background(), "conversations.history", url.Values{}, "messages")
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}

	// First call carries no cursor, each later call carries exactly the
	// cursor the prior page returned.
	want := []string{"", "cursor-1", "cursor-2"}
	if len(fetcher.cursors) != len(want) {
		t.Fatalf("Cursors seen = %v, want %v", fetcher.cursors, want)
	}
	for i, cursor := range fetcher.cursors {
		if cursor != want[i] {
			t.Errorf("Call %d cursor = %q, want %q", i, cursor, want[i])
		}
	}
}

func TestFetchAll_SinglePageTermination(t *testing.T) {
	fetcher := &stubFetcher{
		pages: []scriptedPage{
			{items: nil, next: ""},
		},
	}

	result, err := NewAccumulator(fetcher).FetchAll(context.Background(), "conversations.history", url.Values{}, "messages")
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}

	if len(result) != 0 {
		t.Errorf("Result length = %d, want 0", len(result))
	}
	if fetcher.calls != 1 {
		t.Errorf("Page fetches = %d, want exactly 1 even for an empty result set", fetcher.calls)
	}
}

func TestFetchAll_FatalErrorDiscardsPartialResult(t *testing.T) {
	pageErr := errors.New("page exploded")
	fetcher := &stubFetcher{
		pages: []scriptedPage{
			{items: rawItems(`"a"`, `"b"`), next: "c1"},
			{err: pageErr},
		},
	}

	result, err := NewAccumulator(fetcher).FetchAll(context.Background(), "conversations.history", url.Values{}, "messages")
	if !errors.Is(err, pageErr) {
		t.Fatalf("Error = %v, want %v", err, pageErr)
	}
	if result != nil {
		t.Errorf("Result = %v, want nil (all-or-nothing, no partial data)", result)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateStarting, "starting"},
		{StateAwaitingPage, "awaiting_page"},
		{StateMerging, "merging"},
		{StateDone, "done"},
		{StateFailed, "failed"},
		{State(42), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
