package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockCompletions serves canned chat-completion answers and records the
// prompts it saw.
type mockCompletions struct {
	server  *httptest.Server
	mu      sync.Mutex
	answers []string
	calls   int
	prompts []string
	auth    []string
}

func newMockCompletions(answers ...string) *mockCompletions {
	mock := &mockCompletions{answers: answers}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		mock.mu.Lock()
		mock.auth = append(mock.auth, r.Header.Get("Authorization"))
		if len(req.Messages) > 0 {
			mock.prompts = append(mock.prompts, req.Messages[len(req.Messages)-1].Content)
		}
		answer := `{"themes": []}`
		if mock.calls < len(mock.answers) {
			answer = mock.answers[mock.calls]
		}
		mock.calls++
		mock.mu.Unlock()

		content, _ := json.Marshal(answer)
		fmt.Fprintf(w, `{"choices": [{"message": {"content": %s}}]}`, content)
	}))

	return mock
}

func (m *mockCompletions) Close() { m.server.Close() }

func newTestAnalyzer(t *testing.T, mock *mockCompletions) *LLMAnalyzer {
	t.Helper()
	analyzer, err := NewLLMAnalyzer(LLMConfig{
		APIKey:  "sk-test",
		BaseURL: mock.server.URL,
	})
	require.NoError(t, err)
	return analyzer
}

func TestNewLLMAnalyzer_RequiresKey(t *testing.T) {
	_, err := NewLLMAnalyzer(LLMConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key")
}

func TestAnalyze_AggregatesThemes(t *testing.T) {
	answer := "```json\n" + `{
		"themes": [
			{"name": "Dark Mode", "mentions": 4, "examples": ["want dark mode"], "description": "night reading"},
			{"name": "dark mode", "mentions": 2, "examples": ["dark theme please"], "description": "ignored, first wins"}
		]
	}` + "\n```"

	mock := newMockCompletions(answer)
	defer mock.Close()

	analyzer := newTestAnalyzer(t, mock)

	report, err := analyzer.Analyze(context.Background(), []string{"want dark mode", "dark theme please"})
	require.NoError(t, err)

	assert.Equal(t, 2, report.TotalFeedback)
	assert.Equal(t, 6, report.ThemeCounts["dark mode"], "theme names are lowercased and merged")
	assert.Equal(t, "night reading", report.ThemeDescriptions["dark mode"], "first description wins")
	assert.Len(t, report.ThemeExamples["dark mode"], 2)

	require.Len(t, report.TopThemes, 1)
	assert.Equal(t, "dark mode", report.TopThemes[0].Theme)
}

func TestAnalyze_Batching(t *testing.T) {
	feedbacks := make([]string, 120)
	for i := range feedbacks {
		feedbacks[i] = fmt.Sprintf("feedback %d", i)
	}

	mock := newMockCompletions()
	defer mock.Close()

	analyzer := newTestAnalyzer(t, mock)

	_, err := analyzer.Analyze(context.Background(), feedbacks)
	require.NoError(t, err)

	assert.Equal(t, 3, mock.calls, "120 feedbacks cover three batches of 50")

	// Each prompt quotes at most the first 10 feedbacks of its batch.
	assert.Contains(t, mock.prompts[0], "feedback 0")
	assert.Contains(t, mock.prompts[0], "feedback 9")
	assert.NotContains(t, mock.prompts[0], `"feedback 10"`)
	assert.Contains(t, mock.prompts[1], "feedback 50")
}

func TestAnalyze_BadBatchSkipped(t *testing.T) {
	good := `{"themes": [{"name": "search", "mentions": 1, "examples": [], "description": ""}]}`

	mock := newMockCompletions("this is not json at all", good)
	defer mock.Close()

	analyzer := newTestAnalyzer(t, mock)

	feedbacks := make([]string, 60) // two batches
	for i := range feedbacks {
		feedbacks[i] = "x"
	}

	report, err := analyzer.Analyze(context.Background(), feedbacks)
	require.NoError(t, err, "a bad batch is skipped, not fatal")
	assert.Equal(t, 1, report.ThemeCounts["search"])
}

func TestAnalyze_SendsBearerKey(t *testing.T) {
	mock := newMockCompletions()
	defer mock.Close()

	analyzer := newTestAnalyzer(t, mock)

	_, err := analyzer.Analyze(context.Background(), []string{"hello"})
	require.NoError(t, err)

	require.Len(t, mock.auth, 1)
	assert.Equal(t, "Bearer sk-test", mock.auth[0])
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "json fence",
			content: "Here you go:\n```json\n{\"themes\": []}\n```\nanything after",
			want:    `{"themes": []}`,
		},
		{
			name:    "plain fence",
			content: "```\n{\"themes\": []}\n```",
			want:    `{"themes": []}`,
		},
		{
			name:    "no fence",
			content: `  {"themes": []}  `,
			want:    `{"themes": []}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.content))
		})
	}
}
