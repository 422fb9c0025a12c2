package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

const (
	// llmBatchSize is how many feedbacks one model call covers.
	llmBatchSize = 50

	// llmPromptSamples is how many feedbacks of a batch are quoted in the
	// prompt verbatim.
	llmPromptSamples = 10

	llmMaxTokens   = 2000
	llmTemperature = 0.3

	// maxStoredExamples caps how many example quotes are aggregated per
	// theme across batches; reports still show at most maxExamplesPerTheme.
	maxStoredExamples = 5
)

// DefaultLLMBaseURL is the OpenAI-compatible API root.
const DefaultLLMBaseURL = "https://api.openai.com/v1"

// DefaultLLMModel is the model used when none is configured.
const DefaultLLMModel = "gpt-4o"

// LLMConfig holds the LLM analyzer configuration.
type LLMConfig struct {
	// APIKey is the bearer token for the completion API (REQUIRED).
	APIKey string

	// BaseURL is an OpenAI-compatible API root. Defaults to DefaultLLMBaseURL.
	BaseURL string

	// Model defaults to DefaultLLMModel.
	Model string

	// HTTPClient overrides the underlying HTTP client (for testing).
	HTTPClient *http.Client
}

// LLMAnalyzer identifies feedback themes by prompting a chat-completion
// model batch by batch and aggregating the structured answers.
type LLMAnalyzer struct {
	httpClient *http.Client
	config     LLMConfig
	logger     zerolog.Logger
}

// NewLLMAnalyzer creates a new analyzer.
func NewLLMAnalyzer(cfg LLMConfig) (*LLMAnalyzer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultLLMBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}

	return &LLMAnalyzer{
		httpClient: httpClient,
		config:     cfg,
		logger:     log.With().Str("component", "llm-analyzer").Logger(),
	}, nil
}

// llmTheme is one theme entry the model is asked to produce.
type llmTheme struct {
	Name        string   `json:"name"`
	Mentions    int      `json:"mentions"`
	Examples    []string `json:"examples"`
	Description string   `json:"description"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Analyze runs every batch through the model and aggregates the themes into
// a ranked report. A batch whose call or answer cannot be used is skipped
// with a warning; only a fully empty outcome is not an error either, it just
// yields an empty report.
func (a *LLMAnalyzer) Analyze(ctx context.Context, feedbacks []string) (*Report, error) {
	batches := lo.Chunk(feedbacks, llmBatchSize)

	a.logger.Info().
		Int("feedbacks", len(feedbacks)).
		Int("batches", len(batches)).
		Msg("Starting LLM analysis")

	var themes []llmTheme
	for i, batch := range batches {
		batchThemes, err := a.analyzeBatch(ctx, batch)
		if err != nil {
			a.logger.Warn().
				Err(err).
				Int("batch", i+1).
				Msg("Skipping batch")
			continue
		}
		themes = append(themes, batchThemes...)
	}

	counts := make(map[string]int)
	examples := make(map[string][]string)
	descriptions := make(map[string]string)

	for _, theme := range themes {
		name := strings.ToLower(theme.Name)
		if name == "" {
			continue
		}

		mentions := theme.Mentions
		if mentions < 1 {
			mentions = 1
		}
		counts[name] += mentions

		for _, example := range theme.Examples {
			if len(examples[name]) < maxStoredExamples {
				examples[name] = append(examples[name], example)
			}
		}

		if _, seen := descriptions[name]; !seen && theme.Description != "" {
			descriptions[name] = theme.Description
		}
	}

	return buildReport(len(feedbacks), counts, examples, descriptions), nil
}

// analyzeBatch prompts the model with one batch and decodes its theme list.
func (a *LLMAnalyzer) analyzeBatch(ctx context.Context, batch []string) ([]llmTheme, error) {
	samples := batch
	if len(samples) > llmPromptSamples {
		samples = samples[:llmPromptSamples]
	}

	quoted, err := json.MarshalIndent(samples, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode samples: %w", err)
	}

	prompt := fmt.Sprintf(`Analyze the following user feedback for a news app. Identify the main themes, concerns, and feature requests mentioned.

Feedback samples:
%s

Please provide:
1. Top 10 most common themes/topics mentioned
2. For each theme, provide:
   - A clear theme name
   - Number of mentions (estimate)
   - 3 specific example quotes
   - Brief description of the concern/request

Format your response as JSON:
{
    "themes": [
        {
            "name": "theme_name",
            "mentions": estimated_count,
            "examples": ["quote1", "quote2", "quote3"],
            "description": "brief description"
        }
    ]
}`, quoted)

	body, err := json.Marshal(chatRequest{
		Model: a.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a product analyst specializing in user feedback analysis. Be concise and accurate."},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   llmMaxTokens,
		Temperature: llmTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("completion API: %s", resp.Status)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var completion chatResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("completion API returned no choices")
	}

	var parsed struct {
		Themes []llmTheme `json:"themes"`
	}
	content := extractJSON(completion.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("parse themes from model answer: %w", err)
	}

	return parsed.Themes, nil
}

// extractJSON pulls the JSON document out of a model answer that may wrap it
// in a markdown code fence.
func extractJSON(content string) string {
	if _, after, found := strings.Cut(content, "```json"); found {
		if inner, _, closed := strings.Cut(after, "```"); closed {
			return strings.TrimSpace(inner)
		}
		return strings.TrimSpace(after)
	}
	if _, after, found := strings.Cut(content, "```"); found {
		if inner, _, closed := strings.Cut(after, "```"); closed {
			return strings.TrimSpace(inner)
		}
		return strings.TrimSpace(after)
	}
	return strings.TrimSpace(content)
}
