// Package analysis identifies recurring themes in user feedback, either with
// a built-in keyword heuristic or with LLM assistance.
package analysis

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

const (
	// maxExamplesPerTheme caps how many example quotes a theme keeps.
	maxExamplesPerTheme = 3

	// exampleTruncateLen is the length example quotes are truncated to.
	exampleTruncateLen = 100

	// topThemeCount is the size of the ranked theme list in a report.
	topThemeCount = 10
)

// Themes maps a theme label to the keywords that signal it. A feedback
// message counts at most once per theme regardless of how many of its
// keywords match.
var Themes = map[string][]string{
	"source filtering/blocking": {
		"block", "filter", "source", "sources", "unfollow", "follow", "trust", "untrust",
		"clickbait", "sensational", "bias", "biased", "unreliable", "reliable",
	},
	"location/local news": {
		"location", "local", "country", "region", "area", "geographic", "location-based",
		"near me", "my area", "my country", "uk", "us", "canada", "australia",
	},
	"language/localization": {
		"language", "translate", "translation", "localization", "british english",
		"spanish", "french", "german", "korean", "chinese", "japanese",
	},
	"personalization/customization": {
		"personalize", "customize", "preferences", "settings", "tailor", "individual",
		"my interests", "my preferences", "follow topics", "follow categories",
	},
	"content quality": {
		"quality", "accurate", "factual", "reliable", "trustworthy", "credible",
		"fake news", "misinformation", "fact-check", "verify",
	},
	"user interface/UX": {
		"interface", "ui", "ux", "design", "layout", "navigation", "user experience",
		"easy to use", "intuitive", "clean", "modern",
	},
	"notification settings": {
		"notification", "alert", "push", "email", "reminder", "frequency",
		"too many", "too few", "timing", "schedule",
	},
	"offline reading": {
		"offline", "download", "save", "bookmark", "read later", "cached",
		"no internet", "airplane mode", "download for offline",
	},
	"sharing features": {
		"share", "social", "twitter", "facebook", "instagram", "whatsapp",
		"send to", "export", "copy link", "share with friends",
	},
	"search functionality": {
		"search", "find", "lookup", "query", "keyword", "topic search",
		"search bar", "search function", "find articles",
	},
	"reading experience": {
		"read", "reading", "font", "text size", "dark mode", "light mode",
		"reading time", "summarize", "summary", "key points",
	},
	"app performance": {
		"slow", "fast", "performance", "speed", "loading", "crash", "bug",
		"lag", "responsive", "smooth", "optimization",
	},
	"content variety": {
		"variety", "diverse", "different", "more content", "categories",
		"topics", "subjects", "range", "selection",
	},
	"pricing/subscription": {
		"free", "paid", "subscription", "premium", "cost", "price", "money",
		"upgrade", "pro", "premium features",
	},
}

// ThemeStat is one ranked entry of a report.
type ThemeStat struct {
	Theme       string   `json:"theme"`
	Count       int      `json:"count"`
	Percentage  float64  `json:"percentage"`
	Description string   `json:"description,omitempty"`
	Examples    []string `json:"examples,omitempty"`
}

// Report is the result of a theme analysis, shaped for JSON output.
type Report struct {
	TotalFeedback     int                 `json:"total_feedback"`
	ThemeCounts       map[string]int      `json:"theme_counts"`
	ThemeExamples     map[string][]string `json:"theme_examples"`
	ThemeDescriptions map[string]string   `json:"theme_descriptions,omitempty"`
	TopThemes         []ThemeStat         `json:"top_10_themes"`
}

// CountThemes scans feedbacks against the built-in theme table and returns a
// ranked report. Matching is case-insensitive substring search; each
// feedback contributes at most one count per theme.
func CountThemes(feedbacks []string) *Report {
	counts := make(map[string]int)
	examples := make(map[string][]string)

	for _, feedback := range feedbacks {
		lowered := strings.ToLower(feedback)

		for theme, keywords := range Themes {
			for _, keyword := range keywords {
				if !strings.Contains(lowered, strings.ToLower(keyword)) {
					continue
				}
				counts[theme]++
				if len(examples[theme]) < maxExamplesPerTheme {
					examples[theme] = append(examples[theme], truncateExample(feedback))
				}
				break
			}
		}
	}

	return buildReport(len(feedbacks), counts, examples, nil)
}

// buildReport assembles the ranked report shared by the keyword and LLM
// analyzers.
func buildReport(total int, counts map[string]int, examples map[string][]string, descriptions map[string]string) *Report {
	report := &Report{
		TotalFeedback:     total,
		ThemeCounts:       counts,
		ThemeExamples:     examples,
		ThemeDescriptions: descriptions,
	}

	themes := make([]string, 0, len(counts))
	for theme := range counts {
		themes = append(themes, theme)
	}
	// Rank by count; ties break alphabetically so the report is stable.
	sort.Slice(themes, func(i, j int) bool {
		if counts[themes[i]] != counts[themes[j]] {
			return counts[themes[i]] > counts[themes[j]]
		}
		return themes[i] < themes[j]
	})

	if len(themes) > topThemeCount {
		themes = themes[:topThemeCount]
	}

	for _, theme := range themes {
		stat := ThemeStat{
			Theme:    theme,
			Count:    counts[theme],
			Examples: examples[theme],
		}
		if len(stat.Examples) > maxExamplesPerTheme {
			stat.Examples = stat.Examples[:maxExamplesPerTheme]
		}
		if total > 0 {
			stat.Percentage = float64(counts[theme]) / float64(total) * 100
		}
		if descriptions != nil {
			stat.Description = descriptions[theme]
		}
		report.TopThemes = append(report.TopThemes, stat)
	}

	return report
}

// truncateExample shortens a feedback quote for display.
func truncateExample(feedback string) string {
	if len(feedback) > exampleTruncateLen {
		return feedback[:exampleTruncateLen] + "..."
	}
	return feedback
}

// WriteJSON writes the report to path, indented for human readers.
func (r *Report) WriteJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
