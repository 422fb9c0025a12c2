// Package feedback reshapes exported Slack messages into flat feedback
// records and moves them through CSV files.
package feedback

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/samber/lo"
)

// csvHeader is the single column of a feedback CSV.
const csvHeader = "feedback_text"

// trailingImageMeta matches the attachment metadata some feedback messages
// carry at the end, from " image _" to the end of the string.
var trailingImageMeta = regexp.MustCompile(` image _.*$`)

// Extract keeps the messages that carry a text field and returns their
// cleaned text, in the order the messages were exported.
func Extract(messages []json.RawMessage) []string {
	return lo.FilterMap(messages, func(raw json.RawMessage, _ int) (string, bool) {
		var msg struct {
			Text *string `json:"text"`
		}
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Text == nil {
			return "", false
		}
		return Clean(*msg.Text), true
	})
}

// Clean flattens newlines to spaces, trims surrounding whitespace, and
// strips the trailing image metadata pattern.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.ReplaceAll(text, "\r", " ")
	text = strings.TrimSpace(text)
	return trailingImageMeta.ReplaceAllString(text, "")
}

// WriteCSV writes feedbacks to path as a one-column CSV with the
// feedback_text header.
func WriteCSV(path string, feedbacks []string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{csvHeader}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, feedback := range feedbacks {
		if err := writer.Write([]string{feedback}); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}

// ReadCSV reads a feedback CSV written by WriteCSV (or any CSV with a
// feedback_text column) and returns the column's values.
func ReadCSV(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: empty file, expected a %s header", path, csvHeader)
	}

	column := lo.IndexOf(rows[0], csvHeader)
	if column < 0 {
		return nil, fmt.Errorf("%s: missing %s column", path, csvHeader)
	}

	feedbacks := make([]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if column < len(row) {
			feedbacks = append(feedbacks, row[column])
		}
	}
	return feedbacks, nil
}
