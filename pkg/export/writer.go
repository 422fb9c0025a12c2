// Package export writes fetched channel history to disk, either as raw JSON
// or as a human-readable text transcript.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Format selects the on-disk representation of an export.
type Format int

const (
	// FormatText writes one "[timestamp] text" line per message.
	FormatText Format = iota

	// FormatJSON writes the raw message array, indented.
	FormatJSON
)

// Writer writes channel exports into timestamped directories under a parent
// directory.
type Writer struct {
	parentDir string
	logger    zerolog.Logger
}

// NewWriter creates a writer rooted at parentDir. The directory is created
// on the first export, not here.
func NewWriter(parentDir string) *Writer {
	return &Writer{
		parentDir: parentDir,
		logger:    log.With().Str("component", "export-writer").Logger(),
	}
}

// exportMessage is the subset of a Slack message the text format needs. Text
// is a pointer so that a present-but-empty text field still exports, while a
// message without one is skipped.
type exportMessage struct {
	Type string  `json:"type"`
	Text *string `json:"text"`
	TS   string  `json:"ts"`
}

// Export writes the messages of one channel and returns the path of the
// written file. Each call creates a fresh "slack_export_<timestamp>"
// directory so repeated exports never overwrite each other.
func (w *Writer) Export(channelID string, messages []json.RawMessage, format Format, now time.Time) (string, error) {
	parent, err := filepath.Abs(os.ExpandEnv(w.parentDir))
	if err != nil {
		return "", fmt.Errorf("resolve output dir: %w", err)
	}

	outDir := filepath.Join(parent, "slack_export_"+now.Format("2006-01-02_150405"))
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	var path string
	switch format {
	case FormatJSON:
		path = filepath.Join(outDir, "channel_"+channelID+".json")
		err = writeJSON(path, messages)
	default:
		path = filepath.Join(outDir, "channel_"+channelID+".txt")
		err = writeText(path, messages)
	}
	if err != nil {
		return "", err
	}

	w.logger.Info().
		Str("channel", channelID).
		Int("items", len(messages)).
		Str("path", path).
		Msg("Export written")

	return path, nil
}

func writeJSON(path string, messages []json.RawMessage) error {
	if messages == nil {
		messages = []json.RawMessage{}
	}

	data, err := json.MarshalIndent(messages, "", "    ")
	if err != nil {
		return fmt.Errorf("encode messages: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func writeText(path string, messages []json.RawMessage) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	for _, raw := range messages {
		var msg exportMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return fmt.Errorf("decode message: %w", err)
		}

		// Only regular messages with a text field make the transcript.
		if msg.Type != "message" || msg.Text == nil {
			continue
		}

		stamp, err := formatTimestamp(msg.TS)
		if err != nil {
			return fmt.Errorf("parse message timestamp %q: %w", msg.TS, err)
		}

		text := strings.ReplaceAll(*msg.Text, "\n", " ")
		if _, err := fmt.Fprintf(file, "[%s] %s\n\n", stamp, text); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	return nil
}

// formatTimestamp converts a Slack "ts" value (unix seconds with a fractional
// part) into a local wall-clock stamp.
func formatTimestamp(ts string) (string, error) {
	seconds, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return "", err
	}
	return time.Unix(int64(seconds), 0).Format("2006-01-02 15:04:05"), nil
}
