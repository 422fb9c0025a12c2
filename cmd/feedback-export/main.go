// Command feedback-export downloads the full message history of a Slack
// channel and writes it to disk as JSON or as a text transcript.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/feedbacklab/slack-feedback-export/pkg/export"
	"github.com/feedbacklab/slack-feedback-export/pkg/logging"
	"github.com/feedbacklab/slack-feedback-export/pkg/slack"
)

// options are the parsed command-line arguments.
type options struct {
	OutputDir string
	ChannelID string
	JSON      bool
	Oldest    string
	Latest    string
}

// parseArgs parses and validates the command line.
func parseArgs(args []string) (options, error) {
	var opts options

	flags := flag.NewFlagSet("feedback-export", flag.ContinueOnError)
	flags.StringVar(&opts.OutputDir, "o", "", "Directory in which to save output files")
	flags.StringVar(&opts.ChannelID, "ch", "", "Channel ID to export")
	flags.BoolVar(&opts.JSON, "json", false, "Output in JSON format instead of text")
	flags.StringVar(&opts.Oldest, "fr", "", "Unix timestamp for earliest message")
	flags.StringVar(&opts.Latest, "to", "", "Unix timestamp for latest message")

	if err := flags.Parse(args); err != nil {
		return opts, err
	}

	if opts.ChannelID == "" {
		return opts, fmt.Errorf("please specify a channel ID with -ch")
	}
	if opts.OutputDir == "" {
		return opts, fmt.Errorf("please specify an output directory with -o")
	}

	return opts, nil
}

// loadConfig binds the environment to viper. A .env file next to the binary
// is honored the same way the environment itself is.
func loadConfig() {
	_ = godotenv.Load()

	viper.SetDefault("base_url", slack.DefaultBaseURL)
	viper.SetDefault("log_level", string(logging.LevelInfo))
	_ = viper.BindEnv("token", "SLACK_USER_TOKEN")
	_ = viper.BindEnv("base_url", "SLACK_API_URL")
	_ = viper.BindEnv("log_level", "LOG_LEVEL")
}

func main() {
	loadConfig()

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(viper.GetString("log_level")),
		Pretty: true,
		Output: os.Stderr,
	})

	if err := run(logger, os.Args[1:]); err != nil {
		logger.Error().Err(err).Msg("Export failed")
		os.Exit(1)
	}
}

func run(logger zerolog.Logger, args []string) error {
	opts, err := parseArgs(args)
	if err != nil {
		return err
	}

	token := viper.GetString("token")
	if token == "" {
		return fmt.Errorf("missing SLACK_USER_TOKEN in environment variables")
	}

	cfg := slack.DefaultConfig(token)
	cfg.BaseURL = viper.GetString("base_url")

	client, err := slack.New(cfg)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	logger.Info().
		Str("channel", opts.ChannelID).
		Str("oldest", opts.Oldest).
		Str("latest", opts.Latest).
		Msg("Starting export")

	start := time.Now()
	messages, err := client.ChannelHistory(context.Background(), opts.ChannelID, slack.HistoryOptions{
		Oldest: opts.Oldest,
		Latest: opts.Latest,
	})
	if err != nil {
		return err
	}

	logger.Info().
		Int("messages", len(messages)).
		Dur("duration", time.Since(start)).
		Msg("Fetch finished")

	format := export.FormatText
	if opts.JSON {
		format = export.FormatJSON
	}

	path, err := export.NewWriter(opts.OutputDir).Export(opts.ChannelID, messages, format, time.Now())
	if err != nil {
		return err
	}

	logger.Info().Str("path", path).Msg("Export completed successfully")
	return nil
}
