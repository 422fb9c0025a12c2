// Command feedback-analyze ranks the themes of an exported feedback CSV,
// either with the built-in keyword heuristic or with LLM assistance.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/feedbacklab/slack-feedback-export/pkg/analysis"
	"github.com/feedbacklab/slack-feedback-export/pkg/feedback"
	"github.com/feedbacklab/slack-feedback-export/pkg/logging"
)

// Report filenames match the analyzer that produced them.
const (
	keywordReportFile = "feedback_analysis.json"
	llmReportFile     = "llm_feedback_analysis.json"
)

type options struct {
	CSVPath string
	LLM     bool
	APIKey  string
	OutPath string
}

func parseArgs(args []string) (options, error) {
	var opts options

	flags := flag.NewFlagSet("feedback-analyze", flag.ContinueOnError)
	flags.BoolVar(&opts.LLM, "llm", false, "Use LLM-assisted analysis instead of the keyword heuristic")
	flags.StringVar(&opts.APIKey, "api-key", "", "Completion API key (defaults to OPENAI_API_KEY)")
	flags.StringVar(&opts.OutPath, "out", "", "Report output path (defaults per analyzer)")

	if err := flags.Parse(args); err != nil {
		return opts, err
	}

	if flags.NArg() != 1 {
		return opts, fmt.Errorf("usage: feedback-analyze [flags] <feedback_csv_file>")
	}
	opts.CSVPath = flags.Arg(0)

	if opts.OutPath == "" {
		if opts.LLM {
			opts.OutPath = llmReportFile
		} else {
			opts.OutPath = keywordReportFile
		}
	}

	return opts, nil
}

func loadConfig() {
	_ = godotenv.Load()

	viper.SetDefault("log_level", string(logging.LevelInfo))
	_ = viper.BindEnv("openai_api_key", "OPENAI_API_KEY")
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
		logger.Error().Err(err).Msg("Analysis failed")
		os.Exit(1)
	}
}

func run(logger zerolog.Logger, args []string) error {
	opts, err := parseArgs(args)
	if err != nil {
		return err
	}

	feedbacks, err := feedback.ReadCSV(opts.CSVPath)
	if err != nil {
		return err
	}

	logger.Info().
		Int("feedbacks", len(feedbacks)).
		Bool("llm", opts.LLM).
		Msg("Loaded feedback")

	var report *analysis.Report
	if opts.LLM {
		apiKey := opts.APIKey
		if apiKey == "" {
			apiKey = viper.GetString("openai_api_key")
		}

		analyzer, err := analysis.NewLLMAnalyzer(analysis.LLMConfig{APIKey: apiKey})
		if err != nil {
			return err
		}

		report, err = analyzer.Analyze(context.Background(), feedbacks)
		if err != nil {
			return err
		}
	} else {
		report = analysis.CountThemes(feedbacks)
	}

	printReport(report)

	if err := report.WriteJSON(opts.OutPath); err != nil {
		return err
	}

	logger.Info().Str("path", opts.OutPath).Msg("Detailed analysis saved")
	return nil
}

// printReport writes the ranked theme table to stdout.
func printReport(report *analysis.Report) {
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("TOP %d FEEDBACK THEMES (by frequency)\n", len(report.TopThemes))
	fmt.Println(strings.Repeat("=", 60))

	for i, stat := range report.TopThemes {
		fmt.Printf("\n%d. %s\n", i+1, strings.ToUpper(stat.Theme))
		fmt.Printf("   Mentions: %d (%.1f%% of feedback)\n", stat.Count, stat.Percentage)
		if stat.Description != "" {
			fmt.Printf("   Description: %s\n", stat.Description)
		}
		if len(stat.Examples) > 0 {
			fmt.Println("   Examples:")
			for j, example := range stat.Examples {
				fmt.Printf("     %d. %s\n", j+1, example)
			}
		}
	}

	fmt.Printf("\nTotal feedback messages analyzed: %d\n", report.TotalFeedback)
	fmt.Printf("Unique themes identified: %d\n", len(report.ThemeCounts))
}
