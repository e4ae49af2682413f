// vera-live is a terminal client for the assistant's live session service:
// it streams microphone audio up, plays the assistant's replies, and can
// attach a camera or screen feed for visual context.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/veralabs/vera-live/internal/dotenv"
	"github.com/veralabs/vera-live/pkg/config"
)

var (
	flagConfig    string
	flagBaseURL   string
	flagSubjectID string
	flagMode      string
	flagStorePath string
	flagLogLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "vera-live",
	Short: "Live voice and video client for the assistant service",
	Long: `vera-live runs a realtime conversation with the assistant service:
it captures your microphone, plays the assistant's speech as it streams in,
and optionally sends one camera or screen frame per second for visual
context. Transcripts and tool activity are archived locally.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return dotenv.Load()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "path to a YAML config file")
	pf.StringVar(&flagBaseURL, "base-url", "", "assistant service base URL")
	pf.StringVar(&flagSubjectID, "subject", "", "caller identifier")
	pf.StringVar(&flagMode, "mode", "", "initial capture mode: voice, screen, or camera")
	pf.StringVar(&flagStorePath, "store", "", "path to the session archive database")
	pf.StringVar(&flagLogLevel, "log-level", "", "debug, info, warn, or error")

	rootCmd.AddCommand(runCmd, capabilitiesCmd, historyCmd)
}

// loadConfig resolves configuration with flags taking precedence over the
// environment and the file.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return config.Config{}, err
	}
	if flagBaseURL != "" {
		cfg.BaseURL = flagBaseURL
	}
	if flagSubjectID != "" {
		cfg.SubjectID = flagSubjectID
	}
	if flagMode != "" {
		cfg.Mode = flagMode
	}
	if flagStorePath != "" {
		cfg.StorePath = flagStorePath
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(cfg config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
}
