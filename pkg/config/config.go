// Package config loads client configuration from a YAML file with
// environment overrides, following the usual precedence: defaults, then
// file, then environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/veralabs/vera-live/pkg/engine/protocol"
)

// Environment variable names recognized by Load.
const (
	EnvBaseURL   = "VERA_BASE_URL"
	EnvSubjectID = "VERA_SUBJECT_ID"
	EnvMode      = "VERA_MODE"
	EnvStorePath = "VERA_STORE_PATH"
	EnvLogLevel  = "VERA_LOG_LEVEL"
)

// Config is the client's full configuration.
type Config struct {
	// BaseURL is the assistant service's HTTP(S) base URL.
	BaseURL string `yaml:"base_url"`
	// SubjectID identifies the caller; digits are extracted before use.
	SubjectID string `yaml:"subject_id"`
	// Mode is the initial capture mode: voice, screen, or camera.
	Mode string `yaml:"mode"`
	// StorePath is where the session archive database lives.
	StorePath string `yaml:"store_path"`
	// LogLevel is debug, info, warn, or error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	storePath := "vera-live.db"
	if home, err := os.UserHomeDir(); err == nil {
		storePath = filepath.Join(home, ".vera-live", "archive.db")
	}
	return Config{
		BaseURL:   "http://localhost:8080",
		Mode:      "voice",
		StorePath: storePath,
		LogLevel:  "info",
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is empty or the file is missing, the file layer is skipped), and
// environment overrides, then validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// no file layer
		case err != nil:
			return Config{}, fmt.Errorf("read config %q: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %q: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv(EnvSubjectID); v != "" {
		cfg.SubjectID = v
	}
	if v := os.Getenv(EnvMode); v != "" {
		cfg.Mode = v
	}
	if v := os.Getenv(EnvStorePath); v != "" {
		cfg.StorePath = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
}

// Validate checks field values without requiring a subject (commands that
// never open a session run without one).
func (c Config) Validate() error {
	if _, err := protocol.WebSocketEndpoint(c.BaseURL); err != nil {
		return fmt.Errorf("config: invalid base_url: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(c.Mode)) {
	case "voice", "screen", "camera":
	default:
		return fmt.Errorf("config: mode must be voice, screen, or camera, got %q", c.Mode)
	}
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}
	if strings.TrimSpace(c.StorePath) == "" {
		return errors.New("config: store_path must not be empty")
	}
	return nil
}

// SlogLevel maps LogLevel to its slog value.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
