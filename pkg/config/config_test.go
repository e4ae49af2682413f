package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseURL != "http://localhost:8080" || cfg.Mode != "voice" || cfg.LogLevel != "info" {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
base_url: https://assist.example.com
subject_id: "123.456-78"
mode: camera
log_level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseURL != "https://assist.example.com" || cfg.Mode != "camera" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.SubjectID != "123.456-78" {
		t.Errorf("subject = %q", cfg.SubjectID)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "base_url: https://file.example.com\n")
	t.Setenv(EnvBaseURL, "https://env.example.com")
	t.Setenv(EnvMode, "screen")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseURL != "https://env.example.com" {
		t.Errorf("base_url = %q, want env value", cfg.BaseURL)
	}
	if cfg.Mode != "screen" {
		t.Errorf("mode = %q, want screen", cfg.Mode)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad url", func(c *Config) { c.BaseURL = "ftp://example.com" }},
		{"bad mode", func(c *Config) { c.Mode = "hologram" }},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }},
		{"empty store", func(c *Config) { c.StorePath = " " }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "base_url: [unclosed\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSlogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
	}
	for in, want := range cases {
		if got := (Config{LogLevel: in}).SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
