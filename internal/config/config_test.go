package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, path, exists, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected missing config file to be reported as absent")
	}
	if path == "" {
		t.Fatal("expected resolved path even when file is absent")
	}
	if cfg.Check.Concurrency != defaultCheckConcurrency {
		t.Fatalf("unexpected concurrency default: %d", cfg.Check.Concurrency)
	}
	if cfg.FFmpeg.UserAgent != defaultFFmpegUserAgent {
		t.Fatalf("unexpected user agent default: %q", cfg.FFmpeg.UserAgent)
	}
	if !cfg.Check.AutoDisableFailed {
		t.Fatal("expected auto_disable_failed to default to true")
	}
}

func TestLoadAppliesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"
api_bind = "127.0.0.1:9000"

[check]
concurrency = 8
auto_disable_failed = false

[ffmpeg]
user_agent = "TestPlayer/1.0"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if cfg.Check.Concurrency != 8 {
		t.Fatalf("expected concurrency 8, got %d", cfg.Check.Concurrency)
	}
	if cfg.Check.AutoDisableFailed {
		t.Fatal("expected auto_disable_failed=false from file")
	}
	if cfg.FFmpeg.UserAgent != "TestPlayer/1.0" {
		t.Fatalf("unexpected user agent: %q", cfg.FFmpeg.UserAgent)
	}
	if cfg.Paths.APIBind != "127.0.0.1:9000" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	// Defaults still apply for keys the file omits.
	if cfg.FFmpeg.CaptureTimeoutSeconds != defaultFFmpegCaptureTimeout {
		t.Fatalf("unexpected capture timeout: %d", cfg.FFmpeg.CaptureTimeoutSeconds)
	}
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	expanded, err := expandPath("~/aerial-test")
	if err != nil {
		t.Fatalf("expandPath: %v", err)
	}
	if expanded != filepath.Join(home, "aerial-test") {
		t.Fatalf("unexpected expansion: %q", expanded)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero concurrency", func(c *Config) { c.Check.Concurrency = 0 }, "check.concurrency"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"probe exceeds capture", func(c *Config) {
			c.FFmpeg.ProbeSeconds = 20
			c.FFmpeg.CaptureTimeoutSeconds = 15
		}, "capture_timeout_seconds"},
		{"bad bind", func(c *Config) { c.Paths.APIBind = "not-a-bind" }, "paths.api_bind"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			if err := cfg.normalize(); err != nil {
				t.Fatalf("normalize: %v", err)
			}
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestSampleConfigParses(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.toml")
	if err := os.WriteFile(path, []byte(SampleConfig()), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Check.Concurrency != defaultCheckConcurrency {
		t.Fatalf("sample should match defaults, got concurrency %d", cfg.Check.Concurrency)
	}
}
