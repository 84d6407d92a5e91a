package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
	APIBind string `toml:"api_bind"`
}

// FFmpeg contains configuration for the stream capture probe.
type FFmpeg struct {
	// Binary is an optional fallback path tried when no ffmpeg is found
	// on PATH (e.g. a bundled static build).
	Binary                string `toml:"binary"`
	UserAgent             string `toml:"user_agent"`
	ProbeSeconds          int    `toml:"probe_seconds"`
	CaptureTimeoutSeconds int    `toml:"capture_timeout_seconds"`
	VerifyTimeoutSeconds  int    `toml:"verify_timeout_seconds"`
	ScaleWidth            int    `toml:"scale_width"`
}

// Check contains configuration for batch stream checking.
type Check struct {
	Concurrency int `toml:"concurrency"`
	// ErrorLimit bounds the stored length of per-channel error messages.
	ErrorLimit int `toml:"error_limit"`
	// AutoDisableFailed disables a channel whose deep check fails.
	AutoDisableFailed bool `toml:"auto_disable_failed"`
	// AutoIntervalMinutes schedules periodic checks of all enabled
	// channels. Zero disables the scheduler.
	AutoIntervalMinutes int `toml:"auto_interval_minutes"`
}

// Fetch contains configuration for subscription feed downloads.
type Fetch struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Aerial.
type Config struct {
	Paths   Paths   `toml:"paths"`
	FFmpeg  FFmpeg  `toml:"ffmpeg"`
	Check   Check   `toml:"check"`
	Fetch   Fetch   `toml:"fetch"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/aerial/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a config file was actually found.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}

	c.FFmpeg.Binary = strings.TrimSpace(c.FFmpeg.Binary)
	if c.FFmpeg.Binary != "" {
		if c.FFmpeg.Binary, err = expandPath(c.FFmpeg.Binary); err != nil {
			return fmt.Errorf("ffmpeg.binary: %w", err)
		}
	}
	c.FFmpeg.UserAgent = strings.TrimSpace(c.FFmpeg.UserAgent)
	if c.FFmpeg.UserAgent == "" {
		c.FFmpeg.UserAgent = defaultFFmpegUserAgent
	}
	if c.FFmpeg.ProbeSeconds <= 0 {
		c.FFmpeg.ProbeSeconds = defaultFFmpegProbeSeconds
	}
	if c.FFmpeg.CaptureTimeoutSeconds <= 0 {
		c.FFmpeg.CaptureTimeoutSeconds = defaultFFmpegCaptureTimeout
	}
	if c.FFmpeg.VerifyTimeoutSeconds <= 0 {
		c.FFmpeg.VerifyTimeoutSeconds = defaultFFmpegVerifyTimeout
	}
	if c.FFmpeg.ScaleWidth <= 0 {
		c.FFmpeg.ScaleWidth = defaultFFmpegScaleWidth
	}

	if c.Check.Concurrency <= 0 {
		c.Check.Concurrency = defaultCheckConcurrency
	}
	if c.Check.ErrorLimit <= 0 {
		c.Check.ErrorLimit = defaultCheckErrorLimit
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		c.Fetch.TimeoutSeconds = defaultFetchTimeoutSeconds
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}

// EnsureDirectories creates the data and log directories if missing.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite database location under the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "aerial.db")
}

// ExpandPath expands a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

// SampleConfig returns the embedded sample configuration file contents.
func SampleConfig() string {
	return sampleConfig
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve path %s: %w", trimmed, err)
	}
	return abs, nil
}
