package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateFFmpeg(); err != nil {
		return err
	}
	if err := c.validateCheck(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	if bind := strings.TrimSpace(c.Paths.APIBind); bind != "" {
		if _, _, err := net.SplitHostPort(bind); err != nil {
			return fmt.Errorf("paths.api_bind: %w", err)
		}
	}
	return nil
}

func (c *Config) validateFFmpeg() error {
	if c.FFmpeg.ProbeSeconds >= c.FFmpeg.CaptureTimeoutSeconds {
		return errors.New("ffmpeg.capture_timeout_seconds must exceed ffmpeg.probe_seconds")
	}
	return nil
}

func (c *Config) validateCheck() error {
	if c.Check.Concurrency < 1 {
		return errors.New("check.concurrency must be at least 1")
	}
	if c.Check.AutoIntervalMinutes < 0 {
		return errors.New("check.auto_interval_minutes must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
