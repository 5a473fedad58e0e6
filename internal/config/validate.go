package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if err := c.validateStages(); err != nil {
		return err
	}
	if c.Upload.MaxBytes <= 0 {
		return errors.New("upload.max_bytes must be positive")
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateStages() error {
	if c.Stages.MaxTotalStages < 1 || c.Stages.MaxTotalStages > maxStagesUpperBound {
		return fmt.Errorf("stages.max_total_stages must be between 1 and %d (got %d)", maxStagesUpperBound, c.Stages.MaxTotalStages)
	}
	if c.Stages.DefaultTotalStages < 1 || c.Stages.DefaultTotalStages > c.Stages.MaxTotalStages {
		return fmt.Errorf("stages.default_total_stages must be between 1 and %d (got %d)", c.Stages.MaxTotalStages, c.Stages.DefaultTotalStages)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	n := c.Notifications
	if n.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	if n.RatePerSecond < 0 {
		return errors.New("notifications.rate_per_second must not be negative")
	}
	if n.Burst <= 0 {
		return errors.New("notifications.burst must be positive")
	}
	if n.Concurrency <= 0 {
		return errors.New("notifications.concurrency must be positive")
	}
	if n.RelayURL == "" {
		return nil
	}
	parsed, err := url.Parse(n.RelayURL)
	if err != nil {
		return fmt.Errorf("notifications.relay_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("notifications.relay_url must use http or https (got %q)", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("notifications.relay_url must include a host")
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
