package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeStages()
	c.normalizeUpload()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("HIREPIPE_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeStages() {
	if c.Stages.MaxTotalStages == 0 {
		c.Stages.MaxTotalStages = defaultMaxTotalStages
	}
	if c.Stages.DefaultTotalStages == 0 {
		c.Stages.DefaultTotalStages = defaultTotalStages
	}
}

func (c *Config) normalizeUpload() {
	if c.Upload.MaxBytes <= 0 {
		c.Upload.MaxBytes = defaultUploadMaxBytes
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.RelayURL = strings.TrimSpace(c.Notifications.RelayURL)
	if c.Notifications.RelayURL == "" {
		if value, ok := os.LookupEnv("HIREPIPE_RELAY_URL"); ok {
			c.Notifications.RelayURL = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout == 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
	if c.Notifications.RatePerSecond == 0 {
		c.Notifications.RatePerSecond = defaultNotifyRatePerSecond
	}
	if c.Notifications.Burst == 0 {
		c.Notifications.Burst = defaultNotifyBurst
	}
	if c.Notifications.Concurrency == 0 {
		c.Notifications.Concurrency = defaultNotifyConcurrency
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
