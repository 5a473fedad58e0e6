package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"hirepipe/internal/config"
	"hirepipe/internal/logging"
	"hirepipe/internal/notifications"
	"hirepipe/internal/store"
	"hirepipe/internal/workflow"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	// notifier overrides the configured relay; tests set it.
	notifier notifications.Service
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) notificationService(cfg *config.Config) notifications.Service {
	if c.notifier != nil {
		return c.notifier
	}
	return notifications.NewService(cfg)
}

// withEngine opens the store and an engine for the duration of fn. CLI logs
// go to the data directory log file only so command output stays clean.
func (c *commandContext) withEngine(fn func(context.Context, *workflow.Engine) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := c.ensureConfig()
		if err != nil {
			return err
		}
		logger, err := logging.New(logging.Options{
			Level:       cfg.Logging.Level,
			Format:      "json",
			OutputPaths: []string{cfg.LogPath()},
		})
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		st, err := store.Open(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		engine := workflow.NewEngineWithNotifier(cfg, st, logging.NewComponentLogger(logger, "cli"), c.notificationService(cfg))
		return fn(cmd.Context(), engine)
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func parseIDArg(value, name string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, value)
	}
	return id, nil
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
