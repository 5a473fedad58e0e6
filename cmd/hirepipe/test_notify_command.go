package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hirepipe/internal/notifications"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification through the configured relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Notifications.RelayURL == "" && ctx.notifier == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Notifications are not configured; set notifications.relay_url")
				return nil
			}
			if err := ctx.notificationService(cfg).Publish(cmd.Context(), notifications.EventTest, notifications.Payload{}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			return nil
		},
	}
}
