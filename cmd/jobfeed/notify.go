package main

import (
	"context"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobfeed/internal/notifier"
)

var notifySubscriber string

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Notification subcommands",
}

var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test notification",
	Long:  "Sends a sample listing and notice using the configured notifier.",
	RunE:  runNotifyTest,
}

func init() {
	notifyTestCmd.Flags().StringVar(&notifySubscriber, "subscriber", "test", "subscriber id to address the test message to")
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifyTestCmd)
}

func runNotifyTest(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoadConfig(logger)

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	d := setupDeliverer(cfg, httpClient, logger)

	if err := notifier.SendTestMessage(context.Background(), d, notifySubscriber); err != nil {
		logger.Error("test notification failed", "error", err)
		os.Exit(1)
	}
	logger.Info("test notification sent successfully")
	return nil
}
