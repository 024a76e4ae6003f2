package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Poll every subscription once and exit",
	Long:  "Runs one scheduled sweep over all subscriptions, delivering new listings through the configured notifier.",
	RunE:  runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoadConfig(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, setupDeliverer(cfg, nil, logger), appOptions{}, logger)
	if err != nil {
		return err
	}
	defer a.close()

	res := a.engine.Sweep(ctx)
	logger.Info("sweep complete",
		"sweep_id", res.ID,
		"pairs", res.Pairs,
		"delivered", res.Delivered,
		"failed", res.Failed,
		"elapsed", res.Elapsed.String(),
	)
	return nil
}
