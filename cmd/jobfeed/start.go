package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobfeed/internal/scheduler"
	"github.com/amishk599/jobfeed/internal/server"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon",
	Long:  "Start the sweep scheduler and the HTTP trigger API; blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoadConfig(logger)

	logger.Info("config loaded",
		"interval", cfg.PollingInterval.String(),
		"search_ttl", cfg.SearchTTL.String(),
		"sources", len(cfg.EnabledSources()),
		"storage", cfg.Storage.Type,
		"notification", cfg.Notification.Type,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := setupDeliverer(cfg, nil, logger)
	a, err := buildApp(ctx, cfg, out, appOptions{}, logger)
	if err != nil {
		return fmt.Errorf("starting: %w", err)
	}
	defer a.close()

	sched := scheduler.NewScheduler(a.engine, cfg.PollingInterval, logger)
	srv := server.New(a.engine, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sched.Run(gctx) })
	g.Go(func() error { return srv.Run(gctx, cfg.HTTP.ListenAddr) })
	g.Go(func() error {
		a.cache.Run(gctx, time.Minute)
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("daemon stopped with error", "error", err)
		return err
	}

	logger.Info("goodbye")
	return nil
}
