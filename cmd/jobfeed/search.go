package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobfeed/internal/model"
	"github.com/amishk599/jobfeed/internal/notifier"
)

var (
	searchSubscribe bool
	searchDeliver   bool
)

var searchCmd = &cobra.Command{
	Use:   "search <subscriber> <keyword...>",
	Short: "Search all job boards once",
	Long: `Runs an ad-hoc search for a subscriber and prints the results.
With --subscribe the keyword is promoted to a subscription right away,
marking every printed listing as seen.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchSubscribe, "subscribe", false, "subscribe to the keyword after searching")
	searchCmd.Flags().BoolVar(&searchDeliver, "deliver", false, "send results through the configured notifier instead of the terminal")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoadConfig(logger)

	subscriber := args[0]
	keyword := strings.Join(args[1:], " ")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var out model.Deliverer = notifier.NewConsoleNotifier(os.Stdout)
	if searchDeliver {
		out = setupDeliverer(cfg, nil, logger)
	}

	a, err := buildApp(ctx, cfg, out, appOptions{}, logger)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.engine.Search(ctx, subscriber, keyword)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	logger.Info("search complete", "fetched", res.Fetched, "new", res.New, "subscribed", res.Subscribed)

	if searchSubscribe && !res.Subscribed && res.New > 0 {
		err := a.engine.Subscribe(ctx, subscriber, keyword)
		if err != nil && !errors.Is(err, model.ErrAlreadySubscribed) {
			return fmt.Errorf("subscribe: %w", err)
		}
	}
	return nil
}
