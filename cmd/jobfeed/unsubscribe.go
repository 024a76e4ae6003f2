package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobfeed/internal/model"
)

var unsubscribeCmd = &cobra.Command{
	Use:   "unsubscribe <subscriber> <keyword...>",
	Short: "Remove a subscription and its seen-set",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runUnsubscribe,
}

func init() {
	rootCmd.AddCommand(unsubscribeCmd)
}

func runUnsubscribe(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoadConfig(logger)

	ctx := context.Background()
	a, err := buildApp(ctx, cfg, setupDeliverer(cfg, nil, logger), appOptions{}, logger)
	if err != nil {
		return err
	}
	defer a.close()

	subscriber, keyword := args[0], strings.Join(args[1:], " ")
	if err := a.engine.Unsubscribe(ctx, subscriber, keyword); err != nil {
		if errors.Is(err, model.ErrNotSubscribed) {
			return fmt.Errorf("%s is not subscribed to %q", subscriber, keyword)
		}
		return err
	}
	return nil
}
