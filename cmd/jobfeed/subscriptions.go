package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var subscriptionsCmd = &cobra.Command{
	Use:   "subscriptions [subscriber]",
	Short: "List subscriptions",
	Long:  "Prints the keywords of one subscriber, or every (subscriber, keyword) pair with its counter and seen-set size.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSubscriptions,
}

func init() {
	rootCmd.AddCommand(subscriptionsCmd)
}

func runSubscriptions(cmd *cobra.Command, args []string) error {
	logger := discardLogger()
	if debug {
		logger = setupLogger(true)
	}
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	a, err := buildApp(ctx, cfg, setupDeliverer(cfg, nil, logger), appOptions{readOnly: true}, logger)
	if err != nil {
		return err
	}
	defer a.close()

	if len(args) == 1 {
		kws := a.engine.Subscriptions(args[0])
		if len(kws) == 0 {
			fmt.Printf("%s has no subscriptions\n", args[0])
			return nil
		}
		for _, kw := range kws {
			fmt.Println(kw)
		}
		return nil
	}

	pairs := a.state.Pairs()
	fmt.Printf("%-20s %-30s %8s %6s\n", "Subscriber", "Keyword", "Counter", "Seen")
	fmt.Println(strings.Repeat("─", 67))
	for _, p := range pairs {
		fmt.Printf("%-20s %-30s %8d %6d\n",
			p.Subscriber, p.Keyword,
			a.state.Counter(p.Subscriber, p.Keyword),
			len(a.state.SeenLinks(p.Subscriber, p.Keyword)),
		)
	}
	fmt.Printf("\nTotal: %d subscriptions\n", len(pairs))
	return nil
}
