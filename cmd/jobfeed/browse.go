package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobfeed/internal/browse"
	"github.com/amishk599/jobfeed/internal/notifier"
)

var browseCmd = &cobra.Command{
	Use:   "browse <subscriber> [keyword...]",
	Short: "Browse current listings interactively (TUI)",
	Long: `Shows the subscriber's keywords in a picker, then the current listings for
the chosen keyword split into new and already sent. Browsing is read-only:
nothing is delivered or marked as seen.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Any log output before the alt-screen starts corrupts the display.
	silent := discardLogger()
	a, err := buildApp(context.Background(), cfg, notifier.NewLogNotifier(silent), appOptions{readOnly: true}, silent)
	if err != nil {
		return err
	}
	defer a.close()

	subscriber := args[0]
	if len(args) > 1 {
		_, err := browseKeyword(a, subscriber, strings.Join(args[1:], " "))
		return err
	}

	keywords := a.engine.Subscriptions(subscriber)
	if len(keywords) == 0 {
		fmt.Printf("%s has no subscriptions. Pass a keyword to browse it anyway.\n", subscriber)
		return nil
	}

	for {
		choice, err := browse.RunKeywordPicker(subscriber, keywords)
		if err != nil {
			return fmt.Errorf("picker: %w", err)
		}
		if choice < 0 {
			return nil
		}
		wantQuit, err := browseKeyword(a, subscriber, keywords[choice])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
		}
		if wantQuit {
			return nil
		}
		// else: back to picker
	}
}

func browseKeyword(a *app, subscriber, keyword string) (bool, error) {
	records, err := browse.RunLoader(keyword, a.agg.FetchAll)
	if err != nil {
		return false, err
	}
	return browse.Run(keyword, records, a.state.SeenLinks(subscriber, keyword))
}
