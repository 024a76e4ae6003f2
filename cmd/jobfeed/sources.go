package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobfeed/internal/adapter"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured job boards",
	Long:  "Reads the config and prints a table of all configured sources with their search URL pattern.",
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

type searchURLer interface {
	SearchURL(keyword string) string
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%-10s %-12s %-9s %s\n", "Source", "City", "Status", "Example URL")
	fmt.Println(strings.Repeat("─", 80))

	enabled, disabled := 0, 0
	for _, s := range cfg.Sources {
		status := "enabled"
		if !s.Enabled {
			status = "disabled"
			disabled++
		} else {
			enabled++
		}
		city := s.City
		if city == "" {
			city = adapter.DefaultCity
		}
		example := ""
		if scraper, err := adapter.New(s.Name, s.BaseURL, s.City, nil); err == nil {
			if u, ok := scraper.(searchURLer); ok {
				example = u.SearchURL("golang developer")
			}
		}
		fmt.Printf("%-10s %-12s %-9s %s\n", s.Name, city, status, example)
	}

	fmt.Printf("\nTotal: %d sources (%d enabled, %d disabled)\n", len(cfg.Sources), enabled, disabled)
	return nil
}
