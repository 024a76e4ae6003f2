// Package aggregator fans a keyword out to every registered job board.
package aggregator

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobfeed/internal/model"
)

// Aggregator queries all sources concurrently and merges their results.
type Aggregator struct {
	sources []model.Source
	logger  *slog.Logger
}

func New(sources []model.Source, logger *slog.Logger) *Aggregator {
	return &Aggregator{sources: sources, logger: logger}
}

// Sources returns the registered sources in registration order.
func (a *Aggregator) Sources() []model.Source {
	return a.sources
}

// FetchAll runs every source in parallel and waits for all of them. The
// result is the concatenation of each source's records in registration
// order; a failing source contributes nothing. No cross-source dedup.
func (a *Aggregator) FetchAll(ctx context.Context, keyword string) []model.JobRecord {
	start := time.Now()
	results := make([][]model.JobRecord, len(a.sources))

	// sources never fail, so the group only joins
	var g errgroup.Group
	for i, src := range a.sources {
		g.Go(func() error {
			results[i] = src.Fetch(ctx, keyword)
			return nil
		})
	}
	g.Wait()

	total := 0
	for _, r := range results {
		total += len(r)
	}
	merged := make([]model.JobRecord, 0, total)
	for _, r := range results {
		merged = append(merged, r...)
	}

	a.logger.Debug("aggregated listings",
		"keyword", keyword,
		"sources", len(a.sources),
		"count", len(merged),
		"elapsed", time.Since(start),
	)
	return merged
}
