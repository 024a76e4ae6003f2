package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amishk599/jobfeed/internal/metrics"
	"github.com/amishk599/jobfeed/internal/model"
)

// ContainedSource turns a fallible SiteScraper into a model.Source that never
// fails: errors and panics are logged, counted and degraded to an empty result.
type ContainedSource struct {
	name    string
	scraper model.SiteScraper
	logger  *slog.Logger
}

var _ model.Source = (*ContainedSource)(nil)

// Contain wraps scraper under the given source name.
func Contain(name string, scraper model.SiteScraper, logger *slog.Logger) *ContainedSource {
	return &ContainedSource{
		name:    name,
		scraper: scraper,
		logger:  logger.With("source", name),
	}
}

func (s *ContainedSource) Name() string { return s.name }

// Fetch returns the scraper's records, or an empty slice on any failure.
func (s *ContainedSource) Fetch(ctx context.Context, keyword string) (jobs []model.JobRecord) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("source panicked", "keyword", keyword, "panic", fmt.Sprint(r))
			metrics.SourceFetches.WithLabelValues(s.name, "panic").Inc()
			jobs = []model.JobRecord{}
		}
	}()

	jobs, err := s.scraper.Scrape(ctx, keyword)
	if err != nil {
		s.logger.Warn("source fetch failed", "keyword", keyword, "error", err, "elapsed", time.Since(start))
		metrics.SourceFetches.WithLabelValues(s.name, "error").Inc()
		return []model.JobRecord{}
	}

	valid := jobs[:0]
	for _, j := range jobs {
		if j.OfferLink != "" {
			valid = append(valid, j)
		}
	}
	if len(valid) == 0 {
		metrics.SourceFetches.WithLabelValues(s.name, "empty").Inc()
		s.logger.Debug("source returned no listings", "keyword", keyword)
		return []model.JobRecord{}
	}

	metrics.SourceFetches.WithLabelValues(s.name, "ok").Inc()
	s.logger.Debug("source fetched", "keyword", keyword, "count", len(valid), "elapsed", time.Since(start))
	return valid
}
