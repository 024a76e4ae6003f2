package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/amishk599/jobfeed/internal/model"
)

// Scraper is a decorator that retries transient scrape failures with
// exponential backoff and jitter before giving up.
type Scraper struct {
	inner      model.SiteScraper
	site       string
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// NewScraper wraps a SiteScraper with retry logic.
// maxRetries is the number of additional attempts after the first failure.
// baseDelay is the delay before the first retry, doubled on each subsequent one.
func NewScraper(inner model.SiteScraper, site string, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *Scraper {
	return &Scraper{
		inner:      inner,
		site:       site,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

// Scrape attempts the inner scrape, retrying on 429, 5xx and network errors.
func (s *Scraper) Scrape(ctx context.Context, keyword string) ([]model.JobRecord, error) {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			delay := s.backoffDelay(attempt, lastErr)
			s.logger.Warn("retrying scrape after transient error",
				"source", s.site,
				"keyword", keyword,
				"attempt", attempt,
				"max_retries", s.maxRetries,
				"delay", delay,
				"error", lastErr,
			)

			t := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, fmt.Errorf("%s retry cancelled: %w", s.site, ctx.Err())
			case <-t.C:
			}
		}

		jobs, err := s.inner.Scrape(ctx, keyword)
		if err == nil {
			return jobs, nil
		}
		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%s: giving up after %d retries: %w", s.site, s.maxRetries, lastErr)
}

// backoffDelay computes the delay for a given attempt with ±30% jitter.
// A Retry-After hint from the server takes precedence.
func (s *Scraper) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	delay := s.baseDelay << (attempt - 1)
	jitter := float64(delay) * 0.3
	return time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)
}

// isRetryable reports whether err is a transient failure worth retrying.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
	}

	// network, DNS, truncated body
	return true
}
