package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amishk599/jobfeed/internal/model"
)

// SiteLimiter enforces a minimum delay between requests to the same job board.
type SiteLimiter struct {
	mu       sync.Mutex
	next     map[string]time.Time // earliest start of the next request, per site
	minDelay time.Duration
}

func NewSiteLimiter(minDelay time.Duration) *SiteLimiter {
	return &SiteLimiter{
		next:     make(map[string]time.Time),
		minDelay: minDelay,
	}
}

// Wait blocks until the site may be queried again. Concurrent callers for the
// same site reserve consecutive slots, so they are spaced by minDelay too.
func (l *SiteLimiter) Wait(ctx context.Context, site string) error {
	l.mu.Lock()
	now := time.Now()
	slot := l.next[site]
	if slot.Before(now) {
		slot = now
	}
	l.next[site] = slot.Add(l.minDelay)
	l.mu.Unlock()

	wait := slot.Sub(now)
	if wait <= 0 {
		return nil
	}

	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", site, ctx.Err())
	case <-t.C:
		return nil
	}
}

// Scraper waits for its site's slot before delegating to the wrapped scraper.
type Scraper struct {
	inner   model.SiteScraper
	limiter *SiteLimiter
	site    string
}

// NewScraper wraps a SiteScraper with site-level rate limiting.
// All scrapers of the same site should share one limiter.
func NewScraper(inner model.SiteScraper, limiter *SiteLimiter, site string) *Scraper {
	return &Scraper{
		inner:   inner,
		limiter: limiter,
		site:    site,
	}
}

func (s *Scraper) Scrape(ctx context.Context, keyword string) ([]model.JobRecord, error) {
	if err := s.limiter.Wait(ctx, s.site); err != nil {
		return nil, err
	}
	return s.inner.Scrape(ctx, keyword)
}
