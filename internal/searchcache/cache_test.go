package searchcache

import (
	"context"
	"testing"
	"time"

	"github.com/amishk599/jobfeed/internal/model"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache() (*Cache, *fakeClock) {
	clk := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	return New(DefaultTTL, WithClock(clk.Now)), clk
}

var records = []model.JobRecord{{OfferLink: "L1"}, {OfferLink: "L2"}}

func TestGet_LiveWithinTTL(t *testing.T) {
	c, clk := newTestCache()
	c.Put("u1", "go", records)

	clk.Advance(29*time.Minute + 59*time.Second)
	e, ok := c.Get("u1", "go")
	if !ok {
		t.Fatal("expected entry to be live before TTL")
	}
	if len(e.Records) != 2 {
		t.Errorf("expected 2 records, got %d", len(e.Records))
	}
}

func TestGet_ExpiredAfterTTL(t *testing.T) {
	c, clk := newTestCache()
	c.Put("u1", "go", records)

	clk.Advance(1801 * time.Second)
	if _, ok := c.Get("u1", "go"); ok {
		t.Fatal("expected entry to be expired at t0+1801s")
	}
	if c.Len() != 0 {
		t.Errorf("expected expired entry to be removed on read, got %d entries", c.Len())
	}
}

func TestPut_ReplacesAndRestartsTTL(t *testing.T) {
	c, clk := newTestCache()
	c.Put("u1", "go", records)

	clk.Advance(20 * time.Minute)
	c.Put("u1", "go", []model.JobRecord{{OfferLink: "L3"}})

	clk.Advance(20 * time.Minute)
	e, ok := c.Get("u1", "go")
	if !ok {
		t.Fatal("expected replaced entry to carry a fresh TTL")
	}
	if len(e.Records) != 1 || e.Records[0].OfferLink != "L3" {
		t.Errorf("expected replacement records, got %v", e.Records)
	}
}

func TestTake_RemovesEntry(t *testing.T) {
	c, _ := newTestCache()
	c.Put("u1", "go", records)

	if _, ok := c.Take("u1", "go"); !ok {
		t.Fatal("expected Take to find the entry")
	}
	if _, ok := c.Take("u1", "go"); ok {
		t.Fatal("expected second Take to find nothing")
	}
}

func TestTake_Expired(t *testing.T) {
	c, clk := newTestCache()
	c.Put("u1", "go", records)
	clk.Advance(31 * time.Minute)
	if _, ok := c.Take("u1", "go"); ok {
		t.Fatal("expected Take of expired entry to fail")
	}
}

func TestPairsAreIndependent(t *testing.T) {
	c, _ := newTestCache()
	c.Put("u1", "go", records)
	if _, ok := c.Get("u2", "go"); ok {
		t.Error("expected other subscriber to see nothing")
	}
	if _, ok := c.Get("u1", "rust"); ok {
		t.Error("expected other keyword to see nothing")
	}
}

func TestPurge(t *testing.T) {
	c, clk := newTestCache()
	c.Put("u1", "go", records)
	clk.Advance(10 * time.Minute)
	c.Put("u2", "go", records)

	clk.Advance(25 * time.Minute)
	if n := c.Purge(); n != 1 {
		t.Errorf("expected 1 purged entry, got %d", n)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 remaining entry, got %d", c.Len())
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	c := New(time.Millisecond)
	c.Put("u1", "go", records)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if c.Len() != 0 {
		t.Errorf("expected janitor to purge expired entry, got %d", c.Len())
	}
}
