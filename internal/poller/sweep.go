package poller

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobfeed/internal/metrics"
	"github.com/amishk599/jobfeed/internal/store"
)

// SweepResult summarizes one pass over every subscription.
type SweepResult struct {
	ID        string
	Pairs     int
	Delivered int // pairs that received at least one new listing
	Failed    int // pairs whose poll panicked
	Elapsed   time.Duration
}

// Sweep polls every subscribed pair with bounded concurrency. A failure in
// one pair never stops the others. Pairs receive a "new listings" notice
// only when something was delivered.
func (e *Engine) Sweep(ctx context.Context) SweepResult {
	start := time.Now()
	res := SweepResult{ID: uuid.NewString()}
	logger := e.logger.With("sweep_id", res.ID)

	pairs := e.state.Pairs()
	res.Pairs = len(pairs)
	logger.Info("sweep started", "pairs", len(pairs), "concurrency", e.opts.SweepConcurrency)

	outcomes := make([]sweepOutcome, len(pairs))
	g := new(errgroup.Group)
	g.SetLimit(e.opts.SweepConcurrency)
	for i, pair := range pairs {
		g.Go(func() error {
			outcomes[i] = e.sweepPair(ctx, pair)
			return nil
		})
	}
	g.Wait()

	for _, o := range outcomes {
		switch o {
		case outcomeDelivered:
			res.Delivered++
		case outcomeFailed:
			res.Failed++
		}
	}
	res.Elapsed = time.Since(start)

	status := "ok"
	if res.Failed > 0 {
		status = "partial"
	}
	metrics.Sweeps.WithLabelValues(status).Inc()
	logger.Info("sweep finished",
		"pairs", res.Pairs,
		"delivered", res.Delivered,
		"failed", res.Failed,
		"elapsed", res.Elapsed,
	)
	return res
}

type sweepOutcome int

const (
	outcomeIdle sweepOutcome = iota
	outcomeDelivered
	outcomeFailed
)

func (e *Engine) sweepPair(ctx context.Context, pair store.Pair) (outcome sweepOutcome) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("sweep poll panicked",
				"subscriber", pair.Subscriber,
				"keyword", pair.Keyword,
				"panic", fmt.Sprint(r),
			)
			outcome = outcomeFailed
		}
	}()

	if ctx.Err() != nil {
		return outcomeIdle
	}

	release := e.locks.lock(pair)
	defer release()

	// may have been unsubscribed since the sweep listed its pairs
	if !e.state.IsSubscribed(pair.Subscriber, pair.Keyword) {
		return outcomeIdle
	}

	res := e.pollLocked(ctx, pair.Subscriber, pair.Keyword, TriggerScheduled)
	if res.New == 0 {
		return outcomeIdle
	}
	e.notify(ctx, pair.Subscriber, newListingsNotice(pair.Keyword))
	return outcomeDelivered
}
