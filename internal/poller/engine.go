package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/amishk599/jobfeed/internal/metrics"
	"github.com/amishk599/jobfeed/internal/model"
	"github.com/amishk599/jobfeed/internal/searchcache"
	"github.com/amishk599/jobfeed/internal/store"
)

// DefaultBatchSize is the number of records per outbound message.
const DefaultBatchSize = 3

// Fetcher resolves a keyword to the current listings of every source.
type Fetcher interface {
	FetchAll(ctx context.Context, keyword string) []model.JobRecord
}

// Trigger names what started a poll.
type Trigger string

const (
	TriggerSearch    Trigger = "search"
	TriggerManual    Trigger = "manual"
	TriggerScheduled Trigger = "scheduled"
)

// PollResult summarizes one pass over a pair.
type PollResult struct {
	Subscribed bool // pair was subscribed when the poll ran
	Fetched    int  // records returned by all sources
	New        int  // records not previously seen (after in-poll dedup)
	FirstNum   int  // display number of the first delivered record, 0 if none
	LastNum    int  // display number of the last delivered record, 0 if none
}

// Options tunes an Engine. Zero values select defaults.
type Options struct {
	BatchSize        int
	SweepConcurrency int
}

// Engine runs the fetch, diff, deliver, persist pipeline for
// (subscriber, keyword) pairs, on demand and from the scheduler.
type Engine struct {
	fetcher Fetcher
	state   *store.State
	cache   *searchcache.Cache
	out     model.Deliverer
	locks   *pairLocks
	opts    Options
	logger  *slog.Logger
}

// NewEngine creates an engine wired with all its dependencies.
func NewEngine(
	fetcher Fetcher,
	state *store.State,
	cache *searchcache.Cache,
	out model.Deliverer,
	opts Options,
	logger *slog.Logger,
) *Engine {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.SweepConcurrency <= 0 {
		opts.SweepConcurrency = 1
	}
	return &Engine{
		fetcher: fetcher,
		state:   state,
		cache:   cache,
		out:     out,
		locks:   newPairLocks(),
		opts:    opts,
		logger:  logger,
	}
}

func normalizeKeyword(keyword string) (string, error) {
	kw := strings.TrimSpace(keyword)
	if kw == "" {
		return "", model.ErrInvalidKeyword
	}
	return kw, nil
}

// Search handles an ad-hoc search request. For a subscribed pair it runs the
// subscribed poll and follows up with an "updates" notice. Otherwise every
// fetched record is delivered with temporary numbering 1..n and held in the
// search cache so the subscriber can promote it into a subscription.
func (e *Engine) Search(ctx context.Context, subscriber, keyword string) (*PollResult, error) {
	kw, err := normalizeKeyword(keyword)
	if err != nil {
		return nil, err
	}
	release := e.locks.lock(store.Pair{Subscriber: subscriber, Keyword: kw})
	defer release()

	logger := e.logger.With("subscriber", subscriber, "keyword", kw)

	if e.state.IsSubscribed(subscriber, kw) {
		res := e.pollLocked(ctx, subscriber, kw, TriggerSearch)
		if res.New > 0 {
			e.notify(ctx, subscriber, updatesNotice(kw))
		}
		return res, nil
	}

	fetched := e.fetcher.FetchAll(ctx, kw)
	res := &PollResult{Fetched: len(fetched)}
	if len(fetched) == 0 {
		metrics.Polls.WithLabelValues(string(TriggerSearch), "empty").Inc()
		logger.Info("search found no listings")
		e.notify(ctx, subscriber, noListingsNotice(kw))
		return res, nil
	}

	records := dedupe(fetched)
	res.New = len(records)
	e.cache.Put(subscriber, kw, records)

	res.FirstNum, res.LastNum = e.deliver(ctx, subscriber, records, 0)
	e.notify(ctx, subscriber, offerSubscriptionNotice(kw))

	metrics.Polls.WithLabelValues(string(TriggerSearch), "delivered").Inc()
	logger.Info("search delivered", "fetched", len(fetched), "delivered", len(records))
	return res, nil
}

// Poll runs the subscribed path for one pair. Empty outcomes are reported to
// the subscriber as notices.
func (e *Engine) Poll(ctx context.Context, subscriber, keyword string) (*PollResult, error) {
	kw, err := normalizeKeyword(keyword)
	if err != nil {
		return nil, err
	}
	release := e.locks.lock(store.Pair{Subscriber: subscriber, Keyword: kw})
	defer release()

	if !e.state.IsSubscribed(subscriber, kw) {
		return nil, fmt.Errorf("polling %q/%q: %w", subscriber, kw, model.ErrNotSubscribed)
	}
	return e.pollLocked(ctx, subscriber, kw, TriggerManual), nil
}

// pollLocked fetches, diffs against the seen-set, delivers the new records
// and records them. Scheduled polls stay silent when there is nothing new.
// The caller holds the pair lock.
func (e *Engine) pollLocked(ctx context.Context, subscriber, kw string, trigger Trigger) *PollResult {
	logger := e.logger.With("subscriber", subscriber, "keyword", kw, "trigger", trigger)
	quiet := trigger == TriggerScheduled

	fetched := e.fetcher.FetchAll(ctx, kw)
	res := &PollResult{Subscribed: true, Fetched: len(fetched)}
	if len(fetched) == 0 {
		metrics.Polls.WithLabelValues(string(trigger), "empty").Inc()
		logger.Debug("poll found no listings")
		if !quiet {
			e.notify(ctx, subscriber, noListingsNotice(kw))
		}
		return res
	}

	seen := e.state.SeenLinks(subscriber, kw)
	fresh := make([]model.JobRecord, 0, len(fetched))
	for _, r := range fetched {
		if _, ok := seen[r.OfferLink]; ok {
			continue
		}
		seen[r.OfferLink] = struct{}{}
		fresh = append(fresh, r)
	}
	res.New = len(fresh)

	if len(fresh) == 0 {
		metrics.Polls.WithLabelValues(string(trigger), "no_new").Inc()
		logger.Debug("poll found no new listings", "fetched", len(fetched))
		if !quiet {
			e.notify(ctx, subscriber, noNewListingsNotice(kw))
		}
		return res
	}

	start := e.state.Counter(subscriber, kw)
	res.FirstNum, res.LastNum = e.deliver(ctx, subscriber, fresh, start)

	links := make([]string, len(fresh))
	for i, r := range fresh {
		links[i] = r.OfferLink
	}
	if err := e.state.RecordDelivery(ctx, subscriber, kw, links, res.LastNum); err != nil {
		// delivery already happened; a lost write means a possible repeat next poll
		logger.Error("failed to record delivery", "error", err)
	}

	metrics.Polls.WithLabelValues(string(trigger), "delivered").Inc()
	logger.Info("polled subscription", "fetched", len(fetched), "new", len(fresh), "last_number", res.LastNum)
	return res
}

// deliver sends records in batches numbered from after+1. A failed batch is
// logged and the remaining batches still go out. It returns the first and
// last numbers used.
func (e *Engine) deliver(ctx context.Context, subscriber string, records []model.JobRecord, after int) (first, last int) {
	n := after
	for start := 0; start < len(records); start += e.opts.BatchSize {
		end := min(start+e.opts.BatchSize, len(records))
		batch := make([]model.RenderedRecord, 0, end-start)
		for _, r := range records[start:end] {
			n++
			batch = append(batch, model.RenderedRecord{Number: n, Marker: model.MarkerFor(n), Job: r})
		}
		if err := e.out.SendBatch(ctx, subscriber, batch); err != nil {
			metrics.DeliveryFailures.WithLabelValues("batch").Inc()
			e.logger.Warn("failed to send batch",
				"subscriber", subscriber,
				"from", batch[0].Number,
				"to", batch[len(batch)-1].Number,
				"error", err,
			)
			continue
		}
		metrics.DeliveredListings.Add(float64(len(batch)))
	}
	return after + 1, n
}

func (e *Engine) notify(ctx context.Context, subscriber string, notice model.Notice) {
	if err := e.out.SendNotice(ctx, subscriber, notice); err != nil {
		metrics.DeliveryFailures.WithLabelValues("notice").Inc()
		e.logger.Warn("failed to send notice", "subscriber", subscriber, "kind", notice.Kind, "error", err)
	}
}

// Subscribe promotes the subscriber's cached search for keyword into a
// subscription. The cached links become the seen-set and the counter starts
// at their count. Subscribing twice is a no-op reported as a notice.
func (e *Engine) Subscribe(ctx context.Context, subscriber, keyword string) error {
	kw, err := normalizeKeyword(keyword)
	if err != nil {
		return err
	}
	release := e.locks.lock(store.Pair{Subscriber: subscriber, Keyword: kw})
	defer release()

	logger := e.logger.With("subscriber", subscriber, "keyword", kw)

	if e.state.IsSubscribed(subscriber, kw) {
		e.notify(ctx, subscriber, alreadySubscribedNotice(kw))
		return nil
	}

	entry, ok := e.cache.Take(subscriber, kw)
	if !ok {
		logger.Info("subscribe rejected, search expired")
		e.notify(ctx, subscriber, searchExpiredNotice(kw))
		return fmt.Errorf("subscribing %q/%q: %w", subscriber, kw, model.ErrSearchExpired)
	}

	links := make([]string, len(entry.Records))
	for i, r := range entry.Records {
		links[i] = r.OfferLink
	}
	if err := e.state.Subscribe(ctx, subscriber, kw, links, len(entry.Records)); err != nil {
		if errors.Is(err, model.ErrAlreadySubscribed) {
			return err
		}
		logger.Error("subscription not persisted", "error", err)
	}

	logger.Info("subscribed", "seen", len(links))
	e.notify(ctx, subscriber, subscribedNotice(kw))
	return nil
}

// Unsubscribe removes the pair and all of its state.
func (e *Engine) Unsubscribe(ctx context.Context, subscriber, keyword string) error {
	kw, err := normalizeKeyword(keyword)
	if err != nil {
		return err
	}
	release := e.locks.lock(store.Pair{Subscriber: subscriber, Keyword: kw})
	defer release()

	if err := e.state.Unsubscribe(ctx, subscriber, kw); err != nil {
		if errors.Is(err, model.ErrNotSubscribed) {
			return err
		}
		e.logger.Error("unsubscription not persisted", "subscriber", subscriber, "keyword", kw, "error", err)
	}

	e.logger.Info("unsubscribed", "subscriber", subscriber, "keyword", kw)
	e.notify(ctx, subscriber, unsubscribedNotice(kw))
	return nil
}

// Subscriptions returns the subscriber's keywords.
func (e *Engine) Subscriptions(subscriber string) []string {
	return e.state.Keywords(subscriber)
}

// ShowSubscriptions sends the subscriber their keywords with an unsubscribe
// action for each.
func (e *Engine) ShowSubscriptions(ctx context.Context, subscriber string) []string {
	kws := e.state.Keywords(subscriber)
	e.notify(ctx, subscriber, subscriptionsNotice(kws))
	return kws
}

// HandleAction dispatches an interactive control invoked by the subscriber.
func (e *Engine) HandleAction(ctx context.Context, subscriber string, action model.Action) error {
	switch action.Name {
	case model.ActionSubscribe:
		return e.Subscribe(ctx, subscriber, action.Keyword)
	case model.ActionUnsubscribe:
		return e.Unsubscribe(ctx, subscriber, action.Keyword)
	case model.ActionSearchAgain:
		if strings.TrimSpace(action.Keyword) == "" {
			e.notify(ctx, subscriber, promptNotice())
			return nil
		}
		_, err := e.Search(ctx, subscriber, action.Keyword)
		return err
	case model.ActionBack:
		e.notify(ctx, subscriber, menuNotice())
		return nil
	default:
		return fmt.Errorf("handling %q: %w", action.Name, model.ErrUnknownAction)
	}
}

// dedupe keeps the first record for each offer link.
func dedupe(records []model.JobRecord) []model.JobRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]model.JobRecord, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r.OfferLink]; ok {
			continue
		}
		seen[r.OfferLink] = struct{}{}
		out = append(out, r)
	}
	return out
}
