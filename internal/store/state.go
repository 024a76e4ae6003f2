package store

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/amishk599/jobfeed/internal/metrics"
	"github.com/amishk599/jobfeed/internal/model"
)

// Pair identifies one subscription.
type Pair struct {
	Subscriber string
	Keyword    string
}

// State is the single owner of the subscription registry, the seen-sets and
// the delivery counters. The in-memory snapshot is authoritative; every
// mutation is applied to it under mu and a versioned copy is then written to
// the backing StateStore under saveMu. Readers never wait on backend I/O, and
// a copy older than one already written is not written again.
//
// A failed write keeps the in-memory change and returns the error. Callers
// log it and carry on; the next successful write persists everything.
type State struct {
	mu      sync.Mutex
	snap    *model.Snapshot
	version uint64 // guarded by mu

	saveMu sync.Mutex
	saved  uint64 // guarded by saveMu

	store  model.StateStore
	logger *slog.Logger
}

// NewState loads the current snapshot from store.
func NewState(ctx context.Context, store model.StateStore, logger *slog.Logger) (*State, error) {
	snap, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading state: %w", err)
	}
	if snap == nil {
		snap = model.NewSnapshot()
	}
	snap.Normalize()

	s := &State{snap: snap, store: store, logger: logger}
	metrics.Subscriptions.Set(float64(s.countPairsLocked()))
	logger.Info("state loaded", "subscribers", len(snap.Subscriptions), "subscriptions", s.countPairsLocked())
	return s, nil
}

// Keywords returns the subscriber's keywords in subscription order.
func (s *State) Keywords(subscriber string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.snap.Subscriptions[subscriber])
}

func (s *State) IsSubscribed(subscriber, keyword string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.snap.Subscriptions[subscriber], keyword)
}

// SeenLinks returns a copy of the pair's seen-set.
func (s *State) SeenLinks(subscriber, keyword string) map[string]struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	links := s.snap.Seen[subscriber][keyword]
	set := make(map[string]struct{}, len(links))
	for _, l := range links {
		set[l] = struct{}{}
	}
	return set
}

// Counter returns the last display number delivered for the pair.
func (s *State) Counter(subscriber, keyword string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Counters[subscriber][keyword]
}

// Pairs returns every subscribed pair, ordered by subscriber then keyword order.
func (s *State) Pairs() []Pair {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := make([]string, 0, len(s.snap.Subscriptions))
	for sub := range s.snap.Subscriptions {
		subs = append(subs, sub)
	}
	slices.Sort(subs)

	var pairs []Pair
	for _, sub := range subs {
		for _, kw := range s.snap.Subscriptions[sub] {
			pairs = append(pairs, Pair{Subscriber: sub, Keyword: kw})
		}
	}
	return pairs
}

// Snapshot returns a deep copy of the current state.
func (s *State) Snapshot() *model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

// RecordDelivery appends delivered links to the pair's seen-set (links already
// present are ignored) and advances the counter. The counter never moves
// backwards.
func (s *State) RecordDelivery(ctx context.Context, subscriber, keyword string, links []string, counter int) error {
	return s.apply(ctx, "record delivery", func() error {
		if !slices.Contains(s.snap.Subscriptions[subscriber], keyword) {
			return fmt.Errorf("recording delivery for %q/%q: %w", subscriber, keyword, model.ErrNotSubscribed)
		}

		s.snap.Seen[subscriber][keyword] = appendUnique(s.snap.Seen[subscriber][keyword], links)
		if counter > s.snap.Counters[subscriber][keyword] {
			s.snap.Counters[subscriber][keyword] = counter
		}
		return nil
	})
}

// Subscribe adds keyword to the subscriber's set and initializes its seen-set
// and counter in the same mutation.
func (s *State) Subscribe(ctx context.Context, subscriber, keyword string, links []string, counter int) error {
	return s.apply(ctx, "subscribe", func() error {
		if slices.Contains(s.snap.Subscriptions[subscriber], keyword) {
			return fmt.Errorf("subscribing %q/%q: %w", subscriber, keyword, model.ErrAlreadySubscribed)
		}

		s.snap.Subscriptions[subscriber] = append(s.snap.Subscriptions[subscriber], keyword)
		if s.snap.Seen[subscriber] == nil {
			s.snap.Seen[subscriber] = make(map[string][]string)
		}
		s.snap.Seen[subscriber][keyword] = appendUnique(nil, links)
		if s.snap.Counters[subscriber] == nil {
			s.snap.Counters[subscriber] = make(map[string]int)
		}
		s.snap.Counters[subscriber][keyword] = counter

		metrics.Subscriptions.Set(float64(s.countPairsLocked()))
		return nil
	})
}

// Unsubscribe removes the pair from all three maps. A subscriber left with no
// keywords is removed entirely.
func (s *State) Unsubscribe(ctx context.Context, subscriber, keyword string) error {
	return s.apply(ctx, "unsubscribe", func() error {
		kws := s.snap.Subscriptions[subscriber]
		idx := slices.Index(kws, keyword)
		if idx < 0 {
			return fmt.Errorf("unsubscribing %q/%q: %w", subscriber, keyword, model.ErrNotSubscribed)
		}

		kws = slices.Delete(kws, idx, idx+1)
		if len(kws) == 0 {
			delete(s.snap.Subscriptions, subscriber)
			delete(s.snap.Seen, subscriber)
			delete(s.snap.Counters, subscriber)
		} else {
			s.snap.Subscriptions[subscriber] = kws
			delete(s.snap.Seen[subscriber], keyword)
			delete(s.snap.Counters[subscriber], keyword)
		}

		metrics.Subscriptions.Set(float64(s.countPairsLocked()))
		return nil
	})
}

// apply runs mutate under mu. If it succeeds, a copy of the resulting
// snapshot is persisted after mu is released.
func (s *State) apply(ctx context.Context, op string, mutate func() error) error {
	s.mu.Lock()
	if err := mutate(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.version++
	version, snap := s.version, s.snap.Clone()
	s.mu.Unlock()

	return s.persist(ctx, op, version, snap)
}

// persist writes snap unless a newer version has already been written.
func (s *State) persist(ctx context.Context, op string, version uint64, snap *model.Snapshot) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if version <= s.saved {
		return nil
	}
	if err := s.store.Save(ctx, snap); err != nil {
		metrics.StateSaveFailures.Inc()
		s.logger.Error("state write failed", "op", op, "error", err)
		return fmt.Errorf("persisting state after %s: %w", op, err)
	}
	s.saved = version
	return nil
}

func (s *State) countPairsLocked() int {
	n := 0
	for _, kws := range s.snap.Subscriptions {
		n += len(kws)
	}
	return n
}

func appendUnique(dst, links []string) []string {
	seen := make(map[string]struct{}, len(dst)+len(links))
	for _, l := range dst {
		seen[l] = struct{}{}
	}
	for _, l := range links {
		if _, ok := seen[l]; ok || l == "" {
			continue
		}
		seen[l] = struct{}{}
		dst = append(dst, l)
	}
	if dst == nil {
		dst = []string{}
	}
	return dst
}
