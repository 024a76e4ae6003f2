package model

import "context"

// Snapshot is the persisted state: three logical key-value snapshots.
//
//	Subscriptions: subscriber -> keywords
//	Seen:          subscriber -> keyword -> delivered offer links (insertion ordered)
//	Counters:      subscriber -> keyword -> last display number
type Snapshot struct {
	Subscriptions map[string][]string          `json:"subscriptions"`
	Seen          map[string]map[string][]string `json:"seen"`
	Counters      map[string]map[string]int      `json:"counters"`
}

// StateStore persists a whole Snapshot. Save must be all-or-nothing where the
// backend allows it.
type StateStore interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
}

// NewSnapshot returns an empty, ready-to-use Snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Subscriptions: make(map[string][]string),
		Seen:          make(map[string]map[string][]string),
		Counters:      make(map[string]map[string]int),
	}
}

// Clone returns a deep copy.
func (s *Snapshot) Clone() *Snapshot {
	out := NewSnapshot()
	for sub, kws := range s.Subscriptions {
		out.Subscriptions[sub] = append([]string(nil), kws...)
	}
	for sub, byKw := range s.Seen {
		m := make(map[string][]string, len(byKw))
		for kw, links := range byKw {
			m[kw] = append([]string(nil), links...)
		}
		out.Seen[sub] = m
	}
	for sub, byKw := range s.Counters {
		m := make(map[string]int, len(byKw))
		for kw, n := range byKw {
			m[kw] = n
		}
		out.Counters[sub] = m
	}
	return out
}

// Normalize repairs a snapshot loaded from a backend that cannot write all
// three maps atomically. A keyword is kept only if it is listed in
// Subscriptions; missing seen or counter entries for a subscribed keyword
// are recreated empty. It reports whether anything changed.
func (s *Snapshot) Normalize() bool {
	if s.Subscriptions == nil {
		s.Subscriptions = make(map[string][]string)
	}
	if s.Seen == nil {
		s.Seen = make(map[string]map[string][]string)
	}
	if s.Counters == nil {
		s.Counters = make(map[string]map[string]int)
	}

	changed := false
	subscribed := make(map[string]map[string]bool, len(s.Subscriptions))
	for sub, kws := range s.Subscriptions {
		set := make(map[string]bool, len(kws))
		uniq := kws[:0]
		for _, kw := range kws {
			if kw == "" || set[kw] {
				changed = true
				continue
			}
			set[kw] = true
			uniq = append(uniq, kw)
		}
		if len(uniq) == 0 {
			delete(s.Subscriptions, sub)
			changed = true
			continue
		}
		s.Subscriptions[sub] = uniq
		subscribed[sub] = set
	}

	for sub, byKw := range s.Seen {
		for kw := range byKw {
			if !subscribed[sub][kw] {
				delete(byKw, kw)
				changed = true
			}
		}
		if len(byKw) == 0 {
			delete(s.Seen, sub)
		}
	}
	for sub, byKw := range s.Counters {
		for kw := range byKw {
			if !subscribed[sub][kw] {
				delete(byKw, kw)
				changed = true
			}
		}
		if len(byKw) == 0 {
			delete(s.Counters, sub)
		}
	}

	for sub, set := range subscribed {
		for kw := range set {
			if s.Seen[sub] == nil {
				s.Seen[sub] = make(map[string][]string)
			}
			if _, ok := s.Seen[sub][kw]; !ok {
				s.Seen[sub][kw] = []string{}
				changed = true
			}
			if s.Counters[sub] == nil {
				s.Counters[sub] = make(map[string]int)
			}
			if _, ok := s.Counters[sub][kw]; !ok {
				s.Counters[sub][kw] = 0
				changed = true
			}
		}
	}
	return changed
}
