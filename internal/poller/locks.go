package poller

import (
	"sync"

	"github.com/amishk599/jobfeed/internal/store"
)

// pairLocks is a keyed mutex: at most one poll, promotion or unsubscription
// runs per (subscriber, keyword) at a time. Entries are reference counted and
// dropped when the last holder releases them.
type pairLocks struct {
	mu    sync.Mutex
	locks map[store.Pair]*pairLock
}

type pairLock struct {
	mu   sync.Mutex
	refs int
}

func newPairLocks() *pairLocks {
	return &pairLocks{locks: make(map[store.Pair]*pairLock)}
}

// lock blocks until the pair is free and returns the release func.
func (p *pairLocks) lock(pair store.Pair) func() {
	p.mu.Lock()
	l, ok := p.locks[pair]
	if !ok {
		l = &pairLock{}
		p.locks[pair] = l
	}
	l.refs++
	p.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		p.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.locks, pair)
		}
		p.mu.Unlock()
	}
}

func (p *pairLocks) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.locks)
}
