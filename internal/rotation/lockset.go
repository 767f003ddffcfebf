package rotation

import "sync"

// lockSet tracks sessions with a rotation in flight, plus rotation times not
// yet written to the store. Neither is ever persisted.
type lockSet struct {
	mu      sync.Mutex
	ids     map[int]struct{}
	pending map[int]int64
}

func newLockSet() *lockSet {
	return &lockSet{ids: make(map[int]struct{}), pending: make(map[int]int64)}
}

// tryAcquire adds id to the set. It returns false if id was already held.
func (l *lockSet) tryAcquire(id int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, held := l.ids[id]; held {
		return false
	}
	l.ids[id] = struct{}{}
	return true
}

func (l *lockSet) release(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.ids, id)
}

func (l *lockSet) held(id int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.ids[id]
	return ok
}

// markRotated records a rotation of id at ms that has not been saved.
func (l *lockSet) markRotated(id int, ms int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if prev, ok := l.pending[id]; !ok || prev < ms {
		l.pending[id] = ms
	}
}

// overlay moves LastRotatedAt of every entry in table forward to its unsaved
// rotation time, if that is later.
func (l *lockSet) overlay(table Table) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, ms := range l.pending {
		cfg := table[id]
		if cfg == nil {
			continue
		}
		if cfg.LastRotatedAt == nil || *cfg.LastRotatedAt < ms {
			cfg.LastRotatedAt = int64Ptr(ms)
		}
	}
}

// settle forgets the unsaved rotation of id if it is not later than ms.
func (l *lockSet) settle(id int, ms int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if prev, ok := l.pending[id]; ok && prev <= ms {
		delete(l.pending, id)
	}
}
