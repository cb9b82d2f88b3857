package ledger

import (
	"sort"
	"sync"
)

// accountLocks serializes work per account. Mutexes are created on first use
// and kept for the life of the engine.
type accountLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *accountLocks) get(id string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}

// lock acquires the locks for ids in sorted order and returns the release
// func. Duplicates are locked once.
func (l *accountLocks) lock(ids ...string) func() {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	held := make([]*sync.Mutex, 0, len(sorted))
	for i, id := range sorted {
		if i > 0 && sorted[i-1] == id {
			continue
		}
		m := l.get(id)
		m.Lock()
		held = append(held, m)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
