package wallet

import "sync"

// accountLocks serializes balance mutations per wallet address. The identity
// store only offers a blind payload overwrite, so the read-compute-patch
// sequence of a transfer must not interleave with another transfer touching
// the same account. Serialization holds within a single process; running
// multiple replicas against one store reintroduces the lost-update race.
type accountLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *accountLocks) get(key string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	return m
}

// lockPair acquires both account locks in lexicographic order so that two
// concurrent transfers over the same pair of accounts cannot deadlock. The
// returned func releases both.
func (l *accountLocks) lockPair(a, b string) func() {
	if b < a {
		a, b = b, a
	}
	first := l.get(a)
	first.Lock()
	if a == b {
		return first.Unlock
	}
	second := l.get(b)
	second.Lock()
	return func() {
		second.Unlock()
		first.Unlock()
	}
}
