package journal

import (
	"context"
	"sort"
	"sync"
)

type memoryJournal struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemory creates a concurrency-safe in-memory journal for tests and for
// running without a database.
func NewMemory() Journal {
	return &memoryJournal{}
}

func (j *memoryJournal) Record(_ context.Context, entry Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
	return nil
}

func (j *memoryJournal) ListByAddress(_ context.Context, address string, limit int) ([]Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var matched []Entry
	for _, e := range j.entries {
		if e.SenderAddress == address || e.RecipientAddress == address {
			matched = append(matched, e)
		}
	}
	sort.SliceStable(matched, func(i, k int) bool {
		return matched[i].CreatedAt.After(matched[k].CreatedAt)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}
