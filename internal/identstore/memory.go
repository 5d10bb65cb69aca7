package identstore

import (
	"context"
	"fmt"
	"math"
	"sync"
)

type memoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore constructs a concurrency-safe in-memory store with real
// cosine scoring. Used for tests and for dev mode without a Qdrant backend.
func NewMemoryStore() Store {
	return &memoryStore{records: make(map[string]Record)}
}

func (s *memoryStore) FindByField(_ context.Context, field, value string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.records {
		v, err := payloadField(rec, field)
		if err != nil {
			return nil, err
		}
		if v == value {
			rec := rec
			return &rec, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) SearchNearest(_ context.Context, vector []float32, filterField, filterValue string) (*Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *Match
	for _, rec := range s.records {
		if filterField != "" {
			v, err := payloadField(rec, filterField)
			if err != nil {
				return nil, err
			}
			if v != filterValue {
				continue
			}
		}
		score := cosineSimilarity(vector, rec.Vector)
		if best == nil || score > best.Score {
			best = &Match{Record: rec, Score: score}
		}
	}
	return best, nil
}

func (s *memoryStore) Upsert(_ context.Context, rec Record) error {
	if rec.ID == "" {
		return fmt.Errorf("%w: missing record id", ErrWrite)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
	return nil
}

func (s *memoryStore) PatchBalance(_ context.Context, id string, balance float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return fmt.Errorf("%w: unknown point %s", ErrWrite, id)
	}
	rec.Balance = balance
	s.records[id] = rec
	return nil
}

func payloadField(rec Record, field string) (string, error) {
	switch field {
	case FieldWalletAddress:
		return rec.WalletAddress, nil
	case FieldPassphrase:
		return rec.Passphrase, nil
	case "name":
		return rec.Name, nil
	default:
		return "", fmt.Errorf("unknown payload field %q", field)
	}
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
