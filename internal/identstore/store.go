package identstore

import (
	"context"
	"errors"
)

// VectorSize is the fixed dimensionality of face embeddings held by the store.
const VectorSize = 128

// Payload field keys used for exact-match filtering.
const (
	FieldWalletAddress = "wallet_address"
	FieldPassphrase    = "passphrase"
)

var (
	// ErrUnavailable indicates the backend could not be reached; the operation
	// may be retried as-is.
	ErrUnavailable = errors.New("identity store unavailable")

	// ErrWrite indicates the backend rejected a write; retrying requires
	// re-deriving the inputs.
	ErrWrite = errors.New("identity store write rejected")
)

// Record is one registered identity: a face embedding plus the wallet payload
// attached to it. Balance is the only field mutated after registration.
type Record struct {
	ID            string
	Vector        []float32
	Name          string
	WalletAddress string
	Passphrase    string
	Balance       float64
}

// Match pairs a record with its cosine similarity to a query vector.
type Match struct {
	Record Record
	Score  float64
}

// Store is the query surface over the vector-similarity backend. Absence is
// modeled as a nil result, never as an error.
type Store interface {
	// FindByField returns the first record whose payload field exactly matches
	// value, or nil if none exists. This is a scan, not a similarity search.
	FindByField(ctx context.Context, field, value string) (*Record, error)

	// SearchNearest returns the top-1 record by cosine similarity to vector,
	// optionally pre-filtered by an exact payload match. filterField may be
	// empty to search the whole collection.
	SearchNearest(ctx context.Context, vector []float32, filterField, filterValue string) (*Match, error)

	// Upsert inserts a new record.
	Upsert(ctx context.Context, rec Record) error

	// PatchBalance overwrites only the balance field of an existing record.
	// Read-modify-write sequencing is the caller's responsibility.
	PatchBalance(ctx context.Context, id string, balance float64) error
}
