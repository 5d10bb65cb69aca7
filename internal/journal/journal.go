// Package journal keeps an append-only record of committed transfers. The
// balances of record live in the identity store; the journal exists for
// history queries and audit, never for settlement.
package journal

import (
	"context"
	"time"
)

// Entry describes one committed transfer.
type Entry struct {
	ID               string
	SenderAddress    string
	RecipientAddress string
	Amount           float64
	SenderBalance    float64
	RecipientBalance float64
	CreatedAt        time.Time
}

// Journal persists transfer entries.
type Journal interface {
	Record(ctx context.Context, entry Entry) error
	ListByAddress(ctx context.Context, address string, limit int) ([]Entry, error)
}
