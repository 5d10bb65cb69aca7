package journal

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresJournal stores transfer entries in PostgreSQL.
type PostgresJournal struct {
	db *pgxpool.Pool
}

// NewPostgresJournal builds a journal backed by PostgreSQL.
func NewPostgresJournal(db *pgxpool.Pool) *PostgresJournal {
	return &PostgresJournal{db: db}
}

// EnsureSchema creates the transfers table when missing. Called once at
// process start.
func (j *PostgresJournal) EnsureSchema(ctx context.Context) error {
	_, err := j.db.Exec(ctx, `CREATE TABLE IF NOT EXISTS transfers (
        id UUID PRIMARY KEY,
        sender_address TEXT NOT NULL,
        recipient_address TEXT NOT NULL,
        amount DOUBLE PRECISION NOT NULL,
        sender_balance DOUBLE PRECISION NOT NULL,
        recipient_balance DOUBLE PRECISION NOT NULL,
        created_at TIMESTAMPTZ NOT NULL
    )`)
	if err != nil {
		return fmt.Errorf("create transfers table: %w", err)
	}
	for _, stmt := range []string{
		`CREATE INDEX IF NOT EXISTS transfers_sender_idx ON transfers (sender_address)`,
		`CREATE INDEX IF NOT EXISTS transfers_recipient_idx ON transfers (recipient_address)`,
	} {
		if _, err := j.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create transfers index: %w", err)
		}
	}
	return nil
}

// Record appends one committed transfer.
func (j *PostgresJournal) Record(ctx context.Context, entry Entry) error {
	entryID, err := uuid.Parse(entry.ID)
	if err != nil {
		return err
	}
	_, err = j.db.Exec(ctx, `INSERT INTO transfers
        (id, sender_address, recipient_address, amount, sender_balance, recipient_balance, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entryID, entry.SenderAddress, entry.RecipientAddress, entry.Amount,
		entry.SenderBalance, entry.RecipientBalance, entry.CreatedAt.UTC())
	return err
}

// ListByAddress returns the most recent transfers touching an address, newest
// first.
func (j *PostgresJournal) ListByAddress(ctx context.Context, address string, limit int) ([]Entry, error) {
	rows, err := j.db.Query(ctx, `SELECT id, sender_address, recipient_address, amount,
        sender_balance, recipient_balance, created_at
        FROM transfers
        WHERE sender_address = $1 OR recipient_address = $1
        ORDER BY created_at DESC
        LIMIT $2`, address, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry Entry
			id    uuid.UUID
		)
		if err := rows.Scan(&id, &entry.SenderAddress, &entry.RecipientAddress, &entry.Amount,
			&entry.SenderBalance, &entry.RecipientBalance, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.ID = id.String()
		entry.CreatedAt = entry.CreatedAt.UTC()
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
