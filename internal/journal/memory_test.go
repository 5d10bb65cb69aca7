package journal

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMemoryJournalListByAddress(t *testing.T) {
	j := NewMemory()
	ctx := context.Background()

	base := time.Now().UTC()
	entries := []Entry{
		{ID: uuid.NewString(), SenderAddress: "0xa", RecipientAddress: "0xb", Amount: 5, CreatedAt: base},
		{ID: uuid.NewString(), SenderAddress: "0xb", RecipientAddress: "0xc", Amount: 2, CreatedAt: base.Add(time.Second)},
		{ID: uuid.NewString(), SenderAddress: "0xc", RecipientAddress: "0xa", Amount: 1, CreatedAt: base.Add(2 * time.Second)},
	}
	for _, e := range entries {
		if err := j.Record(ctx, e); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := j.ListByAddress(ctx, "0xa", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries for 0xa, got %d", len(got))
	}
	if !got[0].CreatedAt.After(got[1].CreatedAt) {
		t.Fatalf("expected newest-first ordering")
	}

	limited, err := j.ListByAddress(ctx, "0xb", 1)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected limit to trim results, got %d", len(limited))
	}

	none, err := j.ListByAddress(ctx, "0xzzz", 10)
	if err != nil {
		t.Fatalf("list absent: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no entries, got %d", len(none))
	}
}
