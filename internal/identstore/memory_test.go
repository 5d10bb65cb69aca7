package identstore

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"
)

func unitVector(axis int) []float32 {
	v := make([]float32, VectorSize)
	v[axis] = 1
	return v
}

func TestMemoryStoreFindByField(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	rec := Record{
		ID:            uuid.NewString(),
		Vector:        unitVector(0),
		Name:          "Ana",
		WalletAddress: "0xabc",
		Passphrase:    "alpha beta gamma delta epsilon zeta eta",
		Balance:       50,
	}
	if err := store.Upsert(ctx, rec); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	found, err := store.FindByField(ctx, FieldWalletAddress, "0xabc")
	if err != nil {
		t.Fatalf("find by address: %v", err)
	}
	if found == nil || found.ID != rec.ID {
		t.Fatalf("expected record %s, got %+v", rec.ID, found)
	}

	missing, err := store.FindByField(ctx, FieldPassphrase, "not a passphrase")
	if err != nil {
		t.Fatalf("find missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for absent passphrase, got %+v", missing)
	}
}

func TestMemoryStoreSearchNearestWithFilter(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	a := Record{ID: uuid.NewString(), Vector: unitVector(0), Passphrase: "pass a", WalletAddress: "0xa"}
	b := Record{ID: uuid.NewString(), Vector: unitVector(1), Passphrase: "pass b", WalletAddress: "0xb"}
	for _, rec := range []Record{a, b} {
		if err := store.Upsert(ctx, rec); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	// The nearest point overall is a, but the filter must pin the search to b.
	match, err := store.SearchNearest(ctx, unitVector(0), FieldPassphrase, "pass b")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if match == nil || match.Record.ID != b.ID {
		t.Fatalf("expected filtered match %s, got %+v", b.ID, match)
	}

	match, err = store.SearchNearest(ctx, unitVector(1), "", "")
	if err != nil {
		t.Fatalf("unfiltered search: %v", err)
	}
	if match == nil || match.Record.ID != b.ID {
		t.Fatalf("expected nearest %s, got %+v", b.ID, match)
	}
	if math.Abs(match.Score-1.0) > 1e-9 {
		t.Fatalf("expected identical vectors to score 1.0, got %f", match.Score)
	}

	none, err := store.SearchNearest(ctx, unitVector(0), FieldPassphrase, "no such pass")
	if err != nil {
		t.Fatalf("search absent: %v", err)
	}
	if none != nil {
		t.Fatalf("expected nil match, got %+v", none)
	}
}

func TestMemoryStorePatchBalance(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	rec := Record{ID: uuid.NewString(), Vector: unitVector(2), WalletAddress: "0xc", Balance: 50}
	if err := store.Upsert(ctx, rec); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if err := store.PatchBalance(ctx, rec.ID, 12.5); err != nil {
		t.Fatalf("patch: %v", err)
	}

	found, err := store.FindByField(ctx, FieldWalletAddress, "0xc")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.Balance != 12.5 {
		t.Fatalf("expected balance 12.5, got %f", found.Balance)
	}

	if err := store.PatchBalance(ctx, uuid.NewString(), 1); err == nil {
		t.Fatalf("expected error patching unknown point")
	}
}
