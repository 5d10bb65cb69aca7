package identstore

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
)

// fakeQdrant captures requests and serves canned responses for the handful of
// REST endpoints the adapter uses.
type fakeQdrant struct {
	t         *testing.T
	mux       *http.ServeMux
	upserted  []map[string]any
	patched   []map[string]any
	scrolled  []map[string]any
	searchRes []qdrantPoint
	scrollRes []qdrantPoint
}

func newFakeQdrant(t *testing.T) (*fakeQdrant, *httptest.Server) {
	f := &fakeQdrant{t: t, mux: http.NewServeMux()}
	f.mux.HandleFunc("GET /collections/blaze", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	f.mux.HandleFunc("POST /collections/blaze/points/scroll", func(w http.ResponseWriter, r *http.Request) {
		f.scrolled = append(f.scrolled, decodeJSON(f.t, r))
		writeJSON(w, map[string]any{"result": map[string]any{"points": f.scrollRes}})
	})
	f.mux.HandleFunc("POST /collections/blaze/points/search", func(w http.ResponseWriter, r *http.Request) {
		decodeJSON(f.t, r)
		writeJSON(w, map[string]any{"result": f.searchRes})
	})
	f.mux.HandleFunc("PUT /collections/blaze/points", func(w http.ResponseWriter, r *http.Request) {
		f.upserted = append(f.upserted, decodeJSON(f.t, r))
		writeJSON(w, map[string]any{"result": map[string]any{"status": "completed"}})
	})
	f.mux.HandleFunc("POST /collections/blaze/points/payload", func(w http.ResponseWriter, r *http.Request) {
		f.patched = append(f.patched, decodeJSON(f.t, r))
		writeJSON(w, map[string]any{"result": map[string]any{"status": "completed"}})
	})
	srv := httptest.NewServer(f.mux)
	return f, srv
}

func decodeJSON(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var decoded map[string]any
	if err := json.NewDecoder(r.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode request body: %v", err)
	}
	return decoded
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestQdrantFindByField(t *testing.T) {
	fake, srv := newFakeQdrant(t)
	defer srv.Close()

	id := uuid.NewString()
	fake.scrollRes = []qdrantPoint{{
		ID: id,
		Payload: map[string]any{
			"name":           "Ana",
			"wallet_address": "0xabc",
			"passphrase":     "seven plain words in a row here",
			"balance":        50.0,
		},
	}}

	store := NewQdrantStore(srv.URL, "test-key", "blaze", time.Second)
	rec, err := store.FindByField(context.Background(), FieldWalletAddress, "0xabc")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if rec == nil || rec.ID != id || rec.Name != "Ana" || rec.Balance != 50.0 {
		t.Fatalf("unexpected record %+v", rec)
	}

	if len(fake.scrolled) != 1 {
		t.Fatalf("expected one scroll request, got %d", len(fake.scrolled))
	}
	filter, _ := fake.scrolled[0]["filter"].(map[string]any)
	if filter == nil {
		t.Fatalf("scroll request missing filter: %v", fake.scrolled[0])
	}

	fake.scrollRes = nil
	rec, err = store.FindByField(context.Background(), FieldWalletAddress, "0xmissing")
	if err != nil {
		t.Fatalf("find absent: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil for empty result, got %+v", rec)
	}
}

func TestQdrantSearchNearest(t *testing.T) {
	fake, srv := newFakeQdrant(t)
	defer srv.Close()

	id := uuid.NewString()
	fake.searchRes = []qdrantPoint{{
		ID:    id,
		Score: 0.97,
		Payload: map[string]any{
			"name":           "Ana",
			"wallet_address": "0xabc",
			"passphrase":     "p",
			"balance":        12.0,
		},
	}}

	store := NewQdrantStore(srv.URL, "", "blaze", time.Second)
	match, err := store.SearchNearest(context.Background(), make([]float32, VectorSize), FieldPassphrase, "p")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if match == nil || match.Record.ID != id || match.Score != 0.97 {
		t.Fatalf("unexpected match %+v", match)
	}
}

func TestQdrantUpsertAndPatch(t *testing.T) {
	fake, srv := newFakeQdrant(t)
	defer srv.Close()

	store := NewQdrantStore(srv.URL, "", "blaze", time.Second)
	rec := Record{
		ID:            uuid.NewString(),
		Vector:        make([]float32, VectorSize),
		Name:          "Ana",
		WalletAddress: "0xabc",
		Passphrase:    "p",
		Balance:       50,
	}
	if err := store.Upsert(context.Background(), rec); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if len(fake.upserted) != 1 {
		t.Fatalf("expected one upsert request, got %d", len(fake.upserted))
	}

	if err := store.PatchBalance(context.Background(), rec.ID, 42); err != nil {
		t.Fatalf("patch: %v", err)
	}
	if len(fake.patched) != 1 {
		t.Fatalf("expected one payload request, got %d", len(fake.patched))
	}
	payload, _ := fake.patched[0]["payload"].(map[string]any)
	if payload["balance"] != 42.0 {
		t.Fatalf("expected balance 42 in patch, got %v", payload)
	}
}

func TestQdrantUnreachable(t *testing.T) {
	store := NewQdrantStore("http://127.0.0.1:1", "", "blaze", 200*time.Millisecond)
	if _, err := store.FindByField(context.Background(), FieldWalletAddress, "0xabc"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
