package identstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const apiKeyHeader = "api-key"

// QdrantStore talks to a Qdrant collection over its REST API. One collection
// holds all identity records; vectors are compared by cosine similarity.
type QdrantStore struct {
	baseURL    string
	apiKey     string
	collection string
	client     *http.Client
}

// NewQdrantStore builds a store client for the given Qdrant endpoint. The
// timeout bounds every round-trip.
func NewQdrantStore(baseURL, apiKey, collection string, timeout time.Duration) *QdrantStore {
	return &QdrantStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		collection: collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// EnsureCollection creates the backing collection when it does not exist yet.
// Called once at process start.
func (s *QdrantStore) EnsureCollection(ctx context.Context) error {
	status, _, err := s.do(ctx, http.MethodGet, "/collections/"+s.collection, nil)
	if err != nil {
		return err
	}
	if status == http.StatusOK {
		return nil
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     VectorSize,
			"distance": "Cosine",
		},
	}
	status, raw, err := s.do(ctx, http.MethodPut, "/collections/"+s.collection, body)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("%w: create collection %s: %s", ErrWrite, s.collection, truncate(raw))
	}
	return nil
}

type qdrantFilter struct {
	Must []qdrantCondition `json:"must"`
}

type qdrantCondition struct {
	Key   string           `json:"key"`
	Match qdrantMatchValue `json:"match"`
}

type qdrantMatchValue struct {
	Value string `json:"value"`
}

type qdrantPoint struct {
	ID      string         `json:"id"`
	Score   float64        `json:"score,omitempty"`
	Payload map[string]any `json:"payload"`
}

func exactFilter(field, value string) *qdrantFilter {
	return &qdrantFilter{Must: []qdrantCondition{{Key: field, Match: qdrantMatchValue{Value: value}}}}
}

// FindByField scrolls the collection for the first payload match.
func (s *QdrantStore) FindByField(ctx context.Context, field, value string) (*Record, error) {
	req := map[string]any{
		"filter":       exactFilter(field, value),
		"limit":        1,
		"with_payload": true,
		"with_vector":  false,
	}
	status, raw, err := s.do(ctx, http.MethodPost, s.pointsPath("/scroll"), req)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, fmt.Errorf("%w: scroll %s=%s: %s", ErrUnavailable, field, value, truncate(raw))
	}

	var resp struct {
		Result struct {
			Points []qdrantPoint `json:"points"`
		} `json:"result"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode scroll response: %v", ErrUnavailable, err)
	}
	if len(resp.Result.Points) == 0 {
		return nil, nil
	}
	rec := recordFromPoint(resp.Result.Points[0])
	return &rec, nil
}

// SearchNearest runs a top-1 cosine similarity query, optionally pre-filtered
// by an exact payload match.
func (s *QdrantStore) SearchNearest(ctx context.Context, vector []float32, filterField, filterValue string) (*Match, error) {
	req := map[string]any{
		"vector":       vector,
		"limit":        1,
		"with_payload": true,
		"with_vector":  false,
	}
	if filterField != "" {
		req["filter"] = exactFilter(filterField, filterValue)
	}
	status, raw, err := s.do(ctx, http.MethodPost, s.pointsPath("/search"), req)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, fmt.Errorf("%w: search: %s", ErrUnavailable, truncate(raw))
	}

	var resp struct {
		Result []qdrantPoint `json:"result"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode search response: %v", ErrUnavailable, err)
	}
	if len(resp.Result) == 0 {
		return nil, nil
	}
	return &Match{Record: recordFromPoint(resp.Result[0]), Score: resp.Result[0].Score}, nil
}

// Upsert writes a new point with the record's vector and payload. wait=true so
// the point is queryable as soon as the call returns.
func (s *QdrantStore) Upsert(ctx context.Context, rec Record) error {
	req := map[string]any{
		"points": []map[string]any{
			{
				"id":     rec.ID,
				"vector": rec.Vector,
				"payload": map[string]any{
					"name":             rec.Name,
					FieldWalletAddress: rec.WalletAddress,
					FieldPassphrase:    rec.Passphrase,
					"balance":          rec.Balance,
				},
			},
		},
	}
	status, raw, err := s.do(ctx, http.MethodPut, s.pointsPath("?wait=true"), req)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("%w: upsert point %s: %s", ErrWrite, rec.ID, truncate(raw))
	}
	return nil
}

// PatchBalance overwrites the balance payload field of a single point.
func (s *QdrantStore) PatchBalance(ctx context.Context, id string, balance float64) error {
	req := map[string]any{
		"payload": map[string]any{"balance": balance},
		"points":  []string{id},
	}
	status, raw, err := s.do(ctx, http.MethodPost, s.pointsPath("/payload?wait=true"), req)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("%w: patch balance for %s: %s", ErrWrite, id, truncate(raw))
	}
	return nil
}

func (s *QdrantStore) pointsPath(suffix string) string {
	return "/collections/" + s.collection + "/points" + suffix
}

func (s *QdrantStore) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set(apiKeyHeader, s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}
	return resp.StatusCode, raw, nil
}

func recordFromPoint(p qdrantPoint) Record {
	rec := Record{ID: p.ID}
	if v, ok := p.Payload["name"].(string); ok {
		rec.Name = v
	}
	if v, ok := p.Payload[FieldWalletAddress].(string); ok {
		rec.WalletAddress = v
	}
	if v, ok := p.Payload[FieldPassphrase].(string); ok {
		rec.Passphrase = v
	}
	if v, ok := p.Payload["balance"].(float64); ok {
		rec.Balance = v
	}
	return rec
}

func truncate(raw []byte) string {
	const max = 256
	if len(raw) > max {
		raw = raw[:max]
	}
	return string(raw)
}
