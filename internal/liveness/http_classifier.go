package liveness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPClassifier calls a model server exposing a TF-Serving style predict
// endpoint. The request carries one flattened 128x128x3 tensor; the response
// carries one score per instance.
type HTTPClassifier struct {
	url    string
	client *http.Client
}

// NewHTTPClassifier builds a classifier client. The timeout bounds every
// inference round-trip.
func NewHTTPClassifier(url string, timeout time.Duration) *HTTPClassifier {
	return &HTTPClassifier{url: url, client: &http.Client{Timeout: timeout}}
}

type predictRequest struct {
	Instances [][]float32 `json:"instances"`
}

type predictResponse struct {
	Predictions [][]float64 `json:"predictions"`
}

// Predict submits the tensor for scoring.
func (c *HTTPClassifier) Predict(ctx context.Context, input []float32) (float64, error) {
	payload, err := json.Marshal(predictRequest{Instances: [][]float32{input}})
	if err != nil {
		return 0, fmt.Errorf("%w: encode request: %v", ErrModel, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("%w: build request: %v", ErrModel, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrModel, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: classifier returned status %d", ErrModel, resp.StatusCode)
	}

	var decoded predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return 0, fmt.Errorf("%w: decode response: %v", ErrModel, err)
	}
	if len(decoded.Predictions) == 0 || len(decoded.Predictions[0]) == 0 {
		return 0, fmt.Errorf("%w: empty prediction", ErrModel)
	}
	return decoded.Predictions[0][0], nil
}
