package faceid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPDetector calls a face detection/embedding service with the raw image
// and maps its response onto detections.
type HTTPDetector struct {
	url    string
	client *http.Client
}

// NewHTTPDetector builds a detector client. The timeout bounds every
// inference round-trip.
func NewHTTPDetector(url string, timeout time.Duration) *HTTPDetector {
	return &HTTPDetector{url: url, client: &http.Client{Timeout: timeout}}
}

type detectResponse struct {
	Faces []struct {
		Box struct {
			Left   int `json:"left"`
			Top    int `json:"top"`
			Right  int `json:"right"`
			Bottom int `json:"bottom"`
		} `json:"box"`
		Embedding []float32 `json:"embedding"`
	} `json:"faces"`
}

// Detect posts the image and returns every face the service found.
func (d *HTTPDetector) Detect(ctx context.Context, imageBytes []byte) ([]Detection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(imageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrModel, err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModel, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: detector returned status %d", ErrModel, resp.StatusCode)
	}

	var decoded detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrModel, err)
	}

	detections := make([]Detection, 0, len(decoded.Faces))
	for _, f := range decoded.Faces {
		detections = append(detections, Detection{
			Left:      f.Box.Left,
			Top:       f.Box.Top,
			Right:     f.Box.Right,
			Bottom:    f.Box.Bottom,
			Embedding: f.Embedding,
		})
	}
	return detections, nil
}
