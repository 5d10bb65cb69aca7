// Package faceid turns a submitted image into a single comparable face
// embedding. Face detection and embedding run in an external model service;
// this package owns input validation and the face selection policy.
package faceid

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

var (
	// ErrDecode indicates the submitted bytes are not a decodable image.
	ErrDecode = errors.New("faceid: undecodable image")

	// ErrModel indicates the detector service could not process the image.
	ErrModel = errors.New("faceid: detector failure")
)

// Detection is one face found in an image: its bounding box plus the
// embedding computed for it.
type Detection struct {
	Left      int
	Top       int
	Right     int
	Bottom    int
	Embedding []float32
}

// Area returns the bounding box area, used to rank detections.
func (d Detection) Area() int {
	w := d.Right - d.Left
	h := d.Bottom - d.Top
	if w < 0 || h < 0 {
		return 0
	}
	return w * h
}

// Detector finds faces and their embeddings in an image.
type Detector interface {
	Detect(ctx context.Context, imageBytes []byte) ([]Detection, error)
}

// Extractor yields at most one identity vector per image. When several faces
// are present the largest bounding box wins, ties broken by detection order;
// this policy is applied on every operation.
type Extractor struct {
	detector Detector
}

// NewExtractor builds an extractor over the given detector.
func NewExtractor(detector Detector) *Extractor {
	return &Extractor{detector: detector}
}

// Extract returns the embedding of the selected face, or nil when no face is
// present. Absence of a face is not an error.
func (e *Extractor) Extract(ctx context.Context, imageBytes []byte) ([]float32, error) {
	if _, _, err := image.DecodeConfig(bytes.NewReader(imageBytes)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	detections, err := e.detector.Detect(ctx, imageBytes)
	if err != nil {
		return nil, err
	}
	if len(detections) == 0 {
		return nil, nil
	}

	best := detections[0]
	for _, d := range detections[1:] {
		if d.Area() > best.Area() {
			best = d
		}
	}
	return best.Embedding, nil
}
