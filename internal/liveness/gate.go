// Package liveness decides whether a submitted image is a live capture or a
// spoof (photo or replay). The classifier itself is an external model served
// over HTTP; this package owns preprocessing and the spoof threshold.
package liveness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

var (
	// ErrDecode indicates the submitted bytes are not a decodable image.
	ErrDecode = errors.New("liveness: undecodable image")

	// ErrModel indicates the classifier could not produce a score.
	ErrModel = errors.New("liveness: classifier failure")
)

const (
	// inputSize is the square input dimension the classifier was trained on.
	inputSize = 128

	// SpoofThreshold is the score at or above which an image is treated as a
	// spoof. Scores near 0 mean live.
	SpoofThreshold = 0.5
)

// Classifier scores a preprocessed image tensor. Scores are in [0,1].
type Classifier interface {
	Predict(ctx context.Context, input []float32) (float64, error)
}

// Gate wraps the classifier with image preprocessing. A score at or above
// SpoofThreshold must abort the calling operation; this is a hard gate.
type Gate struct {
	classifier Classifier
}

// NewGate builds a liveness gate over the given classifier.
func NewGate(classifier Classifier) *Gate {
	return &Gate{classifier: classifier}
}

// Assess decodes and normalizes the image, then returns the classifier's
// spoof score.
func (g *Gate) Assess(ctx context.Context, imageBytes []byte) (float64, error) {
	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return g.classifier.Predict(ctx, Preprocess(img))
}

// IsSpoof reports whether a score fails the gate.
func IsSpoof(score float64) bool {
	return score >= SpoofThreshold
}

// Preprocess resizes the image to the model input dimension and flattens it
// into RGB channel values scaled to [0,1].
func Preprocess(img image.Image) []float32 {
	scaled := image.NewRGBA(image.Rect(0, 0, inputSize, inputSize))
	xdraw.BiLinear.Scale(scaled, scaled.Bounds(), img, img.Bounds(), xdraw.Src, nil)

	tensor := make([]float32, 0, inputSize*inputSize*3)
	for y := 0; y < inputSize; y++ {
		for x := 0; x < inputSize; x++ {
			offset := scaled.PixOffset(x, y)
			tensor = append(tensor,
				float32(scaled.Pix[offset])/255,
				float32(scaled.Pix[offset+1])/255,
				float32(scaled.Pix[offset+2])/255,
			)
		}
	}
	return tensor
}
