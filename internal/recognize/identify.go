package recognize

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/kozaktomas/faceid/internal/detect"
	"github.com/kozaktomas/faceid/internal/embed"
)

// ErrNoFace is returned by Identify when the frame contains no qualifying
// detection.
var ErrNoFace = errors.New("no face detected")

// Identification is the outcome of probing one frame against the gallery.
type Identification struct {
	Box       detect.Box
	Embedding []float32 // probe embedding, unit-norm
	Best      Match
	Known     bool // true when Best is within the match threshold
}

// Prober bundles the per-frame probe pipeline behind one handle.
type Prober struct {
	Detector  *detect.Detector
	Extractor *embed.Extractor
	Matcher   *Matcher
}

// Identify probes one frame against the gallery.
func (p *Prober) Identify(ctx context.Context, frame image.Image) (Identification, error) {
	return Identify(ctx, frame, p.Detector, p.Extractor, p.Matcher)
}

// Identify runs the full probe pipeline on one frame: detect the largest
// face, extract its embedding, and rank it against the enrolled gallery.
func Identify(
	ctx context.Context,
	frame image.Image,
	detector *detect.Detector,
	extractor *embed.Extractor,
	matcher *Matcher,
) (Identification, error) {
	box, found, err := detector.Detect(ctx, frame)
	if err != nil {
		return Identification{}, fmt.Errorf("detect: %w", err)
	}
	if !found {
		return Identification{}, ErrNoFace
	}

	embedding, err := extractor.Extract(ctx, frame, box)
	if err != nil {
		return Identification{}, fmt.Errorf("extract embedding: %w", err)
	}

	best, known := matcher.Best(embedding)
	return Identification{Box: box, Embedding: embedding, Best: best, Known: known}, nil
}
