// Package embed produces unit-norm identity embeddings from face crops.
package embed

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/kozaktomas/faceid/internal/config"
	"github.com/kozaktomas/faceid/internal/detect"
	"github.com/kozaktomas/faceid/internal/inference"
)

// ErrDegenerate is returned when the raw embedding is numerically
// pathological (near-zero norm). The sample is unusable but the caller can
// continue with the next frame.
var ErrDegenerate = errors.New("degenerate embedding")

// normEpsilon is the smallest raw norm still considered meaningful.
const normEpsilon = 1e-10

// Extractor crops a detected face and runs the embedding model on it.
type Extractor struct {
	model     inference.Model
	inputSize int
	dim       int
}

// NewExtractor wraps a loaded embedding model.
func NewExtractor(model inference.Model, cfg config.EmbedderConfig) *Extractor {
	return &Extractor{
		model:     model,
		inputSize: cfg.InputSize,
		dim:       cfg.Dim,
	}
}

// Dim returns the configured embedding dimension.
func (e *Extractor) Dim() int {
	return e.dim
}

// Extract crops the frame to the box, resizes the crop to the model input
// size, and returns the L2-normalized embedding.
func (e *Extractor) Extract(ctx context.Context, frame image.Image, box detect.Box) ([]float32, error) {
	if !box.Valid() {
		return nil, fmt.Errorf("box has no area: %+v", box)
	}

	crop := cropResize(frame, box, e.inputSize)
	input := cropTensor(crop)

	output, err := e.model.Run(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("run embedder: %w", err)
	}

	raw, err := firstBatch(output)
	if err != nil {
		return nil, err
	}
	if len(raw) != e.dim {
		return nil, fmt.Errorf("embedder returned %d values, expected %d", len(raw), e.dim)
	}

	return Normalize(raw)
}

// Normalize scales a vector to unit Euclidean norm in place and returns it.
// A near-zero input cannot be normalized meaningfully and yields
// ErrDegenerate.
func Normalize(v []float32) ([]float32, error) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}

	norm := math.Sqrt(sum)
	if norm < normEpsilon {
		return nil, fmt.Errorf("norm %g: %w", norm, ErrDegenerate)
	}

	for i, x := range v {
		v[i] = float32(float64(x) / norm)
	}
	return v, nil
}

// cropResize extracts the box region from the frame and scales it to a
// square of side size.
func cropResize(frame image.Image, box detect.Box, size int) *image.RGBA {
	region := image.Rect(box.X1, box.Y1, box.X2, box.Y2).Add(frame.Bounds().Min)

	crop := image.NewRGBA(image.Rect(0, 0, region.Dx(), region.Dy()))
	draw.Draw(crop, crop.Bounds(), frame, region.Min, draw.Src)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), crop, crop.Bounds(), xdraw.Src, nil)
	return dst
}

// cropTensor converts the crop into a [1, 3, S, S] tensor with pixels
// normalized as (p - 127.5) / 128.
func cropTensor(crop *image.RGBA) *inference.Tensor {
	b := crop.Bounds()
	w, h := b.Dx(), b.Dy()

	data := make([]float32, 3*h*w)
	plane := h * w
	for y := 0; y < h; y++ {
		row := crop.Pix[y*crop.Stride:]
		for x := 0; x < w; x++ {
			px := row[x*4:]
			idx := y*w + x
			data[idx] = (float32(px[0]) - 127.5) / 128.0
			data[plane+idx] = (float32(px[1]) - 127.5) / 128.0
			data[2*plane+idx] = (float32(px[2]) - 127.5) / 128.0
		}
	}

	return &inference.Tensor{
		Data:  data,
		Shape: []int64{1, 3, int64(h), int64(w)},
	}
}

// firstBatch returns the first batch entry of the first output tensor.
func firstBatch(t *inference.Tensor) ([]float32, error) {
	if len(t.Shape) < 2 || t.Shape[0] < 1 {
		return nil, fmt.Errorf("unexpected embedder output shape %v", t.Shape)
	}

	size := int64(1)
	for _, d := range t.Shape[1:] {
		size *= d
	}
	if int64(len(t.Data)) < size {
		return nil, fmt.Errorf("embedder output truncated: %d values for shape %v", len(t.Data), t.Shape)
	}

	return t.Data[:size], nil
}
