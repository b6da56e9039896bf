// Package detect turns raw detector output into at most one bounding box in
// original frame coordinates.
package detect

import (
	"context"
	"fmt"
	"image"

	"github.com/kozaktomas/faceid/internal/config"
	"github.com/kozaktomas/faceid/internal/geometry"
	"github.com/kozaktomas/faceid/internal/inference"
)

// Box is a detection in original frame pixel coordinates, already clamped to
// the frame bounds.
type Box struct {
	X1, Y1, X2, Y2 int
	Score          float64
	ClassID        int
}

// Area returns the box area in pixels.
func (b Box) Area() int {
	return (b.X2 - b.X1) * (b.Y2 - b.Y1)
}

// Valid reports whether the box still has positive extent after clamping.
func (b Box) Valid() bool {
	return b.X2 > b.X1 && b.Y2 > b.Y1
}

// Detector runs the detection model on letterboxed frames and selects the
// largest qualifying box.
type Detector struct {
	model     inference.Model
	inputSize int
	threshold float64
	classID   int
}

// NewDetector wraps a loaded detection model with the selection policy.
func NewDetector(model inference.Model, cfg config.DetectorConfig) *Detector {
	return &Detector{
		model:     model,
		inputSize: cfg.InputSize,
		threshold: cfg.Threshold,
		classID:   cfg.ClassID,
	}
}

// Detect runs the model on one frame. The second return value is false when
// no location qualifies; that is a normal outcome, not an error, and the
// caller is expected to try again on the next frame.
func (d *Detector) Detect(ctx context.Context, frame image.Image) (Box, bool, error) {
	bounds := frame.Bounds()
	lb, err := geometry.NewLetterbox(bounds.Dx(), bounds.Dy(), d.inputSize)
	if err != nil {
		return Box{}, false, fmt.Errorf("letterbox frame: %w", err)
	}

	canvas := lb.Apply(frame)
	input := CanvasTensor(canvas)

	output, err := d.model.Run(ctx, input)
	if err != nil {
		return Box{}, false, fmt.Errorf("run detector: %w", err)
	}

	return SelectLargest(output, lb, d.threshold, d.classID)
}

// CanvasTensor converts an RGBA canvas into a [1, 3, H, W] float tensor
// scaled to [0, 1].
func CanvasTensor(canvas *image.RGBA) *inference.Tensor {
	b := canvas.Bounds()
	w, h := b.Dx(), b.Dy()

	data := make([]float32, 3*h*w)
	plane := h * w
	for y := 0; y < h; y++ {
		row := canvas.Pix[y*canvas.Stride:]
		for x := 0; x < w; x++ {
			px := row[x*4:]
			idx := y*w + x
			data[idx] = float32(px[0]) / 255.0
			data[plane+idx] = float32(px[1]) / 255.0
			data[2*plane+idx] = float32(px[2]) / 255.0
		}
	}

	return &inference.Tensor{
		Data:  data,
		Shape: []int64{1, 3, int64(h), int64(w)},
	}
}

// SelectLargest decodes detector output shaped [1, 4+numClasses,
// numLocations] and returns the largest qualifying box in frame coordinates.
//
// For each location the class is the score argmax; the location qualifies
// only if that class equals the target class and its score exceeds the
// threshold. Center/size values are converted to corners on the canvas,
// mapped back through the letterbox inverse, and clamped to the frame.
// Overlapping boxes are not merged; ties on area keep the first one seen.
func SelectLargest(output *inference.Tensor, lb geometry.Letterbox, threshold float64, targetClass int) (Box, bool, error) {
	if len(output.Shape) != 3 || output.Shape[0] != 1 {
		return Box{}, false, fmt.Errorf("unexpected detector output shape %v", output.Shape)
	}
	channels := output.Shape[1]
	locations := output.Shape[2]
	if channels < 5 {
		return Box{}, false, fmt.Errorf("detector output has %d channels, need at least 5", channels)
	}

	var best Box
	found := false

	for loc := int64(0); loc < locations; loc++ {
		classID := 0
		confidence := output.At3(0, 4, loc)
		for c := int64(5); c < channels; c++ {
			if s := output.At3(0, c, loc); s > confidence {
				confidence = s
				classID = int(c - 4)
			}
		}

		if classID != targetClass || float64(confidence) <= threshold {
			continue
		}

		cx := float64(output.At3(0, 0, loc))
		cy := float64(output.At3(0, 1, loc))
		w := float64(output.At3(0, 2, loc))
		h := float64(output.At3(0, 3, loc))

		x1, y1 := lb.ToFrame(cx-w/2, cy-h/2)
		x2, y2 := lb.ToFrame(cx+w/2, cy+h/2)

		x1, y1 = lb.ClampToFrame(x1, y1)
		x2, y2 = lb.ClampToFrame(x2, y2)

		box := Box{
			X1:      int(x1),
			Y1:      int(y1),
			X2:      int(x2),
			Y2:      int(y2),
			Score:   float64(confidence),
			ClassID: classID,
		}
		if !box.Valid() {
			continue
		}

		if !found || box.Area() > best.Area() {
			best = box
			found = true
		}
	}

	return best, found, nil
}
