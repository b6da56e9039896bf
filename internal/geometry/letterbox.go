package geometry

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// ErrEmptyFrame is returned when a frame has a zero dimension, which leaves
// the letterbox scale undefined.
var ErrEmptyFrame = errors.New("frame has zero width or height")

// padValue fills the unused canvas area, one constant per channel.
const padValue = 128

// Letterbox maps between original frame coordinates and a fixed square
// detector input. The frame is scaled preserving aspect ratio and anchored at
// the top-left of the canvas; the remainder stays at the pad value.
type Letterbox struct {
	Target  int     // canvas side length
	Scale   float64 // min(T/h, T/w)
	ScaledW int     // resized frame width on the canvas, truncated toward zero
	ScaledH int     // resized frame height on the canvas, truncated toward zero
	FrameW  int
	FrameH  int
}

// NewLetterbox computes the transform for a frame of the given dimensions.
func NewLetterbox(frameW, frameH, target int) (Letterbox, error) {
	if frameW <= 0 || frameH <= 0 {
		return Letterbox{}, fmt.Errorf("letterbox %dx%d: %w", frameW, frameH, ErrEmptyFrame)
	}

	scale := min(float64(target)/float64(frameH), float64(target)/float64(frameW))

	return Letterbox{
		Target:  target,
		Scale:   scale,
		ScaledW: int(float64(frameW) * scale),
		ScaledH: int(float64(frameH) * scale),
		FrameW:  frameW,
		FrameH:  frameH,
	}, nil
}

// ToFrame maps a canvas-space coordinate back to original frame space.
func (l Letterbox) ToFrame(x, y float64) (float64, float64) {
	return x / l.Scale, y / l.Scale
}

// Apply renders the frame onto a Target x Target canvas: bilinear resize to
// the scaled dimensions, anchored top-left, pad value everywhere else.
func (l Letterbox) Apply(frame image.Image) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, l.Target, l.Target))
	pad := color.RGBA{R: padValue, G: padValue, B: padValue, A: 255}
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(pad), image.Point{}, draw.Src)

	dst := image.Rect(0, 0, l.ScaledW, l.ScaledH)
	xdraw.BiLinear.Scale(canvas, dst, frame, frame.Bounds(), xdraw.Src, nil)

	return canvas
}

// ClampToFrame limits a frame-space coordinate pair to the frame bounds.
func (l Letterbox) ClampToFrame(x, y float64) (float64, float64) {
	return clamp(x, 0, float64(l.FrameW)), clamp(y, 0, float64(l.FrameH))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
