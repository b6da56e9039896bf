// Package camera abstracts frame acquisition. Device handling stays outside
// this repository; sources here read frames that something else captured
// (a directory of stills, an MJPEG camera daemon).
package camera

import (
	"context"
	"errors"
	"image"
)

// ErrExhausted is returned by Next when the source has no more frames.
var ErrExhausted = errors.New("frame source exhausted")

// ErrUnavailable is returned when a source cannot be opened at all.
var ErrUnavailable = errors.New("frame source unavailable")

// Source supplies frames on demand. Next blocks until a frame is available,
// the context is cancelled, or the source is exhausted.
type Source interface {
	Next(ctx context.Context) (image.Image, error)
	Close() error
}
