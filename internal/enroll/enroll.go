// Package enroll drives the capture-and-extract loop that turns frames into
// one stored identity record.
package enroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/faceid/internal/camera"
	"github.com/kozaktomas/faceid/internal/config"
	"github.com/kozaktomas/faceid/internal/detect"
	"github.com/kozaktomas/faceid/internal/embed"
	"github.com/kozaktomas/faceid/internal/facedb"
	"github.com/kozaktomas/faceid/internal/inference"
)

// ErrNoFrames is returned when the frame source delivers nothing at all, so
// capture never really started.
var ErrNoFrames = errors.New("frame source produced no frames")

// ErrAborted marks a session that ended before reaching its sample target.
// The face database is never modified by an aborted session.
var ErrAborted = errors.New("enrollment aborted")

// AbortedError carries how far an aborted session got.
type AbortedError struct {
	Collected int
	Target    int
}

func (e *AbortedError) Error() string {
	return fmt.Sprintf("enrollment aborted with %d of %d samples", e.Collected, e.Target)
}

func (e *AbortedError) Unwrap() error {
	return ErrAborted
}

// Enroller orchestrates one enrollment: duplicate check, scoped model and
// frame-source acquisition, the per-frame pipeline, aggregation, and the
// final append.
type Enroller struct {
	Store  *facedb.Store
	Config *config.Config

	// OpenModels loads detector and embedder for the session. Called only
	// after the duplicate-name check passes.
	OpenModels func(ctx context.Context) (*inference.Session, error)

	// OpenSource acquires the frame source for the session.
	OpenSource func(ctx context.Context) (camera.Source, error)

	// OnSample, if set, is invoked after each accepted sample.
	OnSample func(collected, target int)
}

// Enroll captures sampleCount embeddings of the named person and appends the
// averaged record to the store. Cancellation via ctx aborts the session
// cleanly between frames; model and source handles are released on every
// path out.
func (e *Enroller) Enroll(ctx context.Context, name string, sampleCount int) (facedb.Record, error) {
	name = facedb.CanonicalName(name)
	if name == "" {
		return facedb.Record{}, errors.New("name must not be empty")
	}
	if sampleCount < 1 {
		return facedb.Record{}, fmt.Errorf("sample count must be positive, got %d", sampleCount)
	}

	// Precondition before anything is acquired.
	if e.Store.Contains(name) {
		return facedb.Record{}, fmt.Errorf("%q: %w", name, facedb.ErrDuplicateName)
	}

	models, err := e.OpenModels(ctx)
	if err != nil {
		return facedb.Record{}, fmt.Errorf("set up models: %w", err)
	}
	defer models.Close()

	source, err := e.OpenSource(ctx)
	if err != nil {
		return facedb.Record{}, fmt.Errorf("open frame source: %w", err)
	}
	defer source.Close()

	detector := detect.NewDetector(models.Detector, e.Config.Detector)
	extractor := embed.NewExtractor(models.Embedder, e.Config.Embedder)

	sess := newSession(name, sampleCount)
	delay := time.Duration(e.Config.Capture.DelayMs) * time.Millisecond

	if err := e.capture(ctx, sess, source, detector, extractor, delay); err != nil {
		return facedb.Record{}, err
	}

	if sess.state != StateComplete {
		return facedb.Record{}, &AbortedError{Collected: len(sess.collected), Target: sampleCount}
	}

	embedding := sess.mean()
	if e.Config.Capture.RenormalizeMean {
		embedding, err = embed.Normalize(embedding)
		if err != nil {
			return facedb.Record{}, fmt.Errorf("renormalize mean embedding: %w", err)
		}
	}

	record := facedb.Record{
		UID:       uuid.NewString(),
		Name:      name,
		Embedding: embedding,
		CreatedAt: time.Now().UTC(),
	}

	if err := e.Store.Append(record); err != nil {
		return facedb.Record{}, fmt.Errorf("store record: %w", err)
	}

	return record, nil
}

// capture polls frames until the session completes or aborts. Per-frame
// misses (no qualifying box, degenerate embedding) are skipped; anything
// else propagates.
func (e *Enroller) capture(
	ctx context.Context,
	sess *session,
	source camera.Source,
	detector *detect.Detector,
	extractor *embed.Extractor,
	delay time.Duration,
) error {
	framesSeen := 0

	for sess.state == StateCapturing {
		// Cancellation is polled once per iteration; in-flight model calls
		// are never interrupted mid-call.
		if ctx.Err() != nil {
			sess.abort()
			return nil
		}

		frame, err := source.Next(ctx)
		if errors.Is(err, camera.ErrExhausted) {
			if framesSeen == 0 {
				return fmt.Errorf("%s: %w", sess.name, ErrNoFrames)
			}
			sess.abort()
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			sess.abort()
			return nil
		}
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}
		framesSeen++

		box, found, err := detector.Detect(ctx, frame)
		if err != nil {
			return fmt.Errorf("detect: %w", err)
		}
		if !found {
			continue // no qualifying box in this frame, keep polling
		}

		embedding, err := extractor.Extract(ctx, frame, box)
		if errors.Is(err, embed.ErrDegenerate) {
			continue // unusable sample, keep polling
		}
		if err != nil {
			return fmt.Errorf("extract embedding: %w", err)
		}

		sess.add(embedding)
		if e.OnSample != nil {
			e.OnSample(len(sess.collected), sess.target)
		}

		// Brief pause between accepted samples so back-to-back frames do not
		// dominate the average.
		if sess.state == StateCapturing && delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				sess.abort()
				return nil
			}
		}
	}

	return nil
}
