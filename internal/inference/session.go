package inference

import (
	"context"
	"fmt"
)

// Session owns the detector and embedder handles for one enrollment or
// recognition run. Both models are loaded up front so a missing asset fails
// before any frame is read, and Close releases them on every exit path.
type Session struct {
	Detector Model
	Embedder Model
}

// NewSession loads both models. If the second load fails, the first is
// released before returning.
func NewSession(ctx context.Context, client *Client, detectorPath, embedderPath string) (*Session, error) {
	detector, err := client.LoadModel(ctx, detectorPath)
	if err != nil {
		return nil, fmt.Errorf("load detector: %w", err)
	}

	embedder, err := client.LoadModel(ctx, embedderPath)
	if err != nil {
		detector.Close()
		return nil, fmt.Errorf("load embedder: %w", err)
	}

	return &Session{Detector: detector, Embedder: embedder}, nil
}

// Close releases both model handles. Safe to call more than once.
func (s *Session) Close() error {
	var firstErr error
	if s.Detector != nil {
		if err := s.Detector.Close(); err != nil {
			firstErr = err
		}
	}
	if s.Embedder != nil {
		if err := s.Embedder.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
