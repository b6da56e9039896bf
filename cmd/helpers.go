package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/faceid/internal/camera"
	"github.com/kozaktomas/faceid/internal/config"
	"github.com/kozaktomas/faceid/internal/detect"
	"github.com/kozaktomas/faceid/internal/embed"
	"github.com/kozaktomas/faceid/internal/facedb"
	"github.com/kozaktomas/faceid/internal/inference"
	"github.com/kozaktomas/faceid/internal/recognize"
)

// openStore opens the face database configured in cfg.
func openStore(cfg *config.Config) (*facedb.Store, error) {
	store, err := facedb.Open(cfg.Store.Path, cfg.Embedder.Dim)
	if err != nil {
		return nil, fmt.Errorf("open face database: %w", err)
	}
	return store, nil
}

// openSource builds a frame source from the add-face/recognize flags. Exactly
// one of frameDir and streamURL must be set.
func openSource(ctx context.Context, frameDir, streamURL string) (camera.Source, error) {
	switch {
	case frameDir != "" && streamURL != "":
		return nil, fmt.Errorf("--frames and --stream are mutually exclusive")
	case frameDir != "":
		return camera.NewDirSource(frameDir)
	case streamURL != "":
		return camera.NewMJPEGSource(ctx, streamURL)
	default:
		return nil, fmt.Errorf("a frame source is required: pass --frames <dir> or --stream <url>")
	}
}

// buildProber loads both models and assembles the probe pipeline. The
// returned cleanup releases the model handles.
func buildProber(ctx context.Context, cfg *config.Config, store *facedb.Store) (*recognize.Prober, func(), error) {
	client := inference.NewClient(cfg.Inference.URL)
	session, err := inference.NewSession(ctx, client, cfg.Detector.ModelPath, cfg.Embedder.ModelPath)
	if err != nil {
		return nil, nil, fmt.Errorf("set up models: %w", err)
	}

	prober := &recognize.Prober{
		Detector:  detect.NewDetector(session.Detector, cfg.Detector),
		Extractor: embed.NewExtractor(session.Embedder, cfg.Embedder),
		Matcher:   recognize.NewMatcher(store.Records(), cfg.Match.Threshold),
	}
	return prober, func() { session.Close() }, nil
}
