package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Store.Path != "faces.json" {
		t.Errorf("Store.Path = %q, want faces.json", cfg.Store.Path)
	}
	if cfg.Detector.InputSize != 640 {
		t.Errorf("Detector.InputSize = %d, want 640", cfg.Detector.InputSize)
	}
	if cfg.Detector.Threshold != 0.6 {
		t.Errorf("Detector.Threshold = %v, want 0.6", cfg.Detector.Threshold)
	}
	if cfg.Detector.ClassID != 0 {
		t.Errorf("Detector.ClassID = %d, want 0", cfg.Detector.ClassID)
	}
	if cfg.Embedder.InputSize != 112 || cfg.Embedder.Dim != 128 {
		t.Errorf("Embedder = %+v, want input 112 dim 128", cfg.Embedder)
	}
	if cfg.Capture.DelayMs != 250 {
		t.Errorf("Capture.DelayMs = %d, want 250", cfg.Capture.DelayMs)
	}
	if cfg.Capture.RenormalizeMean {
		t.Error("Capture.RenormalizeMean = true, want false by default")
	}
	if cfg.Match.Threshold != 0.36 {
		t.Errorf("Match.Threshold = %v, want 0.36", cfg.Match.Threshold)
	}
	if cfg.Inference.URL != "http://localhost:8001" {
		t.Errorf("Inference.URL = %q, want http://localhost:8001", cfg.Inference.URL)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FACEID_DB_PATH", "/data/faces.json")
	t.Setenv("FACEID_DETECTOR_SIZE", "320")
	t.Setenv("FACEID_CONF_THRESHOLD", "0.5")
	t.Setenv("FACEID_TARGET_CLASS", "0")
	t.Setenv("FACEID_EMBED_DIM", "512")
	t.Setenv("FACEID_CAPTURE_DELAY_MS", "100")
	t.Setenv("FACEID_RENORMALIZE_MEAN", "true")

	cfg := Load()

	if cfg.Store.Path != "/data/faces.json" {
		t.Errorf("Store.Path = %q, want /data/faces.json", cfg.Store.Path)
	}
	if cfg.Detector.InputSize != 320 {
		t.Errorf("Detector.InputSize = %d, want 320", cfg.Detector.InputSize)
	}
	if cfg.Detector.Threshold != 0.5 {
		t.Errorf("Detector.Threshold = %v, want 0.5", cfg.Detector.Threshold)
	}
	if cfg.Embedder.Dim != 512 {
		t.Errorf("Embedder.Dim = %d, want 512", cfg.Embedder.Dim)
	}
	if cfg.Capture.DelayMs != 100 {
		t.Errorf("Capture.DelayMs = %d, want 100", cfg.Capture.DelayMs)
	}
	if !cfg.Capture.RenormalizeMean {
		t.Error("Capture.RenormalizeMean = false, want true")
	}
}

func TestLoadInvalidEnvFallsBack(t *testing.T) {
	t.Setenv("FACEID_DETECTOR_SIZE", "not-a-number")
	t.Setenv("FACEID_CONF_THRESHOLD", "1.5")
	t.Setenv("FACEID_CAPTURE_DELAY_MS", "-10")

	cfg := Load()

	if cfg.Detector.InputSize != 640 {
		t.Errorf("Detector.InputSize = %d, want default 640", cfg.Detector.InputSize)
	}
	if cfg.Detector.Threshold != 0.6 {
		t.Errorf("Detector.Threshold = %v, want default 0.6", cfg.Detector.Threshold)
	}
	if cfg.Capture.DelayMs != 250 {
		t.Errorf("Capture.DelayMs = %d, want default 250", cfg.Capture.DelayMs)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faceid.yaml")
	content := `
store:
  path: /var/lib/faceid/faces.json
detector:
  input_size: 416
  threshold: 0.7
capture:
  delay_ms: 500
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Store.Path != "/var/lib/faceid/faces.json" {
		t.Errorf("Store.Path = %q", cfg.Store.Path)
	}
	if cfg.Detector.InputSize != 416 {
		t.Errorf("Detector.InputSize = %d, want 416", cfg.Detector.InputSize)
	}
	if cfg.Capture.DelayMs != 500 {
		t.Errorf("Capture.DelayMs = %d, want 500", cfg.Capture.DelayMs)
	}

	// Values the file does not mention keep their defaults.
	if cfg.Embedder.Dim != 128 {
		t.Errorf("Embedder.Dim = %d, want default 128", cfg.Embedder.Dim)
	}
}

func TestLoadFileEnvWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faceid.yaml")
	content := `
detector:
  input_size: 416
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("FACEID_DETECTOR_SIZE", "320")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Detector.InputSize != 320 {
		t.Errorf("Detector.InputSize = %d, want env value 320 over file value 416", cfg.Detector.InputSize)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadFile on a missing file succeeded")
	}
}
