package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration. It is constructed once at startup
// and passed into every component; nothing reads the environment after Load.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Detector  DetectorConfig  `yaml:"detector"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Capture   CaptureConfig   `yaml:"capture"`
	Match     MatchConfig     `yaml:"match"`
	Inference InferenceConfig `yaml:"inference"`
	Database  DatabaseConfig  `yaml:"database"`
}

type StoreConfig struct {
	Path string `yaml:"path"` // JSON face database document
}

type DetectorConfig struct {
	ModelPath string  `yaml:"model_path"`
	InputSize int     `yaml:"input_size"` // square letterbox target, defaults to 640
	Threshold float64 `yaml:"threshold"`  // minimum class confidence, defaults to 0.6
	ClassID   int     `yaml:"class_id"`   // target class index, defaults to 0 ("person")
}

type EmbedderConfig struct {
	ModelPath string `yaml:"model_path"`
	InputSize int    `yaml:"input_size"` // square crop size fed to the embedder, defaults to 112
	Dim       int    `yaml:"dim"`        // embedding dimension, defaults to 128
}

type CaptureConfig struct {
	DelayMs int `yaml:"delay_ms"` // pause after each accepted sample, defaults to 250

	// RenormalizeMean controls whether the averaged enrollment embedding is
	// scaled back to unit norm before it is stored. The historical behavior
	// stores the raw mean, whose norm shrinks as samples disagree.
	RenormalizeMean bool `yaml:"renormalize_mean"`
}

type MatchConfig struct {
	Threshold float64 `yaml:"threshold"` // maximum cosine distance for a match, defaults to 0.36
}

type InferenceConfig struct {
	URL string `yaml:"url"` // ONNX inference daemon, defaults to http://localhost:8001
}

type DatabaseConfig struct {
	URL          string `yaml:"url"`            // optional PostgreSQL mirror (pgvector)
	MaxOpenConns int    `yaml:"max_open_conns"` // defaults to 25
	MaxIdleConns int    `yaml:"max_idle_conns"` // defaults to 5
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envIntAllowZero is envInt without the positivity requirement, for values
// where zero is meaningful (class indices).
func envIntAllowZero(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a float in (0, 1].
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 && f <= 1 {
		return f
	}
	return defaultVal
}

// envBool reads an environment variable and parses it as a boolean.
func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultVal
}

func envStr(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// Load builds the configuration from environment variables, applying defaults
// for everything that is unset.
func Load() *Config {
	return &Config{
		Store: StoreConfig{
			Path: envStr("FACEID_DB_PATH", "faces.json"),
		},
		Detector: DetectorConfig{
			ModelPath: os.Getenv("FACEID_DETECTOR_MODEL"),
			InputSize: envInt("FACEID_DETECTOR_SIZE", 640),
			Threshold: envFloat("FACEID_CONF_THRESHOLD", 0.6),
			ClassID:   envIntAllowZero("FACEID_TARGET_CLASS", 0),
		},
		Embedder: EmbedderConfig{
			ModelPath: os.Getenv("FACEID_EMBEDDER_MODEL"),
			InputSize: envInt("FACEID_EMBED_INPUT", 112),
			Dim:       envInt("FACEID_EMBED_DIM", 128),
		},
		Capture: CaptureConfig{
			DelayMs:         envInt("FACEID_CAPTURE_DELAY_MS", 250),
			RenormalizeMean: envBool("FACEID_RENORMALIZE_MEAN", false),
		},
		Match: MatchConfig{
			Threshold: envFloat("FACEID_MATCH_THRESHOLD", 0.36),
		},
		Inference: InferenceConfig{
			URL: envStr("FACEID_INFERENCE_URL", "http://localhost:8001"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
	}
}

// LoadFile loads configuration from a YAML file with environment variables
// taking precedence over file values, which take precedence over built-in
// defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Load()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	// Re-apply env values so they win over the file.
	overrideFromEnv(cfg)
	return cfg, nil
}

// overrideFromEnv re-applies every environment variable that is actually set,
// so file values only fill the gaps.
func overrideFromEnv(cfg *Config) {
	set := func(key string, apply func(string)) {
		if s := os.Getenv(key); s != "" {
			apply(s)
		}
	}

	set("FACEID_DB_PATH", func(string) { cfg.Store.Path = envStr("FACEID_DB_PATH", cfg.Store.Path) })
	set("FACEID_DETECTOR_MODEL", func(s string) { cfg.Detector.ModelPath = s })
	set("FACEID_DETECTOR_SIZE", func(string) { cfg.Detector.InputSize = envInt("FACEID_DETECTOR_SIZE", cfg.Detector.InputSize) })
	set("FACEID_CONF_THRESHOLD", func(string) { cfg.Detector.Threshold = envFloat("FACEID_CONF_THRESHOLD", cfg.Detector.Threshold) })
	set("FACEID_TARGET_CLASS", func(string) { cfg.Detector.ClassID = envIntAllowZero("FACEID_TARGET_CLASS", cfg.Detector.ClassID) })
	set("FACEID_EMBEDDER_MODEL", func(s string) { cfg.Embedder.ModelPath = s })
	set("FACEID_EMBED_INPUT", func(string) { cfg.Embedder.InputSize = envInt("FACEID_EMBED_INPUT", cfg.Embedder.InputSize) })
	set("FACEID_EMBED_DIM", func(string) { cfg.Embedder.Dim = envInt("FACEID_EMBED_DIM", cfg.Embedder.Dim) })
	set("FACEID_CAPTURE_DELAY_MS", func(string) { cfg.Capture.DelayMs = envInt("FACEID_CAPTURE_DELAY_MS", cfg.Capture.DelayMs) })
	set("FACEID_RENORMALIZE_MEAN", func(string) { cfg.Capture.RenormalizeMean = envBool("FACEID_RENORMALIZE_MEAN", cfg.Capture.RenormalizeMean) })
	set("FACEID_MATCH_THRESHOLD", func(string) { cfg.Match.Threshold = envFloat("FACEID_MATCH_THRESHOLD", cfg.Match.Threshold) })
	set("FACEID_INFERENCE_URL", func(s string) { cfg.Inference.URL = s })
	set("DATABASE_URL", func(s string) { cfg.Database.URL = s })
	set("DATABASE_MAX_OPEN_CONNS", func(string) { cfg.Database.MaxOpenConns = envInt("DATABASE_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns) })
	set("DATABASE_MAX_IDLE_CONNS", func(string) { cfg.Database.MaxIdleConns = envInt("DATABASE_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns) })
}
