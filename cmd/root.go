package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/faceid/internal/config"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "faceid",
	Short: "A CLI tool for enrolling and recognizing facial identities",
	Long: `faceid enrolls a person's facial identity from camera frames into a
local identity store and recognizes enrolled identities in later frames.

Detection and embedding models run in an external ONNX inference daemon;
faceid handles the pipeline: letterbox geometry, box selection, embedding
normalization, multi-sample aggregation, and the persisted face database.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a YAML config file (env vars take precedence)")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// loadConfig builds the runtime configuration, honoring --config when set.
func loadConfig() (*config.Config, error) {
	if configFile != "" {
		cfg, err := config.LoadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		return cfg, nil
	}
	return config.Load(), nil
}
