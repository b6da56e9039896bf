package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/faceid/internal/web"
	"github.com/kozaktomas/faceid/internal/web/handlers"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API for the face store and recognition",
	Long: `Start an HTTP server exposing the enrolled identities and a recognition
endpoint that accepts image uploads.

Endpoints:
  GET  /api/v1/health
  GET  /api/v1/faces
  GET  /api/v1/faces/{name}
  POST /api/v1/recognize   (multipart "file" field)`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8090, "Port to listen on")
	serveCmd.Flags().String("host", "127.0.0.1", "Host to bind to")
}

func runServe(cmd *cobra.Command, args []string) error {
	port, _ := cmd.Flags().GetInt("port")
	host, _ := cmd.Flags().GetString("host")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	// Recognition is optional: without model paths the server still lists
	// enrolled identities.
	var recognizer handlers.Recognizer
	if cfg.Detector.ModelPath != "" && cfg.Embedder.ModelPath != "" {
		prober, cleanup, err := buildProber(context.Background(), cfg, store)
		if err != nil {
			return err
		}
		defer cleanup()
		recognizer = prober
	} else {
		fmt.Println("Model paths not configured; /recognize is disabled")
	}

	server := web.NewServer(store, recognizer, host, port)
	return server.Start()
}
