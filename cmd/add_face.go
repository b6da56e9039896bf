package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/faceid/internal/camera"
	"github.com/kozaktomas/faceid/internal/enroll"
	"github.com/kozaktomas/faceid/internal/facedb"
	"github.com/kozaktomas/faceid/internal/inference"
)

var addFaceCmd = &cobra.Command{
	Use:   "add-face <name>",
	Short: "Enroll a new facial identity from camera frames",
	Long: `Enroll a person into the face database by capturing multiple embedding
samples and storing their average as the identity record.

Frames come from an MJPEG camera stream or a directory of still images.
Frames without a qualifying detection are skipped; capture continues until
the requested number of samples has been collected or the source runs out.

Examples:
  # Enroll from a camera daemon, 5 samples
  faceid add-face "Alice" --stream http://localhost:8080/stream

  # Enroll from a directory of stills
  faceid add-face "Alice" --frames ./captures --samples 3`,
	Args: cobra.ExactArgs(1),
	RunE: runAddFace,
}

func init() {
	rootCmd.AddCommand(addFaceCmd)

	addFaceCmd.Flags().Int("samples", 5, "Number of embedding samples to collect")
	addFaceCmd.Flags().String("frames", "", "Directory of frame images to read")
	addFaceCmd.Flags().String("stream", "", "MJPEG stream URL to read")
}

func runAddFace(cmd *cobra.Command, args []string) error {
	name := args[0]
	samples, _ := cmd.Flags().GetInt("samples")
	frameDir, _ := cmd.Flags().GetString("frames")
	streamURL, _ := cmd.Flags().GetString("stream")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	// Ctrl-C aborts the session without touching the database.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bar := progressbar.NewOptions(samples,
		progressbar.OptionSetDescription("Capturing samples"),
		progressbar.OptionShowCount(),
	)

	client := inference.NewClient(cfg.Inference.URL)
	enroller := &enroll.Enroller{
		Store:  store,
		Config: cfg,
		OpenModels: func(ctx context.Context) (*inference.Session, error) {
			return inference.NewSession(ctx, client, cfg.Detector.ModelPath, cfg.Embedder.ModelPath)
		},
		OpenSource: func(ctx context.Context) (camera.Source, error) {
			return openSource(ctx, frameDir, streamURL)
		},
		OnSample: func(collected, target int) {
			_ = bar.Set(collected)
		},
	}

	if similar := store.Similar(facedb.CanonicalName(name)); len(similar) > 0 {
		fmt.Printf("Note: similar name(s) already enrolled: %v\n", similar)
	}

	record, err := enroller.Enroll(ctx, name, samples)
	if err != nil {
		fmt.Println()
		var aborted *enroll.AbortedError
		if errors.As(err, &aborted) {
			fmt.Printf("Enrollment aborted: collected %d of %d samples. Database unchanged.\n",
				aborted.Collected, aborted.Target)
			return nil
		}
		return fmt.Errorf("enrollment failed: %w", err)
	}

	fmt.Println()
	fmt.Printf("Enrolled %q (%d samples, dim %d)\n", record.Name, samples, len(record.Embedding))
	fmt.Printf("Database: %s (%d identities)\n", store.Path(), store.Count())
	return nil
}
