package cmd

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/spf13/cobra"
	_ "golang.org/x/image/bmp"

	"github.com/kozaktomas/faceid/internal/recognize"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize <image>",
	Short: "Identify the largest face in an image against the enrolled store",
	Long: `Run the detection and embedding pipeline on an image file and report the
closest enrolled identity with its cosine distance.

Examples:
  faceid recognize snapshot.jpg
  faceid recognize snapshot.jpg --top 3`,
	Args: cobra.ExactArgs(1),
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)

	recognizeCmd.Flags().Int("top", 1, "Number of candidates to show")
}

func runRecognize(cmd *cobra.Command, args []string) error {
	top, _ := cmd.Flags().GetInt("top")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	if store.Count() == 0 {
		return fmt.Errorf("no identities enrolled in %s", store.Path())
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	frame, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	ctx := context.Background()
	prober, cleanup, err := buildProber(ctx, cfg, store)
	if err != nil {
		return err
	}
	defer cleanup()

	ident, err := prober.Identify(ctx, frame)
	if errors.Is(err, recognize.ErrNoFace) {
		fmt.Println("No face detected.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("recognize: %w", err)
	}

	fmt.Printf("Face at (%d,%d)-(%d,%d), score %.2f\n",
		ident.Box.X1, ident.Box.Y1, ident.Box.X2, ident.Box.Y2, ident.Box.Score)

	if ident.Known {
		fmt.Printf("Match: %s (distance %.4f)\n", ident.Best.Record.Name, ident.Best.Distance)
	} else {
		fmt.Printf("No match within threshold %.2f (closest: %s at %.4f)\n",
			cfg.Match.Threshold, ident.Best.Record.Name, ident.Best.Distance)
	}

	if top > 1 {
		matches := prober.Matcher.Rank(ident.Embedding, top)
		fmt.Println("Candidates:")
		for _, m := range matches {
			fmt.Printf("  %-24s %.4f\n", m.Record.Name, m.Distance)
		}
	}
	return nil
}
