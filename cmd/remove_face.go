package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/faceid/internal/facedb"
)

var removeFaceCmd = &cobra.Command{
	Use:   "remove-face <name>",
	Short: "Remove an enrolled identity",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemoveFace,
}

func init() {
	rootCmd.AddCommand(removeFaceCmd)
}

func runRemoveFace(cmd *cobra.Command, args []string) error {
	name := facedb.CanonicalName(args[0])

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	if err := store.Remove(name); err != nil {
		return fmt.Errorf("remove face: %w", err)
	}

	fmt.Printf("Removed %q (%d identities remain)\n", name, store.Count())
	return nil
}
