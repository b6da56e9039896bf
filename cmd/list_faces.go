package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listFacesCmd = &cobra.Command{
	Use:   "list-faces",
	Short: "List all enrolled identities",
	RunE:  runListFaces,
}

func init() {
	rootCmd.AddCommand(listFacesCmd)
}

func runListFaces(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	records := store.Records()
	if len(records) == 0 {
		fmt.Printf("No identities enrolled in %s\n", store.Path())
		return nil
	}

	fmt.Printf("%d identities in %s:\n", len(records), store.Path())
	for _, r := range records {
		fmt.Printf("  %-24s dim=%d enrolled=%s\n", r.Name, len(r.Embedding), r.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
