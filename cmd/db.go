package cmd

import (
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "PostgreSQL mirror operations",
	Long: `Commands for mirroring the face store into PostgreSQL with pgvector.
The JSON document remains the source of truth; the mirror enables SQL-side
similarity queries. Requires DATABASE_URL.`,
}

func init() {
	rootCmd.AddCommand(dbCmd)
}
