package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/faceid/internal/mirror"
)

var dbSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push the face store into the PostgreSQL mirror",
	RunE:  runDbSync,
}

func init() {
	dbCmd.AddCommand(dbSyncCmd)
}

func runDbSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required for the mirror")
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	fmt.Println("Connecting to PostgreSQL...")
	m, err := mirror.Connect(cfg.Database, cfg.Embedder.Dim)
	if err != nil {
		return fmt.Errorf("connect to mirror: %w", err)
	}
	defer m.Close()

	if err := m.Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	n, err := m.Sync(ctx, store.Records())
	if err != nil {
		return fmt.Errorf("sync mirror: %w", err)
	}

	fmt.Printf("Mirrored %d identities from %s\n", n, store.Path())
	return nil
}
