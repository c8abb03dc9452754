package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fleetlab/ota-server/internal/database"
	"github.com/fleetlab/ota-server/internal/storage"
)

func newInitDBCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "initdb",
		Short: "Create the database schema and firmware storage directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer database.Close(db)

			store := storage.New(cfg.StorageRoot, cfg.MaxFirmwareSizeBytes())
			if err := store.EnsureRoot(); err != nil {
				return err
			}

			fmt.Printf("Database ready at %s\n", cfg.DatabasePath)
			fmt.Printf("Firmware storage ready at %s\n", store.Root())
			return nil
		},
	}
}
