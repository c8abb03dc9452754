package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fleetlab/ota-server/internal/database"
	"github.com/fleetlab/ota-server/internal/repositories"
	"github.com/fleetlab/ota-server/internal/services"
	"github.com/fleetlab/ota-server/internal/storage"
)

func newFirmwareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "firmware",
		Short: "Manage firmware builds",
	}
	cmd.AddCommand(newFirmwareUploadCommand(), newFirmwareListCommand())
	return cmd
}

func newFirmwareUploadCommand() *cobra.Command {
	var (
		channel      string
		releaseNotes string
		pilotReady   bool
	)

	cmd := &cobra.Command{
		Use:   "upload <file> <version>",
		Short: "Ingest a firmware image under a semantic version",
		Args:  cobra.ExactArgs(2),
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

			req := &services.RegisterRequest{
				SourcePath: args[0],
				Version:    args[1],
				PilotReady: pilotReady,
			}
			if channel != "" {
				req.Channel = &channel
			}
			if releaseNotes != "" {
				req.ReleaseNotes = &releaseNotes
			}

			firmware, err := services.NewFirmwareService(db, store, cliLogger()).Register(req)
			if err != nil {
				return err
			}

			fmt.Printf("Registered firmware %s (%d bytes, sha256 %s)\n",
				firmware.Version, firmware.SizeBytes, firmware.SHA256)
			return nil
		},
	}

	cmd.Flags().StringVar(&channel, "channel", "", "release channel (e.g. stable, beta)")
	cmd.Flags().StringVar(&releaseNotes, "notes", "", "release notes")
	cmd.Flags().BoolVar(&pilotReady, "pilot-ready", false, "mark the build as cleared for pilot rollouts")
	return cmd
}

func newFirmwareListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered firmware builds",
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

			list, err := repositories.NewFirmwareRepository(db).List()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "VERSION\tSIZE\tSHA256\tPILOT\tCREATED")
			for _, f := range list {
				fmt.Fprintf(w, "%s\t%d\t%.12s\t%t\t%s\n",
					f.Version, f.SizeBytes, f.SHA256, f.PilotReady,
					f.CreatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
}
