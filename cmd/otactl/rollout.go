package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fleetlab/ota-server/internal/database"
	"github.com/fleetlab/ota-server/internal/repositories"
	"github.com/fleetlab/ota-server/internal/services"
)

func newRolloutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollout",
		Short: "Manage rollout campaigns",
	}
	cmd.AddCommand(newRolloutCreateCommand(), newRolloutStatusCommand(), newRolloutListCommand())
	return cmd
}

func newRolloutCreateCommand() *cobra.Command {
	var (
		targetLabel string
		stage       string
		activate    bool
	)

	cmd := &cobra.Command{
		Use:   "create <name> <firmware-version>",
		Short: "Create a rollout campaign for a firmware build",
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

			req := &services.CreateRequest{
				Name:            args[0],
				FirmwareVersion: args[1],
				Stage:           stage,
				Activate:        activate,
			}
			if targetLabel != "" {
				req.TargetLabel = &targetLabel
			}

			rollout, err := services.NewRolloutService(db, nil, cliLogger()).Create(req)
			if err != nil {
				return err
			}

			fmt.Printf("Created rollout %s (status %s)\n", rollout.Name, rollout.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&targetLabel, "label", "", "restrict to devices carrying this label (must exist)")
	cmd.Flags().StringVar(&stage, "stage", "", "rollout stage: pilot or general")
	cmd.Flags().BoolVar(&activate, "activate", false, "activate the rollout immediately")
	return cmd
}

func newRolloutStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status <name> <status>",
		Short: "Transition a rollout (draft, scheduled, active, paused, completed)",
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

			rollout, err := services.NewRolloutService(db, nil, cliLogger()).SetStatus(args[0], args[1])
			if err != nil {
				return err
			}

			fmt.Printf("Rollout %s is now %s\n", rollout.Name, rollout.Status)
			return nil
		},
	}
}

func newRolloutListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List rollout campaigns",
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

			list, err := repositories.NewRolloutRepository(db).List()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tFIRMWARE\tSTAGE\tSTATUS\tTARGET")
			for _, r := range list {
				target := "all"
				if r.TargetLabel != nil {
					target = r.TargetLabel.Name
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					r.Name, r.Firmware.Version, r.Stage, r.Status, target)
			}
			return w.Flush()
		},
	}
}
