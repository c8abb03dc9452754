package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fleetlab/ota-server/internal/database"
	"github.com/fleetlab/ota-server/internal/scheduler"
)

func newSchedulerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scheduler",
		Short: "Work with the declarative rollout schedule",
	}
	cmd.AddCommand(newSchedulerSyncCommand())
	return cmd
}

func newSchedulerSyncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Validate the schedules file and upsert schedule rows",
		Long: "Reads the schedules YAML file and reconciles the persisted schedule rows " +
			"against it. No timers are touched; the running server picks up timer " +
			"changes on its own sync or restart.",
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

			entries, err := scheduler.LoadEntries(cfg.SchedulesFile)
			if err != nil {
				return err
			}

			sched := scheduler.New(db, cfg.SchedulesFile, cfg.Location(), nil, cliLogger())
			if err := sched.Reconcile(entries, false); err != nil {
				return err
			}

			fmt.Printf("Reconciled %d schedule entries from %s\n", len(entries), cfg.SchedulesFile)
			return nil
		},
	}
}
