package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/fleetlab/ota-server/internal/database"
	"github.com/fleetlab/ota-server/internal/repositories"
	"github.com/fleetlab/ota-server/internal/validators"
)

func newDeviceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "device",
		Short: "Inspect registered devices",
	}
	cmd.AddCommand(newDeviceListCommand())
	return cmd
}

func newDeviceListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List devices with their labels and last check-in",
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

			devices := repositories.NewDeviceRepository(db)
			list, err := devices.List()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "MAC\tVERSION\tLABELS\tLAST SEEN")
			for i := range list {
				device := &list[i]
				version := "-"
				if device.CurrentVersion != nil {
					version = *device.CurrentVersion
				}
				labels := strings.Join(devices.LabelNames(device), ",")
				if labels == "" {
					labels = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					device.MAC, version, labels,
					device.LastSeen.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
}

func newLabelCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "label",
		Short: "Manage device labels",
	}
	cmd.AddCommand(newLabelAssignCommand())
	return cmd
}

func newLabelAssignCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "assign <mac> <label> [label...]",
		Short: "Replace a device's label set",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			mac, err := validators.NormalizeMAC(args[0])
			if err != nil {
				return err
			}

			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer database.Close(db)

			err = db.Transaction(func(tx *gorm.DB) error {
				devices := repositories.NewDeviceRepository(tx)
				labels := repositories.NewLabelRepository(tx)

				device, err := devices.FindByMAC(mac)
				if err != nil {
					return err
				}
				resolved, err := labels.EnsureLabels(args[1:])
				if err != nil {
					return err
				}
				return devices.ReplaceLabels(device, resolved)
			})
			if err != nil {
				return err
			}

			fmt.Printf("Labels for %s set to %s\n", mac, strings.Join(args[1:], ","))
			return nil
		},
	}
}
