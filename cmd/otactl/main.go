// otactl is the operator CLI for the OTA server: database setup, firmware
// ingestion, device and rollout administration, schedule reconciliation.
// It works directly against the database and storage root, not the HTTP API,
// so it is meant to run on the server host.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/fleetlab/ota-server/internal/config"
	"github.com/fleetlab/ota-server/internal/database"
)

func main() {
	root := &cobra.Command{
		Use:           "otactl",
		Short:         "Administer the OTA firmware update server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newInitDBCommand(),
		newFirmwareCommand(),
		newDeviceCommand(),
		newLabelCommand(),
		newRolloutCommand(),
		newSchedulerCommand(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig reads .env plus environment, same as the server does
func loadConfig() (*config.Config, error) {
	godotenv.Load()
	return config.Load()
}

// openDB initializes the database exactly as the server would, so running a
// CLI command against a fresh path also creates the schema.
func openDB(cfg *config.Config) (*gorm.DB, error) {
	return database.InitDB(database.DefaultConfig(cfg.DatabasePath))
}

// cliLogger is quieter than the server logger; commands print their own
// results and only warnings matter here.
func cliLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(zerolog.WarnLevel).
		With().Timestamp().Logger()
}
