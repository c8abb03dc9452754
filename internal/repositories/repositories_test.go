package repositories

import (
	"testing"

	"github.com/fleetlab/ota-server/internal/database"
	"github.com/fleetlab/ota-server/internal/models"
	"gorm.io/gorm"
)

// setupTestDB opens a fresh in-memory database with the full schema
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.InitDB(database.TestConfig())
	if err != nil {
		t.Fatalf("failed to initialize test database: %v", err)
	}
	t.Cleanup(func() {
		database.Close(db)
	})

	return db
}

// createTestFirmware inserts a firmware record for tests that need one
func createTestFirmware(t *testing.T, db *gorm.DB, version string) *models.Firmware {
	t.Helper()

	firmware := &models.Firmware{
		Version:   version,
		FilePath:  "/tmp/" + version + "/image.bin",
		SizeBytes: 1024,
		SHA256:    "deadbeef",
	}
	if err := NewFirmwareRepository(db).Create(firmware); err != nil {
		t.Fatalf("failed to create test firmware %s: %v", version, err)
	}
	return firmware
}

// createTestRollout inserts a rollout for the given firmware version
func createTestRollout(t *testing.T, db *gorm.DB, name, firmwareVersion string) *models.Rollout {
	t.Helper()

	firmware := createTestFirmware(t, db, firmwareVersion)
	rollout := &models.Rollout{
		Name:       name,
		FirmwareID: firmware.ID,
		Stage:      models.RolloutStageGeneral,
		Status:     models.RolloutStatusDraft,
	}
	if err := NewRolloutRepository(db).Create(rollout); err != nil {
		t.Fatalf("failed to create test rollout %s: %v", name, err)
	}
	return rollout
}
