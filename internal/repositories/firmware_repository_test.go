package repositories

import (
	"errors"
	"testing"

	"github.com/fleetlab/ota-server/internal/models"
)

// TestFirmwareCreateAndFind tests the basic register/lookup round trip
func TestFirmwareCreateAndFind(t *testing.T) {
	db := setupTestDB(t)

	created := createTestFirmware(t, db, "1.2.0")

	found, err := NewFirmwareRepository(db).FindByVersion("1.2.0")
	if err != nil {
		t.Fatalf("FindByVersion failed: %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("found ID %d, want %d", found.ID, created.ID)
	}
	if found.SHA256 != "deadbeef" {
		t.Errorf("SHA256 = %q, want %q", found.SHA256, "deadbeef")
	}
}

// TestFirmwareVersionConflict tests that a duplicate version is rejected and
// the original record untouched
func TestFirmwareVersionConflict(t *testing.T) {
	db := setupTestDB(t)
	firmwares := NewFirmwareRepository(db)

	original := createTestFirmware(t, db, "1.2.0")

	duplicate := &models.Firmware{
		Version:   "1.2.0",
		FilePath:  "/tmp/other/image.bin",
		SizeBytes: 2048,
		SHA256:    "cafebabe",
	}
	err := firmwares.Create(duplicate)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// Immutability: the registered record is unchanged
	found, err := firmwares.FindByVersion("1.2.0")
	if err != nil {
		t.Fatalf("FindByVersion failed: %v", err)
	}
	if found.SHA256 != original.SHA256 || found.SizeBytes != original.SizeBytes {
		t.Error("conflicting create modified the original firmware record")
	}

	list, err := firmwares.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("firmware count = %d, want 1", len(list))
	}
}

// TestFirmwareFindByVersionNotFound tests the sentinel error
func TestFirmwareFindByVersionNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := NewFirmwareRepository(db).FindByVersion("9.9.9")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
