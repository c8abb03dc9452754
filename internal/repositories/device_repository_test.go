package repositories

import (
	"errors"
	"testing"
)

// TestDeviceUpsertCreatesOnFirstCheckin tests that an unknown MAC creates a row
func TestDeviceUpsertCreatesOnFirstCheckin(t *testing.T) {
	db := setupTestDB(t)
	devices := NewDeviceRepository(db)

	ip := "10.0.0.5"
	device, err := devices.Upsert("aabbccddeeff", &ip, "1.0.0", map[string]any{"board": "rev2"})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	if device.ID == 0 {
		t.Error("expected device to be persisted with an ID")
	}
	if device.MAC != "aabbccddeeff" {
		t.Errorf("MAC = %q, want %q", device.MAC, "aabbccddeeff")
	}
	if device.CurrentVersion == nil || *device.CurrentVersion != "1.0.0" {
		t.Errorf("CurrentVersion = %v, want 1.0.0", device.CurrentVersion)
	}
	if device.LastSeen.IsZero() {
		t.Error("LastSeen should be set on first check-in")
	}
}

// TestDeviceUpsertRefreshesExisting tests that a second check-in updates in place
func TestDeviceUpsertRefreshesExisting(t *testing.T) {
	db := setupTestDB(t)
	devices := NewDeviceRepository(db)

	first, err := devices.Upsert("aabbccddeeff", nil, "1.0.0", nil)
	if err != nil {
		t.Fatalf("first Upsert failed: %v", err)
	}

	ip := "10.0.0.9"
	second, err := devices.Upsert("aabbccddeeff", &ip, "1.1.0", nil)
	if err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("second Upsert created a new row: id %d != %d", second.ID, first.ID)
	}
	if second.CurrentVersion == nil || *second.CurrentVersion != "1.1.0" {
		t.Errorf("CurrentVersion = %v, want 1.1.0", second.CurrentVersion)
	}
	if second.IP == nil || *second.IP != "10.0.0.9" {
		t.Errorf("IP = %v, want 10.0.0.9", second.IP)
	}

	count, err := devices.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("device count = %d, want 1", count)
	}
}

// TestDeviceFindByMACNotFound tests the sentinel error for unknown devices
func TestDeviceFindByMACNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := NewDeviceRepository(db).FindByMAC("000000000000")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// TestReplaceLabels tests the explicit-set-only label replacement policy
func TestReplaceLabels(t *testing.T) {
	db := setupTestDB(t)
	devices := NewDeviceRepository(db)
	labels := NewLabelRepository(db)

	device, err := devices.Upsert("aabbccddeeff", nil, "1.0.0", nil)
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	pilotLab, err := labels.EnsureLabels([]string{"pilot", "lab"})
	if err != nil {
		t.Fatalf("EnsureLabels failed: %v", err)
	}
	if err := devices.ReplaceLabels(device, pilotLab); err != nil {
		t.Fatalf("ReplaceLabels failed: %v", err)
	}

	names := devices.LabelNames(device)
	if len(names) != 2 {
		t.Fatalf("label count = %d, want 2 (%v)", len(names), names)
	}

	// Replacement: the new set fully supersedes the old one
	warehouse, err := labels.EnsureLabels([]string{"warehouse"})
	if err != nil {
		t.Fatalf("EnsureLabels failed: %v", err)
	}
	if err := devices.ReplaceLabels(device, warehouse); err != nil {
		t.Fatalf("ReplaceLabels failed: %v", err)
	}

	names = devices.LabelNames(device)
	if len(names) != 1 || names[0] != "warehouse" {
		t.Errorf("labels after replacement = %v, want [warehouse]", names)
	}
}

// TestReplaceLabelsEmptySetIsNoOp tests that an empty submitted set keeps
// existing assignments
func TestReplaceLabelsEmptySetIsNoOp(t *testing.T) {
	db := setupTestDB(t)
	devices := NewDeviceRepository(db)
	labels := NewLabelRepository(db)

	device, err := devices.Upsert("aabbccddeeff", nil, "1.0.0", nil)
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	pilot, err := labels.EnsureLabels([]string{"pilot"})
	if err != nil {
		t.Fatalf("EnsureLabels failed: %v", err)
	}
	if err := devices.ReplaceLabels(device, pilot); err != nil {
		t.Fatalf("ReplaceLabels failed: %v", err)
	}

	if err := devices.ReplaceLabels(device, nil); err != nil {
		t.Fatalf("ReplaceLabels with empty set failed: %v", err)
	}

	reloaded, err := devices.FindByMAC("aabbccddeeff")
	if err != nil {
		t.Fatalf("FindByMAC failed: %v", err)
	}
	names := devices.LabelNames(reloaded)
	if len(names) != 1 || names[0] != "pilot" {
		t.Errorf("labels after empty-set call = %v, want [pilot]", names)
	}
}

// TestUpdateCurrentVersion tests the post-install version advance
func TestUpdateCurrentVersion(t *testing.T) {
	db := setupTestDB(t)
	devices := NewDeviceRepository(db)

	device, err := devices.Upsert("aabbccddeeff", nil, "1.0.0", nil)
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	if err := devices.UpdateCurrentVersion(device, "2.0.0"); err != nil {
		t.Fatalf("UpdateCurrentVersion failed: %v", err)
	}

	reloaded, err := devices.FindByMAC("aabbccddeeff")
	if err != nil {
		t.Fatalf("FindByMAC failed: %v", err)
	}
	if reloaded.CurrentVersion == nil || *reloaded.CurrentVersion != "2.0.0" {
		t.Errorf("CurrentVersion = %v, want 2.0.0", reloaded.CurrentVersion)
	}
}
