package services

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fleetlab/ota-server/internal/database"
	"github.com/fleetlab/ota-server/internal/engine"
	"github.com/fleetlab/ota-server/internal/models"
	"github.com/fleetlab/ota-server/internal/repositories"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.InitDB(database.TestConfig())
	require.NoError(t, err)
	t.Cleanup(func() {
		database.Close(db)
	})
	return db
}

func newTestCheckinService(t *testing.T, db *gorm.DB) *CheckinService {
	t.Helper()
	return NewCheckinService(db, engine.New(zerolog.Nop()), "https://ota.example.com", 10, zerolog.Nop())
}

func createActiveRollout(t *testing.T, db *gorm.DB, name, firmwareVersion string, targetLabel *string) *models.Rollout {
	t.Helper()

	firmware := &models.Firmware{
		Version:   firmwareVersion,
		FilePath:  "/tmp/" + firmwareVersion + "/image.bin",
		SizeBytes: 2048,
		SHA256:    "deadbeef",
	}
	require.NoError(t, repositories.NewFirmwareRepository(db).Create(firmware))

	rollout := &models.Rollout{
		Name:       name,
		FirmwareID: firmware.ID,
		Stage:      models.RolloutStageGeneral,
		Status:     models.RolloutStatusActive,
	}
	if targetLabel != nil {
		labels, err := repositories.NewLabelRepository(db).EnsureLabels([]string{*targetLabel})
		require.NoError(t, err)
		rollout.TargetLabelID = &labels[0].ID
	}
	require.NoError(t, repositories.NewRolloutRepository(db).Create(rollout))
	return rollout
}

func TestCheckUpdateOffersNewerFirmware(t *testing.T) {
	db := setupTestDB(t)
	createActiveRollout(t, db, "wave-1", "2.0.0", nil)

	svc := newTestCheckinService(t, db)
	resp, err := svc.CheckUpdate(&CheckUpdateRequest{
		MAC:            "AA:BB:CC:DD:EE:FF",
		CurrentVersion: "1.0.0",
	}, "10.0.0.5")
	require.NoError(t, err)

	require.True(t, resp.UpdateAvailable)
	require.NotNil(t, resp.Manifest)
	assert.Equal(t, "2.0.0", resp.Manifest.Version)
	assert.Equal(t, "https://ota.example.com/firmware/2.0.0/image.bin", resp.Manifest.URL)
	assert.Equal(t, 10, resp.PollIntervalMinutes)

	// The check-in registered the device under the normalized MAC
	device, err := repositories.NewDeviceRepository(db).FindByMAC("aabbccddeeff")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", *device.CurrentVersion)
	require.NotNil(t, device.IP)
	assert.Equal(t, "10.0.0.5", *device.IP)

	// The offer left a "downloading" audit entry
	logs, err := repositories.NewDownloadLogRepository(db).ListByDevice(device.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.DownloadStatusDownloading, logs[0].Status)
}

func TestCheckUpdateNoCandidate(t *testing.T) {
	db := setupTestDB(t)
	createActiveRollout(t, db, "wave-1", "1.0.0", nil)

	svc := newTestCheckinService(t, db)
	resp, err := svc.CheckUpdate(&CheckUpdateRequest{
		MAC:            "aabbccddeeff",
		CurrentVersion: "1.0.0",
	}, "")
	require.NoError(t, err)

	assert.False(t, resp.UpdateAvailable)
	assert.Nil(t, resp.Manifest)

	// No offer, no audit entry
	device, err := repositories.NewDeviceRepository(db).FindByMAC("aabbccddeeff")
	require.NoError(t, err)
	logs, err := repositories.NewDownloadLogRepository(db).ListByDevice(device.ID)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestCheckUpdatePersistsSubmittedLabels(t *testing.T) {
	db := setupTestDB(t)
	pilot := "pilot"
	createActiveRollout(t, db, "pilot-wave", "2.0.0", &pilot)

	svc := newTestCheckinService(t, db)
	devices := repositories.NewDeviceRepository(db)

	// First check-in submits labels: they are persisted and targeting applies
	resp, err := svc.CheckUpdate(&CheckUpdateRequest{
		MAC:            "aabbccddeeff",
		CurrentVersion: "1.0.0",
		Labels:         []string{"pilot"},
	}, "")
	require.NoError(t, err)
	assert.True(t, resp.UpdateAvailable)

	device, err := devices.FindByMAC("aabbccddeeff")
	require.NoError(t, err)
	assert.Equal(t, []string{"pilot"}, devices.LabelNames(device))

	// A later check-in with no labels leaves the stored set untouched
	resp, err = svc.CheckUpdate(&CheckUpdateRequest{
		MAC:            "aabbccddeeff",
		CurrentVersion: "1.0.0",
	}, "")
	require.NoError(t, err)
	assert.True(t, resp.UpdateAvailable, "stored pilot label must still apply")

	device, err = devices.FindByMAC("aabbccddeeff")
	require.NoError(t, err)
	assert.Equal(t, []string{"pilot"}, devices.LabelNames(device))
}

func TestCheckUpdateGeneralFallbackNotPersisted(t *testing.T) {
	db := setupTestDB(t)
	general := "general"
	createActiveRollout(t, db, "general-wave", "2.0.0", &general)

	svc := newTestCheckinService(t, db)
	resp, err := svc.CheckUpdate(&CheckUpdateRequest{
		MAC:            "aabbccddeeff",
		CurrentVersion: "1.0.0",
	}, "")
	require.NoError(t, err)
	assert.True(t, resp.UpdateAvailable, "unlabeled device matches the general rollout")

	// The fallback label is matching-only; the device stays unlabeled
	devices := repositories.NewDeviceRepository(db)
	device, err := devices.FindByMAC("aabbccddeeff")
	require.NoError(t, err)
	assert.Empty(t, devices.LabelNames(device))
}

func TestCheckUpdateRejectsBadMAC(t *testing.T) {
	db := setupTestDB(t)

	svc := newTestCheckinService(t, db)
	_, err := svc.CheckUpdate(&CheckUpdateRequest{
		MAC:            "not-a-mac",
		CurrentVersion: "1.0.0",
	}, "")
	assert.Error(t, err)
}

func TestReportStatusSuccessAdvancesVersion(t *testing.T) {
	db := setupTestDB(t)
	createActiveRollout(t, db, "wave-1", "2.0.0", nil)

	svc := newTestCheckinService(t, db)
	_, err := svc.CheckUpdate(&CheckUpdateRequest{
		MAC:            "aabbccddeeff",
		CurrentVersion: "1.0.0",
	}, "")
	require.NoError(t, err)

	require.NoError(t, svc.ReportStatus(&ReportStatusRequest{
		MAC:             "aabbccddeeff",
		FirmwareVersion: "2.0.0",
		Status:          "success",
	}))

	device, err := repositories.NewDeviceRepository(db).FindByMAC("aabbccddeeff")
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", *device.CurrentVersion)

	logs, err := repositories.NewDownloadLogRepository(db).ListByDevice(device.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
}

func TestReportStatusFailureKeepsVersion(t *testing.T) {
	db := setupTestDB(t)
	createActiveRollout(t, db, "wave-1", "2.0.0", nil)

	svc := newTestCheckinService(t, db)
	_, err := svc.CheckUpdate(&CheckUpdateRequest{
		MAC:            "aabbccddeeff",
		CurrentVersion: "1.0.0",
	}, "")
	require.NoError(t, err)

	flashErr := "flash verify failed"
	require.NoError(t, svc.ReportStatus(&ReportStatusRequest{
		MAC:             "aabbccddeeff",
		FirmwareVersion: "2.0.0",
		Status:          "failed",
		Error:           &flashErr,
	}))

	device, err := repositories.NewDeviceRepository(db).FindByMAC("aabbccddeeff")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", *device.CurrentVersion, "failed install must not advance the version")
}

func TestReportStatusUnknownDevice(t *testing.T) {
	db := setupTestDB(t)
	createActiveRollout(t, db, "wave-1", "2.0.0", nil)

	svc := newTestCheckinService(t, db)
	err := svc.ReportStatus(&ReportStatusRequest{
		MAC:             "aabbccddeeff",
		FirmwareVersion: "2.0.0",
		Status:          "success",
	})
	assert.True(t, errors.Is(err, repositories.ErrNotFound))
}

func TestReportStatusUnknownFirmware(t *testing.T) {
	db := setupTestDB(t)

	svc := newTestCheckinService(t, db)
	_, err := svc.CheckUpdate(&CheckUpdateRequest{
		MAC:            "aabbccddeeff",
		CurrentVersion: "1.0.0",
	}, "")
	require.NoError(t, err)

	err = svc.ReportStatus(&ReportStatusRequest{
		MAC:             "aabbccddeeff",
		FirmwareVersion: "9.9.9",
		Status:          "success",
	})
	assert.True(t, errors.Is(err, repositories.ErrNotFound))
}

func TestReportStatusRejectsNonTerminalStatus(t *testing.T) {
	db := setupTestDB(t)

	svc := newTestCheckinService(t, db)
	err := svc.ReportStatus(&ReportStatusRequest{
		MAC:             "aabbccddeeff",
		FirmwareVersion: "1.0.0",
		Status:          "downloading",
	})
	assert.Error(t, err)
}
