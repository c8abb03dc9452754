package repositories

import (
	"fmt"

	"github.com/fleetlab/ota-server/internal/models"
	"gorm.io/gorm"
)

// DownloadLogRepository handles database operations for the download audit
// trail. The log is append-only; entries are never updated or deleted.
type DownloadLogRepository struct {
	db *gorm.DB
}

// NewDownloadLogRepository creates a new download log repository instance
func NewDownloadLogRepository(db *gorm.DB) *DownloadLogRepository {
	return &DownloadLogRepository{db: db}
}

// Record appends an audit entry for a device/firmware pair
func (r *DownloadLogRepository) Record(deviceID, firmwareID uint, status string, errText *string) (*models.DownloadLog, error) {
	if !models.IsValidDownloadStatus(status) {
		return nil, fmt.Errorf("invalid download status: %s", status)
	}

	entry := models.DownloadLog{
		DeviceID:   deviceID,
		FirmwareID: firmwareID,
		Status:     status,
		Error:      errText,
	}

	if err := r.db.Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("failed to record download: %w", err)
	}

	return &entry, nil
}

// ListByDevice retrieves a device's audit entries, newest first
func (r *DownloadLogRepository) ListByDevice(deviceID uint) ([]models.DownloadLog, error) {
	var entries []models.DownloadLog
	err := r.db.Where("device_id = ?", deviceID).
		Order("created_at DESC").Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list download log: %w", err)
	}
	return entries, nil
}

// CountByStatus returns the number of entries with the given status
func (r *DownloadLogRepository) CountByStatus(status string) (int64, error) {
	if !models.IsValidDownloadStatus(status) {
		return 0, fmt.Errorf("invalid download status: %s", status)
	}

	var count int64
	err := r.db.Model(&models.DownloadLog{}).Where("status = ?", status).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count download log entries: %w", err)
	}
	return count, nil
}
