package repositories

import (
	"fmt"

	"github.com/fleetlab/ota-server/internal/models"
	"gorm.io/gorm"
)

// FirmwareRepository handles database operations for firmware builds
type FirmwareRepository struct {
	db *gorm.DB
}

// NewFirmwareRepository creates a new firmware repository instance
func NewFirmwareRepository(db *gorm.DB) *FirmwareRepository {
	return &FirmwareRepository{db: db}
}

// Create registers a new firmware build. Firmware records are immutable;
// re-registering an existing version fails with ErrConflict and leaves the
// original record unchanged.
func (r *FirmwareRepository) Create(firmware *models.Firmware) error {
	if firmware == nil {
		return fmt.Errorf("firmware cannot be nil")
	}
	if firmware.Version == "" {
		return fmt.Errorf("firmware version is required")
	}

	var count int64
	if err := r.db.Model(&models.Firmware{}).Where("version = ?", firmware.Version).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check firmware version: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("firmware %s: %w", firmware.Version, ErrConflict)
	}

	if err := r.db.Create(firmware).Error; err != nil {
		return fmt.Errorf("failed to create firmware: %w", err)
	}

	return nil
}

// FindByVersion retrieves a firmware build by its unique version string
func (r *FirmwareRepository) FindByVersion(version string) (*models.Firmware, error) {
	if version == "" {
		return nil, fmt.Errorf("version is required")
	}

	var firmware models.Firmware
	if err := r.db.Where("version = ?", version).First(&firmware).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("firmware %s: %w", version, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find firmware: %w", err)
	}

	return &firmware, nil
}

// List retrieves all firmware builds, newest first
func (r *FirmwareRepository) List() ([]models.Firmware, error) {
	var builds []models.Firmware
	if err := r.db.Order("created_at DESC").Find(&builds).Error; err != nil {
		return nil, fmt.Errorf("failed to list firmware: %w", err)
	}
	return builds, nil
}
