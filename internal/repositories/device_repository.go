package repositories

import (
	"fmt"
	"time"

	"github.com/fleetlab/ota-server/internal/models"
	"gorm.io/gorm"
)

// DeviceRepository handles database operations for devices
type DeviceRepository struct {
	db *gorm.DB
}

// NewDeviceRepository creates a new device repository instance
func NewDeviceRepository(db *gorm.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// FindByMAC retrieves a device by its normalized MAC address, with label
// assignments preloaded
func (r *DeviceRepository) FindByMAC(mac string) (*models.Device, error) {
	if mac == "" {
		return nil, fmt.Errorf("mac is required")
	}

	var device models.Device
	err := r.db.Preload("Labels.Label").Where("mac = ?", mac).First(&device).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("device %s: %w", mac, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find device: %w", err)
	}

	return &device, nil
}

// Upsert creates the device on first check-in or refreshes an existing row.
// IP, current version, metadata and last_seen are overwritten on every call;
// labels are handled separately by ReplaceLabels.
func (r *DeviceRepository) Upsert(mac string, ip *string, currentVersion string, meta map[string]any) (*models.Device, error) {
	if mac == "" {
		return nil, fmt.Errorf("mac is required")
	}

	device, err := r.FindByMAC(mac)
	if err != nil {
		if !isNotFound(err) {
			return nil, err
		}
		device = &models.Device{MAC: mac}
		if err := r.db.Create(device).Error; err != nil {
			return nil, fmt.Errorf("failed to create device: %w", err)
		}
	}

	now := time.Now().UTC()
	device.IP = ip
	device.LastSeen = now
	if currentVersion != "" {
		device.CurrentVersion = &currentVersion
	}
	if meta != nil {
		device.Meta = meta
	}

	// Struct-based update so the meta field goes through the gorm JSON
	// serializer; map-based Updates bypass serializers entirely.
	if err := r.db.Model(device).
		Select("ip", "current_version", "last_seen", "meta", "updated_at").
		Updates(device).Error; err != nil {
		return nil, fmt.Errorf("failed to update device: %w", err)
	}

	return device, nil
}

// ReplaceLabels applies the explicit-set-only label replacement policy:
// the device's label set becomes exactly the given labels. An empty set is
// a no-op, leaving existing assignments untouched.
func (r *DeviceRepository) ReplaceLabels(device *models.Device, labels []models.Label) error {
	if device == nil {
		return fmt.Errorf("device cannot be nil")
	}
	if len(labels) == 0 {
		return nil
	}

	desired := make(map[uint]models.Label, len(labels))
	for _, label := range labels {
		desired[label.ID] = label
	}

	existing := make(map[uint]struct{}, len(device.Labels))
	for _, dl := range device.Labels {
		existing[dl.LabelID] = struct{}{}
	}

	// add assignments missing from the persisted set
	for id := range desired {
		if _, ok := existing[id]; ok {
			continue
		}
		assignment := models.DeviceLabel{DeviceID: device.ID, LabelID: id}
		if err := r.db.Create(&assignment).Error; err != nil {
			return fmt.Errorf("failed to assign label: %w", err)
		}
	}

	// drop assignments no longer desired
	for id := range existing {
		if _, ok := desired[id]; ok {
			continue
		}
		if err := r.db.Where("device_id = ? AND label_id = ?", device.ID, id).
			Delete(&models.DeviceLabel{}).Error; err != nil {
			return fmt.Errorf("failed to remove label: %w", err)
		}
	}

	// reload assignments so the caller sees the applied set
	if err := r.db.Preload("Label").Where("device_id = ?", device.ID).
		Find(&device.Labels).Error; err != nil {
		return fmt.Errorf("failed to reload labels: %w", err)
	}

	return nil
}

// LabelNames returns the device's current label-name set
func (r *DeviceRepository) LabelNames(device *models.Device) []string {
	names := make([]string, 0, len(device.Labels))
	for _, dl := range device.Labels {
		names = append(names, dl.Label.Name)
	}
	return names
}

// UpdateCurrentVersion sets the device's reported firmware version
func (r *DeviceRepository) UpdateCurrentVersion(device *models.Device, version string) error {
	if device == nil {
		return fmt.Errorf("device cannot be nil")
	}

	now := time.Now().UTC()
	device.CurrentVersion = &version
	device.LastSeen = now

	if err := r.db.Model(device).Updates(map[string]any{
		"current_version": version,
		"last_seen":       now,
		"updated_at":      now,
	}).Error; err != nil {
		return fmt.Errorf("failed to update current version: %w", err)
	}

	return nil
}

// TouchLastSeen refreshes the device's last_seen timestamp
func (r *DeviceRepository) TouchLastSeen(device *models.Device) error {
	if device == nil {
		return fmt.Errorf("device cannot be nil")
	}

	now := time.Now().UTC()
	device.LastSeen = now

	if err := r.db.Model(device).Updates(map[string]any{
		"last_seen":  now,
		"updated_at": now,
	}).Error; err != nil {
		return fmt.Errorf("failed to update last seen: %w", err)
	}

	return nil
}

// List retrieves all devices with labels preloaded, most recently seen first
func (r *DeviceRepository) List() ([]models.Device, error) {
	var devices []models.Device
	if err := r.db.Preload("Labels.Label").Order("last_seen DESC").Find(&devices).Error; err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}

// Count returns the total number of devices
func (r *DeviceRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&models.Device{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count devices: %w", err)
	}
	return count, nil
}
