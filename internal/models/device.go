package models

import (
	"time"

	"gorm.io/gorm"
)

// Device represents an embedded device known to the OTA server.
// Devices are created or refreshed on every check-in; identity is the
// normalized MAC address. All timestamps are stored in UTC.
type Device struct {
	// ID is the internal database identifier
	ID uint `gorm:"primaryKey" json:"id"`

	// MAC is the normalized device MAC address (12 lowercase hex characters,
	// separators stripped). Format: "aabbccddeeff"
	MAC string `gorm:"type:text;size:32;uniqueIndex;not null" json:"mac"`

	// IP is the last source address the device checked in from
	IP *string `gorm:"type:text;size:64" json:"ip,omitempty"`

	// CurrentVersion is the firmware version the device last reported.
	// Semantic version string (e.g. "1.2.0"); may be NULL or malformed for
	// devices that have never completed an update
	CurrentVersion *string `gorm:"type:text;size:32" json:"current_version,omitempty"`

	// LastSeen is refreshed on every check-in and status report
	LastSeen time.Time `gorm:"type:datetime;not null" json:"last_seen"`

	// Meta holds free-form metadata submitted by the device (hardware
	// revision, build flags, ...), stored as JSON
	Meta map[string]any `gorm:"serializer:json" json:"meta,omitempty"`

	// Labels is the set of label assignments for this device
	Labels []DeviceLabel `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `gorm:"type:datetime;not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:datetime;not null" json:"updated_at"`
}

// TableName overrides the default table name for GORM
func (Device) TableName() string {
	return "devices"
}

// BeforeCreate is a GORM hook that ensures timestamps are in UTC
func (d *Device) BeforeCreate(tx *gorm.DB) error {
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	if d.LastSeen.IsZero() {
		d.LastSeen = now
	}
	return nil
}

// BeforeUpdate is a GORM hook that ensures UpdatedAt is in UTC
func (d *Device) BeforeUpdate(tx *gorm.DB) error {
	d.UpdatedAt = time.Now().UTC()
	return nil
}
