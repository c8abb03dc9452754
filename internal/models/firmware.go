package models

import (
	"time"

	"gorm.io/gorm"
)

// Firmware is a registered firmware build. Records are immutable once
// created; re-registering an existing version is rejected.
type Firmware struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Version is the unique semantic version of this build
	// Format: "1.0.0", "2.1.3-beta"
	Version string `gorm:"type:text;size:32;uniqueIndex;not null" json:"version"`

	// Channel is an optional distribution channel tag (e.g. "stable", "beta")
	Channel *string `gorm:"type:text;size:64" json:"channel,omitempty"`

	// FilePath is the on-disk location of the firmware image inside the
	// storage root
	FilePath string `gorm:"type:text;size:256;not null" json:"-"`

	// SizeBytes is the image size as stored
	SizeBytes int64 `gorm:"not null" json:"size_bytes"`

	// SHA256 is the hex-encoded content digest of the stored image
	SHA256 string `gorm:"type:text;size:64;not null" json:"sha256"`

	// ReleaseNotes is optional operator-facing text forwarded to devices
	ReleaseNotes *string `gorm:"type:text;size:1024" json:"release_notes,omitempty"`

	// PilotReady flags the build as approved for pilot rollouts
	PilotReady bool `gorm:"not null;default:false" json:"pilot_ready"`

	CreatedAt time.Time `gorm:"type:datetime;not null" json:"created_at"`
}

// TableName overrides the default table name for GORM
func (Firmware) TableName() string {
	return "firmware"
}

// BeforeCreate is a GORM hook that ensures the creation timestamp is in UTC
func (f *Firmware) BeforeCreate(tx *gorm.DB) error {
	f.CreatedAt = time.Now().UTC()
	return nil
}
