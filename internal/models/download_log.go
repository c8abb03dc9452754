package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DownloadStatus constants for download log entries
const (
	DownloadStatusDownloading = "downloading"
	DownloadStatusSuccess     = "success"
	DownloadStatusFailed      = "failed"
)

// DownloadLog is the append-only audit trail of firmware offers and install
// reports. Entries are never mutated after creation.
type DownloadLog struct {
	// ID is a server-generated UUID (RFC 4122 v4)
	ID string `gorm:"primaryKey;type:text;not null" json:"id"`

	DeviceID   uint `gorm:"not null;index;constraint:OnDelete:CASCADE" json:"device_id"`
	FirmwareID uint `gorm:"not null;index;constraint:OnDelete:CASCADE" json:"firmware_id"`

	// Status is one of downloading (offer recorded), success, failed
	Status string `gorm:"type:text;size:16;not null" json:"status"`

	// Error carries the device-reported failure text, if any
	Error *string `gorm:"type:text;size:512" json:"error,omitempty"`

	CreatedAt time.Time `gorm:"type:datetime;not null" json:"created_at"`
}

// TableName overrides the default table name for GORM
func (DownloadLog) TableName() string {
	return "download_log"
}

// BeforeCreate is a GORM hook that assigns the UUID and pins CreatedAt to UTC
func (l *DownloadLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	l.CreatedAt = time.Now().UTC()
	return nil
}

// IsValidDownloadStatus checks if the status is a known download state
func IsValidDownloadStatus(status string) bool {
	switch status {
	case DownloadStatusDownloading, DownloadStatusSuccess, DownloadStatusFailed:
		return true
	default:
		return false
	}
}
