package models

import (
	"time"

	"gorm.io/gorm"
)

// RolloutStage constants. The stage is informational and does not affect
// targeting.
const (
	RolloutStagePilot   = "pilot"
	RolloutStageGeneral = "general"
)

// RolloutStatus constants for the rollout lifecycle:
// draft -> active -> {paused <-> active} -> completed (terminal).
// "scheduled" is reserved for a future pending-activation phase; nothing
// sets it today.
const (
	RolloutStatusDraft     = "draft"
	RolloutStatusScheduled = "scheduled"
	RolloutStatusActive    = "active"
	RolloutStatusPaused    = "paused"
	RolloutStatusCompleted = "completed"
)

// Rollout is a named campaign offering one firmware build to devices that
// match an optional target label. All timestamps are stored in UTC.
type Rollout struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Name is the unique campaign name
	Name string `gorm:"type:text;size:64;uniqueIndex;not null" json:"name"`

	// FirmwareID references the firmware build this rollout offers
	FirmwareID uint     `gorm:"not null;constraint:OnDelete:CASCADE" json:"firmware_id"`
	Firmware   Firmware `gorm:"foreignKey:FirmwareID" json:"firmware"`

	// TargetLabelID optionally restricts the rollout to devices carrying the
	// label. NULL targets every device
	TargetLabelID *uint  `gorm:"constraint:OnDelete:SET NULL" json:"target_label_id,omitempty"`
	TargetLabel   *Label `gorm:"foreignKey:TargetLabelID" json:"target_label,omitempty"`

	// Stage tags the rollout as pilot or general
	Stage string `gorm:"type:text;size:16;not null;default:general" json:"stage"`

	// Status is the lifecycle state (see RolloutStatus constants)
	Status string `gorm:"type:text;size:16;not null;default:draft" json:"status"`

	// IsActive must stay consistent with Status: activation sets both,
	// pausing and completing clear it
	IsActive bool `gorm:"not null;default:false" json:"is_active"`

	// StartAt is set once, the first time the rollout becomes active
	StartAt *time.Time `gorm:"type:datetime" json:"start_at,omitempty"`

	// EndAt is set on transition to completed
	EndAt *time.Time `gorm:"type:datetime" json:"end_at,omitempty"`

	CreatedAt time.Time `gorm:"type:datetime;not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:datetime;not null" json:"updated_at"`
}

// TableName overrides the default table name for GORM
func (Rollout) TableName() string {
	return "rollouts"
}

// BeforeCreate is a GORM hook that ensures timestamps are in UTC
func (r *Rollout) BeforeCreate(tx *gorm.DB) error {
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	return nil
}

// BeforeUpdate is a GORM hook that ensures UpdatedAt is in UTC
func (r *Rollout) BeforeUpdate(tx *gorm.DB) error {
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// IsEligible reports whether the rollout may be offered to devices.
// Both conditions must hold; status alone is not sufficient.
func (r *Rollout) IsEligible() bool {
	return r.Status == RolloutStatusActive && r.IsActive
}

// IsValidRolloutStatus checks if the status is a known lifecycle state
func IsValidRolloutStatus(status string) bool {
	switch status {
	case RolloutStatusDraft, RolloutStatusScheduled, RolloutStatusActive,
		RolloutStatusPaused, RolloutStatusCompleted:
		return true
	default:
		return false
	}
}

// IsValidRolloutStage checks if the stage is a known stage tag
func IsValidRolloutStage(stage string) bool {
	return stage == RolloutStagePilot || stage == RolloutStageGeneral
}
