package models

// Label is a tag attached to devices and optionally used as a rollout's
// target filter. Labels are created lazily the first time a device or
// rollout references them and are never deleted by the server.
type Label struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Name is the unique, trimmed label name (e.g. "pilot", "general")
	Name string `gorm:"type:text;size:64;uniqueIndex;not null" json:"name"`

	// Description is an optional human-readable note
	Description *string `gorm:"type:text;size:256" json:"description,omitempty"`
}

// TableName overrides the default table name for GORM
func (Label) TableName() string {
	return "labels"
}

// DeviceLabel is the join row linking a device to a label.
type DeviceLabel struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	DeviceID uint `gorm:"not null;uniqueIndex:uq_device_label;constraint:OnDelete:CASCADE" json:"device_id"`
	LabelID  uint `gorm:"not null;uniqueIndex:uq_device_label;constraint:OnDelete:CASCADE" json:"label_id"`

	Label Label `gorm:"foreignKey:LabelID" json:"label"`
}

// TableName overrides the default table name for GORM
func (DeviceLabel) TableName() string {
	return "device_labels"
}
