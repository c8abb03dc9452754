package models

// Schedule binds a rollout to a recurring cron trigger. Rows are upserted
// from the declarative schedules file during reconciliation; a rollout has
// at most one schedule.
type Schedule struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Name is the unique schedule name; it doubles as the live timer
	// identifier in the scheduler
	Name string `gorm:"type:text;size:64;uniqueIndex;not null" json:"name"`

	// Cron is the trigger in standard 5-field crontab syntax
	Cron string `gorm:"type:text;size:64;not null" json:"cron"`

	// Enabled gates timer registration; disabled schedules keep their row
	// but get no live timer
	Enabled bool `gorm:"not null;default:true" json:"enabled"`

	// RolloutID references the rollout activated when the timer fires
	RolloutID uint    `gorm:"not null;uniqueIndex;constraint:OnDelete:CASCADE" json:"rollout_id"`
	Rollout   Rollout `gorm:"foreignKey:RolloutID" json:"-"`
}

// TableName overrides the default table name for GORM
func (Schedule) TableName() string {
	return "schedules"
}
