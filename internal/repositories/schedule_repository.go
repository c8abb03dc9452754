package repositories

import (
	"fmt"

	"github.com/fleetlab/ota-server/internal/models"
	"gorm.io/gorm"
)

// ScheduleRepository handles database operations for rollout schedules
type ScheduleRepository struct {
	db *gorm.DB
}

// NewScheduleRepository creates a new schedule repository instance
func NewScheduleRepository(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Upsert creates or updates the schedule row keyed by name, setting cron,
// enabled and rollout reference. Called once per declared entry during
// reconciliation.
func (r *ScheduleRepository) Upsert(name, cronExpr string, enabled bool, rolloutID uint) (*models.Schedule, error) {
	if name == "" {
		return nil, fmt.Errorf("schedule name is required")
	}
	if cronExpr == "" {
		return nil, fmt.Errorf("cron expression is required")
	}

	var schedule models.Schedule
	err := r.db.Where("name = ?", name).First(&schedule).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		schedule = models.Schedule{
			Name:      name,
			Cron:      cronExpr,
			Enabled:   enabled,
			RolloutID: rolloutID,
		}
		if err := r.db.Create(&schedule).Error; err != nil {
			return nil, fmt.Errorf("failed to create schedule: %w", err)
		}
		// gorm substitutes the column default (true) for a zero bool on
		// insert, so a disabled schedule needs an explicit follow-up write.
		if !enabled {
			if err := r.db.Model(&schedule).Update("enabled", false).Error; err != nil {
				return nil, fmt.Errorf("failed to update schedule: %w", err)
			}
			schedule.Enabled = false
		}
	case err != nil:
		return nil, fmt.Errorf("failed to find schedule: %w", err)
	default:
		schedule.Cron = cronExpr
		schedule.Enabled = enabled
		schedule.RolloutID = rolloutID
		if err := r.db.Model(&schedule).Updates(map[string]any{
			"cron":       cronExpr,
			"enabled":    enabled,
			"rollout_id": rolloutID,
		}).Error; err != nil {
			return nil, fmt.Errorf("failed to update schedule: %w", err)
		}
	}

	return &schedule, nil
}

// FindByName retrieves a schedule by its unique name
func (r *ScheduleRepository) FindByName(name string) (*models.Schedule, error) {
	if name == "" {
		return nil, fmt.Errorf("schedule name is required")
	}

	var schedule models.Schedule
	if err := r.db.Where("name = ?", name).First(&schedule).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("schedule %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find schedule: %w", err)
	}

	return &schedule, nil
}

// List retrieves all schedules ordered by name
func (r *ScheduleRepository) List() ([]models.Schedule, error) {
	var schedules []models.Schedule
	if err := r.db.Order("name ASC").Find(&schedules).Error; err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return schedules, nil
}
