package repositories

import (
	"fmt"
	"time"

	"github.com/fleetlab/ota-server/internal/models"
	"gorm.io/gorm"
)

// RolloutRepository handles database operations for rollouts
type RolloutRepository struct {
	db *gorm.DB
}

// NewRolloutRepository creates a new rollout repository instance
func NewRolloutRepository(db *gorm.DB) *RolloutRepository {
	return &RolloutRepository{db: db}
}

// Create inserts a new rollout. Rollout names are unique; a duplicate name
// fails with ErrConflict and creates no partial state.
func (r *RolloutRepository) Create(rollout *models.Rollout) error {
	if rollout == nil {
		return fmt.Errorf("rollout cannot be nil")
	}
	if rollout.Name == "" {
		return fmt.Errorf("rollout name is required")
	}

	var count int64
	if err := r.db.Model(&models.Rollout{}).Where("name = ?", rollout.Name).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check rollout name: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("rollout %q: %w", rollout.Name, ErrConflict)
	}

	rollout.IsActive = rollout.Status == models.RolloutStatusActive
	if rollout.IsActive && rollout.StartAt == nil {
		now := time.Now().UTC()
		rollout.StartAt = &now
	}

	if err := r.db.Create(rollout).Error; err != nil {
		return fmt.Errorf("failed to create rollout: %w", err)
	}

	return nil
}

// FindByName retrieves a rollout by its unique name, with firmware and
// target label preloaded
func (r *RolloutRepository) FindByName(name string) (*models.Rollout, error) {
	if name == "" {
		return nil, fmt.Errorf("rollout name is required")
	}

	var rollout models.Rollout
	err := r.db.Preload("Firmware").Preload("TargetLabel").
		Where("name = ?", name).First(&rollout).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("rollout %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find rollout: %w", err)
	}

	return &rollout, nil
}

// ListActiveForLabels returns the active-eligible rollouts
// (status = active AND is_active) whose target label is either NULL or one
// of the given label names. Results are ordered by rollout name so that
// downstream selection is deterministic. The caller supplies the effective
// label set; an empty set matches only untargeted rollouts.
func (r *RolloutRepository) ListActiveForLabels(labelNames []string) ([]models.Rollout, error) {
	query := r.db.Preload("Firmware").Preload("TargetLabel").
		Joins("LEFT JOIN labels ON labels.id = rollouts.target_label_id").
		Where("rollouts.status = ? AND rollouts.is_active = ?", models.RolloutStatusActive, true)

	if len(labelNames) > 0 {
		query = query.Where("rollouts.target_label_id IS NULL OR labels.name IN ?", labelNames)
	} else {
		query = query.Where("rollouts.target_label_id IS NULL")
	}

	var rollouts []models.Rollout
	if err := query.Order("rollouts.name ASC").Find(&rollouts).Error; err != nil {
		return nil, fmt.Errorf("failed to list active rollouts: %w", err)
	}

	return rollouts, nil
}

// SetStatus transitions the rollout lifecycle and keeps the paired fields
// consistent: activating sets is_active, pausing and completing clear it,
// start_at is set exactly once on first activation, and end_at is set on
// transition to completed.
func (r *RolloutRepository) SetStatus(rollout *models.Rollout, status string) error {
	if rollout == nil {
		return fmt.Errorf("rollout cannot be nil")
	}
	if !models.IsValidRolloutStatus(status) {
		return fmt.Errorf("invalid rollout status: %s", status)
	}

	rollout.Status = status
	switch status {
	case models.RolloutStatusActive:
		rollout.IsActive = true
	case models.RolloutStatusPaused, models.RolloutStatusCompleted:
		rollout.IsActive = false
	}

	now := time.Now().UTC()
	if rollout.IsActive && rollout.StartAt == nil {
		rollout.StartAt = &now
	}
	if status == models.RolloutStatusCompleted {
		rollout.EndAt = &now
	}

	if err := r.db.Model(rollout).Updates(map[string]any{
		"status":     rollout.Status,
		"is_active":  rollout.IsActive,
		"start_at":   rollout.StartAt,
		"end_at":     rollout.EndAt,
		"updated_at": now,
	}).Error; err != nil {
		return fmt.Errorf("failed to update rollout status: %w", err)
	}

	return nil
}

// List retrieves all rollouts with firmware and target label preloaded
func (r *RolloutRepository) List() ([]models.Rollout, error) {
	var rollouts []models.Rollout
	err := r.db.Preload("Firmware").Preload("TargetLabel").
		Order("name ASC").Find(&rollouts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list rollouts: %w", err)
	}
	return rollouts, nil
}
