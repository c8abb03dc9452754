package services

import (
	"context"
	"fmt"

	"github.com/fleetlab/ota-server/internal/models"
	"github.com/fleetlab/ota-server/internal/repositories"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// RolloutNotifier is notified of rollout lifecycle events. A nil notifier
// disables notifications.
type RolloutNotifier interface {
	RolloutActivated(ctx context.Context, rollout *models.Rollout)
	RolloutCompleted(ctx context.Context, rollout *models.Rollout)
}

// RolloutService handles rollout administration: creation and lifecycle
// transitions.
type RolloutService struct {
	db       *gorm.DB
	notifier RolloutNotifier
	log      zerolog.Logger
}

// NewRolloutService creates a new rollout service instance
func NewRolloutService(db *gorm.DB, notifier RolloutNotifier, logger zerolog.Logger) *RolloutService {
	return &RolloutService{
		db:       db,
		notifier: notifier,
		log:      logger.With().Str("component", "rollout").Logger(),
	}
}

// CreateRequest describes a rollout to create
type CreateRequest struct {
	Name            string
	FirmwareVersion string

	// TargetLabel restricts the rollout to devices carrying the label;
	// nil targets every device. The label must already exist.
	TargetLabel *string

	// Stage is pilot or general (informational); empty defaults to general
	Stage string

	// Activate creates the rollout directly in the active state
	Activate bool
}

// Create registers a new rollout campaign. The firmware version and target
// label (when given) must resolve; a duplicate rollout name is rejected
// with repositories.ErrConflict.
func (s *RolloutService) Create(req *CreateRequest) (*models.Rollout, error) {
	stage := req.Stage
	if stage == "" {
		stage = models.RolloutStageGeneral
	}
	if !models.IsValidRolloutStage(stage) {
		return nil, fmt.Errorf("invalid rollout stage: %s", stage)
	}

	var rollout *models.Rollout
	err := s.db.Transaction(func(tx *gorm.DB) error {
		firmwares := repositories.NewFirmwareRepository(tx)
		labels := repositories.NewLabelRepository(tx)
		rollouts := repositories.NewRolloutRepository(tx)

		firmware, err := firmwares.FindByVersion(req.FirmwareVersion)
		if err != nil {
			return err
		}

		var targetLabelID *uint
		if req.TargetLabel != nil && *req.TargetLabel != "" {
			label, err := labels.FindByName(*req.TargetLabel)
			if err != nil {
				return err
			}
			targetLabelID = &label.ID
		}

		status := models.RolloutStatusDraft
		if req.Activate {
			status = models.RolloutStatusActive
		}

		rollout = &models.Rollout{
			Name:          req.Name,
			FirmwareID:    firmware.ID,
			Firmware:      *firmware,
			TargetLabelID: targetLabelID,
			Stage:         stage,
			Status:        status,
		}
		return rollouts.Create(rollout)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("rollout", rollout.Name).
		Str("firmware", req.FirmwareVersion).
		Bool("active", rollout.IsActive).
		Msg("Created rollout")

	if req.Activate && s.notifier != nil {
		s.notifier.RolloutActivated(context.Background(), rollout)
	}

	return rollout, nil
}

// SetStatus transitions a rollout's lifecycle state by name and fires the
// matching notification on activation or completion.
func (s *RolloutService) SetStatus(name, status string) (*models.Rollout, error) {
	if !models.IsValidRolloutStatus(status) {
		return nil, fmt.Errorf("invalid rollout status: %s", status)
	}

	var rollout *models.Rollout
	err := s.db.Transaction(func(tx *gorm.DB) error {
		rollouts := repositories.NewRolloutRepository(tx)
		found, err := rollouts.FindByName(name)
		if err != nil {
			return err
		}
		if err := rollouts.SetStatus(found, status); err != nil {
			return err
		}
		rollout = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("rollout", name).
		Str("status", status).
		Msg("Updated rollout status")

	if s.notifier != nil {
		switch status {
		case models.RolloutStatusActive:
			s.notifier.RolloutActivated(context.Background(), rollout)
		case models.RolloutStatusCompleted:
			s.notifier.RolloutCompleted(context.Background(), rollout)
		}
	}

	return rollout, nil
}
