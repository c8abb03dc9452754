package services

import (
	"fmt"

	"github.com/fleetlab/ota-server/internal/engine"
	"github.com/fleetlab/ota-server/internal/manifest"
	"github.com/fleetlab/ota-server/internal/models"
	"github.com/fleetlab/ota-server/internal/repositories"
	"github.com/fleetlab/ota-server/internal/validators"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// CheckinService handles the device check-in flow: registering or refreshing
// the device, running the targeting engine and recording offered downloads.
type CheckinService struct {
	db                  *gorm.DB
	engine              *engine.Engine
	baseURL             string
	pollIntervalMinutes int
	log                 zerolog.Logger
}

// NewCheckinService creates a new check-in service instance
func NewCheckinService(db *gorm.DB, eng *engine.Engine, baseURL string, pollIntervalMinutes int, logger zerolog.Logger) *CheckinService {
	return &CheckinService{
		db:                  db,
		engine:              eng,
		baseURL:             baseURL,
		pollIntervalMinutes: pollIntervalMinutes,
		log:                 logger.With().Str("component", "checkin").Logger(),
	}
}

// CheckUpdateRequest is the device poll payload
type CheckUpdateRequest struct {
	MAC            string         `json:"mac" binding:"required"`
	CurrentVersion string         `json:"current_version" binding:"required"`
	Labels         []string       `json:"labels"`
	Meta           map[string]any `json:"meta,omitempty"`
}

// CheckUpdateResponse is the poll reply; Manifest is set only when an
// update is offered
type CheckUpdateResponse struct {
	UpdateAvailable     bool               `json:"update_available"`
	Manifest            *manifest.Manifest `json:"manifest,omitempty"`
	PollIntervalMinutes int                `json:"poll_interval_minutes"`
}

// ReportStatusRequest is the device's install outcome report
type ReportStatusRequest struct {
	MAC             string  `json:"mac" binding:"required"`
	FirmwareVersion string  `json:"firmware_version" binding:"required"`
	Status          string  `json:"status" binding:"required"`
	Error           *string `json:"error,omitempty"`
}

// CheckUpdate processes one device poll:
//  1. Normalize the MAC and upsert the device (IP, version, meta, last_seen)
//  2. Replace the device's labels with the submitted set (empty set leaves
//     existing labels untouched)
//  3. Run the targeting engine over the active-eligible rollout snapshot
//  4. On an offer, record a "downloading" audit entry and build the manifest
//
// The whole flow runs in a single transaction so concurrent check-ins never
// observe partially-updated device state.
func (s *CheckinService) CheckUpdate(req *CheckUpdateRequest, deviceIP string) (*CheckUpdateResponse, error) {
	mac, err := validators.NormalizeMAC(req.MAC)
	if err != nil {
		return nil, err
	}

	var resp *CheckUpdateResponse
	err = s.db.Transaction(func(tx *gorm.DB) error {
		devices := repositories.NewDeviceRepository(tx)
		labels := repositories.NewLabelRepository(tx)
		rollouts := repositories.NewRolloutRepository(tx)
		downloads := repositories.NewDownloadLogRepository(tx)

		var ip *string
		if deviceIP != "" {
			ip = &deviceIP
		}

		device, err := devices.Upsert(mac, ip, req.CurrentVersion, req.Meta)
		if err != nil {
			return err
		}

		resolved, err := labels.EnsureLabels(req.Labels)
		if err != nil {
			return err
		}
		if err := devices.ReplaceLabels(device, resolved); err != nil {
			return err
		}

		labelNames := devices.LabelNames(device)
		snapshot, err := rollouts.ListActiveForLabels(engine.EffectiveLabels(labelNames))
		if err != nil {
			return err
		}

		firmware, rollout := s.engine.SelectUpdate(labelNames, req.CurrentVersion, snapshot)
		if firmware == nil {
			s.log.Debug().Str("mac", mac).Msg("No update available for device")
			resp = &CheckUpdateResponse{
				UpdateAvailable:     false,
				PollIntervalMinutes: s.pollIntervalMinutes,
			}
			return nil
		}

		if _, err := downloads.Record(device.ID, firmware.ID, models.DownloadStatusDownloading, nil); err != nil {
			return err
		}

		s.log.Info().
			Str("mac", mac).
			Str("firmware", firmware.Version).
			Str("rollout", rollout.Name).
			Msg("Offering firmware to device")

		m := manifest.Build(s.baseURL, firmware)
		resp = &CheckUpdateResponse{
			UpdateAvailable:     true,
			Manifest:            &m,
			PollIntervalMinutes: s.pollIntervalMinutes,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("check-update failed: %w", err)
	}

	return resp, nil
}

// ReportStatus records a device's install outcome. The device's current
// version advances only on success; a failure report leaves it unchanged.
// Unknown devices and untracked firmware surface repositories.ErrNotFound.
func (s *CheckinService) ReportStatus(req *ReportStatusRequest) error {
	mac, err := validators.NormalizeMAC(req.MAC)
	if err != nil {
		return err
	}
	if err := validators.ValidateReportStatus(req.Status, "status"); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		devices := repositories.NewDeviceRepository(tx)
		firmwares := repositories.NewFirmwareRepository(tx)
		downloads := repositories.NewDownloadLogRepository(tx)

		device, err := devices.FindByMAC(mac)
		if err != nil {
			return err
		}
		firmware, err := firmwares.FindByVersion(req.FirmwareVersion)
		if err != nil {
			return err
		}

		if _, err := downloads.Record(device.ID, firmware.ID, req.Status, req.Error); err != nil {
			return err
		}

		if req.Status == models.DownloadStatusSuccess {
			if err := devices.UpdateCurrentVersion(device, req.FirmwareVersion); err != nil {
				return err
			}
		} else {
			if err := devices.TouchLastSeen(device); err != nil {
				return err
			}
		}

		s.log.Info().
			Str("mac", mac).
			Str("firmware", req.FirmwareVersion).
			Str("status", req.Status).
			Msg("Device reported install outcome")
		return nil
	})
}
