package services

import (
	"fmt"
	"os"

	"github.com/fleetlab/ota-server/internal/models"
	"github.com/fleetlab/ota-server/internal/repositories"
	"github.com/fleetlab/ota-server/internal/storage"
	"github.com/fleetlab/ota-server/internal/validators"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// FirmwareService handles firmware ingestion: copying the image into the
// storage root, digesting it and registering the immutable record.
type FirmwareService struct {
	db    *gorm.DB
	store *storage.Store
	log   zerolog.Logger
}

// NewFirmwareService creates a new firmware service instance
func NewFirmwareService(db *gorm.DB, store *storage.Store, logger zerolog.Logger) *FirmwareService {
	return &FirmwareService{
		db:    db,
		store: store,
		log:   logger.With().Str("component", "firmware").Logger(),
	}
}

// RegisterRequest describes a firmware build to ingest
type RegisterRequest struct {
	// SourcePath is the local path of the image to ingest
	SourcePath string

	// Version is the unique semantic version of the build
	Version string

	Channel      *string
	ReleaseNotes *string
	PilotReady   bool
}

// Register ingests a firmware image and creates its record. The version
// must be valid semver and unused; duplicate versions are rejected with
// repositories.ErrConflict before any record is created, and the stored
// copy is removed so no orphaned file remains.
func (s *FirmwareService) Register(req *RegisterRequest) (*models.Firmware, error) {
	if err := validators.ValidateFirmwareVersion(req.Version, "version"); err != nil {
		return nil, err
	}

	storedPath, size, digest, err := s.store.StoreFirmwareFile(req.SourcePath, req.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to store firmware file: %w", err)
	}

	firmware := &models.Firmware{
		Version:      req.Version,
		Channel:      req.Channel,
		FilePath:     storedPath,
		SizeBytes:    size,
		SHA256:       digest,
		ReleaseNotes: req.ReleaseNotes,
		PilotReady:   req.PilotReady,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return repositories.NewFirmwareRepository(tx).Create(firmware)
	})
	if err != nil {
		os.Remove(storedPath)
		return nil, err
	}

	s.log.Info().
		Str("version", firmware.Version).
		Str("sha256", firmware.SHA256).
		Int64("size_bytes", firmware.SizeBytes).
		Msg("Registered firmware")
	return firmware, nil
}
