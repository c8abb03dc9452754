package engine

import (
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/fleetlab/ota-server/internal/models"
	"github.com/rs/zerolog"
)

// FallbackLabel is the implicit audience for devices with no explicit
// labels. It is used for matching only and is never persisted on a device.
const FallbackLabel = "general"

// Engine is the pure targeting decision logic: given a device's label set
// and current version plus a snapshot of rollouts, it picks at most one
// firmware to offer. It performs no I/O and never fails; "no update" is a
// valid outcome, not an error.
type Engine struct {
	log zerolog.Logger
}

// New creates a targeting engine
func New(logger zerolog.Logger) *Engine {
	return &Engine{log: logger.With().Str("component", "engine").Logger()}
}

// EffectiveLabels returns the label set used for rollout matching: the
// device's own labels, or {FallbackLabel} when the device has none.
func EffectiveLabels(deviceLabels []string) []string {
	if len(deviceLabels) == 0 {
		return []string{FallbackLabel}
	}
	return deviceLabels
}

// SelectUpdate picks the single best firmware to offer, or (nil, nil).
//
// A rollout is considered only when it is active-eligible (status active and
// is_active set) and its target label is nil or a member of the device's
// effective label set. The device's current version is the selection floor:
// a candidate qualifies only if its version is strictly greater. A missing
// or unparsable current version means no floor, so any candidate qualifies;
// a device with a corrupt version string must still be recoverable over the
// air. Among qualifying candidates the highest semantic version wins, ties
// broken by rollout name ascending.
func (e *Engine) SelectUpdate(deviceLabels []string, currentVersion string, rollouts []models.Rollout) (*models.Firmware, *models.Rollout) {
	effective := EffectiveLabels(deviceLabels)
	labelSet := make(map[string]struct{}, len(effective))
	for _, name := range effective {
		labelSet[name] = struct{}{}
	}

	floor := parseVersion(currentVersion)
	if floor == nil && currentVersion != "" {
		e.log.Debug().Str("current_version", currentVersion).
			Msg("Current version unparsable; treating as no floor")
	}

	// Stable order regardless of how the snapshot was enumerated
	ordered := make([]models.Rollout, len(rollouts))
	copy(ordered, rollouts)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Name < ordered[j].Name
	})

	var (
		selectedFirmware *models.Firmware
		selectedRollout  *models.Rollout
		selectedVersion  *semver.Version
	)

	for i := range ordered {
		rollout := &ordered[i]
		if !rollout.IsEligible() {
			continue
		}
		if rollout.TargetLabel != nil {
			if _, ok := labelSet[rollout.TargetLabel.Name]; !ok {
				continue
			}
		}

		candidate := parseVersion(rollout.Firmware.Version)
		if candidate == nil {
			e.log.Warn().Str("rollout", rollout.Name).
				Str("version", rollout.Firmware.Version).
				Msg("Skipping rollout with unparsable firmware version")
			continue
		}
		if floor != nil && !candidate.GreaterThan(floor) {
			e.log.Debug().Str("rollout", rollout.Name).
				Str("firmware", rollout.Firmware.Version).
				Str("current", currentVersion).
				Msg("Skipping rollout; firmware not newer than current version")
			continue
		}
		if selectedVersion == nil || candidate.GreaterThan(selectedVersion) {
			selectedFirmware = &rollout.Firmware
			selectedRollout = rollout
			selectedVersion = candidate
		}
	}

	if selectedFirmware != nil {
		e.log.Debug().Str("rollout", selectedRollout.Name).
			Str("firmware", selectedFirmware.Version).
			Msg("Selected firmware for device")
	}

	return selectedFirmware, selectedRollout
}

// parseVersion returns nil for empty or malformed version strings
func parseVersion(v string) *semver.Version {
	if v == "" {
		return nil
	}
	parsed, err := semver.NewVersion(v)
	if err != nil {
		return nil
	}
	return parsed
}
