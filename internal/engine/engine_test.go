package engine

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetlab/ota-server/internal/models"
)

func testEngine() *Engine {
	return New(zerolog.Nop())
}

func activeRollout(name, firmwareVersion string, targetLabel *string) models.Rollout {
	rollout := models.Rollout{
		Name:     name,
		Status:   models.RolloutStatusActive,
		IsActive: true,
		Firmware: models.Firmware{Version: firmwareVersion},
	}
	if targetLabel != nil {
		rollout.TargetLabel = &models.Label{Name: *targetLabel}
	}
	return rollout
}

func strPtr(s string) *string {
	return &s
}

func TestEffectiveLabels(t *testing.T) {
	assert.Equal(t, []string{"general"}, EffectiveLabels(nil))
	assert.Equal(t, []string{"general"}, EffectiveLabels([]string{}))
	assert.Equal(t, []string{"pilot", "lab"}, EffectiveLabels([]string{"pilot", "lab"}))
}

func TestSelectUpdateNoCandidates(t *testing.T) {
	firmware, rollout := testEngine().SelectUpdate([]string{"pilot"}, "1.0.0", nil)
	assert.Nil(t, firmware)
	assert.Nil(t, rollout)
}

func TestSelectUpdateVersionFloor(t *testing.T) {
	rollouts := []models.Rollout{
		activeRollout("r-old", "1.0.0", nil),
		activeRollout("r-same", "1.2.0", nil),
	}

	// Device already runs 1.2.0: neither an older nor an equal version
	// qualifies
	firmware, _ := testEngine().SelectUpdate(nil, "1.2.0", rollouts)
	assert.Nil(t, firmware)
}

func TestSelectUpdatePicksHighestVersion(t *testing.T) {
	rollouts := []models.Rollout{
		activeRollout("r-minor", "1.1.0", nil),
		activeRollout("r-major", "2.0.0", nil),
		activeRollout("r-patch", "1.0.1", nil),
	}

	firmware, rollout := testEngine().SelectUpdate(nil, "1.0.0", rollouts)
	require.NotNil(t, firmware)
	assert.Equal(t, "2.0.0", firmware.Version)
	assert.Equal(t, "r-major", rollout.Name)
}

func TestSelectUpdateTieBreakByRolloutName(t *testing.T) {
	rollouts := []models.Rollout{
		activeRollout("zeta", "2.0.0", nil),
		activeRollout("alpha", "2.0.0", nil),
	}

	_, rollout := testEngine().SelectUpdate(nil, "1.0.0", rollouts)
	require.NotNil(t, rollout)
	assert.Equal(t, "alpha", rollout.Name)

	// Input order must not matter
	_, rollout = testEngine().SelectUpdate(nil, "1.0.0", []models.Rollout{rollouts[1], rollouts[0]})
	assert.Equal(t, "alpha", rollout.Name)
}

func TestSelectUpdateLabelScoping(t *testing.T) {
	rollouts := []models.Rollout{
		activeRollout("pilot-only", "2.0.0", strPtr("pilot")),
		activeRollout("everyone", "1.5.0", nil),
	}

	// Unlabeled device matches only the untargeted rollout
	firmware, _ := testEngine().SelectUpdate(nil, "1.0.0", rollouts)
	require.NotNil(t, firmware)
	assert.Equal(t, "1.5.0", firmware.Version)

	// Pilot device sees both; the pilot rollout carries the higher version
	firmware, _ = testEngine().SelectUpdate([]string{"pilot"}, "1.0.0", rollouts)
	require.NotNil(t, firmware)
	assert.Equal(t, "2.0.0", firmware.Version)

	// Unrelated label behaves like no label
	firmware, _ = testEngine().SelectUpdate([]string{"warehouse"}, "1.0.0", rollouts)
	require.NotNil(t, firmware)
	assert.Equal(t, "1.5.0", firmware.Version)
}

func TestSelectUpdateGeneralFallbackLabel(t *testing.T) {
	rollouts := []models.Rollout{
		activeRollout("general-wave", "2.0.0", strPtr("general")),
	}

	// Device without labels is treated as {"general"} for matching
	firmware, _ := testEngine().SelectUpdate(nil, "1.0.0", rollouts)
	require.NotNil(t, firmware)
	assert.Equal(t, "2.0.0", firmware.Version)

	// An explicitly labeled device does not get the fallback
	firmware, _ = testEngine().SelectUpdate([]string{"pilot"}, "1.0.0", rollouts)
	assert.Nil(t, firmware)
}

func TestSelectUpdateSkipsIneligibleRollouts(t *testing.T) {
	paused := activeRollout("paused", "3.0.0", nil)
	paused.Status = models.RolloutStatusPaused
	paused.IsActive = false

	inconsistent := activeRollout("inconsistent", "3.0.0", nil)
	inconsistent.IsActive = false

	rollouts := []models.Rollout{
		paused,
		inconsistent,
		activeRollout("live", "2.0.0", nil),
	}

	firmware, rollout := testEngine().SelectUpdate(nil, "1.0.0", rollouts)
	require.NotNil(t, firmware)
	assert.Equal(t, "2.0.0", firmware.Version)
	assert.Equal(t, "live", rollout.Name)
}

func TestSelectUpdateUnparsableCurrentVersionMeansNoFloor(t *testing.T) {
	rollouts := []models.Rollout{
		activeRollout("recovery", "1.0.0", nil),
	}

	// A corrupt version string must not strand the device
	firmware, _ := testEngine().SelectUpdate(nil, "not-a-version", rollouts)
	require.NotNil(t, firmware)
	assert.Equal(t, "1.0.0", firmware.Version)

	firmware, _ = testEngine().SelectUpdate(nil, "", rollouts)
	require.NotNil(t, firmware)
}

func TestSelectUpdateSkipsUnparsableCandidate(t *testing.T) {
	rollouts := []models.Rollout{
		activeRollout("broken", "not.semver", nil),
		activeRollout("good", "1.1.0", nil),
	}

	firmware, rollout := testEngine().SelectUpdate(nil, "1.0.0", rollouts)
	require.NotNil(t, firmware)
	assert.Equal(t, "1.1.0", firmware.Version)
	assert.Equal(t, "good", rollout.Name)
}

func TestSelectUpdateDoesNotMutateInput(t *testing.T) {
	rollouts := []models.Rollout{
		activeRollout("zeta", "1.1.0", nil),
		activeRollout("alpha", "1.2.0", nil),
	}

	testEngine().SelectUpdate(nil, "1.0.0", rollouts)
	assert.Equal(t, "zeta", rollouts[0].Name)
	assert.Equal(t, "alpha", rollouts[1].Name)
}
