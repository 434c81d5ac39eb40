package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampForcesRanges(t *testing.T) {
	t.Parallel()

	s := Settings{
		Sensitivity:              42,
		WindowMs:                 5,
		DwellMs:                  999_999,
		MovementThresholdPx:      -3,
		TargetSizeMultiplier:     9,
		HoverExpansionFactor:     0.1,
		DoubleActivationWindowMs: -100,
	}
	s.Clamp()
	assert.Equal(t, MaxSensitivity, s.Sensitivity)
	assert.Equal(t, int64(MinWindowMs), s.WindowMs)
	assert.Equal(t, int64(MaxDwellMs), s.DwellMs)
	assert.Zero(t, s.MovementThresholdPx)
	assert.Equal(t, 3.0, s.TargetSizeMultiplier)
	assert.Equal(t, 1.0, s.HoverExpansionFactor)
	assert.Zero(t, s.DoubleActivationWindowMs)

	low := Settings{Sensitivity: -5, WindowMs: MaxWindowMs + 1, DwellMs: 1}
	low.Clamp()
	assert.Equal(t, MinSensitivity, low.Sensitivity)
	assert.Equal(t, int64(MaxWindowMs), low.WindowMs)
	assert.Equal(t, int64(MinDwellMs), low.DwellMs)
}

func TestLoadSettingsDefaultsWithoutPath(t *testing.T) {
	t.Parallel()

	s, err := LoadSettings("")
	require.NoError(t, err)
	if diff := cmp.Diff(DefaultSettings(), s); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadSettingsPartialOverride(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"sensitivity": 9, "dwell_ms": 2000}`), 0o644))

	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, 9, s.Sensitivity)
	assert.Equal(t, int64(2000), s.DwellMs)
	// Omitted fields keep their defaults.
	assert.Equal(t, int64(DefaultWindowMs), s.WindowMs)
	assert.True(t, s.Enabled)
}

func TestLoadSettingsRejectsBadFiles(t *testing.T) {
	t.Parallel()

	t.Run("wrong extension", func(t *testing.T) {
		t.Parallel()
		_, err := LoadSettings("settings.yaml")
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadSettings(filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})

	t.Run("invalid json", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
		_, err := LoadSettings(path)
		assert.Error(t, err)
	})
}

func TestLoadSettingsClampsOutOfRangeValues(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"sensitivity": 99}`), 0o644))
	s, err := LoadSettings(path)
	require.NoError(t, err)
	// Clamped at the settings boundary, not at consumption.
	assert.Equal(t, MaxSensitivity, s.Sensitivity)
}

func TestStoreUpdateIsAtomicAndClamped(t *testing.T) {
	t.Parallel()

	st := NewStore(DefaultSettings())
	rev := st.Revision()

	applied := st.Update(func(s *Settings) {
		s.Sensitivity = 50
		s.Enabled = true
	})
	assert.Equal(t, MaxSensitivity, applied.Sensitivity)
	assert.True(t, applied.Enabled)
	assert.Equal(t, rev+1, st.Revision())

	snap := st.Snapshot()
	assert.Equal(t, applied, snap)
}
