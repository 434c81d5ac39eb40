// Package config holds the stabilization settings model: a JSON tuning
// file with optional fields, defaulted accessors, boundary clamping and
// a mutable store the engine snapshots once per tick.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Default tuning values. Out-of-range inputs are clamped at this
// boundary; the filter tiers and timers assume validated values.
const (
	DefaultSensitivity              = 5
	DefaultWindowMs                 = 8000
	DefaultMovementThresholdPx      = 2.0
	DefaultDwellMs                  = 1000
	DefaultTargetSizeMultiplier     = 1.5
	DefaultHoverExpansionFactor     = 1.2
	DefaultDoubleActivationWindowMs = 500

	MinSensitivity = 1
	MaxSensitivity = 10
	MinWindowMs    = 250
	MaxWindowMs    = 60_000
	MinDwellMs     = 100
	MaxDwellMs     = 10_000
)

// Settings is the validated, immutable per-tick snapshot of the
// stabilization configuration. The engine never reads the mutable
// store mid-event; it takes one Settings value per tick.
type Settings struct {
	Enabled                  bool    `json:"enabled"`
	Sensitivity              int     `json:"sensitivity"` // 1–10, selects the filter tier
	WindowMs                 int64   `json:"window_ms"`
	MovementThresholdPx      float64 `json:"movement_threshold_px"`
	DwellEnabled             bool    `json:"dwell_enabled"`
	DwellMs                  int64   `json:"dwell_ms"`
	TargetSizeMultiplier     float64 `json:"target_size_multiplier"`
	HoverExpansionFactor     float64 `json:"hover_expansion_factor"`
	DoubleActivationWindowMs int64   `json:"double_activation_window_ms"`
	LargeTargets             bool    `json:"large_targets"`

	// HealthcareMode makes ambiguous mid-range tremor frequencies
	// classify as stress_related. Policy flag of unverified clinical
	// validity; off by default.
	HealthcareMode bool `json:"healthcare_mode"`
}

// DefaultSettings returns the engine defaults.
func DefaultSettings() Settings {
	return Settings{
		Enabled:                  true,
		Sensitivity:              DefaultSensitivity,
		WindowMs:                 DefaultWindowMs,
		MovementThresholdPx:      DefaultMovementThresholdPx,
		DwellEnabled:             true,
		DwellMs:                  DefaultDwellMs,
		TargetSizeMultiplier:     DefaultTargetSizeMultiplier,
		HoverExpansionFactor:     DefaultHoverExpansionFactor,
		DoubleActivationWindowMs: DefaultDoubleActivationWindowMs,
	}
}

// Clamp forces every field into its valid range. Clamping happens here,
// at the settings boundary, never at consumption.
func (s *Settings) Clamp() {
	s.Sensitivity = clampInt(s.Sensitivity, MinSensitivity, MaxSensitivity)
	s.WindowMs = clampInt64(s.WindowMs, MinWindowMs, MaxWindowMs)
	s.DwellMs = clampInt64(s.DwellMs, MinDwellMs, MaxDwellMs)
	if s.MovementThresholdPx < 0 {
		s.MovementThresholdPx = 0
	}
	if s.TargetSizeMultiplier < 1 {
		s.TargetSizeMultiplier = 1
	}
	if s.TargetSizeMultiplier > 3 {
		s.TargetSizeMultiplier = 3
	}
	if s.HoverExpansionFactor < 1 {
		s.HoverExpansionFactor = 1
	}
	if s.HoverExpansionFactor > 2 {
		s.HoverExpansionFactor = 2
	}
	if s.DoubleActivationWindowMs < 0 {
		s.DoubleActivationWindowMs = 0
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// File represents an on-disk settings override file. All fields are
// optional; fields omitted from the JSON retain their defaults, so
// partial configs are safe. The schema matches the host settings
// panel payload so the same JSON serves startup and runtime updates.
type File struct {
	Enabled                  *bool    `json:"enabled,omitempty"`
	Sensitivity              *int     `json:"sensitivity,omitempty"`
	WindowMs                 *int64   `json:"window_ms,omitempty"`
	MovementThresholdPx      *float64 `json:"movement_threshold_px,omitempty"`
	DwellEnabled             *bool    `json:"dwell_enabled,omitempty"`
	DwellMs                  *int64   `json:"dwell_ms,omitempty"`
	TargetSizeMultiplier     *float64 `json:"target_size_multiplier,omitempty"`
	HoverExpansionFactor     *float64 `json:"hover_expansion_factor,omitempty"`
	DoubleActivationWindowMs *int64   `json:"double_activation_window_ms,omitempty"`
	LargeTargets             *bool    `json:"large_targets,omitempty"`
	HealthcareMode           *bool    `json:"healthcare_mode,omitempty"`
}

// LoadFile reads a settings override file. The path must have a .json
// extension and the file is size-capped for safety.
func LoadFile(path string) (*File, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("settings file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat settings file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("settings file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse settings JSON: %w", err)
	}
	return &f, nil
}

// Apply overlays the file's set fields onto base and clamps the result.
func (f *File) Apply(base Settings) Settings {
	out := base
	if f.Enabled != nil {
		out.Enabled = *f.Enabled
	}
	if f.Sensitivity != nil {
		out.Sensitivity = *f.Sensitivity
	}
	if f.WindowMs != nil {
		out.WindowMs = *f.WindowMs
	}
	if f.MovementThresholdPx != nil {
		out.MovementThresholdPx = *f.MovementThresholdPx
	}
	if f.DwellEnabled != nil {
		out.DwellEnabled = *f.DwellEnabled
	}
	if f.DwellMs != nil {
		out.DwellMs = *f.DwellMs
	}
	if f.TargetSizeMultiplier != nil {
		out.TargetSizeMultiplier = *f.TargetSizeMultiplier
	}
	if f.HoverExpansionFactor != nil {
		out.HoverExpansionFactor = *f.HoverExpansionFactor
	}
	if f.DoubleActivationWindowMs != nil {
		out.DoubleActivationWindowMs = *f.DoubleActivationWindowMs
	}
	if f.LargeTargets != nil {
		out.LargeTargets = *f.LargeTargets
	}
	if f.HealthcareMode != nil {
		out.HealthcareMode = *f.HealthcareMode
	}
	out.Clamp()
	return out
}

// LoadSettings builds validated settings from defaults plus an optional
// override file. An empty path yields the defaults.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	if path == "" {
		s.Clamp()
		return s, nil
	}
	f, err := LoadFile(path)
	if err != nil {
		return Settings{}, err
	}
	return f.Apply(s), nil
}
