// Package config holds the session configuration for sync runs. The
// schema is plain JSON so the same file can seed both the CLI and the
// monitoring server; fields omitted from the file keep their defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Default values applied when a field is absent from the config file.
const (
	DefaultGapThresholdSeconds = 0.2
	DefaultVideoWidth          = 1920
	DefaultVideoHeight         = 1080
	DefaultFOVDeg              = 100.0
	DefaultAxisLengthMeters    = 0.1
	DefaultCalibrationPath     = "config/calibration.json"
	DefaultDatabasePath        = "videosync.db"
)

// SessionConfig represents the root configuration for a sync session.
// Pointer fields distinguish "absent" from zero so partial configs are
// safe to load.
type SessionConfig struct {
	// Alignment params
	OffsetSeconds       *float64 `json:"offset_seconds,omitempty"`
	GapThresholdSeconds *float64 `json:"gap_threshold_seconds,omitempty"`

	// Camera params
	VideoWidth  *int     `json:"video_width,omitempty"`
	VideoHeight *int     `json:"video_height,omitempty"`
	FOVDeg      *float64 `json:"fov_deg,omitempty"`

	// Overlay params
	AxisLengthMeters *float64 `json:"axis_length_meters,omitempty"`

	// Run params
	Workers         *int    `json:"workers,omitempty"`
	CalibrationPath *string `json:"calibration_path,omitempty"`
	DatabasePath    *string `json:"database_path,omitempty"`
}

// Load reads a SessionConfig from a JSON file. Fields omitted from the
// file retain their defaults via the Get* methods.
func Load(path string) (*SessionConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &SessionConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that every provided field is usable.
func (c *SessionConfig) Validate() error {
	if c.GapThresholdSeconds != nil && *c.GapThresholdSeconds < 0 {
		return fmt.Errorf("gap_threshold_seconds must be >= 0, got %v", *c.GapThresholdSeconds)
	}
	if c.VideoWidth != nil && *c.VideoWidth <= 0 {
		return fmt.Errorf("video_width must be positive, got %d", *c.VideoWidth)
	}
	if c.VideoHeight != nil && *c.VideoHeight <= 0 {
		return fmt.Errorf("video_height must be positive, got %d", *c.VideoHeight)
	}
	if c.FOVDeg != nil && (*c.FOVDeg <= 0 || *c.FOVDeg >= 180) {
		return fmt.Errorf("fov_deg must be in (0, 180), got %v", *c.FOVDeg)
	}
	if c.AxisLengthMeters != nil && *c.AxisLengthMeters <= 0 {
		return fmt.Errorf("axis_length_meters must be positive, got %v", *c.AxisLengthMeters)
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", *c.Workers)
	}
	return nil
}

// GetOffsetSeconds returns the clock offset added to every video
// timestamp, 0 when unset.
func (c *SessionConfig) GetOffsetSeconds() float64 {
	if c.OffsetSeconds != nil {
		return *c.OffsetSeconds
	}
	return 0
}

// GetGapThresholdSeconds returns the bracket interval beyond which a
// match is flagged as a recording gap.
func (c *SessionConfig) GetGapThresholdSeconds() float64 {
	if c.GapThresholdSeconds != nil {
		return *c.GapThresholdSeconds
	}
	return DefaultGapThresholdSeconds
}

// GetVideoWidth returns the video frame width in pixels.
func (c *SessionConfig) GetVideoWidth() int {
	if c.VideoWidth != nil {
		return *c.VideoWidth
	}
	return DefaultVideoWidth
}

// GetVideoHeight returns the video frame height in pixels.
func (c *SessionConfig) GetVideoHeight() int {
	if c.VideoHeight != nil {
		return *c.VideoHeight
	}
	return DefaultVideoHeight
}

// GetFOVDeg returns the horizontal field of view in degrees.
func (c *SessionConfig) GetFOVDeg() float64 {
	if c.FOVDeg != nil {
		return *c.FOVDeg
	}
	return DefaultFOVDeg
}

// GetAxisLengthMeters returns the gizmo axis length for overlays.
func (c *SessionConfig) GetAxisLengthMeters() float64 {
	if c.AxisLengthMeters != nil {
		return *c.AxisLengthMeters
	}
	return DefaultAxisLengthMeters
}

// GetWorkers returns the worker count for batch runs; one worker per
// CPU when unset or zero.
func (c *SessionConfig) GetWorkers() int {
	if c.Workers != nil && *c.Workers > 0 {
		return *c.Workers
	}
	return runtime.NumCPU()
}

// GetCalibrationPath returns the calibration record location.
func (c *SessionConfig) GetCalibrationPath() string {
	if c.CalibrationPath != nil {
		return *c.CalibrationPath
	}
	return DefaultCalibrationPath
}

// GetDatabasePath returns the sqlite database location.
func (c *SessionConfig) GetDatabasePath() string {
	if c.DatabasePath != nil {
		return *c.DatabasePath
	}
	return DefaultDatabasePath
}
