package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := &SessionConfig{}

	if got := cfg.GetOffsetSeconds(); got != 0 {
		t.Errorf("GetOffsetSeconds() = %v, want 0", got)
	}
	if got := cfg.GetGapThresholdSeconds(); got != 0.2 {
		t.Errorf("GetGapThresholdSeconds() = %v, want 0.2", got)
	}
	if got := cfg.GetVideoWidth(); got != 1920 {
		t.Errorf("GetVideoWidth() = %d, want 1920", got)
	}
	if got := cfg.GetVideoHeight(); got != 1080 {
		t.Errorf("GetVideoHeight() = %d, want 1080", got)
	}
	if got := cfg.GetFOVDeg(); got != 100 {
		t.Errorf("GetFOVDeg() = %v, want 100", got)
	}
	if got := cfg.GetWorkers(); got < 1 {
		t.Errorf("GetWorkers() = %d, want >= 1", got)
	}
	if got := cfg.GetCalibrationPath(); got != DefaultCalibrationPath {
		t.Errorf("GetCalibrationPath() = %q, want %q", got, DefaultCalibrationPath)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "session.json")

	testJSON := `{
  "offset_seconds": 1766488163.738,
  "gap_threshold_seconds": 0.5,
  "video_width": 1280,
  "video_height": 720,
  "fov_deg": 95,
  "workers": 4
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GetOffsetSeconds() != 1766488163.738 {
		t.Errorf("offset = %v, want 1766488163.738", cfg.GetOffsetSeconds())
	}
	if cfg.GetGapThresholdSeconds() != 0.5 {
		t.Errorf("gap threshold = %v, want 0.5", cfg.GetGapThresholdSeconds())
	}
	if cfg.GetVideoWidth() != 1280 || cfg.GetVideoHeight() != 720 {
		t.Errorf("video size = %dx%d, want 1280x720", cfg.GetVideoWidth(), cfg.GetVideoHeight())
	}
	if cfg.GetWorkers() != 4 {
		t.Errorf("workers = %d, want 4", cfg.GetWorkers())
	}
	// Unset fields fall through to defaults
	if cfg.GetDatabasePath() != DefaultDatabasePath {
		t.Errorf("database path = %q, want default", cfg.GetDatabasePath())
	}
}

func TestLoadRejectsNonJSONExtension(t *testing.T) {
	if _, err := Load("config.yaml"); err == nil {
		t.Error("expected error for non-.json extension")
	}
}

func TestValidate(t *testing.T) {
	bad := func(v float64) *float64 { return &v }
	badInt := func(v int) *int { return &v }

	testCases := []struct {
		name string
		cfg  SessionConfig
	}{
		{"negative_gap", SessionConfig{GapThresholdSeconds: bad(-1)}},
		{"zero_width", SessionConfig{VideoWidth: badInt(0)}},
		{"fov_too_wide", SessionConfig{FOVDeg: bad(180)}},
		{"fov_zero", SessionConfig{FOVDeg: bad(0)}},
		{"negative_workers", SessionConfig{Workers: badInt(-2)}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	good := SessionConfig{GapThresholdSeconds: bad(0.3), FOVDeg: bad(90)}
	if err := good.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}
