package main

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestFrameTimestampsUniform(t *testing.T) {
	ts, err := frameTimestamps("", 30, 4, 10)
	if err != nil {
		t.Fatalf("frameTimestamps failed: %v", err)
	}
	if len(ts) != 4 {
		t.Fatalf("got %d timestamps, want 4", len(ts))
	}
	want := []float64{10, 10 + 1.0/30, 10 + 2.0/30, 10 + 3.0/30}
	for i := range want {
		if math.Abs(ts[i]-want[i]) > 1e-12 {
			t.Errorf("ts[%d] = %v, want %v", i, ts[i], want[i])
		}
	}
}

func TestFrameTimestampsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames.json")
	data, _ := json.Marshal([]float64{1.5, 2.5, 3.5})
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	ts, err := frameTimestamps(path, 0, 0, 0)
	if err != nil {
		t.Fatalf("frameTimestamps failed: %v", err)
	}
	if len(ts) != 3 || ts[0] != 1.5 || ts[2] != 3.5 {
		t.Errorf("unexpected timestamps: %v", ts)
	}
}

func TestFrameTimestampsErrors(t *testing.T) {
	tests := []struct {
		name       string
		framesFile string
		fps        float64
		count      int
	}{
		{"no source", "", 0, 0},
		{"fps without count", "", 30, 0},
		{"missing file", "/nonexistent/frames.json", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := frameTimestamps(tt.framesFile, tt.fps, tt.count, 0); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFrameTimestampsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames.json")
	if err := os.WriteFile(path, []byte("[]"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := frameTimestamps(path, 0, 0, 0); err == nil {
		t.Error("expected error for empty timestamp file")
	}
}

func TestLoadSessionConfigEmptyPath(t *testing.T) {
	cfg := loadSessionConfig("")
	if cfg.GetVideoWidth() != 1920 {
		t.Errorf("default width = %d, want 1920", cfg.GetVideoWidth())
	}
}
