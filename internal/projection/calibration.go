package projection

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultFOVDeg is the horizontal field of view assumed before any
// calibration has been saved. MR headset captures land near 100.
const DefaultFOVDeg = 100

// Calibration is the operator-adjustable rigid offset and field-of-view
// correction applied before projecting a pose into an image. It is an
// immutable value: adjustments replace the whole snapshot rather than
// mutating fields in place.
type Calibration struct {
	OffsetPos      r3.Vec
	OffsetRotEuler [3]float64 // intrinsic XYZ, degrees
	FOVDeg         float64
}

// DefaultCalibration returns the zero offset at the default FOV.
func DefaultCalibration() Calibration {
	return Calibration{FOVDeg: DefaultFOVDeg}
}

// calibrationRecord is the persisted configuration format.
type calibrationRecord struct {
	OffsetPos      []float64 `json:"offset_pos"`
	OffsetRotEuler []float64 `json:"offset_rot_euler"`
	FOV            float64   `json:"fov"`
}

// LoadCalibration reads a calibration record from path. Fields missing
// from the record keep their defaults.
func LoadCalibration(path string) (Calibration, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Calibration{}, fmt.Errorf("read calibration %s: %w", path, err)
	}

	var rec calibrationRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return Calibration{}, fmt.Errorf("parse calibration %s: %w", path, err)
	}

	c := DefaultCalibration()
	if len(rec.OffsetPos) >= 3 {
		c.OffsetPos = r3.Vec{X: rec.OffsetPos[0], Y: rec.OffsetPos[1], Z: rec.OffsetPos[2]}
	}
	if len(rec.OffsetRotEuler) >= 3 {
		c.OffsetRotEuler = [3]float64{rec.OffsetRotEuler[0], rec.OffsetRotEuler[1], rec.OffsetRotEuler[2]}
	}
	if rec.FOV > 0 {
		c.FOVDeg = rec.FOV
	}
	return c, nil
}

// Save writes the calibration record to path, overwriting any existing
// file and creating parent directories as needed.
func (c Calibration) Save(path string) error {
	rec := calibrationRecord{
		OffsetPos:      []float64{c.OffsetPos.X, c.OffsetPos.Y, c.OffsetPos.Z},
		OffsetRotEuler: []float64{c.OffsetRotEuler[0], c.OffsetRotEuler[1], c.OffsetRotEuler[2]},
		FOV:            c.FOVDeg,
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode calibration: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create calibration dir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write calibration %s: %w", path, err)
	}
	return nil
}
