package motion

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SourceRecord is the on-disk motion log format: a list of trajectories,
// of which only the first is consumed.
type SourceRecord struct {
	Trajectories []Trajectory `json:"trajectories"`
}

// Trajectory holds parallel timestamp/pose arrays for one recorded
// stream. Pose arrays follow the [px,py,pz,qx,qy,qz,qw] convention;
// eye-pose arrays are optional and may be shorter per element.
type Trajectory struct {
	Timestamps    []float64   `json:"timestamps"`
	Poses         [][]float64 `json:"poses"`
	LeftEyePoses  [][]float64 `json:"left_eye_poses,omitempty"`
	RightEyePoses [][]float64 `json:"right_eye_poses,omitempty"`
}

// ParseSourceRecord decodes a motion log from raw JSON.
func ParseSourceRecord(data []byte) (*SourceRecord, error) {
	var rec SourceRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode motion source: %w", err)
	}
	return &rec, nil
}

// LoadSourceFile reads and decodes a motion log file.
func LoadSourceFile(path string) (*SourceRecord, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read motion source %s: %w", path, err)
	}
	rec, err := ParseSourceRecord(data)
	if err != nil {
		return nil, fmt.Errorf("parse motion source %s: %w", path, err)
	}
	return rec, nil
}

// samples converts the trajectory's parallel arrays into timed samples.
// Arrays that disagree in length are truncated to the common prefix;
// the number of dropped entries is returned so callers can report it.
func (tr *Trajectory) samples() (out []TimedSample, truncated int) {
	n := len(tr.Timestamps)
	if len(tr.Poses) < n {
		n = len(tr.Poses)
	}
	if tr.LeftEyePoses != nil && len(tr.LeftEyePoses) < n {
		n = len(tr.LeftEyePoses)
	}
	if tr.RightEyePoses != nil && len(tr.RightEyePoses) < n {
		n = len(tr.RightEyePoses)
	}

	longest := len(tr.Timestamps)
	if len(tr.Poses) > longest {
		longest = len(tr.Poses)
	}
	truncated = longest - n

	out = make([]TimedSample, 0, n)
	for i := 0; i < n; i++ {
		s := TimedSample{
			Timestamp: tr.Timestamps[i],
			Pose:      PoseFromArray(tr.Poses[i]),
		}
		if tr.LeftEyePoses != nil {
			le := PoseFromArray(tr.LeftEyePoses[i])
			s.LeftEye = &le
		}
		if tr.RightEyePoses != nil {
			re := PoseFromArray(tr.RightEyePoses[i])
			s.RightEye = &re
		}
		out = append(out, s)
	}
	return out, truncated
}
