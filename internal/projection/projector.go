package projection

import (
	"sync/atomic"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ooju-data/videosync/internal/motion"
)

// depthEpsilon is the minimum camera-frame forward depth. Points at or
// below it are behind or degenerately close to the camera.
const depthEpsilon = 0.1

// snapshot bundles a calibration with the intrinsics derived from its
// FOV so every projection call reads a consistent pair.
type snapshot struct {
	calib Calibration
	rot   quat.Number // rotation built from OffsetRotEuler
	intr  Intrinsics
}

// Projector applies a calibration transform to poses and projects world
// points into a camera's image plane. The calibration is replaced
// atomically by SetCalibration, so a batch run holding the projector
// across goroutines always reads a coherent snapshot; intrinsics are
// recomputed only when the FOV changes.
type Projector struct {
	width  int
	height int
	cur    atomic.Pointer[snapshot]
}

// NewProjector creates a projector for a width x height image with the
// given calibration.
func NewProjector(width, height int, calib Calibration) *Projector {
	p := &Projector{width: width, height: height}
	p.SetCalibration(calib)
	return p
}

// NewProjectorFromFile creates a projector, loading the calibration
// record at path when it exists and falling back to defaults otherwise.
func NewProjectorFromFile(width, height int, path string) (*Projector, error) {
	calib, err := LoadCalibration(path)
	if err != nil {
		calib = DefaultCalibration()
	}
	return NewProjector(width, height, calib), nil
}

// SetCalibration atomically replaces the current calibration snapshot.
func (p *Projector) SetCalibration(calib Calibration) {
	prev := p.cur.Load()
	intr := Intrinsics{}
	if prev != nil && prev.calib.FOVDeg == calib.FOVDeg {
		intr = prev.intr
	} else {
		intr = NewIntrinsics(p.width, p.height, calib.FOVDeg)
	}
	p.cur.Store(&snapshot{
		calib: calib,
		rot:   motion.EulerXYZToQuat(calib.OffsetRotEuler[0], calib.OffsetRotEuler[1], calib.OffsetRotEuler[2]),
		intr:  intr,
	})
}

// Calibration returns the current calibration snapshot.
func (p *Projector) Calibration() Calibration {
	return p.cur.Load().calib
}

// Intrinsics returns the intrinsics derived from the current FOV.
func (p *Projector) Intrinsics() Intrinsics {
	return p.cur.Load().intr
}

// SaveCalibration persists the current calibration to path.
func (p *Projector) SaveCalibration(path string) error {
	return p.Calibration().Save(path)
}

// ApplyCalibration returns pose shifted by the calibration offset, with
// the calibration rotation applied in world space before the pose's own
// orientation.
func (p *Projector) ApplyCalibration(pose motion.Pose) motion.Pose {
	s := p.cur.Load()
	return motion.Pose{
		Position: r3.Add(pose.Position, s.calib.OffsetPos),
		Rotation: motion.NormalizeQuat(quat.Mul(s.rot, pose.Rotation)),
		Gripper:  pose.Gripper,
	}
}

// Project maps a world-space point into pixel coordinates given the
// camera's pose. ok is false when the point is behind the camera or,
// with boundsCheck set, outside the image.
//
// The motion stream's coordinate convention is vertical-up while the
// image convention is vertical-down; a single sign flip of the
// camera-frame vertical axis reconciles the two.
func (p *Projector) Project(pointWorld r3.Vec, cameraPose motion.Pose, boundsCheck bool) (u, v float64, ok bool) {
	s := p.cur.Load()

	local := motion.RotateVec(quat.Conj(cameraPose.Rotation), r3.Sub(pointWorld, cameraPose.Position))
	local.Y = -local.Y

	if local.Z <= depthEpsilon {
		return 0, 0, false
	}

	u = s.intr.FocalLength*local.X/local.Z + s.intr.CX
	v = s.intr.FocalLength*local.Y/local.Z + s.intr.CY

	if boundsCheck {
		if u < 0 || u >= float64(s.intr.Width) || v < 0 || v >= float64(s.intr.Height) {
			return 0, 0, false
		}
	}
	return u, v, true
}
