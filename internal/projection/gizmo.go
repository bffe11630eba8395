package projection

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ooju-data/videosync/internal/motion"
)

// Pixel is a projected image coordinate.
type Pixel struct {
	U float64 `json:"u"`
	V float64 `json:"v"`
}

// Gizmo is the projected axis marker for one pose: its origin pixel and
// the endpoints of the pose's local X/Y/Z axes. Axis endpoints are nil
// when they fall behind the camera. The overlay collaborator draws
// these as colored axis lines.
type Gizmo struct {
	Origin Pixel  `json:"origin"`
	XAxis  *Pixel `json:"x_axis,omitempty"`
	YAxis  *Pixel `json:"y_axis,omitempty"`
	ZAxis  *Pixel `json:"z_axis,omitempty"`
}

// ProjectGizmo projects pose's position and axis endpoints into the
// camera's image. The calibration transform is applied to pose first.
// ok is false when the pose origin itself cannot be projected.
func (p *Projector) ProjectGizmo(pose, cameraPose motion.Pose, axisLen float64) (Gizmo, bool) {
	calibrated := p.ApplyCalibration(pose)

	u, v, ok := p.Project(calibrated.Position, cameraPose, false)
	if !ok {
		return Gizmo{}, false
	}
	g := Gizmo{Origin: Pixel{U: u, V: v}}

	project := func(axis r3.Vec) *Pixel {
		end := r3.Add(calibrated.Position, motion.RotateVec(calibrated.Rotation, r3.Scale(axisLen, axis)))
		u, v, ok := p.Project(end, cameraPose, false)
		if !ok {
			return nil
		}
		return &Pixel{U: u, V: v}
	}
	g.XAxis = project(r3.Vec{X: 1})
	g.YAxis = project(r3.Vec{Y: 1})
	g.ZAxis = project(r3.Vec{Z: 1})

	return g, true
}
