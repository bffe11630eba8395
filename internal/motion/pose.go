package motion

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Pose is a rigid pose with an optional scalar gripper channel. It is a
// value type: either loaded verbatim from a track sample or produced by
// interpolation, never partially filled.
type Pose struct {
	Position r3.Vec
	Rotation quat.Number
	Gripper  float64
}

// IdentityPose returns a pose at the origin with identity rotation.
func IdentityPose() Pose {
	return Pose{Rotation: QuatIdentity}
}

// PoseFromArray decodes the wire convention [px,py,pz,qx,qy,qz,qw].
// Arrays shorter than 3 default position to the origin; arrays shorter
// than 7 default rotation to the identity quaternion.
func PoseFromArray(a []float64) Pose {
	p := IdentityPose()
	if len(a) >= 3 {
		p.Position = r3.Vec{X: a[0], Y: a[1], Z: a[2]}
	}
	if len(a) >= 7 {
		p.Rotation = NormalizeQuat(quat.Number{Imag: a[3], Jmag: a[4], Kmag: a[5], Real: a[6]})
	}
	return p
}

// TimedSample is one motion-capture keyframe: a timestamp, the primary
// pose, and optional paired viewpoint poses aligned to the same instant.
type TimedSample struct {
	Timestamp float64
	Pose      Pose
	LeftEye   *Pose
	RightEye  *Pose
}
