package motion

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// QuatIdentity is the identity rotation.
var QuatIdentity = quat.Number{Real: 1}

// LerpVec linearly interpolates between a and b at parameter w.
func LerpVec(a, b r3.Vec, w float64) r3.Vec {
	return r3.Add(a, r3.Scale(w, r3.Sub(b, a)))
}

// NormalizeQuat rescales q to unit length. The zero quaternion is
// returned as the identity so downstream rotations stay well defined.
func NormalizeQuat(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n == 0 {
		return QuatIdentity
	}
	return quat.Scale(1/n, q)
}

// Slerp performs shortest-arc spherical linear interpolation between two
// unit quaternions at parameter w in [0,1]. The result is renormalized
// to guard against accumulated floating-point drift.
//
// gonum's quat package supplies quaternion arithmetic but no slerp, so
// the standard formulation lives here.
func Slerp(a, b quat.Number, w float64) quat.Number {
	dot := a.Real*b.Real + a.Imag*b.Imag + a.Jmag*b.Jmag + a.Kmag*b.Kmag

	// Take the shorter arc: q and -q represent the same rotation.
	if dot < 0 {
		b = quat.Scale(-1, b)
		dot = -dot
	}

	// Nearly parallel quaternions: fall back to normalized lerp to
	// avoid the unstable sin division.
	const parallelThreshold = 0.9995
	if dot > parallelThreshold {
		blend := quat.Add(quat.Scale(1-w, a), quat.Scale(w, b))
		return NormalizeQuat(blend)
	}

	theta0 := math.Acos(dot)
	sinTheta0 := math.Sin(theta0)
	theta := theta0 * w

	sa := math.Sin(theta0-theta) / sinTheta0
	sb := math.Sin(theta) / sinTheta0

	return NormalizeQuat(quat.Add(quat.Scale(sa, a), quat.Scale(sb, b)))
}

// RotateVec rotates v by the unit quaternion q.
func RotateVec(q quat.Number, v r3.Vec) r3.Vec {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return r3.Vec{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// EulerXYZToQuat builds a rotation from intrinsic XYZ-ordered Euler
// angles in degrees: rotate about X, then the new Y, then the new Z.
func EulerXYZToQuat(xDeg, yDeg, zDeg float64) quat.Number {
	qx := axisAngleQuat(r3.Vec{X: 1}, xDeg*math.Pi/180)
	qy := axisAngleQuat(r3.Vec{Y: 1}, yDeg*math.Pi/180)
	qz := axisAngleQuat(r3.Vec{Z: 1}, zDeg*math.Pi/180)
	return NormalizeQuat(quat.Mul(quat.Mul(qx, qy), qz))
}

func axisAngleQuat(axis r3.Vec, angleRad float64) quat.Number {
	half := angleRad / 2
	s := math.Sin(half)
	return quat.Number{
		Real: math.Cos(half),
		Imag: axis.X * s,
		Jmag: axis.Y * s,
		Kmag: axis.Z * s,
	}
}

func clamp01(w float64) float64 {
	if w < 0 {
		return 0
	}
	if w > 1 {
		return 1
	}
	return w
}
