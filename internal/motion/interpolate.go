package motion

// Interpolate blends two poses at parameter w: linear interpolation for
// position and gripper, shortest-arc slerp for rotation. w is clamped
// to [0,1] so an out-of-range caller value can never produce an
// out-of-range blend. Pure function; identical inputs always yield
// identical outputs.
func Interpolate(a, b Pose, w float64) Pose {
	w = clamp01(w)
	return Pose{
		Position: LerpVec(a.Position, b.Position, w),
		Rotation: Slerp(a.Rotation, b.Rotation, w),
		Gripper:  a.Gripper + (b.Gripper-a.Gripper)*w,
	}
}

// InterpolateOptional blends two optional poses. It returns nil unless
// both sides are present; a viewpoint channel missing on either side of
// the bracket cannot be interpolated.
func InterpolateOptional(a, b *Pose, w float64) *Pose {
	if a == nil || b == nil {
		return nil
	}
	p := Interpolate(*a, *b, w)
	return &p
}
