package projection

import "math"

// Intrinsics is the pinhole camera model derived from image size and
// horizontal field of view. It is never set directly: it is recomputed
// whenever the field of view changes and never from the image height
// (a single horizontal-FOV assumption is used throughout).
type Intrinsics struct {
	Width       int
	Height      int
	FocalLength float64
	CX          float64
	CY          float64
}

// NewIntrinsics derives the pinhole intrinsics for a width x height
// image with the given horizontal FOV in degrees:
// f = (width/2) / tan(fov/2), principal point at the image center.
func NewIntrinsics(width, height int, fovDeg float64) Intrinsics {
	f := (float64(width) / 2) / math.Tan(fovDeg*math.Pi/360)
	return Intrinsics{
		Width:       width,
		Height:      height,
		FocalLength: f,
		CX:          float64(width) / 2,
		CY:          float64(height) / 2,
	}
}
