package depth

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Intrinsics are the pinhole camera parameters used by the depth solver.  The
// focal length is a single scalar, the solver assumes square pixels.
type Intrinsics struct {
	// Focal is the focal length in pixels
	Focal float64
	// Center is the principal point in pixels
	Center r2.Vec
}

// IntrinsicsFromMatrix builds Intrinsics from a 3x3 camera matrix.  The focal
// length is the mean of fx and fy.
func IntrinsicsFromMatrix(k mat.Matrix) (Intrinsics, error) {

	r, c := k.Dims()

	if r != 3 || c != 3 {
		return Intrinsics{}, errors.Wrapf(ErrShapeMismatch,
			"camera matrix is %dx%d, want 3x3", r, c)
	}

	in := Intrinsics{
		Focal:  (k.At(0, 0) + k.At(1, 1)) / 2,
		Center: r2.Vec{X: k.At(0, 2), Y: k.At(1, 2)},
	}

	return in, in.Validate()
}

// Validate checks the focal length is usable
func (in Intrinsics) Validate() error {

	if !(in.Focal > 0) || math.IsInf(in.Focal, 0) {
		return errors.Wrapf(ErrInvalidFocal, "got %v", in.Focal)
	}

	return nil
}

// Ray returns the image plane vector of a keypoint relative to the principal
// point, with a zero third component
func (in Intrinsics) Ray(kp r2.Vec) r3.Vec {
	d := r2.Sub(kp, in.Center)
	return r3.Vec{X: d.X, Y: d.Y}
}

// LensOrigin is the virtual lens point, offset from the image plane along the
// optical axis by the focal length
func (in Intrinsics) LensOrigin() r3.Vec {
	return r3.Vec{Z: in.Focal}
}

// Project is the pinhole projection of a camera space point into pixels.  A
// point on the camera plane (z == 0) projects to +Inf.
func (in Intrinsics) Project(p r3.Vec) r2.Vec {

	if p.Z == 0 {
		return r2.Vec{X: math.Inf(1), Y: math.Inf(1)}
	}

	return r2.Vec{
		X: in.Focal*p.X/p.Z + in.Center.X,
		Y: in.Focal*p.Y/p.Z + in.Center.Y,
	}
}

// BackProject returns the camera space point of a pixel at the given depth
func (in Intrinsics) BackProject(kp r2.Vec, z float64) r3.Vec {
	d := r2.Sub(kp, in.Center)
	return r3.Vec{X: d.X / in.Focal * z, Y: d.Y / in.Focal * z, Z: z}
}
