package regressor

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Pose is a decoded pose vector
type Pose struct {
	// Translation is the root position in camera space, unscaled
	Translation r3.Vec
	// Rotations holds a 3x3 rotation matrix per joint, index 0 is the root
	// orientation
	Rotations []*mat.Dense
}

// Decompose splits a pose vector into its unscaled translation and per joint
// rotation matrices
func Decompose(pose []float64) (Pose, error) {

	if len(pose) != NPose {
		return Pose{}, errors.Wrapf(ErrDimension, "pose has %d values, want %d", len(pose), NPose)
	}

	p := Pose{
		Translation: r3.Vec{
			X: pose[0] / TransScale,
			Y: pose[1] / TransScale,
			Z: pose[2] / TransScale,
		},
		Rotations: make([]*mat.Dense, NumJoints),
	}

	for j := 0; j < NumJoints; j++ {
		off := NTrans + j*NRot6D
		p.Rotations[j] = Rot6DToRotMat(pose[off : off+NRot6D])
	}

	return p, nil
}

// Rot6DToRotMat converts a 6D rotation to a rotation matrix by Gram-Schmidt.
// The six values are read as a 3x2 row major matrix whose columns are the
// first two basis vectors.
func Rot6DToRotMat(x []float64) *mat.Dense {

	a1 := r3.Vec{X: x[0], Y: x[2], Z: x[4]}
	a2 := r3.Vec{X: x[1], Y: x[3], Z: x[5]}

	b1 := r3.Unit(a1)
	b2 := r3.Unit(r3.Sub(a2, r3.Scale(r3.Dot(b1, a2), b1)))
	b3 := r3.Cross(b1, b2)

	return mat.NewDense(3, 3, []float64{
		b1.X, b2.X, b3.X,
		b1.Y, b2.Y, b3.Y,
		b1.Z, b2.Z, b3.Z,
	})
}

// RotMatToRot6D returns the first two columns of a rotation matrix in the 6D
// layout read by Rot6DToRotMat
func RotMatToRot6D(r mat.Matrix) []float64 {
	return []float64{
		r.At(0, 0), r.At(0, 1),
		r.At(1, 0), r.At(1, 1),
		r.At(2, 0), r.At(2, 1),
	}
}

// RotMatToAxisAngle returns the rotation vector (axis scaled by angle in
// radians) of a rotation matrix
func RotMatToAxisAngle(r mat.Matrix) r3.Vec {

	tr := r.At(0, 0) + r.At(1, 1) + r.At(2, 2)
	cos := math.Max(-1, math.Min(1, (tr-1)/2))
	angle := math.Acos(cos)

	if angle < 1e-12 {
		return r3.Vec{}
	}

	skew := r3.Vec{
		X: r.At(2, 1) - r.At(1, 2),
		Y: r.At(0, 2) - r.At(2, 0),
		Z: r.At(1, 0) - r.At(0, 1),
	}

	if math.Pi-angle > 1e-6 {
		return r3.Scale(angle/(2*math.Sin(angle)), skew)
	}

	// near pi the skew part vanishes, recover the axis from the diagonal
	axis := r3.Vec{
		X: math.Sqrt(math.Max(0, (r.At(0, 0)+1)/2)),
		Y: math.Sqrt(math.Max(0, (r.At(1, 1)+1)/2)),
		Z: math.Sqrt(math.Max(0, (r.At(2, 2)+1)/2)),
	}

	switch {
	case axis.X >= axis.Y && axis.X >= axis.Z:
		axis.Y = math.Copysign(axis.Y, r.At(0, 1)+r.At(1, 0))
		axis.Z = math.Copysign(axis.Z, r.At(0, 2)+r.At(2, 0))
	case axis.Y >= axis.Z:
		axis.X = math.Copysign(axis.X, r.At(0, 1)+r.At(1, 0))
		axis.Z = math.Copysign(axis.Z, r.At(1, 2)+r.At(2, 1))
	default:
		axis.X = math.Copysign(axis.X, r.At(0, 2)+r.At(2, 0))
		axis.Y = math.Copysign(axis.Y, r.At(1, 2)+r.At(2, 1))
	}

	return r3.Scale(angle, r3.Unit(axis))
}

// AxisAngleToRotMat returns the rotation matrix of a rotation vector
func AxisAngleToRotMat(v r3.Vec) *mat.Dense {

	angle := r3.Norm(v)

	if angle < 1e-12 {
		return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	}

	return mat.DenseCopyOf(r3.NewRotation(angle, v).Mat())
}
