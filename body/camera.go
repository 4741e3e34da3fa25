package body

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// ToCamera places root relative joints in camera space, rotated by the root
// orientation and offset by the translation
func ToCamera(joints []r3.Vec, rootRot mat.Matrix, trans r3.Vec) []r3.Vec {

	out := make([]r3.Vec, len(joints))

	for i, j := range joints {
		out[i] = r3.Add(rotate(rootRot, j), trans)
	}

	return out
}

// Project applies a pinhole projection with scalar focal length and principal
// point.  Points on the camera plane project to +Inf.
func Project(joints []r3.Vec, focal float64, center r2.Vec) []r2.Vec {

	out := make([]r2.Vec, len(joints))

	for i, p := range joints {

		if p.Z == 0 {
			out[i] = r2.Vec{X: math.Inf(1), Y: math.Inf(1)}
			continue
		}

		out[i] = r2.Vec{
			X: focal*p.X/p.Z + center.X,
			Y: focal*p.Y/p.Z + center.Y,
		}
	}

	return out
}

// Identity returns n identity rotations
func Identity(n int) []*mat.Dense {

	out := make([]*mat.Dense, n)

	for i := range out {
		out[i] = mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	}

	return out
}
