package body

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Kinematic is a rigid forward kinematics body model over a fixed rest pose.
// Shape coefficients are accepted and ignored, the skeleton proportions come
// from the template.
type Kinematic struct {
	template []r3.Vec
	parents  []int
}

// NewKinematic returns a Kinematic model with the given rest pose template
// and parent indices.  A nil template and parents use the neutral body.
func NewKinematic(template []r3.Vec, parents []int) (*Kinematic, error) {

	if template == nil {
		template = NeutralTemplate
	}

	if parents == nil {
		parents = Parents[:]
	}

	if len(template) != len(parents) || len(template) == 0 {
		return nil, errors.Wrapf(ErrTemplate, "%d joints with %d parents",
			len(template), len(parents))
	}

	for i, p := range parents {
		if (i == 0 && p != -1) || (i > 0 && (p < 0 || p >= i)) {
			return nil, errors.Wrapf(ErrTemplate, "joint %d has parent %d", i, p)
		}
	}

	return &Kinematic{
		template: append([]r3.Vec(nil), template...),
		parents:  append([]int(nil), parents...),
	}, nil
}

// Joints returns the number of joints in the model
func (k *Kinematic) Joints() int {
	return len(k.template)
}

// Forward poses the rest template with the given local rotations.  The root
// rotation is applied, the root position stays at the origin.
func (k *Kinematic) Forward(betas []float64, pose []*mat.Dense) ([]r3.Vec, error) {

	if len(pose) != len(k.template) {
		return nil, errors.Wrapf(ErrPoseSize, "%d rotations for %d joints", len(pose), len(k.template))
	}

	global := make([]*mat.Dense, len(pose))
	out := make([]r3.Vec, len(pose))

	for j, rot := range pose {

		if r, c := rot.Dims(); r != 3 || c != 3 {
			return nil, errors.Wrapf(ErrPoseSize, "joint %d rotation is %dx%d", j, r, c)
		}

		p := k.parents[j]

		if p < 0 {
			global[j] = mat.DenseCopyOf(rot)
			continue
		}

		var g mat.Dense
		g.Mul(global[p], rot)
		global[j] = &g

		bone := r3.Sub(k.template[j], k.template[p])
		out[j] = r3.Add(out[p], rotate(global[p], bone))
	}

	return out, nil
}

// rotate applies a 3x3 rotation matrix to v
func rotate(m mat.Matrix, v r3.Vec) r3.Vec {
	return r3.NewMat(mat.DenseCopyOf(m).RawMatrix().Data).MulVec(v)
}
