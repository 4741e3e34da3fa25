package loss

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// NumJoints is the number of joints compared by the keypoint terms
const NumJoints = 22

// ErrBatch is returned when predictions and targets do not line up
var ErrBatch = errors.New("prediction and target batches differ")

// Prediction is the regressor output for one sample after the body model and
// camera projection
type Prediction struct {
	// Trans is the unscaled root translation
	Trans r3.Vec
	// Rotations are the joint rotations, index 0 the root orientation
	Rotations []*mat.Dense
	Betas     []float64
	// Joints are camera space joint positions
	Joints []r3.Vec
	// Keypoints are the projected joints in pixels
	Keypoints []r2.Vec
	// Vertices are optional mesh vertices in camera space
	Vertices []r3.Vec
}

// Target is the supervision for one sample
type Target struct {
	Trans     r3.Vec
	Rotations []*mat.Dense
	Joints    []r3.Vec
	Keypoints []r2.Vec
	Vertices  []r3.Vec
	// DepthMean and DepthStd are the analytic root depth estimate, NaN when
	// the estimate failed
	DepthMean float64
	DepthStd  float64
}

// Breakdown holds every unweighted term and the weighted total
type Breakdown struct {
	Total       float64
	Trans       float64
	Keypoints   float64
	Keypoints3D float64
	Shape       float64
	RootRot     float64
	Pose        float64
	Betas       float64
	DepthAware  float64
	// DepthSamples is the number of samples the depth aware term averaged
	DepthSamples int
}

// DepthAware returns mean((zPred - zEst)² / std²) over the elements whose
// estimate is finite, with std² floored.  The number of elements used is
// returned alongside, the mean is 0 when none were.
func DepthAware(zPred, zEst, std []float64, floor float64) (float64, int, error) {

	if len(zPred) != len(zEst) || len(zPred) != len(std) {
		return 0, 0, errors.Wrapf(ErrBatch, "depth inputs %d, %d, %d",
			len(zPred), len(zEst), len(std))
	}

	terms := make([]float64, 0, len(zPred))

	for i := range zPred {

		if !finite(zEst[i]) || !finite(std[i]) {
			continue
		}

		d := zPred[i] - zEst[i]
		terms = append(terms, d*d/math.Max(std[i]*std[i], floor))
	}

	if len(terms) == 0 {
		return 0, 0, nil
	}

	return floats.Sum(terms) / float64(len(terms)), len(terms), nil
}

// Compute evaluates every term over the batch and the weighted total
func Compute(w Weights, pred []Prediction, gt []Target) (Breakdown, error) {

	if len(pred) != len(gt) || len(pred) == 0 {
		return Breakdown{}, errors.Wrapf(ErrBatch, "%d predictions, %d targets", len(pred), len(gt))
	}

	var (
		b                        Breakdown
		trans, kp2d, kp3d, shape mse
		rootRot, rot, betas      mse
		zPred, zEst, zStd        []float64
	)

	jw3d := jointWeights(NumJoints, w.Limbs3D, 0)
	jwRot := jointWeights(NumJoints-1, w.LimbsTheta, 1)

	for i := range pred {

		p, t := pred[i], gt[i]

		trans.add([]float64{p.Trans.X, p.Trans.Y, p.Trans.Z},
			[]float64{t.Trans.X, t.Trans.Y, t.Trans.Z}, 1)

		if err := addKeypoints(&kp2d, p.Keypoints, t.Keypoints); err != nil {
			return Breakdown{}, errors.Wrapf(err, "sample %d", i)
		}

		if err := addJoints(&kp3d, p.Joints, t.Joints, jw3d); err != nil {
			return Breakdown{}, errors.Wrapf(err, "sample %d", i)
		}

		if p.Vertices != nil && t.Vertices != nil {
			if err := addJoints(&shape, p.Vertices, t.Vertices, nil); err != nil {
				return Breakdown{}, errors.Wrapf(err, "sample %d vertices", i)
			}
		}

		if err := addRotations(&rootRot, &rot, p.Rotations, t.Rotations, jwRot); err != nil {
			return Breakdown{}, errors.Wrapf(err, "sample %d", i)
		}

		betas.add(p.Betas, make([]float64, len(p.Betas)), 1)

		zPred = append(zPred, p.Trans.Z)
		zEst = append(zEst, t.DepthMean)
		zStd = append(zStd, t.DepthStd)
	}

	b.Trans = trans.mean()
	b.Keypoints = kp2d.mean()
	b.Keypoints3D = kp3d.mean()
	b.Shape = shape.mean()
	b.RootRot = rootRot.mean()
	b.Pose = rot.mean()
	b.Betas = betas.mean()

	var err error

	if b.DepthAware, b.DepthSamples, err = DepthAware(zPred, zEst, zStd, w.StdFloor); err != nil {
		return Breakdown{}, err
	}

	b.Total = w.Scale * (w.Trans*b.Trans +
		w.Keypoint2D*b.Keypoints +
		w.Keypoint3D*b.Keypoints3D +
		w.Shape*b.Shape +
		w.RootRot*b.RootRot +
		w.Pose*b.Pose +
		w.Beta*b.Betas +
		w.DepthAware*b.DepthAware)

	return b, nil
}

// mse accumulates a weighted squared error and the element count
type mse struct {
	sum float64
	n   int
}

func (m *mse) add(a, b []float64, weight float64) {
	for i := range a {
		d := a[i] - b[i]
		m.sum += weight * d * d
	}
	m.n += len(a)
}

func (m *mse) mean() float64 {
	if m.n == 0 {
		return 0
	}
	return m.sum / float64(m.n)
}

// addKeypoints accumulates the first NumJoints keypoints
func addKeypoints(m *mse, p, t []r2.Vec) error {

	n := NumJoints

	if len(p) < n || len(t) < n {
		return errors.Wrapf(ErrBatch, "keypoints %d and %d, need %d", len(p), len(t), n)
	}

	for j := 0; j < n; j++ {
		m.add([]float64{p[j].X, p[j].Y}, []float64{t[j].X, t[j].Y}, 1)
	}

	return nil
}

// addJoints accumulates 3D points, restricted to the first len(weights)
// points when weights are given
func addJoints(m *mse, p, t []r3.Vec, weights []float64) error {

	n := len(p)

	if weights != nil {
		n = len(weights)
	}

	if len(p) < n || len(t) < n || (weights == nil && len(p) != len(t)) {
		return errors.Wrapf(ErrBatch, "points %d and %d, need %d", len(p), len(t), n)
	}

	for j := 0; j < n; j++ {

		wj := 1.0

		if weights != nil {
			wj = weights[j]
		}

		m.add([]float64{p[j].X, p[j].Y, p[j].Z}, []float64{t[j].X, t[j].Y, t[j].Z}, wj)
	}

	return nil
}

// addRotations accumulates the root rotation into root and the remaining
// joint rotations into body with per joint weights
func addRotations(root, body *mse, p, t []*mat.Dense, weights []float64) error {

	if len(p) != NumJoints || len(t) != NumJoints {
		return errors.Wrapf(ErrBatch, "rotations %d and %d, need %d", len(p), len(t), NumJoints)
	}

	root.add(flatten(p[0]), flatten(t[0]), 1)

	for j := 1; j < NumJoints; j++ {
		body.add(flatten(p[j]), flatten(t[j]), weights[j-1])
	}

	return nil
}

// flatten returns the 9 values of a 3x3 matrix in row order
func flatten(m mat.Matrix) []float64 {

	out := make([]float64, 0, 9)

	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out = append(out, m.At(i, j))
		}
	}

	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
