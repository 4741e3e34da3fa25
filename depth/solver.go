package depth

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// DefaultJoints is the number of SMPL-X body joints used for depth
	// triangulation
	DefaultJoints = 22

	// minPixelDistance is the smallest image distance between a joint and the
	// root that still defines a usable triangle
	minPixelDistance = 1e-9
)

// Solver computes root depth candidates from a camera space skeleton and its
// observed 2D keypoints
type Solver struct {
	joints int
	log    *zap.Logger
}

// SolverOption configures a Solver
type SolverOption func(*Solver)

// WithJoints sets the number of leading joints used, defaults to 22
func WithJoints(n int) SolverOption {
	return func(s *Solver) {
		s.joints = n
	}
}

// WithLogger sets the logger degenerate geometry is reported on
func WithLogger(log *zap.Logger) SolverOption {
	return func(s *Solver) {
		if log != nil {
			s.log = log
		}
	}
}

// NewSolver returns a depth Solver
func NewSolver(opts ...SolverOption) *Solver {

	s := &Solver{
		joints: DefaultJoints,
		log:    zap.NewNop(),
	}

	for _, o := range opts {
		o(s)
	}

	return s
}

// Joints returns the number of joints the solver uses
func (s *Solver) Joints() int {
	return s.joints
}

// Window returns the resolver window size matching the joint count, one
// candidate for every non root joint
func (s *Solver) Window() int {
	return s.joints - 1
}

// Solution is the output of Solve for a single skeleton
type Solution struct {
	// Candidates holds the depth candidates for joints 1..J-1, index i
	// corresponds to joint i+1
	Candidates []Candidates
	// Degenerate lists the joints that produced no candidate
	Degenerate []int
	// Clamped is the number of joints whose discriminant was negative and
	// clamped to zero
	Clamped int
}

// Sorted returns the valid candidates sorted ascending
func (s Solution) Sorted() []float64 {
	return Flatten(s.Candidates)
}

// Padded returns the sorted candidates at width 2*(J-1) with +Inf padding
func (s Solution) Padded() []float64 {
	return Padded(s.Candidates)
}

// Solve triangulates the root depth against every non root joint.  The
// skeleton is in camera space, keypoints are in pixels and are paired with
// the skeleton by index.  Only the first Joints() entries are used.
func (s *Solver) Solve(skeleton []r3.Vec, keypoints []r2.Vec, in Intrinsics) (Solution, error) {

	if s.joints < 2 {
		return Solution{}, ErrTooFewJoints
	}

	if len(skeleton) < s.joints || len(keypoints) < s.joints {
		return Solution{}, errors.Wrapf(ErrShapeMismatch,
			"need %d joints, got %d 3D and %d 2D", s.joints, len(skeleton), len(keypoints))
	}

	if err := in.Validate(); err != nil {
		return Solution{}, err
	}

	sol := Solution{
		Candidates: make([]Candidates, s.joints-1),
	}

	f := in.Focal
	origin := in.LensOrigin()
	rootRay := in.Ray(keypoints[0])
	root := skeleton[0]

	for j := 1; j < s.joints; j++ {

		ray := in.Ray(keypoints[j])

		// OD runs from the joint's image point to the lens, CD from the joint's
		// image point to the root's image point
		od := r3.Sub(origin, ray)
		cd := r3.Sub(rootRay, ray)
		odNorm := r3.Norm(od)
		cdNorm := r3.Norm(cd)

		rel := r3.Sub(skeleton[j], root)
		ab := r3.Norm(rel)

		if !(cdNorm > minPixelDistance) || !isFinite(odNorm) || !isFinite(cdNorm) || !isFinite(ab) {
			sol.Degenerate = append(sol.Degenerate, j)
			continue
		}

		cosAlpha := r3.Dot(od, cd) / (odNorm * cdNorm)

		// a joint further from the camera than the root sees the triangle from
		// the other side of the ray
		if rel.Z > 0 {
			cosAlpha = -cosAlpha
		}

		be := math.Abs(rel.Z) * odNorm / f
		disc := be*be*(cosAlpha*cosAlpha-1) + ab*ab

		// joint segment close to parallel with the optical axis, the
		// discriminant is zero up to rounding
		if disc < 0 {
			disc = 0
			sol.Clamped++
		}

		sq := math.Sqrt(disc)
		ae := be*cosAlpha + sq
		ae2 := be*cosAlpha - sq

		z := ae / cdNorm * f
		z2 := ae2 / cdNorm * f

		if cosAlpha <= 0 || ab >= be {
			sol.Candidates[j-1] = One(z)
		} else {
			sol.Candidates[j-1] = Two(z, z2)
		}
	}

	if len(sol.Degenerate) > 0 {
		s.log.Warn("degenerate joint geometry",
			zap.Ints("joints", sol.Degenerate))
	}

	if sol.Clamped > 0 {
		s.log.Debug("negative discriminant clamped to zero",
			zap.Int("count", sol.Clamped))
	}

	return sol, nil
}
