package depth

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Result is the batched depth estimate
type Result struct {
	// Mean is the resolved root depth per batch element, NaN where the element
	// failed
	Mean []float64
	// Std is the standard deviation of the winning window per batch element,
	// NaN where the element failed
	Std []float64
	// Estimates holds the full resolver output per batch element
	Estimates []Estimate
	// Solutions holds the solver output per batch element
	Solutions []Solution
	// Errs holds the error per batch element, nil where the element succeeded
	Errs []error
}

// Valid reports whether batch element i produced an estimate
func (r Result) Valid(i int) bool {
	return r.Errs[i] == nil
}

// CandidateMatrix returns the sorted candidates of every batch element as a
// (batch, 2*(J-1)) matrix, padded with +Inf
func (r Result) CandidateMatrix() *mat.Dense {

	if len(r.Solutions) == 0 {
		return nil
	}

	cols := 0

	for _, s := range r.Solutions {
		if w := 2 * len(s.Candidates); w > cols {
			cols = w
		}
	}

	if cols == 0 {
		return nil
	}

	m := mat.NewDense(len(r.Solutions), cols, nil)

	for i, s := range r.Solutions {

		row := s.Padded()

		for c := 0; c < cols; c++ {
			if c < len(row) {
				m.Set(i, c, row[c])
			} else {
				m.Set(i, c, math.Inf(1))
			}
		}
	}

	return m
}

// DepthAware estimates the root depth of every skeleton in the batch from its
// observed keypoints.  j3d holds camera space joints, j2d the paired pixel
// keypoints and centers the principal point of each element.  The returned
// Result is always fully populated, element failures are marked NaN and
// returned combined as the error.
func (s *Solver) DepthAware(j3d [][]r3.Vec, j2d [][]r2.Vec, focal float64,
	centers []r2.Vec) (Result, error) {

	return s.depthAware(j3d, j2d, focal, centers, 1)
}

// DepthAwareParallel is DepthAware with batch elements spread over the given
// number of workers.  Output is identical to DepthAware.
func (s *Solver) DepthAwareParallel(j3d [][]r3.Vec, j2d [][]r2.Vec, focal float64,
	centers []r2.Vec, workers int) (Result, error) {

	return s.depthAware(j3d, j2d, focal, centers, workers)
}

func (s *Solver) depthAware(j3d [][]r3.Vec, j2d [][]r2.Vec, focal float64,
	centers []r2.Vec, workers int) (Result, error) {

	batch := len(j3d)

	if len(j2d) != batch || len(centers) != batch {
		return Result{}, errors.Wrapf(ErrShapeMismatch,
			"batch sizes 3D=%d 2D=%d centers=%d", len(j3d), len(j2d), len(centers))
	}

	res := Result{
		Mean:      make([]float64, batch),
		Std:       make([]float64, batch),
		Estimates: make([]Estimate, batch),
		Solutions: make([]Solution, batch),
		Errs:      make([]error, batch),
	}

	if workers < 1 {
		workers = 1
	}

	var g errgroup.Group
	g.SetLimit(workers)

	for i := 0; i < batch; i++ {
		i := i

		g.Go(func() error {
			// each element writes only its own index
			s.resolveElement(i, j3d[i], j2d[i], Intrinsics{Focal: focal, Center: centers[i]}, &res)
			return nil
		})
	}

	_ = g.Wait()

	var err error

	for _, e := range res.Errs {
		err = multierr.Append(err, e)
	}

	if err != nil {
		s.log.Warn("depth estimate failed for batch elements",
			zap.Int("failed", len(multierr.Errors(err))),
			zap.Int("batch", batch))
	}

	return res, err
}

// resolveElement solves and resolves batch element i into res
func (s *Solver) resolveElement(i int, skel []r3.Vec, kps []r2.Vec, in Intrinsics, res *Result) {

	sol, err := s.Solve(skel, kps, in)

	if err == nil {
		res.Solutions[i] = sol

		var est Estimate
		est, err = Resolve(sol.Sorted(), s.Window())
		res.Estimates[i] = est
		res.Mean[i] = est.Mean
		res.Std[i] = est.Std
	}

	if err != nil {
		res.Errs[i] = &ElementError{Index: i, Err: err}
		res.Mean[i] = math.NaN()
		res.Std[i] = math.NaN()

		if sol.Candidates == nil {
			res.Estimates[i] = invalidEstimate()
		}
	}
}
