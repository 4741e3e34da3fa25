package depth

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// testBatch builds a batch of skeletons placed at the given roots
func testBatch(roots []r3.Vec) ([][]r3.Vec, [][]r2.Vec, []r2.Vec) {

	j3d := make([][]r3.Vec, len(roots))
	j2d := make([][]r2.Vec, len(roots))
	centers := make([]r2.Vec, len(roots))

	for i, root := range roots {
		j3d[i], j2d[i] = placeSkeleton(restSkeleton, root, testCamera)
		centers[i] = testCamera.Center
	}

	return j3d, j2d, centers
}

func TestDepthAware(t *testing.T) {

	roots := []r3.Vec{{Z: 10}, {X: 0.5, Z: 6}, {X: -0.3, Y: 0.2, Z: 12}}
	j3d, j2d, centers := testBatch(roots)

	res, err := NewSolver().DepthAware(j3d, j2d, testCamera.Focal, centers)

	if err != nil {
		t.Fatalf("DepthAware returned error: %v", err)
	}

	for i, root := range roots {
		if math.Abs(res.Mean[i]-root.Z) > 1e-6 {
			t.Errorf("element %d: expected depth %v, got %v", i, root.Z, res.Mean[i])
		}

		if !res.Valid(i) {
			t.Errorf("element %d: expected valid", i)
		}
	}
}

func TestDepthAwarePartialFailure(t *testing.T) {

	j3d, j2d, centers := testBatch([]r3.Vec{{Z: 10}, {Z: 8}})

	// collapse every keypoint of element 1 onto its root
	for j := range j2d[1] {
		j2d[1][j] = j2d[1][0]
	}

	res, err := NewSolver().DepthAware(j3d, j2d, testCamera.Focal, centers)

	if err == nil {
		t.Fatalf("expected error for degenerate element")
	}

	if !errors.Is(err, ErrInsufficientCandidates) {
		t.Errorf("expected ErrInsufficientCandidates, got %v", err)
	}

	errs := multierr.Errors(err)

	if len(errs) != 1 {
		t.Fatalf("expected 1 element error, got %d", len(errs))
	}

	var elemErr *ElementError

	if !errors.As(errs[0], &elemErr) || elemErr.Index != 1 {
		t.Errorf("expected element error for index 1, got %v", errs[0])
	}

	if !res.Valid(0) || math.Abs(res.Mean[0]-10) > 1e-6 {
		t.Errorf("expected element 0 depth 10, got %v", res.Mean[0])
	}

	if !math.IsNaN(res.Mean[1]) || !math.IsNaN(res.Std[1]) {
		t.Errorf("expected NaN for element 1, got %v +/- %v", res.Mean[1], res.Std[1])
	}
}

func TestDepthAwareShapeMismatch(t *testing.T) {

	j3d, j2d, centers := testBatch([]r3.Vec{{Z: 10}, {Z: 8}})

	_, err := NewSolver().DepthAware(j3d, j2d[:1], testCamera.Focal, centers)

	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestDepthAwareParallelMatchesSequential(t *testing.T) {

	roots := make([]r3.Vec, 16)

	for i := range roots {
		roots[i] = r3.Vec{X: 0.1 * float64(i%4), Y: -0.05 * float64(i%3), Z: 4 + 0.5*float64(i)}
	}

	j3d, j2d, centers := testBatch(roots)
	s := NewSolver()

	seq, errSeq := s.DepthAware(j3d, j2d, testCamera.Focal, centers)
	par, errPar := s.DepthAwareParallel(j3d, j2d, testCamera.Focal, centers, 4)

	if errSeq != nil || errPar != nil {
		t.Fatalf("unexpected errors: %v, %v", errSeq, errPar)
	}

	opt := cmpopts.EquateNaNs()

	if diff := cmp.Diff(seq.Mean, par.Mean, opt); diff != "" {
		t.Errorf("mean mismatch (-seq +par):\n%s", diff)
	}

	if diff := cmp.Diff(seq.Std, par.Std, opt); diff != "" {
		t.Errorf("std mismatch (-seq +par):\n%s", diff)
	}

	if diff := cmp.Diff(seq.Estimates, par.Estimates, opt); diff != "" {
		t.Errorf("estimates mismatch (-seq +par):\n%s", diff)
	}
}

func TestCandidateMatrix(t *testing.T) {

	j3d, j2d, centers := testBatch([]r3.Vec{{Z: 10}, {Z: 7}})

	res, err := NewSolver().DepthAware(j3d, j2d, testCamera.Focal, centers)

	if err != nil {
		t.Fatalf("DepthAware returned error: %v", err)
	}

	m := res.CandidateMatrix()
	r, c := m.Dims()

	if r != 2 || c != 2*(DefaultJoints-1) {
		t.Fatalf("expected 2x%d matrix, got %dx%d", 2*(DefaultJoints-1), r, c)
	}

	for i := 0; i < r; i++ {
		for j := 1; j < c; j++ {
			if m.At(i, j) < m.At(i, j-1) {
				t.Fatalf("row %d not sorted at %d", i, j)
			}
		}

		if !math.IsInf(m.At(i, c-1), 1) {
			t.Errorf("row %d: expected +Inf padding, got %v", i, m.At(i, c-1))
		}
	}
}

func BenchmarkDepthAwareParallel(b *testing.B) {

	roots := make([]r3.Vec, 64)

	for i := range roots {
		roots[i] = r3.Vec{X: 0.01 * float64(i), Z: 3 + 0.1*float64(i)}
	}

	j3d, j2d, centers := testBatch(roots)
	s := NewSolver()

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = s.DepthAwareParallel(j3d, j2d, testCamera.Focal, centers, 4)
	}

	b.ReportMetric(float64(b.Elapsed().Microseconds())/float64(b.N)/float64(len(roots)), "us/element")
}
