package depth

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// restSkeleton is an approximate root relative neutral body in meters
var restSkeleton = []r3.Vec{
	{X: 0, Y: 0, Z: 0},
	{X: 0.0696, Y: -0.0910, Z: -0.0049},
	{X: -0.0677, Y: -0.0905, Z: -0.0043},
	{X: -0.0025, Y: 0.1089, Z: -0.0267},
	{X: 0.11, Y: -0.46, Z: 0},
	{X: -0.11, Y: -0.46, Z: 0},
	{X: 0, Y: 0.24, Z: -0.01},
	{X: 0.09, Y: -0.86, Z: -0.04},
	{X: -0.09, Y: -0.86, Z: -0.04},
	{X: 0, Y: 0.29, Z: 0.02},
	{X: 0.12, Y: -0.92, Z: 0.08},
	{X: -0.12, Y: -0.92, Z: 0.08},
	{X: 0, Y: 0.51, Z: -0.01},
	{X: 0.08, Y: 0.42, Z: 0},
	{X: -0.08, Y: 0.42, Z: 0},
	{X: 0.01, Y: 0.58, Z: 0.04},
	{X: 0.17, Y: 0.45, Z: -0.02},
	{X: -0.17, Y: 0.45, Z: -0.02},
	{X: 0.43, Y: 0.44, Z: -0.04},
	{X: -0.43, Y: 0.44, Z: -0.04},
	{X: 0.68, Y: 0.45, Z: -0.04},
	{X: -0.68, Y: 0.45, Z: -0.04},
}

var testCamera = Intrinsics{Focal: 1000, Center: r2.Vec{X: 320, Y: 240}}

// placeSkeleton translates a root relative skeleton to the given root and
// projects it with the camera
func placeSkeleton(rel []r3.Vec, root r3.Vec, in Intrinsics) ([]r3.Vec, []r2.Vec) {

	j3d := make([]r3.Vec, len(rel))
	j2d := make([]r2.Vec, len(rel))

	for i, p := range rel {
		j3d[i] = r3.Add(p, root)
		j2d[i] = in.Project(j3d[i])
	}

	return j3d, j2d
}

func TestSolveSingleJoint(t *testing.T) {

	rel := []r3.Vec{{}, {X: 0.1, Y: 0.1, Z: 0.05}}
	j3d, j2d := placeSkeleton(rel, r3.Vec{Z: 10}, testCamera)

	s := NewSolver(WithJoints(2))
	sol, err := s.Solve(j3d, j2d, testCamera)

	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}

	if len(sol.Candidates) != 1 {
		t.Fatalf("expected 1 candidate set, got %d", len(sol.Candidates))
	}

	est, err := Resolve(sol.Sorted(), s.Window())

	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	if math.Abs(est.Mean-10) > 0.05 {
		t.Errorf("expected depth 10 +/- 0.05, got %v", est.Mean)
	}

	if est.Std != 0 {
		t.Errorf("expected zero std for single value window, got %v", est.Std)
	}
}

func TestSolveRecoversRootDepth(t *testing.T) {

	roots := []r3.Vec{
		{X: 0, Y: 0, Z: 10},
		{X: 0.2, Y: -0.1, Z: 8},
		{X: 1, Y: 0.5, Z: 5},
		{X: 0, Y: 0, Z: 4},
	}

	s := NewSolver()

	for _, root := range roots {

		j3d, j2d := placeSkeleton(restSkeleton, root, testCamera)
		sol, err := s.Solve(j3d, j2d, testCamera)

		if err != nil {
			t.Fatalf("root %v: Solve returned error: %v", root, err)
		}

		if len(sol.Degenerate) != 0 {
			t.Errorf("root %v: unexpected degenerate joints %v", root, sol.Degenerate)
		}

		est, err := Resolve(sol.Sorted(), s.Window())

		if err != nil {
			t.Fatalf("root %v: Resolve returned error: %v", root, err)
		}

		if math.Abs(est.Mean-root.Z) > 1e-6 {
			t.Errorf("root %v: expected depth %v, got %v", root, root.Z, est.Mean)
		}

		if est.Std > 1e-6 {
			t.Errorf("root %v: expected near zero std, got %v", root, est.Std)
		}
	}
}

func TestSolveAmbiguousJoint(t *testing.T) {

	tests := []struct {
		name string
		rel  r3.Vec
		near float64
	}{
		{name: "closer", rel: r3.Vec{X: 0.05, Y: 0, Z: -0.5}, near: 1.0588235294},
		{name: "steep", rel: r3.Vec{X: 0.01, Y: 0.01, Z: -0.3}, near: 4.3325842697},
	}

	s := NewSolver(WithJoints(2))

	for _, tt := range tests {

		j3d, j2d := placeSkeleton([]r3.Vec{{}, tt.rel}, r3.Vec{X: 1, Y: 0.5, Z: 10}, testCamera)
		sol, err := s.Solve(j3d, j2d, testCamera)

		if err != nil {
			t.Fatalf("%s: Solve returned error: %v", tt.name, err)
		}

		c := sol.Candidates[0]

		if !c.Ambiguous() {
			t.Fatalf("%s: expected ambiguous joint, got %d values", tt.name, c.Len())
		}

		got := sol.Sorted()

		if math.Abs(got[0]-tt.near) > 1e-6 || math.Abs(got[1]-10) > 1e-6 {
			t.Errorf("%s: expected candidates [%v 10], got %v", tt.name, tt.near, got)
		}
	}
}

func TestSolveDegenerateJoint(t *testing.T) {

	root := r3.Vec{X: 1, Y: 0.5, Z: 10}
	// joint on the same camera ray as the root
	j3d := []r3.Vec{root, r3.Scale(1.1, root)}
	j2d := []r2.Vec{testCamera.Project(j3d[0]), testCamera.Project(j3d[1])}

	s := NewSolver(WithJoints(2))
	sol, err := s.Solve(j3d, j2d, testCamera)

	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}

	if len(sol.Degenerate) != 1 || sol.Degenerate[0] != 1 {
		t.Errorf("expected joint 1 degenerate, got %v", sol.Degenerate)
	}

	if sol.Candidates[0].Len() != 0 {
		t.Errorf("expected no candidates, got %v", sol.Candidates[0].Values())
	}

	_, err = Resolve(sol.Sorted(), s.Window())

	if !errors.Is(err, ErrInsufficientCandidates) {
		t.Errorf("expected ErrInsufficientCandidates, got %v", err)
	}
}

func TestSolveErrors(t *testing.T) {

	j3d, j2d := placeSkeleton(restSkeleton, r3.Vec{Z: 10}, testCamera)

	tests := []struct {
		name string
		s    *Solver
		j3d  []r3.Vec
		j2d  []r2.Vec
		in   Intrinsics
		want error
	}{
		{"one joint", NewSolver(WithJoints(1)), j3d, j2d, testCamera, ErrTooFewJoints},
		{"short keypoints", NewSolver(), j3d, j2d[:10], testCamera, ErrShapeMismatch},
		{"zero focal", NewSolver(), j3d, j2d, Intrinsics{}, ErrInvalidFocal},
		{"nan focal", NewSolver(), j3d, j2d, Intrinsics{Focal: math.NaN()}, ErrInvalidFocal},
	}

	for _, tt := range tests {
		_, err := tt.s.Solve(tt.j3d, tt.j2d, tt.in)

		if !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
}

func TestSolutionPadded(t *testing.T) {

	j3d, j2d := placeSkeleton(restSkeleton, r3.Vec{Z: 10}, testCamera)

	sol, err := NewSolver().Solve(j3d, j2d, testCamera)

	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}

	padded := sol.Padded()

	if len(padded) != 2*(DefaultJoints-1) {
		t.Fatalf("expected width %d, got %d", 2*(DefaultJoints-1), len(padded))
	}

	for i := 1; i < len(padded); i++ {
		if padded[i] < padded[i-1] {
			t.Fatalf("candidates not sorted at %d: %v", i, padded)
		}
	}

	if !math.IsInf(padded[len(padded)-1], 1) {
		t.Errorf("expected +Inf padding, got %v", padded[len(padded)-1])
	}
}

func TestIntrinsicsFromMatrix(t *testing.T) {

	k := mat.NewDense(3, 3, []float64{
		1000, 0, 320,
		0, 1010, 240,
		0, 0, 1,
	})

	in, err := IntrinsicsFromMatrix(k)

	if err != nil {
		t.Fatalf("IntrinsicsFromMatrix returned error: %v", err)
	}

	if in.Focal != 1005 || in.Center.X != 320 || in.Center.Y != 240 {
		t.Errorf("unexpected intrinsics %+v", in)
	}

	if _, err := IntrinsicsFromMatrix(mat.NewDense(2, 3, nil)); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestBackProject(t *testing.T) {

	p := r3.Vec{X: 0.3, Y: -0.2, Z: 7}
	got := testCamera.BackProject(testCamera.Project(p), p.Z)

	if r3.Norm(r3.Sub(got, p)) > 1e-9 {
		t.Errorf("expected %v, got %v", p, got)
	}
}

func BenchmarkSolveResolve(b *testing.B) {

	j3d, j2d := placeSkeleton(restSkeleton, r3.Vec{X: 0.2, Y: -0.1, Z: 8}, testCamera)
	s := NewSolver()

	for i := 0; i < b.N; i++ {
		sol, _ := s.Solve(j3d, j2d, testCamera)
		_, _ = Resolve(sol.Sorted(), s.Window())
	}
}
