package regressor

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestRot6DIdentity(t *testing.T) {

	got := Rot6DToRotMat(identityRot6D[:])
	want := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})

	if !matricesEqual(got, want, 1e-12) {
		t.Errorf("expected identity, got %v", mat.Formatted(got))
	}
}

func TestRot6DOrthonormal(t *testing.T) {

	// arbitrary non orthogonal input
	r := Rot6DToRotMat([]float64{0.3, -1.2, 2.0, 0.4, -0.7, 0.9})

	var rtr mat.Dense
	rtr.Mul(r.T(), r)

	if !matricesEqual(&rtr, mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}), 1e-12) {
		t.Errorf("expected orthonormal matrix, got RtR %v", mat.Formatted(&rtr))
	}

	if d := mat.Det(r); math.Abs(d-1) > 1e-12 {
		t.Errorf("expected determinant 1, got %v", d)
	}
}

func TestAxisAngleRoundTrip(t *testing.T) {

	tests := []r3.Vec{
		{X: 0, Y: 0, Z: 0},
		{X: 0.1, Y: -0.2, Z: 0.3},
		{X: 0, Y: 1.5, Z: 0},
		{X: -2, Y: 0.5, Z: 1},
		{X: math.Pi, Y: 0, Z: 0},
		{X: 0, Y: 0, Z: -math.Pi + 1e-9},
	}

	for _, v := range tests {

		rot := AxisAngleToRotMat(v)

		// through the 6D encoding and back
		back := Rot6DToRotMat(RotMatToRot6D(rot))

		if !matricesEqual(rot, back, 1e-9) {
			t.Errorf("%v: 6D round trip mismatch", v)
		}

		got := AxisAngleToRotMat(RotMatToAxisAngle(back))

		if !matricesEqual(rot, got, 1e-6) {
			t.Errorf("%v: axis angle round trip mismatch, got %v", v, RotMatToAxisAngle(back))
		}
	}
}

func TestDecompose(t *testing.T) {

	m := DefaultMeanParams()
	pose := m.InitialPose(DefaultPosition)

	if pose[2] != DefaultPosition[2]*TransScale {
		t.Errorf("expected scaled depth %v, got %v", DefaultPosition[2]*TransScale, pose[2])
	}

	p, err := Decompose(pose)

	if err != nil {
		t.Fatalf("Decompose returned error: %v", err)
	}

	if math.Abs(p.Translation.Z-10) > 1e-12 {
		t.Errorf("expected depth 10, got %v", p.Translation.Z)
	}

	if len(p.Rotations) != NumJoints {
		t.Fatalf("expected %d rotations, got %d", NumJoints, len(p.Rotations))
	}

	if _, err := Decompose(pose[:10]); err == nil {
		t.Errorf("expected error for short pose")
	}
}

func TestAxisAngleToRotMatKnown(t *testing.T) {

	tests := []struct {
		v        r3.Vec
		expected *mat.Dense
	}{
		{r3.Vec{Z: math.Pi / 2}, mat.NewDense(3, 3, []float64{
			0, -1, 0,
			1, 0, 0,
			0, 0, 1,
		})},
		{r3.Vec{X: math.Pi / 2}, mat.NewDense(3, 3, []float64{
			1, 0, 0,
			0, 0, -1,
			0, 1, 0,
		})},
		{r3.Vec{Y: math.Pi}, mat.NewDense(3, 3, []float64{
			-1, 0, 0,
			0, 1, 0,
			0, 0, -1,
		})},
	}

	for _, tc := range tests {
		got := AxisAngleToRotMat(tc.v)

		if !matricesEqual(got, tc.expected, 1e-12) {
			t.Errorf("%v: expected %v, got %v", tc.v, mat.Formatted(tc.expected), mat.Formatted(got))
		}
	}
}
