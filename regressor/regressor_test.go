package regressor

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// constantWeights returns weights whose decoders add the given constants on
// every step regardless of the input
func constantWeights(dPose, dShape float64) *Weights {

	w := &Weights{
		FC1:      NewLinear(InputDim, Hidden),
		FC2:      NewLinear(Hidden, Hidden),
		DecPose:  NewLinear(Hidden, NPose),
		DecShape: NewLinear(Hidden, NShape),
	}

	for i := range w.DecPose.Bias {
		w.DecPose.Bias[i] = dPose
	}

	for i := range w.DecShape.Bias {
		w.DecShape.Bias[i] = dShape
	}

	return w
}

func testInputs(batch int) (*mat.Dense, *mat.Dense) {

	features := mat.NewDense(batch, FeatureDim, nil)
	bbox := mat.NewDense(batch, NBox, nil)

	for i := 0; i < batch; i++ {
		bbox.SetRow(i, []float64{0.1, -0.2, 0.5})

		for j := 0; j < FeatureDim; j++ {
			features.Set(i, j, math.Sin(float64(i*FeatureDim+j)))
		}
	}

	return features, bbox
}

func TestRefineExactIterations(t *testing.T) {

	for _, iters := range []int{1, 3, 5} {

		r, err := New(constantWeights(0.01, -0.1), WithIterations(iters))

		if err != nil {
			t.Fatalf("New returned error: %v", err)
		}

		features, bbox := testInputs(2)
		init, err := r.Initial(2, nil)

		if err != nil {
			t.Fatalf("Initial returned error: %v", err)
		}

		got, err := r.Refine(features, bbox, init)

		if err != nil {
			t.Fatalf("Refine returned error: %v", err)
		}

		wantPose := mat.NewDense(2, NPose, nil)
		wantPose.Apply(func(i, j int, v float64) float64 {
			return init.Pose.At(i, j) + 0.01*float64(iters)
		}, wantPose)

		if !matricesEqual(got.Pose, wantPose, 1e-9) {
			t.Errorf("iters %d: pose does not reflect exactly %d steps", iters, iters)
		}

		if d := got.Shape.At(1, 4) - init.Shape.At(1, 4); math.Abs(d+0.1*float64(iters)) > 1e-9 {
			t.Errorf("iters %d: expected shape delta %v, got %v", iters, -0.1*float64(iters), d)
		}
	}
}

func TestStepZeroUpdate(t *testing.T) {

	r, err := New(constantWeights(0, 0))

	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	features, bbox := testInputs(1)
	init, _ := r.Initial(1, [][NTrans]float64{{0.5, -0.5, 7}})
	before := init.Clone()

	got, err := r.Step(features, bbox, init)

	if err != nil {
		t.Fatalf("Step returned error: %v", err)
	}

	if !matricesEqual(got.Pose, before.Pose, 0) || !matricesEqual(init.Pose, before.Pose, 0) {
		t.Errorf("expected pose unchanged")
	}

	pose, err := Decompose(got.Pose.RawRowView(0))

	if err != nil {
		t.Fatalf("Decompose returned error: %v", err)
	}

	if math.Abs(pose.Translation.Z-7) > 1e-12 || math.Abs(pose.Translation.X-0.5) > 1e-12 {
		t.Errorf("expected translation (0.5, -0.5, 7), got %v", pose.Translation)
	}
}

func TestStepUsesInput(t *testing.T) {

	w := NewWeights()
	r, err := New(w, WithIterations(2))

	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	features, bbox := testInputs(2)
	init, _ := r.Initial(2, nil)

	got, err := r.Refine(features, bbox, init)

	if err != nil {
		t.Fatalf("Refine returned error: %v", err)
	}

	// rows with different features must move differently
	if matricesEqual(got.Pose.Slice(0, 1, 0, NPose), got.Pose.Slice(1, 2, 0, NPose), 1e-12) {
		t.Errorf("expected per element updates to differ")
	}
}

func TestNewErrors(t *testing.T) {

	if _, err := New(constantWeights(0, 0), WithIterations(0)); !errors.Is(err, ErrInvalidIterations) {
		t.Errorf("expected ErrInvalidIterations, got %v", err)
	}

	w := constantWeights(0, 0)
	w.DecShape = NewLinear(Hidden, 3)

	if _, err := New(w); !errors.Is(err, ErrDimension) {
		t.Errorf("expected ErrDimension, got %v", err)
	}

	bad := MeanParams{Rot6D: make([]float64, 6), Shape: make([]float64, NShape)}

	if _, err := New(constantWeights(0, 0), WithMeanParams(bad)); !errors.Is(err, ErrDimension) {
		t.Errorf("expected ErrDimension for mean params, got %v", err)
	}
}

func TestStepShapeMismatch(t *testing.T) {

	r, _ := New(constantWeights(0, 0))
	features, _ := testInputs(2)
	init, _ := r.Initial(2, nil)

	_, err := r.Step(features, mat.NewDense(1, NBox, nil), init)

	if !errors.Is(err, ErrDimension) {
		t.Errorf("expected ErrDimension, got %v", err)
	}
}

func BenchmarkRefine(b *testing.B) {

	r, _ := New(NewWeights())
	features, bbox := testInputs(4)
	init, _ := r.Initial(4, nil)

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = r.Refine(features, bbox, init)
	}
}
