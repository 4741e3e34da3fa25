package tracker

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// matricesEqual compare matrices
func matricesEqual(a, b mat.Matrix, epsilon float64) bool {
	r1, c1 := a.Dims()
	r2, c2 := b.Dims()

	if r1 != r2 || c1 != c2 {
		return false
	}

	for i := 0; i < r1; i++ {
		for j := 0; j < c1; j++ {
			if diff := a.At(i, j) - b.At(i, j); diff > epsilon || diff < -epsilon {
				return false
			}
		}
	}

	return true
}

// mustInitiate starts a filter state and fails the test on error
func mustInitiate(t *testing.T, kf *KalmanFilter, depth, std float64) DepthState {
	t.Helper()

	state, err := kf.Initiate(depth, std)

	if err != nil {
		t.Fatalf("Initiate failed: %v", err)
	}

	return state
}

// TestKalmanFilter steps the filter through initiate, predict and update and
// compares against hand computed values
func TestKalmanFilter(t *testing.T) {
	kf := NewKalmanFilter(0.05)

	state := mustInitiate(t, kf, 10, 0.1)

	expectedCovInit := mat.NewDense(2, 2, []float64{
		0.01, 0,
		0, 0.1,
	})

	if state.Depth() != 10 || state.Velocity() != 0 {
		t.Errorf("Initiate mean incorrect, got (%v, %v)", state.Depth(), state.Velocity())
	}

	if !matricesEqual(state.cov, expectedCovInit, 1e-12) {
		t.Errorf("Initiate covariance incorrect, got %v", mat.Formatted(state.cov))
	}

	state = kf.Predict(state)

	expectedCovPredict := mat.NewDense(2, 2, []float64{
		0.110625, 0.10125,
		0.10125, 0.1025,
	})

	if state.Depth() != 10 {
		t.Errorf("Predict mean incorrect, got %v", state.Depth())
	}

	if !matricesEqual(state.cov, expectedCovPredict, 1e-12) {
		t.Errorf("Predict covariance incorrect, got %v", mat.Formatted(state.cov))
	}

	state, err := kf.Update(state, 10.5, 0.1)

	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	expectedCovUpdate := mat.NewDense(2, 2, []float64{
		0.009170984455958542, 0.008393782383419687,
		0.008393782383419687, 0.01751295336787563,
	})

	if math.Abs(state.Depth()-10.458549222797927) > 1e-9 {
		t.Errorf("Update depth incorrect, got %v", state.Depth())
	}

	if math.Abs(state.Velocity()-0.4196891191709845) > 1e-9 {
		t.Errorf("Update velocity incorrect, got %v", state.Velocity())
	}

	if !matricesEqual(state.cov, expectedCovUpdate, 1e-9) {
		t.Errorf("Update covariance incorrect, got %v", mat.Formatted(state.cov))
	}
}

// TestKalmanFilterWeighting checks a tight measurement moves the state
// further than a loose one
func TestKalmanFilterWeighting(t *testing.T) {
	kf := NewKalmanFilter(0.05)
	start := kf.Predict(mustInitiate(t, kf, 10, 0.2))

	tight, err := kf.Update(start, 11, 0.01)

	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	loose, err := kf.Update(start, 11, 2)

	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if tight.Depth() <= loose.Depth() {
		t.Errorf("expected tight measurement to pull harder, got tight=%v loose=%v",
			tight.Depth(), loose.Depth())
	}

	if tight.Std() >= loose.Std() {
		t.Errorf("expected tight measurement to shrink variance more, got tight=%v loose=%v",
			tight.Std(), loose.Std())
	}
}

// TestKalmanFilterZeroStd checks a zero spread measurement is floored
// instead of producing a singular system
func TestKalmanFilterZeroStd(t *testing.T) {
	kf := NewKalmanFilter(0.05)
	state := kf.Predict(mustInitiate(t, kf, 10, 0))

	state, err := kf.Update(state, 10.2, 0)

	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if math.IsNaN(state.Depth()) || math.Abs(state.Depth()-10.2) > 1e-3 {
		t.Errorf("expected depth close to measurement, got %v", state.Depth())
	}
}

func TestKalmanFilterInvalid(t *testing.T) {
	kf := NewKalmanFilter(0.05)
	state := mustInitiate(t, kf, 10, 0.1)

	tests := []struct {
		name  string
		depth float64
		std   float64
	}{
		{"nan depth", math.NaN(), 0.1},
		{"inf depth", math.Inf(1), 0.1},
		{"nan std", 10, math.NaN()},
	}

	for _, tt := range tests {
		got, err := kf.Update(state, tt.depth, tt.std)

		if err == nil {
			t.Errorf("%s: expected error", tt.name)
		}

		if got.Depth() != state.Depth() {
			t.Errorf("%s: state changed on rejected update", tt.name)
		}
	}
}

func TestKalmanFilterInitiateInvalid(t *testing.T) {
	kf := NewKalmanFilter(0.05)

	tests := []struct {
		name  string
		depth float64
		std   float64
	}{
		{"nan depth", math.NaN(), 0.1},
		{"inf depth", math.Inf(-1), 0.1},
		{"nan std", 10, math.NaN()},
		{"inf std", 10, math.Inf(1)},
	}

	for _, tt := range tests {
		if _, err := kf.Initiate(tt.depth, tt.std); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}
