package tracker

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const (
	// minVariance is the smallest measurement variance accepted, a resolver
	// window of identical candidates reports zero spread
	minVariance = 1e-6
)

// DepthState is the filtered root depth and its rate of change per frame
type DepthState struct {
	mean *mat.VecDense
	cov  *mat.SymDense
}

// Depth returns the filtered depth
func (s DepthState) Depth() float64 {
	return s.mean.AtVec(0)
}

// Velocity returns the filtered depth change per frame
func (s DepthState) Velocity() float64 {
	return s.mean.AtVec(1)
}

// Std returns the standard deviation of the filtered depth
func (s DepthState) Std() float64 {
	return math.Sqrt(s.cov.At(0, 0))
}

// KalmanFilter is a constant velocity filter over a person's root depth.  The
// measurement noise of each update is the spread of the depth estimate, so
// tight candidate clusters pull the state harder than loose ones.
type KalmanFilter struct {
	processNoise float64
	motionMat    *mat.Dense
	updateMat    *mat.Dense
}

// NewKalmanFilter initializes and returns a new KalmanFilter.  processNoise is
// the standard deviation of the depth acceleration per frame.
func NewKalmanFilter(processNoise float64) *KalmanFilter {

	dt := 1.0

	return &KalmanFilter{
		processNoise: processNoise,
		motionMat: mat.NewDense(2, 2, []float64{
			1, dt,
			0, 1,
		}),
		updateMat: mat.NewDense(1, 2, []float64{1, 0}),
	}
}

// Initiate creates the state from a first depth measurement
func (kf *KalmanFilter) Initiate(depth, std float64) (DepthState, error) {

	variance, err := measurementVariance(depth, std)

	if err != nil {
		return DepthState{}, err
	}

	return DepthState{
		mean: mat.NewVecDense(2, []float64{depth, 0}),
		cov: mat.NewSymDense(2, []float64{
			variance, 0,
			0, 10 * variance,
		}),
	}, nil
}

// Predict advances the state by one frame
func (kf *KalmanFilter) Predict(s DepthState) DepthState {

	// predict the next state mean using the motion model
	mean := mat.NewVecDense(2, nil)
	mean.MulVec(kf.motionMat, s.mean)

	// discrete white noise acceleration
	q := kf.processNoise * kf.processNoise
	motionCov := mat.NewDense(2, 2, []float64{
		q / 4, q / 2,
		q / 2, q,
	})

	// predict the next state covariance using the motion model
	var cov mat.Dense
	cov.Mul(kf.motionMat, s.cov)
	cov.Mul(&cov, kf.motionMat.T())
	cov.Add(&cov, motionCov)

	return DepthState{mean: mean, cov: symmetric(&cov)}
}

// Update corrects the state with a depth measurement and its standard
// deviation
func (kf *KalmanFilter) Update(s DepthState, depth, std float64) (DepthState, error) {

	variance, err := measurementVariance(depth, std)

	if err != nil {
		return s, err
	}

	// project the state covariance to measurement space
	var temp, projected mat.Dense
	temp.Mul(kf.updateMat, s.cov)
	projected.Mul(&temp, kf.updateMat.T())
	projected.Set(0, 0, projected.At(0, 0)+variance)

	chol := mat.Cholesky{}

	if ok := chol.Factorize(symmetric(&projected)); !ok {
		return s, errors.New("failed to factorize projected covariance")
	}

	// compute the Kalman gain using the Cholesky factorization
	b := mat.NewDense(2, 1, nil)
	b.Mul(s.cov, kf.updateMat.T())

	var gainT mat.Dense

	if err := chol.SolveTo(&gainT, b.T()); err != nil {
		return s, errors.Wrap(err, "failed to compute kalman gain")
	}

	innovation := depth - s.mean.AtVec(0)

	mean := mat.NewVecDense(2, nil)
	mean.AddScaledVec(s.mean, innovation, gainT.RowView(0))

	// cov - K·S·Kᵀ
	var ks, kskt mat.Dense
	ks.Mul(gainT.T(), &projected)
	kskt.Mul(&ks, &gainT)

	var cov mat.Dense
	cov.Sub(s.cov, &kskt)

	return DepthState{mean: mean, cov: symmetric(&cov)}, nil
}

// measurementVariance checks a measurement is finite and returns its floored
// variance
func measurementVariance(depth, std float64) (float64, error) {

	if math.IsNaN(depth) || math.IsInf(depth, 0) {
		return 0, errors.Errorf("invalid depth measurement %v", depth)
	}

	if math.IsNaN(std) || math.IsInf(std, 0) {
		return 0, errors.Errorf("invalid depth deviation %v", std)
	}

	return math.Max(std*std, minVariance), nil
}

// symmetric returns the symmetric part of a square matrix
func symmetric(m mat.Matrix) *mat.SymDense {

	n, _ := m.Dims()
	s := mat.NewSymDense(n, nil)

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, (m.At(i, j)+m.At(j, i))/2)
		}
	}

	return s
}
