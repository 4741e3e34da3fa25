package regressor

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// Regressor iteratively refines pose and shape estimates from pooled image
// features and a bounding box descriptor
type Regressor struct {
	weights *Weights
	mean    MeanParams
	iters   int
	log     *zap.Logger
}

// Option configures a Regressor
type Option func(*Regressor)

// WithIterations sets the number of refinement steps
func WithIterations(n int) Option {
	return func(r *Regressor) {
		r.iters = n
	}
}

// WithMeanParams sets the starting estimate, defaults to identity rotations
// and zero shape
func WithMeanParams(m MeanParams) Option {
	return func(r *Regressor) {
		r.mean = m
	}
}

// WithLogger sets the logger
func WithLogger(log *zap.Logger) Option {
	return func(r *Regressor) {
		if log != nil {
			r.log = log
		}
	}
}

// New returns a Regressor using the given weights
func New(w *Weights, opts ...Option) (*Regressor, error) {

	r := &Regressor{
		weights: w,
		mean:    DefaultMeanParams(),
		iters:   DefaultIterations,
		log:     zap.NewNop(),
	}

	for _, o := range opts {
		o(r)
	}

	if r.iters < 1 {
		return nil, errors.Wrapf(ErrInvalidIterations, "got %d", r.iters)
	}

	if w == nil {
		return nil, errors.Wrap(ErrMissingArray, "no weights")
	}

	if err := w.Validate(); err != nil {
		return nil, err
	}

	if err := r.mean.Validate(); err != nil {
		return nil, err
	}

	return r, nil
}

// Iterations returns the number of refinement steps per Refine
func (r *Regressor) Iterations() int {
	return r.iters
}

// Estimate is a batch of pose (batch, NPose) and shape (batch, NShape)
// vectors
type Estimate struct {
	Pose  *mat.Dense
	Shape *mat.Dense
}

// Batch returns the number of rows in the estimate
func (e Estimate) Batch() int {
	r, _ := e.Pose.Dims()
	return r
}

// Clone returns a deep copy
func (e Estimate) Clone() Estimate {
	return Estimate{
		Pose:  mat.DenseCopyOf(e.Pose),
		Shape: mat.DenseCopyOf(e.Shape),
	}
}

// Initial returns the starting estimate for a batch.  positions holds the
// unscaled root position per element, nil uses DefaultPosition for all.
func (r *Regressor) Initial(batch int, positions [][NTrans]float64) (Estimate, error) {

	if batch < 1 {
		return Estimate{}, errors.Wrapf(ErrDimension, "batch size %d", batch)
	}

	if positions != nil && len(positions) != batch {
		return Estimate{}, errors.Wrapf(ErrDimension, "%d initial positions for batch %d",
			len(positions), batch)
	}

	est := Estimate{
		Pose:  mat.NewDense(batch, NPose, nil),
		Shape: mat.NewDense(batch, NShape, nil),
	}

	for i := 0; i < batch; i++ {

		pos := DefaultPosition

		if positions != nil {
			pos = positions[i]
		}

		est.Pose.SetRow(i, r.mean.InitialPose(pos))
		est.Shape.SetRow(i, r.mean.Shape)
	}

	return est, nil
}

// Step applies a single residual update to the estimate and returns the new
// estimate, the input is not modified
func (r *Regressor) Step(features, bbox mat.Matrix, est Estimate) (Estimate, error) {

	x, err := concatInput(features, bbox, est)

	if err != nil {
		return Estimate{}, err
	}

	w := r.weights

	// dropout is the identity at inference, there is no activation between
	// the fully connected layers
	h, err := w.FC1.Forward(x)

	if err != nil {
		return Estimate{}, err
	}

	if h, err = w.FC2.Forward(h); err != nil {
		return Estimate{}, err
	}

	dPose, err := w.DecPose.Forward(h)

	if err != nil {
		return Estimate{}, err
	}

	dShape, err := w.DecShape.Forward(h)

	if err != nil {
		return Estimate{}, err
	}

	dPose.Add(dPose, est.Pose)
	dShape.Add(dShape, est.Shape)

	return Estimate{Pose: dPose, Shape: dShape}, nil
}

// Refine runs exactly Iterations() steps from the given estimate
func (r *Regressor) Refine(features, bbox mat.Matrix, init Estimate) (Estimate, error) {

	est := init

	for it := 0; it < r.iters; it++ {

		next, err := r.Step(features, bbox, est)

		if err != nil {
			return Estimate{}, errors.Wrapf(err, "iteration %d", it)
		}

		est = next
	}

	r.log.Debug("regression refined",
		zap.Int("batch", est.Batch()),
		zap.Int("iterations", r.iters))

	return est, nil
}

// Predict runs Refine from the mean estimate with the given initial positions
func (r *Regressor) Predict(features, bbox mat.Matrix, positions [][NTrans]float64) (Estimate, error) {

	batch, _ := features.Dims()
	init, err := r.Initial(batch, positions)

	if err != nil {
		return Estimate{}, err
	}

	return r.Refine(features, bbox, init)
}

// concatInput builds the (batch, InputDim) input [features | bbox | pose | shape]
func concatInput(features, bbox mat.Matrix, est Estimate) (*mat.Dense, error) {

	batch, fc := features.Dims()
	br, bc := bbox.Dims()
	pr, pc := est.Pose.Dims()
	sr, sc := est.Shape.Dims()

	if fc != FeatureDim || bc != NBox || pc != NPose || sc != NShape {
		return nil, errors.Wrapf(ErrDimension,
			"input widths features=%d bbox=%d pose=%d shape=%d", fc, bc, pc, sc)
	}

	if br != batch || pr != batch || sr != batch {
		return nil, errors.Wrapf(ErrDimension,
			"batch sizes features=%d bbox=%d pose=%d shape=%d", batch, br, pr, sr)
	}

	x := mat.NewDense(batch, InputDim, nil)

	x.Slice(0, batch, 0, FeatureDim).(*mat.Dense).Copy(features)
	x.Slice(0, batch, FeatureDim, FeatureDim+NBox).(*mat.Dense).Copy(bbox)
	x.Slice(0, batch, FeatureDim+NBox, FeatureDim+NBox+NPose).(*mat.Dense).Copy(est.Pose)
	x.Slice(0, batch, FeatureDim+NBox+NPose, InputDim).(*mat.Dense).Copy(est.Shape)

	return x, nil
}
