package airpose

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/swdee/go-airpose/body"
	"github.com/swdee/go-airpose/depth"
	"github.com/swdee/go-airpose/loss"
	"github.com/swdee/go-airpose/regressor"
)

// Result is the estimate for a single sample
type Result struct {
	// Translation is the root position in camera space
	Translation r3.Vec
	// Rotations are the joint rotations, index 0 the root orientation
	Rotations []*mat.Dense
	// AxisAngles are the joint rotations as rotation vectors
	AxisAngles []r3.Vec
	// Betas are the body shape coefficients
	Betas []float64
	// Joints are the posed joints in camera space
	Joints []r3.Vec
	// Keypoints are the joints projected into the image
	Keypoints []r2.Vec
}

// Estimator predicts pose, shape and position for batches of samples
type Estimator struct {
	cfg    Config
	reg    *regressor.Regressor
	model  body.Model
	solver *depth.Solver
	names  []string
	log    *zap.Logger
}

// EstimatorOption configures an Estimator
type EstimatorOption func(*estimatorOptions)

type estimatorOptions struct {
	weights *regressor.Weights
	model   body.Model
	log     *zap.Logger
}

// WithWeights sets the regression head weights, overriding Config.Weights
func WithWeights(w *regressor.Weights) EstimatorOption {
	return func(o *estimatorOptions) {
		o.weights = w
	}
}

// WithBodyModel sets the body model, defaults to the kinematic neutral body
func WithBodyModel(m body.Model) EstimatorOption {
	return func(o *estimatorOptions) {
		o.model = m
	}
}

// WithLogger sets the logger used by the Estimator and its components
func WithLogger(log *zap.Logger) EstimatorOption {
	return func(o *estimatorOptions) {
		o.log = log
	}
}

// NewEstimator returns an Estimator for the given config
func NewEstimator(cfg Config, opts ...EstimatorOption) (*Estimator, error) {

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := estimatorOptions{log: zap.NewNop()}

	for _, opt := range opts {
		opt(&o)
	}

	if o.log == nil {
		o.log = zap.NewNop()
	}

	var err error

	if o.weights == nil {
		if cfg.Weights != "" {
			if o.weights, err = regressor.LoadWeights(cfg.Weights); err != nil {
				return nil, err
			}
		} else {
			o.log.Warn("no regressor weights given, using initialised weights")
			o.weights = regressor.NewWeights()
		}
	}

	mean := regressor.DefaultMeanParams()

	if cfg.MeanParams != "" {
		if mean, err = regressor.LoadMeanParams(cfg.MeanParams); err != nil {
			return nil, err
		}
	}

	if o.model == nil {
		if o.model, err = body.NewKinematic(nil, nil); err != nil {
			return nil, err
		}
	}

	names := DefaultJointNames()

	if cfg.JointNames != "" {
		if names, err = LoadJointNames(cfg.JointNames); err != nil {
			return nil, err
		}
	}

	reg, err := regressor.New(o.weights,
		regressor.WithIterations(cfg.Iterations),
		regressor.WithMeanParams(mean),
		regressor.WithLogger(o.log),
	)

	if err != nil {
		return nil, err
	}

	return &Estimator{
		cfg:    cfg,
		reg:    reg,
		model:  o.model,
		solver: depth.NewSolver(depth.WithJoints(cfg.Joints), depth.WithLogger(o.log)),
		names:  names,
		log:    o.log,
	}, nil
}

// Config returns the estimator settings
func (e *Estimator) Config() Config {
	return e.cfg
}

// JointNames returns the joint names in model order
func (e *Estimator) JointNames() []string {
	return e.names
}

// Solver returns the depth solver
func (e *Estimator) Solver() *depth.Solver {
	return e.solver
}

// Estimate runs the regressor over every sample in the batch and poses the
// body model with the result
func (e *Estimator) Estimate(b *Batch) ([]Result, error) {

	est, err := e.reg.Predict(b.Features(), b.BBox(), b.Positions())

	if err != nil {
		return nil, errors.Wrap(err, "regression failed")
	}

	results := make([]Result, b.Size())

	for i := range results {

		center, _ := b.Center(i)

		res, err := e.decode(est.Pose.RawRowView(i), est.Shape.RawRowView(i), center)

		if err != nil {
			return nil, errors.Wrapf(err, "sample %d", i)
		}

		results[i] = res
	}

	e.log.Debug("batch estimated", zap.Int("size", b.Size()))

	return results, nil
}

// decode turns a pose and shape vector into a posed camera space Result
func (e *Estimator) decode(poseVec, shape []float64, center r2.Vec) (Result, error) {

	pose, err := regressor.Decompose(poseVec)

	if err != nil {
		return Result{}, err
	}

	// the body is posed with an identity root, the root orientation is part
	// of the camera transform
	local := make([]*mat.Dense, len(pose.Rotations))
	copy(local, pose.Rotations)
	local[0] = body.Identity(1)[0]

	rel, err := e.model.Forward(shape, local)

	if err != nil {
		return Result{}, errors.Wrap(err, "body model")
	}

	joints := body.ToCamera(rel, pose.Rotations[0], pose.Translation)

	axis := make([]r3.Vec, len(pose.Rotations))

	for j, r := range pose.Rotations {
		axis[j] = regressor.RotMatToAxisAngle(r)
	}

	return Result{
		Translation: pose.Translation,
		Rotations:   pose.Rotations,
		AxisAngles:  axis,
		Betas:       append([]float64(nil), shape...),
		Joints:      joints,
		Keypoints:   body.Project(joints, e.cfg.Focal, center),
	}, nil
}

// DepthSupervision triangulates the root depth of every result against the
// observed keypoints of the batch.  Failed samples are NaN in the returned
// depth.Result and reported in the error.
func (e *Estimator) DepthSupervision(b *Batch, results []Result) (depth.Result, error) {

	if len(results) != b.Size() {
		return depth.Result{}, errors.Errorf("%d results for batch of %d", len(results), b.Size())
	}

	j3d := make([][]r3.Vec, len(results))
	j2d := make([][]r2.Vec, len(results))
	centers := make([]r2.Vec, len(results))

	for i, r := range results {
		j3d[i] = r.Joints
		j2d[i], _ = b.Keypoints(i)
		centers[i], _ = b.Center(i)
	}

	return e.solver.DepthAwareParallel(j3d, j2d, e.cfg.Focal, centers, e.cfg.Workers)
}

// Loss evaluates the supervision terms of results against targets.  The depth
// aware targets are filled in from DepthSupervision.
func (e *Estimator) Loss(b *Batch, results []Result, targets []loss.Target) (loss.Breakdown, error) {

	if len(targets) != len(results) {
		return loss.Breakdown{}, errors.Wrapf(loss.ErrBatch, "%d targets for %d results", len(targets), len(results))
	}

	sup, err := e.DepthSupervision(b, results)

	if err != nil && sup.Mean == nil {
		return loss.Breakdown{}, err
	}

	if err != nil {
		e.log.Debug("depth supervision incomplete", zap.Error(err))
	}

	preds := make([]loss.Prediction, len(results))
	tg := make([]loss.Target, len(targets))

	for i, r := range results {
		preds[i] = loss.Prediction{
			Trans:     r.Translation,
			Rotations: r.Rotations,
			Betas:     r.Betas,
			Joints:    r.Joints,
			Keypoints: r.Keypoints,
		}

		tg[i] = targets[i]
		tg[i].DepthMean = sup.Mean[i]
		tg[i].DepthStd = sup.Std[i]
	}

	return loss.Compute(e.cfg.Loss, preds, tg)
}
