package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/swdee/go-airpose"
	"github.com/swdee/go-airpose/loss"
	"github.com/swdee/go-airpose/metrics"
	"github.com/swdee/go-airpose/preprocess"
	"github.com/swdee/go-airpose/regressor"
)

// regressAction runs the estimator over a batch of backbone features
func (a *app) regressAction(c *cli.Context) error {

	cfg, err := a.config(c)

	if err != nil {
		return err
	}

	est, err := airpose.NewEstimator(cfg, airpose.WithLogger(a.log))

	if err != nil {
		return err
	}

	ar, err := regressor.OpenArchive(c.Path(flagInput))

	if err != nil {
		return err
	}

	defer ar.Close()

	features, err := readFeatures(c, ar)

	if err != nil {
		return err
	}

	keypoints, err := readVecs2(ar, keyKeypoints)

	if err != nil {
		return err
	}

	batchSize := len(features) / regressor.FeatureDim

	if len(keypoints) != batchSize {
		return errors.Errorf("%d keypoint sets for %d feature vectors", len(keypoints), batchSize)
	}

	centers, err := readCenters(ar, batchSize, r2.Vec{X: c.Float64(flagCX), Y: c.Float64(flagCY)})

	if err != nil {
		return err
	}

	boxes, err := readBoxes(c, ar, cfg, keypoints, centers)

	if err != nil {
		return err
	}

	batch := airpose.NewBatch(batchSize)

	for i := 0; i < batchSize; i++ {
		err := batch.Add(airpose.Sample{
			Features:  features[i*regressor.FeatureDim : (i+1)*regressor.FeatureDim],
			BBox:      boxes[i],
			Center:    centers[i],
			Keypoints: keypoints[i],
		})

		if err != nil {
			return errors.Wrapf(err, "sample %d", i)
		}
	}

	results, err := est.Estimate(batch)

	if err != nil {
		return err
	}

	sup, err := est.DepthSupervision(batch, results)

	if err != nil && sup.Mean == nil {
		return err
	}

	if err != nil {
		a.log.Warn("depth supervision incomplete", zap.Error(err))
	}

	names := est.JointNames()

	for i, r := range results {
		fmt.Printf("%4d  t=(%.3f, %.3f, %.3f)  analytic z=%.3f+/-%.3f  %s=(%.1f, %.1f)\n", i,
			r.Translation.X, r.Translation.Y, r.Translation.Z,
			sup.Mean[i], sup.Std[i], names[0], r.Keypoints[0].X, r.Keypoints[0].Y)
	}

	if err := a.evaluate(ar, est, batch, results); err != nil {
		return err
	}

	out := c.Path(flagOutput)

	if out == "" {
		return nil
	}

	trans := mat.NewDense(batchSize, regressor.NTrans, nil)
	betas := mat.NewDense(batchSize, regressor.NShape, nil)
	axis := make([][]r3.Vec, batchSize)
	joints := make([][]r3.Vec, batchSize)
	kps := make([][]r2.Vec, batchSize)

	for i, r := range results {
		trans.SetRow(i, []float64{r.Translation.X, r.Translation.Y, r.Translation.Z})
		betas.SetRow(i, r.Betas)
		axis[i] = r.AxisAngles
		joints[i] = r.Joints
		kps[i] = r.Keypoints
	}

	err = regressor.WriteArchive(out, map[string]interface{}{
		"translation": trans,
		"axis_angle":  denseVecs3(axis),
		"betas":       betas,
		"joints":      denseVecs3(joints),
		"keypoints":   denseVecs2(kps),
		"depth_mean":  sup.Mean,
		"depth_std":   sup.Std,
	})

	if err != nil {
		return err
	}

	a.log.Info("wrote estimates", zap.String("path", out), zap.Int("batch", batchSize))

	return nil
}

// readFeatures returns the flattened feature vectors from the archive or the
// raw float16 file
func readFeatures(c *cli.Context, ar *regressor.Archive) ([]float64, error) {

	var features []float64

	if path := c.Path(flagFP16); path != "" {

		buf, err := os.ReadFile(path)

		if err != nil {
			return nil, errors.Wrap(err, "error reading float16 features")
		}

		if features, err = airpose.DecodeFloat16(buf); err != nil {
			return nil, err
		}

	} else {

		arr, err := readArray(ar, keyFeatures, 2, regressor.FeatureDim)

		if err != nil {
			return nil, err
		}

		features = arr.Data
	}

	if len(features) == 0 || len(features)%regressor.FeatureDim != 0 {
		return nil, errors.Errorf("%d feature values is not a multiple of %d",
			len(features), regressor.FeatureDim)
	}

	return features, nil
}

// readBoxes returns the crop descriptors from the archive, or derives them
// from the keypoints when absent
func readBoxes(c *cli.Context, ar *regressor.Archive, cfg airpose.Config,
	keypoints [][]r2.Vec, centers []r2.Vec) ([][regressor.NBox]float64, error) {

	boxes := make([][regressor.NBox]float64, len(keypoints))

	if ar.Has(keyBBox) {

		arr, err := readArray(ar, keyBBox, 2, regressor.NBox)

		if err != nil {
			return nil, err
		}

		if arr.Shape[0] != len(keypoints) {
			return nil, errors.Errorf("%d boxes for batch of %d", arr.Shape[0], len(keypoints))
		}

		for i := range boxes {
			copy(boxes[i][:], arr.Data[i*regressor.NBox:])
		}

		return boxes, nil
	}

	for i, kps := range keypoints {

		// image size defaults to twice the principal point
		w, h := c.Int(flagWidth), c.Int(flagHeight)

		if w == 0 || h == 0 {
			w, h = int(2*centers[i].X), int(2*centers[i].Y)
		}

		box, err := preprocess.KeypointBox(kps, cfg.UnclipRatio, w, h)

		if err != nil {
			return nil, errors.Wrapf(err, "sample %d", i)
		}

		boxes[i] = preprocess.BBoxVector(preprocess.SquareBox(box), w, h)
	}

	return boxes, nil
}

// evaluate reports joint and translation errors and the supervision loss when
// the archive carries ground truth
func (a *app) evaluate(ar *regressor.Archive, est *airpose.Estimator,
	batch *airpose.Batch, results []airpose.Result) error {

	if !ar.Has(keyGTJoints) || !ar.Has(keyGTTrans) {
		return nil
	}

	gtJoints, err := readVecs3(ar, keyGTJoints)

	if err != nil {
		return err
	}

	gtTrans, err := readArray(ar, keyGTTrans, 2, 3)

	if err != nil {
		return err
	}

	if len(gtJoints) != len(results) || gtTrans.Shape[0] != len(results) {
		return errors.Errorf("ground truth for %d samples, batch of %d", len(gtJoints), len(results))
	}

	acc := &metrics.Accumulator{}
	targets := make([]loss.Target, len(results))

	for i, r := range results {

		t := r3.Vec{X: gtTrans.Data[3*i], Y: gtTrans.Data[3*i+1], Z: gtTrans.Data[3*i+2]}

		if err := acc.Add(r.Joints, gtJoints[i], r.Translation, t); err != nil {
			return errors.Wrapf(err, "sample %d", i)
		}

		kps, _ := batch.Keypoints(i)
		targets[i] = loss.Target{Trans: t, Joints: gtJoints[i], Keypoints: kps}
	}

	mpjpe, err := acc.MPJPE()

	if err != nil {
		return err
	}

	mpe, err := acc.MPE()

	if err != nil {
		return err
	}

	fmt.Printf("MPJPE  mean=%.4f median=%.4f p90=%.4f max=%.4f\n", mpjpe.Mean, mpjpe.Median, mpjpe.P90, mpjpe.Max)
	fmt.Printf("MPE    mean=%.4f median=%.4f p90=%.4f max=%.4f\n", mpe.Mean, mpe.Median, mpe.P90, mpe.Max)

	// the loss also needs ground truth rotations
	if !ar.Has(keyGTPose) {
		return nil
	}

	gtPose, err := readVecs3(ar, keyGTPose)

	if err != nil {
		return err
	}

	if len(gtPose) != len(results) {
		return errors.Errorf("ground truth pose for %d samples, batch of %d", len(gtPose), len(results))
	}

	for i := range targets {

		rots := make([]*mat.Dense, len(gtPose[i]))

		for j, v := range gtPose[i] {
			rots[j] = regressor.AxisAngleToRotMat(v)
		}

		targets[i].Rotations = rots
	}

	b, err := est.Loss(batch, results, targets)

	if err != nil {
		return err
	}

	fmt.Printf("loss   total=%.4f trans=%.4f kp2d=%.4f kp3d=%.4f pose=%.4f depth=%.4f (%d samples)\n",
		b.Total, b.Trans, b.Keypoints, b.Keypoints3D, b.Pose, b.DepthAware, b.DepthSamples)

	return nil
}
