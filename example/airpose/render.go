package main

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/swdee/go-airpose/depth"
	"github.com/swdee/go-airpose/preprocess"
	"github.com/swdee/go-airpose/regressor"
	"github.com/swdee/go-airpose/render"
	"github.com/swdee/go-airpose/tracker"
)

// sequence holds per frame, per person joints
type sequence struct {
	keypoints [][][]r2.Vec
	joints    [][][]r3.Vec
}

// readSequence reads (F,P,J,k) keypoint and joint arrays
func readSequence(ar *regressor.Archive) (sequence, error) {

	var seq sequence

	kps, err := ar.Read(keyKeypoints)

	if err != nil {
		return seq, err
	}

	j3d, err := ar.Read(keyJoints3D)

	if err != nil {
		return seq, err
	}

	if len(kps.Shape) != 4 || kps.Shape[3] != 2 {
		return seq, errors.Errorf("keypoints shape %v, expected (F,P,J,2)", kps.Shape)
	}

	if len(j3d.Shape) != 4 || j3d.Shape[3] != 3 ||
		j3d.Shape[0] != kps.Shape[0] || j3d.Shape[1] != kps.Shape[1] || j3d.Shape[2] != kps.Shape[2] {
		return seq, errors.Errorf("joints3d shape %v does not pair with keypoints %v", j3d.Shape, kps.Shape)
	}

	frames, people, joints := kps.Shape[0], kps.Shape[1], kps.Shape[2]

	for f := 0; f < frames; f++ {
		o2 := f * people * joints * 2
		o3 := f * people * joints * 3
		seq.keypoints = append(seq.keypoints, splitVecs2(kps.Data[o2:], people, joints))
		seq.joints = append(seq.joints, splitVecs3(j3d.Data[o3:], people, joints))
	}

	return seq, nil
}

// renderAction draws every frame with the skeletons and the filtered root
// depth of each person
func (a *app) renderAction(c *cli.Context) error {

	cfg, err := a.config(c)

	if err != nil {
		return err
	}

	ar, err := regressor.OpenArchive(c.Path(flagFrames))

	if err != nil {
		return err
	}

	defer ar.Close()

	seq, err := readSequence(ar)

	if err != nil {
		return err
	}

	if c.NArg() != len(seq.keypoints) {
		return errors.Errorf("%d images given for %d frames", c.NArg(), len(seq.keypoints))
	}

	outDir := c.Path(flagOutput)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return errors.Wrap(err, "error creating output directory")
	}

	face, err := render.DefaultFace(18)

	if err != nil {
		return err
	}

	solver := depth.NewSolver(depth.WithJoints(cfg.Joints), depth.WithLogger(a.log))
	tracks := tracker.NewDepthTracker(cfg.DepthNoise, tracker.WithLogger(a.log))
	labelFont := render.DefaultFont()

	for f, path := range c.Args().Slice() {

		img := gocv.IMRead(path, gocv.IMReadColor)

		if img.Empty() {
			return errors.Errorf("error reading image %s", path)
		}

		width, height := img.Cols(), img.Rows()
		kps := seq.keypoints[f]

		centers := make([]r2.Vec, len(kps))

		for i := range centers {
			centers[i] = r2.Vec{X: float64(width) / 2, Y: float64(height) / 2}
		}

		res, err := solver.DepthAware(seq.joints[f], kps, cfg.Focal, centers)

		if err != nil && res.Mean == nil {
			img.Close()
			return errors.Wrapf(err, "frame %d", f)
		}

		if err != nil {
			a.log.Debug("depth failed for some people", zap.Int("frame", f), zap.Error(err))
		}

		measurements := make([]tracker.Measurement, len(kps))

		for p := range kps {
			measurements[p] = tracker.Measurement{ID: p, Depth: res.Mean[p], Std: res.Std[p]}
		}

		states := tracks.Update(measurements)

		render.Skeleton(&img, kps, 2)

		for p := range kps {

			box, err := preprocess.KeypointBox(kps[p], cfg.UnclipRatio, width, height)

			if err != nil {
				continue
			}

			anchor := image.Pt((box.Min.X+box.Max.X)/2, box.Min.Y)
			state, ok := states[p]

			if !ok {
				render.DepthLabel(&img, anchor, res.Mean[p], res.Std[p], render.SubjectColor(p), labelFont)
				continue
			}

			render.DepthLabel(&img, anchor, state.Depth(), state.Std(), render.SubjectColor(p), labelFont)
		}

		if err := render.OverlayText(&img, face, image.Pt(10, 24),
			fmt.Sprintf("frame %d  tracks %d", f, tracks.Len()), render.White); err != nil {
			img.Close()
			return err
		}

		out := filepath.Join(outDir, filepath.Base(path))
		ok := gocv.IMWrite(out, img)
		img.Close()

		if !ok {
			return errors.Errorf("error writing frame %s", out)
		}

		a.log.Debug("rendered frame", zap.Int("frame", f), zap.String("path", out))
	}

	a.log.Info("rendered sequence", zap.Int("frames", c.NArg()), zap.String("output", outDir))

	return nil
}
