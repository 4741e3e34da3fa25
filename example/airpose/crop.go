package main

import (
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/swdee/go-airpose/preprocess"
	"github.com/swdee/go-airpose/regressor"
	"github.com/swdee/go-airpose/render"
)

const previewSize = 640

// cropAction cuts a normalised crop per person out of an image
func (a *app) cropAction(c *cli.Context) error {

	cfg, err := a.config(c)

	if err != nil {
		return err
	}

	if c.NArg() != 1 {
		return errors.New("expected a single image argument")
	}

	img := gocv.IMRead(c.Args().First(), gocv.IMReadColor)

	if img.Empty() {
		return errors.Errorf("error reading image %s", c.Args().First())
	}

	defer img.Close()

	ar, err := regressor.OpenArchive(c.Path(flagKeypoints))

	if err != nil {
		return err
	}

	defer ar.Close()

	people, err := readVecs2(ar, keyKeypoints)

	if err != nil {
		return err
	}

	if len(people) == 0 {
		return errors.New("no people in keypoints archive")
	}

	width, height := img.Cols(), img.Rows()
	size := cfg.ImageSize

	cropper := preprocess.NewCropper(size)
	defer cropper.Close()

	dest := gocv.NewMat()
	defer dest.Close()

	crops := mat.NewDense(len(people), size*size*3, nil)
	boxes := mat.NewDense(len(people), regressor.NBox, nil)
	centers := mat.NewDense(len(people), 2, nil)

	for p, kps := range people {

		box, err := preprocess.KeypointBox(kps, cfg.UnclipRatio, width, height)

		if err != nil {
			return errors.Wrapf(err, "person %d", p)
		}

		box = preprocess.SquareBox(box)

		if err := cropper.Crop(img, box, &dest); err != nil {
			return errors.Wrapf(err, "person %d", p)
		}

		data, err := dest.DataPtrFloat32()

		if err != nil {
			return errors.Wrapf(err, "person %d crop data", p)
		}

		for k, v := range data {
			crops.Set(p, k, float64(v))
		}

		vec := preprocess.BBoxVector(box, width, height)
		boxes.SetRow(p, vec[:])
		centers.SetRow(p, []float64{float64(width) / 2, float64(height) / 2})

		a.log.Debug("cropped person", zap.Int("person", p), zap.Stringer("box", box))
	}

	err = regressor.WriteArchive(c.Path(flagOutput), map[string]interface{}{
		"crops":      crops,
		keyBBox:      boxes,
		keyCenters:   centers,
		keyKeypoints: denseVecs2(people),
	})

	if err != nil {
		return err
	}

	a.log.Info("wrote crops", zap.String("path", c.Path(flagOutput)), zap.Int("people", len(people)))

	if path := c.Path(flagPreview); path != "" {
		return writePreview(img, people, path)
	}

	return nil
}

// writePreview letterboxes the image and draws the skeletons over it
func writePreview(img gocv.Mat, people [][]r2.Vec, path string) error {

	resizer := preprocess.NewResizer(img.Cols(), img.Rows(), previewSize, previewSize)
	defer resizer.Close()

	preview := gocv.NewMat()
	defer preview.Close()

	resizer.LetterBoxResize(img, &preview, render.Black)

	mapped := make([][]r2.Vec, len(people))

	for i, kps := range people {
		mapped[i] = resizer.MapKeypoints(kps)
	}

	render.Skeleton(&preview, mapped, 2)

	if ok := gocv.IMWrite(path, preview); !ok {
		return errors.Errorf("error writing preview %s", path)
	}

	return nil
}
