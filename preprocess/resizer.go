package preprocess

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/spatial/r2"
)

// Resizer letterbox scales frames to a fixed display size and maps keypoints
// and boxes between the source frame and the scaled frame
type Resizer struct {
	// src is the size of the source frame
	src image.Point
	// dest is the size of the letterboxed frame
	dest image.Point
	// resized is the size of the scaled source inside dest
	resized image.Point
	// pad is the offset of the scaled source inside dest
	pad   image.Point
	scale float64
	// tempMat is a Mat used during the resize process
	tempMat gocv.Mat
}

// NewResizer returns a resizer used for scaling an image of the source
// dimensions to the destination dimensions
func NewResizer(srcWidth, srcHeight, destWidth, destHeight int) *Resizer {

	src := image.Pt(srcWidth, srcHeight)
	dest := image.Pt(destWidth, destHeight)

	// the smaller ratio fits the whole frame, the other side gets padded
	scale := math.Min(float64(dest.X)/float64(src.X), float64(dest.Y)/float64(src.Y))

	resized := image.Pt(
		int(math.Round(float64(src.X)*scale)),
		int(math.Round(float64(src.Y)*scale)),
	)

	return &Resizer{
		src:     src,
		dest:    dest,
		resized: resized,
		pad:     dest.Sub(resized).Div(2),
		scale:   scale,
		tempMat: gocv.NewMat(),
	}
}

// Close frees memory allocated during resize process
func (r *Resizer) Close() error {
	return r.tempMat.Close()
}

// LetterBoxResize resizes the input image to the destination dimensions whilst
// maintaining image aspect.  Color is that used for letter box padding.
func (r *Resizer) LetterBoxResize(src gocv.Mat, dest *gocv.Mat, color color.RGBA) {

	gocv.Resize(src, &r.tempMat, r.resized, 0, 0, gocv.InterpolationArea)

	rest := r.dest.Sub(r.resized).Sub(r.pad)

	gocv.CopyMakeBorder(r.tempMat, dest, r.pad.Y, rest.Y, r.pad.X, rest.X,
		gocv.BorderConstant, color)
}

// Scale returns the source to destination scale factor
func (r *Resizer) Scale() float64 {
	return r.scale
}

// Pad returns the offset of the scaled frame inside the letterbox
func (r *Resizer) Pad() image.Point {
	return r.pad
}

// SrcSize returns the size of the source frame
func (r *Resizer) SrcSize() image.Point {
	return r.src
}

// ToDest maps a keypoint in source pixels to the letterboxed frame
func (r *Resizer) ToDest(kp r2.Vec) r2.Vec {
	return r2.Add(r2.Scale(r.scale, kp), r2.Vec{X: float64(r.pad.X), Y: float64(r.pad.Y)})
}

// ToSource maps a keypoint in the letterboxed frame back to source pixels
func (r *Resizer) ToSource(kp r2.Vec) r2.Vec {
	return r2.Scale(1/r.scale, r2.Sub(kp, r2.Vec{X: float64(r.pad.X), Y: float64(r.pad.Y)}))
}

// MapKeypoints maps every keypoint to the letterboxed frame
func (r *Resizer) MapKeypoints(kps []r2.Vec) []r2.Vec {

	out := make([]r2.Vec, len(kps))

	for i, kp := range kps {
		out[i] = r.ToDest(kp)
	}

	return out
}

// MapBox maps a box in source pixels to the letterboxed frame
func (r *Resizer) MapBox(box image.Rectangle) image.Rectangle {

	lo := r.ToDest(r2.Vec{X: float64(box.Min.X), Y: float64(box.Min.Y)})
	hi := r.ToDest(r2.Vec{X: float64(box.Max.X), Y: float64(box.Max.Y)})

	return image.Rect(int(math.Round(lo.X)), int(math.Round(lo.Y)),
		int(math.Round(hi.X)), int(math.Round(hi.Y)))
}
