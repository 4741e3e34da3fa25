package preprocess

import (
	"image"
	"image/color"
	"math"

	clipper "github.com/ctessum/go.clipper"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	// PixelScale is the box side in pixels that maps to a scale of 1 in the
	// crop descriptor
	PixelScale = 200.0
)

var (
	// ImageNetMean is the per channel RGB mean subtracted from network input
	ImageNetMean = [3]float32{0.485, 0.456, 0.406}
	// ImageNetStd is the per channel RGB deviation network input is divided by
	ImageNetStd = [3]float32{0.229, 0.224, 0.225}

	// ErrNoKeypoints is returned when no finite keypoint is inside the image
	ErrNoKeypoints = errors.New("no usable keypoints")

	// ErrOutsideImage is returned when a crop box does not overlap the image
	ErrOutsideImage = errors.New("crop box outside image")
)

// KeypointBox returns the box around the keypoints grown outward by the
// unclip ratio and clamped to the image.  The offset distance is
// area*ratio/perimeter of the keypoint extent.
func KeypointBox(kps []r2.Vec, unclipRatio float64, width, height int) (image.Rectangle, error) {

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	n := 0

	for _, kp := range kps {

		if math.IsNaN(kp.X) || math.IsNaN(kp.Y) || math.IsInf(kp.X, 0) || math.IsInf(kp.Y, 0) {
			continue
		}

		minX = math.Min(minX, kp.X)
		minY = math.Min(minY, kp.Y)
		maxX = math.Max(maxX, kp.X)
		maxY = math.Max(maxY, kp.Y)
		n++
	}

	if n == 0 {
		return image.Rectangle{}, ErrNoKeypoints
	}

	// outline polygon of the keypoint extent
	box := [][2]float64{{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}}
	distance := unclipDistance(box, unclipRatio)

	var path clipper.Path

	for _, pt := range box {
		path = append(path, &clipper.IntPoint{X: clipper.CInt(math.Round(pt[0])), Y: clipper.CInt(math.Round(pt[1]))})
	}

	// create a ClipperOffset object and add the path
	co := clipper.NewClipperOffset()
	co.AddPath(path, clipper.JtRound, clipper.EtClosedPolygon)

	// execute the offset operation
	solution := co.Execute(distance)

	rect := image.Rect(int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1)

	for _, sol := range solution {
		for _, pt := range sol {
			rect = rect.Union(image.Rect(int(pt.X), int(pt.Y), int(pt.X)+1, int(pt.Y)+1))
		}
	}

	rect = rect.Intersect(image.Rect(0, 0, width, height))

	if rect.Empty() {
		return image.Rectangle{}, ErrNoKeypoints
	}

	return rect, nil
}

// unclipDistance is the polygon area times the ratio over its perimeter
func unclipDistance(box [][2]float64, ratio float64) float64 {

	n := len(box)
	area := 0.0
	dist := 0.0

	for i := 0; i < n; i++ {
		a, b := box[i], box[(i+1)%n]
		area += a[0]*b[1] - a[1]*b[0]
		dist += math.Hypot(a[0]-b[0], a[1]-b[1])
	}

	if dist == 0 {
		return 0
	}

	return math.Abs(area/2) * ratio / dist
}

// SquareBox returns the square box with side max(width, height) centred on r
func SquareBox(r image.Rectangle) image.Rectangle {

	side := r.Dx()

	if r.Dy() > side {
		side = r.Dy()
	}

	cx := r.Min.X + r.Dx()/2
	cy := r.Min.Y + r.Dy()/2
	min := image.Pt(cx-side/2, cy-side/2)

	return image.Rectangle{Min: min, Max: min.Add(image.Pt(side, side))}
}

// BBoxVector returns the crop descriptor [cx, cy, scale] of a box, the centre
// normalised to [-1, 1] over the image and the side divided by PixelScale
func BBoxVector(box image.Rectangle, width, height int) [3]float64 {

	cx := float64(box.Min.X+box.Max.X) / 2
	cy := float64(box.Min.Y+box.Max.Y) / 2
	hw := float64(width) / 2
	hh := float64(height) / 2

	side := math.Max(float64(box.Dx()), float64(box.Dy()))

	return [3]float64{(cx - hw) / hw, (cy - hh) / hh, side / PixelScale}
}

// Cropper cuts square person crops out of a frame and prepares them as
// normalised network input
type Cropper struct {
	size    int
	tempMat gocv.Mat
	padMat  gocv.Mat
}

// NewCropper returns a Cropper producing size x size crops
func NewCropper(size int) *Cropper {
	return &Cropper{
		size:    size,
		tempMat: gocv.NewMat(),
		padMat:  gocv.NewMat(),
	}
}

// Size returns the side of the output crop
func (c *Cropper) Size() int {
	return c.size
}

// Crop cuts box out of the BGR src, padding with black where the box leaves
// the image, resizes it and writes RGB float32 values normalised by the
// ImageNet mean and deviation to dest
func (c *Cropper) Crop(src gocv.Mat, box image.Rectangle, dest *gocv.Mat) error {

	bounds := image.Rect(0, 0, src.Cols(), src.Rows())
	inter := box.Intersect(bounds)

	if inter.Empty() {
		return errors.Wrapf(ErrOutsideImage, "box %v, image %v", box, bounds)
	}

	region := src.Region(inter)
	defer region.Close()

	gocv.CopyMakeBorder(region, &c.padMat,
		inter.Min.Y-box.Min.Y, box.Max.Y-inter.Max.Y,
		inter.Min.X-box.Min.X, box.Max.X-inter.Max.X,
		gocv.BorderConstant, color.RGBA{A: 255})

	gocv.Resize(c.padMat, &c.tempMat, image.Pt(c.size, c.size), 0, 0, gocv.InterpolationLinear)
	gocv.CvtColor(c.tempMat, &c.tempMat, gocv.ColorBGRToRGB)

	c.tempMat.ConvertToWithParams(dest, gocv.MatTypeCV32FC3, 1.0/255, 0)

	channels := gocv.Split(*dest)

	for i := range channels {
		channels[i].SubtractFloat(ImageNetMean[i])
		channels[i].DivideFloat(ImageNetStd[i])
	}

	gocv.Merge(channels, dest)

	for _, ch := range channels {
		ch.Close()
	}

	return nil
}

// Close frees memory allocated by the Cropper
func (c *Cropper) Close() error {
	c.padMat.Close()
	return c.tempMat.Close()
}
