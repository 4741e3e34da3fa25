package render

import (
	"image"
	"math"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/swdee/go-airpose/body"
)

// Skeleton renders the body skeleton of every person, a line from each joint
// to its parent and a circle on each joint.  Joints that are not finite are
// skipped along with their limbs.
func Skeleton(img *gocv.Mat, keyPoints [][]r2.Vec, lineThickness int) {

	for _, kps := range keyPoints {

		n := len(kps)

		if n > body.NumJoints {
			n = body.NumJoints
		}

		// draw skeleton lines
		for j := 1; j < n; j++ {

			p := body.Parents[j]

			if !drawable(kps[j]) || !drawable(kps[p]) {
				continue
			}

			gocv.Line(img, toPoint(kps[p]), toPoint(kps[j]), jointColor(j), lineThickness)
		}

		// draw circles at skeleton joints
		for j := 0; j < n; j++ {

			if !drawable(kps[j]) {
				continue
			}

			gocv.Circle(img, toPoint(kps[j]), 3, jointColor(j), -1)
		}
	}
}

// drawable reports whether a keypoint can be rendered
func drawable(kp r2.Vec) bool {
	return !math.IsNaN(kp.X) && !math.IsNaN(kp.Y) && !math.IsInf(kp.X, 0) && !math.IsInf(kp.Y, 0) &&
		math.Abs(kp.X) < math.MaxInt32 && math.Abs(kp.Y) < math.MaxInt32
}

func toPoint(kp r2.Vec) image.Point {
	return image.Pt(int(math.Round(kp.X)), int(math.Round(kp.Y)))
}
