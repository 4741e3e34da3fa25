package preprocess

import (
	"image"
	"image/color"
	"math"
	"testing"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/spatial/r2"
)

var (
	black = color.RGBA{R: 0, G: 0, B: 0, A: 255}
)

func TestLetterBoxResize(t *testing.T) {

	tests := []struct {
		srcWidth      int
		srcHeight     int
		resizeWidth   int
		resizeHeight  int
		expectedPad   image.Point
		expectedScale float64
	}{
		{1280, 720, 640, 640, image.Pt(0, 140), 0.50},
		{800, 1000, 640, 640, image.Pt(64, 0), 0.64},
		{800, 800, 640, 640, image.Pt(0, 0), 0.8},
		{1920, 1080, 224, 224, image.Pt(0, 49), 224.0 / 1920},
	}

	for _, tc := range tests {
		img := gocv.NewMatWithSize(tc.srcHeight, tc.srcWidth, gocv.MatTypeCV8UC1)

		resizedImg := gocv.NewMat()

		resizer := NewResizer(tc.srcWidth, tc.srcHeight, tc.resizeWidth, tc.resizeHeight)

		resizer.LetterBoxResize(img, &resizedImg, black)

		if resizer.Pad() != tc.expectedPad {
			t.Errorf("Test failed for src (%d, %d): Padding values wrong, expected %v, got %v",
				tc.srcWidth, tc.srcHeight, tc.expectedPad, resizer.Pad())
		}

		if math.Abs(resizer.Scale()-tc.expectedScale) > 1e-12 {
			t.Errorf("Test failed for src (%d, %d): Scale incorrect, expected %f, got %f",
				tc.srcWidth, tc.srcHeight, tc.expectedScale, resizer.Scale())
		}

		if resizedImg.Cols() != tc.resizeWidth || resizedImg.Rows() != tc.resizeHeight {
			t.Errorf("Test failed for src (%d, %d): output is %dx%d",
				tc.srcWidth, tc.srcHeight, resizedImg.Cols(), resizedImg.Rows())
		}

		img.Close()
		resizedImg.Close()
		resizer.Close()
	}
}

func TestResizerKeypointMapping(t *testing.T) {

	resizer := NewResizer(1280, 720, 640, 640)
	defer resizer.Close()

	if resizer.SrcSize() != image.Pt(1280, 720) {
		t.Errorf("expected source size 1280x720, got %v", resizer.SrcSize())
	}

	kp := r2.Vec{X: 640, Y: 360}
	dest := resizer.ToDest(kp)

	// centre of the source maps to the centre of the letterboxed frame
	if math.Abs(dest.X-320) > 1e-6 || math.Abs(dest.Y-320) > 1e-6 {
		t.Errorf("expected (320, 320), got %v", dest)
	}

	back := resizer.ToSource(dest)

	if math.Abs(back.X-kp.X) > 1e-6 || math.Abs(back.Y-kp.Y) > 1e-6 {
		t.Errorf("expected %v, got %v", kp, back)
	}

	mapped := resizer.MapKeypoints([]r2.Vec{{X: 0, Y: 0}})

	if mapped[0].X != 0 || mapped[0].Y != 140 {
		t.Errorf("expected (0, 140), got %v", mapped[0])
	}

	box := resizer.MapBox(image.Rect(0, 0, 1280, 720))

	if box != image.Rect(0, 140, 640, 500) {
		t.Errorf("expected full frame box (0,140)-(640,500), got %v", box)
	}
}
