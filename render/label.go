package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// DepthText formats a root depth estimate and its uncertainty
func DepthText(mean, std float64) string {

	if math.IsNaN(mean) {
		return "z ?"
	}

	if math.IsNaN(std) {
		return fmt.Sprintf("z %.2fm", mean)
	}

	return fmt.Sprintf("z %.2f+/-%.2fm", mean, std)
}

// DepthLabel renders a filled label with the depth estimate above the anchor
// point, typically the head keypoint of a person
func DepthLabel(img *gocv.Mat, anchor image.Point, mean, std float64,
	clr color.RGBA, f Font) {

	text := DepthText(mean, std)
	textSize := gocv.GetTextSize(text, f.Face, f.Scale, f.Thickness)

	// Calculate the alignment of text label
	var centerX int

	switch f.Alignment {
	case Left:
		centerX = anchor.X + (textSize.X / 2) + f.LeftPad

	case Right:
		centerX = anchor.X - (textSize.X / 2) - f.RightPad

	case Center:
		fallthrough
	default:
		centerX = anchor.X
	}

	// create box for placing text on
	bRect := image.Rect(centerX-textSize.X/2-f.LeftPad,
		anchor.Y-textSize.Y-f.TopPad-f.BottomPad,
		centerX+textSize.X/2+f.RightPad, anchor.Y)

	gocv.Rectangle(img, bRect, clr, -1)

	gocv.PutTextWithParams(img, text, image.Pt(centerX-textSize.X/2, anchor.Y-f.BottomPad),
		f.Face, f.Scale, f.Color, f.Thickness, f.LineType, false)
}

// DrawText writes text onto dst with its baseline starting at pt
func DrawText(dst draw.Image, face font.Face, pt image.Point, text string, clr color.Color) {

	dr := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(clr),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(pt.X),
			Y: fixed.I(pt.Y),
		},
	}

	dr.DrawString(text)
}

// OverlayText renders text with a TrueType face onto a BGR Mat, supporting
// characters the Hershey fonts do not have
func OverlayText(img *gocv.Mat, face font.Face, pt image.Point, text string, clr color.Color) error {

	// create image with text writing
	rgba := image.NewRGBA(image.Rect(0, 0, img.Cols(), img.Rows()))
	draw.Draw(rgba, rgba.Bounds(), image.NewUniform(color.RGBA{0, 0, 0, 0}), image.Point{}, draw.Src)

	DrawText(rgba, face, pt, text, clr)

	// Convert image.RGBA to gocv.Mat
	imgRGBA, err := gocv.NewMatFromBytes(rgba.Bounds().Dy(), rgba.Bounds().Dx(), gocv.MatTypeCV8UC4, rgba.Pix)

	if err != nil || imgRGBA.Empty() {
		return errors.New("error creating Mat from RGBA")
	}

	defer imgRGBA.Close()

	gocv.CvtColor(imgRGBA, &imgRGBA, gocv.ColorRGBAToBGR)
	gocv.AddWeighted(*img, 1.0, imgRGBA, 1.0, 0, img)

	return nil
}
