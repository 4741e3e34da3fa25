package render

import (
	"image/color"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

type Alignment int

const (
	Left   Alignment = 1
	Center Alignment = 2
	Right  Alignment = 3
)

// Font defines the parameters for rendering text on an image using GoCV
type Font struct {
	Face      gocv.HersheyFont
	Scale     float64
	Color     color.RGBA
	Thickness int
	LineType  gocv.LineType
	// Padding to place around text
	LeftPad   int
	RightPad  int
	TopPad    int
	BottomPad int
	// Alignment of the text label to the anchor point
	Alignment Alignment
}

// DefaultFont returns default font settings
func DefaultFont() Font {
	return Font{
		Face:      gocv.FontHersheySimplex,
		Scale:     0.5,
		Color:     White,
		Thickness: 1,
		LineType:  gocv.LineAA,
		LeftPad:   4,
		RightPad:  4,
		TopPad:    4,
		BottomPad: 6,
		Alignment: Center,
	}
}

// LoadFace parses TrueType or OpenType font data into a face of the given
// point size
func LoadFace(ttf []byte, size float64) (font.Face, error) {

	// parse the font
	f, err := opentype.Parse(ttf)

	if err != nil {
		return nil, errors.Wrap(err, "failed to parse font")
	}

	// create a type face
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})

	if err != nil {
		return nil, errors.Wrap(err, "failed to create type face")
	}

	return face, nil
}

// DefaultFace returns the Go Regular face at the given point size
func DefaultFace(size float64) (font.Face, error) {
	return LoadFace(goregular.TTF, size)
}
