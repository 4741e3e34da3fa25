package render

import "image/color"

var (
	// subjectColors is a list of distinct colors used to tell tracked people
	// apart
	subjectColors = []color.RGBA{
		{R: 255, G: 56, B: 56, A: 255},   // #FF3838
		{R: 255, G: 112, B: 31, A: 255},  // #FF701F
		{R: 255, G: 178, B: 29, A: 255},  // #FFB21D
		{R: 207, G: 210, B: 49, A: 255},  // #CFD231
		{R: 72, G: 249, B: 10, A: 255},   // #48F90A
		{R: 26, G: 147, B: 52, A: 255},   // #1A9334
		{R: 0, G: 212, B: 187, A: 255},   // #00D4BB
		{R: 0, G: 194, B: 255, A: 255},   // #00C2FF
		{R: 52, G: 69, B: 147, A: 255},   // #344593
		{R: 100, G: 115, B: 255, A: 255}, // #6473FF
		{R: 132, G: 56, B: 255, A: 255},  // #8438FF
		{R: 255, G: 55, B: 199, A: 255},  // #FF37C7
	}

	Black  = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Yellow = color.RGBA{R: 255, G: 255, B: 50, A: 255}

	// posePalette are the colors used for the skeleton
	posePalette = []color.RGBA{
		{R: 255, G: 128, B: 0, A: 255},  // left
		{R: 51, G: 153, B: 255, A: 255}, // right
		{R: 0, G: 255, B: 0, A: 255},    // spine and head
	}
)

// side of the body a joint belongs to, used to pick limb and joint colors
// 0 is left, 1 is right, 2 is centre
var jointSide = [22]int{2, 0, 1, 2, 0, 1, 2, 0, 1, 2, 0, 1, 2, 0, 1, 2, 0, 1, 0, 1, 0, 1}

// jointColor returns the color of joint j and of the limb to its parent
func jointColor(j int) color.RGBA {

	if j < 0 || j >= len(jointSide) {
		return White
	}

	return posePalette[jointSide[j]]
}

// SubjectColor returns the color used for a tracked person id
func SubjectColor(id int) color.RGBA {

	idx := id % len(subjectColors)

	if idx < 0 {
		idx += len(subjectColors)
	}

	return subjectColors[idx]
}
