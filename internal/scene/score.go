package scene

import "math"

// FrameScore rates one grayscale frame for split-screen likelihood on a
// [0, 1] scale. Three cheap cues combine: how differently the left and right
// halves are lit, how strong the vertical seam at the center column is, and
// how much horizontal edge activity the frame carries overall.
func FrameScore(pixels []byte, width, height int) float64 {
	if width < 4 || height < 2 || len(pixels) < width*height {
		return 0
	}

	halfDiff := halfLuminanceDiff(pixels, width, height)
	seam := centerSeamStrength(pixels, width, height)
	edges := horizontalEdgeDensity(pixels, width, height)

	score := 0.45*halfDiff + 0.35*seam + 0.2*edges
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// halfLuminanceDiff compares mean brightness of the left and right halves.
func halfLuminanceDiff(pixels []byte, width, height int) float64 {
	mid := width / 2
	var left, right float64
	for y := 0; y < height; y++ {
		row := y * width
		for x := 0; x < mid; x++ {
			left += float64(pixels[row+x])
		}
		for x := mid; x < width; x++ {
			right += float64(pixels[row+x])
		}
	}
	left /= float64(mid * height)
	right /= float64((width - mid) * height)
	return math.Abs(left-right) / 255
}

// centerSeamStrength measures the gradient across the center column, where a
// hard split between two sources shows as a persistent vertical edge.
func centerSeamStrength(pixels []byte, width, height int) float64 {
	mid := width / 2
	var total float64
	for y := 0; y < height; y++ {
		row := y * width
		a := float64(pixels[row+mid-1])
		b := float64(pixels[row+mid])
		total += math.Abs(a-b) / 255
	}
	return total / float64(height)
}

// horizontalEdgeDensity counts strong neighbor-to-neighbor transitions
// across the frame, normalized by pixel count.
func horizontalEdgeDensity(pixels []byte, width, height int) float64 {
	const threshold = 24
	edges := 0
	for y := 0; y < height; y++ {
		row := y * width
		for x := 1; x < width; x++ {
			diff := int(pixels[row+x]) - int(pixels[row+x-1])
			if diff < 0 {
				diff = -diff
			}
			if diff >= threshold {
				edges++
			}
		}
	}
	return float64(edges) / float64((width-1)*height)
}
