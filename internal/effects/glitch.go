package effects

import (
	"image"
	"math/rand/v2"
)

const (
	glitchPasses    = 3
	glitchMaxHeight = 10
)

// BandShift is one horizontal band rolled by DX pixels
type BandShift struct {
	Y      int
	Height int
	DX     int
}

// GlitchBands draws the three band shifts for a w x h frame.
// Heights are in [1,10) and |DX| < intensity.
func GlitchBands(rng *rand.Rand, w, h, intensity int) []BandShift {
	shifts := make([]BandShift, 0, glitchPasses)
	for range glitchPasses {
		height := min(1+rng.IntN(glitchMaxHeight-1), h)

		y := 0
		if span := h - height; span > 0 {
			y = rng.IntN(span)
		}

		dx := 0
		if intensity > 1 {
			dx = rng.IntN(2*intensity-1) - (intensity - 1)
		}

		shifts = append(shifts, BandShift{Y: y, Height: height, DX: dx})
	}
	return shifts
}

// RollBand circularly shifts the rows of s to the right by s.DX in place
func RollBand(img *image.RGBA, s BandShift) {
	b := img.Bounds()
	w := b.Dx()
	if w == 0 {
		return
	}
	shift := ((s.DX % w) + w) % w
	if shift == 0 {
		return
	}

	tmp := make([]uint8, w*4)
	for y := s.Y; y < s.Y+s.Height && y < b.Dy(); y++ {
		row := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):img.PixOffset(b.Max.X, b.Min.Y+y)]
		copy(tmp[shift*4:], row[:(w-shift)*4])
		copy(tmp[:shift*4], row[(w-shift)*4:])
		copy(row, tmp)
	}
}
