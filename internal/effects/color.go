package effects

import (
	"image"
	"math"

	"github.com/keagan/vico/internal/audio"
)

// ModulateColor scales each channel by 1 + ratio*factor in place.
// High drives red, mid drives green and low drives blue.
func ModulateColor(img *image.RGBA, r audio.Ratios, factor float64) {
	gains := [3]float64{
		1 + r[audio.High]*factor,
		1 + r[audio.Mid]*factor,
		1 + r[audio.Low]*factor,
	}

	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		for i := 0; i < len(row); i += 4 {
			for c := 0; c < 3; c++ {
				row[i+c] = scaleChannel(row[i+c], gains[c])
			}
		}
	}
}

// scaleChannel clamps to the 8-bit range and truncates
func scaleChannel(v uint8, gain float64) uint8 {
	f := float64(v) * gain
	if f <= 0 || math.IsNaN(f) {
		return 0
	}
	if f >= 255 {
		return 255
	}
	return uint8(f)
}

// debugAlpha is the opacity of the red diagnostic overlay
const debugAlpha = 0.4

// DebugOverlay blends flat red over the frame in place
func DebugOverlay(img *image.RGBA) {
	overlay := [3]float64{255, 0, 0}

	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		for i := 0; i < len(row); i += 4 {
			for c := 0; c < 3; c++ {
				v := (1-debugAlpha)*float64(row[i+c]) + debugAlpha*overlay[c]
				row[i+c] = uint8(math.Min(math.Round(v), 255))
			}
		}
	}
}
