package effects

import (
	"image"
	"math"

	"github.com/keagan/vico/internal/audio"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// ZoomAmount is the magnification at t: 1 + volume*factor*pulsation, never below 1
func ZoomAmount(t float64, r audio.Ratios, factor float64) float64 {
	pulsation := 0.98 + 0.04*math.Sin(2*math.Pi*t)
	return math.Max(1, 1+r.Sum()*factor*pulsation)
}

// ZoomFrame magnifies img about its centre with bilinear sampling and
// crops back to the original size.
func ZoomFrame(img *image.RGBA, zoom float64) *image.RGBA {
	if zoom <= 1 {
		return img
	}

	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	cx := float64(b.Min.X) + float64(b.Dx())/2
	cy := float64(b.Min.Y) + float64(b.Dy())/2
	ox := float64(b.Dx()) / 2
	oy := float64(b.Dy()) / 2

	// source to destination: scale about the source centre, then move it to the output centre
	s2d := f64.Aff3{
		zoom, 0, ox - zoom*cx,
		0, zoom, oy - zoom*cy,
	}
	draw.BiLinear.Transform(dst, s2d, img, b, draw.Src, nil)

	return dst
}

// ShakeOffset is the camera displacement at t
func ShakeOffset(t float64, intensity int) (dx, dy int) {
	i := float64(intensity)
	return int(math.Round(math.Sin(t*25) * i)), int(math.Round(math.Cos(t*33) * i))
}

// ShiftFrame translates img by (dx, dy), replicating edge pixels into the revealed border
func ShiftFrame(img *image.RGBA, dx, dy int) *image.RGBA {
	if dx == 0 && dy == 0 {
		return img
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		sy := clampInt(y-dy, 0, h-1)
		srow := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+sy):]
		drow := dst.Pix[dst.PixOffset(0, y):]
		for x := 0; x < w; x++ {
			sx := clampInt(x-dx, 0, w-1)
			copy(drow[x*4:x*4+4], srow[sx*4:sx*4+4])
		}
	}

	return dst
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
