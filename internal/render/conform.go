package render

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Conform centres img on an opaque black width x height canvas.
// Frames already at canvas size are returned as is.
func Conform(img *image.RGBA, width, height int) *image.RGBA {
	if img == nil {
		return nil
	}
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height && b.Min == (image.Point{}) {
		return img
	}
	if b.Dx() == 0 || b.Dy() == 0 {
		return img
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.RGBA{A: 255}), image.Point{}, draw.Src)

	off := image.Pt((width-b.Dx())/2, (height-b.Dy())/2)
	draw.Draw(canvas, b.Sub(b.Min).Add(off), img, b.Min, draw.Src)

	return canvas
}
