// Package raster holds the pixel-level helpers shared by the slideshow
// loader and the frame compositor.
package raster

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
)

var (
	Black = color.RGBA{0, 0, 0, 255}
	White = color.RGBA{255, 255, 255, 255}
)

// AddBorder surrounds img with a solid frame of the given width.
func AddBorder(img image.Image, width int, c color.Color) *image.NRGBA {
	if width <= 0 {
		return imaging.Clone(img)
	}
	b := img.Bounds()
	bg := imaging.New(b.Dx()+2*width, b.Dy()+2*width, c)
	return imaging.Paste(bg, img, image.Pt(width, width))
}

// Fill paints every pixel of dst with c.
func Fill(dst *image.RGBA, c color.RGBA) {
	pix := dst.Pix
	if len(pix) < 4 {
		return
	}
	pix[0], pix[1], pix[2], pix[3] = c.R, c.G, c.B, c.A
	for filled := 4; filled < len(pix); filled *= 2 {
		copy(pix[filled:], pix[:filled])
	}
}

// Blit copies src onto dst with its top-left corner at at, overwriting the
// pixels beneath. The part of src falling outside dst is clipped; the
// returned rectangle is the area actually written (empty if none).
func Blit(dst *image.RGBA, src *image.NRGBA, at image.Point) image.Rectangle {
	target := src.Bounds().Sub(src.Bounds().Min).Add(at)
	clipped := target.Intersect(dst.Bounds())
	if clipped.Empty() {
		return image.Rectangle{}
	}
	sp := src.Bounds().Min.Add(clipped.Min.Sub(at))
	draw.Draw(dst, clipped, src, sp, draw.Src)
	return clipped
}
