package collage

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// FitHalf scales img to the height of a w x h panel and centers it on white.
// Photos wider than the panel are cropped at both sides.
func FitHalf(img image.Image, w, h int) *image.NRGBA {
	b := img.Bounds()
	nw := max(1, int(float64(b.Dx())*float64(h)/float64(b.Dy())))
	scaled := imaging.Resize(img, nw, h, imaging.Lanczos)

	panel := imaging.New(w, h, color.White)
	return imaging.Paste(panel, scaled, image.Pt(floorDiv(w-nw, 2), 0))
}

// Compose puts before on the left half and after on the right half of a
// white width x height canvas.
func Compose(before, after image.Image, width, height int) *image.NRGBA {
	half := width / 2
	canvas := imaging.New(width, height, color.White)
	canvas = imaging.Paste(canvas, FitHalf(before, half, height), image.Pt(0, 0))
	return imaging.Paste(canvas, FitHalf(after, half, height), image.Pt(half, 0))
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
