package collage

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Label box geometry, in pixels.
const (
	maxFontSize = 100
	minFontSize = 10
	textMargin  = 100 // total horizontal room kept free around the text
	boxPadding  = 40
	boxExtra    = 30 // additional room under the text
	boxRadius   = 30
	boxStroke   = 6
)

var (
	BoxOutline = color.NRGBA{0, 102, 255, 255}
	BoxFill    = color.NRGBA{255, 255, 255, 255}
	TextColor  = color.NRGBA{0, 0, 0, 255}
)

// Labeler writes a name into a rounded box near the bottom of a collage.
// It is safe for concurrent use.
type Labeler struct {
	font *opentype.Font
}

// NewLabeler loads the TrueType/OpenType font at path, or the bundled Go
// Regular face when path is empty.
func NewLabeler(path string) (*Labeler, error) {
	data := goregular.TTF
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("font: %w", err)
		}
		data = b
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("font: %w", err)
	}
	return &Labeler{font: f}, nil
}

// Fit picks the largest size, stepping down by 2 from 100, at which text is
// no wider than maxWidth. The smallest tried size is returned when nothing fits.
func (l *Labeler) Fit(text string, maxWidth int) (font.Face, int, error) {
	var face font.Face
	size := maxFontSize
	for ; size > minFontSize; size -= 2 {
		f, err := opentype.NewFace(l.font, &opentype.FaceOptions{
			Size:    float64(size),
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			return nil, 0, err
		}
		if face != nil {
			face.Close()
		}
		face = f
		if font.MeasureString(face, text).Ceil() <= maxWidth {
			break
		}
	}
	return face, max(size, minFontSize+2), nil
}

// Layout is the placement of a label on a canvas.
type Layout struct {
	Text image.Point     // top-left of the text line
	Size image.Point     // text width and height
	Box  image.Rectangle // rounded box around the text
}

// PlaceLabel centers a text block of the given size horizontally and
// raises it so the padded box ends at the bottom of the canvas.
func PlaceLabel(canvas image.Rectangle, textW, textH int) Layout {
	x := (canvas.Dx() - textW) / 2
	y := canvas.Dy() - (textH + boxPadding + boxExtra)
	return Layout{
		Text: image.Pt(x, y),
		Size: image.Pt(textW, textH),
		Box: image.Rect(
			x-boxPadding,
			y-boxPadding/2,
			x+textW+boxPadding,
			y+textH+boxPadding/2+boxExtra,
		),
	}
}

// Draw renders text in its box onto dst and returns the layout used.
func (l *Labeler) Draw(dst draw.Image, text string) (Layout, error) {
	b := dst.Bounds()
	face, _, err := l.Fit(text, b.Dx()-textMargin)
	if err != nil {
		return Layout{}, err
	}
	defer face.Close()

	m := face.Metrics()
	width := font.MeasureString(face, text).Ceil()
	height := (m.Ascent + m.Descent).Ceil()
	lay := PlaceLabel(b, width, height)

	box := lay.Box.Add(b.Min)
	FillRoundedRect(dst, box, boxRadius, BoxOutline)
	FillRoundedRect(dst, box.Inset(boxStroke), boxRadius-boxStroke, BoxFill)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(TextColor),
		Face: face,
		Dot:  fixed.P(b.Min.X+lay.Text.X, b.Min.Y+lay.Text.Y+m.Ascent.Ceil()),
	}
	d.DrawString(text)
	return lay, nil
}

// kappa places cubic control points for a quarter circle.
const kappa = 0.5522847

// FillRoundedRect paints r with corners of the given radius, antialiased.
func FillRoundedRect(dst draw.Image, r image.Rectangle, radius int, c color.Color) {
	if r.Empty() {
		return
	}
	b := dst.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	z.DrawOp = draw.Over

	x0, y0 := float32(r.Min.X-b.Min.X), float32(r.Min.Y-b.Min.Y)
	x1, y1 := float32(r.Max.X-b.Min.X), float32(r.Max.Y-b.Min.Y)
	rad := float32(min(radius, r.Dx()/2, r.Dy()/2))
	if rad < 0 {
		rad = 0
	}
	k := rad * kappa

	z.MoveTo(x0+rad, y0)
	z.LineTo(x1-rad, y0)
	z.CubeTo(x1-rad+k, y0, x1, y0+rad-k, x1, y0+rad)
	z.LineTo(x1, y1-rad)
	z.CubeTo(x1, y1-rad+k, x1-rad+k, y1, x1-rad, y1)
	z.LineTo(x0+rad, y1)
	z.CubeTo(x0+rad-k, y1, x0, y1-rad+k, x0, y1-rad)
	z.LineTo(x0, y0+rad)
	z.CubeTo(x0, y0+rad-k, x0+rad-k, y0, x0+rad, y0)
	z.ClosePath()

	z.Draw(dst, b, image.NewUniform(c), image.Point{})
}
