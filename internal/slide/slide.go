// Package slide turns a folder of photos into the immutable, scheduled
// items composited by the slideshow.
package slide

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand"
	"time"

	"github.com/disintegration/imaging"
	"github.com/ivlev/photoreel/internal/config"
	"github.com/ivlev/photoreel/internal/raster"
	"github.com/ivlev/photoreel/internal/source"
)

// BorderColor is used for both the decode-time and the Polaroid frame.
var BorderColor = color.White

// Item is one photo placed into the show. Items are never mutated after Load.
type Item struct {
	SourceID  string
	Pixels    *image.NRGBA // bordered raster, ready to composite
	Scale     float64
	Placement image.Point
	Arrival   float64
}

// Bounds is the canvas area covered by the item.
func (it Item) Bounds() image.Rectangle {
	return it.Pixels.Bounds().Sub(it.Pixels.Bounds().Min).Add(it.Placement)
}

// Perm returns a permutation of [0, n).
type Perm func(n int) []int

// NewPerm returns a reproducible Perm for a non-zero seed and a clock-seeded
// one otherwise, together with the seed actually used.
func NewPerm(seed int64) (Perm, int64) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	r := rand.New(rand.NewSource(seed))
	return r.Perm, seed
}

// Load decodes every photo of src, frames it, shuffles the set once with perm
// and schedules the item at shuffled position k at k*ItemDuration.
// The returned items are ordered by arrival.
func Load(src source.Source, t config.Timing, perm Perm) ([]Item, error) {
	n := src.Len()
	if n == 0 {
		return nil, source.ErrNoImages
	}

	framed := make([]*image.NRGBA, n)
	for i := 0; i < n; i++ {
		img, err := src.Decode(i)
		if err != nil {
			return nil, err
		}
		framed[i] = raster.AddBorder(img, t.DecodeBorder, BorderColor)
	}

	order := perm(n)
	if len(order) != n {
		return nil, fmt.Errorf("permutation of %d items has %d entries", n, len(order))
	}
	seen := make([]bool, n)
	for _, i := range order {
		if i < 0 || i >= n || seen[i] {
			return nil, fmt.Errorf("permutation of %d items repeats or exceeds index %d", n, i)
		}
		seen[i] = true
	}

	items := make([]Item, n)
	for k, i := range order {
		pixels, scale, at := Place(framed[i], t)
		items[k] = Item{
			SourceID:  src.Name(i),
			Pixels:    pixels,
			Scale:     scale,
			Placement: at,
			Arrival:   float64(k) * t.ItemDuration,
		}
	}
	return items, nil
}

// Place shrinks img to fit the canvas minus the margin (never enlarging it),
// adds the Polaroid border and centers the result.
func Place(img image.Image, t config.Timing) (*image.NRGBA, float64, image.Point) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	scale := FitScale(w, h, t)

	if scale < 1.0 {
		nw := max(1, int(float64(w)*scale))
		nh := max(1, int(float64(h)*scale))
		img = imaging.Resize(img, nw, nh, imaging.Linear)
	}

	bordered := raster.AddBorder(img, t.PolaroidBorder, BorderColor)
	at := image.Pt(
		floorDiv(t.Width-bordered.Bounds().Dx(), 2),
		floorDiv(t.Height-bordered.Bounds().Dy(), 2),
	)
	return bordered, scale, at
}

// FitScale is min((W-margin)/w, (H-margin)/h, 1).
func FitScale(w, h int, t config.Timing) float64 {
	if w <= 0 || h <= 0 {
		return 1.0
	}
	sw := float64(t.Width-t.Margin) / float64(w)
	sh := float64(t.Height-t.Margin) / float64(h)
	return math.Min(math.Min(sw, sh), 1.0)
}

// TotalFrames is the length of the show in frames.
func TotalFrames(itemDuration float64, count, fps int) int {
	return int(math.Round(itemDuration * float64(count) * float64(fps)))
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
