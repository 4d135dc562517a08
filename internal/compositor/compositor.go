// Package compositor renders the slideshow timeline into raster frames.
//
// Every frame is a pure function of its index and the immutable item set:
// the canvas starts black, settled items are composited in arrival order and
// an item inside its flash window turns the whole canvas white.
package compositor

import (
	"image"
	"sort"

	"github.com/ivlev/photoreel/internal/config"
	"github.com/ivlev/photoreel/internal/raster"
	"github.com/ivlev/photoreel/internal/slide"
	"github.com/ivlev/photoreel/internal/system"
)

type Generator struct {
	items []slide.Item
	t     config.Timing
	total int
}

// New builds a generator over items. The items are sorted by arrival; the
// caller's slice is left untouched.
func New(items []slide.Item, t config.Timing) *Generator {
	sorted := make([]slide.Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Arrival < sorted[j].Arrival
	})
	return &Generator{
		items: sorted,
		t:     t,
		total: slide.TotalFrames(t.ItemDuration, len(items), t.FPS),
	}
}

func (g *Generator) TotalFrames() int { return g.total }

func (g *Generator) Items() []slide.Item { return g.items }

// Bounds is the canvas rectangle.
func (g *Generator) Bounds() image.Rectangle {
	return image.Rect(0, 0, g.t.Width, g.t.Height)
}

// Time converts a frame index into seconds from the start of the show.
func (g *Generator) Time(f int) float64 {
	return float64(f) / float64(g.t.FPS)
}

func (g *Generator) flashing(it slide.Item, now float64) bool {
	return now-it.Arrival < g.t.FlashDuration
}

// Flashing returns the indexes (in arrival order) of the items whose flash
// window contains frame f.
func (g *Generator) Flashing(f int) []int {
	now := g.Time(f)
	var out []int
	for i, it := range g.items {
		if it.Arrival > now {
			break
		}
		if g.flashing(it, now) {
			out = append(out, i)
		}
	}
	return out
}

// Visible returns the indexes of the items that have arrived by frame f.
func (g *Generator) Visible(f int) []int {
	now := g.Time(f)
	var out []int
	for i, it := range g.items {
		if it.Arrival > now {
			break
		}
		out = append(out, i)
	}
	return out
}

// RenderFrame draws frame f into dst, which must cover the canvas.
// Parts of an item that fall outside the canvas are clipped.
func (g *Generator) RenderFrame(f int, dst *image.RGBA) {
	now := g.Time(f)
	raster.Fill(dst, raster.Black)

	for i, it := range g.items {
		if it.Arrival > now {
			break
		}
		if g.flashing(it, now) {
			for _, prev := range g.items[:i] {
				if prev.Arrival < it.Arrival {
					raster.Blit(dst, prev.Pixels, prev.Placement)
				}
			}
			raster.Fill(dst, raster.White)
			continue
		}
		raster.Blit(dst, it.Pixels, it.Placement)
	}
}

// Frames returns a fresh, single-use sequence over the whole timeline.
// A nil pool allocates a private buffer.
func (g *Generator) Frames(pool *system.FramePool) *Sequence {
	return &Sequence{g: g, pool: pool, cur: -1}
}

// ShouldReport tells whether progress is reported after frame f: once per
// second of output and on the final frame.
func ShouldReport(f, total, fps int) bool {
	return (fps > 0 && f%fps == 0) || f == total-1
}
