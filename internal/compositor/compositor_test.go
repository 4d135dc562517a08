package compositor

import (
	"crypto/sha256"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/ivlev/photoreel/internal/config"
	"github.com/ivlev/photoreel/internal/raster"
	"github.com/ivlev/photoreel/internal/slide"
	"github.com/ivlev/photoreel/internal/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var small = config.Timing{
	Width: 64, Height: 36, FPS: 30,
	ItemDuration: 5, FlashDuration: 0.2,
	Margin: 4, DecodeBorder: 1, PolaroidBorder: 1,
}

var palette = []color.NRGBA{
	{200, 0, 0, 255},
	{0, 200, 0, 255},
	{0, 0, 200, 255},
}

func makeItems(t *testing.T, tm config.Timing, sizes ...image.Point) []slide.Item {
	t.Helper()
	items := make([]slide.Item, len(sizes))
	for k, sz := range sizes {
		img := imaging.New(sz.X, sz.Y, palette[k%len(palette)])
		pixels, scale, at := slide.Place(img, tm)
		items[k] = slide.Item{
			SourceID:  string(rune('a' + k)),
			Pixels:    pixels,
			Scale:     scale,
			Placement: at,
			Arrival:   float64(k) * tm.ItemDuration,
		}
	}
	return items
}

func render(g *Generator, f int) *image.RGBA {
	dst := image.NewRGBA(g.Bounds())
	g.RenderFrame(f, dst)
	return dst
}

func frameAt(g *Generator, sec float64) int {
	return int(sec * float64(g.t.FPS))
}

func uniform(img *image.RGBA, c color.RGBA) bool {
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] != c.R || img.Pix[i+1] != c.G || img.Pix[i+2] != c.B || img.Pix[i+3] != c.A {
			return false
		}
	}
	return true
}

func rgbaAt(img *image.RGBA, x, y int) color.RGBA {
	return img.RGBAAt(x, y)
}

func center(it slide.Item) image.Point {
	b := it.Bounds()
	return image.Pt((b.Min.X+b.Max.X)/2, (b.Min.Y+b.Max.Y)/2)
}

func TestGenerator_ThreeItemTimeline(t *testing.T) {
	items := makeItems(t, small, image.Pt(40, 20), image.Pt(10, 10), image.Pt(6, 24))
	g := New(items, small)

	require.Equal(t, 450, g.TotalFrames())

	// item 0 arrives at t=0, so the show opens on its flash
	assert.True(t, uniform(render(g, 0), raster.White))
	assert.True(t, uniform(render(g, frameAt(g, 0.1)), raster.White))

	settled := render(g, frameAt(g, 1))
	assert.Equal(t, raster.Black, rgbaAt(settled, 0, 0))
	assert.Equal(t, color.RGBA{200, 0, 0, 255}, rgbaAt(settled, center(items[0]).X, center(items[0]).Y))

	assert.True(t, uniform(render(g, frameAt(g, 5.1)), raster.White))

	both := render(g, frameAt(g, 6))
	assert.Equal(t, color.RGBA{0, 200, 0, 255}, rgbaAt(both, center(items[1]).X, center(items[1]).Y))
	// item 0 still visible outside item 1's footprint
	assert.Equal(t, color.RGBA{200, 0, 0, 255}, rgbaAt(both, items[0].Bounds().Min.X+2, items[0].Bounds().Min.Y+2))

	assert.True(t, uniform(render(g, frameAt(g, 10.1)), raster.White))

	last := render(g, g.TotalFrames()-1)
	assert.Equal(t, color.RGBA{0, 0, 200, 255}, rgbaAt(last, center(items[2]).X, center(items[2]).Y))
	assert.Equal(t, color.RGBA{200, 0, 0, 255}, rgbaAt(last, items[0].Bounds().Min.X+2, items[0].Bounds().Min.Y+2))
}

func TestGenerator_BlackBeforeFirstArrival(t *testing.T) {
	items := makeItems(t, small, image.Pt(10, 10))
	items[0].Arrival = 1.0
	g := New(items, small)

	for f := 0; f < small.FPS; f++ {
		assert.True(t, uniform(render(g, f), raster.Black), "frame %d", f)
	}
	assert.True(t, uniform(render(g, small.FPS), raster.White))
}

func TestGenerator_LaterItemsNeverAppearEarly(t *testing.T) {
	items := makeItems(t, small, image.Pt(40, 20), image.Pt(10, 10))
	g := New(items, small)
	c := center(items[1])

	for f := 0; f < frameAt(g, 5); f++ {
		px := rgbaAt(render(g, f), c.X, c.Y)
		assert.NotEqual(t, color.RGBA{0, 200, 0, 255}, px, "frame %d", f)
	}
}

func TestGenerator_ExactlyOneFlashingItem(t *testing.T) {
	items := makeItems(t, small, image.Pt(4, 4), image.Pt(4, 4), image.Pt(4, 4), image.Pt(4, 4))
	g := New(items, small)

	for f := 0; f < g.TotalFrames(); f++ {
		now := g.Time(f)
		flashing := g.Flashing(f)
		k := int(now / small.ItemDuration)
		inWindow := now-float64(k)*small.ItemDuration < small.FlashDuration
		if inWindow {
			assert.Equal(t, []int{k}, flashing, "frame %d", f)
			assert.True(t, uniform(render(g, f), raster.White), "frame %d", f)
		} else {
			assert.Empty(t, flashing, "frame %d", f)
		}
		assert.Len(t, g.Visible(f), k+1)
	}
}

func TestGenerator_OverlappingFlashWindows(t *testing.T) {
	tm := small
	tm.ItemDuration = 0.1
	tm.FlashDuration = 0.5
	items := makeItems(t, tm, image.Pt(4, 4), image.Pt(4, 4), image.Pt(4, 4))
	g := New(items, tm)

	assert.Len(t, g.Flashing(frameAt(g, 0.25)), 3)
	assert.NotPanics(t, func() { render(g, frameAt(g, 0.25)) })
	assert.True(t, uniform(render(g, frameAt(g, 0.25)), raster.White))
}

func TestGenerator_ClipsItemsOutsideCanvas(t *testing.T) {
	items := makeItems(t, small, image.Pt(10, 10), image.Pt(10, 10))
	items[0].Placement = image.Pt(-8, -8)
	items[1].Placement = image.Pt(60, 30)
	g := New(items, small)

	var frame *image.RGBA
	require.NotPanics(t, func() { frame = render(g, frameAt(g, 6)) })
	assert.Equal(t, color.RGBA{200, 0, 0, 255}, rgbaAt(frame, 0, 0))
	assert.Equal(t, color.RGBA{0, 200, 0, 255}, rgbaAt(frame, 63, 35))

	items[1].Placement = image.Pt(500, 500)
	g = New(items, small)
	require.NotPanics(t, func() { frame = render(g, frameAt(g, 6)) })
	assert.Equal(t, raster.Black, rgbaAt(frame, 63, 35))
}

func TestGenerator_KeepsCallerOrder(t *testing.T) {
	items := makeItems(t, small, image.Pt(4, 4), image.Pt(4, 4))
	items[0].Arrival, items[1].Arrival = 5, 0

	g := New(items, small)

	assert.Equal(t, "b", g.Items()[0].SourceID)
	assert.Equal(t, "a", items[0].SourceID)
}

func hashFrames(t *testing.T, g *Generator, pool *system.FramePool) [][32]byte {
	t.Helper()
	seq := g.Frames(pool)
	defer seq.Close()

	var sums [][32]byte
	for seq.Next() {
		sums = append(sums, sha256.Sum256(seq.Frame().Pix))
	}
	return sums
}

func TestSequence_Deterministic(t *testing.T) {
	tm := small
	tm.FPS = 5
	items := makeItems(t, tm, image.Pt(30, 20), image.Pt(8, 16), image.Pt(16, 8))
	g := New(items, tm)

	first := hashFrames(t, g, system.NewFramePool())
	second := hashFrames(t, g, nil)

	require.Len(t, first, g.TotalFrames())
	assert.Equal(t, first, second)

	for f := 0; f < g.TotalFrames(); f += 7 {
		assert.Equal(t, first[f], sha256.Sum256(render(g, f).Pix), "frame %d", f)
	}
}

func TestSequence_NotRestartable(t *testing.T) {
	tm := small
	tm.FPS = 2
	g := New(makeItems(t, tm, image.Pt(4, 4)), tm)
	seq := g.Frames(nil)

	assert.Equal(t, -1, seq.Index())
	n := 0
	for seq.Next() {
		assert.Equal(t, n, seq.Index())
		assert.Equal(t, float64(n)/2, seq.Time())
		n++
	}
	assert.Equal(t, 10, n)
	assert.False(t, seq.Next())
	assert.Nil(t, seq.Frame())
	seq.Close()
}

func TestSequence_CloseEarly(t *testing.T) {
	g := New(makeItems(t, small, image.Pt(4, 4)), small)
	seq := g.Frames(system.NewFramePool())

	require.True(t, seq.Next())
	seq.Close()
	assert.False(t, seq.Next())
}

func TestShouldReport(t *testing.T) {
	tests := []struct {
		f, total, fps int
		want          bool
	}{
		{0, 450, 30, true},
		{29, 450, 30, false},
		{30, 450, 30, true},
		{448, 450, 30, false},
		{449, 450, 30, true},
		{0, 0, 0, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ShouldReport(tt.f, tt.total, tt.fps), "f=%d", tt.f)
	}
}
