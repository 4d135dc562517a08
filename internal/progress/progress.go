// Package progress draws a single-line progress bar on a terminal.
package progress

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const defaultWidth = 40

type Bar struct {
	w     io.Writer
	total int
	width int
	label string
	start time.Time

	labelStyle lipgloss.Style
	fillStyle  lipgloss.Style
	emptyStyle lipgloss.Style
	infoStyle  lipgloss.Style
}

// New creates a bar over total steps. Colors follow the capabilities of w.
func New(w io.Writer, total int, label string) *Bar {
	r := lipgloss.NewRenderer(w)
	return &Bar{
		w:     w,
		total: total,
		width: defaultWidth,
		label: label,
		start: time.Now(),

		labelStyle: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")),
		fillStyle:  r.NewStyle().Foreground(lipgloss.Color("#04B575")),
		emptyStyle: r.NewStyle().Foreground(lipgloss.Color("#626262")),
		infoStyle:  r.NewStyle().Foreground(lipgloss.Color("#FAFAFA")),
	}
}

// Update redraws the bar for done completed steps.
func (b *Bar) Update(done int) {
	fmt.Fprint(b.w, "\r"+b.Render(done))
}

// Finish ends the line.
func (b *Bar) Finish() {
	fmt.Fprintln(b.w)
}

// Render returns the bar text without redrawing.
func (b *Bar) Render(done int) string {
	ratio := 1.0
	if b.total > 0 {
		ratio = float64(done) / float64(b.total)
	}
	ratio = min(max(ratio, 0), 1)
	filled := int(ratio * float64(b.width))

	bar := b.fillStyle.Render(strings.Repeat("█", filled)) +
		b.emptyStyle.Render(strings.Repeat("░", b.width-filled))
	info := b.infoStyle.Render(fmt.Sprintf("%5.1f%% %d/%d %s", ratio*100, done, b.total, time.Since(b.start).Round(time.Second)))

	return fmt.Sprintf("%s [%s] %s", b.labelStyle.Render(b.label), bar, info)
}
