package ui

import (
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/homedash/internal/reorder"
)

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutWideWidth is the minimum width to show secondary columns.
	LayoutWideWidth = 140
)

// Screen rows taken by the header and the command bar.
const chromeRows = 2

// Chip geometry of the links panel.
const (
	chipPadding = 1 // spaces on each side of a label
	chipGap     = 1 // columns between chips
	chipMaxText = 24
)

// Timing constants.
const (
	// DefaultUIInterval is the default UI refresh interval.
	DefaultUIInterval = time.Second

	// ActionTimeout bounds a single mutation started from the UI.
	ActionTimeout = 10 * time.Second
)

// chipLayout is the on-screen position of every rendered link chip, in
// render order. Model holds it by pointer so the sampler handed to the
// reorder coordinator always sees the last layout.
type chipLayout struct {
	rects []reorder.CellRect
}

// Sample implements reorder.Sampler.
func (l *chipLayout) Sample() []reorder.Sample {
	return reorder.CellSampler(l.rects).Sample()
}

// hit returns the index of the chip under (col, row).
func (l *chipLayout) hit(col, row int) (int, bool) {
	for i, r := range l.rects {
		if r.Contains(col, row) {
			return i, true
		}
	}
	return 0, false
}

// rows returns how many screen rows the chips occupy.
func (l *chipLayout) rows() int {
	if len(l.rects) == 0 {
		return 1
	}
	last := l.rects[len(l.rects)-1]
	return last.Row + last.Height - l.rects[0].Row
}

// chipLabel is the text shown inside a chip.
func chipLabel(name string) string {
	return truncate(name, chipMaxText)
}

// layoutChips places one chip per label left to right starting at
// (originCol, originRow), wrapping onto the next row when a chip would
// cross originCol+width. A chip wider than the row gets a row of its own.
func layoutChips(labels []string, width, originCol, originRow int) []reorder.CellRect {
	rects := make([]reorder.CellRect, 0, len(labels))
	col, row := originCol, originRow
	for _, label := range labels {
		w := lipgloss.Width(label) + 2*chipPadding
		if col > originCol && col+w > originCol+width {
			col = originCol
			row++
		}
		rects = append(rects, reorder.CellRect{Col: col, Row: row, Width: w, Height: 1})
		col += w + chipGap
	}
	return rects
}
