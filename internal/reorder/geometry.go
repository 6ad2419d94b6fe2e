package reorder

import (
	"math"
)

// Thresholds used by Resolve, in pixels.
const (
	// RowEpsilon is the largest vertical offset between two centers that
	// still counts as the same row. Wrapped layouts place items of one row
	// on an identical center line, so this only absorbs rounding jitter. It
	// is a heuristic and breaks down for rows of mixed item heights.
	RowEpsilon = 1.0
	// RowThreshold is how far the pointer may be from the nearest row.
	RowThreshold = 50.0
	// SnapRadius is how far the pointer may be from the nearest item of
	// that row.
	SnapRadius = 300.0
)

// Point is a pointer position.
type Point struct {
	X, Y float64
}

// Rect is an item's bounding box.
type Rect struct {
	X, Y, W, H float64
}

// Center returns the midpoint of r.
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Sample is the measured center of the item rendered at Index.
type Sample struct {
	Index   int
	CenterX float64
	CenterY float64
}

func sameRow(a, b float64) bool {
	return math.Abs(a-b) < RowEpsilon
}

// Resolve maps a pointer position to the index the dragged item would be
// inserted at. It picks the row whose center line is closest to the pointer,
// then the item of that row closest to the pointer, and inserts after that
// item when the pointer is right of its center and the next item continues
// the row. It reports false when there are fewer than two samples or the
// pointer is outside RowThreshold or SnapRadius.
//
// Resolve is pure: equal inputs always give equal results.
func Resolve(samples []Sample, p Point) (int, bool) {
	if len(samples) < 2 {
		return 0, false
	}

	rowY := samples[0].CenterY
	for _, s := range samples[1:] {
		if math.Abs(s.CenterY-p.Y) < math.Abs(rowY-p.Y) {
			rowY = s.CenterY
		}
	}
	if math.Abs(rowY-p.Y) > RowThreshold {
		return 0, false
	}

	// Walk backwards so ties go to the later item.
	best := -1
	bestDist := math.Inf(1)
	for i := len(samples) - 1; i >= 0; i-- {
		s := samples[i]
		if !sameRow(s.CenterY, rowY) {
			continue
		}
		if d := math.Hypot(s.CenterX-p.X, s.CenterY-p.Y); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 || bestDist > SnapRadius {
		return 0, false
	}

	winner := samples[best]
	index := winner.Index
	if p.X > winner.CenterX {
		for _, s := range samples {
			if s.Index == winner.Index+1 && sameRow(s.CenterY, winner.CenterY) {
				index++
				break
			}
		}
	}
	return index, true
}
