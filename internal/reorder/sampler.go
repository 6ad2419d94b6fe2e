package reorder

// Nominal pixel size of a terminal cell. Cell layouts are scaled by these so
// the pixel thresholds of Resolve keep their meaning in a terminal.
const (
	CellWidth  = 8.0
	CellHeight = 16.0
)

// Sampler measures the current layout of a rendered collection.
type Sampler interface {
	Sample() []Sample
}

// SamplerFunc adapts a function to Sampler.
type SamplerFunc func() []Sample

// Sample implements Sampler.
func (f SamplerFunc) Sample() []Sample { return f() }

// RectSampler samples bounding boxes given in render order.
type RectSampler []Rect

// Sample implements Sampler.
func (rs RectSampler) Sample() []Sample {
	out := make([]Sample, len(rs))
	for i, r := range rs {
		c := r.Center()
		out[i] = Sample{Index: i, CenterX: c.X, CenterY: c.Y}
	}
	return out
}

// CellRect is an item's extent in terminal cells.
type CellRect struct {
	Col, Row      int
	Width, Height int
}

// Contains reports whether the cell (col, row) lies inside r.
func (r CellRect) Contains(col, row int) bool {
	return col >= r.Col && col < r.Col+r.Width && row >= r.Row && row < r.Row+r.Height
}

// Rect converts r to nominal pixels.
func (r CellRect) Rect() Rect {
	return Rect{
		X: float64(r.Col) * CellWidth,
		Y: float64(r.Row) * CellHeight,
		W: float64(r.Width) * CellWidth,
		H: float64(r.Height) * CellHeight,
	}
}

// CellSampler samples cell rectangles given in render order.
type CellSampler []CellRect

// Sample implements Sampler.
func (cs CellSampler) Sample() []Sample {
	rects := make(RectSampler, len(cs))
	for i, c := range cs {
		rects[i] = c.Rect()
	}
	return rects.Sample()
}

// CellPoint returns the pixel center of a terminal cell, the position a
// mouse event at (col, row) stands for.
func CellPoint(col, row int) Point {
	return Point{
		X: (float64(col) + 0.5) * CellWidth,
		Y: (float64(row) + 0.5) * CellHeight,
	}
}
