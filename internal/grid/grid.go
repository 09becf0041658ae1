// Package grid provides the dense 2D storage shared by every part of the
// simulation: the environment layout, pedestrian occupancy, floor fields
// and the heatmap all live in grids of identical dimensions.
package grid

import "fmt"

// Location identifies a single cell by row and column.
type Location struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Index returns the row-major index of the location for a grid of the
// given width. Used wherever a canonical cell ordering is needed.
func (l Location) Index(cols int) int {
	return l.Row*cols + l.Col
}

// Adjacent reports whether other is orthogonally adjacent to l.
func (l Location) Adjacent(other Location) bool {
	dr := l.Row - other.Row
	dc := l.Col - other.Col
	if dr < 0 {
		dr = -dr
	}
	if dc < 0 {
		dc = -dc
	}
	return dr+dc == 1
}

// String returns "(row,col)".
func (l Location) String() string {
	return fmt.Sprintf("(%d,%d)", l.Row, l.Col)
}

// Grid is a dense rectangular array of T. Dimensions are fixed at
// construction; every grid coexisting in one run shares them.
type Grid[T any] struct {
	rows, cols int
	cells      []T
}

// New allocates a zero-valued grid with the given dimensions.
func New[T any](rows, cols int) *Grid[T] {
	if rows <= 0 || cols <= 0 {
		panic(fmt.Sprintf("grid: invalid dimensions %dx%d", rows, cols))
	}
	return &Grid[T]{
		rows:  rows,
		cols:  cols,
		cells: make([]T, rows*cols),
	}
}

// Rows returns the number of rows.
func (g *Grid[T]) Rows() int { return g.rows }

// Cols returns the number of columns.
func (g *Grid[T]) Cols() int { return g.cols }

// InBounds reports whether the location lies inside the grid.
func (g *Grid[T]) InBounds(l Location) bool {
	return l.Row >= 0 && l.Row < g.rows && l.Col >= 0 && l.Col < g.cols
}

// At returns the value at the location. Panics when out of bounds, the
// same contract as a raw slice index.
func (g *Grid[T]) At(l Location) T {
	return g.cells[l.Index(g.cols)]
}

// Set stores the value at the location.
func (g *Grid[T]) Set(l Location, v T) {
	g.cells[l.Index(g.cols)] = v
}

// Fill overwrites every cell with v.
func (g *Grid[T]) Fill(v T) {
	for i := range g.cells {
		g.cells[i] = v
	}
}

// Clone returns a deep copy with the same dimensions.
func (g *Grid[T]) Clone() *Grid[T] {
	c := New[T](g.rows, g.cols)
	copy(c.cells, g.cells)
	return c
}

// CopyFrom overwrites this grid with the contents of src. Both grids
// must share dimensions.
func (g *Grid[T]) CopyFrom(src *Grid[T]) {
	if g.rows != src.rows || g.cols != src.cols {
		panic(fmt.Sprintf("grid: dimension mismatch %dx%d vs %dx%d",
			g.rows, g.cols, src.rows, src.cols))
	}
	copy(g.cells, src.cells)
}

// Cells exposes the backing slice in row-major order. Callers must not
// resize it.
func (g *Grid[T]) Cells() []T { return g.cells }

// SameDims reports whether rows and cols match the given dimensions.
func (g *Grid[T]) SameDims(rows, cols int) bool {
	return g.rows == rows && g.cols == cols
}
