// Package env provides the static environment: the rectangular layout of
// floor, obstacle and exit cells that a simulation runs in. Environments
// come from a text file or from the procedural generator.
package env

import (
	"fmt"

	"github.com/evacsim/evacsim/internal/grid"
)

// CellKind is the static content of an environment cell.
type CellKind uint8

const (
	CellFloor    CellKind = iota // Walkable open floor
	CellObstacle                 // Impassable (wall or furniture)
	CellExit                     // Walkable cell marked as an exit in the layout
)

// Environment is the immutable layout a simulation set runs against.
// Exits marked in the layout are a convenience for the static-exit
// origin; simulation sets may register exits at any boundary floor cell.
type Environment struct {
	Layout *grid.Grid[CellKind]

	// StaticPedestrians holds the fixed initial placement parsed from a
	// layout file, in file order. Empty when placement is random.
	StaticPedestrians []grid.Location
}

// Rows returns the environment height.
func (e *Environment) Rows() int { return e.Layout.Rows() }

// Cols returns the environment width.
func (e *Environment) Cols() int { return e.Layout.Cols() }

// Walkable reports whether the cell can be occupied by a pedestrian.
func (e *Environment) Walkable(l grid.Location) bool {
	return e.Layout.InBounds(l) && e.Layout.At(l) != CellObstacle
}

// ExitCells returns all cells marked as exits in the layout, in
// row-major order.
func (e *Environment) ExitCells() []grid.Location {
	var cells []grid.Location
	for r := 0; r < e.Rows(); r++ {
		for c := 0; c < e.Cols(); c++ {
			l := grid.Location{Row: r, Col: c}
			if e.Layout.At(l) == CellExit {
				cells = append(cells, l)
			}
		}
	}
	return cells
}

// OnBoundary reports whether the cell lies on the outermost ring of the
// environment. Exits may only be registered on boundary cells.
func (e *Environment) OnBoundary(l grid.Location) bool {
	return l.Row == 0 || l.Col == 0 ||
		l.Row == e.Rows()-1 || l.Col == e.Cols()-1
}

// FloorCells returns every walkable cell in row-major order.
func (e *Environment) FloorCells() []grid.Location {
	var cells []grid.Location
	for r := 0; r < e.Rows(); r++ {
		for c := 0; c < e.Cols(); c++ {
			l := grid.Location{Row: r, Col: c}
			if e.Layout.At(l) != CellObstacle {
				cells = append(cells, l)
			}
		}
	}
	return cells
}

// String returns a summary of the environment.
func (e *Environment) String() string {
	return fmt.Sprintf("Environment(%dx%d, exits=%d, static_peds=%d)",
		e.Rows(), e.Cols(), len(e.ExitCells()), len(e.StaticPedestrians))
}
