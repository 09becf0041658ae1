// Package field provides exits and the floor fields that drive pedestrian
// movement. Each exit owns a scalar field over the whole environment
// (lower value = closer to that exit); an ExitSet combines its members'
// fields into the final field the movement evaluator reads.
package field

import (
	"errors"
	"fmt"

	"github.com/evacsim/evacsim/internal/env"
	"github.com/evacsim/evacsim/internal/grid"
)

// ErrExitGeometry is returned when an exit cell fails validation:
// off-boundary, non-walkable, non-adjacent on expansion, or already part
// of an exit.
var ErrExitGeometry = errors.New("invalid exit geometry")

// Exit is one physical exit: an ordered contiguous run of boundary cells
// plus its own floor field sized to the environment.
type Exit struct {
	cells []grid.Location
	field *grid.Grid[float64]
	dirty bool // field must be rebuilt before use
}

// Cells returns the exit's boundary cells in registration order.
func (x *Exit) Cells() []grid.Location { return x.cells }

// Width returns the number of cells the exit occupies.
func (x *Exit) Width() int { return len(x.cells) }

// Field returns the exit's floor field, or nil if it has not been built
// since the last geometry change.
func (x *Exit) Field() *grid.Grid[float64] {
	if x.dirty {
		return nil
	}
	return x.field
}

func (x *Exit) contains(l grid.Location) bool {
	for _, c := range x.cells {
		if c == l {
			return true
		}
	}
	return false
}

// ExitSet owns the exits of one simulation set and the combined floor
// field. It is rebuilt for every exit configuration and released before
// the next one.
type ExitSet struct {
	env   *env.Environment
	exits []*Exit

	combined *grid.Grid[float64]
	conn     grid.Neighborhood
}

// NewExitSet creates an empty set over the environment. conn selects the
// connectivity used for field propagation.
func NewExitSet(e *env.Environment, conn grid.Neighborhood) *ExitSet {
	return &ExitSet{env: e, conn: conn}
}

// Exits returns the member exits in registration order.
func (s *ExitSet) Exits() []*Exit { return s.exits }

// Len returns the number of registered exits.
func (s *ExitSet) Len() int { return len(s.exits) }

// Add registers a new single-cell exit at l. The cell must be a walkable
// cell on the environment boundary and not already part of any exit.
func (s *ExitSet) Add(l grid.Location) (*Exit, error) {
	if !s.env.Walkable(l) || !s.env.OnBoundary(l) {
		return nil, fmt.Errorf("%w: %v is not a walkable boundary cell", ErrExitGeometry, l)
	}
	if s.owner(l) != nil {
		return nil, fmt.Errorf("%w: %v already belongs to an exit", ErrExitGeometry, l)
	}
	x := &Exit{
		cells: []grid.Location{l},
		field: grid.New[float64](s.env.Rows(), s.env.Cols()),
		dirty: true,
	}
	s.exits = append(s.exits, x)
	s.combined = nil
	return x, nil
}

// Expand appends l to an existing exit. The cell must be walkable,
// orthogonally adjacent to one of the exit's cells, and not already part
// of any exit. Only the expanded exit's field is invalidated.
func (s *ExitSet) Expand(x *Exit, l grid.Location) error {
	if !s.env.Walkable(l) {
		return fmt.Errorf("%w: %v is not walkable", ErrExitGeometry, l)
	}
	if s.owner(l) != nil {
		return fmt.Errorf("%w: %v already belongs to an exit", ErrExitGeometry, l)
	}
	adjacent := false
	for _, c := range x.cells {
		if c.Adjacent(l) {
			adjacent = true
			break
		}
	}
	if !adjacent {
		return fmt.Errorf("%w: %v is not adjacent to the exit", ErrExitGeometry, l)
	}
	x.cells = append(x.cells, l)
	x.dirty = true
	s.combined = nil
	return nil
}

// owner returns the exit containing l, or nil.
func (s *ExitSet) owner(l grid.Location) *Exit {
	for _, x := range s.exits {
		if x.contains(l) {
			return x
		}
	}
	return nil
}

// IsExitCell reports whether l belongs to any registered exit. The
// simulation removes pedestrians that step onto an exit cell.
func (s *ExitSet) IsExitCell(l grid.Location) bool {
	return s.owner(l) != nil
}

// Release drops all exits and the combined field. Safe to call on an
// already-empty set; used between simulation sets.
func (s *ExitSet) Release() {
	s.exits = nil
	s.combined = nil
}
