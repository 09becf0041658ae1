package field

import (
	"github.com/evacsim/evacsim/internal/grid"
)

// Status reports the outcome of combining the set's floor fields.
type Status uint8

const (
	// StatusSuccess means every walkable cell can reach some exit.
	StatusSuccess Status = iota
	// StatusInaccessible means at least one walkable cell cannot reach
	// any exit. The simulation set is unsimulatable and must be skipped;
	// this is a property of the configuration, not an error.
	StatusInaccessible
	// StatusNoExits means Combine was called on an empty set.
	StatusNoExits
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusInaccessible:
		return "inaccessible-exit"
	case StatusNoExits:
		return "no-exits"
	default:
		return "unknown"
	}
}

// Combine rebuilds any stale per-exit fields and computes the final floor
// field as the cell-wise minimum across all exits. Returns
// StatusInaccessible when some walkable cell never receives a finite
// value; the partial field is still returned so callers can report which
// regions are cut off.
func (s *ExitSet) Combine() (*grid.Grid[float64], Status) {
	if len(s.exits) == 0 {
		return nil, StatusNoExits
	}

	for _, x := range s.exits {
		if x.dirty {
			BuildField(x, s.env, s.conn)
		}
	}

	combined := grid.New[float64](s.env.Rows(), s.env.Cols())
	combined.Fill(Unreachable)
	for _, x := range s.exits {
		src := x.field.Cells()
		dst := combined.Cells()
		for i, v := range src {
			if v < dst[i] {
				dst[i] = v
			}
		}
	}
	s.combined = combined

	// Accessibility is a post-condition on the combined field: every
	// walkable cell must have received a finite value from some exit.
	for _, l := range s.env.FloorCells() {
		if combined.At(l) == Unreachable {
			return combined, StatusInaccessible
		}
	}
	return combined, StatusSuccess
}

// Combined returns the final floor field from the last Combine call, or
// nil if the set changed since.
func (s *ExitSet) Combined() *grid.Grid[float64] { return s.combined }
