package field

import (
	"errors"
	"strings"
	"testing"

	"github.com/evacsim/evacsim/internal/env"
	"github.com/evacsim/evacsim/internal/grid"
)

func mustParse(t *testing.T, layout string) *env.Environment {
	t.Helper()
	e, err := env.Parse(strings.NewReader(layout))
	if err != nil {
		t.Fatalf("parse layout: %v", err)
	}
	return e
}

// openRoom is a fully walkable 5x5 with an exit cell marked at (0,0).
const openRoom = `
E....
.....
.....
.....
.....
`

func TestBuildFieldVonNeumann(t *testing.T) {
	e := mustParse(t, openRoom)
	set := NewExitSet(e, grid.VonNeumann)
	if _, err := set.Add(grid.Location{Row: 0, Col: 0}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	f, status := set.Combine()
	if status != StatusSuccess {
		t.Fatalf("status = %v, want success", status)
	}

	// 4-connectivity over an open room: the field is the Manhattan
	// distance to the exit corner.
	for r := 0; r < 5; r++ {
		for c := 0; c < 5; c++ {
			want := float64(r + c)
			if got := f.At(grid.Location{Row: r, Col: c}); got != want {
				t.Errorf("field(%d,%d) = %v, want %v", r, c, got, want)
			}
		}
	}
}

func TestBuildFieldMooreDiagonals(t *testing.T) {
	e := mustParse(t, openRoom)
	set := NewExitSet(e, grid.Moore)
	if _, err := set.Add(grid.Location{Row: 0, Col: 0}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	f, status := set.Combine()
	if status != StatusSuccess {
		t.Fatalf("status = %v, want success", status)
	}

	tests := []struct {
		loc  grid.Location
		want float64
	}{
		{grid.Location{Row: 0, Col: 0}, 0},   // exit cell
		{grid.Location{Row: 1, Col: 1}, 1.5}, // one diagonal
		{grid.Location{Row: 4, Col: 4}, 6},   // four diagonals
		{grid.Location{Row: 0, Col: 4}, 4},   // straight line
		{grid.Location{Row: 2, Col: 3}, 4},   // two diagonals plus one straight
	}
	for _, tt := range tests {
		if got := f.At(tt.loc); got != tt.want {
			t.Errorf("field%v = %v, want %v", tt.loc, got, tt.want)
		}
	}
}

func TestBuildFieldAvoidsObstacles(t *testing.T) {
	// A wall forces the path around: straight-line distance from (2,4)
	// to the exit is shorter than any walkable path.
	layout := `
E....
####.
.....
`
	e := mustParse(t, layout)
	set := NewExitSet(e, grid.VonNeumann)
	if _, err := set.Add(grid.Location{Row: 0, Col: 0}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	f, status := set.Combine()
	if status != StatusSuccess {
		t.Fatalf("status = %v, want success", status)
	}

	// (2,0) is reached only by going right along row 0, down through
	// the gap at column 4, and back left along row 2.
	if got, want := f.At(grid.Location{Row: 2, Col: 0}), 10.0; got != want {
		t.Errorf("field(2,0) = %v, want %v", got, want)
	}
	// Obstacle cells stay unreachable.
	if got := f.At(grid.Location{Row: 1, Col: 0}); got != Unreachable {
		t.Errorf("obstacle cell field = %v, want Unreachable", got)
	}
}

func TestCombineIsCellwiseMinimum(t *testing.T) {
	e := mustParse(t, `
E....
.....
.....
.....
....E
`)
	set := NewExitSet(e, grid.VonNeumann)
	if _, err := set.Add(grid.Location{Row: 0, Col: 0}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := set.Add(grid.Location{Row: 4, Col: 4}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	f, status := set.Combine()
	if status != StatusSuccess {
		t.Fatalf("status = %v, want success", status)
	}

	// Every exit boundary cell holds the minimum value.
	for _, l := range []grid.Location{{Row: 0, Col: 0}, {Row: 4, Col: 4}} {
		if got := f.At(l); got != 0 {
			t.Errorf("exit cell %v = %v, want 0", l, got)
		}
	}

	tests := []struct {
		loc  grid.Location
		want float64
	}{
		{grid.Location{Row: 1, Col: 1}, 2}, // closer to (0,0)
		{grid.Location{Row: 3, Col: 4}, 1}, // closer to (4,4)
		{grid.Location{Row: 0, Col: 4}, 4}, // equidistant
	}
	for _, tt := range tests {
		if got := f.At(tt.loc); got != tt.want {
			t.Errorf("combined%v = %v, want %v", tt.loc, got, tt.want)
		}
	}
}

func TestCombineDetectsInaccessibleRegion(t *testing.T) {
	// The wall column splits the floor; only the left region reaches
	// the exit.
	e := mustParse(t, `
E..#..
...#..
...#..
`)
	set := NewExitSet(e, grid.Moore)
	if _, err := set.Add(grid.Location{Row: 0, Col: 0}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	f, status := set.Combine()
	if status != StatusInaccessible {
		t.Fatalf("status = %v, want inaccessible", status)
	}
	// The partial field still covers the reachable region.
	if got := f.At(grid.Location{Row: 2, Col: 2}); got == Unreachable {
		t.Error("reachable cell marked unreachable")
	}
	if got := f.At(grid.Location{Row: 1, Col: 5}); got != Unreachable {
		t.Errorf("cut-off cell = %v, want Unreachable", got)
	}
}

func TestCombineEmptySet(t *testing.T) {
	e := mustParse(t, openRoom)
	set := NewExitSet(e, grid.Moore)
	if _, status := set.Combine(); status != StatusNoExits {
		t.Errorf("status = %v, want no-exits", status)
	}
}

func TestAddRejectsBadGeometry(t *testing.T) {
	e := mustParse(t, `
#####
#...#
#...#
#####
`)
	set := NewExitSet(e, grid.Moore)

	tests := []struct {
		name string
		loc  grid.Location
	}{
		{"obstacle cell", grid.Location{Row: 0, Col: 2}},
		{"interior floor", grid.Location{Row: 1, Col: 2}},
		{"out of bounds", grid.Location{Row: 9, Col: 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := set.Add(tt.loc); !errors.Is(err, ErrExitGeometry) {
				t.Errorf("Add(%v) error = %v, want ErrExitGeometry", tt.loc, err)
			}
		})
	}
}

func TestExpand(t *testing.T) {
	e := mustParse(t, openRoom)
	set := NewExitSet(e, grid.VonNeumann)
	x, err := set.Add(grid.Location{Row: 0, Col: 0})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := set.Expand(x, grid.Location{Row: 0, Col: 1}); err != nil {
		t.Fatalf("Expand adjacent: %v", err)
	}
	if x.Width() != 2 {
		t.Errorf("width = %d, want 2", x.Width())
	}

	if err := set.Expand(x, grid.Location{Row: 3, Col: 3}); !errors.Is(err, ErrExitGeometry) {
		t.Errorf("non-adjacent Expand error = %v, want ErrExitGeometry", err)
	}
	if err := set.Expand(x, grid.Location{Row: 0, Col: 1}); !errors.Is(err, ErrExitGeometry) {
		t.Errorf("duplicate Expand error = %v, want ErrExitGeometry", err)
	}

	// A two-cell exit keeps 0 on both boundary cells after combining.
	f, status := set.Combine()
	if status != StatusSuccess {
		t.Fatalf("status = %v, want success", status)
	}
	for _, l := range x.Cells() {
		if got := f.At(l); got != 0 {
			t.Errorf("boundary cell %v = %v, want 0", l, got)
		}
	}
}

func TestReleaseIdempotent(t *testing.T) {
	e := mustParse(t, openRoom)
	set := NewExitSet(e, grid.Moore)
	if _, err := set.Add(grid.Location{Row: 0, Col: 0}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	set.Release()
	set.Release() // must be safe on an empty set
	if set.Len() != 0 || set.Combined() != nil {
		t.Error("Release left state behind")
	}
}
