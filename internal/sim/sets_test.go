package sim

import (
	"testing"

	"github.com/evacsim/evacsim/internal/grid"
)

func TestStaticSetMergesContiguousExits(t *testing.T) {
	// A two-cell-wide door on the top wall plus a separate one-cell
	// door on the left wall.
	e := mustParse(t, `
#EE##
E...#
#...#
#####
`)
	spec := StaticSet(e)
	if len(spec) != 2 {
		t.Fatalf("exit groups = %d, want 2", len(spec))
	}

	widths := map[int]int{}
	for _, g := range spec {
		widths[len(g)]++
	}
	if widths[2] != 1 || widths[1] != 1 {
		t.Errorf("group widths wrong: %v", spec)
	}
}

func TestStaticSetRegisters(t *testing.T) {
	e := mustParse(t, `
#EE##
E...#
#...#
#####
`)
	set, err := StaticSet(e).register(e, grid.Moore)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	defer set.Release()

	if set.Len() != 2 {
		t.Fatalf("registered exits = %d, want 2", set.Len())
	}
	total := 0
	for _, x := range set.Exits() {
		total += x.Width()
	}
	if total != 3 {
		t.Errorf("total exit cells = %d, want 3", total)
	}
}

func TestPairSets(t *testing.T) {
	groups := []ExitGroup{
		{grid.Location{Row: 0, Col: 1}},
		{grid.Location{Row: 0, Col: 3}},
		{grid.Location{Row: 2, Col: 0}},
	}
	sets := PairSets(groups)

	// n*(n+1)/2 combinations including self-pairs.
	if len(sets) != 6 {
		t.Fatalf("sets = %d, want 6", len(sets))
	}
	if len(sets[0]) != 1 {
		t.Errorf("self-pair should hold a single exit, got %d", len(sets[0]))
	}
	if len(sets[1]) != 2 {
		t.Errorf("cross pair should hold two exits, got %d", len(sets[1]))
	}
}
