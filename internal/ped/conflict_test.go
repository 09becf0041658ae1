package ped

import (
	"math/rand"
	"testing"

	"github.com/evacsim/evacsim/internal/grid"
)

// propose sets a pedestrian's transient target directly; conflict tests
// do not need the evaluator.
func propose(p *Pedestrian, target grid.Location) {
	p.Transient = Transient{Target: target, Proposed: true}
}

func TestIdentifyConflicts(t *testing.T) {
	e := mustParse(t, openRoom)
	reg := NewRegistry(e)
	a, _ := reg.Insert(grid.Location{Row: 1, Col: 1})
	b, _ := reg.Insert(grid.Location{Row: 1, Col: 3})
	c, _ := reg.Insert(grid.Location{Row: 3, Col: 1})
	d, _ := reg.Insert(grid.Location{Row: 4, Col: 4})

	contested := grid.Location{Row: 1, Col: 2}
	propose(a, contested)
	propose(b, contested)
	propose(c, grid.Location{Row: 2, Col: 1}) // uncontested move
	propose(d, d.Pos)                         // staying contests nothing

	conflicts := IdentifyConflicts(reg, e.Cols())
	if len(conflicts) != 1 {
		t.Fatalf("conflicts = %d, want 1", len(conflicts))
	}
	cf := conflicts[0]
	if cf.Target != contested {
		t.Errorf("conflict target = %v, want %v", cf.Target, contested)
	}
	if len(cf.Contenders) != 2 || cf.Contenders[0] != a || cf.Contenders[1] != b {
		t.Errorf("contenders wrong or out of insertion order: %v", cf.Contenders)
	}
}

func TestIdentifyConflictsOrdering(t *testing.T) {
	e := mustParse(t, openRoom)
	reg := NewRegistry(e)

	// Two conflicts; they must come out ordered by cell index no matter
	// how the grouping map iterates.
	late := grid.Location{Row: 3, Col: 3}
	early := grid.Location{Row: 1, Col: 1}
	for _, tgt := range []grid.Location{late, early} {
		for dc := -1; dc <= 1; dc += 2 {
			p, err := reg.Insert(grid.Location{Row: tgt.Row, Col: tgt.Col + dc})
			if err != nil {
				t.Fatalf("Insert: %v", err)
			}
			propose(p, tgt)
		}
	}

	conflicts := IdentifyConflicts(reg, e.Cols())
	if len(conflicts) != 2 {
		t.Fatalf("conflicts = %d, want 2", len(conflicts))
	}
	if conflicts[0].Target != early || conflicts[1].Target != late {
		t.Errorf("conflicts out of canonical order: %v, %v",
			conflicts[0].Target, conflicts[1].Target)
	}
}

func TestResolveExactlyOneWinner(t *testing.T) {
	e := mustParse(t, openRoom)
	reg := NewRegistry(e)

	contested := grid.Location{Row: 2, Col: 2}
	var contenders []*Pedestrian
	for _, l := range []grid.Location{
		{Row: 1, Col: 2}, {Row: 2, Col: 1}, {Row: 3, Col: 2}, {Row: 2, Col: 3},
	} {
		p, err := reg.Insert(l)
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
		propose(p, contested)
		contenders = append(contenders, p)
	}

	conflicts := IdentifyConflicts(reg, e.Cols())
	ResolveConflicts(conflicts, UniformWinner{}, rand.New(rand.NewSource(11)))

	winners, losers := 0, 0
	for _, p := range contenders {
		if p.Transient.Target == contested {
			winners++
		} else {
			losers++
			if p.Transient.Target != p.Pos {
				t.Errorf("loser's accepted move is %v, want stay", p.Transient.Target)
			}
			if p.Transient.Outcome != OutcomeBlocked {
				t.Errorf("loser outcome = %v, want blocked", p.Transient.Outcome)
			}
		}
	}
	if winners != 1 || losers != 3 {
		t.Errorf("winners = %d, losers = %d, want 1 and 3", winners, losers)
	}
}

func TestResolveDeterministicWithSeed(t *testing.T) {
	winnerFor := func(seed int64) ID {
		e := mustParse(t, openRoom)
		reg := NewRegistry(e)
		contested := grid.Location{Row: 2, Col: 2}
		for _, l := range []grid.Location{
			{Row: 1, Col: 2}, {Row: 2, Col: 1}, {Row: 3, Col: 2},
		} {
			p, _ := reg.Insert(l)
			propose(p, contested)
		}
		conflicts := IdentifyConflicts(reg, e.Cols())
		ResolveConflicts(conflicts, UniformWinner{}, rand.New(rand.NewSource(seed)))
		for _, p := range reg.All() {
			if p.Transient.Target == contested {
				return p.ID
			}
		}
		t.Fatal("no winner")
		return 0
	}

	if a, b := winnerFor(21), winnerFor(21); a != b {
		t.Errorf("identical seeds picked winners %d and %d", a, b)
	}
}

func TestFixedWinner(t *testing.T) {
	e := mustParse(t, openRoom)
	reg := NewRegistry(e)
	contested := grid.Location{Row: 2, Col: 2}
	a, _ := reg.Insert(grid.Location{Row: 1, Col: 2})
	b, _ := reg.Insert(grid.Location{Row: 2, Col: 1})
	propose(a, contested)
	propose(b, contested)

	conflicts := IdentifyConflicts(reg, e.Cols())
	ResolveConflicts(conflicts, FixedWinner{Index: 1}, rand.New(rand.NewSource(1)))

	if b.Transient.Target != contested {
		t.Error("fixed winner lost")
	}
	if a.Transient.Target != a.Pos || a.Transient.Outcome != OutcomeBlocked {
		t.Error("fixed loser not reverted to stay")
	}
}

func TestFieldWeightedWinnerPrefersCloser(t *testing.T) {
	e := mustParse(t, openRoom)
	f := buildCombined(t, e, grid.VonNeumann)

	// Contender a stands on field value 2, contender b on value 6; a
	// should win clearly more often than b over many draws.
	wins := 0
	const draws = 500
	rng := rand.New(rand.NewSource(13))
	for i := 0; i < draws; i++ {
		reg := NewRegistry(e)
		a, _ := reg.Insert(grid.Location{Row: 1, Col: 1})
		b, _ := reg.Insert(grid.Location{Row: 3, Col: 3})
		contested := grid.Location{Row: 2, Col: 2}
		propose(a, contested)
		propose(b, contested)

		conflicts := IdentifyConflicts(reg, e.Cols())
		ResolveConflicts(conflicts, FieldWeightedWinner{Field: f}, rng)
		if a.Transient.Target == contested {
			wins++
		}
	}

	// Weights are 1/3 vs 1/7: a wins with probability 0.7. Allow a
	// generous band around it.
	if wins < draws/2 {
		t.Errorf("closer contender won only %d of %d draws", wins, draws)
	}
}
