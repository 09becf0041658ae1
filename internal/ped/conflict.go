package ped

import (
	"math/rand"
	"sort"

	"github.com/evacsim/evacsim/internal/grid"
)

// Conflict is one contested cell: a target proposed by two or more
// pedestrians in the same timestep. Conflicts are built fresh every
// timestep and discarded after resolution.
type Conflict struct {
	Target     grid.Location
	Contenders []*Pedestrian // In pedestrian insertion order
}

// IdentifyConflicts groups the registry's proposals by target cell and
// returns the cells with at least two contenders, ordered by row-major
// cell index. A cell proposed by exactly one pedestrian is granted
// without a conflict object.
func IdentifyConflicts(reg *Registry, cols int) []Conflict {
	byTarget := make(map[int][]*Pedestrian)
	for _, p := range reg.All() {
		if !p.Transient.Proposed || p.Transient.Target == p.Pos {
			continue // staying on your own cell contests nothing
		}
		idx := p.Transient.Target.Index(cols)
		byTarget[idx] = append(byTarget[idx], p)
	}

	var conflicts []Conflict
	for idx, contenders := range byTarget {
		if len(contenders) < 2 {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Target:     grid.Location{Row: idx / cols, Col: idx % cols},
			Contenders: contenders,
		})
	}
	// Map traversal order is unspecified; sort so the winner draws come
	// off the random stream in a reproducible sequence.
	sort.Slice(conflicts, func(i, j int) bool {
		return conflicts[i].Target.Index(cols) < conflicts[j].Target.Index(cols)
	})
	return conflicts
}

// WinnerPolicy selects the single winner among a conflict's contenders.
type WinnerPolicy interface {
	Pick(rng *rand.Rand, c Conflict) int
}

// UniformWinner gives every contender the same chance; the default.
type UniformWinner struct{}

// Pick implements WinnerPolicy.
func (UniformWinner) Pick(rng *rand.Rand, c Conflict) int {
	return rng.Intn(len(c.Contenders))
}

// FieldWeightedWinner favors contenders standing on lower (closer to an
// exit) floor field values. Weight is 1/(1+value) of the contender's
// current cell.
type FieldWeightedWinner struct {
	Field *grid.Grid[float64]
}

// Pick implements WinnerPolicy.
func (fw FieldWeightedWinner) Pick(rng *rand.Rand, c Conflict) int {
	weights := make([]float64, len(c.Contenders))
	total := 0.0
	for i, p := range c.Contenders {
		w := 1.0 / (1.0 + fw.Field.At(p.Pos))
		weights[i] = w
		total += w
	}
	draw := rng.Float64() * total
	for i, w := range weights {
		draw -= w
		if draw < 0 {
			return i
		}
	}
	return len(c.Contenders) - 1
}

// FixedWinner always picks the contender at Index (clamped); used by
// tests that need a predetermined outcome.
type FixedWinner struct {
	Index int
}

// Pick implements WinnerPolicy.
func (fw FixedWinner) Pick(_ *rand.Rand, c Conflict) int {
	if fw.Index < 0 || fw.Index >= len(c.Contenders) {
		return 0
	}
	return fw.Index
}

// ResolveConflicts picks exactly one winner per conflict and reverts all
// losers to stay, flagged blocked. One synchronous round per timestep:
// losers do not re-propose, which is what makes movement simultaneous
// rather than sequential.
func ResolveConflicts(conflicts []Conflict, policy WinnerPolicy, rng *rand.Rand) {
	for _, c := range conflicts {
		winner := policy.Pick(rng, c)
		for i, p := range c.Contenders {
			if i == winner {
				continue
			}
			p.Transient.Target = p.Pos
			p.Transient.Outcome = OutcomeBlocked
		}
	}
}
