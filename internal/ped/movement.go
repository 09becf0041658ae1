package ped

import (
	"math/rand"

	"github.com/evacsim/evacsim/internal/env"
	"github.com/evacsim/evacsim/internal/grid"
)

// TieBreaker picks among candidate cells that score identically.
type TieBreaker interface {
	Pick(rng *rand.Rand, ties []grid.Location) grid.Location
}

// UniformTie draws uniformly among the tied candidates; the default.
type UniformTie struct{}

// Pick implements TieBreaker.
func (UniformTie) Pick(rng *rand.Rand, ties []grid.Location) grid.Location {
	return ties[rng.Intn(len(ties))]
}

// FirstTie always picks the first tie in canonical neighbor order.
// Deterministic without consuming the random stream; used by tests.
type FirstTie struct{}

// Pick implements TieBreaker.
func (FirstTie) Pick(_ *rand.Rand, ties []grid.Location) grid.Location {
	return ties[0]
}

// Evaluator proposes a target cell for each pedestrian from the combined
// floor field. All reads see the occupancy of the previous timestep;
// nothing is applied until the conflict resolver has run.
type Evaluator struct {
	Env   *env.Environment
	Field *grid.Grid[float64] // Combined floor field
	Conn  grid.Neighborhood
	Tie   TieBreaker
}

// NewEvaluator builds an evaluator with the default uniform tie-break.
func NewEvaluator(e *env.Environment, field *grid.Grid[float64], conn grid.Neighborhood) *Evaluator {
	return &Evaluator{Env: e, Field: field, Conn: conn, Tie: UniformTie{}}
}

// candidates returns the cells the pedestrian may propose this timestep:
// its own cell first, then walkable unoccupied neighbors in canonical
// step order.
func (ev *Evaluator) candidates(p *Pedestrian, reg *Registry) []grid.Location {
	cand := []grid.Location{p.Pos}
	for _, st := range ev.Conn.Steps() {
		n := grid.Location{Row: p.Pos.Row + st.DRow, Col: p.Pos.Col + st.DCol}
		if !ev.Env.Walkable(n) {
			continue
		}
		if reg.OccupiedBy(n) != 0 {
			continue
		}
		cand = append(cand, n)
	}
	return cand
}

// Propose evaluates one pedestrian's movement for the current timestep
// and records the proposal in its transient state. The minimum floor
// field value wins; equal scores go to the tie-breaker.
func (ev *Evaluator) Propose(p *Pedestrian, reg *Registry, rng *rand.Rand) {
	cand := ev.candidates(p, reg)

	best := []grid.Location{cand[0]}
	bestScore := ev.Field.At(cand[0])
	for _, l := range cand[1:] {
		score := ev.Field.At(l)
		switch {
		case score < bestScore:
			best = best[:0]
			best = append(best, l)
			bestScore = score
		case score == bestScore:
			best = append(best, l)
		}
	}

	target := best[0]
	if len(best) > 1 {
		target = ev.Tie.Pick(rng, best)
	}
	p.Transient.Target = target
	p.Transient.Proposed = true
	if target == p.Pos {
		p.Transient.Outcome = OutcomeStayed
	}
}

// ProposeRandom replaces the pedestrian's proposal with a uniform draw
// over its candidates, floor field ignored. This is what panic does to
// a pedestrian's movement.
func (ev *Evaluator) ProposeRandom(p *Pedestrian, reg *Registry, rng *rand.Rand) {
	cand := ev.candidates(p, reg)
	target := cand[rng.Intn(len(cand))]
	p.Transient.Target = target
	p.Transient.Proposed = true
	if target == p.Pos {
		p.Transient.Outcome = OutcomeStayed
	} else {
		p.Transient.Outcome = OutcomeNone
	}
}

// BlockLateral reverts proposals that make no floor-field progress: a
// move to a cell whose field value equals the pedestrian's current one
// is a sideways slide along an equipotential, and with the restriction
// enabled the pedestrian stays instead.
func (ev *Evaluator) BlockLateral(reg *Registry) {
	for _, p := range reg.All() {
		if !p.Transient.Proposed || p.Transient.Target == p.Pos {
			continue
		}
		if ev.Field.At(p.Transient.Target) == ev.Field.At(p.Pos) {
			p.Transient.Target = p.Pos
			p.Transient.Outcome = OutcomeStayed
		}
	}
}
