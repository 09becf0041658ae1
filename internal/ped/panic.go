package ped

import (
	"math/rand"

	"github.com/evacsim/evacsim/internal/grid"
)

// PanicPolicy decides each pedestrian's panic state once per timestep.
// The returned value becomes the pedestrian's new persistent state, so a
// policy may keep panic latched or clear it every step.
type PanicPolicy interface {
	Panicked(p *Pedestrian, reg *Registry, rng *rand.Rand) bool
}

// NoPanic never panics anyone.
type NoPanic struct{}

// Panicked implements PanicPolicy.
func (NoPanic) Panicked(*Pedestrian, *Registry, *rand.Rand) bool { return false }

// RandomPanic panics each pedestrian independently with probability Prob,
// re-rolled every timestep. The default policy; Prob 0 disables it.
type RandomPanic struct {
	Prob float64
}

// Panicked implements PanicPolicy.
func (rp RandomPanic) Panicked(_ *Pedestrian, _ *Registry, rng *rand.Rand) bool {
	return rp.Prob > 0 && rng.Float64() < rp.Prob
}

// DensityPanic panics a pedestrian when the fraction of occupied cells
// in its neighborhood reaches Threshold, and keeps it panicked from then
// on. Only a between-run reset clears it.
type DensityPanic struct {
	Threshold float64
	Conn      grid.Neighborhood
}

// Panicked implements PanicPolicy.
func (dp DensityPanic) Panicked(p *Pedestrian, reg *Registry, _ *rand.Rand) bool {
	if p.Panicked {
		return true // latched
	}
	total, occupied := 0, 0
	for _, st := range dp.Conn.Steps() {
		n := grid.Location{Row: p.Pos.Row + st.DRow, Col: p.Pos.Col + st.DCol}
		if !reg.Occupancy().InBounds(n) {
			continue
		}
		total++
		if reg.OccupiedBy(n) != 0 {
			occupied++
		}
	}
	return total > 0 && float64(occupied)/float64(total) >= dp.Threshold
}
