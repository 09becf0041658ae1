// Package sim provides the simulation loop driver: the per-timestep phase
// machine, simulation runs, and simulation sets with their heatmap
// accumulation.
package sim

import (
	"github.com/evacsim/evacsim/internal/grid"
	"github.com/evacsim/evacsim/internal/ped"
)

// Config holds the knobs of one simulation. Zero values fall back to the
// documented defaults in New.
type Config struct {
	// Conn selects grid connectivity for both field propagation and
	// pedestrian movement.
	Conn grid.Neighborhood

	// Seed seeds the run's random stream. Consecutive runs within a set
	// use Seed, Seed+1, Seed+2, ...
	Seed int64

	// Runs is the number of independent repetitions per simulation set.
	Runs int

	// Pedestrians inserted at random each run. When 0 and the
	// environment carries a static placement, that placement is used
	// and restored between runs instead.
	Pedestrians int

	// BlockLateral enables the restriction that reverts sideways
	// (no-field-progress) moves to stay.
	BlockLateral bool

	// MaxTimesteps aborts a run that exceeds it; 0 means unbounded.
	MaxTimesteps int

	// Panic decides per-timestep panic state. Default NoPanic.
	Panic ped.PanicPolicy

	// Tie breaks equal-score movement candidates. Default uniform.
	Tie ped.TieBreaker

	// Winner selects conflict winners. Default uniform.
	Winner ped.WinnerPolicy

	// FieldWeightedConflicts overrides Winner with a policy that favors
	// contenders closer to an exit, bound to each set's combined field.
	FieldWeightedConflicts bool
}

// DefaultConfig returns the standard configuration: Moore connectivity,
// one run, uniform random tie-breaks and conflict winners, no panic.
func DefaultConfig() Config {
	return Config{
		Conn:   grid.Moore,
		Seed:   1,
		Runs:   1,
		Panic:  ped.NoPanic{},
		Tie:    ped.UniformTie{},
		Winner: ped.UniformWinner{},
	}
}

// withDefaults fills nil policies so callers can leave them unset.
func (c Config) withDefaults() Config {
	if c.Panic == nil {
		c.Panic = ped.NoPanic{}
	}
	if c.Tie == nil {
		c.Tie = ped.UniformTie{}
	}
	if c.Winner == nil {
		c.Winner = ped.UniformWinner{}
	}
	if c.Runs <= 0 {
		c.Runs = 1
	}
	return c
}
