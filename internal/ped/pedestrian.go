// Package ped provides the pedestrian registry, the per-timestep movement
// evaluator and the conflict resolver. Pedestrians carry two kinds of
// state: persistent state that survives timesteps (position, panic) and
// transient state that is rebuilt every timestep (proposal, outcome).
package ped

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/evacsim/evacsim/internal/env"
	"github.com/evacsim/evacsim/internal/grid"
)

// ID identifies a pedestrian. IDs start at 1 so that 0 can mean "empty"
// in the occupancy grid.
type ID int

// Outcome records what happened to a pedestrian in the current timestep.
type Outcome uint8

const (
	OutcomeNone    Outcome = iota // Not yet decided this timestep
	OutcomeMoved                  // Proposal accepted and applied
	OutcomeStayed                 // Proposed its own cell
	OutcomeBlocked                // Lost a conflict or was blocked, stays put
)

// Transient is the per-timestep state, reset at the end of every
// timestep. Kept as its own struct so the reset contract stays obvious.
type Transient struct {
	Target   grid.Location // Proposed target cell for this timestep
	Proposed bool          // Target is valid
	Outcome  Outcome
}

// Pedestrian is one agent in the automaton.
type Pedestrian struct {
	ID    ID
	Pos   grid.Location
	Start grid.Location // Initial placement, used when runs reuse it

	// Panicked persists across timesteps until a panic policy or a
	// between-run reset clears it.
	Panicked bool

	Transient Transient
}

// resetTransient clears the per-timestep fields. Persistent state is
// untouched.
func (p *Pedestrian) resetTransient() {
	p.Transient = Transient{}
}

// Registry owns the live pedestrians and the occupancy grid. Iteration
// is always in insertion order so that random draws happen in a
// reproducible sequence.
type Registry struct {
	env     *env.Environment
	peds    []*Pedestrian
	retired []*Pedestrian // Exited pedestrians, kept for fixed-placement re-runs
	occ     *grid.Grid[int] // 0 = empty, otherwise pedestrian ID
	nextID  ID
}

// NewRegistry creates an empty registry over the environment.
func NewRegistry(e *env.Environment) *Registry {
	return &Registry{
		env:    e,
		occ:    grid.New[int](e.Rows(), e.Cols()),
		nextID: 1,
	}
}

// Insert places a new pedestrian at l. Fails when the cell is not
// walkable or already occupied.
func (r *Registry) Insert(l grid.Location) (*Pedestrian, error) {
	if !r.env.Walkable(l) {
		return nil, fmt.Errorf("insert pedestrian: %v is not walkable", l)
	}
	if r.occ.At(l) != 0 {
		return nil, fmt.Errorf("insert pedestrian: %v is occupied", l)
	}
	p := &Pedestrian{ID: r.nextID, Pos: l, Start: l}
	r.nextID++
	r.peds = append(r.peds, p)
	r.occ.Set(l, int(p.ID))
	return p, nil
}

// InsertStatic places pedestrians at a fixed list of cells, in order.
func (r *Registry) InsertStatic(cells []grid.Location) error {
	for _, l := range cells {
		if _, err := r.Insert(l); err != nil {
			return err
		}
	}
	return nil
}

// InsertRandom places n pedestrians on unoccupied floor cells chosen
// uniformly from the run's random stream. Exit cells are excluded so
// nobody starts already outside.
func (r *Registry) InsertRandom(n int, rng *rand.Rand) error {
	var free []grid.Location
	for _, l := range r.env.FloorCells() {
		if r.env.Layout.At(l) != env.CellExit && r.occ.At(l) == 0 {
			free = append(free, l)
		}
	}
	if n > len(free) {
		return fmt.Errorf("insert pedestrians: need %d free cells, have %d", n, len(free))
	}
	rng.Shuffle(len(free), func(i, j int) { free[i], free[j] = free[j], free[i] })
	for _, l := range free[:n] {
		if _, err := r.Insert(l); err != nil {
			return err
		}
	}
	return nil
}

// Remove retires a pedestrian (it reached an exit). The slot in the
// iteration order disappears and occupancy is cleared; the pedestrian is
// retained so a fixed-placement re-run can restore it.
func (r *Registry) Remove(p *Pedestrian) {
	for i, q := range r.peds {
		if q == p {
			r.peds = append(r.peds[:i], r.peds[i+1:]...)
			r.retired = append(r.retired, p)
			break
		}
	}
	if r.occ.At(p.Pos) == int(p.ID) {
		r.occ.Set(p.Pos, 0)
	}
}

// All returns the live pedestrians in insertion order. Callers must not
// hold the slice across Remove calls.
func (r *Registry) All() []*Pedestrian { return r.peds }

// Len returns the number of live pedestrians.
func (r *Registry) Len() int { return len(r.peds) }

// Empty reports whether the environment holds no pedestrians; the
// simulation loop's terminal condition.
func (r *Registry) Empty() bool { return len(r.peds) == 0 }

// Occupancy exposes the occupancy grid: 0 for empty cells, the
// pedestrian ID otherwise. Read-only for callers.
func (r *Registry) Occupancy() *grid.Grid[int] { return r.occ }

// OccupiedBy returns the pedestrian ID at l, or 0.
func (r *Registry) OccupiedBy(l grid.Location) int { return r.occ.At(l) }

// Move relocates a pedestrian in the occupancy grid. Panics if the
// target is occupied by someone else; the conflict resolver is supposed
// to have made that impossible.
func (r *Registry) Move(p *Pedestrian, to grid.Location) {
	if id := r.occ.At(to); id != 0 && id != int(p.ID) {
		panic(fmt.Sprintf("ped: occupancy violation, %v held by %d while moving %d", to, id, p.ID))
	}
	r.occ.Set(p.Pos, 0)
	r.occ.Set(to, int(p.ID))
	p.Pos = to
}

// ResetTransient clears every pedestrian's per-timestep state. Runs at
// the end of each timestep.
func (r *Registry) ResetTransient() {
	for _, p := range r.peds {
		p.resetTransient()
	}
}

// ResetPanic clears persistent panic state; used between simulation runs.
func (r *Registry) ResetPanic() {
	for _, p := range r.peds {
		p.Panicked = false
	}
}

// Clear removes every pedestrian, live and retired; used between runs
// with random placement, where the next run reinserts from scratch.
func (r *Registry) Clear() {
	r.peds = nil
	r.retired = nil
	r.occ.Fill(0)
	r.nextID = 1
}

// ResetToStart restores every pedestrian, retired ones included, to its
// initial cell with all state cleared; used between runs with a fixed
// initial placement. Restoration follows the original insertion order.
func (r *Registry) ResetToStart() {
	all := append(r.peds, r.retired...)
	sortByID(all)
	r.peds = all
	r.retired = nil
	r.occ.Fill(0)
	for _, p := range r.peds {
		p.Pos = p.Start
		p.Panicked = false
		p.resetTransient()
		r.occ.Set(p.Pos, int(p.ID))
	}
}

func sortByID(ps []*Pedestrian) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].ID < ps[j].ID })
}
