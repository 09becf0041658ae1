package sim

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/evacsim/evacsim/internal/env"
	"github.com/evacsim/evacsim/internal/field"
	"github.com/evacsim/evacsim/internal/grid"
	"github.com/evacsim/evacsim/internal/ped"
)

// Frame is one timestep's occupancy snapshot, handed to sinks for
// visualization. The grid is a private copy; sinks may retain it.
type Frame struct {
	Set      int `json:"set"`
	Run      int `json:"run"`
	Timestep int `json:"timestep"`

	Occupancy *grid.Grid[int] `json:"-"`
}

// Result summarizes one simulation set.
type Result struct {
	Set       int
	Status    field.Status
	Seeds     []int64 // Seed used by each run
	Timesteps []int   // Per-run timestep counts; empty when skipped
	Heatmap   *grid.Grid[int]
}

// Simulation owns all grids and registries for the duration of one
// simulation set and drives the per-timestep phase machine. Strictly
// single-threaded; a timestep is atomic with respect to occupancy.
type Simulation struct {
	Env *env.Environment
	Cfg Config

	// FrameSink, when set, receives a frame at timestep 0 and after
	// every apply phase.
	FrameSink func(Frame)

	reg     *ped.Registry
	exits   *field.ExitSet
	eval    *ped.Evaluator
	winner  ped.WinnerPolicy
	rng     *rand.Rand
	heatmap *grid.Grid[int]

	setIndex int
	runIndex int
}

// New creates a simulation over the environment.
func New(e *env.Environment, cfg Config) *Simulation {
	return &Simulation{
		Env:     e,
		Cfg:     cfg.withDefaults(),
		heatmap: grid.New[int](e.Rows(), e.Cols()),
	}
}

// Heatmap exposes the visit counter accumulated across the runs of the
// current simulation set.
func (s *Simulation) Heatmap() *grid.Grid[int] { return s.heatmap }

// Registry exposes the pedestrian registry; nil before the first run.
func (s *Simulation) Registry() *ped.Registry { return s.reg }

// RunSet executes all configured runs for one exit configuration. The
// heatmap is reset at set entry and accumulates across the set's runs.
// An inaccessible configuration is skipped: the result carries the
// status, no run happens, and the exits are released.
func (s *Simulation) RunSet(setIndex int, spec SetSpec) (Result, error) {
	s.setIndex = setIndex
	s.heatmap.Fill(0)

	exits, err := spec.register(s.Env, s.Cfg.Conn)
	if err != nil {
		return Result{Set: setIndex}, fmt.Errorf("simulation set %d: %w", setIndex, err)
	}
	defer exits.Release()
	s.exits = exits

	combined, status := exits.Combine()
	if status != field.StatusSuccess {
		slog.Info("simulation set skipped", "set", setIndex, "status", status.String())
		return Result{Set: setIndex, Status: status}, nil
	}

	s.eval = &ped.Evaluator{Env: s.Env, Field: combined, Conn: s.Cfg.Conn, Tie: s.Cfg.Tie}
	s.winner = s.Cfg.Winner
	if s.Cfg.FieldWeightedConflicts {
		s.winner = ped.FieldWeightedWinner{Field: combined}
	}

	res := Result{Set: setIndex, Status: status}
	seed := s.Cfg.Seed
	for run := 0; run < s.Cfg.Runs; run++ {
		steps, err := s.runOnce(run, seed)
		if err != nil {
			return res, err
		}
		res.Seeds = append(res.Seeds, seed)
		res.Timesteps = append(res.Timesteps, steps)
		seed++
	}
	res.Heatmap = s.heatmap.Clone()

	slog.Info("simulation set finished",
		"set", setIndex,
		"exits", exits.Len(),
		"runs", len(res.Timesteps),
	)
	return res, nil
}

// RunSets runs every set in order. Sets are independent: a skipped set
// does not disturb the results of completed ones.
func (s *Simulation) RunSets(specs []SetSpec) ([]Result, error) {
	results := make([]Result, 0, len(specs))
	for i, spec := range specs {
		r, err := s.RunSet(i, spec)
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}

// runOnce executes a single run: seed the stream, place pedestrians,
// step until the environment is empty.
func (s *Simulation) runOnce(run int, seed int64) (int, error) {
	s.runIndex = run
	s.rng = rand.New(rand.NewSource(seed))

	if err := s.placePedestrians(); err != nil {
		return 0, err
	}
	s.emitFrame(0)

	steps := 0
	for !s.reg.Empty() {
		if s.Cfg.MaxTimesteps > 0 && steps >= s.Cfg.MaxTimesteps {
			return steps, fmt.Errorf("run %d: exceeded %d timesteps", run, s.Cfg.MaxTimesteps)
		}
		s.step()
		steps++
		s.emitFrame(steps)
	}

	slog.Debug("run finished", "set", s.setIndex, "run", run, "seed", seed, "timesteps", steps)
	return steps, nil
}

// placePedestrians seeds the registry for a run. Fixed placements are
// restored in place between runs; random placements are redrawn from the
// run's stream.
func (s *Simulation) placePedestrians() error {
	static := s.Cfg.Pedestrians == 0 && len(s.Env.StaticPedestrians) > 0
	switch {
	case s.reg == nil:
		s.reg = ped.NewRegistry(s.Env)
		if static {
			return s.reg.InsertStatic(s.Env.StaticPedestrians)
		}
		return s.reg.InsertRandom(s.Cfg.Pedestrians, s.rng)
	case static:
		s.reg.ResetToStart()
		return nil
	default:
		s.reg.Clear()
		return s.reg.InsertRandom(s.Cfg.Pedestrians, s.rng)
	}
}

// step advances the automaton one timestep. Phase order is fixed:
// propose, then panic, then the lateral restriction, then conflict
// resolution, then apply and transient reset. Proposals all read the
// previous timestep's occupancy; nothing moves until apply.
func (s *Simulation) step() {
	// Movement proposals, pedestrians in insertion order.
	for _, p := range s.reg.All() {
		s.eval.Propose(p, s.reg, s.rng)
	}

	// Panic determination; a pedestrian panicking this timestep redraws
	// its proposal uniformly at random.
	for _, p := range s.reg.All() {
		p.Panicked = s.Cfg.Panic.Panicked(p, s.reg, s.rng)
		if p.Panicked {
			s.eval.ProposeRandom(p, s.reg, s.rng)
		}
	}

	if s.Cfg.BlockLateral {
		s.eval.BlockLateral(s.reg)
	}

	conflicts := ped.IdentifyConflicts(s.reg, s.Env.Cols())
	ped.ResolveConflicts(conflicts, s.winner, s.rng)

	s.apply()
	s.reg.ResetTransient()
}

// apply commits every accepted move, updates the heatmap, and removes
// pedestrians that stepped onto an exit cell.
func (s *Simulation) apply() {
	// Iterate over a copy: Remove mutates the registry's slice.
	peds := append([]*ped.Pedestrian(nil), s.reg.All()...)
	for _, p := range peds {
		if p.Transient.Proposed && p.Transient.Target != p.Pos {
			s.reg.Move(p, p.Transient.Target)
			p.Transient.Outcome = ped.OutcomeMoved
		}
		s.heatmap.Set(p.Pos, s.heatmap.At(p.Pos)+1)
		if s.exits.IsExitCell(p.Pos) {
			s.reg.Remove(p)
		}
	}
}

func (s *Simulation) emitFrame(timestep int) {
	if s.FrameSink == nil {
		return
	}
	s.FrameSink(Frame{
		Set:       s.setIndex,
		Run:       s.runIndex,
		Timestep:  timestep,
		Occupancy: s.reg.Occupancy().Clone(),
	})
}
