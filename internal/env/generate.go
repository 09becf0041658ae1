package env

import (
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/evacsim/evacsim/internal/grid"
)

// GenConfig holds environment generation parameters.
type GenConfig struct {
	Rows, Cols int

	// Seed drives both the noise layers and exit placement (0 = random).
	Seed int64

	// ObstacleLvl is the noise threshold above which an interior cell
	// becomes an obstacle. Higher = sparser obstacles.
	ObstacleLvl float64

	// ExitCount exits are carved into the boundary walls at
	// noise-selected positions.
	ExitCount int
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Rows:        25,
		Cols:        25,
		ObstacleLvl: 0.72,
		ExitCount:   1,
	}
}

// Generate creates a bordered environment with obstacle clusters derived
// from multi-octave simplex noise and ExitCount exits carved into the
// walls. The same config always produces the same environment.
func Generate(cfg GenConfig) *Environment {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	noise := opensimplex.NewNormalized(seed)
	e := &Environment{Layout: grid.New[CellKind](cfg.Rows, cfg.Cols)}

	for r := 0; r < cfg.Rows; r++ {
		for c := 0; c < cfg.Cols; c++ {
			l := grid.Location{Row: r, Col: c}
			if r == 0 || c == 0 || r == cfg.Rows-1 || c == cfg.Cols-1 {
				e.Layout.Set(l, CellObstacle)
				continue
			}
			v := octaveNoise(noise, float64(c), float64(r), 3, 0.15, 0.5)
			if v > cfg.ObstacleLvl {
				e.Layout.Set(l, CellObstacle)
			}
		}
	}

	carveExits(e, cfg, seed)
	return e
}

// carveExits converts boundary wall cells into exits. Candidate positions
// are boundary cells whose interior neighbor is floor; which candidates
// are picked is deterministic from the seed.
func carveExits(e *Environment, cfg GenConfig, seed int64) {
	var candidates []grid.Location
	for r := 1; r < cfg.Rows-1; r++ {
		for _, c := range []int{0, cfg.Cols - 1} {
			in := grid.Location{Row: r, Col: 1}
			if c != 0 {
				in = grid.Location{Row: r, Col: cfg.Cols - 2}
			}
			if e.Layout.At(in) == CellFloor {
				candidates = append(candidates, grid.Location{Row: r, Col: c})
			}
		}
	}
	for c := 1; c < cfg.Cols-1; c++ {
		for _, r := range []int{0, cfg.Rows - 1} {
			in := grid.Location{Row: 1, Col: c}
			if r != 0 {
				in = grid.Location{Row: cfg.Rows - 2, Col: c}
			}
			if e.Layout.At(in) == CellFloor {
				candidates = append(candidates, grid.Location{Row: r, Col: c})
			}
		}
	}

	rng := rand.New(rand.NewSource(seed + 1))
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	n := cfg.ExitCount
	if n > len(candidates) {
		n = len(candidates)
	}
	for _, l := range candidates[:n] {
		e.Layout.Set(l, CellExit)
	}
}

func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
