package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/evacsim/evacsim/internal/env"
	"github.com/evacsim/evacsim/internal/grid"
	"github.com/evacsim/evacsim/internal/output"
	"github.com/evacsim/evacsim/internal/ped"
	"github.com/evacsim/evacsim/internal/persistence"
	"github.com/evacsim/evacsim/internal/sim"
)

// simFlags is the flag surface shared by run and serve.
type simFlags struct {
	envPath    string
	auto       bool
	rows, cols int
	obstacle   float64
	exitCount  int

	peds          int
	runs          int
	seed          int64
	panicProb     float64
	densityPanic  float64
	blockLateral  bool
	vonNeumann    bool
	fieldWeighted bool
	maxTimesteps  int
	pairSweep     bool
}

func (f *simFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.envPath, "env", "e", "", "environment layout file")
	cmd.Flags().BoolVar(&f.auto, "auto", false, "generate the environment instead of loading it")
	cmd.Flags().IntVar(&f.rows, "rows", 25, "generated environment height")
	cmd.Flags().IntVar(&f.cols, "cols", 25, "generated environment width")
	cmd.Flags().Float64Var(&f.obstacle, "obstacle-level", 0.72, "generated obstacle noise threshold")
	cmd.Flags().IntVar(&f.exitCount, "exit-count", 1, "exits carved into a generated environment")

	cmd.Flags().IntVarP(&f.peds, "pedestrians", "p", 0, "pedestrians placed at random (0 = use layout's static placement)")
	cmd.Flags().IntVarP(&f.runs, "runs", "n", 1, "simulation runs per set")
	cmd.Flags().Int64VarP(&f.seed, "seed", "s", 1, "random seed of the first run")
	cmd.Flags().Float64Var(&f.panicProb, "panic", 0, "per-timestep panic probability")
	cmd.Flags().Float64Var(&f.densityPanic, "density-panic", 0, "crowd-density panic threshold (0 disables)")
	cmd.Flags().BoolVar(&f.blockLateral, "block-lateral", false, "disallow purely lateral movement")
	cmd.Flags().BoolVar(&f.vonNeumann, "von-neumann", false, "use 4-connectivity instead of 8")
	cmd.Flags().BoolVar(&f.fieldWeighted, "field-weighted-conflicts", false, "weight conflict winners by floor field")
	cmd.Flags().IntVar(&f.maxTimesteps, "max-timesteps", 0, "abort a run after this many timesteps (0 = unbounded)")
	cmd.Flags().BoolVar(&f.pairSweep, "pair-sweep", false, "run one set per pair of layout exits")
}

// environment loads or generates the environment per the flags.
func (f *simFlags) environment() (*env.Environment, error) {
	if f.auto {
		cfg := env.GenConfig{
			Rows:        f.rows,
			Cols:        f.cols,
			Seed:        f.seed,
			ObstacleLvl: f.obstacle,
			ExitCount:   f.exitCount,
		}
		return env.Generate(cfg), nil
	}
	if f.envPath == "" {
		return nil, fmt.Errorf("either --env or --auto is required")
	}
	return env.Load(f.envPath)
}

// config translates the flags into a simulation config.
func (f *simFlags) config() sim.Config {
	cfg := sim.DefaultConfig()
	cfg.Seed = f.seed
	cfg.Runs = f.runs
	cfg.Pedestrians = f.peds
	cfg.BlockLateral = f.blockLateral
	cfg.MaxTimesteps = f.maxTimesteps
	cfg.FieldWeightedConflicts = f.fieldWeighted
	if f.vonNeumann {
		cfg.Conn = grid.VonNeumann
	}
	switch {
	case f.densityPanic > 0:
		cfg.Panic = ped.DensityPanic{Threshold: f.densityPanic, Conn: cfg.Conn}
	case f.panicProb > 0:
		cfg.Panic = ped.RandomPanic{Prob: f.panicProb}
	}
	return cfg
}

// sets derives the simulation sets from the environment's exits.
func (f *simFlags) sets(e *env.Environment) ([]sim.SetSpec, error) {
	static := sim.StaticSet(e)
	if len(static) == 0 {
		return nil, fmt.Errorf("environment has no exit cells")
	}
	if f.pairSweep {
		return sim.PairSets(static), nil
	}
	return []sim.SetSpec{static}, nil
}

func runCmd() *cobra.Command {
	flags := &simFlags{}
	var outputMode string
	var dbPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run evacuation simulations and print results",
		RunE: func(*cobra.Command, []string) error {
			mode, err := output.ParseMode(outputMode)
			if err != nil {
				return err
			}

			e, err := flags.environment()
			if err != nil {
				return err
			}
			sets, err := flags.sets(e)
			if err != nil {
				return err
			}

			simulation := sim.New(e, flags.config())

			if mode == output.ModeVisualization {
				fw := &output.FrameWriter{W: os.Stdout, Env: e}
				simulation.FrameSink = func(fr sim.Frame) {
					if err := fw.WriteFrame(fr); err != nil {
						fmt.Fprintln(os.Stderr, "write frame:", err)
					}
				}
			}

			var db *persistence.DB
			if dbPath != "" {
				db, err = persistence.Open(dbPath)
				if err != nil {
					return err
				}
				defer db.Close()
			}

			start := time.Now()
			results, err := simulation.RunSets(sets)
			if err != nil {
				return err
			}

			totalRuns := 0
			for i, res := range results {
				switch mode {
				case output.ModeTimesteps:
					if err := output.WriteTimesteps(os.Stdout, res); err != nil {
						return err
					}
				case output.ModeHeatmap:
					if res.Heatmap != nil {
						fmt.Printf("-- set %d heatmap --\n", res.Set)
						if err := output.WriteHeatmap(os.Stdout, res.Heatmap); err != nil {
							return err
						}
					} else {
						fmt.Printf("-- set %d skipped: %s --\n", res.Set, res.Status)
					}
				}
				totalRuns += len(res.Timesteps)

				if db != nil {
					if _, err := db.SaveResult(res, sets[i], e.Rows(), e.Cols()); err != nil {
						return err
					}
				}
			}

			fmt.Fprintf(os.Stderr, "%s runs across %s sets in %s\n",
				humanize.Comma(int64(totalRuns)),
				humanize.Comma(int64(len(results))),
				time.Since(start).Round(time.Millisecond))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&outputMode, "output", "o", "timesteps", "output mode: frames, timesteps, heatmap")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database to persist results (optional)")
	return cmd
}

func generateCmd() *cobra.Command {
	flags := &simFlags{}
	var outPath string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an environment layout and write it out",
		RunE: func(*cobra.Command, []string) error {
			cfg := env.GenConfig{
				Rows:        flags.rows,
				Cols:        flags.cols,
				Seed:        flags.seed,
				ObstacleLvl: flags.obstacle,
				ExitCount:   flags.exitCount,
			}
			e := env.Generate(cfg)

			w := os.Stdout
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return env.Write(w, e)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&outPath, "out", "O", "", "output file (default stdout)")
	return cmd
}
