// Package output renders simulation data in the three classic formats:
// per-timestep visualization frames, per-run timestep counts, and the
// per-set heatmap.
package output

import (
	"fmt"
	"io"

	"github.com/evacsim/evacsim/internal/env"
	"github.com/evacsim/evacsim/internal/field"
	"github.com/evacsim/evacsim/internal/grid"
	"github.com/evacsim/evacsim/internal/sim"
)

// Mode selects what a run prints.
type Mode uint8

const (
	ModeVisualization Mode = iota // Occupancy frame per timestep
	ModeTimesteps                 // Space-separated per-run counts
	ModeHeatmap                   // Visit counters per set
)

// ParseMode maps the CLI flag value to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "frames", "visualization":
		return ModeVisualization, nil
	case "timesteps":
		return ModeTimesteps, nil
	case "heatmap":
		return ModeHeatmap, nil
	default:
		return 0, fmt.Errorf("unknown output mode %q", s)
	}
}

// FrameWriter renders occupancy frames as text. Obstacles print as '#',
// exits as 'E', pedestrians as 'o', empty floor as '.'.
type FrameWriter struct {
	W   io.Writer
	Env *env.Environment
}

// WriteFrame renders one frame with a run/timestep header.
func (fw *FrameWriter) WriteFrame(f sim.Frame) error {
	if _, err := fmt.Fprintf(fw.W, "-- set %d run %d timestep %d --\n", f.Set, f.Run, f.Timestep); err != nil {
		return err
	}
	rows, cols := fw.Env.Rows(), fw.Env.Cols()
	line := make([]byte, cols+1)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			l := grid.Location{Row: r, Col: c}
			switch {
			case f.Occupancy.At(l) != 0:
				line[c] = 'o'
			case fw.Env.Layout.At(l) == env.CellObstacle:
				line[c] = '#'
			case fw.Env.Layout.At(l) == env.CellExit:
				line[c] = 'E'
			default:
				line[c] = '.'
			}
		}
		line[cols] = '\n'
		if _, err := fw.W.Write(line); err != nil {
			return err
		}
	}
	return nil
}

// WriteTimesteps prints one line per set: the per-run timestep counts
// separated by spaces, or the -1 placeholder for a skipped set.
func WriteTimesteps(w io.Writer, res sim.Result) error {
	if len(res.Timesteps) == 0 {
		_, err := fmt.Fprintln(w, "-1")
		return err
	}
	for i, n := range res.Timesteps {
		sep := " "
		if i == len(res.Timesteps)-1 {
			sep = "\n"
		}
		if _, err := fmt.Fprintf(w, "%d%s", n, sep); err != nil {
			return err
		}
	}
	return nil
}

// WriteHeatmap prints the set's visit counters, one row per line.
func WriteHeatmap(w io.Writer, h *grid.Grid[int]) error {
	for r := 0; r < h.Rows(); r++ {
		for c := 0; c < h.Cols(); c++ {
			sep := " "
			if c == h.Cols()-1 {
				sep = "\n"
			}
			if _, err := fmt.Fprintf(w, "%d%s", h.At(grid.Location{Row: r, Col: c}), sep); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteField prints a floor field for debugging, with "inf" for
// unreachable cells.
func WriteField(w io.Writer, f *grid.Grid[float64]) error {
	for r := 0; r < f.Rows(); r++ {
		for c := 0; c < f.Cols(); c++ {
			v := f.At(grid.Location{Row: r, Col: c})
			cell := "  inf"
			if v != field.Unreachable {
				cell = fmt.Sprintf("%5.1f", v)
			}
			sep := " "
			if c == f.Cols()-1 {
				sep = "\n"
			}
			if _, err := fmt.Fprintf(w, "%s%s", cell, sep); err != nil {
				return err
			}
		}
	}
	return nil
}
