package env

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/evacsim/evacsim/internal/grid"
)

// Layout file cell markers.
const (
	markObstacle   = '#'
	markFloor      = '.'
	markExit       = 'E'
	markPedestrian = 'P'
)

// Load reads an environment from a layout file. See Parse for the format.
func Load(path string) (*Environment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open environment: %w", err)
	}
	defer f.Close()

	e, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse environment %s: %w", path, err)
	}
	return e, nil
}

// Parse reads a layout from r. One line per row: '#' obstacle, '.' floor,
// 'E' exit cell, 'P' pedestrian starting position (on floor). Blank lines
// and lines starting with "//" are skipped. All rows must share a width.
func Parse(r io.Reader) (*Environment, error) {
	var rows []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r\n")
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		rows = append(rows, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty layout")
	}

	cols := len(rows[0])
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("ragged layout: row %d has %d cells, expected %d",
				i, len(row), cols)
		}
	}

	e := &Environment{Layout: grid.New[CellKind](len(rows), cols)}
	for r, row := range rows {
		for c, ch := range []byte(row) {
			l := grid.Location{Row: r, Col: c}
			switch ch {
			case markObstacle:
				e.Layout.Set(l, CellObstacle)
			case markFloor:
				e.Layout.Set(l, CellFloor)
			case markExit:
				e.Layout.Set(l, CellExit)
			case markPedestrian:
				e.Layout.Set(l, CellFloor)
				e.StaticPedestrians = append(e.StaticPedestrians, l)
			default:
				return nil, fmt.Errorf("row %d col %d: unknown cell %q", r, c, ch)
			}
		}
	}
	return e, nil
}

// Write renders the environment back into the layout format, without
// pedestrian markers.
func Write(w io.Writer, e *Environment) error {
	buf := make([]byte, e.Cols()+1)
	for r := 0; r < e.Rows(); r++ {
		for c := 0; c < e.Cols(); c++ {
			switch e.Layout.At(grid.Location{Row: r, Col: c}) {
			case CellObstacle:
				buf[c] = markObstacle
			case CellExit:
				buf[c] = markExit
			default:
				buf[c] = markFloor
			}
		}
		buf[e.Cols()] = '\n'
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}
