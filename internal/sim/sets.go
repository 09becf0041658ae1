package sim

import (
	"github.com/evacsim/evacsim/internal/env"
	"github.com/evacsim/evacsim/internal/field"
	"github.com/evacsim/evacsim/internal/grid"
)

// ExitGroup is one physical exit: an ordered contiguous run of cells.
// The first cell is registered and the rest expand it.
type ExitGroup []grid.Location

// SetSpec describes one simulation set: the exits active for its runs.
type SetSpec []ExitGroup

// StaticSet derives a single SetSpec from the exit cells marked in the
// environment layout, merging orthogonally contiguous cells into one
// multi-cell exit (a wide door is one exit, not several).
func StaticSet(e *env.Environment) SetSpec {
	cells := e.ExitCells()
	taken := make(map[grid.Location]bool, len(cells))
	var spec SetSpec

	for _, start := range cells {
		if taken[start] {
			continue
		}
		// Grow the group by repeated adjacency sweeps; groups are tiny.
		group := ExitGroup{start}
		taken[start] = true
		for grew := true; grew; {
			grew = false
			for _, c := range cells {
				if taken[c] {
					continue
				}
				for _, g := range group {
					if g.Adjacent(c) {
						group = append(group, c)
						taken[c] = true
						grew = true
						break
					}
				}
			}
		}
		spec = append(spec, group)
	}
	return spec
}

// PairSets enumerates one simulation set per pair of exit groups,
// including each group paired with itself. Sweeping all pairs maps how
// door placement interacts: n groups yield n*(n+1)/2 sets.
func PairSets(groups []ExitGroup) []SetSpec {
	var sets []SetSpec
	for i := range groups {
		for j := i; j < len(groups); j++ {
			if i == j {
				sets = append(sets, SetSpec{groups[i]})
			} else {
				sets = append(sets, SetSpec{groups[i], groups[j]})
			}
		}
	}
	return sets
}

// register builds an ExitSet from the set's exit groups. Geometry errors
// propagate;
// the caller supplied coordinates it promised were valid.
func (spec SetSpec) register(e *env.Environment, conn grid.Neighborhood) (*field.ExitSet, error) {
	set := field.NewExitSet(e, conn)
	for _, group := range spec {
		x, err := set.Add(group[0])
		if err != nil {
			set.Release()
			return nil, err
		}
		for _, cell := range group[1:] {
			if err := set.Expand(x, cell); err != nil {
				set.Release()
				return nil, err
			}
		}
	}
	return set, nil
}
