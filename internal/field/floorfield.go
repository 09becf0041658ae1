package field

import (
	"container/heap"
	"math"

	"github.com/evacsim/evacsim/internal/env"
	"github.com/evacsim/evacsim/internal/grid"
)

// Unreachable marks cells no exit can be reached from.
const Unreachable = math.MaxFloat64

// BuildField computes an exit's floor field: for every walkable cell the
// shortest obstacle-avoiding path cost to the exit's nearest boundary
// cell. Boundary cells hold 0; orthogonal steps cost 1.0 and diagonal
// steps cost 1.5 under Moore connectivity. Cells cut off from the exit
// hold Unreachable.
//
// Multi-source Dijkstra over the grid graph. With only two step costs a
// plain binary heap is more than fast enough for the grid sizes the
// simulator handles.
func BuildField(x *Exit, e *env.Environment, conn grid.Neighborhood) *grid.Grid[float64] {
	f := x.field
	if f == nil || !f.SameDims(e.Rows(), e.Cols()) {
		f = grid.New[float64](e.Rows(), e.Cols())
	}
	f.Fill(Unreachable)

	pq := &cellQueue{}
	heap.Init(pq)
	for _, l := range x.cells {
		f.Set(l, 0)
		heap.Push(pq, cellCost{loc: l, cost: 0})
	}

	steps := conn.Steps()
	for pq.Len() > 0 {
		cur := heap.Pop(pq).(cellCost)
		if cur.cost > f.At(cur.loc) {
			continue // stale entry
		}
		for _, st := range steps {
			n := grid.Location{Row: cur.loc.Row + st.DRow, Col: cur.loc.Col + st.DCol}
			if !e.Walkable(n) {
				continue
			}
			next := cur.cost + st.Cost
			if next < f.At(n) {
				f.Set(n, next)
				heap.Push(pq, cellCost{loc: n, cost: next})
			}
		}
	}

	x.field = f
	x.dirty = false
	return f
}

type cellCost struct {
	loc  grid.Location
	cost float64
}

type cellQueue []cellCost

func (q cellQueue) Len() int            { return len(q) }
func (q cellQueue) Less(i, j int) bool  { return q[i].cost < q[j].cost }
func (q cellQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *cellQueue) Push(v any)         { *q = append(*q, v.(cellCost)) }
func (q *cellQueue) Pop() any {
	old := *q
	n := len(old)
	v := old[n-1]
	*q = old[:n-1]
	return v
}
