package grid

import "testing"

func TestLocationIndex(t *testing.T) {
	tests := []struct {
		loc  Location
		cols int
		want int
	}{
		{Location{0, 0}, 5, 0},
		{Location{0, 4}, 5, 4},
		{Location{1, 0}, 5, 5},
		{Location{3, 2}, 7, 23},
	}
	for _, tt := range tests {
		if got := tt.loc.Index(tt.cols); got != tt.want {
			t.Errorf("%v.Index(%d) = %d, want %d", tt.loc, tt.cols, got, tt.want)
		}
	}
}

func TestLocationAdjacent(t *testing.T) {
	tests := []struct {
		a, b Location
		want bool
	}{
		{Location{2, 2}, Location{2, 3}, true},
		{Location{2, 2}, Location{1, 2}, true},
		{Location{2, 2}, Location{3, 3}, false}, // diagonal is not orthogonal
		{Location{2, 2}, Location{2, 2}, false},
		{Location{2, 2}, Location{2, 4}, false},
	}
	for _, tt := range tests {
		if got := tt.a.Adjacent(tt.b); got != tt.want {
			t.Errorf("%v.Adjacent(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestGridBasics(t *testing.T) {
	g := New[float64](3, 4)
	if g.Rows() != 3 || g.Cols() != 4 {
		t.Fatalf("dimensions = %dx%d, want 3x4", g.Rows(), g.Cols())
	}

	l := Location{Row: 1, Col: 2}
	g.Set(l, 7.5)
	if got := g.At(l); got != 7.5 {
		t.Errorf("At(%v) = %v, want 7.5", l, got)
	}

	g.Fill(1.0)
	for i, v := range g.Cells() {
		if v != 1.0 {
			t.Fatalf("cell %d = %v after Fill(1.0)", i, v)
		}
	}

	c := g.Clone()
	c.Set(l, 9.0)
	if g.At(l) == 9.0 {
		t.Error("Clone shares storage with original")
	}

	if g.InBounds(Location{Row: 3, Col: 0}) {
		t.Error("InBounds accepted row past the edge")
	}
	if !g.InBounds(Location{Row: 2, Col: 3}) {
		t.Error("InBounds rejected the last cell")
	}
}

func TestNeighborhoodSteps(t *testing.T) {
	if got := len(Moore.Steps()); got != 8 {
		t.Errorf("Moore has %d steps, want 8", got)
	}
	if got := len(VonNeumann.Steps()); got != 4 {
		t.Errorf("VonNeumann has %d steps, want 4", got)
	}

	for _, st := range Moore.Steps() {
		diagonal := st.DRow != 0 && st.DCol != 0
		switch {
		case diagonal && st.Cost != 1.5:
			t.Errorf("diagonal step %+v has cost %v, want 1.5", st, st.Cost)
		case !diagonal && st.Cost != 1.0:
			t.Errorf("orthogonal step %+v has cost %v, want 1.0", st, st.Cost)
		}
	}

	// Canonical order must be stable: it sequences random draws.
	first := VonNeumann.Steps()[0]
	if first.DRow != -1 || first.DCol != 0 {
		t.Errorf("first VonNeumann step = %+v, want up", first)
	}
}
