package grid

// Neighborhood selects which cells count as neighbors of a cell.
type Neighborhood uint8

const (
	// Moore is 8-connectivity: orthogonal plus diagonal neighbors.
	Moore Neighborhood = iota
	// VonNeumann is 4-connectivity: orthogonal neighbors only.
	VonNeumann
)

// Step is a single neighbor offset together with its traversal cost.
// Diagonal steps cost 1.5, the classic floor-field discretization of
// the longer diagonal distance.
type Step struct {
	DRow, DCol int
	Cost       float64
}

var mooreSteps = []Step{
	{-1, -1, 1.5}, {-1, 0, 1.0}, {-1, 1, 1.5},
	{0, -1, 1.0}, {0, 1, 1.0},
	{1, -1, 1.5}, {1, 0, 1.0}, {1, 1, 1.5},
}

var vonNeumannSteps = []Step{
	{-1, 0, 1.0},
	{0, -1, 1.0}, {0, 1, 1.0},
	{1, 0, 1.0},
}

// Steps returns the neighbor offsets for the neighborhood in a fixed
// canonical order (top-left to bottom-right). The order matters:
// deterministic iteration keeps runs reproducible under a fixed seed.
func (n Neighborhood) Steps() []Step {
	if n == VonNeumann {
		return vonNeumannSteps
	}
	return mooreSteps
}

// String returns the neighborhood name.
func (n Neighborhood) String() string {
	if n == VonNeumann {
		return "von-neumann"
	}
	return "moore"
}
