package sensor

import (
	"fmt"

	"github.com/samuelfneumann/navlearn/environment/robothor"
	"gorgonia.org/tensor"
)

// GridPose observes the agent's quantized pose as the index triple
// (x, z, rotation bucket)
type GridPose struct {
	xzSubsampling  int
	rotSubsampling int
}

// NewGridPose returns a new GridPose sensor which subsamples the grid
// by the argument factors
func NewGridPose(xzSubsampling, rotSubsampling int) (GridPose, error) {
	if xzSubsampling < 1 || rotSubsampling < 1 {
		return GridPose{}, fmt.Errorf("newGridPose: subsampling must be "+
			"positive, got (%v, %v)", xzSubsampling, rotSubsampling)
	}
	return GridPose{xzSubsampling, rotSubsampling}, nil
}

// UUID implements the Sensor interface
func (GridPose) UUID() string {
	return "grid_pose"
}

// Observe implements the Sensor interface
func (g GridPose) Observe(env *robothor.Environment,
	_ robothor.Target) (*tensor.Dense, error) {
	q := env.QuantizedAgentState(g.xzSubsampling, g.rotSubsampling)
	return tensor.New(tensor.WithShape(3),
		tensor.WithBacking([]int{q.X, q.Z, q.Rotation})), nil
}
