package robothor

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/navlearn/utils/floatutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// Grid cache cell values
const (
	unknownDistance     float64 = -2.0
	unreachableDistance float64 = -1.0
)

// QuantizedPose is an agent pose discretized to the scene grid. X and Z
// index the cell relative to the scene's bounding box; Rotation is the
// rotation bucket around the y axis.
type QuantizedPose struct {
	X, Z, Rotation int
}

// grid is the lazily populated distance table of one scene. Bounds
// are expressed in whole grid cells.
type grid struct {
	x, z    r1.Interval
	targets map[string]*mat.Dense
}

// newGrid computes the bounding box of the reachable points quantized
// with gridSize.
func newGrid(reachable []Vector3, gridSize float64) *grid {
	if len(reachable) == 0 {
		panic("newGrid: scene has no reachable points")
	}

	points := make(map[[2]int]Vector3, len(reachable))
	x := r1.Interval{Min: math.Inf(1), Max: math.Inf(-1)}
	z := r1.Interval{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, p := range reachable {
		cx := math.RoundToEven(p.X / gridSize)
		cz := math.RoundToEven(p.Z / gridSize)
		points[[2]int{int(cx), int(cz)}] = p

		x.Min, x.Max = math.Min(x.Min, cx), math.Max(x.Max, cx)
		z.Min, z.Max = math.Min(z.Min, cz), math.Max(z.Max, cz)
	}

	if len(points) != len(reachable) {
		panic(fmt.Sprintf("newGrid: %v reachable points collapse into %v "+
			"cells with grid size %v", len(reachable), len(points), gridSize))
	}

	return &grid{x: x, z: z, targets: make(map[string]*mat.Dense)}
}

// dims returns the number of cells along x and z
func (g *grid) dims() (nx, nz int) {
	return int(g.x.Max-g.x.Min) + 1, int(g.z.Max-g.z.Min) + 1
}

// distances returns the distance table of a target, creating it filled
// with unknownDistance on first access
func (g *grid) distances(key string) *mat.Dense {
	if d, ok := g.targets[key]; ok {
		return d
	}

	nx, nz := g.dims()
	backing := make([]float64, nx*nz)
	for i := range backing {
		backing[i] = unknownDistance
	}
	d := mat.NewDense(nx, nz, backing)
	g.targets[key] = d
	return d
}

// quantize discretizes a pose. Positions are clamped to the bounding
// box; rotations are bucketed in steps of rotationStep degrees, with
// bucket boundaries halfway between multiples of the step.
func (g *grid) quantize(p Pose, gridSize, rotationStep float64,
	xzSubsampling, rotSubsampling int) QuantizedPose {
	x := floatutils.ClipInterval(math.RoundToEven(p.X/gridSize), g.x)
	z := floatutils.ClipInterval(math.RoundToEven(p.Z/gridSize), g.z)

	rs := rotationStep * float64(rotSubsampling)
	shifted := math.Mod(p.Rotation.Y+rs/2, 360.0)
	if shifted < 0 {
		shifted += 360.0
	}
	r := int(math.Floor(shifted / rs))

	return QuantizedPose{
		X:        int(x-g.x.Min) / xzSubsampling,
		Z:        int(z-g.z.Min) / xzSubsampling,
		Rotation: r,
	}
}
