package robothor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r1"
)

func squareGrid() *grid {
	var points []Vector3
	for i := 1; i <= 4; i++ {
		for j := 2; j <= 5; j++ {
			points = append(points, Vector3{X: float64(i) * 0.25,
				Z: float64(j) * 0.25})
		}
	}
	return newGrid(points, 0.25)
}

func TestNewGrid(t *testing.T) {
	g := squareGrid()
	assert.Equal(t, r1.Interval{Min: 1, Max: 4}, g.x)
	assert.Equal(t, r1.Interval{Min: 2, Max: 5}, g.z)

	nx, nz := g.dims()
	assert.Equal(t, 4, nx)
	assert.Equal(t, 4, nz)

	d := g.distances("Apple")
	r, c := d.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 4, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			assert.Equal(t, unknownDistance, d.At(i, j))
		}
	}

	d.Set(1, 2, 0.75)
	assert.Equal(t, 0.75, g.distances("Apple").At(1, 2))

	assert.Panics(t, func() { newGrid(nil, 0.25) })
	assert.Panics(t, func() {
		newGrid([]Vector3{{X: 0.25}, {X: 0.26}}, 0.25)
	})
}

func TestQuantize(t *testing.T) {
	g := squareGrid()

	tests := map[string]struct {
		pose       Pose
		xzSub      int
		rotSub     int
		wantX      int
		wantZ      int
		wantBucket int
	}{
		"origin": {
			pose:  Pose{X: 0.25, Z: 0.5},
			xzSub: 1, rotSub: 1,
		},
		"jitter": {
			pose:  Pose{X: 0.25 + 0.1, Z: 0.5 - 0.1, Rotation: Vector3{Y: 14}},
			xzSub: 1, rotSub: 1,
		},
		"clamped": {
			pose:  Pose{X: -3, Z: 10, Rotation: Vector3{Y: 30}},
			xzSub: 1, rotSub: 1,
			wantX: 0, wantZ: 3, wantBucket: 1,
		},
		"subsampled": {
			pose:  Pose{X: 1.0, Z: 1.25, Rotation: Vector3{Y: 180}},
			xzSub: 2, rotSub: 3,
			wantX: 1, wantZ: 1, wantBucket: 2,
		},
		"wraps": {
			pose:  Pose{X: 0.5, Z: 0.75, Rotation: Vector3{Y: 350}},
			xzSub: 1, rotSub: 1,
			wantX: 1, wantZ: 1, wantBucket: 0,
		},
		"negative rotation": {
			pose:  Pose{X: 0.5, Z: 0.75, Rotation: Vector3{Y: -30}},
			xzSub: 1, rotSub: 1,
			wantX: 1, wantZ: 1, wantBucket: 11,
		},
		"bucket boundary": {
			pose:  Pose{X: 0.5, Z: 0.75, Rotation: Vector3{Y: 45}},
			xzSub: 1, rotSub: 1,
			wantX: 1, wantZ: 1, wantBucket: 2,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			q := g.quantize(test.pose, 0.25, 30, test.xzSub, test.rotSub)
			assert.Equal(t, QuantizedPose{test.wantX, test.wantZ,
				test.wantBucket}, q)
		})
	}
}

func TestQuantizeRotationBucketsAreDistinct(t *testing.T) {
	g := squareGrid()

	seen := make(map[int]float64)
	for rot := 0.0; rot < 360; rot += 30 {
		q := g.quantize(Pose{X: 0.5, Z: 0.75, Rotation: Vector3{Y: rot}},
			0.25, 30, 1, 1)
		if other, ok := seen[q.Rotation]; ok {
			t.Errorf("rotations %v and %v share bucket %v", other, rot,
				q.Rotation)
		}
		seen[q.Rotation] = rot
	}
	assert.Len(t, seen, 12)
}
