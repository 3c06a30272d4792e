package navtask

import (
	"testing"

	"github.com/samuelfneumann/navlearn/environment/robothor"
	"github.com/stretchr/testify/assert"
	"gorgonia.org/tensor"
)

func TestMirrorAction(t *testing.T) {
	assert.Equal(t, robothor.RotateRight, mirrorAction(robothor.RotateLeft))
	assert.Equal(t, robothor.RotateLeft, mirrorAction(robothor.RotateRight))
	for _, a := range []string{robothor.MoveAhead, robothor.End,
		robothor.LookUp, robothor.LookDown} {
		assert.Equal(t, a, mirrorAction(a))
	}
}

func TestFlipHorizontal(t *testing.T) {
	t.Run("2d", func(t *testing.T) {
		in := tensor.New(tensor.WithShape(2, 3),
			tensor.WithBacking([]float32{1, 2, 3, 4, 5, 6}))
		out := flipHorizontal(in)
		assert.Equal(t, []float32{3, 2, 1, 6, 5, 4}, out.Data())
		assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, in.Data())
	})

	t.Run("3d", func(t *testing.T) {
		in := tensor.New(tensor.WithShape(1, 3, 2),
			tensor.WithBacking([]uint8{1, 2, 3, 4, 5, 6}))
		out := flipHorizontal(in)
		assert.Equal(t, []int{1, 3, 2}, []int(out.Shape()))
		assert.Equal(t, []uint8{5, 6, 3, 4, 1, 2}, out.Data())
	})

	t.Run("involution", func(t *testing.T) {
		in := tensor.New(tensor.WithShape(2, 2, 2),
			tensor.WithBacking([]float64{1, 2, 3, 4, 5, 6, 7, 8}))
		assert.Equal(t, in.Data(), flipHorizontal(flipHorizontal(in)).Data())
	})

	t.Run("1d panics", func(t *testing.T) {
		in := tensor.New(tensor.WithShape(3),
			tensor.WithBacking([]float64{1, 2, 3}))
		assert.Panics(t, func() { flipHorizontal(in) })
	})
}

func TestIsImage(t *testing.T) {
	frame := tensor.New(tensor.WithShape(2, 2), tensor.WithBacking(
		[]float32{1, 2, 3, 4}))
	vector := tensor.New(tensor.WithShape(4), tensor.WithBacking(
		[]float32{1, 2, 3, 4}))

	assert.True(t, isImage("rgb_lowres", frame))
	assert.True(t, isImage("depth", frame))
	assert.False(t, isImage("depth", vector))
	assert.False(t, isImage("goal_object_type_ind", frame))
}
