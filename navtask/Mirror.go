package navtask

import (
	"fmt"
	"strings"

	"github.com/samuelfneumann/navlearn/environment/robothor"
	"gorgonia.org/tensor"
)

// mirrorAction swaps left and right rotations
func mirrorAction(name string) string {
	switch name {
	case robothor.RotateLeft:
		return robothor.RotateRight
	case robothor.RotateRight:
		return robothor.RotateLeft
	default:
		return name
	}
}

// isImage returns whether an observation is an image which should be
// flipped in mirrored episodes
func isImage(uuid string, o *tensor.Dense) bool {
	if !strings.Contains(uuid, "rgb") && !strings.Contains(uuid, "depth") {
		return false
	}
	return o.Dims() == 2 || o.Dims() == 3
}

// flipHorizontal returns a copy of a height x width or
// height x width x channels tensor with its columns reversed
func flipHorizontal(t *tensor.Dense) *tensor.Dense {
	shape := t.Shape().Clone()
	if len(shape) != 2 && len(shape) != 3 {
		panic(fmt.Sprintf("flipHorizontal: cannot flip tensor of shape %v",
			shape))
	}
	h, w, c := shape[0], shape[1], 1
	if len(shape) == 3 {
		c = shape[2]
	}

	var backing interface{}
	switch data := t.Data().(type) {
	case []uint8:
		backing = flipColumns(data, h, w, c)
	case []float32:
		backing = flipColumns(data, h, w, c)
	case []float64:
		backing = flipColumns(data, h, w, c)
	case []int:
		backing = flipColumns(data, h, w, c)
	default:
		panic(fmt.Sprintf("flipHorizontal: unsupported dtype %v", t.Dtype()))
	}

	return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(backing))
}

func flipColumns[T any](data []T, h, w, c int) []T {
	out := make([]T, len(data))
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			src := (i*w + (w - 1 - j)) * c
			dst := (i*w + j) * c
			copy(out[dst:dst+c], data[src:src+c])
		}
	}
	return out
}
