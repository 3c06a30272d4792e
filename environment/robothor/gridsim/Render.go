package gridsim

import (
	"math"

	"gorgonia.org/tensor"
)

// renderRGB renders a height x width x 3 uint8 frame. Pixel values are
// a hash of the agent's cell, heading, horizon, and the pixel
// coordinates, so that different poses give different frames and no
// frame is symmetric under a horizontal flip.
func (s *Simulator) renderRGB() *tensor.Dense {
	h, w := s.config.Height, s.config.Width
	at := s.cellAt(s.pose.X, s.pose.Z)
	seed := at.row*53 + at.col*37 + int(math.Round(s.pose.Rotation.Y))*71 +
		int(math.Round(s.pose.Horizon))*3

	data := make([]uint8, h*w*3)
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			for c := 0; c < 3; c++ {
				v := (seed + i*5 + j*11 + c*97) % 256
				if v < 0 {
					v += 256
				}
				data[(i*w+j)*3+c] = uint8(v)
			}
		}
	}

	return tensor.New(tensor.WithShape(h, w, 3), tensor.WithBacking(data))
}

// renderDepth renders a height x width float32 depth frame holding the
// free distance ahead of the agent, with a small per-column ramp.
func (s *Simulator) renderDepth() *tensor.Dense {
	h, w := s.config.Height, s.config.Width
	ahead := float32(s.freeAhead()) * float32(s.config.GridSize)

	data := make([]float32, h*w)
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			data[i*w+j] = ahead + float32(j)*1e-3
		}
	}

	return tensor.New(tensor.WithShape(h, w), tensor.WithBacking(data))
}

// freeAhead counts the free cells in front of the agent
func (s *Simulator) freeAhead() int {
	dx, dz := heading(s.pose.Rotation.Y)
	if dx == 0 && dz == 0 {
		return 0
	}

	at := s.cellAt(s.pose.X, s.pose.Z)
	n := 0
	for {
		at = cell{at.row + dz, at.col + dx}
		if !s.scene.free(at) {
			return n
		}
		n++
	}
}
