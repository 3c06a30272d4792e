package sensor

import (
	"fmt"

	"github.com/samuelfneumann/navlearn/environment/robothor"
	"gorgonia.org/tensor"
)

// RGB observes the height x width x 3 uint8 egocentric frame
type RGB struct {
	uuid string
}

// NewRGB returns a new RGB sensor with uuid "rgb"
func NewRGB() RGB {
	return RGB{"rgb"}
}

// UUID implements the Sensor interface
func (r RGB) UUID() string {
	return r.uuid
}

// Observe implements the Sensor interface
func (r RGB) Observe(env *robothor.Environment,
	_ robothor.Target) (*tensor.Dense, error) {
	return cloneFrame(env.CurrentFrame(), "rgb")
}

// Depth observes the height x width float32 egocentric depth frame
type Depth struct {
	uuid string
}

// NewDepth returns a new Depth sensor with uuid "depth"
func NewDepth() Depth {
	return Depth{"depth"}
}

// UUID implements the Sensor interface
func (d Depth) UUID() string {
	return d.uuid
}

// Observe implements the Sensor interface
func (d Depth) Observe(env *robothor.Environment,
	_ robothor.Target) (*tensor.Dense, error) {
	return cloneFrame(env.CurrentDepth(), "depth")
}

func cloneFrame(frame *tensor.Dense, kind string) (*tensor.Dense, error) {
	if frame == nil {
		return nil, fmt.Errorf("observe: simulator returned no %v frame",
			kind)
	}
	return frame.Clone().(*tensor.Dense), nil
}
