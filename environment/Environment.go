// Package environment outlines the interfaces and structs shared by the
// concrete navigation environments and tasks
package environment

import (
	"github.com/samuelfneumann/navlearn/timestep"
)

// Ender determines when an episode should end. If the episode should
// end, End() modifies the argument TimeStep so that its StepType is
// timestep.Last and returns true.
type Ender interface {
	End(*timestep.TimeStep) bool
}

// Starter implements a distribution over discrete starting choices,
// returning the index of the sampled choice in each dimension
type Starter interface {
	Start() []int
}
