// Package timestep implements timesteps of the agent-environment interaction
package timestep

import (
	"fmt"

	"gorgonia.org/tensor"
)

// StepType denotes the type of step that a TimeStep can be, either  first
// environmental step, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// EndType describes why an episode ended
type EndType int

const (
	// NotEnded denotes a TimeStep which is not the last in an episode
	NotEnded EndType = iota

	// TerminalStateReached denotes an episode which ended because the
	// agent took the END action
	TerminalStateReached

	// Timeout denotes an episode which ended because the step budget
	// was exhausted
	Timeout
)

func (e EndType) String() string {
	switch e {
	case TerminalStateReached:
		return "TerminalStateReached"
	case Timeout:
		return "Timeout"
	default:
		return "NotEnded"
	}
}

// Observations maps sensor uuids to the array each sensor produced
type Observations map[string]*tensor.Dense

// Info holds the auxiliary step information returned to the sampler
type Info struct {
	LastActionSuccess bool
	Action            int
}

// TimeStep packages together a single timestep in an environment
type TimeStep struct {
	StepType
	Reward      float64
	Observation Observations
	Number      int
	Info        Info

	endType EndType
}

// New returns a new TimeStep
func New(t StepType, r float64, o Observations, n int, info Info) TimeStep {
	return TimeStep{StepType: t, Reward: r, Observation: o, Number: n,
		Info: info}
}

// First returns whether a TimeStep is the first in an environment
func (t *TimeStep) First() bool {
	return t.StepType == First
}

// Mid returns whether a TimeStep is a middle step in an environment
func (t *TimeStep) Mid() bool {
	return t.StepType == Mid
}

// Last returns whether a TimeStep is the last step in an environment
func (t *TimeStep) Last() bool {
	return t.StepType == Last
}

// SetEnd records why the episode ended. Only the first call has an
// effect so that the earliest ending condition wins.
func (t *TimeStep) SetEnd(e EndType) {
	if t.endType == NotEnded {
		t.endType = e
	}
}

// EndType returns why the episode ended, or NotEnded
func (t *TimeStep) EndType() EndType {
	return t.endType
}

func (t TimeStep) String() string {
	str := "TimeStep | Type: %v  |  Reward:  %.2f  |  Step Number:  %v  |  " +
		"Action: %v  |  Success: %v"

	return fmt.Sprintf(str, t.StepType, t.Reward, t.Number, t.Info.Action,
		t.Info.LastActionSuccess)
}
