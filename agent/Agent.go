// Package agent defines an agent interface
package agent

import (
	"github.com/samuelfneumann/navlearn/timestep"
)

// Agent determines the implementation details of an agent or algorithm
//
// An Agent is composed of a Learner, which learns from experience, and
// a Policy which chooses actions in each state. The Policy chooses
// which actions are taken, and the Learner uses these actions to update
// the Policy.
type Agent interface {
	Learner
	Policy
}

// Learner implements a learning algorithm that defines how an agent's
// estimates are updated.
type Learner interface {
	// Step performs a single update to the learner
	Step() error

	// Observe records that an action lead to some timestep
	Observe(action int, nextObs timestep.TimeStep) error

	// ObserveFirst records the first timestep in an episode
	ObserveFirst(timestep.TimeStep) error

	// EndEpisode performs cleanup at the end of an episode
	EndEpisode()
}

// Policy represents a policy that an agent can have.
//
// Policies determine how agents select actions. For a given agent, the
// Policy and Learner should share their estimates so that any changes
// the learner makes are reflected in the actions the Policy chooses.
// Actions are indices into the action names of the current task.
type Policy interface {
	SelectAction(t timestep.TimeStep) int
	Eval()        // Set policy to evaluation mode
	Train()       // Set policy to training mode
	IsEval() bool // Indicates if in evaluation mode
}
