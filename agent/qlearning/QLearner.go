package qlearning

import (
	"fmt"

	"github.com/samuelfneumann/navlearn/timestep"
)

// QLearner implements the update functionality for the Q-Learning
// algorithm.
type QLearner struct {
	values       *table
	learningRate float64
	discount     float64

	state         string
	action        int
	nextStep      timestep.TimeStep
	nextState     string
	hasTransition bool
}

func newQLearner(values *table, learningRate, discount float64) *QLearner {
	return &QLearner{
		values:       values,
		learningRate: learningRate,
		discount:     discount,
	}
}

// ObserveFirst observes and records the first episodic timestep
func (q *QLearner) ObserveFirst(t timestep.TimeStep) error {
	if !t.First() {
		return fmt.Errorf("observeFirst: timestep %v is not the first in "+
			"the episode", t.Number)
	}

	key, err := q.values.key(t.Observation)
	if err != nil {
		return fmt.Errorf("observeFirst: %w", err)
	}
	q.nextStep = t
	q.nextState = key
	q.hasTransition = false
	return nil
}

// Observe observes and records any timestep other than the first timestep
func (q *QLearner) Observe(action int, nextStep timestep.TimeStep) error {
	if action < 0 || action >= q.values.actions {
		return fmt.Errorf("observe: illegal action %v", action)
	}

	key, err := q.values.key(nextStep.Observation)
	if err != nil {
		return fmt.Errorf("observe: %w", err)
	}
	q.state = q.nextState
	q.action = action
	q.nextStep = nextStep
	q.nextState = key
	q.hasTransition = true
	return nil
}

// Step updates the action value of the last observed transition.
// Episodes ending in the terminal state are not bootstrapped, but
// episodes cut off by the step budget are.
func (q *QLearner) Step() error {
	if !q.hasTransition {
		return nil
	}
	q.hasTransition = false

	// Create the update target
	target := q.nextStep.Reward
	if q.nextStep.EndType() != timestep.TerminalStateReached {
		target += q.discount * q.values.max(q.nextState)
	}

	// Move the current estimate of the taken action towards the target
	row := q.values.row(q.state)
	currentEstimate := row.AtVec(q.action)
	row.SetVec(q.action, currentEstimate+
		q.learningRate*(target-currentEstimate))
	return nil
}

// EndEpisode performs cleanup at the end of an episode
func (q *QLearner) EndEpisode() {
	q.hasTransition = false
}
