// Package random implements an agent which selects actions from a
// fixed categorical distribution and never learns
package random

import (
	"fmt"

	"github.com/samuelfneumann/navlearn/agent"
	"github.com/samuelfneumann/navlearn/timestep"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Random is an agent which selects actions at random
type Random struct {
	dist distuv.Categorical
	eval bool
}

// New returns a new Random agent. Action i is selected with
// probability proportional to weights[i].
func New(weights []float64, seed uint64) (*Random, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("new: no actions to select from")
	}
	total := 0.0
	for i, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf("new: action %v has negative weight %v",
				i, w)
		}
		total += w
	}
	if total == 0 {
		return nil, fmt.Errorf("new: action weights sum to zero")
	}

	return &Random{
		dist: distuv.NewCategorical(weights, rand.NewSource(seed)),
	}, nil
}

// SelectAction implements the agent.Policy interface
func (r *Random) SelectAction(timestep.TimeStep) int {
	return int(r.dist.Rand())
}

// Eval implements the agent.Policy interface
func (r *Random) Eval() { r.eval = true }

// Train implements the agent.Policy interface
func (r *Random) Train() { r.eval = false }

// IsEval implements the agent.Policy interface
func (r *Random) IsEval() bool { return r.eval }

// Step implements the agent.Learner interface
func (r *Random) Step() error { return nil }

// Observe implements the agent.Learner interface
func (r *Random) Observe(int, timestep.TimeStep) error { return nil }

// ObserveFirst implements the agent.Learner interface
func (r *Random) ObserveFirst(timestep.TimeStep) error { return nil }

// EndEpisode implements the agent.Learner interface
func (r *Random) EndEpisode() {}

var _ agent.Agent = &Random{}
