package qlearning

import (
	"fmt"

	"github.com/samuelfneumann/navlearn/timestep"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// EGreedy implements an ε-greedy policy over a table of action values
type EGreedy struct {
	values  *table
	epsilon float64
	seed    rand.Source // Seed for random number generation
	eval    bool
}

// newEGreedy constructs a new EGreedy policy, where e=epsilon is the
// probability with which a random action is selected
func newEGreedy(values *table, e float64, seed uint64) *EGreedy {
	return &EGreedy{values: values, epsilon: e, seed: rand.NewSource(seed)}
}

// SelectAction selects an action from an ε-greedy policy. In evaluation
// mode, the greedy action is always selected. SelectAction panics if
// the timestep lacks an observation the policy depends on.
func (e *EGreedy) SelectAction(t timestep.TimeStep) int {
	key, err := e.values.key(t.Observation)
	if err != nil {
		panic(fmt.Sprintf("selectAction: %v", err))
	}

	// Get the greedy action
	greedyAction := e.values.greedy(key)
	if e.eval || e.epsilon == 0 {
		return greedyAction
	}

	// Calculate the ε probability of choosing any action at random
	numActions := e.values.actions
	prob := e.epsilon / float64(numActions)
	actionProbabilities := make([]float64, numActions)
	for i := range actionProbabilities {
		actionProbabilities[i] = prob
	}

	// Adjust the probability of choosing the greedy action
	actionProbabilities[greedyAction] += 1.0 - e.epsilon

	dist := distuv.NewCategorical(actionProbabilities, e.seed)
	return int(dist.Rand())
}

// Epsilon returns the probability of selecting a random action
func (e *EGreedy) Epsilon() float64 { return e.epsilon }

// SetEpsilon sets the probability of selecting a random action
func (e *EGreedy) SetEpsilon(epsilon float64) { e.epsilon = epsilon }

// Eval sets the policy to evaluation mode
func (e *EGreedy) Eval() { e.eval = true }

// Train sets the policy to training mode
func (e *EGreedy) Train() { e.eval = false }

// IsEval indicates if the policy is in evaluation mode
func (e *EGreedy) IsEval() bool { return e.eval }
