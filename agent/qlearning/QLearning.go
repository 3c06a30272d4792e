// Package qlearning implements tabular Q-learning with an ε-greedy
// behaviour policy. States are identified by the values of a fixed
// list of observations, such as the "grid_pose" and
// "goal_object_type_ind" sensors.
package qlearning

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/samuelfneumann/navlearn/agent"
	"github.com/samuelfneumann/navlearn/timestep"
	"gonum.org/v1/gonum/mat"
)

// QLearning implements the Q-learning algorithm. The EGreedy policy and
// the QLearner share the same table of action values.
type QLearning struct {
	*EGreedy
	*QLearner
}

var _ agent.Agent = &QLearning{}

// New returns a new QLearning agent over numActions actions
func New(numActions int, observations []string, epsilon, learningRate,
	discount float64, seed uint64) *QLearning {
	values := newTable(numActions, observations)
	return &QLearning{
		EGreedy:  newEGreedy(values, epsilon, seed),
		QLearner: newQLearner(values, learningRate, discount),
	}
}

// ActionValues returns the action values of the state described by the
// argument observations
func (q *QLearning) ActionValues(obs timestep.Observations) ([]float64,
	error) {
	key, err := q.QLearner.values.key(obs)
	if err != nil {
		return nil, fmt.Errorf("actionValues: %w", err)
	}
	values := q.QLearner.values.row(key).RawVector().Data
	return append([]float64(nil), values...), nil
}

// NumStates returns the number of states with action values
func (q *QLearning) NumStates() int {
	return len(q.QLearner.values.values)
}

// savedTable is the on-disk form of the action values
type savedTable struct {
	Actions      int
	Observations []string
	Values       map[string][]float64
}

// Save gob encodes the action values to filename. Save implements the
// checkpointer.Serializable interface.
func (q *QLearning) Save(filename string) error {
	values := q.QLearner.values
	saved := savedTable{
		Actions:      values.actions,
		Observations: values.observations,
		Values:       make(map[string][]float64, len(values.values)),
	}
	for key, v := range values.values {
		saved.Values[key] = v.RawVector().Data
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("save: could not open save file: %w", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(saved); err != nil {
		return fmt.Errorf("save: could not encode action values: %w", err)
	}
	return file.Close()
}

// Load replaces the action values with those saved to filename by Save
func (q *QLearning) Load(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("load: could not open file: %w", err)
	}
	defer file.Close()

	var saved savedTable
	if err := gob.NewDecoder(file).Decode(&saved); err != nil {
		return fmt.Errorf("load: could not decode action values: %w", err)
	}

	values := q.QLearner.values
	if saved.Actions != values.actions {
		return fmt.Errorf("load: saved values have %v actions, want %v",
			saved.Actions, values.actions)
	}
	if fmt.Sprint(saved.Observations) != fmt.Sprint(values.observations) {
		return fmt.Errorf("load: saved values use observations %v, want %v",
			saved.Observations, values.observations)
	}

	values.values = make(map[string]*mat.VecDense, len(saved.Values))
	for key, v := range saved.Values {
		values.values[key] = mat.NewVecDense(values.actions, v)
	}
	return nil
}
