package qlearning

import (
	"fmt"
	"strings"

	"github.com/samuelfneumann/navlearn/timestep"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// table holds the action values of each visited state. A state is
// identified by the values of a fixed list of observations.
type table struct {
	values       map[string]*mat.VecDense
	actions      int
	observations []string
}

func newTable(actions int, observations []string) *table {
	return &table{
		values:       make(map[string]*mat.VecDense),
		actions:      actions,
		observations: observations,
	}
}

// key returns the state identity of the argument observations
func (t *table) key(obs timestep.Observations) (string, error) {
	var b strings.Builder
	for i, uuid := range t.observations {
		o, ok := obs[uuid]
		if !ok {
			return "", fmt.Errorf("key: missing observation %v", uuid)
		}
		if i > 0 {
			b.WriteByte('|')
		}
		fmt.Fprint(&b, o.Data())
	}
	return b.String(), nil
}

// row returns the action values of a state, which are zero for states
// never seen before
func (t *table) row(key string) *mat.VecDense {
	v, ok := t.values[key]
	if !ok {
		v = mat.NewVecDense(t.actions, nil)
		t.values[key] = v
	}
	return v
}

// greedy returns the action of largest value in a state, breaking ties
// by the lowest index
func (t *table) greedy(key string) int {
	return floats.MaxIdx(t.row(key).RawVector().Data)
}

func (t *table) max(key string) float64 {
	return mat.Max(t.row(key))
}
