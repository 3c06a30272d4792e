package random

import (
	"encoding/json"
	"testing"

	"github.com/samuelfneumann/navlearn/agent"
	"github.com/samuelfneumann/navlearn/environment"
	"github.com/samuelfneumann/navlearn/timestep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSelectAction(t *testing.T) {
	a, err := Config{}.CreateAgent(environment.NewDiscreteActionSpec(4), 1)
	require.NoError(t, err)

	counts := make([]int, 4)
	for i := 0; i < 4000; i++ {
		action := a.SelectAction(timestep.TimeStep{})
		require.GreaterOrEqual(t, action, 0)
		require.Less(t, action, 4)
		counts[action]++
	}
	for _, c := range counts {
		assert.InDelta(t, 1000, c, 150)
	}
}

func TestWeights(t *testing.T) {
	a, err := New([]float64{0, 0, 1}, 1)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		assert.Equal(t, 2, a.SelectAction(timestep.TimeStep{}))
	}

	assert.False(t, a.IsEval())
	a.Eval()
	assert.True(t, a.IsEval())
	a.Train()
	assert.False(t, a.IsEval())

	_, err = New(nil, 1)
	assert.Error(t, err)
	_, err = New([]float64{0, 0}, 1)
	assert.Error(t, err)
	_, err = New([]float64{1, -1}, 1)
	assert.Error(t, err)

	_, err = Config{Weights: []float64{1, 1}}.CreateAgent(
		environment.NewDiscreteActionSpec(4), 1)
	assert.Error(t, err)
}

func TestSeeded(t *testing.T) {
	sample := func() []int {
		a, err := New([]float64{1, 1, 1}, 42)
		require.NoError(t, err)
		actions := make([]int, 20)
		for i := range actions {
			actions[i] = a.SelectAction(timestep.TimeStep{})
		}
		return actions
	}
	assert.Equal(t, sample(), sample())
}

func TestTypedConfig(t *testing.T) {
	want := agent.NewTypedConfig(Config{Weights: []float64{1, 2}})

	t.Run("yaml", func(t *testing.T) {
		data, err := yaml.Marshal(want)
		require.NoError(t, err)

		var got agent.TypedConfig
		require.NoError(t, yaml.Unmarshal(data, &got))
		assert.Equal(t, want, got)
	})

	t.Run("json", func(t *testing.T) {
		data, err := json.Marshal(want)
		require.NoError(t, err)

		var got agent.TypedConfig
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, want, got)
	})

	t.Run("unregistered", func(t *testing.T) {
		var got agent.TypedConfig
		assert.Error(t, yaml.Unmarshal([]byte("type: Nope\n"), &got))
	})
}
