package qlearning

import (
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/navlearn/environment"
	"github.com/samuelfneumann/navlearn/timestep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

func obs(x, z int) timestep.Observations {
	return timestep.Observations{
		"grid_pose": tensor.New(tensor.WithShape(2),
			tensor.WithBacking([]int{x, z})),
	}
}

func step(t timestep.StepType, r float64, o timestep.Observations,
	n int, end timestep.EndType) timestep.TimeStep {
	s := timestep.New(t, r, o, n, timestep.Info{LastActionSuccess: true})
	s.SetEnd(end)
	return s
}

func TestUpdate(t *testing.T) {
	q := New(2, []string{"grid_pose"}, 0.0, 0.5, 0.9, 1)
	s0, s1, s2 := obs(0, 0), obs(0, 1), obs(0, 2)

	// First episode: s0 -1-> s1 -0-> s2 (terminal)
	require.NoError(t, q.ObserveFirst(step(timestep.First, 0, s0, 0,
		timestep.NotEnded)))
	require.NoError(t, q.Observe(1, step(timestep.Mid, 1, s1, 1,
		timestep.NotEnded)))
	require.NoError(t, q.Step())
	require.NoError(t, q.Observe(0, step(timestep.Last, 10, s2, 2,
		timestep.TerminalStateReached)))
	require.NoError(t, q.Step())
	q.EndEpisode()

	values, err := q.ActionValues(s0)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0.5}, values, 1e-12)
	values, err = q.ActionValues(s1)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{5, 0}, values, 1e-12)

	// Second episode bootstraps from the value of s1
	require.NoError(t, q.ObserveFirst(step(timestep.First, 0, s0, 0,
		timestep.NotEnded)))
	require.NoError(t, q.Observe(1, step(timestep.Mid, 1, s1, 1,
		timestep.NotEnded)))
	require.NoError(t, q.Step())

	values, err = q.ActionValues(s0)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, values[1], 1e-12)

	// Stepping again without a new transition does nothing
	require.NoError(t, q.Step())
	values, err = q.ActionValues(s0)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, values[1], 1e-12)
	assert.Equal(t, 2, q.NumStates())
}

func TestTimeoutIsBootstrapped(t *testing.T) {
	q := New(2, []string{"grid_pose"}, 0.0, 1.0, 0.5, 1)
	s0, s1 := obs(0, 0), obs(1, 0)

	// Seed the value of s1
	require.NoError(t, q.ObserveFirst(step(timestep.First, 0, s1, 0,
		timestep.NotEnded)))
	require.NoError(t, q.Observe(0, step(timestep.Last, 4, s0, 1,
		timestep.TerminalStateReached)))
	require.NoError(t, q.Step())

	require.NoError(t, q.ObserveFirst(step(timestep.First, 0, s0, 0,
		timestep.NotEnded)))
	require.NoError(t, q.Observe(1, step(timestep.Last, 1, s1, 1,
		timestep.Timeout)))
	require.NoError(t, q.Step())

	values, err := q.ActionValues(s0)
	require.NoError(t, err)
	assert.InDelta(t, 1+0.5*4, values[1], 1e-12)
}

func TestSelectAction(t *testing.T) {
	q := New(3, []string{"grid_pose"}, 0.0, 1.0, 0.9, 1)
	s0, s1 := obs(0, 0), obs(0, 1)

	// Ties break towards the lowest action
	assert.Equal(t, 0, q.SelectAction(step(timestep.First, 0, s0, 0,
		timestep.NotEnded)))

	require.NoError(t, q.ObserveFirst(step(timestep.First, 0, s0, 0,
		timestep.NotEnded)))
	require.NoError(t, q.Observe(2, step(timestep.Last, 1, s1, 1,
		timestep.TerminalStateReached)))
	require.NoError(t, q.Step())
	assert.Equal(t, 2, q.SelectAction(step(timestep.First, 0, s0, 0,
		timestep.NotEnded)))

	// A fully random policy still acts greedily in evaluation mode
	q.SetEpsilon(1.0)
	assert.Equal(t, 1.0, q.Epsilon())
	q.Eval()
	for i := 0; i < 10; i++ {
		assert.Equal(t, 2, q.SelectAction(step(timestep.Mid, 0, s0, 1,
			timestep.NotEnded)))
	}

	q.Train()
	seen := make(map[int]bool)
	for i := 0; i < 100; i++ {
		seen[q.SelectAction(step(timestep.Mid, 0, s0, 1,
			timestep.NotEnded))] = true
	}
	assert.Len(t, seen, 3)

	assert.Panics(t, func() {
		q.SelectAction(step(timestep.Mid, 0, timestep.Observations{}, 1,
			timestep.NotEnded))
	})
}

func TestObserveErrors(t *testing.T) {
	q := New(2, []string{"grid_pose"}, 0.1, 0.1, 0.9, 1)

	assert.Error(t, q.ObserveFirst(step(timestep.Mid, 0, obs(0, 0), 3,
		timestep.NotEnded)))
	assert.Error(t, q.ObserveFirst(step(timestep.First, 0,
		timestep.Observations{}, 0, timestep.NotEnded)))
	assert.Error(t, q.Observe(2, step(timestep.Mid, 0, obs(0, 0), 1,
		timestep.NotEnded)))
}

func TestConfig(t *testing.T) {
	valid := Config{Epsilon: 0.1, LearningRate: 0.5, Discount: 0.99,
		Observations: []string{"grid_pose"}}
	a, err := valid.CreateAgent(environment.NewDiscreteActionSpec(6), 0)
	require.NoError(t, err)
	assert.IsType(t, &QLearning{}, a)

	for name, c := range map[string]Config{
		"epsilon":       {Epsilon: 2, LearningRate: 0.5, Discount: 0.9, Observations: []string{"a"}},
		"learning rate": {Epsilon: 0.1, Discount: 0.9, Observations: []string{"a"}},
		"discount":      {Epsilon: 0.1, LearningRate: 0.5, Discount: 1.5, Observations: []string{"a"}},
		"observations":  {Epsilon: 0.1, LearningRate: 0.5, Discount: 0.9},
	} {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, c.Validate())
		})
	}
}

func TestSaveLoad(t *testing.T) {
	q := New(2, []string{"grid_pose"}, 0.0, 1.0, 0.9, 1)
	require.NoError(t, q.ObserveFirst(step(timestep.First, 0, obs(0, 0), 0,
		timestep.NotEnded)))
	require.NoError(t, q.Observe(1, step(timestep.Last, 2, obs(0, 1), 1,
		timestep.TerminalStateReached)))
	require.NoError(t, q.Step())

	filename := filepath.Join(t.TempDir(), "q.gob")
	require.NoError(t, q.Save(filename))

	loaded := New(2, []string{"grid_pose"}, 0.0, 1.0, 0.9, 1)
	require.NoError(t, loaded.Load(filename))
	values, err := loaded.ActionValues(obs(0, 0))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 2}, values)

	assert.Error(t, New(3, []string{"grid_pose"}, 0, 1, 0.9, 1).Load(filename))
	assert.Error(t, New(2, []string{"rgb"}, 0, 1, 0.9, 1).Load(filename))
	assert.Error(t, loaded.Load(filepath.Join(t.TempDir(), "missing.gob")))
}
