package tracker

import (
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/navlearn/navtask"
	ts "github.com/samuelfneumann/navlearn/timestep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// episode returns the timesteps of an episode with the argument
// rewards, starting with a First step of reward 0
func episode(rewards ...float64) []ts.TimeStep {
	steps := []ts.TimeStep{ts.New(ts.First, 0, nil, 0, ts.Info{})}
	for i, r := range rewards {
		kind := ts.Mid
		if i == len(rewards)-1 {
			kind = ts.Last
		}
		steps = append(steps, ts.New(kind, r, nil, i+1, ts.Info{}))
	}
	return steps
}

func TestReturnAndLength(t *testing.T) {
	dir := t.TempDir()
	ret := NewReturn(filepath.Join(dir, "return.bin"))
	length := NewEpisodeLength(filepath.Join(dir, "length.bin"))

	for _, ep := range [][]ts.TimeStep{
		episode(-0.01, -0.01, 10),
		episode(-0.01),
		episode(-0.01, 1)[:2],
	} {
		for _, step := range ep {
			ret.Track(step)
			length.Track(step)
		}
	}
	assert.InDeltaSlice(t, []float64{9.98, -0.01}, ret.Returns(), 1e-9)
	assert.Equal(t, []int{3, 1}, length.Lengths())

	require.NoError(t, ret.Save())
	require.NoError(t, length.Save())

	returns, err := LoadData[float64](filepath.Join(dir, "return.bin"))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{9.98, -0.01}, returns, 1e-9)

	lengths, err := LoadData[int](filepath.Join(dir, "length.bin"))
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1}, lengths)

	_, err = LoadData[int](filepath.Join(dir, "missing.bin"))
	assert.Error(t, err)
}

func TestReturnPanicsOnSkippedSteps(t *testing.T) {
	r := NewReturn("")
	steps := episode(1, 2, 3)

	r.Track(steps[0])
	assert.Panics(t, func() { r.Track(steps[2]) })
}

func TestMetric(t *testing.T) {
	dir := t.TempDir()
	success := NewSuccess(filepath.Join(dir, "success.bin"))
	spl := NewSPL(filepath.Join(dir, "spl.bin"))
	dist := NewDistanceToTarget(filepath.Join(dir, "dist.bin"))
	assert.Equal(t, 0.0, spl.Mean())

	all := []MetricsTracker{success, spl, dist}
	for _, m := range []*navtask.Metrics{
		{Success: true, SPL: 0.5, DistToTarget: 0.1},
		nil,
		{Success: false, SPL: 0, DistToTarget: 2.5},
	} {
		for _, tracker := range all {
			tracker.Track(ts.TimeStep{})
			tracker.TrackMetrics(m)
		}
	}

	assert.Equal(t, []float64{1, 0}, success.Values())
	assert.Equal(t, 0.25, spl.Mean())
	assert.Equal(t, []float64{0.1, 2.5}, dist.Values())

	require.NoError(t, spl.Save())
	saved, err := LoadData[float64](filepath.Join(dir, "spl.bin"))
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0}, saved)

	assert.Error(t, NewSPL(filepath.Join(dir, "missing", "spl.bin")).Save())
}
