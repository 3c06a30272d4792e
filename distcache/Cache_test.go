package distcache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/samuelfneumann/navlearn/environment/robothor"
	"github.com/samuelfneumann/navlearn/environment/robothor/gridsim"
	"github.com/samuelfneumann/navlearn/navtask"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ navtask.DistanceCache = &Cache{}

func pose(x, z float64) robothor.Pose {
	return robothor.Pose{X: x, Z: z}
}

func TestLookup(t *testing.T) {
	c := New(0.25)
	c.Add("Room", robothor.Vector3{X: 0.25, Z: 0.25}, "Apple", 1.5)
	c.Add("Room", robothor.Vector3{X: 1.0, Z: 0.25}, "Apple", 0.75)
	c.Add("Room", robothor.Vector3{X: 1.0, Z: 0.25}, "Vase", -1)
	assert.Equal(t, 3, c.Len())

	t.Run("exact cell", func(t *testing.T) {
		d, ok := c.DistanceToObject("Room", pose(0.27, 0.2), "Apple")
		assert.True(t, ok)
		assert.Equal(t, 1.5, d)

		d, ok = c.DistanceToObject("Room", pose(1.0, 0.25), "Vase")
		assert.True(t, ok)
		assert.Equal(t, -1.0, d)
	})

	t.Run("nearest cell", func(t *testing.T) {
		d, ok := c.DistanceToObject("Room", pose(0.75, 0.5), "Apple")
		assert.True(t, ok)
		assert.Equal(t, 0.75, d)

		// Only one cell holds the Vase
		d, ok = c.DistanceToObject("Room", pose(0.25, 0.25), "Vase")
		assert.True(t, ok)
		assert.Equal(t, -1.0, d)
	})

	t.Run("missing", func(t *testing.T) {
		_, ok := c.DistanceToObject("Hall", pose(0.25, 0.25), "Apple")
		assert.False(t, ok)

		_, err := c.Lookup("Room", pose(0.25, 0.25), "Sofa")
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("replace", func(t *testing.T) {
		c.Add("Room", robothor.Vector3{X: 0.25, Z: 0.25}, "Apple", 1.25)
		assert.Equal(t, 3, c.Len())
		d, _ := c.DistanceToObject("Room", pose(0.25, 0.25), "Apple")
		assert.Equal(t, 1.25, d)
	})
}

func TestPointDistance(t *testing.T) {
	c := New(0.25)
	target := robothor.Vector3{X: 1.25, Y: 0.9, Z: 0.25}
	c.Add("Room", robothor.Vector3{X: 0.5, Z: 0.25},
		robothor.PointTarget(target).Key(), 0.75)

	d, ok := c.Distance("Room", pose(0.5, 0.25), target)
	assert.True(t, ok)
	assert.Equal(t, 0.75, d)

	_, ok = c.Distance("Room", pose(0.5, 0.25), robothor.Vector3{X: 1})
	assert.False(t, ok)
}

func buildRoom(t *testing.T) (*Cache, *robothor.Environment) {
	t.Helper()

	config := robothor.DefaultConfig()
	config.RotateStepDegrees = 90
	config.Width, config.Height = 4, 3
	sim, err := gridsim.New(config, gridsim.DemoScenes()...)
	require.NoError(t, err)
	env := robothor.New(sim, config, 0, nil)

	c := New(config.GridSize)
	calls := 0
	skipped, err := Build(env, "Room", []robothor.Target{
		robothor.ObjectTarget("Apple"),
		robothor.ObjectTarget("Vase"),
		robothor.PointTarget(robothor.Vector3{X: 0.25, Y: 0.9, Z: 0.75}),
	}, c, func(done, total int) {
		calls++
		assert.Equal(t, calls, done)
	})
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	assert.Equal(t, 14, calls)
	assert.Equal(t, 14*3, c.Len())
	return c, env
}

func TestBuild(t *testing.T) {
	c, env := buildRoom(t)

	start := env.AgentState()
	assert.Equal(t, 0.25, start.X)
	assert.Equal(t, 0.25, start.Z)

	d, ok := c.DistanceToObject("Room", start, "Apple")
	assert.True(t, ok)
	assert.InDelta(t, 1.5, d, 1e-9)

	d, ok = c.DistanceToObject("Room", start, "Vase")
	assert.True(t, ok)
	assert.Equal(t, -1.0, d)

	// The Vase's own cell is walled off but reaches itself
	d, ok = c.DistanceToObject("Room", pose(1.75, 0.5), "Vase")
	assert.True(t, ok)
	assert.Equal(t, 0.0, d)

	d, ok = c.Distance("Room", pose(1.25, 0.75),
		robothor.Vector3{X: 0.25, Y: 0.9, Z: 0.75})
	assert.True(t, ok)
	assert.InDelta(t, 1.0, d, 1e-9)

	_, err := Build(env, "Room", nil, New(0.5), nil)
	assert.Error(t, err)
}

func TestStores(t *testing.T) {
	c, _ := buildRoom(t)
	dir := t.TempDir()
	ctx := context.Background()

	for _, name := range []string{"cache.db", "cache.jsonl.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, Save(ctx, path, c))

			loaded, err := Load(ctx, path)
			require.NoError(t, err)
			assert.Equal(t, c.GridSize(), loaded.GridSize())
			if diff := cmp.Diff(c.Entries(), loaded.Entries()); diff != "" {
				t.Errorf("loaded cache mismatch (-want +got):\n%v", diff)
			}

			none, err := Load(ctx, path, "Hall")
			require.NoError(t, err)
			assert.Equal(t, 0, none.Len())
		})
	}

	_, err := Load(ctx, filepath.Join(dir, "cache.txt"))
	assert.Error(t, err)
}

func TestSQLiteRejectsGridSizeMismatch(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "sub", "cache.db"))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Load(ctx)
	assert.Error(t, err)

	c := New(0.25)
	c.Add("Room", robothor.Vector3{X: 0.25}, "Apple", 1)
	require.NoError(t, s.Save(ctx, c))
	assert.Error(t, s.Save(ctx, New(0.5)))
}
