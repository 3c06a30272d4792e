package main

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/navlearn/distcache"
	"github.com/samuelfneumann/navlearn/environment/envconfig"
	"github.com/samuelfneumann/navlearn/environment/robothor"
	"github.com/samuelfneumann/navlearn/environment/robothor/gridsim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	c := envconfig.Default()
	c.Environment.RotateStepDegrees = 90
	c.Environment.Width, c.Environment.Height = 4, 3
	c.Task.TargetTypes = []string{"Apple"}
	c.Sampler.Scenes = []string{"Room", "Hall"}

	for _, name := range []string{"cache.zst", "cache.db"} {
		t.Run(name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), name)
			require.NoError(t, build(context.Background(), c, out, true,
				io.Discard, log.New(io.Discard, "", 0)))

			cache, err := distcache.Load(context.Background(), out, "Room")
			require.NoError(t, err)

			start := robothor.Pose{X: 0.25, Y: gridsim.DefaultFloorY, Z: 0.25}
			d, ok := cache.DistanceToObject("Room", start, "Apple")
			require.True(t, ok)
			assert.Greater(t, d, 0.0)

			goal := robothor.Vector3{X: 1.25, Y: gridsim.DefaultFloorY, Z: 0.25}
			d, ok = cache.Distance("Room", start, goal)
			require.True(t, ok)
			assert.InDelta(t, 1.0, d, 1e-9)

			_, ok = cache.DistanceToObject("Hall", start, "Apple")
			assert.False(t, ok, "scene not loaded")
		})
	}
}

func TestBuildCancelled(t *testing.T) {
	c := envconfig.Default()
	c.Task.TargetTypes = []string{"Apple"}
	c.Sampler.Scenes = []string{"Room"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := build(ctx, c, filepath.Join(t.TempDir(), "cache.zst"), false,
		io.Discard, log.New(io.Discard, "", 0))
	assert.ErrorIs(t, err, context.Canceled)
}
