package gridsim

import (
	"errors"
	"testing"

	"github.com/samuelfneumann/navlearn/environment/robothor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDemoSimulator(t *testing.T) *Simulator {
	t.Helper()

	config := robothor.DefaultConfig()
	config.RotateStepDegrees = 90
	config.Width, config.Height = 8, 6
	sim, err := New(config, DemoScenes()...)
	require.NoError(t, err)
	return sim
}

func TestReset(t *testing.T) {
	sim := newDemoSimulator(t)

	t.Run("loads known scene", func(t *testing.T) {
		event, err := sim.Reset("Room")
		require.NoError(t, err)
		assert.True(t, event.Metadata.LastActionSuccess)
		assert.Equal(t, "Room", event.Metadata.SceneName)
		assert.InDelta(t, 0.25, event.Metadata.Agent.Position.X, 1e-9)
		assert.InDelta(t, 0.25, event.Metadata.Agent.Position.Z, 1e-9)
		assert.Equal(t, 90.0, event.Metadata.Agent.Rotation.Y)
		assert.Equal(t, []int{6, 8, 3}, []int(event.Frame.Shape()))
		assert.Equal(t, []int{6, 8}, []int(event.DepthFrame.Shape()))
	})

	t.Run("unknown scene fails", func(t *testing.T) {
		event, err := sim.Reset("Nowhere")
		require.NoError(t, err)
		assert.False(t, event.Metadata.LastActionSuccess)
		assert.Equal(t, "Room", event.Metadata.SceneName)
	})
}

func TestStep(t *testing.T) {
	sim := newDemoSimulator(t)
	_, err := sim.Reset("Room")
	require.NoError(t, err)

	event, err := sim.Step(robothor.Action{Name: robothor.MoveAhead})
	require.NoError(t, err)
	assert.True(t, event.Metadata.LastActionSuccess)
	assert.InDelta(t, 0.5, event.Metadata.Agent.Position.X, 1e-9)

	// Facing +z, the cell below is a wall
	_, err = sim.Step(robothor.Action{Name: robothor.RotateLeft})
	require.NoError(t, err)
	event, err = sim.Step(robothor.Action{Name: robothor.MoveAhead})
	require.NoError(t, err)
	assert.False(t, event.Metadata.LastActionSuccess)
	assert.Equal(t, 0.0, event.Metadata.Agent.Rotation.Y)

	event, err = sim.Step(robothor.Action{Name: robothor.LookUp})
	require.NoError(t, err)
	assert.True(t, event.Metadata.LastActionSuccess)
	event, err = sim.Step(robothor.Action{Name: robothor.LookUp})
	require.NoError(t, err)
	assert.False(t, event.Metadata.LastActionSuccess)
	assert.Equal(t, MinHorizon, event.Metadata.Agent.CameraHorizon)

	event, err = sim.Step(robothor.Action{Name: "Jump"})
	require.NoError(t, err)
	assert.False(t, event.Metadata.LastActionSuccess)
}

func TestShortestPath(t *testing.T) {
	sim := newDemoSimulator(t)
	_, err := sim.Reset("Room")
	require.NoError(t, err)
	start := sim.LastEvent().Metadata.Agent.Position

	t.Run("reachable object", func(t *testing.T) {
		corners, err := sim.ShortestPath(robothor.ObjectTarget("Apple"), start,
			nil)
		require.NoError(t, err)
		assert.Len(t, corners, 7)
		assert.InDelta(t, 1.5, robothor.PathCornersToDist(corners), 1e-9)
	})

	t.Run("walled off object", func(t *testing.T) {
		_, err := sim.ShortestPath(robothor.ObjectTarget("Vase"), start, nil)
		assert.True(t, errors.Is(err, robothor.ErrNoPath))
	})

	t.Run("missing object type", func(t *testing.T) {
		_, err := sim.ShortestPath(robothor.ObjectTarget("Sofa"), start, nil)
		assert.True(t, errors.Is(err, robothor.ErrNoPath))
	})

	t.Run("point", func(t *testing.T) {
		corners, err := sim.ShortestPath(robothor.PointTarget(
			robothor.Vector3{X: 0.25, Z: 0.75}), start, nil)
		require.NoError(t, err)
		assert.InDelta(t, 0.5, robothor.PathCornersToDist(corners), 1e-9)
	})

	assert.Equal(t, 4, sim.PathQueries())
}

func TestTeleport(t *testing.T) {
	sim := newDemoSimulator(t)
	_, err := sim.Reset("Room")
	require.NoError(t, err)

	offGrid := robothor.Pose{X: 0.3, Z: 0.25}
	event, err := sim.Step(robothor.Action{Name: robothor.TeleportFull,
		Pose: &offGrid})
	require.NoError(t, err)
	assert.False(t, event.Metadata.LastActionSuccess)

	event, err = sim.Step(robothor.Action{Name: robothor.TeleportFull,
		Pose: &offGrid, ForceAction: true})
	require.NoError(t, err)
	assert.True(t, event.Metadata.LastActionSuccess)
	assert.Equal(t, 0.3, event.Metadata.Agent.Position.X)

	sim.FailNextTeleports(1)
	target := robothor.Pose{X: 0.5, Z: 0.25}
	event, err = sim.Step(robothor.Action{Name: robothor.TeleportFull,
		Pose: &target})
	require.NoError(t, err)
	assert.False(t, event.Metadata.LastActionSuccess)
	event, err = sim.Step(robothor.Action{Name: robothor.TeleportFull,
		Pose: &target})
	require.NoError(t, err)
	assert.True(t, event.Metadata.LastActionSuccess)
}

func TestVisibility(t *testing.T) {
	sim := newDemoSimulator(t)
	_, err := sim.Reset("Hall")
	require.NoError(t, err)

	// The Mug is one cell to the -x side of the teleport target
	target := robothor.Pose{X: 0.5, Z: 0.5, Rotation: robothor.Vector3{Y: 270}}
	event, err := sim.Step(robothor.Action{Name: robothor.TeleportFull,
		Pose: &target})
	require.NoError(t, err)
	require.True(t, event.Metadata.LastActionSuccess)

	visible := map[string]bool{}
	for _, o := range event.Metadata.Objects {
		visible[o.ObjectType] = o.Visible
	}
	assert.True(t, visible["Mug"])
	assert.False(t, visible["Apple"])
}

func TestStop(t *testing.T) {
	sim := newDemoSimulator(t)
	require.NoError(t, sim.Stop())

	_, err := sim.Reset("Room")
	assert.ErrorIs(t, err, ErrStopped)
	_, err = sim.ShortestPath(robothor.ObjectTarget("Apple"),
		robothor.Vector3{X: 0.25, Z: 0.25}, nil)
	assert.ErrorIs(t, err, ErrStopped)

	assert.NoError(t, sim.Stop())
}

func TestNewRejectsBadScenes(t *testing.T) {
	config := robothor.DefaultConfig()

	_, err := New(config, Scene{Name: "Empty"})
	assert.Error(t, err)

	_, err = New(config, Scene{Name: "NoStart", Layout: []string{"..."}})
	assert.Error(t, err)

	_, err = New(config, Scene{
		Name:    "Blocked",
		Layout:  []string{"S#"},
		Objects: []ObjectSpec{{Type: "Apple", Row: 0, Col: 1}},
	})
	assert.Error(t, err)
}
