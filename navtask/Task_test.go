package navtask

import (
	"bytes"
	"log"
	"math"
	"testing"

	"github.com/samuelfneumann/navlearn/environment/robothor"
	"github.com/samuelfneumann/navlearn/environment/robothor/gridsim"
	"github.com/samuelfneumann/navlearn/sensor"
	"github.com/stretchr/testify/require"
)

// Point Nav action indices
const (
	moveAhead = iota
	rotateLeft
	rotateRight
	end
)

// fakeCache answers distance queries with Manhattan distances on the
// xz plane and counts queries
type fakeCache struct {
	objects map[string]robothor.Vector3
	queries int
}

func (f *fakeCache) Distance(_ string, pose robothor.Pose,
	target robothor.Vector3) (float64, bool) {
	f.queries++
	return math.Abs(pose.X-target.X) + math.Abs(pose.Z-target.Z), true
}

func (f *fakeCache) DistanceToObject(scene string, pose robothor.Pose,
	objectType string) (float64, bool) {
	target, ok := f.objects[objectType]
	if !ok {
		f.queries++
		return 0, false
	}
	return f.Distance(scene, pose, target)
}

// sequenceCache answers distance queries from a fixed sequence of
// distances. Negative distances are cache misses.
type sequenceCache struct {
	distances []float64
	queries   int
}

func (s *sequenceCache) Distance(string, robothor.Pose,
	robothor.Vector3) (float64, bool) {
	d := s.distances[s.queries]
	s.queries++
	return d, d >= 0
}

func (s *sequenceCache) DistanceToObject(scene string, pose robothor.Pose,
	_ string) (float64, bool) {
	return s.Distance(scene, pose, robothor.Vector3{})
}

type room struct {
	env *robothor.Environment
	sim *gridsim.Simulator
	log *bytes.Buffer
}

// newRoom returns the "Room" demo scene, in which the agent starts at
// (0.25, 0.25) facing +x
func newRoom(t *testing.T) room {
	t.Helper()

	config := robothor.DefaultConfig()
	config.RotateStepDegrees = 90
	config.Width, config.Height = 5, 4

	sim, err := gridsim.New(config, gridsim.DemoScenes()...)
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	env := robothor.New(sim, config, 0, log.New(buf, "", 0))
	require.NoError(t, env.Reset("Room"))
	return room{env, sim, buf}
}

func (r room) config(t *testing.T, rewards RewardConfig) Config {
	t.Helper()

	suite, err := sensor.NewSuite(sensor.NewRGB(), sensor.NewDepth())
	require.NoError(t, err)
	return Config{
		MaxSteps: 500,
		Rewards:  rewards,
		Sensors:  suite,
		Logger:   log.New(r.log, "", 0),
	}
}

// teleport moves the agent to a free cell centre
func (r room) teleport(t *testing.T, x, z, rotation float64) {
	t.Helper()

	pose := robothor.Pose{X: x, Y: gridsim.DefaultFloorY, Z: z,
		Rotation: robothor.Vector3{Y: rotation}}
	_, err := r.env.Step(robothor.Action{Name: robothor.TeleportFull,
		Pose: &pose})
	require.NoError(t, err)
	require.True(t, r.env.LastActionSuccess())
}

// run takes each action in turn, returning the rewards
func run(t *testing.T, task Task, actions ...int) []float64 {
	t.Helper()

	rewards := make([]float64, len(actions))
	for i, a := range actions {
		step, err := task.Step(a)
		require.NoError(t, err)
		rewards[i] = step.Reward
	}
	return rewards
}

func point(x, z float64) *robothor.Vector3 {
	return &robothor.Vector3{X: x, Y: gridsim.DefaultFloorY, Z: z}
}
