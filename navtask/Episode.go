package navtask

import (
	"fmt"
	"log"

	"github.com/samuelfneumann/navlearn/environment"
	"github.com/samuelfneumann/navlearn/environment/robothor"
	"github.com/samuelfneumann/navlearn/sensor"
	"github.com/samuelfneumann/navlearn/timestep"
	"gorgonia.org/tensor"
)

// goal is the part of a task that differs between goal kinds
type goal interface {
	// distance returns the geodesic distance from the agent to the
	// goal, or -1.0 if it is unreachable or unknown
	distance() (float64, error)

	// inRange judges whether the agent reached the goal when taking
	// the END action
	inRange() (Outcome, error)
}

// episode holds the state machine shared by all tasks
type episode struct {
	env     *robothor.Environment
	sensors *sensor.Suite
	cache   DistanceCache
	rewards RewardConfig
	limit   environment.StepLimit
	logger  *log.Logger
	info    *Info
	actions []string
	goal    goal
	mirror  bool

	steps             int
	tookEndAction     bool
	success           Outcome
	lastActionSuccess bool
	stepRewards       []float64

	// path holds the distinct consecutive positions of the agent,
	// starting with its initial position
	path                  []robothor.Vector3
	numMovesMade          int
	episodeOptimalCorners []robothor.Vector3
	lastGeodesicDistance  float64
	optimalDistance       float64
	visited               map[robothor.QuantizedPose]struct{}
}

func newEpisode(env *robothor.Environment, config Config, info *Info,
	actions []string, mirror bool) (*episode, error) {
	if config.MaxSteps <= 0 {
		return nil, fmt.Errorf("newEpisode: max steps must be positive, "+
			"got %v", config.MaxSteps)
	}
	if err := config.Rewards.Validate(); err != nil {
		return nil, fmt.Errorf("newEpisode: %w", err)
	}

	logger := config.Logger
	if logger == nil {
		logger = log.Default()
	}

	start := env.AgentState()
	info.ActionNames = append([]string(nil), actions...)
	info.FollowedPath = []robothor.Pose{start}
	info.TakenActions = []string{}

	e := &episode{
		env:               env,
		sensors:           config.Sensors,
		cache:             config.DistanceCache,
		rewards:           config.Rewards,
		limit:             environment.NewStepLimit(config.MaxSteps),
		logger:            logger,
		info:              info,
		actions:           actions,
		mirror:            mirror,
		lastActionSuccess: true,
		path:              []robothor.Vector3{start.Position()},
		visited:           make(map[robothor.QuantizedPose]struct{}),
	}
	if config.Rewards.ShapingWeight != 0 &&
		config.Rewards.ExplorationShapingWeight != 0 {
		e.visit()
	}
	return e, nil
}

// Start returns the first TimeStep of the episode
func (e *episode) Start() (timestep.TimeStep, error) {
	obs, err := e.observations()
	if err != nil {
		return timestep.TimeStep{}, fmt.Errorf("start: %w", err)
	}
	return timestep.New(timestep.First, 0.0, obs, 0,
		timestep.Info{LastActionSuccess: true}), nil
}

// Step takes the action with the argument index. Step panics if the
// index is not a legal action.
func (e *episode) Step(action int) (timestep.TimeStep, error) {
	if e.IsDone() {
		return timestep.TimeStep{}, ErrEpisodeDone
	}
	if action < 0 || action >= len(e.actions) {
		panic(fmt.Sprintf("step: illegal action %v, want in [0, %v)", action,
			len(e.actions)))
	}

	name := e.actions[action]
	if e.mirror {
		name = mirrorAction(name)
	}
	e.info.TakenActions = append(e.info.TakenActions, name)

	if name == robothor.End {
		e.tookEndAction = true
		success, err := e.goal.inRange()
		if err != nil {
			return timestep.TimeStep{}, fmt.Errorf("step: %w", err)
		}
		e.success = success
		e.lastActionSuccess = success == Succeeded
	} else {
		if _, err := e.env.Step(robothor.Action{Name: name}); err != nil {
			return timestep.TimeStep{}, fmt.Errorf("step: %w", err)
		}
		e.lastActionSuccess = e.env.LastActionSuccess()

		pose := e.env.AgentState()
		e.info.FollowedPath = append(e.info.FollowedPath, pose)
		if p := pose.Position(); p != e.path[len(e.path)-1] {
			e.path = append(e.path, p)
			e.numMovesMade++
		}
	}
	e.steps++

	obs, err := e.observations()
	if err != nil {
		return timestep.TimeStep{}, fmt.Errorf("step: %w", err)
	}
	reward, err := e.judge()
	if err != nil {
		return timestep.TimeStep{}, fmt.Errorf("step: %w", err)
	}

	step := timestep.New(timestep.Mid, reward, obs, e.steps, timestep.Info{
		LastActionSuccess: e.lastActionSuccess,
		Action:            action,
	})
	if e.tookEndAction {
		step.StepType = timestep.Last
		step.SetEnd(timestep.TerminalStateReached)
	}
	e.limit.End(&step)

	return step, nil
}

// observations returns the observations of the sensor suite, flipped
// if the episode is mirrored
func (e *episode) observations() (timestep.Observations, error) {
	if e.sensors == nil {
		return timestep.Observations{}, nil
	}

	obs, err := e.sensors.Observations(e.env, e.info.Goal())
	if err != nil {
		return nil, err
	}
	if e.mirror {
		for uuid, o := range obs {
			if isImage(uuid, o) {
				obs[uuid] = flipHorizontal(o)
			}
		}
	}
	return obs, nil
}

// ReachedTerminalState returns whether the END action was taken
func (e *episode) ReachedTerminalState() bool {
	return e.tookEndAction
}

// IsDone returns whether the episode is over
func (e *episode) IsDone() bool {
	return e.ReachedTerminalState() || e.limit.Reached(e.steps)
}

// NumStepsTaken returns the number of steps taken in the episode
func (e *episode) NumStepsTaken() int {
	return e.steps
}

// Success returns the outcome of the episode so far
func (e *episode) Success() Outcome {
	return e.success
}

// NumMovesMade returns the number of steps which changed the agent's
// position
func (e *episode) NumMovesMade() int {
	return e.numMovesMade
}

// Path returns the distinct consecutive positions visited by the agent
func (e *episode) Path() []robothor.Vector3 {
	return e.path
}

// OptimalPath returns the corners of the shortest path from the start
// of the episode to the goal. It is empty if the path is unknown.
func (e *episode) OptimalPath() []robothor.Vector3 {
	return e.episodeOptimalCorners
}

// OptimalDistance returns the geodesic distance to the goal at the
// start of the episode, or -1.0 if it is unreachable
func (e *episode) OptimalDistance() float64 {
	return e.optimalDistance
}

// Render returns a copy of the current "rgb" or "depth" frame. Render
// panics on any other mode.
func (e *episode) Render(mode string) *tensor.Dense {
	var frame *tensor.Dense
	switch mode {
	case "rgb":
		frame = e.env.CurrentFrame()
	case "depth":
		frame = e.env.CurrentDepth()
	default:
		panic(fmt.Sprintf("render: only rgb and depth rendering is "+
			"implemented, got %q", mode))
	}

	if e.mirror {
		return flipHorizontal(frame)
	}
	return frame.Clone().(*tensor.Dense)
}

// ActionSpec returns the discrete action specification of the task
func (e *episode) ActionSpec() environment.Spec {
	return environment.NewDiscreteActionSpec(len(e.actions))
}

// ActionNames returns the simulator action of each action index
func (e *episode) ActionNames() []string {
	return append([]string(nil), e.actions...)
}

// Info returns the task info, including the trajectory so far
func (e *episode) Info() *Info {
	return e.info
}

// Close stops the simulator
func (e *episode) Close() {
	e.env.Stop()
}

// warnNoPath logs a missing path to the goal
func (e *episode) warnNoPath() {
	e.logger.Printf("warning: no path for %v from %v to %v",
		e.env.SceneName(), e.env.AgentState(), e.info.Goal())
}
