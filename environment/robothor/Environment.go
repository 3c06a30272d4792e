// Package robothor wraps a RoboTHOR-style simulator controller,
// providing the pose, reachability, rendering, and geodesic distance
// queries used by navigation tasks.
//
// Geodesic distances are memoized per scene in a grid cache indexed by
// the agent's quantized position and the target. A cell is filled on
// the first query from it and is never recomputed afterwards.
package robothor

import (
	"errors"
	"fmt"
	"log"
	"math"

	env "github.com/samuelfneumann/navlearn/environment"
	"golang.org/x/exp/rand"
	"gorgonia.org/tensor"
)

// randomizeAttempts is the number of teleports tried by
// RandomizeAgentLocation before the teleport is forced
const randomizeAttempts int = 10

// Config holds the simulator settings the environment depends on
type Config struct {
	RotateStepDegrees  float64 `yaml:"rotateStepDegrees" json:"rotateStepDegrees"`
	VisibilityDistance float64 `yaml:"visibilityDistance" json:"visibilityDistance"`
	GridSize           float64 `yaml:"gridSize" json:"gridSize"`
	AgentType          string  `yaml:"agentType" json:"agentType"`
	ContinuousMode     bool    `yaml:"continuousMode" json:"continuousMode"`
	SnapToGrid         bool    `yaml:"snapToGrid" json:"snapToGrid"`
	AgentMode          string  `yaml:"agentMode" json:"agentMode"`
	Width              int     `yaml:"width" json:"width"`
	Height             int     `yaml:"height" json:"height"`
}

// DefaultConfig returns the default RoboTHOR settings
func DefaultConfig() Config {
	return Config{
		RotateStepDegrees:  30.0,
		VisibilityDistance: 1.0,
		GridSize:           0.25,
		AgentType:          "stochastic",
		ContinuousMode:     true,
		SnapToGrid:         false,
		AgentMode:          "bot",
		Width:              640,
		Height:             480,
	}
}

// Environment wraps a simulator Controller. An Environment is used by
// a single goroutine and outlives the many tasks run on it.
type Environment struct {
	controller Controller
	config     Config
	logger     *log.Logger

	knownGoodLocation *Pose
	grids             map[string]*grid

	src rand.Source
}

// New returns a new Environment driving controller c. The agent mode
// is always "bot". If logger is nil, log.Default() is used.
func New(c Controller, config Config, seed uint64,
	logger *log.Logger) *Environment {
	if config.GridSize <= 0 {
		panic(fmt.Sprintf("new: grid size must be positive, got %v",
			config.GridSize))
	}
	if config.RotateStepDegrees <= 0 {
		panic(fmt.Sprintf("new: rotation step must be positive, got %v",
			config.RotateStepDegrees))
	}
	config.AgentMode = "bot"

	if logger == nil {
		logger = log.Default()
	}

	e := &Environment{
		controller: c,
		config:     config,
		logger:     logger,
		grids:      make(map[string]*grid),
		src:        rand.NewSource(seed),
	}

	if e.SceneName() != "" {
		pose := e.AgentState()
		e.knownGoodLocation = &pose
	}
	return e
}

// Config returns the simulator settings of the environment
func (e *Environment) Config() Config {
	return e.config
}

// Controller returns the wrapped simulator controller
func (e *Environment) Controller() Controller {
	return e.controller
}

// Reset resets the environment to a known state. If scene differs from
// the current scene, the simulator loads it and the resulting pose
// becomes the scene's known good location. Otherwise, the agent is
// teleported back to the known good location. Reset panics if the
// simulator reports a failure, since the agent's state is then
// undefined.
func (e *Environment) Reset(scene string) error {
	if scene != "" && scene != e.SceneName() {
		if _, err := e.controller.Reset(scene); err != nil {
			return fmt.Errorf("reset: could not reset to scene %v: %w", scene,
				err)
		}
		if !e.LastActionSuccess() {
			panic(fmt.Sprintf("reset: could not reset to new scene %v", scene))
		}
		pose := e.AgentState()
		e.knownGoodLocation = &pose
	} else {
		if e.knownGoodLocation == nil {
			panic("reset: resetting scene without known good location")
		}
		if err := e.teleport(*e.knownGoodLocation, false); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
		if !e.LastActionSuccess() {
			panic(fmt.Sprintf("reset: could not reset to known good "+
				"location %v in scene %v", *e.knownGoodLocation,
				e.SceneName()))
		}
	}

	return e.InitializeGrid()
}

// InitializeGrid creates the grid cache of the current scene if it does
// not already exist. Reset calls InitializeGrid.
func (e *Environment) InitializeGrid() error {
	if _, ok := e.grids[e.SceneName()]; ok {
		return nil
	}

	points, err := e.CurrentlyReachablePoints()
	if err != nil {
		return fmt.Errorf("initializeGrid: %w", err)
	}
	e.grids[e.SceneName()] = newGrid(points, e.config.GridSize)
	return nil
}

// currentGrid returns the grid of the current scene. Querying a scene
// whose grid was never initialized is a programming error.
func (e *Environment) currentGrid() *grid {
	g, ok := e.grids[e.SceneName()]
	if !ok {
		panic(fmt.Sprintf("grid for scene %v is not initialized",
			e.SceneName()))
	}
	return g
}

// RandomizeAgentLocation teleports the agent to a uniformly random
// reachable location, with the fields of partial overriding the random
// pose. If seed is not nil, the random source is reseeded first.
//
// Teleports can fail near navmesh edges, so up to 10 random poses are
// tried. If all attempts fail, the last teleport is forced, and
// RandomizeAgentLocation panics if the forced teleport also fails.
func (e *Environment) RandomizeAgentLocation(seed *uint64,
	partial *PartialPose) (Pose, error) {
	if seed != nil {
		e.src.Seed(*seed)
	}

	var state Pose
	for k := 0; k == 0 || (!e.LastActionSuccess() && k < randomizeAttempts); k++ {
		if err := e.Reset(""); err != nil {
			return Pose{}, fmt.Errorf("randomizeAgentLocation: %w", err)
		}

		random, err := e.RandomReachableState(nil)
		if err != nil {
			return Pose{}, fmt.Errorf("randomizeAgentLocation: %w", err)
		}
		state = partial.Apply(random)

		if err := e.teleport(state, false); err != nil {
			return Pose{}, fmt.Errorf("randomizeAgentLocation: %w", err)
		}
	}

	if !e.LastActionSuccess() {
		e.logger.Printf("warning: randomize agent location in scene %v and "+
			"current random state %v with partial position %+v failed in "+
			"%v attempts. Forcing the action.", e.SceneName(), state, partial,
			randomizeAttempts)

		if err := e.teleport(state, true); err != nil {
			return Pose{}, fmt.Errorf("randomizeAgentLocation: %w", err)
		}
		if !e.LastActionSuccess() {
			panic(fmt.Sprintf("randomizeAgentLocation: force action failed "+
				"with %v", state))
		}
	}

	return e.AgentState(), nil
}

// RandomReachableState returns a random reachable pose in the current
// scene, with a rotation that is a multiple of the rotation step and a
// level camera. If seed is not nil, the random source is reseeded first.
func (e *Environment) RandomReachableState(seed *uint64) (Pose, error) {
	if seed != nil {
		e.src.Seed(*seed)
	}

	points, err := e.CurrentlyReachablePoints()
	if err != nil {
		return Pose{}, fmt.Errorf("randomReachableState: %w", err)
	}
	if len(points) == 0 {
		return Pose{}, fmt.Errorf("randomReachableState: no reachable "+
			"points in scene %v", e.SceneName())
	}

	rotations := int(math.Ceil(360.0 / e.config.RotateStepDegrees))
	choice := env.NewCategoricalStarter([]int{len(points), rotations},
		e.src).Start()

	xyz := points[choice[0]]
	return Pose{
		X:        xyz.X,
		Y:        xyz.Y,
		Z:        xyz.Z,
		Rotation: Vector3{Y: float64(choice[1]) * e.config.RotateStepDegrees},
		Horizon:  0.0,
	}, nil
}

// AccessGrid returns the geodesic distance from the agent's quantized
// location to the target, or -1.0 if the target is unreachable. The
// distance of each (scene, target, cell) triple is computed with a
// single shortest path query and memoized.
func (e *Environment) AccessGrid(target Target) (float64, error) {
	d := e.currentGrid().distances(target.Key())
	p := e.QuantizedAgentState(1, 1)

	if cached := d.At(p.X, p.Z); cached > -1.5 {
		return cached, nil
	}

	corners, err := e.PathCorners(target)
	if err != nil {
		return 0, fmt.Errorf("accessGrid: %w", err)
	}
	dist := PathCornersToDist(corners)
	if math.IsInf(dist, 1) {
		dist = unreachableDistance
	}
	d.Set(p.X, p.Z, dist)

	return dist, nil
}

// ObjectReachable returns whether a path exists from the agent's
// quantized location to an object of the given type
func (e *Environment) ObjectReachable(objectType string) (bool, error) {
	d, err := e.AccessGrid(ObjectTarget(objectType))
	return d > -0.5, err
}

// DistToObject returns the geodesic distance to the closest object of
// the given type, or -1.0 if no such object is reachable
func (e *Environment) DistToObject(objectType string) (float64, error) {
	return e.AccessGrid(ObjectTarget(objectType))
}

// DistToPoint returns the geodesic distance to a point, or -1.0 if the
// point is unreachable
func (e *Environment) DistToPoint(target Vector3) (float64, error) {
	return e.AccessGrid(PointTarget(target))
}

// PathCorners returns the corners of the shortest path from the agent
// to the target. If no path exists, an empty path is returned. The
// agent's pose is restored after the query regardless of its outcome,
// forcing the teleport if needed. PathCorners panics if the pose cannot
// be restored even when forced.
func (e *Environment) PathCorners(target Target) (corners []Vector3,
	err error) {
	pose := e.AgentState()
	defer func() {
		restoreErr := e.teleport(pose, false)
		if restoreErr == nil && !e.LastActionSuccess() {
			restoreErr = e.teleport(pose, true)
			if restoreErr == nil && !e.LastActionSuccess() {
				panic(fmt.Sprintf("pathCorners: could not restore pose %v",
					pose))
			}
		}
		if restoreErr != nil && err == nil {
			err = fmt.Errorf("pathCorners: could not restore pose: %w",
				restoreErr)
		}
	}()

	position := pose.Position()
	rotation := pose.Rotation
	corners, err = e.controller.ShortestPath(target, position, &rotation)
	if errors.Is(err, ErrNoPath) {
		return []Vector3{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("pathCorners: %w", err)
	}
	return corners, nil
}

// QuantizedAgentState discretizes the agent's (x, z) location to a
// (subsampled) cell of the scene grid and its rotation to a
// (subsampled) multiple of the rotation step.
func (e *Environment) QuantizedAgentState(xzSubsampling,
	rotSubsampling int) QuantizedPose {
	return e.currentGrid().quantize(e.AgentState(), e.config.GridSize,
		e.config.RotateStepDegrees, xzSubsampling, rotSubsampling)
}

// AgentState returns the agent's position, rotation, and horizon
func (e *Environment) AgentState() Pose {
	agent := e.LastEvent().Metadata.Agent
	return Pose{
		X:        agent.Position.X,
		Y:        agent.Position.Y,
		Z:        agent.Position.Z,
		Rotation: agent.Rotation,
		Horizon:  agent.CameraHorizon,
	}
}

// Step takes a step in the simulator
func (e *Environment) Step(action Action) (Event, error) {
	return e.controller.Step(action)
}

// teleport moves the agent to pose
func (e *Environment) teleport(pose Pose, force bool) error {
	_, err := e.controller.Step(Action{
		Name:        TeleportFull,
		Pose:        &pose,
		ForceAction: force,
	})
	return err
}

// CurrentlyReachablePoints returns the locations in the scene that are
// currently reachable
func (e *Environment) CurrentlyReachablePoints() ([]Vector3, error) {
	event, err := e.controller.Step(Action{Name: GetReachablePositions})
	if err != nil {
		return nil, fmt.Errorf("currentlyReachablePoints: %w", err)
	}
	return event.Metadata.ActionReturn, nil
}

// SceneName returns the current scene
func (e *Environment) SceneName() string {
	return e.LastEvent().Metadata.SceneName
}

// CurrentFrame returns the rgb image of the agent's egocentric view
func (e *Environment) CurrentFrame() *tensor.Dense {
	return e.LastEvent().Frame
}

// CurrentDepth returns the depth image of the agent's egocentric view
func (e *Environment) CurrentDepth() *tensor.Dense {
	return e.LastEvent().DepthFrame
}

// LastEvent returns the last event returned by the controller
func (e *Environment) LastEvent() Event {
	return e.controller.LastEvent()
}

// LastAction returns the name of the last action taken by the agent
func (e *Environment) LastAction() string {
	return e.LastEvent().Metadata.LastAction
}

// LastActionSuccess returns whether the last action succeeded
func (e *Environment) LastActionSuccess() bool {
	return e.LastEvent().Metadata.LastActionSuccess
}

// LastActionReturn returns the value returned by the last action, if
// any, such as the positions returned by GetReachablePositions
func (e *Environment) LastActionReturn() []Vector3 {
	return e.LastEvent().Metadata.ActionReturn
}

// AllObjects returns the metadata of all objects in the scene
func (e *Environment) AllObjects() []Object {
	return e.LastEvent().Metadata.Objects
}

// AllObjectsWithProperties returns all objects satisfying match
func (e *Environment) AllObjectsWithProperties(match func(Object) bool) []Object {
	var objects []Object
	for _, o := range e.AllObjects() {
		if match(o) {
			objects = append(objects, o)
		}
	}
	return objects
}

// VisibleObjects returns all visible objects
func (e *Environment) VisibleObjects() []Object {
	return e.AllObjectsWithProperties(func(o Object) bool {
		return o.Visible
	})
}

// Stop stops the simulator. Errors are logged but not returned, since
// a simulator that fails to stop cleanly is abandoned anyway.
func (e *Environment) Stop() {
	if err := e.controller.Stop(); err != nil {
		e.logger.Printf("warning: stop: %v", err)
	}
}
