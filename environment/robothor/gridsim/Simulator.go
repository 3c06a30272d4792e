// Package gridsim implements a deterministic grid world simulator
// which satisfies the robothor.Controller interface. Scenes are
// rectangular layouts of free and wall cells with typed objects placed
// on free cells. Movement, visibility, rendering, and shortest paths
// are all exact functions of the agent's pose, so tasks run on gridsim
// are reproducible.
package gridsim

import (
	"errors"
	"fmt"
	"math"

	"github.com/samuelfneumann/navlearn/environment/robothor"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// Camera horizon limits and step, in degrees
const (
	HorizonStep float64 = 30.0
	MinHorizon  float64 = -30.0
	MaxHorizon  float64 = 60.0
)

// FieldOfView is the horizontal field of view of the agent, in degrees
const FieldOfView float64 = 90.0

// ErrStopped is returned by a Simulator that has been stopped
var ErrStopped = errors.New("gridsim: simulator stopped")

// Simulator is a grid world simulator. A Simulator must only be used
// by one goroutine at a time.
type Simulator struct {
	config robothor.Config
	scenes map[string]*parsedScene
	graphs map[string]*simple.WeightedUndirectedGraph

	scene *parsedScene
	pose  robothor.Pose
	last  robothor.Event

	failTeleports int
	pathQueries   int
	stopped       bool
}

// New returns a new Simulator serving the argument scenes. No scene is
// loaded until Reset is called.
func New(config robothor.Config, scenes ...Scene) (*Simulator, error) {
	if config.GridSize <= 0 {
		return nil, fmt.Errorf("new: grid size must be positive, got %v",
			config.GridSize)
	}
	if config.Width <= 0 || config.Height <= 0 {
		return nil, fmt.Errorf("new: illegal frame size %vx%v",
			config.Width, config.Height)
	}

	s := &Simulator{
		config: config,
		scenes: make(map[string]*parsedScene, len(scenes)),
		graphs: make(map[string]*simple.WeightedUndirectedGraph, len(scenes)),
	}
	for _, scene := range scenes {
		p, err := parseScene(scene, config.GridSize)
		if err != nil {
			return nil, fmt.Errorf("new: %w", err)
		}
		if _, ok := s.scenes[p.Name]; ok {
			return nil, fmt.Errorf("new: duplicate scene %v", p.Name)
		}
		s.scenes[p.Name] = p
		s.graphs[p.Name] = buildGraph(p, config.GridSize)
	}

	return s, nil
}

// buildGraph connects every free cell to its free 4-neighbours
func buildGraph(p *parsedScene, gridSize float64) *simple.WeightedUndirectedGraph {
	g := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for r := 0; r < p.rows; r++ {
		for c := 0; c < p.cols; c++ {
			if p.free(cell{r, c}) {
				g.AddNode(simple.Node(p.id(cell{r, c})))
			}
		}
	}

	for r := 0; r < p.rows; r++ {
		for c := 0; c < p.cols; c++ {
			from := cell{r, c}
			if !p.free(from) {
				continue
			}
			for _, to := range []cell{{r + 1, c}, {r, c + 1}} {
				if p.free(to) {
					g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(p.id(from)),
						simple.Node(p.id(to)), gridSize))
				}
			}
		}
	}
	return g
}

// FailNextTeleports makes the next n non-forced teleports fail.
// Teleports onto the scene's start cell are exempt so that resets to
// the known good location keep working.
func (s *Simulator) FailNextTeleports(n int) {
	s.failTeleports = n
}

// PathQueries returns the number of shortest path queries served
func (s *Simulator) PathQueries() int {
	return s.pathQueries
}

// Reset loads the named scene and places the agent on its start cell.
// Resetting to an unknown scene fails without changing the simulator.
func (s *Simulator) Reset(scene string) (robothor.Event, error) {
	if s.stopped {
		return robothor.Event{}, ErrStopped
	}

	p, ok := s.scenes[scene]
	if !ok {
		s.last.Metadata.LastAction = "Reset"
		s.last.Metadata.LastActionSuccess = false
		return s.last, nil
	}

	s.scene = p
	s.pose = robothor.Pose{
		X:        float64(p.start.col) * s.config.GridSize,
		Y:        p.FloorY,
		Z:        float64(p.start.row) * s.config.GridSize,
		Rotation: robothor.Vector3{Y: p.Rotation},
	}
	s.last = s.event("Reset", true, nil)
	return s.last, nil
}

// Step performs a single action
func (s *Simulator) Step(action robothor.Action) (robothor.Event, error) {
	if s.stopped {
		return robothor.Event{}, ErrStopped
	}
	if s.scene == nil {
		return robothor.Event{}, fmt.Errorf("step: no scene loaded")
	}

	var success bool
	var ret []robothor.Vector3
	switch action.Name {
	case robothor.MoveAhead:
		success = s.move(1)
	case robothor.MoveBack:
		success = s.move(-1)
	case robothor.RotateLeft:
		s.rotate(-s.config.RotateStepDegrees)
		success = true
	case robothor.RotateRight:
		s.rotate(s.config.RotateStepDegrees)
		success = true
	case robothor.LookUp:
		success = s.look(-HorizonStep)
	case robothor.LookDown:
		success = s.look(HorizonStep)
	case robothor.TeleportFull:
		success = s.teleport(action)
	case robothor.GetReachablePositions:
		ret = s.reachable()
		success = true
	default:
		success = false
	}

	s.last = s.event(action.Name, success, ret)
	return s.last, nil
}

// LastEvent returns the event of the last Reset or Step
func (s *Simulator) LastEvent() robothor.Event {
	return s.last
}

// ShortestPath returns the cell centres along the shortest 4-connected
// path from position to the closest target. Like the RoboTHOR planner,
// the query leaves the agent at position facing +z with a level camera.
func (s *Simulator) ShortestPath(target robothor.Target,
	position robothor.Vector3, _ *robothor.Vector3) ([]robothor.Vector3, error) {
	if s.stopped {
		return nil, ErrStopped
	}
	if s.scene == nil {
		return nil, fmt.Errorf("shortestPath: no scene loaded")
	}
	s.pathQueries++

	from := s.cellAt(position.X, position.Z)
	if !s.scene.free(from) {
		return nil, robothor.ErrNoPath
	}
	s.pose.X, s.pose.Z = position.X, position.Z
	s.pose.Rotation = robothor.Vector3{}
	s.pose.Horizon = 0
	s.last = s.event("GetShortestPath", true, nil)

	var goals []cell
	if target.Point != nil {
		goals = append(goals, s.cellAt(target.Point.X, target.Point.Z))
	} else {
		for i, o := range s.scene.objects {
			if o.ObjectType == target.ObjectType {
				goals = append(goals, s.scene.objectCell[i])
			}
		}
	}

	g := s.graphs[s.scene.Name]
	shortest := path.DijkstraFrom(simple.Node(s.scene.id(from)), g)

	var best []graph.Node
	bestWeight := math.Inf(1)
	for _, goal := range goals {
		if !s.scene.free(goal) {
			continue
		}
		nodes, weight := shortest.To(s.scene.id(goal))
		if len(nodes) > 0 && weight < bestWeight {
			best, bestWeight = nodes, weight
		}
	}
	if best == nil {
		return nil, robothor.ErrNoPath
	}

	corners := make([]robothor.Vector3, len(best))
	for i, n := range best {
		corners[i] = s.center(s.scene.cellOf(n.ID()))
	}
	return corners, nil
}

// Stop stops the simulator. All later calls other than Stop fail with
// ErrStopped. Stopping a stopped simulator does nothing.
func (s *Simulator) Stop() error {
	s.stopped = true
	return nil
}

// move moves the agent one cell along (dir = 1) or against (dir = -1)
// its heading
func (s *Simulator) move(dir int) bool {
	dx, dz := heading(s.pose.Rotation.Y)
	at := s.cellAt(s.pose.X, s.pose.Z)
	next := cell{at.row + dir*dz, at.col + dir*dx}
	if !s.scene.free(next) {
		return false
	}

	centre := s.center(next)
	s.pose.X, s.pose.Z = centre.X, centre.Z
	return true
}

func (s *Simulator) rotate(degrees float64) {
	r := math.Mod(s.pose.Rotation.Y+degrees, 360.0)
	if r < 0 {
		r += 360.0
	}
	s.pose.Rotation.Y = r
}

func (s *Simulator) look(degrees float64) bool {
	h := s.pose.Horizon + degrees
	if h < MinHorizon || h > MaxHorizon {
		return false
	}
	s.pose.Horizon = h
	return true
}

// teleport moves the agent to the pose of a TeleportFull action. Unless
// forced, the target must be the centre of a free cell.
func (s *Simulator) teleport(action robothor.Action) bool {
	if action.Pose == nil {
		return false
	}
	target := *action.Pose
	at := s.cellAt(target.X, target.Z)

	if !action.ForceAction {
		if s.failTeleports > 0 && at != s.scene.start {
			s.failTeleports--
			return false
		}
		centre := s.center(at)
		if !s.scene.free(at) || math.Abs(centre.X-target.X) > 1e-3 ||
			math.Abs(centre.Z-target.Z) > 1e-3 {
			return false
		}
	} else if at.row < 0 || at.row >= s.scene.rows || at.col < 0 ||
		at.col >= s.scene.cols {
		return false
	}

	s.pose = target
	s.pose.Y = s.scene.FloorY
	return true
}

func (s *Simulator) reachable() []robothor.Vector3 {
	var points []robothor.Vector3
	for r := 0; r < s.scene.rows; r++ {
		for c := 0; c < s.scene.cols; c++ {
			if s.scene.free(cell{r, c}) {
				points = append(points, s.center(cell{r, c}))
			}
		}
	}
	return points
}

// visible returns whether the object at p can be seen by the agent:
// within the visibility distance and inside the field of view
func (s *Simulator) visible(p robothor.Vector3) (bool, float64) {
	dx, dz := p.X-s.pose.X, p.Z-s.pose.Z
	dist := math.Hypot(dx, dz)
	if dist > s.config.VisibilityDistance+1e-9 {
		return false, dist
	}
	if dist < 1e-9 {
		return true, dist
	}

	rad := s.pose.Rotation.Y * math.Pi / 180.0
	cos := (dx*math.Sin(rad) + dz*math.Cos(rad)) / dist
	return cos >= math.Cos(FieldOfView/2*math.Pi/180.0)-1e-9, dist
}

func (s *Simulator) event(action string, success bool,
	ret []robothor.Vector3) robothor.Event {
	objects := make([]robothor.Object, len(s.scene.objects))
	for i, o := range s.scene.objects {
		o.Visible, o.Distance = s.visible(o.Position)
		objects[i] = o
	}

	return robothor.Event{
		Metadata: robothor.Metadata{
			Agent: robothor.AgentMetadata{
				Position:      s.pose.Position(),
				Rotation:      s.pose.Rotation,
				CameraHorizon: s.pose.Horizon,
			},
			LastAction:        action,
			LastActionSuccess: success,
			Objects:           objects,
			SceneName:         s.scene.Name,
			ActionReturn:      ret,
		},
		Frame:      s.renderRGB(),
		DepthFrame: s.renderDepth(),
	}
}

// cellAt returns the cell containing world coordinates (x, z)
func (s *Simulator) cellAt(x, z float64) cell {
	return cell{
		row: int(math.Round(z / s.config.GridSize)),
		col: int(math.Round(x / s.config.GridSize)),
	}
}

// center returns the world coordinates of the centre of c
func (s *Simulator) center(c cell) robothor.Vector3 {
	return robothor.Vector3{
		X: float64(c.col) * s.config.GridSize,
		Y: s.scene.FloorY,
		Z: float64(c.row) * s.config.GridSize,
	}
}

// heading returns the unit cell step (dx, dz) of a y rotation. A
// rotation of 0 faces +z and 90 faces +x.
func heading(rotation float64) (dx, dz int) {
	rad := rotation * math.Pi / 180.0
	return int(math.Round(math.Sin(rad))), int(math.Round(math.Cos(rad)))
}
