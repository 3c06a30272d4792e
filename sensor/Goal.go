package sensor

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/navlearn/environment/robothor"
	"gorgonia.org/tensor"
)

// GoalObjectType observes the index of the goal object type in a fixed
// list of target types
type GoalObjectType struct {
	types map[string]int
}

// NewGoalObjectType returns a new GoalObjectType sensor over the
// argument target types
func NewGoalObjectType(targetTypes []string) (*GoalObjectType, error) {
	if len(targetTypes) == 0 {
		return nil, fmt.Errorf("newGoalObjectType: no target types")
	}

	types := make(map[string]int, len(targetTypes))
	for i, t := range targetTypes {
		if _, ok := types[t]; ok {
			return nil, fmt.Errorf("newGoalObjectType: duplicate target "+
				"type %v", t)
		}
		types[t] = i
	}
	return &GoalObjectType{types}, nil
}

// UUID implements the Sensor interface
func (g *GoalObjectType) UUID() string {
	return "goal_object_type_ind"
}

// Observe implements the Sensor interface
func (g *GoalObjectType) Observe(_ *robothor.Environment,
	goal robothor.Target) (*tensor.Dense, error) {
	ind, ok := g.types[goal.ObjectType]
	if !ok {
		return nil, fmt.Errorf("observe: unknown goal object type %q",
			goal.ObjectType)
	}
	return tensor.New(tensor.WithShape(1), tensor.WithBacking([]int{ind})),
		nil
}

// PointGoal observes the distance and relative heading, in radians in
// (-pi, pi], from the agent to a point goal
type PointGoal struct{}

// NewPointGoal returns a new PointGoal sensor
func NewPointGoal() PointGoal {
	return PointGoal{}
}

// UUID implements the Sensor interface
func (PointGoal) UUID() string {
	return "target_coordinates_ind"
}

// Observe implements the Sensor interface
func (PointGoal) Observe(env *robothor.Environment,
	goal robothor.Target) (*tensor.Dense, error) {
	if goal.Point == nil {
		return nil, fmt.Errorf("observe: goal %v is not a point", goal)
	}

	pose := env.AgentState()
	dx, dz := goal.Point.X-pose.X, goal.Point.Z-pose.Z
	angle := math.Atan2(dx, dz) - pose.Rotation.Y*math.Pi/180.0
	for angle <= -math.Pi {
		angle += 2 * math.Pi
	}
	for angle > math.Pi {
		angle -= 2 * math.Pi
	}

	return tensor.New(tensor.WithShape(2), tensor.WithBacking([]float32{
		float32(math.Hypot(dx, dz)), float32(angle)})), nil
}
