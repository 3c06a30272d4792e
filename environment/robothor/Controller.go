package robothor

import (
	"errors"
	"fmt"
	"math"

	"gorgonia.org/tensor"
)

// Simulator action names
const (
	MoveAhead             string = "MoveAhead"
	MoveBack              string = "MoveBack"
	RotateLeft            string = "RotateLeft"
	RotateRight           string = "RotateRight"
	LookUp                string = "LookUp"
	LookDown              string = "LookDown"
	End                   string = "End"
	TeleportFull          string = "TeleportFull"
	GetReachablePositions string = "GetReachablePositions"
)

// ErrNoPath is returned by a Controller's shortest path query when no
// path exists between the agent and the target
var ErrNoPath = errors.New("no path to target")

// Vector3 is a point or a set of Euler angles in simulator coordinates
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Pose is a snapshot of the agent's position, rotation, and camera
// horizon
type Pose struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	Rotation Vector3 `json:"rotation"`
	Horizon  float64 `json:"horizon"`
}

// Position returns the position of the pose
func (p Pose) Position() Vector3 {
	return Vector3{X: p.X, Y: p.Y, Z: p.Z}
}

func (p Pose) String() string {
	return fmt.Sprintf("{x: %.3f, y: %.3f, z: %.3f, rotation: %.1f, "+
		"horizon: %.1f}", p.X, p.Y, p.Z, p.Rotation.Y, p.Horizon)
}

// PartialPose overrides the non-nil fields of a Pose
type PartialPose struct {
	X        *float64 `json:"x,omitempty"`
	Y        *float64 `json:"y,omitempty"`
	Z        *float64 `json:"z,omitempty"`
	Rotation *Vector3 `json:"rotation,omitempty"`
	Horizon  *float64 `json:"horizon,omitempty"`
}

// Apply returns p with the fields set in the partial pose overridden
func (pp *PartialPose) Apply(p Pose) Pose {
	if pp == nil {
		return p
	}
	if pp.X != nil {
		p.X = *pp.X
	}
	if pp.Y != nil {
		p.Y = *pp.Y
	}
	if pp.Z != nil {
		p.Z = *pp.Z
	}
	if pp.Rotation != nil {
		p.Rotation = *pp.Rotation
	}
	if pp.Horizon != nil {
		p.Horizon = *pp.Horizon
	}
	return p
}

// Target identifies what a path query navigates to: either an object
// type or a point in the scene
type Target struct {
	ObjectType string   `json:"objectType,omitempty"`
	Point      *Vector3 `json:"point,omitempty"`
}

// ObjectTarget returns a Target for the closest object of a given type
func ObjectTarget(objectType string) Target {
	return Target{ObjectType: objectType}
}

// PointTarget returns a Target for a point in the scene
func PointTarget(p Vector3) Target {
	return Target{Point: &p}
}

// Key returns the identity of the target used to index the grid cache
func (t Target) Key() string {
	if t.Point != nil {
		return fmt.Sprintf("%.4f|%.4f|%.4f", t.Point.X, t.Point.Y, t.Point.Z)
	}
	return t.ObjectType
}

func (t Target) String() string {
	if t.Point != nil {
		return fmt.Sprintf("point(%.3f, %.3f, %.3f)", t.Point.X, t.Point.Y,
			t.Point.Z)
	}
	return t.ObjectType
}

// Action is a single simulator command. Pose is only used by
// TeleportFull.
type Action struct {
	Name        string `json:"action"`
	Pose        *Pose  `json:"pose,omitempty"`
	ForceAction bool   `json:"forceAction,omitempty"`
}

// AgentMetadata holds the agent's state as reported by the simulator
type AgentMetadata struct {
	Position      Vector3 `json:"position"`
	Rotation      Vector3 `json:"rotation"`
	CameraHorizon float64 `json:"cameraHorizon"`
}

// Object is the simulator's metadata of a single scene object
type Object struct {
	ObjectID   string  `json:"objectId"`
	ObjectType string  `json:"objectType"`
	Visible    bool    `json:"visible"`
	Position   Vector3 `json:"position"`
	Distance   float64 `json:"distance"`
}

// Metadata is the non-image part of a simulator event
type Metadata struct {
	Agent             AgentMetadata `json:"agent"`
	LastAction        string        `json:"lastAction"`
	LastActionSuccess bool          `json:"lastActionSuccess"`
	Objects           []Object      `json:"objects"`
	SceneName         string        `json:"sceneName"`

	// ActionReturn holds the positions returned by GetReachablePositions
	ActionReturn []Vector3 `json:"actionReturn,omitempty"`
}

// Event is the result of a simulator reset or step
type Event struct {
	Metadata   Metadata
	Frame      *tensor.Dense // height x width x 3, uint8
	DepthFrame *tensor.Dense // height x width, float32
}

// Controller is the narrow interface to a simulator instance. All
// calls block until the simulator responds. Errors returned by a
// Controller signal a broken connection to the simulator; failed
// actions are reported through Metadata.LastActionSuccess instead.
type Controller interface {
	// Reset loads the named scene
	Reset(scene string) (Event, error)

	// Step issues a single action
	Step(action Action) (Event, error)

	// LastEvent returns the event produced by the last Reset or Step
	LastEvent() Event

	// ShortestPath returns the corners of the shortest path from
	// position to the target, or ErrNoPath. The query may move the
	// agent.
	ShortestPath(target Target, position Vector3, rotation *Vector3) (
		[]Vector3, error)

	// Stop releases the simulator
	Stop() error
}

// PathCornersToDist computes the distance covered by the path described
// by its corners, measured in the xz plane. An empty path has infinite
// length.
func PathCornersToDist(corners []Vector3) float64 {
	if len(corners) == 0 {
		return math.Inf(1)
	}

	sum := 0.0
	for i := 1; i < len(corners); i++ {
		sum += math.Hypot(corners[i].X-corners[i-1].X,
			corners[i].Z-corners[i-1].Z)
	}
	return sum
}
