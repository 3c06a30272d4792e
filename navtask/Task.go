// Package navtask implements the per-episode navigation task state
// machines run on a robothor.Environment.
//
// A Task is created for a single episode. Each call to Step issues one
// action, judges the result, and reports whether the episode is over.
// Once the episode is over, Metrics summarizes it.
package navtask

import (
	"errors"
	"log"

	"github.com/samuelfneumann/navlearn/environment"
	"github.com/samuelfneumann/navlearn/environment/robothor"
	"github.com/samuelfneumann/navlearn/sensor"
	"github.com/samuelfneumann/navlearn/timestep"
	"gorgonia.org/tensor"
)

var (
	// ErrEpisodeDone is returned when stepping a Task whose episode is
	// over
	ErrEpisodeDone = errors.New("episode is done")

	// ErrMetricsUnsupported is returned by ObjectNav.Metrics when no
	// distance cache is configured
	ErrMetricsUnsupported = errors.New("metrics require a distance cache")
)

// Task is a single navigation episode
type Task interface {
	// Start returns the first TimeStep of the episode
	Start() (timestep.TimeStep, error)

	// Step takes the action with the argument index
	Step(action int) (timestep.TimeStep, error)

	// ReachedTerminalState returns whether the END action was taken
	ReachedTerminalState() bool

	// IsDone returns whether the episode is over, either because the
	// terminal state was reached or the step budget is exhausted
	IsDone() bool

	NumStepsTaken() int

	// Metrics summarizes a finished episode. A nil Metrics with a nil
	// error means metrics are unavailable for the episode.
	Metrics() (*Metrics, error)

	// Render returns the current "rgb" or "depth" frame
	Render(mode string) *tensor.Dense

	ActionSpec() environment.Spec
	ActionNames() []string
	Info() *Info

	// Close stops the simulator
	Close()
}

// Outcome is the success of an episode. It is Undetermined when the
// distance to the goal could not be computed when END was taken.
type Outcome int

const (
	Failed Outcome = iota
	Succeeded
	Undetermined
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "Succeeded"
	case Undetermined:
		return "Undetermined"
	default:
		return "Failed"
	}
}

// Info describes the goal of an episode and records its trajectory
type Info struct {
	EpisodeID  string            `json:"id,omitempty"`
	Scene      string            `json:"scene"`
	ObjectType string            `json:"object_type,omitempty"`
	Target     *robothor.Vector3 `json:"target,omitempty"`
	Mirrored   bool              `json:"mirrored"`

	// DistanceToTarget is the precomputed optimal distance of the
	// episode, or 0 if unknown
	DistanceToTarget float64 `json:"distance_to_target,omitempty"`

	FollowedPath []robothor.Pose `json:"followed_path,omitempty"`
	TakenActions []string        `json:"taken_actions,omitempty"`
	ActionNames  []string        `json:"action_names,omitempty"`
}

// Goal returns the target of the episode, which is the Target point if
// set and the ObjectType otherwise
func (i *Info) Goal() robothor.Target {
	if i.Target != nil {
		return robothor.PointTarget(*i.Target)
	}
	return robothor.ObjectTarget(i.ObjectType)
}

// EpisodeInfo is a precomputed optimal path of an episode
type EpisodeInfo struct {
	ShortestPath       []robothor.Vector3 `json:"shortest_path"`
	ShortestPathLength float64            `json:"shortest_path_length"`
}

// Metrics summarizes a finished episode
type Metrics struct {
	Success      bool    `json:"success"`
	EpLength     int     `json:"ep_length"`
	TotalReward  float64 `json:"total_reward"`
	DistToTarget float64 `json:"dist_to_target"`
	SPL          float64 `json:"spl"`
	TaskInfo     *Info   `json:"task_info"`
}

// DistanceCache looks up precomputed geodesic distances. The boolean
// return value is false if the cache holds no distance for the query.
type DistanceCache interface {
	Distance(scene string, pose robothor.Pose, target robothor.Vector3) (
		float64, bool)
	DistanceToObject(scene string, pose robothor.Pose, objectType string) (
		float64, bool)
}

// Config holds the settings shared by all tasks of a sampler
type Config struct {
	MaxSteps int
	Rewards  RewardConfig
	Sensors  *sensor.Suite

	// DistanceCache is optional. When nil, distances are computed with
	// the environment's path queries.
	DistanceCache DistanceCache

	// Logger is used for warnings. If nil, log.Default() is used.
	Logger *log.Logger
}
