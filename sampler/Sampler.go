// Package sampler implements task samplers, which place the agent in a
// scene and build the navigation task of each episode
package sampler

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/samuelfneumann/navlearn/dataset"
	"github.com/samuelfneumann/navlearn/environment"
	"github.com/samuelfneumann/navlearn/environment/robothor"
	"github.com/samuelfneumann/navlearn/navtask"
	"golang.org/x/exp/rand"
)

// sampleAttempts is the number of start locations tried before giving
// up on finding a reachable goal in a scene
const sampleAttempts int = 10

// TaskType determines which navigation task a Sampler builds
type TaskType string

const (
	PointNav  TaskType = "PointNav"
	ObjectNav TaskType = "ObjectNav"
)

// Config configures a Sampler.
//
// If Dataset is set, its episodes are replayed in order, restricted to
// Scenes if any are given. Otherwise, Scenes are cycled through and a
// random start location and goal are sampled in each.
type Config struct {
	Type        TaskType
	Scenes      []string
	TargetTypes []string
	Dataset     *dataset.Dataset

	// MirrorProbability is the probability that an ObjectNav episode
	// is mirrored
	MirrorProbability float64

	// MaxTasks bounds the number of tasks sampled. Zero means no bound
	// when sampling randomly and the dataset length when replaying.
	MaxTasks int

	Task navtask.Config
}

// Sampler produces the tasks of consecutive episodes on a single
// environment
type Sampler struct {
	env    *robothor.Environment
	config Config
	rng    *rand.Rand
	seed   uint64

	sampled  int
	lastTask navtask.Task
}

// New returns a new Sampler
func New(env *robothor.Environment, config Config, seed uint64) (*Sampler,
	error) {
	switch config.Type {
	case PointNav, ObjectNav:
	default:
		return nil, fmt.Errorf("new: unknown task type %q", config.Type)
	}
	if config.MirrorProbability < 0 || config.MirrorProbability > 1 {
		return nil, fmt.Errorf("new: mirror probability must be in [0, 1], "+
			"got %v", config.MirrorProbability)
	}
	if config.MaxTasks < 0 {
		return nil, fmt.Errorf("new: max tasks must be non-negative, got %v",
			config.MaxTasks)
	}

	if config.Dataset != nil {
		if len(config.Scenes) > 0 {
			config.Dataset = config.Dataset.Filter(config.Scenes...)
		}
		if config.Dataset.Len() == 0 {
			return nil, fmt.Errorf("new: no dataset episodes to replay")
		}
		if config.MaxTasks == 0 || config.MaxTasks > config.Dataset.Len() {
			config.MaxTasks = config.Dataset.Len()
		}
	} else {
		if len(config.Scenes) == 0 {
			return nil, fmt.Errorf("new: no scenes to sample from")
		}
		if config.Type == ObjectNav && len(config.TargetTypes) == 0 {
			return nil, fmt.Errorf("new: no target types to sample from")
		}
	}

	return &Sampler{
		env:    env,
		config: config,
		rng:    rand.New(rand.NewSource(seed)),
		seed:   seed,
	}, nil
}

// Environment returns the environment tasks are sampled on
func (s *Sampler) Environment() *robothor.Environment {
	return s.env
}

// Length returns the number of tasks left to sample, or -1 if the
// sampler is unbounded
func (s *Sampler) Length() int {
	if s.config.MaxTasks == 0 {
		return -1
	}
	return s.config.MaxTasks - s.sampled
}

// ActionSpec returns the action specification shared by all sampled
// tasks
func (s *Sampler) ActionSpec() environment.Spec {
	if s.config.Type == PointNav {
		return environment.NewDiscreteActionSpec(len(navtask.PointNavActions()))
	}
	return environment.NewDiscreteActionSpec(len(navtask.ObjectNavActions()))
}

// LastSampledTask returns the task most recently returned by NextTask
func (s *Sampler) LastSampledTask() navtask.Task {
	return s.lastTask
}

// Reset restarts the sampler from its first task
func (s *Sampler) Reset() {
	s.sampled = 0
	s.lastTask = nil
	s.rng.Seed(s.seed)
}

// NextTask places the agent and returns the task of the next episode.
// NextTask returns a nil Task and nil error once the sampler is
// exhausted.
func (s *Sampler) NextTask() (navtask.Task, error) {
	if s.Length() == 0 {
		return nil, nil
	}

	var task navtask.Task
	var err error
	if s.config.Dataset != nil {
		task, err = s.replay(s.config.Dataset.Episodes[s.sampled])
	} else {
		scene := s.config.Scenes[s.sampled%len(s.config.Scenes)]
		task, err = s.sample(scene)
	}
	if err != nil {
		return nil, fmt.Errorf("nextTask: %w", err)
	}

	s.sampled++
	s.lastTask = task
	return task, nil
}

// Close stops the environment
func (s *Sampler) Close() {
	s.env.Stop()
}

// replay places the agent at the start of a dataset episode
func (s *Sampler) replay(ep dataset.Episode) (navtask.Task, error) {
	if err := s.env.Reset(ep.Scene); err != nil {
		return nil, err
	}

	start := ep.StartPose()
	_, err := s.env.RandomizeAgentLocation(nil, &robothor.PartialPose{
		X:        &start.X,
		Y:        &start.Y,
		Z:        &start.Z,
		Rotation: &start.Rotation,
		Horizon:  &start.Horizon,
	})
	if err != nil {
		return nil, err
	}

	switch s.config.Type {
	case PointNav:
		if ep.Target == nil {
			return nil, fmt.Errorf("episode %v has no target point", ep.ID)
		}
		return navtask.NewPointNav(s.env, s.config.Task, ep.TaskInfo(false),
			ep.EpisodeInfo())

	default:
		if ep.ObjectType == "" {
			return nil, fmt.Errorf("episode %v has no object type", ep.ID)
		}
		return navtask.NewObjectNav(s.env, s.config.Task,
			ep.TaskInfo(s.mirror()))
	}
}

// sample places the agent at a random location of scene from which a
// randomly chosen goal is reachable
func (s *Sampler) sample(scene string) (navtask.Task, error) {
	if err := s.env.Reset(scene); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < sampleAttempts; attempt++ {
		seed := s.rng.Uint64()
		if _, err := s.env.RandomizeAgentLocation(&seed, nil); err != nil {
			return nil, err
		}

		id, err := uuid.NewRandomFromReader(s.rng)
		if err != nil {
			return nil, fmt.Errorf("sample: could not create episode id: %w",
				err)
		}
		info := &navtask.Info{EpisodeID: id.String(), Scene: scene}
		switch s.config.Type {
		case PointNav:
			target, ok, err := s.samplePoint()
			if err != nil {
				return nil, err
			} else if !ok {
				continue
			}
			info.Target = &target
			return navtask.NewPointNav(s.env, s.config.Task, info, nil)

		default:
			objectType, ok, err := s.sampleObjectType()
			if err != nil {
				return nil, err
			} else if !ok {
				continue
			}
			info.ObjectType = objectType
			info.Mirrored = s.mirror()
			return navtask.NewObjectNav(s.env, s.config.Task, info)
		}
	}

	return nil, fmt.Errorf("no reachable goal in scene %v after %v "+
		"attempts", scene, sampleAttempts)
}

// sampleObjectType returns a random target type reachable from the
// agent's location
func (s *Sampler) sampleObjectType() (string, bool, error) {
	types := s.config.TargetTypes
	for _, i := range s.rng.Perm(len(types)) {
		reachable, err := s.env.ObjectReachable(types[i])
		if err != nil {
			return "", false, err
		}
		if reachable {
			return types[i], true, nil
		}
	}
	return "", false, nil
}

// samplePoint returns a random reachable point other than the agent's
// location
func (s *Sampler) samplePoint() (robothor.Vector3, bool, error) {
	points, err := s.env.CurrentlyReachablePoints()
	if err != nil {
		return robothor.Vector3{}, false, err
	}

	for _, i := range s.rng.Perm(len(points)) {
		d, err := s.env.DistToPoint(points[i])
		if err != nil {
			return robothor.Vector3{}, false, err
		}
		if d > 0 {
			return points[i], true, nil
		}
	}
	return robothor.Vector3{}, false, nil
}

func (s *Sampler) mirror() bool {
	return s.config.MirrorProbability > 0 &&
		s.rng.Float64() < s.config.MirrorProbability
}
