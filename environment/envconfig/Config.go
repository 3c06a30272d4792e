// Package envconfig provides configuration structs for configuring
// navigation environments, tasks, and samplers. Configurations in this
// package are YAML and JSON serializable, and each part of the
// configuration has a factory which creates it.
package envconfig

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/samuelfneumann/navlearn/dataset"
	"github.com/samuelfneumann/navlearn/distcache"
	"github.com/samuelfneumann/navlearn/environment/robothor"
	"github.com/samuelfneumann/navlearn/environment/robothor/gridsim"
	"github.com/samuelfneumann/navlearn/environment/robothor/remote"
	"github.com/samuelfneumann/navlearn/navtask"
	"github.com/samuelfneumann/navlearn/sampler"
	"github.com/samuelfneumann/navlearn/sensor"
	"gopkg.in/yaml.v3"
)

// Sensor names available for configuration
const (
	RGB            = "rgb"
	Depth          = "depth"
	GoalObjectType = "goal_object_type_ind"
	PointGoal      = "target_coordinates_ind"
	GridPose       = "grid_pose"
)

// SimulatorConfig selects the simulator. If Address is set, a remote
// simulator is used. Otherwise, a grid world simulator serves the
// scenes of SceneFile, or the demo scenes if SceneFile is empty.
type SimulatorConfig struct {
	SceneFile string        `yaml:"sceneFile,omitempty" json:"sceneFile,omitempty"`
	Address   string        `yaml:"address,omitempty" json:"address,omitempty"`
	Timeout   time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// TaskConfig configures the tasks of each episode
type TaskConfig struct {
	Type        sampler.TaskType     `yaml:"type" json:"type"`
	MaxSteps    int                  `yaml:"maxSteps" json:"maxSteps"`
	TargetTypes []string             `yaml:"targetTypes,omitempty" json:"targetTypes,omitempty"`
	Sensors     []string             `yaml:"sensors" json:"sensors"`
	Rewards     navtask.RewardConfig `yaml:"rewards" json:"rewards"`
}

// SamplerConfig configures how episodes are sampled
type SamplerConfig struct {
	Scenes            []string `yaml:"scenes,omitempty" json:"scenes,omitempty"`
	Dataset           string   `yaml:"dataset,omitempty" json:"dataset,omitempty"`
	MirrorProbability float64  `yaml:"mirrorProbability" json:"mirrorProbability"`
	MaxTasks          int      `yaml:"maxTasks,omitempty" json:"maxTasks,omitempty"`
}

// Config implements a configuration of a navigation environment and
// the tasks sampled on it
type Config struct {
	Environment   robothor.Config `yaml:"environment" json:"environment"`
	Simulator     SimulatorConfig `yaml:"simulator" json:"simulator"`
	Task          TaskConfig      `yaml:"task" json:"task"`
	Sampler       SamplerConfig   `yaml:"sampler" json:"sampler"`
	DistanceCache string          `yaml:"distanceCache,omitempty" json:"distanceCache,omitempty"`
}

// Default returns the default configuration: ObjectNav on the demo
// scenes with RGB, depth, and goal type observations
func Default() Config {
	return Config{
		Environment: robothor.DefaultConfig(),
		Task: TaskConfig{
			Type:     sampler.ObjectNav,
			MaxSteps: 500,
			Sensors:  []string{RGB, Depth, GoalObjectType},
			Rewards:  navtask.DefaultRewards(),
		},
	}
}

// Load reads a YAML configuration. Settings missing from the file keep
// their default values.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load: could not read config: %w", err)
	}

	c := Default()
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return Config{}, fmt.Errorf("load: %v: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("load: %v: %w", path, err)
	}
	return c, nil
}

// Validate returns an error describing why the configuration is not
// usable, if it is not
func (c Config) Validate() error {
	env := c.Environment
	if env.GridSize <= 0 {
		return fmt.Errorf("validate: grid size must be positive, got %v",
			env.GridSize)
	}
	if env.RotateStepDegrees <= 0 {
		return fmt.Errorf("validate: rotation step must be positive, got %v",
			env.RotateStepDegrees)
	}
	if env.Width <= 0 || env.Height <= 0 {
		return fmt.Errorf("validate: illegal frame size %vx%v", env.Width,
			env.Height)
	}

	if c.Simulator.SceneFile != "" && c.Simulator.Address != "" {
		return fmt.Errorf("validate: cannot use both a scene file and a " +
			"remote simulator")
	}

	switch c.Task.Type {
	case sampler.PointNav, sampler.ObjectNav:
	default:
		return fmt.Errorf("validate: unknown task type %q", c.Task.Type)
	}
	if c.Task.MaxSteps <= 0 {
		return fmt.Errorf("validate: max steps must be positive, got %v",
			c.Task.MaxSteps)
	}
	if err := c.Task.Rewards.Validate(); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	randomObjectNav := c.Task.Type == sampler.ObjectNav &&
		c.Sampler.Dataset == ""
	if randomObjectNav && len(c.Task.TargetTypes) == 0 {
		return fmt.Errorf("validate: ObjectNav needs target types or a " +
			"dataset")
	}
	for _, s := range c.Task.Sensors {
		switch s {
		case RGB, Depth, GridPose:
		case GoalObjectType:
			if c.Task.Type != sampler.ObjectNav {
				return fmt.Errorf("validate: sensor %v needs an ObjectNav "+
					"task", s)
			}
		case PointGoal:
			if c.Task.Type != sampler.PointNav {
				return fmt.Errorf("validate: sensor %v needs a PointNav "+
					"task", s)
			}
		default:
			return fmt.Errorf("validate: unknown sensor %q", s)
		}
	}

	if len(c.Sampler.Scenes) == 0 && c.Sampler.Dataset == "" {
		return fmt.Errorf("validate: no scenes or dataset to sample from")
	}
	if c.Sampler.MirrorProbability < 0 || c.Sampler.MirrorProbability > 1 {
		return fmt.Errorf("validate: mirror probability must be in [0, 1], "+
			"got %v", c.Sampler.MirrorProbability)
	}
	if c.Sampler.MaxTasks < 0 {
		return fmt.Errorf("validate: max tasks must be non-negative, got %v",
			c.Sampler.MaxTasks)
	}
	return nil
}

// CreateController connects to the configured simulator
func (c Config) CreateController(ctx context.Context) (robothor.Controller,
	error) {
	if c.Simulator.Address != "" {
		client, err := remote.Dial(ctx, c.Simulator.Address,
			c.Simulator.Timeout)
		if err != nil {
			return nil, fmt.Errorf("createController: %w", err)
		}
		return client, nil
	}

	scenes := gridsim.DemoScenes()
	if c.Simulator.SceneFile != "" {
		var err error
		if scenes, err = gridsim.LoadScenes(c.Simulator.SceneFile); err != nil {
			return nil, fmt.Errorf("createController: %w", err)
		}
	}
	sim, err := gridsim.New(c.Environment, scenes...)
	if err != nil {
		return nil, fmt.Errorf("createController: %w", err)
	}
	return sim, nil
}

// CreateSensors returns the configured sensor suite. The goal type
// sensor indexes into targetTypes.
func (c Config) CreateSensors(targetTypes []string) (*sensor.Suite, error) {
	sensors := make([]sensor.Sensor, 0, len(c.Task.Sensors))
	for _, name := range c.Task.Sensors {
		switch name {
		case RGB:
			sensors = append(sensors, sensor.NewRGB())
		case Depth:
			sensors = append(sensors, sensor.NewDepth())
		case PointGoal:
			sensors = append(sensors, sensor.NewPointGoal())
		case GridPose:
			s, err := sensor.NewGridPose(1, 1)
			if err != nil {
				return nil, fmt.Errorf("createSensors: %w", err)
			}
			sensors = append(sensors, s)
		case GoalObjectType:
			s, err := sensor.NewGoalObjectType(targetTypes)
			if err != nil {
				return nil, fmt.Errorf("createSensors: %w", err)
			}
			sensors = append(sensors, s)
		default:
			return nil, fmt.Errorf("createSensors: unknown sensor %q", name)
		}
	}

	suite, err := sensor.NewSuite(sensors...)
	if err != nil {
		return nil, fmt.Errorf("createSensors: %w", err)
	}
	return suite, nil
}

// CreateDataset loads the configured dataset, or returns nil if none is
// configured
func (c Config) CreateDataset() (*dataset.Dataset, error) {
	if c.Sampler.Dataset == "" {
		return nil, nil
	}
	d, err := dataset.Load(c.Sampler.Dataset)
	if err != nil {
		return nil, fmt.Errorf("createDataset: %w", err)
	}
	return d, nil
}

// CreateDistanceCache loads the configured distance cache, restricted
// to scenes if any are given. If no cache is configured, a nil cache is
// returned.
func (c Config) CreateDistanceCache(ctx context.Context,
	scenes ...string) (navtask.DistanceCache, error) {
	if c.DistanceCache == "" {
		return nil, nil
	}
	cache, err := distcache.Load(ctx, c.DistanceCache, scenes...)
	if err != nil {
		return nil, fmt.Errorf("createDistanceCache: %w", err)
	}
	if cache.GridSize() != c.Environment.GridSize {
		return nil, fmt.Errorf("createDistanceCache: cache grid size %v "+
			"does not match environment grid size %v", cache.GridSize(),
			c.Environment.GridSize)
	}
	return cache, nil
}

// CreateSampler creates the configured simulator, environment, and
// task sampler
func (c Config) CreateSampler(ctx context.Context, seed uint64,
	logger *log.Logger) (*sampler.Sampler, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("createSampler: %w", err)
	}

	d, err := c.CreateDataset()
	if err != nil {
		return nil, fmt.Errorf("createSampler: %w", err)
	}

	scenes := c.Sampler.Scenes
	if len(scenes) == 0 && d != nil {
		scenes = d.Scenes()
	}
	cache, err := c.CreateDistanceCache(ctx, scenes...)
	if err != nil {
		return nil, fmt.Errorf("createSampler: %w", err)
	}

	targetTypes := c.Task.TargetTypes
	if len(targetTypes) == 0 && d != nil {
		targetTypes = objectTypes(d)
	}
	sensors, err := c.CreateSensors(targetTypes)
	if err != nil {
		return nil, fmt.Errorf("createSampler: %w", err)
	}

	controller, err := c.CreateController(ctx)
	if err != nil {
		return nil, fmt.Errorf("createSampler: %w", err)
	}
	env := robothor.New(controller, c.Environment, seed, logger)

	s, err := sampler.New(env, sampler.Config{
		Type:              c.Task.Type,
		Scenes:            c.Sampler.Scenes,
		TargetTypes:       targetTypes,
		Dataset:           d,
		MirrorProbability: c.Sampler.MirrorProbability,
		MaxTasks:          c.Sampler.MaxTasks,
		Task: navtask.Config{
			MaxSteps:      c.Task.MaxSteps,
			Rewards:       c.Task.Rewards,
			Sensors:       sensors,
			DistanceCache: cache,
			Logger:        logger,
		},
	}, seed)
	if err != nil {
		env.Stop()
		return nil, fmt.Errorf("createSampler: %w", err)
	}
	return s, nil
}

// objectTypes returns the sorted goal object types of a dataset
func objectTypes(d *dataset.Dataset) []string {
	seen := make(map[string]bool)
	var types []string
	for _, e := range d.Episodes {
		if e.ObjectType != "" && !seen[e.ObjectType] {
			seen[e.ObjectType] = true
			types = append(types, e.ObjectType)
		}
	}
	sort.Strings(types)
	return types
}
