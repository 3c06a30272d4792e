// Package experiment implements functionality for running an experiment
package experiment

import (
	"context"
	"fmt"
	"log"

	"github.com/samuelfneumann/navlearn/agent"
	"github.com/samuelfneumann/navlearn/environment/envconfig"
	"github.com/samuelfneumann/navlearn/environment/robothor"
	"github.com/samuelfneumann/navlearn/experiment/checkpointer"
	"github.com/samuelfneumann/navlearn/experiment/tracker"
	"github.com/samuelfneumann/navlearn/navtask"
	"gopkg.in/yaml.v3"
)

// Interface Experiment outlines structs that can run experiments.
// Experiments will track task TimeSteps, caching each TimeStep in RAM
// to be later saved to disk. The Save() function will then take all
// cached data and save it to disk. This is usually performed after an
// experiment has been run. The Run() method will run all episodes
// until the maximum timestep limit is reached or the task sampler is
// exhausted. The RunEpisode() function will run a single episode.
//
// In order to save data, Experiments use Trackers. Trackers determine
// which data generated during the experiment is saved. Experiments will
// send each TimeStep to Trackers using the Tracker's Track() method.
// Trackers which also implement tracker.MetricsTracker are sent the
// metrics of each finished episode.
type Experiment interface {
	Run() error

	// RunEpisode runs a single episode and returns whether or not the
	// experiment is over
	RunEpisode() (bool, error)

	// Save all tracked data to disk
	Save() error

	// Adds a new tracker.Tracker to the (possibly already running)
	// experiment. Useful if you want to track data only after a
	// specified event.
	Register(t tracker.Tracker)

	// AddCheckpointer adds a checkpointer which is called after each
	// step of the agent
	AddCheckpointer(c checkpointer.Checkpointer)

	// Agent returns the agent being run
	Agent() agent.Agent

	// LastTask returns the task of the most recent episode
	LastTask() navtask.Task

	// Environment returns the environment tasks are run on
	Environment() *robothor.Environment

	// Close stops the simulator
	Close()
}

type Type string

const (
	OnlineExp Type = "OnlineExperiment"
)

// Config represents a configuration of an experiment.
type Config struct {
	Type      `yaml:"type" json:"type"`
	MaxSteps  int               `yaml:"maxSteps" json:"maxSteps"`
	EnvConf   envconfig.Config  `yaml:"env" json:"env"`
	AgentConf agent.TypedConfig `yaml:"agent" json:"agent"`
}

// UnmarshalYAML implements the yaml.Unmarshaler interface. Environment
// settings missing from the document keep their default values.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	type config Config
	raw := config{EnvConf: envconfig.Default()}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*c = Config(raw)
	return nil
}

// Validate returns an error describing why the configuration is not
// usable, if it is not
func (c Config) Validate() error {
	if c.Type != OnlineExp {
		return fmt.Errorf("validate: no such experiment type %q", c.Type)
	}
	if c.MaxSteps <= 0 {
		return fmt.Errorf("validate: max steps must be positive, got %v",
			c.MaxSteps)
	}
	if c.AgentConf.Config == nil {
		return fmt.Errorf("validate: no agent configured")
	}
	if err := c.AgentConf.Validate(); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if err := c.EnvConf.Validate(); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}

// CreateExp creates the experiment described by the configuration.
// The argument trackers are registered with the experiment.
func (c Config) CreateExp(ctx context.Context, seed uint64,
	logger *log.Logger, t ...tracker.Tracker) (Experiment, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("createExp: %w", err)
	}

	s, err := c.EnvConf.CreateSampler(ctx, seed, logger)
	if err != nil {
		return nil, fmt.Errorf("createExp: %w", err)
	}

	a, err := c.AgentConf.CreateAgent(s.ActionSpec(), seed)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("createExp: could not create agent: %w", err)
	}

	switch c.Type {
	case OnlineExp:
		return NewOnline(s, a, c.MaxSteps, logger, t...), nil
	}

	panic(fmt.Sprintf("createExp: no such experiment type %v", c.Type))
}
