package random

import (
	"fmt"

	"github.com/samuelfneumann/navlearn/agent"
	"github.com/samuelfneumann/navlearn/environment"
)

func init() {
	// Register the Config type so that it can be typed using
	// agent.TypedConfig to help with serialization/deserialization.
	agent.Register(agent.Random, Config{})
}

// Config configures a Random agent. If Weights is empty, actions are
// selected uniformly at random.
type Config struct {
	Weights []float64 `yaml:"weights,omitempty" json:"weights,omitempty"`
}

// CreateAgent implements the agent.Config interface
func (c Config) CreateAgent(actions environment.Spec,
	seed uint64) (agent.Agent, error) {
	n := actions.NumActions()

	weights := c.Weights
	if len(weights) == 0 {
		weights = make([]float64, n)
		for i := range weights {
			weights[i] = 1.0 / float64(n)
		}
	} else if len(weights) != n {
		return nil, fmt.Errorf("createAgent: have %v action weights for %v "+
			"actions", len(weights), n)
	}

	return New(weights, seed)
}

// Validate implements the agent.Config interface
func (c Config) Validate() error {
	for i, w := range c.Weights {
		if w < 0 {
			return fmt.Errorf("validate: action %v has negative weight %v",
				i, w)
		}
	}
	return nil
}

// Type implements the agent.Config interface
func (c Config) Type() agent.Type {
	return agent.Random
}
