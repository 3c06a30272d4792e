package qlearning

import (
	"fmt"

	"github.com/samuelfneumann/navlearn/agent"
	"github.com/samuelfneumann/navlearn/environment"
)

func init() {
	// Register the Config type so that it can be typed using
	// agent.TypedConfig to help with serialization/deserialization.
	agent.Register(agent.EGreedyQLearning, Config{})
}

// Config implements a configuration of a QLearning agent
type Config struct {
	Epsilon      float64  `yaml:"epsilon" json:"epsilon"`
	LearningRate float64  `yaml:"learningRate" json:"learningRate"`
	Discount     float64  `yaml:"discount" json:"discount"`
	Observations []string `yaml:"observations" json:"observations"`
}

// CreateAgent implements the agent.Config interface
func (c Config) CreateAgent(actions environment.Spec,
	seed uint64) (agent.Agent, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("createAgent: %w", err)
	}
	return New(actions.NumActions(), c.Observations, c.Epsilon,
		c.LearningRate, c.Discount, seed), nil
}

// Validate implements the agent.Config interface
func (c Config) Validate() error {
	if c.Epsilon < 0 || c.Epsilon > 1 {
		return fmt.Errorf("validate: epsilon must be in [0, 1], got %v",
			c.Epsilon)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("validate: learning rate must be positive, got %v",
			c.LearningRate)
	}
	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("validate: discount must be in [0, 1], got %v",
			c.Discount)
	}
	if len(c.Observations) == 0 {
		return fmt.Errorf("validate: no observations to identify states by")
	}
	return nil
}

// Type implements the agent.Config interface
func (c Config) Type() agent.Type {
	return agent.EGreedyQLearning
}
