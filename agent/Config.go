package agent

import (
	"github.com/samuelfneumann/navlearn/environment"
)

// Config represents a configuration for creating an agent
type Config interface {
	// CreateAgent creates the agent that the config describes for
	// tasks with the argument action specification
	CreateAgent(actions environment.Spec, seed uint64) (Agent, error)

	// Validate returns an error describing whether or not the
	// configuration is valid or not.
	Validate() error

	// Type returns the type of agent the Config creates
	Type() Type
}
