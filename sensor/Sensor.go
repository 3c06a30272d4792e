// Package sensor implements the sensors which turn the state of a
// robothor.Environment into task observations
package sensor

import (
	"fmt"

	"github.com/samuelfneumann/navlearn/environment/robothor"
	"github.com/samuelfneumann/navlearn/timestep"
	"gorgonia.org/tensor"
)

// Sensor produces a single observation from the environment. The
// returned tensor must not share its backing with the environment so
// that callers may modify it.
type Sensor interface {
	UUID() string
	Observe(env *robothor.Environment, goal robothor.Target) (*tensor.Dense,
		error)
}

// Suite is an ordered collection of sensors with unique uuids
type Suite struct {
	sensors []Sensor
}

// NewSuite returns a new Suite of the argument sensors
func NewSuite(sensors ...Sensor) (*Suite, error) {
	seen := make(map[string]bool, len(sensors))
	for _, s := range sensors {
		if seen[s.UUID()] {
			return nil, fmt.Errorf("newSuite: duplicate sensor uuid %v",
				s.UUID())
		}
		seen[s.UUID()] = true
	}
	return &Suite{sensors}, nil
}

// UUIDs returns the uuids of the sensors in the suite, in order
func (s *Suite) UUIDs() []string {
	uuids := make([]string, len(s.sensors))
	for i := range s.sensors {
		uuids[i] = s.sensors[i].UUID()
	}
	return uuids
}

// Observations returns the observation of each sensor keyed by uuid
func (s *Suite) Observations(env *robothor.Environment,
	goal robothor.Target) (timestep.Observations, error) {
	obs := make(timestep.Observations, len(s.sensors))
	for _, sensor := range s.sensors {
		o, err := sensor.Observe(env, goal)
		if err != nil {
			return nil, fmt.Errorf("observations: sensor %v: %w",
				sensor.UUID(), err)
		}
		obs[sensor.UUID()] = o
	}
	return obs, nil
}
