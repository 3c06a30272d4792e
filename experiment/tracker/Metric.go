package tracker

import (
	"github.com/samuelfneumann/navlearn/navtask"
	ts "github.com/samuelfneumann/navlearn/timestep"
	"gonum.org/v1/gonum/stat"
)

// Metric tracks and saves one value of the metrics of each finished
// episode
type Metric struct {
	value    func(*navtask.Metrics) float64
	values   []float64
	filename string
}

// NewSuccess returns a Metric which tracks 1.0 for successful episodes
// and 0.0 otherwise
func NewSuccess(filename string) *Metric {
	return &Metric{
		value: func(m *navtask.Metrics) float64 {
			if m.Success {
				return 1.0
			}
			return 0.0
		},
		filename: filename,
	}
}

// NewSPL returns a Metric which tracks the SPL of each episode
func NewSPL(filename string) *Metric {
	return &Metric{
		value:    func(m *navtask.Metrics) float64 { return m.SPL },
		filename: filename,
	}
}

// NewDistanceToTarget returns a Metric which tracks the distance to the
// goal at the end of each episode
func NewDistanceToTarget(filename string) *Metric {
	return &Metric{
		value:    func(m *navtask.Metrics) float64 { return m.DistToTarget },
		filename: filename,
	}
}

// Track implements the Tracker interface. Metrics are only tracked
// through TrackMetrics.
func (m *Metric) Track(ts.TimeStep) {}

// TrackMetrics implements the MetricsTracker interface
func (m *Metric) TrackMetrics(metrics *navtask.Metrics) {
	if metrics == nil {
		return
	}
	m.values = append(m.values, m.value(metrics))
}

// Values returns the tracked values
func (m *Metric) Values() []float64 {
	return m.values
}

// Mean returns the mean of the tracked values, or 0 if none were
// tracked
func (m *Metric) Mean() float64 {
	if len(m.values) == 0 {
		return 0
	}
	return stat.Mean(m.values, nil)
}

// Save saves the tracked values to disk
func (m *Metric) Save() error {
	return save(m.filename, m.values)
}
