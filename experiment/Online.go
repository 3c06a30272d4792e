package experiment

import (
	"errors"
	"fmt"
	"log"

	"github.com/samuelfneumann/navlearn/agent"
	"github.com/samuelfneumann/navlearn/environment/robothor"
	"github.com/samuelfneumann/navlearn/experiment/checkpointer"
	"github.com/samuelfneumann/navlearn/experiment/tracker"
	"github.com/samuelfneumann/navlearn/navtask"
	"github.com/samuelfneumann/navlearn/sampler"
	ts "github.com/samuelfneumann/navlearn/timestep"
)

// Online is an Experiment that runs an agent online only. No offline
// evaluation is performed.
type Online struct {
	sampler       *sampler.Sampler
	agent         agent.Agent
	logger        *log.Logger
	maxSteps      int
	currentSteps  int
	episodes      int
	trackers      []tracker.Tracker
	checkpointers []checkpointer.Checkpointer
}

// NewOnline creates and returns a new online experiment which runs an
// agent on the tasks of a sampler. The steps parameter determines how
// many timesteps the experiment is run for, and the t parameter
// is a slice of tracker.Tracker which determine what data is saved.
func NewOnline(s *sampler.Sampler, a agent.Agent, steps int,
	logger *log.Logger, t ...tracker.Tracker) *Online {
	if logger == nil {
		logger = log.Default()
	}
	return &Online{
		sampler:  s,
		agent:    a,
		logger:   logger,
		maxSteps: steps,
		trackers: t,
	}
}

// Register registers a tracker.Tracker with an Experiment so that data
// generated during the experiment can be tracked and saved
func (o *Online) Register(t tracker.Tracker) {
	o.trackers = append(o.trackers, t)
}

// AddCheckpointer implements the Experiment interface
func (o *Online) AddCheckpointer(c checkpointer.Checkpointer) {
	o.checkpointers = append(o.checkpointers, c)
}

// Agent implements the Experiment interface
func (o *Online) Agent() agent.Agent {
	return o.agent
}

// LastTask implements the Experiment interface
func (o *Online) LastTask() navtask.Task {
	return o.sampler.LastSampledTask()
}

// Environment implements the Experiment interface
func (o *Online) Environment() *robothor.Environment {
	return o.sampler.Environment()
}

// Steps returns the number of steps taken so far
func (o *Online) Steps() int {
	return o.currentSteps
}

// Episodes returns the number of episodes started so far
func (o *Online) Episodes() int {
	return o.episodes
}

// RunEpisode runs a single episode of the experiment
func (o *Online) RunEpisode() (bool, error) {
	if o.currentSteps >= o.maxSteps {
		return true, nil
	}

	task, err := o.sampler.NextTask()
	if err != nil {
		return true, fmt.Errorf("runEpisode: %w", err)
	}
	if task == nil {
		return true, nil
	}
	o.episodes++

	step, err := task.Start()
	if err != nil {
		return true, fmt.Errorf("runEpisode: %w", err)
	}
	if err := o.agent.ObserveFirst(step); err != nil {
		return true, fmt.Errorf("runEpisode: %w", err)
	}
	o.track(step)

	// Run the next timestep
	for !step.Last() && o.currentSteps < o.maxSteps {
		o.currentSteps++

		// Select action, step in task
		action := o.agent.SelectAction(step)
		step, err = task.Step(action)
		if err != nil {
			return true, fmt.Errorf("runEpisode: %w", err)
		}

		// Cache the task step in each Tracker
		o.track(step)

		// Observe the timestep and step the agent
		if err := o.agent.Observe(action, step); err != nil {
			return true, fmt.Errorf("runEpisode: %w", err)
		}
		if err := o.agent.Step(); err != nil {
			return true, fmt.Errorf("runEpisode: %w", err)
		}
		if err := o.checkpoint(step); err != nil {
			return true, fmt.Errorf("runEpisode: %w", err)
		}
	}

	if step.Last() {
		o.agent.EndEpisode()
		if err := o.trackMetrics(task); err != nil {
			return true, fmt.Errorf("runEpisode: %w", err)
		}

		info := task.Info()
		o.logger.Printf("episode %v (%v, %v): %v steps, end %v", o.episodes,
			info.Scene, info.Goal(), step.Number, step.EndType())
	}

	// Return whether or not the max timestep limit has been reached
	return o.currentSteps >= o.maxSteps, nil
}

// Run runs the entire experiment for all timesteps
func (o *Online) Run() error {
	ended := false

	for !ended {
		var err error
		if ended, err = o.RunEpisode(); err != nil {
			return fmt.Errorf("run: %w", err)
		}
	}
	return nil
}

// Save saves all the data cached by the Trackers to disk
func (o *Online) Save() error {
	var errs []error
	for _, t := range o.trackers {
		errs = append(errs, t.Save())
	}
	return errors.Join(errs...)
}

// Close implements the Experiment interface
func (o *Online) Close() {
	o.sampler.Close()
}

// track tracks the current timestep by caching its data in each Tracker
func (o *Online) track(t ts.TimeStep) {
	for _, tr := range o.trackers {
		tr.Track(t)
	}
}

// trackMetrics sends the metrics of a finished task to each
// MetricsTracker. Metrics are only computed if some Tracker uses them.
func (o *Online) trackMetrics(task navtask.Task) error {
	var metricsTrackers []tracker.MetricsTracker
	for _, tr := range o.trackers {
		if m, ok := tr.(tracker.MetricsTracker); ok {
			metricsTrackers = append(metricsTrackers, m)
		}
	}
	if len(metricsTrackers) == 0 {
		return nil
	}

	metrics, err := task.Metrics()
	if err != nil {
		return fmt.Errorf("trackMetrics: %w", err)
	}
	for _, m := range metricsTrackers {
		m.TrackMetrics(metrics)
	}
	return nil
}

// checkpoint checkpoints the agent with each Checkpointer
func (o *Online) checkpoint(t ts.TimeStep) error {
	for _, c := range o.checkpointers {
		if err := c.Checkpoint(t); err != nil {
			return err
		}
	}
	return nil
}
