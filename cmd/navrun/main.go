// Command navrun runs an agent on navigation tasks as described by an
// experiment configuration file.
//
// Usage:
//
//	navrun -config experiment.yaml [flags]
//
// Tracked returns and episode lengths are saved to the output
// directory. Success, SPL, and final distance to target are also saved
// for PointNav tasks, and for ObjectNav tasks with a distance cache.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	_ "github.com/samuelfneumann/navlearn/agent/qlearning"
	_ "github.com/samuelfneumann/navlearn/agent/random"
	"github.com/samuelfneumann/navlearn/environment/robothor"
	"github.com/samuelfneumann/navlearn/experiment"
	"github.com/samuelfneumann/navlearn/experiment/checkpointer"
	"github.com/samuelfneumann/navlearn/experiment/tracker"
	"github.com/samuelfneumann/navlearn/navtask"
	"github.com/samuelfneumann/navlearn/sampler"
	ts "github.com/samuelfneumann/navlearn/timestep"
	"github.com/samuelfneumann/navlearn/utils/progressbar"
	"github.com/samuelfneumann/navlearn/viz"
	"gopkg.in/yaml.v3"
)

// progress increments a progress bar on each step of the agent
type progress struct {
	bar *progressbar.ProgressBar
}

func (p progress) Track(t ts.TimeStep) {
	if !t.First() {
		p.bar.Increment()
	}
}

func (p progress) Save() error { return nil }

// optimalPather is implemented by tasks which know their shortest path
type optimalPather interface {
	OptimalPath() []robothor.Vector3
}

func main() {
	configPath := flag.String("config", "", "Path to experiment YAML (required)")
	seed := flag.Uint64("seed", 0, "Random seed")
	out := flag.String("out", ".", "Output directory for tracked data")
	checkpointEvery := flag.Int("checkpoint", 0,
		"Save the agent every n steps (0 to disable)")
	trajectories := flag.Bool("trajectories", false,
		"Draw the trajectory of each episode")
	quiet := flag.Bool("quiet", false, "Do not display a progress bar")
	flag.Parse()

	if *configPath == "" {
		log.Fatal("Error: -config flag is required")
	}
	if err := run(*configPath, *seed, *out, *checkpointEvery, *trajectories,
		*quiet); err != nil {
		log.Fatal(err)
	}
}

func run(configPath string, seed uint64, out string, checkpointEvery int,
	trajectories, quiet bool) error {
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("could not read config: %w", err)
	}
	var c experiment.Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return fmt.Errorf("%v: %w", configPath, err)
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt,
		syscall.SIGTERM)
	defer cancel()

	logger := log.New(os.Stderr, "navrun: ", log.LstdFlags)
	trackers := []tracker.Tracker{
		tracker.NewReturn(filepath.Join(out, "return.bin")),
		tracker.NewEpisodeLength(filepath.Join(out, "length.bin")),
	}
	if c.EnvConf.Task.Type == sampler.PointNav || c.EnvConf.DistanceCache != "" {
		trackers = append(trackers,
			tracker.NewSuccess(filepath.Join(out, "success.bin")),
			tracker.NewSPL(filepath.Join(out, "spl.bin")),
			tracker.NewDistanceToTarget(filepath.Join(out, "dist.bin")),
		)
	}

	exp, err := c.CreateExp(ctx, seed, logger, trackers...)
	if err != nil {
		return err
	}
	defer exp.Close()

	if checkpointEvery > 0 {
		object, ok := exp.Agent().(checkpointer.Serializable)
		if !ok {
			return fmt.Errorf("agent %v cannot be checkpointed",
				c.AgentConf.Type)
		}
		check, err := checkpointer.NewNStep(checkpointEvery, object,
			checkpointer.FilenameEnumerator(0, filepath.Join(out, "agent"),
				".gob"))
		if err != nil {
			return err
		}
		exp.AddCheckpointer(check)
	}

	if !quiet {
		bar := progressbar.NewProgressBar(os.Stdout, 40, c.MaxSteps,
			time.Second)
		exp.Register(progress{bar})
		bar.Display()
		defer bar.Wait()
		defer bar.Close()
	}

	var drawn navtask.Task
	for episode := 0; ; episode++ {
		if ctx.Err() != nil {
			logger.Printf("interrupted, saving data")
			break
		}

		done, err := exp.RunEpisode()
		if err != nil {
			return err
		}

		task := exp.LastTask()
		if trajectories && task != nil && task != drawn && task.IsDone() {
			drawn = task
			var optimal []robothor.Vector3
			if p, ok := task.(optimalPather); ok {
				optimal = p.OptimalPath()
			}
			filename := filepath.Join(out, fmt.Sprintf("episode%v.png",
				episode))
			if err := viz.SaveTrajectory(filename, exp.Environment(),
				task.Info(), optimal, 100); err != nil {
				return err
			}
		}

		if done {
			break
		}
	}

	return exp.Save()
}
