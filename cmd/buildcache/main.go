// Command buildcache precomputes geodesic distances from every
// reachable point of the configured scenes to the configured target
// object types, and optionally to every reachable point, and saves them
// as a distance cache.
//
// Usage:
//
//	buildcache -config env.yaml -out cache.db [-points]
//
// The cache is a SQLite database if out ends in .db, .sqlite or
// .sqlite3, and a compressed cache file if it ends in .zst.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/samuelfneumann/navlearn/distcache"
	"github.com/samuelfneumann/navlearn/environment/envconfig"
	"github.com/samuelfneumann/navlearn/environment/robothor"
	"github.com/samuelfneumann/navlearn/utils/progressbar"
)

func main() {
	configPath := flag.String("config", "", "Path to environment YAML (required)")
	out := flag.String("out", "", "Path of the cache to write (required)")
	types := flag.String("types", "",
		"Comma separated object types, overriding the config")
	points := flag.Bool("points", false, "Also cache distances to points")
	quiet := flag.Bool("quiet", false, "Do not display progress")
	flag.Parse()

	if *configPath == "" || *out == "" {
		log.Fatal("Error: -config and -out flags are required")
	}

	c, err := envconfig.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *types != "" {
		c.Task.TargetTypes = strings.Split(*types, ",")
	}

	var progress io.Writer = os.Stdout
	if *quiet {
		progress = io.Discard
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt,
		syscall.SIGTERM)
	defer cancel()

	logger := log.New(os.Stderr, "buildcache: ", log.LstdFlags)
	if err := build(ctx, c, *out, *points, progress, logger); err != nil {
		logger.Fatal(err)
	}
}

func build(ctx context.Context, c envconfig.Config, out string,
	points bool, progress io.Writer, logger *log.Logger) error {
	d, err := c.CreateDataset()
	if err != nil {
		return err
	}
	scenes := c.Sampler.Scenes
	if len(scenes) == 0 && d != nil {
		scenes = d.Scenes()
	}

	controller, err := c.CreateController(ctx)
	if err != nil {
		return err
	}
	env := robothor.New(controller, c.Environment, 0, logger)
	defer env.Stop()

	cache := distcache.New(c.Environment.GridSize)
	for _, scene := range scenes {
		if err := ctx.Err(); err != nil {
			return err
		}

		targets, err := sceneTargets(env, scene, c.Task.TargetTypes, points)
		if err != nil {
			return err
		}

		bar := progressbar.NewManualProgressBar(progress, 40, 1)
		fmt.Fprintf(progress, "%v: %v targets\n", scene, len(targets))
		skipped, err := distcache.Build(env, scene, targets, cache,
			func(done, total int) {
				bar.Set(done, total)
				bar.Display()
			})
		fmt.Fprintln(progress)
		if err != nil {
			return err
		}
		if skipped > 0 {
			logger.Printf("warning: skipped %v unreachable points in %v",
				skipped, scene)
		}
	}

	logger.Printf("saving %v distances to %v", cache.Len(), out)
	return distcache.Save(ctx, out, cache)
}

// sceneTargets returns the object type targets and, if points is set,
// a point target for every reachable point of the scene
func sceneTargets(env *robothor.Environment, scene string, types []string,
	points bool) ([]robothor.Target, error) {
	targets := make([]robothor.Target, 0, len(types))
	for _, t := range types {
		targets = append(targets, robothor.ObjectTarget(t))
	}
	if !points {
		return targets, nil
	}

	if err := env.Reset(scene); err != nil {
		return nil, err
	}
	reachable, err := env.CurrentlyReachablePoints()
	if err != nil {
		return nil, err
	}
	for _, p := range reachable {
		targets = append(targets, robothor.PointTarget(p))
	}
	return targets, nil
}
