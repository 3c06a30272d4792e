package distcache

import (
	"fmt"

	"github.com/samuelfneumann/navlearn/environment/robothor"
)

// Build computes the distance from every reachable point of a scene to
// each target with the environment's path queries, adding them to the
// cache. Points the agent cannot be teleported to are skipped, and
// their number is returned. The progress function, if not nil, is
// called after each point.
//
// The environment is reset to the scene before and after the build.
func Build(env *robothor.Environment, scene string,
	targets []robothor.Target, c *Cache,
	progress func(done, total int)) (skipped int, err error) {
	if env.Config().GridSize != c.GridSize() {
		return 0, fmt.Errorf("build: environment grid size %v does not "+
			"match cache grid size %v", env.Config().GridSize, c.GridSize())
	}
	if err := env.Reset(scene); err != nil {
		return 0, fmt.Errorf("build: %w", err)
	}

	points, err := env.CurrentlyReachablePoints()
	if err != nil {
		return 0, fmt.Errorf("build: %w", err)
	}

	for i, p := range points {
		pose := robothor.Pose{X: p.X, Y: p.Y, Z: p.Z}
		if _, err := env.Step(robothor.Action{Name: robothor.TeleportFull,
			Pose: &pose}); err != nil {
			return skipped, fmt.Errorf("build: %w", err)
		}

		if env.LastActionSuccess() {
			for _, target := range targets {
				d, err := env.AccessGrid(target)
				if err != nil {
					return skipped, fmt.Errorf("build: %w", err)
				}
				c.Add(scene, p, target.Key(), d)
			}
		} else {
			skipped++
		}

		if progress != nil {
			progress(i+1, len(points))
		}
	}

	if err := env.Reset(scene); err != nil {
		return skipped, fmt.Errorf("build: %w", err)
	}
	return skipped, nil
}
