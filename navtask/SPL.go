package navtask

import (
	"math"

	"github.com/samuelfneumann/navlearn/environment/robothor"
)

// singleSPL returns the success weighted by path length of a
// successful episode with the argument optimal and actual path lengths.
// The boolean return value is false if the optimal length is unknown.
func singleSPL(optimal, actual float64) (float64, bool) {
	if optimal < 0 || math.IsInf(optimal, 0) || math.IsNaN(optimal) {
		return 0.0, false
	}

	denom := math.Max(actual, optimal)
	if denom == 0 {
		return 1.0, true
	}
	return optimal / denom, true
}

// spl returns the SPL of the episode. With a distance cache, the
// actual path length is the number of moves times the grid size.
// Otherwise, it is the length of the realized path compared to the
// optimal corners of the episode.
func (e *episode) spl() (float64, bool) {
	if e.success != Succeeded {
		return 0.0, true
	}

	if e.cache != nil {
		li := e.optimalDistance
		pi := float64(e.numMovesMade) * e.env.Config().GridSize
		return singleSPL(li, pi)
	}
	return singleSPL(robothor.PathCornersToDist(e.episodeOptimalCorners),
		robothor.PathCornersToDist(e.path))
}
