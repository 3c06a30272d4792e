package navtask

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/navlearn/environment/robothor"
	"gonum.org/v1/gonum/floats"
)

// Goal range thresholds, in meters
const (
	goalRange        float64 = 0.2
	unreachableBound float64 = -0.5
)

var _ Task = &PointNav{}

var pointNavActions = []string{
	robothor.MoveAhead,
	robothor.RotateLeft,
	robothor.RotateRight,
	robothor.End,
}

// PointNavActions returns the simulator action of each PointNav
// action index
func PointNavActions() []string {
	return append([]string(nil), pointNavActions...)
}

// PointNav is a task in which the agent must navigate to within 0.2m
// of a point and then take the END action
type PointNav struct {
	*episode
	target robothor.Vector3
}

// NewPointNav returns a new PointNav task starting at the agent's
// current pose. If ep is not nil, its shortest path is used as the
// optimal path; otherwise the optimal path is computed with the
// environment.
func NewPointNav(env *robothor.Environment, config Config, info *Info,
	ep *EpisodeInfo) (*PointNav, error) {
	if info == nil || info.Target == nil {
		return nil, fmt.Errorf("newPointNav: task info has no target point")
	}

	e, err := newEpisode(env, config, info, pointNavActions, false)
	if err != nil {
		return nil, fmt.Errorf("newPointNav: %w", err)
	}
	p := &PointNav{episode: e, target: *info.Target}
	e.goal = p

	var dist float64
	if ep != nil {
		e.episodeOptimalCorners = ep.ShortestPath
		dist = ep.ShortestPathLength
	} else {
		corners, err := env.PathCorners(robothor.PointTarget(p.target))
		if err != nil {
			return nil, fmt.Errorf("newPointNav: %w", err)
		}
		e.episodeOptimalCorners = corners
		dist = robothor.PathCornersToDist(corners)
	}
	if math.IsInf(dist, 1) {
		e.warnNoPath()
	}

	e.lastGeodesicDistance, err = p.distance()
	if err != nil {
		return nil, fmt.Errorf("newPointNav: %w", err)
	}
	e.optimalDistance = e.lastGeodesicDistance

	return p, nil
}

// Target returns the goal point
func (p *PointNav) Target() robothor.Vector3 {
	return p.target
}

func (p *PointNav) distance() (float64, error) {
	if p.cache != nil {
		d, ok := p.cache.Distance(p.env.SceneName(), p.env.AgentState(),
			p.target)
		if !ok {
			return -1.0, nil
		}
		return d, nil
	}
	return p.env.DistToPoint(p.target)
}

// inRange returns Undetermined, with a warning, if the distance to
// the target is unknown
func (p *PointNav) inRange() (Outcome, error) {
	d, err := p.distance()
	if err != nil {
		return Undetermined, fmt.Errorf("inRange: %w", err)
	}

	switch {
	case d > unreachableBound && d <= goalRange:
		return Succeeded, nil
	case d > goalRange:
		return Failed, nil
	default:
		p.warnNoPath()
		return Undetermined, nil
	}
}

// Metrics implements the Task interface. The total reward is reset
// on every call once the episode is over, so that only the first call
// reports it. Metrics are unavailable if success is Undetermined or
// the final distance to the target is unknown.
func (p *PointNav) Metrics() (*Metrics, error) {
	if !p.IsDone() {
		return nil, nil
	}

	total := floats.Sum(p.stepRewards)
	p.stepRewards = nil

	if p.success == Undetermined {
		return nil, nil
	}

	dist, err := p.distance()
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	if dist <= unreachableBound {
		return nil, nil
	}

	spl, ok := p.spl()
	if !ok {
		return nil, nil
	}

	return &Metrics{
		Success:      p.success == Succeeded,
		EpLength:     p.NumStepsTaken(),
		TotalReward:  total,
		DistToTarget: dist,
		SPL:          spl,
		TaskInfo:     p.info,
	}, nil
}
