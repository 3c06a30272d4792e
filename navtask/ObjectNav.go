package navtask

import (
	"fmt"

	"github.com/samuelfneumann/navlearn/environment/robothor"
	"gonum.org/v1/gonum/floats"
)

var _ Task = &ObjectNav{}

var objectNavActions = []string{
	robothor.MoveAhead,
	robothor.RotateLeft,
	robothor.RotateRight,
	robothor.End,
	robothor.LookUp,
	robothor.LookDown,
}

// ObjectNavActions returns the simulator action of each ObjectNav
// action index
func ObjectNavActions() []string {
	return append([]string(nil), objectNavActions...)
}

// ObjectNav is a task in which the agent must take the END action
// while an object of the goal type is visible.
//
// Mirrored episodes swap RotateLeft and RotateRight and flip all rgb
// and depth observations horizontally.
type ObjectNav struct {
	*episode
	objectType string
}

// NewObjectNav returns a new ObjectNav task starting at the agent's
// current pose
func NewObjectNav(env *robothor.Environment, config Config,
	info *Info) (*ObjectNav, error) {
	if info == nil || info.ObjectType == "" {
		return nil, fmt.Errorf("newObjectNav: task info has no object type")
	}

	e, err := newEpisode(env, config, info, objectNavActions, info.Mirrored)
	if err != nil {
		return nil, fmt.Errorf("newObjectNav: %w", err)
	}
	o := &ObjectNav{episode: e, objectType: info.ObjectType}
	e.goal = o

	e.lastGeodesicDistance, err = o.distance()
	if err != nil {
		return nil, fmt.Errorf("newObjectNav: %w", err)
	}
	e.optimalDistance = e.lastGeodesicDistance

	if info.DistanceToTarget == 0 {
		corners, err := env.PathCorners(robothor.ObjectTarget(o.objectType))
		if err != nil {
			return nil, fmt.Errorf("newObjectNav: %w", err)
		}
		e.episodeOptimalCorners = corners
	}

	return o, nil
}

// ObjectType returns the goal object type
func (o *ObjectNav) ObjectType() string {
	return o.objectType
}

// Mirrored returns whether the episode is mirrored
func (o *ObjectNav) Mirrored() bool {
	return o.mirror
}

func (o *ObjectNav) distance() (float64, error) {
	if o.cache != nil {
		d, ok := o.cache.DistanceToObject(o.env.SceneName(),
			o.env.AgentState(), o.objectType)
		if !ok {
			return -1.0, nil
		}
		return d, nil
	}
	return o.env.DistToObject(o.objectType)
}

// inRange returns whether any visible object has the goal type
func (o *ObjectNav) inRange() (Outcome, error) {
	for _, obj := range o.env.VisibleObjects() {
		if obj.ObjectType == o.objectType {
			return Succeeded, nil
		}
	}
	return Failed, nil
}

// Metrics implements the Task interface. Metrics require a distance
// cache and return ErrMetricsUnsupported without one. The total
// reward is reset after each call once the episode is over.
func (o *ObjectNav) Metrics() (*Metrics, error) {
	if !o.IsDone() {
		return nil, nil
	}
	if o.cache == nil {
		return nil, ErrMetricsUnsupported
	}

	dist, ok := o.cache.DistanceToObject(o.env.SceneName(),
		o.env.AgentState(), o.objectType)
	if !ok {
		dist = -1.0
	}

	spl, ok := o.spl()
	if !ok {
		spl = 0.0
	}

	m := &Metrics{
		Success:      o.success == Succeeded,
		EpLength:     o.NumStepsTaken(),
		TotalReward:  floats.Sum(o.stepRewards),
		DistToTarget: dist,
		SPL:          spl,
		TaskInfo:     o.info,
	}
	o.stepRewards = nil
	return m, nil
}
