package navtask

import (
	"fmt"
)

// RewardConfig holds the reward settings of a task. It is fixed for
// the lifetime of the task.
type RewardConfig struct {
	StepPenalty       float64 `yaml:"stepPenalty" json:"step_penalty"`
	GoalSuccessReward float64 `yaml:"goalSuccessReward" json:"goal_success_reward"`
	FailedStopReward  float64 `yaml:"failedStopReward" json:"failed_stop_reward"`

	// ShapingWeight scales the potential-based shaping reward. A weight
	// of 0 disables shaping along with its distance queries.
	ShapingWeight float64 `yaml:"shapingWeight" json:"shaping_weight"`

	// ExplorationShapingWeight rewards each newly visited 1m x 1m,
	// 90 degree cell. It is scaled by ShapingWeight.
	ExplorationShapingWeight float64 `yaml:"explorationShapingWeight" json:"exploration_shaping_weight,omitempty"`

	// UnsuccessfulActionPenalty is added whenever the last action
	// failed
	UnsuccessfulActionPenalty float64 `yaml:"unsuccessfulActionPenalty" json:"unsuccessful_action_penalty,omitempty"`
}

// DefaultRewards returns the default reward settings
func DefaultRewards() RewardConfig {
	return RewardConfig{
		StepPenalty:       -0.01,
		GoalSuccessReward: 10.0,
		FailedStopReward:  0.0,
		ShapingWeight:     1.0,
	}
}

// Validate returns an error if the reward settings are unusable
func (r RewardConfig) Validate() error {
	if r.ShapingWeight < 0 {
		return fmt.Errorf("validate: shaping weight must be non-negative, "+
			"got %v", r.ShapingWeight)
	}
	if r.ExplorationShapingWeight < 0 {
		return fmt.Errorf("validate: exploration shaping weight must be "+
			"non-negative, got %v", r.ExplorationShapingWeight)
	}
	return nil
}

// Exploration cells are 4 x 4 grid cells and 3 rotation steps wide
const (
	explorationXZSubsampling  int = 4
	explorationRotSubsampling int = 3
)

// shaping computes the shaping reward of the last step. The distance
// decrease to the goal is only rewarded when both the last and current
// distances are valid. An unreachable current distance keeps the last
// valid one for the next step.
func (e *episode) shaping() (float64, error) {
	if e.rewards.ShapingWeight == 0.0 {
		return 0.0, nil
	}

	d, err := e.goal.distance()
	if err != nil {
		return 0.0, fmt.Errorf("shaping: %w", err)
	}
	if d < -0.5 {
		d = e.lastGeodesicDistance
	}

	rew := 0.0
	if e.lastGeodesicDistance > -0.5 && d > -0.5 {
		rew += e.lastGeodesicDistance - d
	}
	e.lastGeodesicDistance = d

	if e.rewards.ExplorationShapingWeight != 0.0 {
		rew += e.rewards.ExplorationShapingWeight * float64(e.visit())
	}

	return rew * e.rewards.ShapingWeight, nil
}

// visit marks the agent's exploration cell as visited, returning the
// number of newly visited cells
func (e *episode) visit() int {
	cell := e.env.QuantizedAgentState(explorationXZSubsampling,
		explorationRotSubsampling)
	if _, ok := e.visited[cell]; ok {
		return 0
	}
	e.visited[cell] = struct{}{}
	return 1
}

// judge computes the reward of the last step and records it
func (e *episode) judge() (float64, error) {
	reward := e.rewards.StepPenalty

	shaping, err := e.shaping()
	if err != nil {
		return 0.0, fmt.Errorf("judge: %w", err)
	}
	reward += shaping

	// An END whose outcome is unknown is not penalized as a failure
	undetermined := e.tookEndAction && e.success == Undetermined
	if !e.lastActionSuccess && !undetermined {
		reward += e.rewards.UnsuccessfulActionPenalty
	}

	if e.tookEndAction {
		switch e.success {
		case Succeeded:
			reward += e.rewards.GoalSuccessReward
		case Failed:
			reward += e.rewards.FailedStopReward
		}
	}

	e.stepRewards = append(e.stepRewards, reward)
	return reward, nil
}
