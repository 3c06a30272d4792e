package experiment

import (
	"context"
	"errors"
	"io"
	"log"
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/navlearn/agent"
	"github.com/samuelfneumann/navlearn/agent/random"
	"github.com/samuelfneumann/navlearn/environment/envconfig"
	"github.com/samuelfneumann/navlearn/experiment/checkpointer"
	"github.com/samuelfneumann/navlearn/experiment/tracker"
	"github.com/samuelfneumann/navlearn/navtask"
	"github.com/samuelfneumann/navlearn/sampler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const experimentYAML = `
type: OnlineExperiment
maxSteps: 1000
env:
  environment:
    rotateStepDegrees: 90
    width: 4
    height: 3
  task:
    type: PointNav
    maxSteps: 15
    sensors: [target_coordinates_ind]
  sampler:
    scenes: [Room, Hall]
    maxTasks: 3
agent:
  type: Random
`

func discard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func loadConfig(t *testing.T) Config {
	t.Helper()
	var c Config
	require.NoError(t, yaml.Unmarshal([]byte(experimentYAML), &c))
	return c
}

type counter struct {
	saves int
}

func (c *counter) Save(string) error {
	c.saves++
	return nil
}

func TestConfig(t *testing.T) {
	c := loadConfig(t)
	assert.Equal(t, OnlineExp, c.Type)
	assert.Equal(t, agent.Random, c.AgentConf.Type)
	assert.Equal(t, sampler.PointNav, c.EnvConf.Task.Type)
	assert.Equal(t, envconfig.Default().Environment.GridSize,
		c.EnvConf.Environment.GridSize)
	assert.Equal(t, navtask.DefaultRewards(), c.EnvConf.Task.Rewards)
	require.NoError(t, c.Validate())

	bad := c
	bad.Type = "OfflineExperiment"
	assert.Error(t, bad.Validate())

	bad = c
	bad.MaxSteps = 0
	assert.Error(t, bad.Validate())

	bad = c
	bad.AgentConf = agent.TypedConfig{}
	assert.Error(t, bad.Validate())

	bad = c
	bad.EnvConf.Task.MaxSteps = 0
	assert.Error(t, bad.Validate())
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	ret := tracker.NewReturn(filepath.Join(dir, "return.bin"))
	length := tracker.NewEpisodeLength(filepath.Join(dir, "length.bin"))
	success := tracker.NewSuccess(filepath.Join(dir, "success.bin"))

	exp, err := loadConfig(t).CreateExp(context.Background(), 7, discard(),
		ret, length)
	require.NoError(t, err)
	defer exp.Close()
	exp.Register(success)

	c := &counter{}
	check, err := checkpointer.NewNStep(5, c,
		checkpointer.FilenameEnumerator(0, filepath.Join(dir, "agent"), ".gob"))
	require.NoError(t, err)
	exp.AddCheckpointer(check)
	assert.IsType(t, &random.Random{}, exp.Agent())

	require.NoError(t, exp.Run())
	online := exp.(*Online)
	assert.Equal(t, 3, online.Episodes())

	require.Len(t, length.Lengths(), 3)
	total := 0
	for _, l := range length.Lengths() {
		assert.LessOrEqual(t, l, 15)
		total += l
	}
	assert.Equal(t, total, online.Steps())
	assert.Equal(t, total/5, c.saves)
	assert.Len(t, ret.Returns(), 3)
	assert.Len(t, success.Values(), 3)

	require.NoError(t, exp.Save())
	lengths, err := tracker.LoadData[int](filepath.Join(dir, "length.bin"))
	require.NoError(t, err)
	assert.Equal(t, length.Lengths(), lengths)

	done, err := exp.RunEpisode()
	require.NoError(t, err)
	assert.True(t, done, "sampler exhausted")
}

func TestStepBudget(t *testing.T) {
	c := loadConfig(t)
	c.MaxSteps = 4
	c.EnvConf.Sampler.MaxTasks = 0

	length := tracker.NewEpisodeLength(filepath.Join(t.TempDir(), "l.bin"))
	exp, err := c.CreateExp(context.Background(), 0, discard(), length)
	require.NoError(t, err)
	defer exp.Close()

	require.NoError(t, exp.Run())
	assert.Equal(t, 4, exp.(*Online).Steps())
	for _, l := range length.Lengths() {
		assert.LessOrEqual(t, l, 4)
	}

	done, err := exp.RunEpisode()
	require.NoError(t, err)
	assert.True(t, done)
}

func TestObjectNavMetricsNeedCache(t *testing.T) {
	c := loadConfig(t)
	c.EnvConf.Task.Type = sampler.ObjectNav
	c.EnvConf.Task.TargetTypes = []string{"Apple"}
	c.EnvConf.Task.Sensors = []string{envconfig.GoalObjectType}

	exp, err := c.CreateExp(context.Background(), 0, discard(),
		tracker.NewSPL(filepath.Join(t.TempDir(), "spl.bin")))
	require.NoError(t, err)
	defer exp.Close()

	err = exp.Run()
	assert.True(t, errors.Is(err, navtask.ErrMetricsUnsupported), err)
}
