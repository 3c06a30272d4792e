package remote

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/samuelfneumann/navlearn/environment/robothor"
	"github.com/samuelfneumann/navlearn/environment/robothor/gridsim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() robothor.Config {
	config := robothor.DefaultConfig()
	config.RotateStepDegrees = 90
	config.Width, config.Height = 4, 3
	return config
}

func newSim(t *testing.T) *gridsim.Simulator {
	t.Helper()
	sim, err := gridsim.New(testConfig(), gridsim.DemoScenes()...)
	require.NoError(t, err)
	return sim
}

// serve serves a fresh simulator, returning its websocket url
func serve(t *testing.T) string {
	t.Helper()

	srv := httptest.NewServer(NewServer(newSim(t),
		log.New(io.Discard, "", 0)).Handler())
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *Client {
	t.Helper()
	c, err := Dial(context.Background(), url, 0)
	require.NoError(t, err)
	return c
}

func TestClientMatchesLocalSimulator(t *testing.T) {
	url := serve(t)
	client := dial(t, url)
	local := newSim(t)

	remoteEnv := robothor.New(client, testConfig(), 1, nil)
	localEnv := robothor.New(local, testConfig(), 1, nil)
	require.NoError(t, remoteEnv.Reset("Room"))
	require.NoError(t, localEnv.Reset("Room"))

	compare := func() {
		t.Helper()
		want, got := localEnv.LastEvent(), remoteEnv.LastEvent()
		if diff := cmp.Diff(want.Metadata, got.Metadata); diff != "" {
			t.Errorf("metadata mismatch (-local +remote):\n%s", diff)
		}
		assert.Equal(t, want.Frame.Data(), got.Frame.Data())
		assert.Equal(t, []int(want.Frame.Shape()), []int(got.Frame.Shape()))
		assert.Equal(t, want.DepthFrame.Data(), got.DepthFrame.Data())
	}
	compare()

	for _, action := range []string{robothor.MoveAhead, robothor.RotateRight,
		robothor.MoveAhead, robothor.LookDown, "Jump"} {
		_, err := remoteEnv.Step(robothor.Action{Name: action})
		require.NoError(t, err)
		_, err = localEnv.Step(robothor.Action{Name: action})
		require.NoError(t, err)
		compare()
	}

	for _, objectType := range []string{"Apple", "Vase"} {
		want, err := localEnv.DistToObject(objectType)
		require.NoError(t, err)
		got, err := remoteEnv.DistToObject(objectType)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		compare()
	}

	corners, err := remoteEnv.PathCorners(robothor.ObjectTarget("Vase"))
	require.NoError(t, err)
	assert.Empty(t, corners)
}

func TestOneClientAtATime(t *testing.T) {
	url := serve(t)
	first := dial(t, url)

	_, err := Dial(context.Background(), url, 0)
	assert.Error(t, err)

	require.NoError(t, first.Stop())

	// The server frees the simulator once it has answered the stop
	var second *Client
	require.Eventually(t, func() bool {
		second, err = Dial(context.Background(), url, 0)
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	// The simulator itself was stopped by the first client
	_, err = second.Reset("Room")
	assert.Error(t, err)
}

func TestStop(t *testing.T) {
	url := serve(t)
	c := dial(t, url)

	_, err := c.Reset("Hall")
	require.NoError(t, err)
	require.NoError(t, c.Stop())

	_, err = c.Step(robothor.Action{Name: robothor.MoveAhead})
	assert.True(t, errors.Is(err, ErrClosed))
	assert.NoError(t, c.Stop())
}

func TestBadRequests(t *testing.T) {
	url := serve(t)
	c := dial(t, url)

	_, err := c.Step(robothor.Action{Name: robothor.MoveAhead})
	assert.ErrorContains(t, err, "no scene loaded")

	resp, err := c.call(request{Type: "dance"})
	assert.Error(t, err)
	assert.Empty(t, resp.Error)

	resp, err = c.call(request{Type: TypeStep})
	assert.ErrorContains(t, err, "no action")

	// The connection survives failed requests
	e, err := c.Reset("Room")
	require.NoError(t, err)
	assert.True(t, e.Metadata.LastActionSuccess)
}

func TestDecodeEventRejectsBadFrames(t *testing.T) {
	_, err := decodeEvent(nil)
	assert.Error(t, err)

	_, err = decodeEvent(&event{Frame: &frame{Shape: []int{2, 2, 3},
		RGB: []byte{1, 2}}})
	assert.Error(t, err)

	_, err = decodeEvent(&event{Depth: &frame{Shape: []int{1, 2},
		Depth: []float32{1}}})
	assert.Error(t, err)
}
