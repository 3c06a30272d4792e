package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samuelfneumann/navlearn/environment/robothor"
)

// ErrClosed is returned by a Client whose connection was stopped
var ErrClosed = errors.New("remote: client closed")

var _ robothor.Controller = &Client{}

// Client is a robothor.Controller driving a simulator served by a
// Server. A Client must only be used by one goroutine at a time.
type Client struct {
	conn    *websocket.Conn
	timeout time.Duration
	nextID  uint64
	last    robothor.Event
	closed  bool
}

// Dial connects to the Server at url, e.g. "ws://localhost:8080/sim".
// If timeout is positive, each call fails if the simulator does not
// answer in time. Otherwise, calls block until the simulator answers.
func Dial(ctx context.Context, url string, timeout time.Duration) (*Client,
	error) {
	d := websocket.Dialer{
		HandshakeTimeout:  5 * time.Second,
		EnableCompression: true,
	}
	conn, _, err := d.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: could not connect to %v: %w", url, err)
	}
	return &Client{conn: conn, timeout: timeout}, nil
}

// call sends a request and waits for its response
func (c *Client) call(req request) (response, error) {
	if c.closed {
		return response{}, ErrClosed
	}

	c.nextID++
	req.ID = c.nextID

	if c.timeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	}
	if err := c.conn.WriteJSON(req); err != nil {
		return response{}, fmt.Errorf("call: could not send %v: %w", req.Type,
			err)
	}

	if c.timeout > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.timeout))
	}
	var resp response
	if err := c.conn.ReadJSON(&resp); err != nil {
		return response{}, fmt.Errorf("call: could not read %v response: %w",
			req.Type, err)
	}
	if resp.ID != req.ID {
		return response{}, fmt.Errorf("call: response id %v does not match "+
			"request id %v", resp.ID, req.ID)
	}
	if resp.Error != "" {
		return response{}, fmt.Errorf("call: %v: %v", req.Type, resp.Error)
	}
	return resp, nil
}

// event sends a request answered by an event
func (c *Client) event(req request) (robothor.Event, error) {
	resp, err := c.call(req)
	if err != nil {
		return robothor.Event{}, err
	}
	e, err := decodeEvent(resp.Event)
	if err != nil {
		return robothor.Event{}, err
	}
	c.last = e
	return e, nil
}

// Reset implements the robothor.Controller interface
func (c *Client) Reset(scene string) (robothor.Event, error) {
	e, err := c.event(request{Type: TypeReset, Scene: scene})
	if err != nil {
		return robothor.Event{}, fmt.Errorf("reset: %w", err)
	}
	return e, nil
}

// Step implements the robothor.Controller interface
func (c *Client) Step(action robothor.Action) (robothor.Event, error) {
	e, err := c.event(request{Type: TypeStep, Action: &action})
	if err != nil {
		return robothor.Event{}, fmt.Errorf("step: %w", err)
	}
	return e, nil
}

// LastEvent implements the robothor.Controller interface
func (c *Client) LastEvent() robothor.Event {
	return c.last
}

// ShortestPath implements the robothor.Controller interface
func (c *Client) ShortestPath(target robothor.Target,
	position robothor.Vector3, rotation *robothor.Vector3) ([]robothor.Vector3,
	error) {
	resp, err := c.call(request{
		Type:     TypeShortestPath,
		Target:   &target,
		Position: &position,
		Rotation: rotation,
	})
	if err != nil {
		return nil, fmt.Errorf("shortestPath: %w", err)
	}
	if resp.Event != nil {
		if c.last, err = decodeEvent(resp.Event); err != nil {
			return nil, fmt.Errorf("shortestPath: %w", err)
		}
	}
	if resp.NoPath {
		return nil, robothor.ErrNoPath
	}
	return resp.Corners, nil
}

// Stop implements the robothor.Controller interface. The remote
// simulator is stopped and the connection closed. Stopping a closed
// Client does nothing.
func (c *Client) Stop() error {
	if c.closed {
		return nil
	}
	_, err := c.call(request{Type: TypeStop})
	c.closed = true

	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	if closeErr := c.conn.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("stop: %w", err)
	}
	return nil
}
