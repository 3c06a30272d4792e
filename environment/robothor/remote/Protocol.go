// Package remote serves a robothor.Controller over a websocket and
// implements a Controller client for it. Each request is a JSON text
// message answered by exactly one JSON response with the same id.
package remote

import (
	"fmt"

	"github.com/samuelfneumann/navlearn/environment/robothor"
	"gorgonia.org/tensor"
)

// Request types
const (
	TypeReset        = "reset"
	TypeStep         = "step"
	TypeShortestPath = "shortest_path"
	TypeStop         = "stop"
)

type request struct {
	Type     string            `json:"type"`
	ID       uint64            `json:"id"`
	Scene    string            `json:"scene,omitempty"`
	Action   *robothor.Action  `json:"action,omitempty"`
	Target   *robothor.Target  `json:"target,omitempty"`
	Position *robothor.Vector3 `json:"position,omitempty"`
	Rotation *robothor.Vector3 `json:"rotation,omitempty"`
}

type response struct {
	ID      uint64             `json:"id"`
	Event   *event             `json:"event,omitempty"`
	Corners []robothor.Vector3 `json:"corners,omitempty"`
	NoPath  bool               `json:"no_path,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// event is the wire form of a robothor.Event
type event struct {
	Metadata robothor.Metadata `json:"metadata"`
	Frame    *frame            `json:"frame,omitempty"`
	Depth    *frame            `json:"depth,omitempty"`
}

// frame is the wire form of an image. RGB frames are sent as base64
// bytes and depth frames as float arrays.
type frame struct {
	Shape []int     `json:"shape"`
	RGB   []byte    `json:"rgb,omitempty"`
	Depth []float32 `json:"depth,omitempty"`
}

func encodeEvent(e robothor.Event) (*event, error) {
	w := &event{Metadata: e.Metadata}
	if e.Frame != nil {
		data, ok := e.Frame.Data().([]uint8)
		if !ok {
			return nil, fmt.Errorf("encodeEvent: rgb frame has dtype %v, "+
				"want uint8", e.Frame.Dtype())
		}
		w.Frame = &frame{Shape: e.Frame.Shape().Clone(), RGB: data}
	}
	if e.DepthFrame != nil {
		data, ok := e.DepthFrame.Data().([]float32)
		if !ok {
			return nil, fmt.Errorf("encodeEvent: depth frame has dtype %v, "+
				"want float32", e.DepthFrame.Dtype())
		}
		w.Depth = &frame{Shape: e.DepthFrame.Shape().Clone(), Depth: data}
	}
	return w, nil
}

func decodeEvent(w *event) (robothor.Event, error) {
	if w == nil {
		return robothor.Event{}, fmt.Errorf("decodeEvent: response has no " +
			"event")
	}

	e := robothor.Event{Metadata: w.Metadata}
	if w.Frame != nil {
		if size(w.Frame.Shape) != len(w.Frame.RGB) {
			return robothor.Event{}, fmt.Errorf("decodeEvent: rgb frame of "+
				"shape %v has %v values", w.Frame.Shape, len(w.Frame.RGB))
		}
		e.Frame = tensor.New(tensor.WithShape(w.Frame.Shape...),
			tensor.WithBacking(w.Frame.RGB))
	}
	if w.Depth != nil {
		if size(w.Depth.Shape) != len(w.Depth.Depth) {
			return robothor.Event{}, fmt.Errorf("decodeEvent: depth frame "+
				"of shape %v has %v values", w.Depth.Shape, len(w.Depth.Depth))
		}
		e.DepthFrame = tensor.New(tensor.WithShape(w.Depth.Shape...),
			tensor.WithBacking(w.Depth.Depth))
	}
	return e, nil
}

func size(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}
