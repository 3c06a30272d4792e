package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samuelfneumann/navlearn/environment/robothor"
)

// Server exposes a robothor.Controller over a websocket. Controllers
// are single threaded, so only one client is served at a time; other
// clients are refused until it disconnects.
type Server struct {
	controller robothor.Controller
	log        *log.Logger

	upgrader websocket.Upgrader
	busy     sync.Mutex
}

// NewServer returns a new Server for the controller. If logger is nil,
// log.Default() is used.
func NewServer(c robothor.Controller, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		controller: c,
		log:        logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:    64 * 1024,
			WriteBufferSize:   64 * 1024,
			EnableCompression: true,
			CheckOrigin:       func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the websocket handler of the server
func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !s.busy.TryLock() {
			http.Error(rw, "simulator busy", http.StatusServiceUnavailable)
			return
		}
		defer s.busy.Unlock()

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		s.log.Printf("client %v connected", r.RemoteAddr)

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					s.log.Printf("client %v: %v", r.RemoteAddr, err)
				}
				return
			}

			var req request
			if err := json.Unmarshal(msg, &req); err != nil {
				s.log.Printf("client %v: bad request: %v", r.RemoteAddr, err)
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseUnsupportedData,
						"bad request"), time.Now().Add(time.Second))
				return
			}

			resp := s.handle(req)
			if err := conn.WriteJSON(resp); err != nil {
				s.log.Printf("client %v: %v", r.RemoteAddr, err)
				return
			}
			if req.Type == TypeStop {
				s.log.Printf("client %v stopped the simulator", r.RemoteAddr)
				return
			}
		}
	}
}

// handle runs a single request against the controller
func (s *Server) handle(req request) response {
	resp := response{ID: req.ID}
	var err error
	switch req.Type {
	case TypeReset:
		resp.Event, err = s.respond(s.controller.Reset(req.Scene))

	case TypeStep:
		if req.Action == nil {
			err = fmt.Errorf("step request has no action")
			break
		}
		resp.Event, err = s.respond(s.controller.Step(*req.Action))

	case TypeShortestPath:
		if req.Target == nil || req.Position == nil {
			err = fmt.Errorf("shortest path request needs a target and " +
				"position")
			break
		}
		var corners []robothor.Vector3
		corners, err = s.controller.ShortestPath(*req.Target, *req.Position,
			req.Rotation)
		if errors.Is(err, robothor.ErrNoPath) {
			resp.NoPath, err = true, nil
		}
		resp.Corners = corners
		if err == nil {
			resp.Event, err = encodeEvent(s.controller.LastEvent())
		}

	case TypeStop:
		err = s.controller.Stop()

	default:
		err = fmt.Errorf("unknown request type %q", req.Type)
	}

	if err != nil {
		resp.Error = err.Error()
	}
	return resp
}

func (s *Server) respond(e robothor.Event, err error) (*event, error) {
	if err != nil {
		return nil, err
	}
	return encodeEvent(e)
}
