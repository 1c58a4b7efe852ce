// Package notifier broadcasts call-state transitions to connected
// dashboard observers over WebSocket and routes their control commands
// (end_call, forward_call) back to the relay.
package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// CallController is the control surface the dashboard drives. The relay
// implements it; commands for calls that are no longer active are no-ops.
type CallController interface {
	EndCall(ctx context.Context, callSID string) error
	ForwardCall(ctx context.Context, callSID string) error
}

// LiveCall is the dashboard's view of an active call.
type LiveCall struct {
	CallSID    string    `json:"callSid"`
	FromNumber string    `json:"fromNumber"`
	Status     string    `json:"status"`
	Duration   int       `json:"duration"` // seconds
	StartTime  time.Time `json:"startTime"`
}

// Frame kinds on the dashboard socket.
const (
	frameCallUpdate  = "call_update"
	frameCallEnded   = "call_ended"
	frameEndCall     = "end_call"
	frameForwardCall = "forward_call"
)

type outboundFrame struct {
	Type    string    `json:"type"`
	Call    *LiveCall `json:"call,omitempty"`
	CallSID string    `json:"callSid,omitempty"`
}

type controlFrame struct {
	Type    string `json:"type"`
	CallSID string `json:"callSid"`
}

// observerBuffer bounds the per-observer send queue. An observer that
// cannot drain this many frames is skipped, never waited on.
const observerBuffer = 16

type observer struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans call-state frames out to every connected dashboard observer.
// Delivery is best-effort and unordered across observers.
type Hub struct {
	log        zerolog.Logger
	controller CallController
	upgrader   websocket.Upgrader

	mu        sync.RWMutex
	observers map[*observer]struct{}
}

// NewHub creates a hub. The controller may be attached later with
// SetController, after the relay is constructed.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		log:       log,
		observers: make(map[*observer]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// SetController attaches the control-command target.
func (h *Hub) SetController(c CallController) { h.controller = c }

// ObserverCount returns the number of connected observers.
func (h *Hub) ObserverCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.observers)
}

// CallUpdate broadcasts a call_update frame to all observers.
func (h *Hub) CallUpdate(call LiveCall) {
	h.broadcast(outboundFrame{Type: frameCallUpdate, Call: &call})
}

// CallEnded broadcasts a call_ended frame to all observers.
func (h *Hub) CallEnded(callSID string) {
	h.broadcast(outboundFrame{Type: frameCallEnded, CallSID: callSID})
}

func (h *Hub) broadcast(frame outboundFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		h.log.Error().Err(err).Str("frame", frame.Type).Msg("marshal dashboard frame")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for obs := range h.observers {
		select {
		case obs.send <- data:
		default:
			// Observer cannot keep up; skip it rather than stall the call path.
			h.log.Debug().Str("frame", frame.Type).Msg("dashboard observer skipped")
		}
	}
}

// ServeWS upgrades the request to a dashboard observer connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("dashboard upgrade failed")
		return
	}

	obs := &observer{conn: conn, send: make(chan []byte, observerBuffer)}
	h.mu.Lock()
	h.observers[obs] = struct{}{}
	h.mu.Unlock()
	h.log.Info().Str("remote", r.RemoteAddr).Msg("dashboard observer connected")

	go h.writePump(obs)
	go h.readPump(obs)
}

func (h *Hub) remove(obs *observer) {
	h.mu.Lock()
	if _, ok := h.observers[obs]; ok {
		delete(h.observers, obs)
		close(obs.send)
	}
	h.mu.Unlock()
}

func (h *Hub) writePump(obs *observer) {
	for data := range obs.send {
		if err := obs.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			break
		}
	}
	_ = obs.conn.Close()
}

func (h *Hub) readPump(obs *observer) {
	defer func() {
		h.remove(obs)
		_ = obs.conn.Close()
		h.log.Info().Msg("dashboard observer disconnected")
	}()

	for {
		_, data, err := obs.conn.ReadMessage()
		if err != nil {
			return
		}

		var frame controlFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			h.log.Warn().Err(err).Msg("malformed dashboard control frame")
			continue
		}
		h.handleControl(frame)
	}
}

func (h *Hub) handleControl(frame controlFrame) {
	if h.controller == nil || frame.CallSID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch frame.Type {
	case frameEndCall:
		if err := h.controller.EndCall(ctx, frame.CallSID); err != nil {
			h.log.Error().Err(err).Str("call_sid", frame.CallSID).Msg("end_call failed")
		}
	case frameForwardCall:
		if err := h.controller.ForwardCall(ctx, frame.CallSID); err != nil {
			h.log.Error().Err(err).Str("call_sid", frame.CallSID).Msg("forward_call failed")
		}
	default:
		h.log.Warn().Str("type", frame.Type).Msg("unknown dashboard control frame")
	}
}
