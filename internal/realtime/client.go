package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"nhooyr.io/websocket"
)

// Client represents one session with the realtime speech API.
// It manages the WebSocket connection, dispatches inbound events to
// subscribed handlers, and provides methods for sending requests.
// The client is safe for concurrent use across multiple goroutines.
//
// Handlers are invoked one at a time from the read loop goroutine, so
// within one client the observed event order is the order the service
// emitted. Handlers should not block.
type Client struct {
	cfg Config // Configuration used to create this client

	// Connection state
	conn       *websocket.Conn    // Underlying WebSocket connection
	writeMu    sync.Mutex         // Protects writes to the WebSocket and conn itself
	readCancel context.CancelFunc // Cancels the read loop when closing
	closedCh   chan struct{}      // Signals when the client is closed
	closeOnce  sync.Once          // Ensures closedCh is only closed once

	readyOnce sync.Once     // Guards readyCh close on session.created
	readyCh   chan struct{} // Closed once the service acknowledges the session

	// Event subscriptions. Each On* call appends a handler; all handlers
	// registered for an event type are invoked in registration order.
	handlerMu         sync.RWMutex
	onError           []func(ErrorEvent)
	onSessionCreated  []func(SessionCreated)
	onSessionUpdated  []func(SessionUpdated)
	onSpeechStarted   []func(InputAudioBufferSpeechStarted)
	onSpeechStopped   []func(InputAudioBufferSpeechStopped)
	onInputCommitted  []func(InputAudioBufferCommitted)
	onResponseCreated []func(ResponseCreated)
	onResponseDone    []func(ResponseDone)
	onAudioDelta      []func(ResponseAudioDelta)
	onAudioDone       []func(ResponseAudioDone)
	onTranscriptDone  []func(ResponseAudioTranscriptDone)
}

// Dial establishes a WebSocket connection to the realtime speech API.
// It validates the configuration, performs the authenticated handshake,
// starts the background read and keepalive goroutines, and then blocks
// until the service acknowledges session creation (or ctx expires).
//
// Call Close when finished to release the connection.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, NewConfigError("Endpoint", cfg.Endpoint, "invalid URL format")
	}

	// Rewrite the HTTP scheme to its WebSocket counterpart.
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws" // For HTTP (mainly for testing)
	}
	u.Path = "/v1/realtime"
	q := u.Query()
	q.Set("model", cfg.Model)
	u.RawQuery = q.Encode()

	h := http.Header{}
	if cfg.HandshakeHeaders != nil {
		for k, vals := range cfg.HandshakeHeaders {
			for _, v := range vals {
				h.Add(k, v)
			}
		}
	}
	h.Set("OpenAI-Beta", "realtime=v1")
	cfg.Credential.apply(h)

	dialCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}

	ws, _, err := websocket.Dial(dialCtx, u.String(), &websocket.DialOptions{HTTPHeader: h})
	if err != nil {
		return nil, NewConnectionError(u.String(), "dial", err)
	}

	c := &Client{
		cfg:      cfg,
		conn:     ws,
		closedCh: make(chan struct{}),
		readyCh:  make(chan struct{}),
	}
	c.log("ws_connected", map[string]any{"url": u.String()})

	rcCtx, cancel := context.WithCancel(context.Background())
	c.readCancel = cancel
	go c.readLoop(rcCtx)
	go c.pingLoop()

	// The session is not usable until the service has acknowledged it.
	select {
	case <-c.readyCh:
		return c, nil
	case <-c.closedCh:
		return nil, NewConnectionError(u.String(), "handshake", ErrClosed)
	case <-dialCtx.Done():
		_ = c.Close()
		return nil, NewConnectionError(u.String(), "handshake", dialCtx.Err())
	}
}

// Close gracefully shuts down the client and releases the connection.
// It is safe to call multiple times and never blocks.
func (c *Client) Close() error {
	if c.readCancel != nil {
		c.readCancel()
	}

	c.writeMu.Lock()
	if c.conn != nil {
		_ = c.conn.Close(websocket.StatusNormalClosure, "closing")
		c.conn = nil
	}
	c.writeMu.Unlock()

	c.closeOnce.Do(func() {
		close(c.closedCh)
	})
	return nil
}

// Connected reports whether the underlying transport is open. Call sites
// use this to avoid racing operations against an in-flight connect or close.
func (c *Client) Connected() bool {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn != nil
}

// Done returns a channel closed when the client has shut down, whether by
// Close or by loss of the underlying connection.
func (c *Client) Done() <-chan struct{} { return c.closedCh }

// Event subscription methods. Callbacks are executed in the read loop
// goroutine, so they should not block.

// OnError subscribes to API error events.
func (c *Client) OnError(fn func(ErrorEvent)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onError = append(c.onError, fn)
}

// OnSessionCreated subscribes to session creation events.
func (c *Client) OnSessionCreated(fn func(SessionCreated)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onSessionCreated = append(c.onSessionCreated, fn)
}

// OnSessionUpdated subscribes to session update events.
func (c *Client) OnSessionUpdated(fn func(SessionUpdated)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onSessionUpdated = append(c.onSessionUpdated, fn)
}

// OnSpeechStarted subscribes to VAD speech-start events.
func (c *Client) OnSpeechStarted(fn func(InputAudioBufferSpeechStarted)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onSpeechStarted = append(c.onSpeechStarted, fn)
}

// OnSpeechStopped subscribes to VAD speech-stop events.
func (c *Client) OnSpeechStopped(fn func(InputAudioBufferSpeechStopped)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onSpeechStopped = append(c.onSpeechStopped, fn)
}

// OnInputCommitted subscribes to input buffer committed events.
func (c *Client) OnInputCommitted(fn func(InputAudioBufferCommitted)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onInputCommitted = append(c.onInputCommitted, fn)
}

// OnResponseCreated subscribes to response accepted events.
func (c *Client) OnResponseCreated(fn func(ResponseCreated)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onResponseCreated = append(c.onResponseCreated, fn)
}

// OnResponseDone subscribes to response completion events.
func (c *Client) OnResponseDone(fn func(ResponseDone)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onResponseDone = append(c.onResponseDone, fn)
}

// OnAudioDelta subscribes to streaming audio response chunks.
func (c *Client) OnAudioDelta(fn func(ResponseAudioDelta)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onAudioDelta = append(c.onAudioDelta, fn)
}

// OnAudioDone subscribes to audio response completion events.
func (c *Client) OnAudioDone(fn func(ResponseAudioDone)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onAudioDone = append(c.onAudioDone, fn)
}

// OnTranscriptDone subscribes to final audio transcript events.
func (c *Client) OnTranscriptDone(fn func(ResponseAudioTranscriptDone)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onTranscriptDone = append(c.onTranscriptDone, fn)
}

// readLoop continuously reads messages from the WebSocket connection.
// It runs in a separate goroutine and handles parsing and event dispatch.
// The loop terminates when the context is canceled or the connection fails.
func (c *Client) readLoop(ctx context.Context) {
	defer func() {
		c.writeMu.Lock()
		if c.conn != nil {
			_ = c.conn.Close(websocket.StatusNormalClosure, "reader_exit")
			c.conn = nil
		}
		c.writeMu.Unlock()
		c.closeOnce.Do(func() {
			close(c.closedCh)
		})
	}()

	for {
		conn := c.connection()
		if conn == nil {
			return
		}
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return // Connection closed or error occurred
		}

		// Only text messages carry JSON events.
		if typ != websocket.MessageText {
			continue
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			// A malformed payload is logged and dropped, never propagated.
			c.logError("bad_event_json", map[string]any{"err": err, "raw_data": string(data)})
			continue
		}

		c.dispatch(env, data)
	}
}

func (c *Client) connection() *websocket.Conn {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn
}

func (c *Client) pingLoop() {
	t := time.NewTicker(20 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-c.closedCh:
			return
		case <-t.C:
			c.writeMu.Lock()
			if c.conn != nil {
				_ = c.conn.Ping(context.Background())
			}
			c.writeMu.Unlock()
		}
	}
}

func (c *Client) dispatch(env envelope, raw []byte) {
	switch env.Type {
	case "error":
		var e ErrorEvent
		_ = json.Unmarshal(raw, &e)
		c.handlerMu.RLock()
		handlers := c.onError
		c.handlerMu.RUnlock()
		for _, fn := range handlers {
			fn(e)
		}
	case "session.created":
		var e SessionCreated
		_ = json.Unmarshal(raw, &e)
		c.readyOnce.Do(func() { close(c.readyCh) })
		c.handlerMu.RLock()
		handlers := c.onSessionCreated
		c.handlerMu.RUnlock()
		for _, fn := range handlers {
			fn(e)
		}
	case "session.updated":
		var e SessionUpdated
		_ = json.Unmarshal(raw, &e)
		c.handlerMu.RLock()
		handlers := c.onSessionUpdated
		c.handlerMu.RUnlock()
		for _, fn := range handlers {
			fn(e)
		}
	case "input_audio_buffer.speech_started":
		var e InputAudioBufferSpeechStarted
		_ = json.Unmarshal(raw, &e)
		c.handlerMu.RLock()
		handlers := c.onSpeechStarted
		c.handlerMu.RUnlock()
		for _, fn := range handlers {
			fn(e)
		}
	case "input_audio_buffer.speech_stopped":
		var e InputAudioBufferSpeechStopped
		_ = json.Unmarshal(raw, &e)
		c.handlerMu.RLock()
		handlers := c.onSpeechStopped
		c.handlerMu.RUnlock()
		for _, fn := range handlers {
			fn(e)
		}
	case "input_audio_buffer.committed":
		var e InputAudioBufferCommitted
		_ = json.Unmarshal(raw, &e)
		c.handlerMu.RLock()
		handlers := c.onInputCommitted
		c.handlerMu.RUnlock()
		for _, fn := range handlers {
			fn(e)
		}
	case "response.created":
		var e ResponseCreated
		_ = json.Unmarshal(raw, &e)
		c.handlerMu.RLock()
		handlers := c.onResponseCreated
		c.handlerMu.RUnlock()
		for _, fn := range handlers {
			fn(e)
		}
	case "response.done":
		var e ResponseDone
		_ = json.Unmarshal(raw, &e)
		c.handlerMu.RLock()
		handlers := c.onResponseDone
		c.handlerMu.RUnlock()
		for _, fn := range handlers {
			fn(e)
		}
	case "response.audio.delta":
		var e ResponseAudioDelta
		_ = json.Unmarshal(raw, &e)
		c.handlerMu.RLock()
		handlers := c.onAudioDelta
		c.handlerMu.RUnlock()
		for _, fn := range handlers {
			fn(e)
		}
	case "response.audio.done":
		var e ResponseAudioDone
		_ = json.Unmarshal(raw, &e)
		c.handlerMu.RLock()
		handlers := c.onAudioDone
		c.handlerMu.RUnlock()
		for _, fn := range handlers {
			fn(e)
		}
	case "response.audio_transcript.done":
		var e ResponseAudioTranscriptDone
		_ = json.Unmarshal(raw, &e)
		c.handlerMu.RLock()
		handlers := c.onTranscriptDone
		c.handlerMu.RUnlock()
		for _, fn := range handlers {
			fn(e)
		}
	default:
		// Log unknown event types for debugging.
		c.log("unknown_event", map[string]any{"type": env.Type})
	}
}

func (c *Client) send(ctx context.Context, payload any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.conn == nil {
		return ErrClosed
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return NewSendError("unknown", fmt.Errorf("marshal payload: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := c.conn.Write(ctx, websocket.MessageText, b); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return NewSendError("unknown", ErrSendTimeout)
		}
		return NewSendError("unknown", err)
	}
	return nil
}

func (c *Client) log(event string, fields map[string]any) {
	if c.cfg.Logger != nil {
		c.cfg.Logger(event, fields)
	}
}

func (c *Client) logError(event string, fields map[string]any) {
	if c.cfg.Logger != nil {
		c.cfg.Logger("ERROR: "+event, fields)
	}
}
