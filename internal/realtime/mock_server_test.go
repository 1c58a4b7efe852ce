package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"nhooyr.io/websocket"
)

// MockServer is a test WebSocket server that simulates the realtime speech
// API: it acknowledges the session on connect and answers the client
// requests the relay exercises (session.update, commit, response.create).
type MockServer struct {
	server *httptest.Server
	t      *testing.T

	mu       sync.Mutex
	received []string // event types received from the client, in order
}

// NewMockServer creates a new mock server for testing.
func NewMockServer(t *testing.T) *MockServer {
	ms := &MockServer{t: t}
	ms.server = httptest.NewServer(http.HandlerFunc(ms.handleWebSocket))
	return ms
}

// Close shuts down the mock server.
func (ms *MockServer) Close() {
	ms.server.Close()
}

// Endpoint returns the HTTP base URL of the mock server, suitable for
// Config.Endpoint (Dial rewrites the scheme itself).
func (ms *MockServer) Endpoint() string {
	return ms.server.URL
}

// Received returns the event types received from the client so far.
func (ms *MockServer) Received() []string {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	out := make([]string, len(ms.received))
	copy(out, ms.received)
	return out
}

func (ms *MockServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") == "" && r.Header.Get("api-key") == "" {
		http.Error(w, "Missing authentication", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // For testing only
	})
	if err != nil {
		ms.t.Errorf("failed to upgrade to websocket: %v", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	write := func(payload any) {
		data, err := json.Marshal(payload)
		if err != nil {
			ms.t.Errorf("failed to marshal message: %v", err)
			return
		}
		_ = conn.Write(r.Context(), websocket.MessageText, data)
	}

	// Acknowledge the session immediately, as the real service does.
	write(map[string]any{
		"type":     "session.created",
		"event_id": "evt_mock_session_created",
		"session": map[string]any{
			"id":         "sess_mock_123",
			"model":      "gpt-4o-realtime-preview-2024-10-01",
			"modalities": []string{"text", "audio"},
			"voice":      "alloy",
		},
	})

	for {
		_, data, err := conn.Read(r.Context())
		if err != nil {
			return // Connection closed
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}

		ms.mu.Lock()
		ms.received = append(ms.received, env.Type)
		ms.mu.Unlock()

		switch env.Type {
		case "session.update":
			write(map[string]any{
				"type":     "session.updated",
				"event_id": "evt_mock_session_updated",
				"session":  map[string]any{"updated": true},
			})
		case "input_audio_buffer.commit":
			write(map[string]any{
				"type":     "input_audio_buffer.committed",
				"event_id": "evt_mock_committed",
				"item_id":  "item_mock_1",
			})
		case "response.create":
			write(map[string]any{
				"type":        "response.audio.delta",
				"response_id": "resp_mock_123",
				"item_id":     "item_mock_456",
				"delta":       "f39/fw==", // four bytes of mu-law silence
			})
			write(map[string]any{
				"type":        "response.audio.done",
				"response_id": "resp_mock_123",
				"item_id":     "item_mock_456",
			})
			write(map[string]any{
				"type":     "response.done",
				"event_id": "evt_mock_response_done",
				"response": map[string]any{"id": "resp_mock_123", "status": "completed"},
			})
		}
	}
}

// mockConfig returns a valid config pointing at the mock server.
func mockConfig(endpoint string) Config {
	return Config{
		Endpoint:   endpoint,
		Model:      "gpt-4o-realtime-preview-2024-10-01",
		Credential: Bearer("test-key"),
	}
}

func assertContains(t *testing.T, haystack []string, needle string) {
	t.Helper()
	for _, h := range haystack {
		if h == needle {
			return
		}
	}
	t.Errorf("expected %v to contain %q", haystack, needle)
}
