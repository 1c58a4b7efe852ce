package realtime

import (
	"net/http"
	"time"
)

// Credential represents an authentication method for the realtime speech API.
// Implementations apply the appropriate authentication headers to the
// WebSocket handshake request.
type Credential interface{ apply(h http.Header) }

// Bearer implements Credential using OAuth2 Bearer token authentication.
// This is the standard method for the OpenAI realtime API.
type Bearer string

// apply adds the Bearer token to the Authorization header.
func (b Bearer) apply(h http.Header) {
	if b != "" {
		h.Set("Authorization", "Bearer "+string(b))
	}
}

// APIKey implements Credential using an "api-key" header.
// Use this with Azure-hosted deployments of the same API surface.
type APIKey string

func (k APIKey) apply(h http.Header) {
	if k != "" {
		h.Set("api-key", string(k))
	}
}

// Config holds all options for creating a realtime speech session client.
type Config struct {
	// Endpoint is the base URL of the realtime API.
	// Format: https://api.openai.com (scheme is rewritten to wss on dial).
	// Required: Yes
	Endpoint string

	// Model is the realtime model to request, passed as the "model"
	// query parameter (e.g. "gpt-4o-realtime-preview-2024-10-01").
	// Required: Yes
	Model string

	// Credential provides authentication for the handshake.
	// Required: Yes
	Credential Credential

	// DialTimeout bounds WebSocket connection establishment.
	// If zero, no timeout is applied.
	DialTimeout time.Duration

	// HandshakeHeaders allows adding custom headers to the handshake request.
	// The OpenAI-Beta header is always set by Dial.
	HandshakeHeaders http.Header

	// Logger is called for significant client events (ws_connected,
	// bad_event_json, unknown_event, ...) with structured fields.
	// If nil, no logging occurs.
	Logger func(event string, fields map[string]any)
}
