// Package httpapi exposes the receptionist's HTTP surface: the telephony
// provider's webhooks, the dashboard REST API, and the two WebSocket
// endpoints (media stream and dashboard feed).
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/brandonreznik00/tennis-voice-ai/internal/notifier"
	"github.com/brandonreznik00/tennis-voice-ai/internal/store"
)

// Deps collects the collaborators the router wires handlers to.
type Deps struct {
	Log   zerolog.Logger
	Store store.Store
	Hub   *notifier.Hub

	// MediaStream serves the provider's bidirectional audio WebSocket.
	MediaStream http.HandlerFunc

	// StreamURL is the externally reachable wss:// URL baked into the
	// inbound-webhook TwiML.
	StreamURL string
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(LoggingMiddleware(d.Log))
	r.Use(RecoverMiddleware(d.Log))

	r.Get("/health", HealthHandler())

	// Provider webhooks
	r.Post("/api/twilio/incoming", IncomingCallHandler(d.Store, d.Hub, d.StreamURL))
	r.Post("/api/twilio/status", StatusCallbackHandler(d.Store, d.Hub))

	// Dashboard REST API
	r.Route("/api", func(api chi.Router) {
		api.Get("/calls", ListCallsHandler(d.Store))
		api.Post("/calls", CreateCallHandler(d.Store))
		api.Get("/calls/{id}", GetCallHandler(d.Store))

		api.Get("/bookings", ListBookingsHandler(d.Store))
		api.Post("/bookings", CreateBookingHandler(d.Store))
		api.Delete("/bookings/{id}", DeleteBookingHandler(d.Store))

		api.Get("/settings", GetSettingsHandler(d.Store))
		api.Put("/settings", UpdateSettingsHandler(d.Store))
	})

	// WebSocket endpoints
	r.Get("/ws", d.Hub.ServeWS)
	r.Get("/media-stream", d.MediaStream)

	return r
}
