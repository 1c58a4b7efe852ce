// Package twilio holds the provider-facing vocabulary of the relay: the
// media-stream event types, TwiML documents, and the minimal REST surface
// needed to redirect a live call.
package twilio

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownEvent is returned by ParseEvent for event discriminators the
// relay does not handle (e.g. provider mark echoes). Callers log and drop.
var ErrUnknownEvent = errors.New("twilio: unknown stream event")

// Event is one inbound media-stream frame, decoded once at the boundary.
// The concrete types are StartEvent, MediaEvent, and StopEvent.
type Event interface{ isEvent() }

// StartEvent carries the identifiers correlating this stream with a call.
type StartEvent struct {
	StreamSID string
	CallSID   string
	Tracks    []string
}

func (*StartEvent) isEvent() {}

// MediaEvent carries one frame of caller audio, already base64-decoded.
// Frames arrive at a fixed ~20/second cadence while the caller line is up.
type MediaEvent struct {
	StreamSID string
	Track     string
	Payload   []byte
}

func (*MediaEvent) isEvent() {}

// StopEvent signals that the provider has ended the stream.
type StopEvent struct {
	StreamSID string
	CallSID   string
}

func (*StopEvent) isEvent() {}

// Wire shapes for inbound frames.

type inboundEnvelope struct {
	Event string `json:"event"`
}

type startMessage struct {
	StreamSID string `json:"streamSid"`
	Start     struct {
		StreamSID  string   `json:"streamSid"`
		CallSID    string   `json:"callSid"`
		AccountSID string   `json:"accountSid"`
		Tracks     []string `json:"tracks"`
	} `json:"start"`
}

type mediaMessage struct {
	StreamSID string `json:"streamSid"`
	Media     struct {
		Track     string `json:"track"`
		Chunk     string `json:"chunk"`
		Timestamp string `json:"timestamp"`
		Payload   string `json:"payload"`
	} `json:"media"`
}

type stopMessage struct {
	StreamSID string `json:"streamSid"`
	Stop      struct {
		CallSID    string `json:"callSid"`
		AccountSID string `json:"accountSid"`
	} `json:"stop"`
}

// ParseEvent decodes one inbound media-stream frame into its tagged
// variant. Media payloads are base64-decoded here so downstream code never
// touches wire encoding. Returns ErrUnknownEvent for discriminators
// outside the start/media/stop set.
func ParseEvent(raw []byte) (Event, error) {
	var env inboundEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("twilio: parse stream frame: %w", err)
	}

	switch env.Event {
	case "start":
		var m startMessage
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("twilio: parse start frame: %w", err)
		}
		streamSID := m.Start.StreamSID
		if streamSID == "" {
			streamSID = m.StreamSID
		}
		return &StartEvent{
			StreamSID: streamSID,
			CallSID:   m.Start.CallSID,
			Tracks:    m.Start.Tracks,
		}, nil
	case "media":
		var m mediaMessage
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("twilio: parse media frame: %w", err)
		}
		payload, err := base64.StdEncoding.DecodeString(m.Media.Payload)
		if err != nil {
			return nil, fmt.Errorf("twilio: decode media payload: %w", err)
		}
		return &MediaEvent{
			StreamSID: m.StreamSID,
			Track:     m.Media.Track,
			Payload:   payload,
		}, nil
	case "stop":
		var m stopMessage
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("twilio: parse stop frame: %w", err)
		}
		return &StopEvent{
			StreamSID: m.StreamSID,
			CallSID:   m.Stop.CallSID,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
}

// Outbound frames written by the relay.

// ConnectedMessage is the immediate ack sent as soon as the provider's
// stream connection is accepted.
type ConnectedMessage struct {
	Event string `json:"event"` // always "connected"
}

// NewConnectedMessage builds the initial ack frame.
func NewConnectedMessage() ConnectedMessage {
	return ConnectedMessage{Event: "connected"}
}

// MediaMessage carries synthesized audio back to the provider, tagged with
// the stream identifier and the outbound track.
type MediaMessage struct {
	Event     string       `json:"event"` // always "media"
	StreamSID string       `json:"streamSid"`
	Media     MediaPayload `json:"media"`
}

// MediaPayload is the audio body of an outbound media frame.
type MediaPayload struct {
	Track   string `json:"track,omitempty"`
	Payload string `json:"payload"` // base64 audio in the stream's codec
}

// NewMediaMessage builds an outbound media frame from raw audio bytes.
func NewMediaMessage(streamSID string, audio []byte) MediaMessage {
	return MediaMessage{
		Event:     "media",
		StreamSID: streamSID,
		Media: MediaPayload{
			Track:   "outbound",
			Payload: base64.StdEncoding.EncodeToString(audio),
		},
	}
}

// MarkMessage is a named checkpoint frame. The relay uses it purely as a
// keep-alive so the provider does not idle out the stream.
type MarkMessage struct {
	Event     string `json:"event"` // always "mark"
	StreamSID string `json:"streamSid"`
	Mark      Mark   `json:"mark"`
}

// Mark is the body of a mark frame.
type Mark struct {
	Name string `json:"name"`
}

// NewMarkMessage builds a mark frame with the given name.
func NewMarkMessage(streamSID, name string) MarkMessage {
	return MarkMessage{Event: "mark", StreamSID: streamSID, Mark: Mark{Name: name}}
}
