package realtime

import (
	"context"
	"errors"
	"fmt"
)

// Audio formats accepted by the realtime API. Telephony bridges use the
// G.711 formats, which match the provider's narrowband media streams.
const (
	AudioFormatPCM16    = "pcm16"
	AudioFormatG711Ulaw = "g711_ulaw"
	AudioFormatG711Alaw = "g711_alaw"
)

// Session defines the configuration for a realtime conversation session.
// Use this to set the assistant's instructions, voice, audio formats, and
// voice-activity-detection behavior.
type Session struct {
	// Modalities selects the response types to generate: "text", "audio".
	Modalities []string `json:"modalities,omitempty"`

	// Voice specifies which voice to use for audio responses.
	// Available voices: "alloy", "echo", "fable", "onyx", "nova", "shimmer", "verse"
	Voice *string `json:"voice,omitempty"`

	// Instructions provide system-level guidance to the assistant.
	Instructions *string `json:"instructions,omitempty"`

	// InputAudioFormat specifies the format of audio appended to the input buffer.
	// Supported: "pcm16", "g711_ulaw", "g711_alaw"
	InputAudioFormat *string `json:"input_audio_format,omitempty"`

	// OutputAudioFormat specifies the format of synthesized audio deltas.
	// Supported: "pcm16", "g711_ulaw", "g711_alaw"
	OutputAudioFormat *string `json:"output_audio_format,omitempty"`

	// TurnDetection configures when the service decides a caller turn has ended.
	TurnDetection *TurnDetection `json:"turn_detection,omitempty"`
}

// TurnDetection configures server-side voice activity detection.
type TurnDetection struct {
	Type              string  `json:"type"`                          // "server_vad" for server-side voice activity detection
	Threshold         float64 `json:"threshold,omitempty"`           // Detection sensitivity (0.0-1.0)
	PrefixPaddingMS   int     `json:"prefix_padding_ms,omitempty"`   // Audio included before speech starts (ms)
	SilenceDurationMS int     `json:"silence_duration_ms,omitempty"` // Silence duration to trigger end of turn (ms)
}

// SessionUpdate sends a session configuration update to the API.
// The session must be connected; calling this on a closed client
// returns ErrNotConnected.
func (c *Client) SessionUpdate(ctx context.Context, s Session) error {
	if ctx == nil {
		return NewSendError("session.update", errors.New("context cannot be nil"))
	}
	if !c.Connected() {
		return ErrNotConnected
	}
	if err := ValidateSession(s); err != nil {
		return NewSendError("session.update", err)
	}

	payload := map[string]any{"type": "session.update", "session": s}
	return c.send(ctx, payload)
}

// ValidateSession performs validation on session configuration.
func ValidateSession(s Session) error {
	if s.Voice != nil {
		validVoices := []string{"alloy", "echo", "fable", "onyx", "nova", "shimmer", "verse"}
		valid := false
		for _, v := range validVoices {
			if *s.Voice == v {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("invalid voice %q, must be one of: %v", *s.Voice, validVoices)
		}
	}

	validFormats := []string{AudioFormatPCM16, AudioFormatG711Ulaw, AudioFormatG711Alaw}
	if s.InputAudioFormat != nil {
		valid := false
		for _, f := range validFormats {
			if *s.InputAudioFormat == f {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("invalid input audio format %q, must be one of: %v", *s.InputAudioFormat, validFormats)
		}
	}
	if s.OutputAudioFormat != nil {
		valid := false
		for _, f := range validFormats {
			if *s.OutputAudioFormat == f {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("invalid output audio format %q, must be one of: %v", *s.OutputAudioFormat, validFormats)
		}
	}

	if s.TurnDetection != nil {
		if s.TurnDetection.Type == "" {
			return errors.New("turn detection type cannot be empty")
		}
		if s.TurnDetection.Type != "server_vad" {
			return fmt.Errorf("invalid turn detection type %q, must be 'server_vad'", s.TurnDetection.Type)
		}
		if s.TurnDetection.Threshold < 0.0 || s.TurnDetection.Threshold > 1.0 {
			return fmt.Errorf("turn detection threshold must be between 0.0 and 1.0, got %f", s.TurnDetection.Threshold)
		}
		if s.TurnDetection.PrefixPaddingMS < 0 {
			return fmt.Errorf("prefix padding must be non-negative, got %d", s.TurnDetection.PrefixPaddingMS)
		}
		if s.TurnDetection.SilenceDurationMS < 0 {
			return fmt.Errorf("silence duration must be non-negative, got %d", s.TurnDetection.SilenceDurationMS)
		}
	}

	if s.Instructions != nil && len(*s.Instructions) > 10000 {
		return fmt.Errorf("instructions too long (%d characters), maximum is 10000", len(*s.Instructions))
	}

	return nil
}

// Ptr returns a pointer to the given value. Useful for the optional
// pointer fields of Session.
func Ptr[T any](v T) *T { return &v }
