package realtime

// envelope is used for initial JSON parsing to determine the event type
// before unmarshaling into the specific event struct.
type envelope struct {
	Type string `json:"type"`
}

// ErrorEvent represents an error received from the realtime API.
// This covers both API-level errors (authentication, rate limits) and
// conversation-level errors (invalid requests, malformed turns).
type ErrorEvent struct {
	Type  string `json:"type"` // Always "error"
	Error struct {
		Type    string `json:"type,omitempty"`    // Error category (e.g., "invalid_request_error")
		Code    string `json:"code,omitempty"`    // Error code, if any
		Message string `json:"message,omitempty"` // Human-readable error description
	} `json:"error"`
}

// SessionCreated is sent by the server when a new session is established.
// Receipt of this event is the acknowledgement Dial waits for.
type SessionCreated struct {
	Type    string `json:"type"`     // Always "session.created"
	EventID string `json:"event_id"` // Unique identifier for this event
	Session struct {
		ID         string   `json:"id"`                   // Unique session identifier
		Model      string   `json:"model"`                // Model name
		Modalities []string `json:"modalities,omitempty"` // Supported modalities: ["text", "audio"]
		Voice      string   `json:"voice,omitempty"`      // Voice used for audio responses
		ExpiresAt  int64    `json:"expires_at,omitempty"` // Session expiration timestamp (Unix)
	} `json:"session"`
}

// SessionUpdated is sent after a session.update event is applied.
type SessionUpdated struct {
	Type    string `json:"type"`               // Always "session.updated"
	EventID string `json:"event_id,omitempty"` // Event identifier (may be empty)
	Session any    `json:"session"`            // Updated session configuration (dynamic structure)
}

// InputAudioBufferSpeechStarted indicates server-side VAD detected the
// start of caller speech in the input audio buffer.
type InputAudioBufferSpeechStarted struct {
	Type         string `json:"type"`           // Always "input_audio_buffer.speech_started"
	EventID      string `json:"event_id"`       // Unique identifier for this event
	AudioStartMs int    `json:"audio_start_ms"` // Milliseconds from the beginning of the buffer
	ItemID       string `json:"item_id"`        // The ID of the user message item that will be created
}

// InputAudioBufferSpeechStopped indicates server-side VAD detected the
// end of caller speech in the input audio buffer.
type InputAudioBufferSpeechStopped struct {
	Type       string `json:"type"`         // Always "input_audio_buffer.speech_stopped"
	EventID    string `json:"event_id"`     // Unique identifier for this event
	AudioEndMs int    `json:"audio_end_ms"` // Milliseconds from the beginning of the buffer
	ItemID     string `json:"item_id"`      // The ID of the user message item that will be created
}

// InputAudioBufferCommitted indicates that the input audio buffer has been
// finalized into a conversation item.
type InputAudioBufferCommitted struct {
	Type           string `json:"type"`             // Always "input_audio_buffer.committed"
	EventID        string `json:"event_id"`         // Unique identifier for this event
	PreviousItemID string `json:"previous_item_id"` // The ID of the preceding item in the conversation
	ItemID         string `json:"item_id"`          // The ID of the user message item that was created
}

// ResponseCreated indicates that the service accepted a response request.
type ResponseCreated struct {
	Type     string         `json:"type"`     // Always "response.created"
	EventID  string         `json:"event_id"` // Unique identifier for this event
	Response ResponseObject `json:"response"` // The response resource
}

// ResponseDone indicates that a response is complete.
type ResponseDone struct {
	Type     string         `json:"type"`     // Always "response.done"
	EventID  string         `json:"event_id"` // Unique identifier for this event
	Response ResponseObject `json:"response"` // The response resource
}

// ResponseObject is the response resource carried by response lifecycle events.
type ResponseObject struct {
	ID     string `json:"id"`     // Unique response identifier
	Status string `json:"status"` // "in_progress", "completed", "cancelled", "failed"
}

// ResponseAudioDelta contains an incremental chunk of synthesized speech.
// Audio is base64-encoded in the session's configured output format.
type ResponseAudioDelta struct {
	Type         string `json:"type"`          // Always "response.audio.delta"
	ResponseID   string `json:"response_id"`   // Unique identifier for the response
	ItemID       string `json:"item_id"`       // Identifier for the content item
	OutputIndex  int    `json:"output_index"`  // Index of this output in the response
	ContentIndex int    `json:"content_index"` // Index of this content within the output
	DeltaBase64  string `json:"delta"`         // Base64-encoded audio data
}

// ResponseAudioDone signals completion of an audio response stream.
type ResponseAudioDone struct {
	Type         string `json:"type"`          // Always "response.audio.done"
	ResponseID   string `json:"response_id"`   // Unique identifier for the response
	ItemID       string `json:"item_id"`       // Identifier for the content item
	OutputIndex  int    `json:"output_index"`  // Index of this output in the response
	ContentIndex int    `json:"content_index"` // Index of this content within the output
}

// ResponseAudioTranscriptDone carries the final transcript of a completed
// audio response.
type ResponseAudioTranscriptDone struct {
	Type         string `json:"type"`          // Always "response.audio_transcript.done"
	EventID      string `json:"event_id"`      // Unique identifier for this event
	ResponseID   string `json:"response_id"`   // The ID of the response
	ItemID       string `json:"item_id"`       // The ID of the item
	OutputIndex  int    `json:"output_index"`  // The index of the output item
	ContentIndex int    `json:"content_index"` // The index of the content part
	Transcript   string `json:"transcript"`    // The final transcript text
}
