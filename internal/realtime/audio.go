package realtime

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
)

// maxAudioChunk bounds one append payload. Telephony frames are ~160 bytes
// at 20ms cadence, so anything near this limit indicates a caller bug.
const maxAudioChunk = 1024 * 1024

// AppendAudio appends one chunk of caller audio to the service's input
// buffer. The bytes must already be in the session's configured input
// format (G.711 mu-law for telephony bridges); they are base64-encoded
// before transmission.
//
// If the session is not open the frame is silently dropped and nil is
// returned: telephony media arrives at a fixed real-time cadence and a
// transient gap around connect/close must not escalate into an error.
func (c *Client) AppendAudio(ctx context.Context, audio []byte) error {
	if ctx == nil {
		return NewSendError("input_audio_buffer.append", errors.New("context cannot be nil"))
	}
	if len(audio) == 0 {
		return nil // Empty chunk is valid (no-op)
	}
	if len(audio) > maxAudioChunk {
		return NewSendError("input_audio_buffer.append",
			fmt.Errorf("audio chunk too large (%d bytes), maximum is %d bytes", len(audio), maxAudioChunk))
	}
	if !c.Connected() {
		c.log("audio_dropped_not_connected", map[string]any{"bytes": len(audio)})
		return nil
	}

	payload := map[string]any{
		"type":  "input_audio_buffer.append",
		"audio": base64.StdEncoding.EncodeToString(audio),
	}
	err := c.send(ctx, payload)
	if errors.Is(err, ErrClosed) {
		// Lost the race against Close; same drop semantics as above.
		return nil
	}
	return err
}

// InputCommit signals that the current caller utterance is complete and
// the buffered audio should be finalized into a conversation item.
func (c *Client) InputCommit(ctx context.Context) error {
	if ctx == nil {
		return NewSendError("input_audio_buffer.commit", errors.New("context cannot be nil"))
	}
	return c.send(ctx, map[string]any{"type": "input_audio_buffer.commit"})
}

// InputClear removes all audio data from the input buffer.
// Use this to discard an utterance before committing.
func (c *Client) InputClear(ctx context.Context) error {
	if ctx == nil {
		return NewSendError("input_audio_buffer.clear", errors.New("context cannot be nil"))
	}
	return c.send(ctx, map[string]any{"type": "input_audio_buffer.clear"})
}

// AudioAssembler collects streaming audio deltas and reassembles them into
// complete per-response audio buffers. Feed it from an OnAudioDelta handler
// and drain it on OnAudioDone.
type AudioAssembler struct{ data map[string][]byte }

// NewAudioAssembler creates a new AudioAssembler instance.
func NewAudioAssembler() *AudioAssembler { return &AudioAssembler{data: make(map[string][]byte)} }

// OnDelta decodes and appends one ResponseAudioDelta chunk.
func (a *AudioAssembler) OnDelta(e ResponseAudioDelta) error {
	b, err := base64.StdEncoding.DecodeString(e.DeltaBase64)
	if err != nil {
		return err
	}
	a.data[e.ResponseID] = append(a.data[e.ResponseID], b...)
	return nil
}

// OnDone retrieves and removes the complete audio for a response ID.
func (a *AudioAssembler) OnDone(id string) []byte {
	buf := a.data[id]
	delete(a.data, id)
	return buf
}
