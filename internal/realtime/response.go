package realtime

import (
	"context"
	"errors"
)

// CreateResponse requests the service to synthesize and stream a reply to
// the conversation so far. The reply arrives through the OnAudioDelta /
// OnResponseDone subscriptions.
func (c *Client) CreateResponse(ctx context.Context) error {
	if ctx == nil {
		return NewSendError("response.create", errors.New("context cannot be nil"))
	}
	return c.send(ctx, map[string]any{"type": "response.create"})
}

// CancelResponse cancels an in-progress response.
func (c *Client) CancelResponse(ctx context.Context) error {
	if ctx == nil {
		return NewSendError("response.cancel", errors.New("context cannot be nil"))
	}
	return c.send(ctx, map[string]any{"type": "response.cancel"})
}

// SendGreeting injects a synthetic opening utterance from the caller and
// immediately requests a response, so the assistant speaks first. Used once
// at session start.
func (c *Client) SendGreeting(ctx context.Context) error {
	if ctx == nil {
		return NewSendError("conversation.item.create", errors.New("context cannot be nil"))
	}

	item := map[string]any{
		"type": "conversation.item.create",
		"item": map[string]any{
			"type": "message",
			"role": "user",
			"content": []map[string]any{
				{"type": "input_text", "text": "Hello"},
			},
		},
	}
	if err := c.send(ctx, item); err != nil {
		return err
	}
	return c.CreateResponse(ctx)
}
