// Package realtime provides a WebSocket client for the OpenAI Realtime
// speech API, used by the call relay to hold one AI conversation per phone
// call.
//
// The client handles connection management, event dispatching, session and
// voice-activity-detection configuration, and the audio input buffer
// protocol (append/commit). It speaks the G.711 formats used by telephony
// media streams as well as PCM16.
//
// Basic usage:
//
//	cfg := realtime.Config{
//		Endpoint:   "https://api.openai.com",
//		Model:      "gpt-4o-realtime-preview-2024-10-01",
//		Credential: realtime.Bearer("your-api-key"),
//	}
//	client, err := realtime.Dial(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
// Dial blocks until the service acknowledges the session, so a returned
// client is immediately usable. Inbound events are delivered through the
// On* subscription methods; any number of handlers may subscribe to each
// event and they run in registration order on the read-loop goroutine:
//   - OnAudioDelta: streaming synthesized speech chunks
//   - OnSpeechStarted/OnSpeechStopped: server-side VAD transitions
//   - OnInputCommitted: the input buffer became a conversation item
//   - OnResponseDone: a reply finished
//   - OnError: API errors
package realtime
