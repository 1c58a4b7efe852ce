// Package relay bridges one telephony media stream per active call to a
// realtime speech session, in both directions, and tracks the call's
// lifecycle from stream start to teardown.
package relay

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/brandonreznik00/tennis-voice-ai/internal/notifier"
	"github.com/brandonreznik00/tennis-voice-ai/internal/realtime"
	"github.com/brandonreznik00/tennis-voice-ai/internal/registry"
	"github.com/brandonreznik00/tennis-voice-ai/internal/store"
	"github.com/brandonreznik00/tennis-voice-ai/internal/twilio"
)

// SpeechSession is the slice of the realtime client the relay drives.
// *realtime.Client satisfies it; tests substitute a scripted fake.
type SpeechSession interface {
	SessionUpdate(ctx context.Context, s realtime.Session) error
	AppendAudio(ctx context.Context, audio []byte) error
	InputCommit(ctx context.Context) error
	CreateResponse(ctx context.Context) error
	SendGreeting(ctx context.Context) error
	Connected() bool
	Close() error

	OnSpeechStarted(fn func(realtime.InputAudioBufferSpeechStarted))
	OnSpeechStopped(fn func(realtime.InputAudioBufferSpeechStopped))
	OnInputCommitted(fn func(realtime.InputAudioBufferCommitted))
	OnAudioDelta(fn func(realtime.ResponseAudioDelta))
	OnResponseDone(fn func(realtime.ResponseDone))
	OnTranscriptDone(fn func(realtime.ResponseAudioTranscriptDone))
	OnError(fn func(realtime.ErrorEvent))
}

// SpeechDialer opens a new speech session. Production wires realtime.Dial
// with the service credentials; tests wire a fake.
type SpeechDialer func(ctx context.Context) (SpeechSession, error)

// Notifier receives call-state transitions for the dashboard.
type Notifier interface {
	CallUpdate(call notifier.LiveCall)
	CallEnded(callSID string)
}

// Forwarder redirects a live provider call leg. *twilio.RestClient
// satisfies it.
type Forwarder interface {
	RedirectCall(ctx context.Context, callSID, twiml string) error
}

// Relay tuning knobs.
const (
	// settleDelay is how long after stream start to wait before the
	// greeting, so the provider's handshake has fully completed.
	defaultSettleDelay = 500 * time.Millisecond

	// Media frames arrive about every 20ms; a stream silent for longer
	// than defaultIdleTimeout is considered dead and torn down.
	defaultIdleTimeout = 7 * time.Second

	// keepAliveInterval paces outbound mark frames so the provider does
	// not idle out the stream while the assistant is quiet.
	keepAliveInterval = 15 * time.Second

	// audioQueueDepth bounds the per-call inbound audio queue. Frames
	// beyond it are dropped; the fixed telephony cadence must never be
	// throttled by a slow speech socket.
	audioQueueDepth = 64
)

// Config holds the relay's optional tuning overrides.
type Config struct {
	SettleDelay time.Duration // zero means defaultSettleDelay
	IdleTimeout time.Duration // zero means defaultIdleTimeout
}

// Relay owns the media-stream endpoint and the per-call state machines.
type Relay struct {
	store    store.Store
	registry *registry.Registry
	notifier Notifier
	dial     SpeechDialer
	fw       Forwarder
	log      zerolog.Logger

	settleDelay time.Duration
	idleTimeout time.Duration
	upgrader    websocket.Upgrader
}

// New constructs a relay. All collaborators are injected; the relay holds
// no global state.
func New(st store.Store, reg *registry.Registry, n Notifier, dial SpeechDialer, fw Forwarder, log zerolog.Logger, cfg Config) *Relay {
	return &Relay{
		store:       st,
		registry:    reg,
		notifier:    n,
		dial:        dial,
		fw:          fw,
		log:         log,
		settleDelay: lo.Ternary(cfg.SettleDelay > 0, cfg.SettleDelay, defaultSettleDelay),
		idleTimeout: lo.Ternary(cfg.IdleTimeout > 0, cfg.IdleTimeout, defaultIdleTimeout),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// activeCall is the in-flight state of one bridged call. It exists from
// the provider's start event until teardown; every field after conn is set
// during handleStart.
type activeCall struct {
	conn      *websocket.Conn
	writeCh   chan any // outbound provider frames, single writer goroutine
	callSID   string
	streamSID string
	speech    SpeechSession
	startedAt time.Time

	ctx       context.Context
	cancel    context.CancelFunc
	audioCh   chan []byte
	lastMedia chan time.Time // watchdog feed, non-blocking sends
	endOnce   sync.Once
}

// HandleMediaStream is the WebSocket handler for the provider's media
// stream. One connection carries exactly one call.
func (r *Relay) HandleMediaStream(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.log.Warn().Err(err).Msg("media stream upgrade failed")
		return
	}
	r.log.Info().Str("remote", req.RemoteAddr).Msg("media stream connected")

	ctx, cancel := context.WithCancel(context.Background())
	ac := &activeCall{
		conn:      conn,
		writeCh:   make(chan any, audioQueueDepth),
		ctx:       ctx,
		cancel:    cancel,
		audioCh:   make(chan []byte, audioQueueDepth),
		lastMedia: make(chan time.Time, 1),
	}
	go r.writeLoop(ac)

	// Immediate ack; the provider expects traffic as soon as it connects.
	ac.enqueue(twilio.NewConnectedMessage())

	r.readLoop(ac)
}

// readLoop drives the per-call state machine: AWAITING_START until the
// provider's start event, STREAMING until stop/close, then teardown.
func (r *Relay) readLoop(ac *activeCall) {
	started := false
	for {
		_, data, err := ac.conn.ReadMessage()
		if err != nil {
			// Loss of the inbound transport is the call's cancellation
			// signal: it always tears down the paired speech session.
			if started {
				r.teardown(ac, "transport closed")
			} else {
				ac.cancel()
				_ = ac.conn.Close()
			}
			return
		}

		ev, err := twilio.ParseEvent(data)
		if err != nil {
			// One bad frame never takes the stream down.
			if errors.Is(err, twilio.ErrUnknownEvent) {
				r.log.Debug().Err(err).Msg("ignoring stream event")
			} else {
				r.log.Warn().Err(err).Msg("dropping malformed stream frame")
			}
			continue
		}

		switch ev := ev.(type) {
		case *twilio.StartEvent:
			if started {
				r.log.Warn().Str("call_sid", ev.CallSID).Msg("duplicate start event ignored")
				continue
			}
			if err := r.handleStart(ac, ev); err != nil {
				r.log.Error().Err(err).Str("call_sid", ev.CallSID).Msg("failed to start relay session")
				r.markCallFailed(ev.CallSID)
				ac.cancel()
				_ = ac.conn.Close()
				return
			}
			started = true
		case *twilio.MediaEvent:
			if !started {
				continue // media before start carries no usable correlation
			}
			ac.noteMedia()
			select {
			case ac.audioCh <- ev.Payload:
			default:
				// Queue full: drop the frame rather than stall the stream.
				r.log.Debug().Str("call_sid", ac.callSID).Msg("inbound audio frame dropped")
			}
		case *twilio.StopEvent:
			if started {
				r.teardown(ac, "provider stop")
			} else {
				ac.cancel()
				_ = ac.conn.Close()
			}
			return
		}
	}
}

// handleStart performs the AWAITING_START -> STREAMING transition.
// A speech-session failure here is fatal to the call.
func (r *Relay) handleStart(ac *activeCall, ev *twilio.StartEvent) error {
	ac.callSID = ev.CallSID
	ac.streamSID = ev.StreamSID
	ac.startedAt = time.Now()

	speech, err := r.dial(ac.ctx)
	if err != nil {
		return fmt.Errorf("open speech session: %w", err)
	}
	ac.speech = speech

	settings := r.store.Settings()
	instructions := buildInstructions(settings)
	sess := realtime.Session{
		Modalities:        []string{"text", "audio"},
		Voice:             realtime.Ptr("alloy"),
		Instructions:      realtime.Ptr(instructions),
		InputAudioFormat:  realtime.Ptr(realtime.AudioFormatG711Ulaw),
		OutputAudioFormat: realtime.Ptr(realtime.AudioFormatG711Ulaw),
		TurnDetection: &realtime.TurnDetection{
			Type:              "server_vad",
			Threshold:         0.5,
			PrefixPaddingMS:   300,
			SilenceDurationMS: 500,
		},
	}
	if err := speech.SessionUpdate(ac.ctx, sess); err != nil {
		_ = speech.Close()
		return fmt.Errorf("configure speech session: %w", err)
	}

	r.registry.Set(&registry.Session{
		CallSID:   ac.callSID,
		StreamSID: ac.streamSID,
		Media:     ac.conn,
		Speech:    speech,
		StartedAt: ac.startedAt,
	})

	call, err := r.store.UpdateCallBySID(ac.callSID, store.CallUpdate{
		Status: realtime.Ptr(store.CallStatusInProgress),
	})
	if err != nil {
		// A stream for a call the webhook never announced: keep relaying,
		// the record will simply be missing from history.
		r.log.Warn().Err(err).Str("call_sid", ac.callSID).Msg("no call record for stream")
	}
	r.notifier.CallUpdate(notifier.LiveCall{
		CallSID:    ac.callSID,
		FromNumber: call.FromNumber,
		Status:     store.CallStatusInProgress,
		StartTime:  ac.startedAt,
	})

	r.subscribeSpeechEvents(ac)
	go r.pumpAudio(ac)
	go r.watchdog(ac)
	go r.greetAfterSettle(ac)

	r.log.Info().
		Str("call_sid", ac.callSID).
		Str("stream_sid", ac.streamSID).
		Msg("relay session streaming")
	return nil
}

// subscribeSpeechEvents wires the turn-taking policy: VAD speech stop
// commits the input buffer, a committed buffer requests a response, and
// response audio flows back to the provider. Ordering rides on the speech
// client's single dispatch goroutine.
func (r *Relay) subscribeSpeechEvents(ac *activeCall) {
	log := r.log.With().Str("call_sid", ac.callSID).Logger()

	ac.speech.OnSpeechStarted(func(realtime.InputAudioBufferSpeechStarted) {
		log.Debug().Msg("caller speech started")
	})
	ac.speech.OnSpeechStopped(func(realtime.InputAudioBufferSpeechStopped) {
		if err := ac.speech.InputCommit(ac.ctx); err != nil {
			log.Warn().Err(err).Msg("input commit failed")
		}
	})
	ac.speech.OnInputCommitted(func(realtime.InputAudioBufferCommitted) {
		if err := ac.speech.CreateResponse(ac.ctx); err != nil {
			log.Warn().Err(err).Msg("create response failed")
		}
	})
	ac.speech.OnAudioDelta(func(e realtime.ResponseAudioDelta) {
		audio, err := base64.StdEncoding.DecodeString(e.DeltaBase64)
		if err != nil {
			log.Warn().Err(err).Msg("dropping malformed audio delta")
			return
		}
		ac.enqueue(twilio.NewMediaMessage(ac.streamSID, audio))
	})
	ac.speech.OnResponseDone(func(e realtime.ResponseDone) {
		log.Debug().Str("response_id", e.Response.ID).Msg("assistant response complete")
	})
	ac.speech.OnTranscriptDone(func(e realtime.ResponseAudioTranscriptDone) {
		r.appendTranscript(ac.callSID, e.Transcript)
	})
	ac.speech.OnError(func(e realtime.ErrorEvent) {
		// A malformed turn must not end an otherwise healthy call.
		log.Warn().
			Str("error_type", e.Error.Type).
			Str("message", e.Error.Message).
			Msg("speech session error")
	})
}

// pumpAudio forwards queued caller audio to the speech session in receipt
// order. AppendAudio drops silently if the session has gone away.
func (r *Relay) pumpAudio(ac *activeCall) {
	for {
		select {
		case <-ac.ctx.Done():
			return
		case frame := <-ac.audioCh:
			if err := ac.speech.AppendAudio(ac.ctx, frame); err != nil {
				r.log.Warn().Err(err).Str("call_sid", ac.callSID).Msg("append audio failed")
			}
		}
	}
}

// greetAfterSettle sends the opening greeting once the provider handshake
// has had a moment to settle.
func (r *Relay) greetAfterSettle(ac *activeCall) {
	select {
	case <-ac.ctx.Done():
		return
	case <-time.After(r.settleDelay):
	}
	if !ac.speech.Connected() {
		return
	}
	if err := ac.speech.SendGreeting(ac.ctx); err != nil {
		r.log.Warn().Err(err).Str("call_sid", ac.callSID).Msg("greeting failed")
	}
}

// watchdog tears the call down when media stops arriving, and paces
// keep-alive marks while the stream is healthy.
func (r *Relay) watchdog(ac *activeCall) {
	idle := time.NewTicker(time.Second)
	defer idle.Stop()
	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	last := time.Now()
	for {
		select {
		case <-ac.ctx.Done():
			return
		case t := <-ac.lastMedia:
			last = t
		case <-keepAlive.C:
			ac.enqueue(twilio.NewMarkMessage(ac.streamSID, "keepalive"))
		case <-idle.C:
			if time.Since(last) > r.idleTimeout {
				r.log.Warn().
					Str("call_sid", ac.callSID).
					Dur("idle", time.Since(last)).
					Msg("media stream idle, closing")
				r.teardown(ac, "media idle timeout")
				return
			}
		}
	}
}

// writeLoop is the single writer on the provider connection.
func (r *Relay) writeLoop(ac *activeCall) {
	for {
		select {
		case <-ac.ctx.Done():
			return
		case msg := <-ac.writeCh:
			if err := ac.conn.WriteJSON(msg); err != nil {
				r.log.Debug().Err(err).Msg("provider write failed")
				return
			}
		}
	}
}

// enqueue queues an outbound provider frame, dropping it if the writer is
// backed up. Outbound audio is as loss-tolerant as inbound.
func (ac *activeCall) enqueue(msg any) {
	select {
	case ac.writeCh <- msg:
	default:
	}
}

// noteMedia feeds the watchdog without ever blocking the read loop.
func (ac *activeCall) noteMedia() {
	select {
	case ac.lastMedia <- time.Now():
	default:
	}
}

// teardown runs the STREAMING -> ENDED transition exactly once, whatever
// the trigger: provider stop, transport loss, idle timeout, or a control
// command closing the transport out from under the read loop.
func (r *Relay) teardown(ac *activeCall, reason string) {
	ac.endOnce.Do(func() { r.finishCall(ac, reason) })
}

func (r *Relay) finishCall(ac *activeCall, reason string) {
	_ = ac.speech.Close()

	r.registry.Delete(ac.callSID)

	now := time.Now()
	duration := int(now.Sub(ac.startedAt).Seconds())
	if _, err := r.store.UpdateCallBySID(ac.callSID, store.CallUpdate{
		Status:   realtime.Ptr(store.CallStatusCompleted),
		EndTime:  &now,
		Duration: &duration,
	}); err != nil {
		r.log.Warn().Err(err).Str("call_sid", ac.callSID).Msg("final call update failed")
	}

	ac.cancel()
	_ = ac.conn.Close()

	r.notifier.CallEnded(ac.callSID)
	r.log.Info().
		Str("call_sid", ac.callSID).
		Str("reason", reason).
		Int("duration_s", duration).
		Msg("relay session ended")
}

// markCallFailed records a call whose speech session could not be opened.
func (r *Relay) markCallFailed(callSID string) {
	now := time.Now()
	if _, err := r.store.UpdateCallBySID(callSID, store.CallUpdate{
		Status:  realtime.Ptr(store.CallStatusFailed),
		EndTime: &now,
	}); err != nil {
		r.log.Warn().Err(err).Str("call_sid", callSID).Msg("failed-call update failed")
	}
}

// EndCall terminates an active call from the dashboard. An unknown call is
// treated as already ended.
func (r *Relay) EndCall(_ context.Context, callSID string) error {
	sess, ok := r.registry.Get(callSID)
	if !ok {
		r.log.Info().Str("call_sid", callSID).Msg("end_call for inactive call")
		return nil
	}

	// Closing the inbound transport is the cancellation signal: the call's
	// read loop observes it and runs the shared teardown path.
	_ = sess.Speech.Close()
	_ = sess.Media.Close()
	r.registry.Delete(callSID)
	r.log.Info().Str("call_sid", callSID).Msg("call ended by operator")
	return nil
}

// ForwardCall redirects an active call to the configured forwarding
// number. If forwarding is not configured the command is a no-op and the
// call continues undisturbed.
func (r *Relay) ForwardCall(ctx context.Context, callSID string) error {
	sess, ok := r.registry.Get(callSID)
	if !ok {
		r.log.Info().Str("call_sid", callSID).Msg("forward_call for inactive call")
		return nil
	}

	settings := r.store.Settings()
	if !settings.ForwardingEnabled || settings.ForwardingNumber == nil || *settings.ForwardingNumber == "" {
		r.log.Info().Str("call_sid", callSID).Msg("forwarding not configured, call continues")
		return nil
	}

	twiml, err := twilio.DialTwiML(*settings.ForwardingNumber)
	if err != nil {
		return err
	}

	_ = sess.Speech.Close()
	if err := r.fw.RedirectCall(ctx, callSID, twiml); err != nil {
		return fmt.Errorf("forward call %s: %w", callSID, err)
	}
	r.registry.Delete(callSID)

	if _, err := r.store.UpdateCallBySID(callSID, store.CallUpdate{
		Outcome: realtime.Ptr(store.OutcomeForwarded),
	}); err != nil {
		r.log.Warn().Err(err).Str("call_sid", callSID).Msg("forward outcome update failed")
	}
	r.log.Info().
		Str("call_sid", callSID).
		Str("to", *settings.ForwardingNumber).
		Msg("call forwarded")
	// The provider closes the media stream once the redirect lands; that
	// close runs the standard teardown for the record and observers.
	return nil
}

// appendTranscript accumulates assistant transcript lines on the call record.
func (r *Relay) appendTranscript(callSID, line string) {
	if line == "" {
		return
	}
	call, err := r.store.GetCallBySID(callSID)
	if err != nil {
		return
	}
	text := line
	if call.Transcript != nil && *call.Transcript != "" {
		text = *call.Transcript + "\n" + line
	}
	if _, err := r.store.UpdateCallBySID(callSID, store.CallUpdate{Transcript: &text}); err != nil {
		r.log.Warn().Err(err).Str("call_sid", callSID).Msg("transcript update failed")
	}
}

// buildInstructions returns the operator's instruction text, or a default
// generated from the club settings.
func buildInstructions(s store.ClubSettings) string {
	if s.AIInstructions != nil && *s.AIInstructions != "" {
		return *s.AIInstructions
	}
	return fmt.Sprintf(
		"You are Emma, the friendly receptionist for %s. The club is open from %s to %s and has %d courts. "+
			"Help callers book courts, answer questions about the club, and take messages. "+
			"Keep replies short and natural; this is a phone call.",
		s.Name, s.OpenTime, s.CloseTime, s.TotalCourts,
	)
}
