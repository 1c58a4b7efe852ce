package twilio

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseEvent(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString(make([]byte, 160))

	tests := []struct {
		name    string
		raw     string
		want    Event
		wantErr bool
	}{
		{
			name: "start event",
			raw:  `{"event":"start","sequenceNumber":"1","start":{"streamSid":"ST1","callSid":"CA1","accountSid":"AC1","tracks":["inbound"]},"streamSid":"ST1"}`,
			want: &StartEvent{StreamSID: "ST1", CallSID: "CA1", Tracks: []string{"inbound"}},
		},
		{
			name: "media event",
			raw:  `{"event":"media","streamSid":"ST1","media":{"track":"inbound","chunk":"2","timestamp":"40","payload":"` + payload + `"}}`,
			want: &MediaEvent{StreamSID: "ST1", Track: "inbound", Payload: make([]byte, 160)},
		},
		{
			name: "stop event",
			raw:  `{"event":"stop","streamSid":"ST1","stop":{"callSid":"CA1","accountSid":"AC1"}}`,
			want: &StopEvent{StreamSID: "ST1", CallSID: "CA1"},
		},
		{
			name:    "malformed json",
			raw:     `{"event":`,
			wantErr: true,
		},
		{
			name:    "bad media payload",
			raw:     `{"event":"media","streamSid":"ST1","media":{"payload":"@@not-base64@@"}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEvent([]byte(tt.raw))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			switch want := tt.want.(type) {
			case *StartEvent:
				ev, ok := got.(*StartEvent)
				if !ok {
					t.Fatalf("expected *StartEvent, got %T", got)
				}
				if ev.StreamSID != want.StreamSID || ev.CallSID != want.CallSID {
					t.Errorf("unexpected start event: %+v", ev)
				}
			case *MediaEvent:
				ev, ok := got.(*MediaEvent)
				if !ok {
					t.Fatalf("expected *MediaEvent, got %T", got)
				}
				if ev.StreamSID != want.StreamSID || len(ev.Payload) != len(want.Payload) {
					t.Errorf("unexpected media event: stream=%q payload=%d bytes", ev.StreamSID, len(ev.Payload))
				}
			case *StopEvent:
				ev, ok := got.(*StopEvent)
				if !ok {
					t.Fatalf("expected *StopEvent, got %T", got)
				}
				if ev.CallSID != want.CallSID {
					t.Errorf("unexpected stop event: %+v", ev)
				}
			}
		})
	}
}

func TestParseEvent_Unknown(t *testing.T) {
	_, err := ParseEvent([]byte(`{"event":"mark","streamSid":"ST1","mark":{"name":"ack"}}`))
	if !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("expected ErrUnknownEvent, got %v", err)
	}
}

func TestConnectStreamTwiML(t *testing.T) {
	out, err := ConnectStreamTwiML("Hi there! Connecting you now.", "Polly.Joanna", "wss://example.com/media-stream")
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	for _, want := range []string{
		`<Say voice="Polly.Joanna">Hi there! Connecting you now.</Say>`,
		`<Pause length="1">`,
		`<Stream url="wss://example.com/media-stream">`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("twiml missing %q:\n%s", want, out)
		}
	}
	if !strings.HasPrefix(out, "<?xml") {
		t.Error("twiml missing xml header")
	}
}

func TestDialTwiML(t *testing.T) {
	out, err := DialTwiML("+15550042")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "<Dial>+15550042</Dial>") {
		t.Errorf("unexpected dial twiml: %s", out)
	}
}

func TestRestClient_RedirectCall(t *testing.T) {
	var gotPath, gotTwiml, gotUser string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, _, _ = r.BasicAuth()
		_ = r.ParseForm()
		gotTwiml = r.PostFormValue("Twiml")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewRestClient("AC1", "token")
	c.BaseURL = srv.URL

	twiml, _ := DialTwiML("+15550042")
	if err := c.RedirectCall(context.Background(), "CA1", twiml); err != nil {
		t.Fatalf("redirect: %v", err)
	}

	if gotPath != "/2010-04-01/Accounts/AC1/Calls/CA1.json" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotUser != "AC1" {
		t.Errorf("expected basic auth user AC1, got %q", gotUser)
	}
	if !strings.Contains(gotTwiml, "<Dial>") {
		t.Errorf("expected twiml body, got %q", gotTwiml)
	}
}

func TestRestClient_RedirectCallErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewRestClient("AC1", "token")
	c.BaseURL = srv.URL

	if err := c.RedirectCall(context.Background(), "CA_missing", "<Response/>"); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestIsTerminalStatus(t *testing.T) {
	for _, s := range []string{"completed", "failed", "busy", "no-answer", "canceled"} {
		if !IsTerminalStatus(s) {
			t.Errorf("expected %q to be terminal", s)
		}
	}
	for _, s := range []string{"ringing", "in-progress", "queued", ""} {
		if IsTerminalStatus(s) {
			t.Errorf("expected %q not to be terminal", s)
		}
	}
}
