package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/brandonreznik00/tennis-voice-ai/internal/notifier"
	"github.com/brandonreznik00/tennis-voice-ai/internal/store"
	"github.com/brandonreznik00/tennis-voice-ai/internal/twilio"
)

// IncomingCallHandler answers the provider's inbound-call webhook: record
// the call, tell the dashboard a call is ringing, and return TwiML that
// opens the media stream back to us.
func IncomingCallHandler(st store.Store, hub *notifier.Hub, streamURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		callSID := r.PostFormValue("CallSid")
		if callSID == "" {
			http.Error(w, "CallSid is required", http.StatusBadRequest)
			return
		}
		from := r.PostFormValue("From")
		to := r.PostFormValue("To")

		call := st.CreateCall(callSID, from, to)
		hub.CallUpdate(notifier.LiveCall{
			CallSID:    callSID,
			FromNumber: from,
			Status:     store.CallStatusRinging,
			StartTime:  call.StartTime,
		})

		settings := st.Settings()
		greeting := fmt.Sprintf("Thank you for calling %s. One moment while I connect you.", settings.Name)
		doc, err := twilio.ConnectStreamTwiML(greeting, "alice", streamURL)
		if err != nil {
			http.Error(w, "twiml render failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(doc))
	}
}

// StatusCallbackHandler records the provider's call-status transitions.
// The relay owns the happy-path completed transition; this callback is how
// calls that never reached the stream (busy, no-answer, canceled) get
// their terminal state.
func StatusCallbackHandler(st store.Store, hub *notifier.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		callSID := r.PostFormValue("CallSid")
		status := r.PostFormValue("CallStatus")
		if callSID == "" || status == "" {
			http.Error(w, "CallSid and CallStatus are required", http.StatusBadRequest)
			return
		}

		upd := store.CallUpdate{Status: &status}
		if twilio.IsTerminalStatus(status) {
			now := time.Now()
			upd.EndTime = &now
			if d, err := strconv.Atoi(r.PostFormValue("CallDuration")); err == nil {
				upd.Duration = &d
			}
		}
		if _, err := st.UpdateCallBySID(callSID, upd); err != nil {
			// Status callbacks can race the inbound webhook; an unknown
			// call is not the provider's problem.
			w.WriteHeader(http.StatusOK)
			return
		}
		if twilio.IsTerminalStatus(status) {
			hub.CallEnded(callSID)
		}
		w.WriteHeader(http.StatusOK)
	}
}
