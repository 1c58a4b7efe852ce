package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brandonreznik00/tennis-voice-ai/internal/store"
)

// ListCallsHandler returns the call history, most recent first.
func ListCallsHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, st.ListCalls())
	}
}

type createCallRequest struct {
	CallSID    string `json:"callSid" validate:"required"`
	FromNumber string `json:"fromNumber"`
	ToNumber   string `json:"toNumber"`
}

// CreateCallHandler records a call manually, e.g. one taken off-system.
// Webhook-driven calls never come through here.
func CreateCallHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createCallRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		call := st.CreateCall(req.CallSID, req.FromNumber, req.ToNumber)
		writeJSON(w, http.StatusCreated, call)
	}
}

// GetCallHandler returns one call record by its id.
func GetCallHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		call, err := st.GetCall(chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "call not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "lookup failed")
			return
		}
		writeJSON(w, http.StatusOK, call)
	}
}
