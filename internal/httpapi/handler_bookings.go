package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/brandonreznik00/tennis-voice-ai/internal/store"
)

var validate = validator.New()

type createBookingRequest struct {
	CourtNumber int     `json:"courtNumber" validate:"required,min=1"`
	Date        string  `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime   string  `json:"startTime" validate:"required,datetime=15:04"`
	EndTime     string  `json:"endTime" validate:"required,datetime=15:04"`
	MemberName  string  `json:"memberName" validate:"required"`
	MemberPhone string  `json:"memberPhone" validate:"required"`
	CallID      *string `json:"callId"`
}

// ListBookingsHandler returns bookings, optionally filtered to one day via
// the date query parameter (YYYY-MM-DD).
func ListBookingsHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if date := r.URL.Query().Get("date"); date != "" {
			writeJSON(w, http.StatusOK, st.BookingsByDate(date))
			return
		}
		writeJSON(w, http.StatusOK, st.ListBookings())
	}
}

// CreateBookingHandler creates a court booking. An overlap with an
// existing booking on the same court and date is a 409.
func CreateBookingHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createBookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.EndTime <= req.StartTime {
			writeError(w, http.StatusBadRequest, "endTime must be after startTime")
			return
		}

		booking, err := st.CreateBooking(store.Booking{
			CourtNumber: req.CourtNumber,
			Date:        req.Date,
			StartTime:   req.StartTime,
			EndTime:     req.EndTime,
			MemberName:  req.MemberName,
			MemberPhone: req.MemberPhone,
			CallID:      req.CallID,
		})
		if err != nil {
			if errors.Is(err, store.ErrConflict) {
				writeError(w, http.StatusConflict, "court already booked for that time")
				return
			}
			writeError(w, http.StatusInternalServerError, "booking failed")
			return
		}
		writeJSON(w, http.StatusCreated, booking)
	}
}

// DeleteBookingHandler removes a booking by id.
func DeleteBookingHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := st.DeleteBooking(chi.URLParam(r, "id")); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "booking not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "delete failed")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
