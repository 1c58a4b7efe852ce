package store

import "time"

// Call statuses, matching the telephony provider's vocabulary.
const (
	CallStatusRinging    = "ringing"
	CallStatusInProgress = "in-progress"
	CallStatusCompleted  = "completed"
	CallStatusFailed     = "failed"
	CallStatusBusy       = "busy"
	CallStatusNoAnswer   = "no-answer"
	CallStatusCanceled   = "canceled"
)

// Call outcomes recorded when a conversation concludes.
const (
	OutcomeBookingMade      = "booking_made"
	OutcomeInformationGiven = "information_given"
	OutcomeForwarded        = "forwarded"
	OutcomeVoicemail        = "voicemail"
)

// Booking statuses.
const (
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
)

// Call is one phone call handled by the receptionist. Created when the
// inbound webhook fires, updated by the relay at stream start and stop,
// and by the provider's status callback.
type Call struct {
	ID         string     `json:"id"`
	CallSID    string     `json:"callSid"`
	FromNumber string     `json:"fromNumber"`
	ToNumber   string     `json:"toNumber"`
	Status     string     `json:"status"`
	StartTime  time.Time  `json:"startTime"`
	EndTime    *time.Time `json:"endTime"`
	Duration   *int       `json:"duration"` // seconds
	Outcome    *string    `json:"outcome"`
	Notes      *string    `json:"notes"`
	Transcript *string    `json:"transcript"`
}

// CallUpdate is a partial update applied to a Call; nil fields are untouched.
type CallUpdate struct {
	Status     *string
	EndTime    *time.Time
	Duration   *int
	Outcome    *string
	Notes      *string
	Transcript *string
}

// Booking is one court reservation.
type Booking struct {
	ID          string    `json:"id"`
	CourtNumber int       `json:"courtNumber"`
	Date        string    `json:"date"`      // YYYY-MM-DD
	StartTime   string    `json:"startTime"` // HH:MM
	EndTime     string    `json:"endTime"`   // HH:MM
	MemberName  string    `json:"memberName"`
	MemberPhone string    `json:"memberPhone"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	CallID      *string   `json:"callId"` // originating call, if booked over the phone
}

// ClubSettings is the singleton club configuration record. Exactly one
// instance exists; it is seeded with defaults at startup.
type ClubSettings struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	PhoneNumber       *string `json:"phoneNumber"`
	OpenTime          string  `json:"openTime"`  // HH:MM
	CloseTime         string  `json:"closeTime"` // HH:MM
	TotalCourts       int     `json:"totalCourts"`
	ForwardingNumber  *string `json:"forwardingNumber"`
	ForwardingEnabled bool    `json:"forwardingEnabled"`
	AIInstructions    *string `json:"aiInstructions"`
}

// SettingsUpdate is a partial update to ClubSettings; nil fields are untouched.
type SettingsUpdate struct {
	Name              *string `json:"name"`
	PhoneNumber       *string `json:"phoneNumber"`
	OpenTime          *string `json:"openTime"`
	CloseTime         *string `json:"closeTime"`
	TotalCourts       *int    `json:"totalCourts"`
	ForwardingNumber  *string `json:"forwardingNumber"`
	ForwardingEnabled *bool   `json:"forwardingEnabled"`
	AIInstructions    *string `json:"aiInstructions"`
}
