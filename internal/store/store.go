// Package store holds the club's volatile state: call records, court
// bookings, and the settings singleton. The current implementation is
// in-memory only; records do not survive a restart.
package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrConflict is returned when a booking overlaps an existing one
	// on the same court and date.
	ErrConflict = errors.New("store: booking conflict")
)

// Store is the persistence surface shared by the relay and the dashboard API.
type Store interface {
	CreateCall(callSID, from, to string) Call
	GetCall(id string) (Call, error)
	GetCallBySID(callSID string) (Call, error)
	ListCalls() []Call
	UpdateCallBySID(callSID string, upd CallUpdate) (Call, error)

	CreateBooking(b Booking) (Booking, error)
	ListBookings() []Booking
	BookingsByDate(date string) []Booking
	DeleteBooking(id string) error

	Settings() ClubSettings
	UpdateSettings(upd SettingsUpdate) ClubSettings
}

// MemStore is the in-memory Store implementation. All methods are safe for
// concurrent use; the relay, webhook handlers, and dashboard observers run
// on separate goroutines.
type MemStore struct {
	mu       sync.RWMutex
	calls    map[string]Call // keyed by record id
	bySID    map[string]string
	bookings map[string]Booking
	settings ClubSettings
}

// NewMemStore creates a store seeded with default club settings.
func NewMemStore() *MemStore {
	return &MemStore{
		calls:    make(map[string]Call),
		bySID:    make(map[string]string),
		bookings: make(map[string]Booking),
		settings: ClubSettings{
			ID:          uuid.NewString(),
			Name:        "Tennis Club",
			OpenTime:    "06:00",
			CloseTime:   "22:00",
			TotalCourts: 4,
		},
	}
}

// CreateCall records a new inbound call in the ringing state.
func (s *MemStore) CreateCall(callSID, from, to string) Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	call := Call{
		ID:         uuid.NewString(),
		CallSID:    callSID,
		FromNumber: from,
		ToNumber:   to,
		Status:     CallStatusRinging,
		StartTime:  time.Now(),
	}
	s.calls[call.ID] = call
	s.bySID[callSID] = call.ID
	return call
}

func (s *MemStore) GetCall(id string) (Call, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	call, ok := s.calls[id]
	if !ok {
		return Call{}, ErrNotFound
	}
	return call, nil
}

func (s *MemStore) GetCallBySID(callSID string) (Call, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.bySID[callSID]
	if !ok {
		return Call{}, ErrNotFound
	}
	return s.calls[id], nil
}

// ListCalls returns all calls, most recent first.
func (s *MemStore) ListCalls() []Call {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Call, 0, len(s.calls))
	for _, c := range s.calls {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out
}

// UpdateCallBySID applies a partial update to the call with the given
// provider call id.
func (s *MemStore) UpdateCallBySID(callSID string, upd CallUpdate) (Call, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.bySID[callSID]
	if !ok {
		return Call{}, ErrNotFound
	}
	call := s.calls[id]
	if upd.Status != nil {
		call.Status = *upd.Status
	}
	if upd.EndTime != nil {
		call.EndTime = upd.EndTime
	}
	if upd.Duration != nil {
		call.Duration = upd.Duration
	}
	if upd.Outcome != nil {
		call.Outcome = upd.Outcome
	}
	if upd.Notes != nil {
		call.Notes = upd.Notes
	}
	if upd.Transcript != nil {
		call.Transcript = upd.Transcript
	}
	s.calls[id] = call
	return call, nil
}

// CreateBooking stores a booking after checking for an overlap on the same
// court and date. The id, status, and creation time are assigned here.
func (s *MemStore) CreateBooking(b Booking) (Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.bookings {
		if existing.Status == BookingCancelled {
			continue
		}
		if existing.CourtNumber == b.CourtNumber && existing.Date == b.Date &&
			overlaps(existing.StartTime, existing.EndTime, b.StartTime, b.EndTime) {
			return Booking{}, ErrConflict
		}
	}
	b.ID = uuid.NewString()
	b.Status = BookingConfirmed
	b.CreatedAt = time.Now()
	s.bookings[b.ID] = b
	return b, nil
}

func (s *MemStore) ListBookings() []Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out
}

func (s *MemStore) BookingsByDate(date string) []Booking {
	return lo.Filter(s.ListBookings(), func(b Booking, _ int) bool {
		return b.Date == date
	})
}

func (s *MemStore) DeleteBooking(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[id]; !ok {
		return ErrNotFound
	}
	delete(s.bookings, id)
	return nil
}

// Settings returns the club settings singleton.
func (s *MemStore) Settings() ClubSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// UpdateSettings applies a partial update to the settings singleton and
// returns the merged record.
func (s *MemStore) UpdateSettings(upd SettingsUpdate) ClubSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	if upd.Name != nil {
		s.settings.Name = *upd.Name
	}
	if upd.PhoneNumber != nil {
		s.settings.PhoneNumber = upd.PhoneNumber
	}
	if upd.OpenTime != nil {
		s.settings.OpenTime = *upd.OpenTime
	}
	if upd.CloseTime != nil {
		s.settings.CloseTime = *upd.CloseTime
	}
	if upd.TotalCourts != nil {
		s.settings.TotalCourts = *upd.TotalCourts
	}
	if upd.ForwardingNumber != nil {
		s.settings.ForwardingNumber = upd.ForwardingNumber
	}
	if upd.ForwardingEnabled != nil {
		s.settings.ForwardingEnabled = *upd.ForwardingEnabled
	}
	if upd.AIInstructions != nil {
		s.settings.AIInstructions = upd.AIInstructions
	}
	return s.settings
}

// overlaps reports whether two HH:MM ranges intersect. Lexicographic
// comparison is sufficient for zero-padded 24h times.
func overlaps(aStart, aEnd, bStart, bEnd string) bool {
	return aStart < bEnd && bStart < aEnd
}
