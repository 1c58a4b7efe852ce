package store

import (
	"errors"
	"testing"
	"time"
)

func TestCallLifecycle(t *testing.T) {
	s := NewMemStore()

	call := s.CreateCall("CA1", "+15550001", "+15550002")
	if call.Status != CallStatusRinging {
		t.Errorf("expected new call status %q, got %q", CallStatusRinging, call.Status)
	}
	if call.EndTime != nil || call.Duration != nil {
		t.Error("expected end time and duration to be unset on creation")
	}

	got, err := s.GetCallBySID("CA1")
	if err != nil {
		t.Fatalf("get by sid: %v", err)
	}
	if got.ID != call.ID {
		t.Errorf("expected id %q, got %q", call.ID, got.ID)
	}

	end := time.Now()
	dur := 42
	status := CallStatusCompleted
	updated, err := s.UpdateCallBySID("CA1", CallUpdate{Status: &status, EndTime: &end, Duration: &dur})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != CallStatusCompleted || updated.Duration == nil || *updated.Duration != 42 {
		t.Errorf("update not applied: %+v", updated)
	}
	// Fields not named in the update stay put.
	if updated.FromNumber != "+15550001" {
		t.Errorf("unrelated field mutated: %q", updated.FromNumber)
	}

	if _, err := s.UpdateCallBySID("CA_unknown", CallUpdate{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown sid, got %v", err)
	}
}

func TestListCallsOrder(t *testing.T) {
	s := NewMemStore()
	s.CreateCall("CA1", "+1", "+2")
	time.Sleep(2 * time.Millisecond)
	s.CreateCall("CA2", "+1", "+2")

	calls := s.ListCalls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if calls[0].CallSID != "CA2" {
		t.Errorf("expected most recent call first, got %q", calls[0].CallSID)
	}
}

func TestBookingConflicts(t *testing.T) {
	s := NewMemStore()

	first := Booking{CourtNumber: 1, Date: "2026-09-01", StartTime: "10:00", EndTime: "11:00",
		MemberName: "Alice", MemberPhone: "+15550003"}
	if _, err := s.CreateBooking(first); err != nil {
		t.Fatalf("first booking rejected: %v", err)
	}

	tests := []struct {
		name    string
		booking Booking
		wantErr error
	}{
		{
			name:    "overlapping same court",
			booking: Booking{CourtNumber: 1, Date: "2026-09-01", StartTime: "10:30", EndTime: "11:30"},
			wantErr: ErrConflict,
		},
		{
			name:    "same slot different court",
			booking: Booking{CourtNumber: 2, Date: "2026-09-01", StartTime: "10:00", EndTime: "11:00"},
			wantErr: nil,
		},
		{
			name:    "same court different date",
			booking: Booking{CourtNumber: 1, Date: "2026-09-02", StartTime: "10:00", EndTime: "11:00"},
			wantErr: nil,
		},
		{
			name:    "back to back is allowed",
			booking: Booking{CourtNumber: 1, Date: "2026-09-01", StartTime: "11:00", EndTime: "12:00"},
			wantErr: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateBooking(tt.booking)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected err %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestBookingsByDate(t *testing.T) {
	s := NewMemStore()
	s.CreateBooking(Booking{CourtNumber: 1, Date: "2026-09-01", StartTime: "10:00", EndTime: "11:00"})
	s.CreateBooking(Booking{CourtNumber: 2, Date: "2026-09-02", StartTime: "10:00", EndTime: "11:00"})

	got := s.BookingsByDate("2026-09-01")
	if len(got) != 1 || got[0].Date != "2026-09-01" {
		t.Errorf("unexpected bookings for date: %+v", got)
	}
}

func TestSettingsSingleton(t *testing.T) {
	s := NewMemStore()

	defaults := s.Settings()
	if defaults.Name != "Tennis Club" || defaults.TotalCourts != 4 {
		t.Errorf("unexpected seeded settings: %+v", defaults)
	}
	if defaults.ForwardingEnabled {
		t.Error("forwarding should be disabled by default")
	}

	number := "+15559999"
	enabled := true
	updated := s.UpdateSettings(SettingsUpdate{ForwardingNumber: &number, ForwardingEnabled: &enabled})
	if updated.ForwardingNumber == nil || *updated.ForwardingNumber != number || !updated.ForwardingEnabled {
		t.Errorf("forwarding update not applied: %+v", updated)
	}
	// Untouched fields keep their defaults.
	if updated.OpenTime != "06:00" || updated.CloseTime != "22:00" {
		t.Errorf("unrelated settings mutated: %+v", updated)
	}
	if updated.ID != defaults.ID {
		t.Error("settings singleton identity changed on update")
	}
}
