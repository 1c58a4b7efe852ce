package registry

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestRegistry_SetGetDelete(t *testing.T) {
	r := New()

	if _, ok := r.Get("CA1"); ok {
		t.Error("expected empty registry miss")
	}

	r.Set(&Session{CallSID: "CA1", StreamSID: "ST1", StartedAt: time.Now()})
	s, ok := r.Get("CA1")
	if !ok || s.StreamSID != "ST1" {
		t.Fatalf("expected registered session, got %+v ok=%v", s, ok)
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 session, got %d", r.Len())
	}

	r.Delete("CA1")
	if _, ok := r.Get("CA1"); ok {
		t.Error("expected session gone after delete")
	}

	// Deleting a missing key is a no-op, not a panic or error.
	r.Delete("CA1")
	r.Delete("CA_never_existed")
}

func TestRegistry_OneSessionPerCall(t *testing.T) {
	r := New()
	r.Set(&Session{CallSID: "CA1", StreamSID: "ST1"})
	r.Set(&Session{CallSID: "CA1", StreamSID: "ST2"})

	if r.Len() != 1 {
		t.Fatalf("expected one session per call id, got %d", r.Len())
	}
	s, _ := r.Get("CA1")
	if s.StreamSID != "ST2" {
		t.Errorf("expected latest registration to win, got %q", s.StreamSID)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := New()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sid := fmt.Sprintf("CA%d", i)
			r.Set(&Session{CallSID: sid})
			r.Get(sid)
			r.Delete(sid)
		}(i)
	}
	wg.Wait()

	if r.Len() != 0 {
		t.Errorf("expected empty registry after concurrent churn, got %d", r.Len())
	}
}
