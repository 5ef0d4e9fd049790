package session

import (
	"testing"
	"time"

	"github.com/carebridge/healthmate/internal/models"
)

func seedSession(store Store, identity string, lastActivity time.Time) {
	store.Update(identity, func(s *models.Session) {
		s.EnterFlow(models.FlowOnboarding, models.StepFullName)
		s.LastActivity = lastActivity
	})
}

func TestSweepDestroysIdleSessions(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	seedSession(store, "111111", now.Add(-25*time.Hour))
	seedSession(store, "222222", now.Add(-1*time.Hour))

	var cancelled []string
	reaper := NewReaper(store, func(id string) { cancelled = append(cancelled, id) },
		WithClock(func() time.Time { return now }))

	if swept := reaper.Sweep(); swept != 1 {
		t.Fatalf("expected 1 swept session, got %d", swept)
	}
	if _, ok := store.Peek("111111"); ok {
		t.Error("expected idle session destroyed")
	}
	if _, ok := store.Peek("222222"); !ok {
		t.Error("expected active session retained")
	}
	if len(cancelled) != 1 || cancelled[0] != "111111" {
		t.Errorf("expected reminder cancelled for 111111, got %v", cancelled)
	}
}

func TestSweepRetainsSessionAtExactThreshold(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	threshold := time.Hour

	// Inactivity equal to the threshold is not expired; one nanosecond past
	// it is.
	seedSession(store, "atboundary", now.Add(-threshold))
	seedSession(store, "pastboundary", now.Add(-threshold-time.Nanosecond))

	reaper := NewReaper(store, nil,
		WithIdleThreshold(threshold),
		WithClock(func() time.Time { return now }))

	if swept := reaper.Sweep(); swept != 1 {
		t.Fatalf("expected 1 swept session, got %d", swept)
	}
	if _, ok := store.Peek("atboundary"); !ok {
		t.Error("session exactly at the threshold must be retained")
	}
	if _, ok := store.Peek("pastboundary"); ok {
		t.Error("session past the threshold must be destroyed")
	}
}

func TestSweepClearsFlagsToo(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	store.Update("111111", func(s *models.Session) {
		s.SetFlag(models.FlagOnboarded)
		s.LastActivity = now.Add(-48 * time.Hour)
	})

	reaper := NewReaper(store, nil, WithClock(func() time.Time { return now }))
	reaper.Sweep()

	if _, ok := store.Peek("111111"); ok {
		t.Error("flag-only idle session must be destroyed entirely")
	}
}

func TestSweepEmptyStore(t *testing.T) {
	reaper := NewReaper(NewMemoryStore(), nil)
	if swept := reaper.Sweep(); swept != 0 {
		t.Errorf("expected 0 swept sessions, got %d", swept)
	}
}
