package presence

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/havenapp/haven-server/internal/domain"
	"github.com/havenapp/haven-server/internal/store"
)

func newTestPresence(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	s, err := Open(t.TempDir(), ttl, logger)
	if err != nil {
		t.Fatalf("open presence store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSetAndGetPresence(t *testing.T) {
	s := newTestPresence(t, time.Minute)

	p := &domain.Presence{
		UserID:   "user-1",
		Status:   domain.PresenceOnline,
		LastSeen: time.Now(),
	}
	if err := s.SetPresence(p); err != nil {
		t.Fatalf("SetPresence: %v", err)
	}

	got, err := s.GetPresence("user-1")
	if err != nil {
		t.Fatalf("GetPresence: %v", err)
	}
	if got.Status != domain.PresenceOnline {
		t.Errorf("Status: got %q, want %q", got.Status, domain.PresenceOnline)
	}

	_, err = s.GetPresence("user-missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPresenceExpires(t *testing.T) {
	s := newTestPresence(t, 500*time.Millisecond)

	p := &domain.Presence{
		UserID:   "user-1",
		Status:   domain.PresenceOnline,
		LastSeen: time.Now(),
	}
	if err := s.SetPresence(p); err != nil {
		t.Fatalf("SetPresence: %v", err)
	}

	time.Sleep(time.Second)

	_, err := s.GetPresence("user-1")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound after TTL, got %v", err)
	}
}

func TestClearPresence(t *testing.T) {
	s := newTestPresence(t, time.Minute)

	p := &domain.Presence{
		UserID:   "user-1",
		Status:   domain.PresenceBusy,
		LastSeen: time.Now(),
	}
	if err := s.SetPresence(p); err != nil {
		t.Fatalf("SetPresence: %v", err)
	}
	if err := s.ClearPresence("user-1"); err != nil {
		t.Fatalf("ClearPresence: %v", err)
	}
	if _, err := s.GetPresence("user-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListPresence(t *testing.T) {
	s := newTestPresence(t, time.Minute)

	for _, id := range []string{"user-1", "user-2", "user-3"} {
		p := &domain.Presence{UserID: id, Status: domain.PresenceIdle, LastSeen: time.Now()}
		if err := s.SetPresence(p); err != nil {
			t.Fatalf("SetPresence %s: %v", id, err)
		}
	}

	all, err := s.ListPresence()
	if err != nil {
		t.Fatalf("ListPresence: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 entries, got %d", len(all))
	}
}

func TestVoiceOccupancy(t *testing.T) {
	s := newTestPresence(t, time.Minute)

	for _, id := range []string{"user-1", "user-2"} {
		vp := &domain.VoicePresence{ChannelID: "chn-1", UserID: id, JoinedAt: time.Now()}
		if err := s.JoinVoice(vp); err != nil {
			t.Fatalf("JoinVoice %s: %v", id, err)
		}
	}
	// Another channel; must not bleed into chn-1 listings.
	vp := &domain.VoicePresence{ChannelID: "chn-2", UserID: "user-3", JoinedAt: time.Now()}
	if err := s.JoinVoice(vp); err != nil {
		t.Fatalf("JoinVoice user-3: %v", err)
	}

	occupants, err := s.ListVoice("chn-1")
	if err != nil {
		t.Fatalf("ListVoice: %v", err)
	}
	if len(occupants) != 2 {
		t.Fatalf("expected 2 occupants, got %d", len(occupants))
	}

	if err := s.LeaveVoice("chn-1", "user-1"); err != nil {
		t.Fatalf("LeaveVoice: %v", err)
	}
	occupants, err = s.ListVoice("chn-1")
	if err != nil {
		t.Fatalf("ListVoice: %v", err)
	}
	if len(occupants) != 1 || occupants[0].UserID != "user-2" {
		t.Errorf("unexpected occupants: %v", occupants)
	}
}
