package sqlite

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/havenapp/haven-server/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// insertTestUser creates a minimal user row to satisfy foreign keys.
func insertTestUser(t *testing.T, s *Store, id string) {
	t.Helper()
	now := time.Now()
	user := &domain.User{
		ID:          id,
		Email:       id + "@example.com",
		DisplayName: "Test User",
		LastLoginAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("insert test user %s: %v", id, err)
	}
}

// insertTestSpace creates a space with an owner membership and cloud channel.
// The owner user must already exist.
func insertTestSpace(t *testing.T, s *Store, spaceID, ownerID string) {
	t.Helper()
	now := time.Now()
	space := &domain.Space{
		ID:        spaceID,
		Name:      "Test Space",
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	membership := &domain.Membership{
		ID:        spaceID + "-owner",
		SpaceID:   spaceID,
		UserID:    ownerID,
		Role:      domain.RoleOwner,
		CreatedAt: now,
	}
	cloud := &domain.Channel{
		ID:        spaceID + "-cloud",
		SpaceID:   spaceID,
		Name:      "cloud",
		Type:      domain.ChannelCloud,
		CreatedAt: now,
	}
	if err := s.CreateSpace(context.Background(), space, membership, cloud); err != nil {
		t.Fatalf("insert test space %s: %v", spaceID, err)
	}
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	// Verify WAL mode is set.
	var journalMode string
	err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode)
	if err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}

	// Verify foreign keys are enabled.
	var fk int
	err = s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk)
	if err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("expected foreign_keys=1, got %d", fk)
	}

	// Verify tables exist.
	tables := []string{
		"users", "sessions", "instance",
		"spaces", "memberships", "invites",
		"channels", "channel_attrs", "messages",
		"vaults", "files", "vault_links", "vault_shares",
	}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestOpenClose(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	// Re-open should work (schema is idempotent).
	s2, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("re-open store: %v", err)
	}
	defer s2.Close()
}

func TestFormatTimeLexicographicOrder(t *testing.T) {
	// Expiry queries compare stored strings directly, so the encoding
	// must sort the same way the times do. Whole-second values are the
	// trap: a trimmed encoding would make "10:00:00Z" sort above
	// "10:00:00.5Z".
	whole := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	times := []time.Time{
		whole.Add(-time.Nanosecond),
		whole,
		whole.Add(500 * time.Millisecond),
		whole.Add(time.Second),
	}

	for i := 1; i < len(times); i++ {
		a, b := formatTime(times[i-1]), formatTime(times[i])
		if !(a < b) {
			t.Errorf("encoding not ordered: %q should sort before %q", a, b)
		}
	}

	for _, tm := range times {
		parsed, err := parseTime(formatTime(tm))
		if err != nil {
			t.Fatalf("parseTime: %v", err)
		}
		if !parsed.Equal(tm) {
			t.Errorf("round trip: got %v, want %v", parsed, tm)
		}
	}
}
