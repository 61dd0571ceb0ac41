package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/havenapp/haven-server/internal/domain"
	"github.com/havenapp/haven-server/internal/store"
)

func TestInstanceLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Before setup there is no instance.
	_, err := s.GetInstance(ctx)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	now := time.Now()
	inst := &domain.Instance{
		ID:        "ins-1",
		Name:      "Haven Server",
		Version:   "0.1.0",
		LocalURL:  "http://192.168.1.10:8080",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.CreateInstance(ctx, inst); err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}

	// Setup can only happen once.
	if err := s.CreateInstance(ctx, inst); !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}

	got, err := s.GetInstance(ctx)
	if err != nil {
		t.Fatalf("GetInstance: %v", err)
	}
	if got.Name != "Haven Server" {
		t.Errorf("Name: got %q, want %q", got.Name, "Haven Server")
	}
	if got.RemoteURL != "" {
		t.Errorf("RemoteURL: got %q, want empty", got.RemoteURL)
	}
	if got.HasRootUser {
		t.Error("HasRootUser: expected false with no users")
	}

	// A root user flips the flag.
	root := makeTestUser("user-1", "root@example.com")
	root.IsRoot = true
	if err := s.CreateUser(ctx, root); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	got, err = s.GetInstance(ctx)
	if err != nil {
		t.Fatalf("GetInstance: %v", err)
	}
	if !got.HasRootUser {
		t.Error("HasRootUser: expected true")
	}

	// Updates persist.
	got.RemoteURL = "https://haven.example.com"
	got.UpdatedAt = time.Now()
	if err := s.UpdateInstance(ctx, got); err != nil {
		t.Fatalf("UpdateInstance: %v", err)
	}
	got, err = s.GetInstance(ctx)
	if err != nil {
		t.Fatalf("GetInstance: %v", err)
	}
	if got.RemoteURL != "https://haven.example.com" {
		t.Errorf("RemoteURL: got %q, want %q", got.RemoteURL, "https://haven.example.com")
	}
}
