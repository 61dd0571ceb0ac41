package sse

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenapp/haven-server/internal/domain"
)

func newTestManager(t *testing.T, members map[string]map[string]bool) (*Manager, context.CancelFunc) {
	t.Helper()

	m := NewManager(slog.New(slog.DiscardHandler))
	m.SetMembershipChecker(func(_ context.Context, userID, spaceID string) bool {
		return members[spaceID][userID]
	})

	ctx, cancel := context.WithCancel(context.Background())
	go m.Start(ctx)
	t.Cleanup(cancel)
	return m, cancel
}

func waitForEvent(t *testing.T, c *Client) Event {
	t.Helper()

	select {
	case event := <-c.EventChan:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()

	select {
	case event := <-c.EventChan:
		t.Fatalf("unexpected event %s", event.Type)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBroadcastFiltersBySpaceMembership(t *testing.T) {
	m, _ := newTestManager(t, map[string]map[string]bool{
		"spc-1": {"usr-a": true},
	})

	insider, err := m.Connect("usr-a")
	require.NoError(t, err)
	outsider, err := m.Connect("usr-b")
	require.NoError(t, err)

	m.Emit(NewMemberRemovedEvent("spc-1", "usr-c"))

	event := waitForEvent(t, insider)
	assert.Equal(t, EventMemberRemoved, event.Type)
	assertNoEvent(t, outsider)
}

func TestBroadcastGlobalEvent(t *testing.T) {
	m, _ := newTestManager(t, nil)

	a, err := m.Connect("usr-a")
	require.NoError(t, err)
	b, err := m.Connect("usr-b")
	require.NoError(t, err)

	// Presence events carry no space and reach everyone.
	m.Emit(NewPresenceChangedEvent(&domain.Presence{
		UserID: "usr-c", Status: domain.PresenceOnline, LastSeen: time.Now(),
	}))

	assert.Equal(t, EventPresenceChanged, waitForEvent(t, a).Type)
	assert.Equal(t, EventPresenceChanged, waitForEvent(t, b).Type)
}

func TestEmitToUser(t *testing.T) {
	m, _ := newTestManager(t, nil)

	target, err := m.Connect("usr-a")
	require.NoError(t, err)
	other, err := m.Connect("usr-b")
	require.NoError(t, err)

	m.EmitToUser("usr-a", NewHeartbeatEvent())

	assert.Equal(t, EventHeartbeat, waitForEvent(t, target).Type)
	assertNoEvent(t, other)
}

func TestDisconnectRemovesClient(t *testing.T) {
	m, _ := newTestManager(t, nil)

	client, err := m.Connect("usr-a")
	require.NoError(t, err)
	require.Equal(t, 1, m.ClientCount())

	m.Disconnect(client.ID)
	assert.Equal(t, 0, m.ClientCount())

	select {
	case <-client.Done:
	default:
		t.Fatal("Done channel should be closed after disconnect")
	}
}

func TestEmitAfterShutdownDropsEvent(t *testing.T) {
	m, cancel := newTestManager(t, nil)
	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
	defer shutdownCancel()
	require.NoError(t, m.Shutdown(ctx))

	// Must not panic on the closed channel.
	m.Emit(NewHeartbeatEvent())
}
