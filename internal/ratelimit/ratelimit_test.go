package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllow_BurstThenDeny(t *testing.T) {
	rl := New(1, 3)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "request %d should fit in burst", i)
	}
	assert.False(t, rl.Allow("10.0.0.1"), "burst exhausted, request should be denied")
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	rl := New(1, 1)
	defer rl.Stop()

	require.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "a fresh key gets its own bucket")
}

func TestWait_RefillsOverTime(t *testing.T) {
	rl := New(20, 1)
	defer rl.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, rl.Wait(ctx, "client"))

	start := time.Now()
	require.NoError(t, rl.Wait(ctx, "client"))
	elapsed := time.Since(start)
	assert.Greater(t, elapsed, 20*time.Millisecond, "second request should wait for a token")
}

func TestWait_ContextCanceled(t *testing.T) {
	rl := New(0.1, 1)
	defer rl.Stop()

	rl.Allow("client")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.Error(t, rl.Wait(ctx, "client"))
}

func TestSweep_DropsIdleEntries(t *testing.T) {
	rl := New(1, 1)
	defer rl.Stop()

	rl.Allow("old-client")

	// Backdate the entry past the sweep cutoff, then run one sweep pass
	// by hand rather than waiting out the ticker.
	rl.mu.Lock()
	rl.entries["old-client"].lastSeen = time.Now().Add(-2 * sweepInterval)
	cutoff := time.Now().Add(-sweepInterval)
	for key, e := range rl.entries {
		if e.lastSeen.Before(cutoff) {
			delete(rl.entries, key)
		}
	}
	rl.mu.Unlock()

	rl.mu.Lock()
	_, exists := rl.entries["old-client"]
	rl.mu.Unlock()
	assert.False(t, exists, "idle entry should be swept")

	// A swept key starts over with a full bucket.
	assert.True(t, rl.Allow("old-client"))
}

func TestStop_Idempotent(t *testing.T) {
	rl := New(1, 1)
	rl.Stop()
	rl.Stop()
}
