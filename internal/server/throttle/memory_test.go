package throttle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newMemory() (*Memory, *clock) {
	c := &clock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	return NewMemory(Policy{}).WithClock(c.Now), c
}

func TestMemory_LocksAfterMaxFailures(t *testing.T) {
	ctx := context.Background()
	m, _ := newMemory()

	for i := 0; i < DefaultMaxFailures-1; i++ {
		require.NoError(t, m.RecordFailure(ctx, "a@b.com"))
		locked, err := m.IsLocked(ctx, "a@b.com")
		require.NoError(t, err)
		assert.False(t, locked, "failure %d", i+1)
	}

	require.NoError(t, m.RecordFailure(ctx, "a@b.com"))
	locked, err := m.IsLocked(ctx, "a@b.com")
	require.NoError(t, err)
	assert.True(t, locked)
}

func TestMemory_ClearUnlocks(t *testing.T) {
	ctx := context.Background()
	m, _ := newMemory()

	for i := 0; i < DefaultMaxFailures; i++ {
		require.NoError(t, m.RecordFailure(ctx, "a@b.com"))
	}
	require.NoError(t, m.Clear(ctx, "a@b.com"))

	locked, err := m.IsLocked(ctx, "a@b.com")
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestMemory_LockoutExpires(t *testing.T) {
	ctx := context.Background()
	m, c := newMemory()

	for i := 0; i < DefaultMaxFailures; i++ {
		require.NoError(t, m.RecordFailure(ctx, "a@b.com"))
	}

	c.Advance(DefaultLockout)
	locked, _ := m.IsLocked(ctx, "a@b.com")
	assert.True(t, locked, "still locked at the window edge")

	c.Advance(time.Second)
	locked, _ = m.IsLocked(ctx, "a@b.com")
	assert.False(t, locked)
	assert.Equal(t, 0, m.Len(), "expired entries are purged")
}

func TestMemory_FailureAfterWindowRestartsCount(t *testing.T) {
	ctx := context.Background()
	m, c := newMemory()

	for i := 0; i < DefaultMaxFailures-1; i++ {
		require.NoError(t, m.RecordFailure(ctx, "a@b.com"))
	}
	c.Advance(DefaultLockout + time.Minute)
	require.NoError(t, m.RecordFailure(ctx, "a@b.com"))

	locked, _ := m.IsLocked(ctx, "a@b.com")
	assert.False(t, locked)
}

func TestMemory_KeysAreNormalized(t *testing.T) {
	ctx := context.Background()
	m, _ := newMemory()

	variants := []string{"A@B.com", "a@b.COM", " a@b.com", "a@B.com", "A@b.com"}
	for _, v := range variants {
		require.NoError(t, m.RecordFailure(ctx, v))
	}

	locked, _ := m.IsLocked(ctx, "a@b.com")
	assert.True(t, locked)
}

func TestMemory_Concurrent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(Policy{MaxFailures: 100, Lockout: time.Hour})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.RecordFailure(ctx, "a@b.com")
			_, _ = m.IsLocked(ctx, "a@b.com")
		}()
	}
	wg.Wait()

	locked, _ := m.IsLocked(ctx, "a@b.com")
	assert.True(t, locked, "no failure may be lost")
}
