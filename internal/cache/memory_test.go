package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestMemory_Get_Miss(t *testing.T) {
	m := NewMemory()

	v, found, err := m.Get(context.Background(), Key("missing"))
	require.NoError(t, err)
	require.False(t, found)
	require.Empty(t, v)
}

func TestMemory_SetGet_ExpiresAfterTTL(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	m := NewMemory(WithClock(clock.Now))
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v", 120*time.Second))

	v, found, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "v", v)

	ttl, ok := m.TTL("k")
	require.True(t, ok)
	require.Equal(t, 120*time.Second, ttl)

	clock.Advance(119 * time.Second)
	_, found, _ = m.Get(ctx, "k")
	require.True(t, found)

	clock.Advance(time.Second)
	_, found, err = m.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, found)
	require.Equal(t, 0, m.Len())
}

func TestMemory_Set_Overwrites(t *testing.T) {
	m := NewMemory(WithShards(3))
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "one", time.Minute))
	require.NoError(t, m.Set(ctx, "k", "two", time.Minute))

	v, _, _ := m.Get(ctx, "k")
	require.Equal(t, "two", v)
	require.Equal(t, 1, m.Len())
	require.Len(t, m.shards, 4)
}

func TestMemory_CanceledContext(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := m.Get(ctx, "k")
	require.ErrorIs(t, err, ErrCacheUnavailable)
	require.ErrorIs(t, m.Set(ctx, "k", "v", time.Minute), ErrCacheUnavailable)
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := Key(fmt.Sprintf("%d-%d", i, j%10))
				_ = m.Set(ctx, key, "x", time.Minute)
				_, _, _ = m.Get(ctx, key)
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, 80, m.Len())
}

func TestMemory_Sweep_DropsKeysNeverReadAgain(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	m := NewMemory(WithClock(clock.Now))
	ctx := context.Background()

	for i := 0; i < 10_000; i++ {
		require.NoError(t, m.Set(ctx, Key(fmt.Sprint(i)), "x", 120*time.Second))
	}

	clock.Advance(time.Hour)
	for i := 0; i < 10; i++ {
		require.NoError(t, m.Set(ctx, Key(fmt.Sprintf("fresh-%d", i)), "x", 120*time.Second))
	}

	require.Equal(t, 10_000, m.Sweep())
	require.Equal(t, 10, m.Len())

	_, found, err := m.Get(ctx, Key("fresh-3"))
	require.NoError(t, err)
	require.True(t, found)
}

func TestMemory_Janitor_SweepsExpiredAndStopsOnClose(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	m := NewMemory(WithClock(clock.Now), WithSweepInterval(5*time.Millisecond))
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		require.NoError(t, m.Set(ctx, Key(fmt.Sprint(i)), "x", 120*time.Second))
	}
	require.Equal(t, 100, m.Len())

	clock.Advance(121 * time.Second)
	require.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 5*time.Millisecond)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
}

func TestMemory_Close_WithoutJanitor(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	m := NewMemory()
	require.NoError(t, m.Close())
}

func TestKey(t *testing.T) {
	require.Equal(t, "article:abc", Key("abc"))
}
