package cache

import (
	"context"
	"sync"
	"time"

	"github.com/zeebo/xxh3"
)

const defaultShards = 16

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

type memoryShard struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// Memory is an in-process Cache for single-instance and local runs.
// Expired entries are dropped on read and, when a sweep interval is set,
// by a background janitor that Close stops.
type Memory struct {
	shards []*memoryShard
	mask   uint64
	now    func() time.Time

	sweepEvery time.Duration
	stop       chan struct{}
	done       chan struct{}
	closeOnce  sync.Once
}

type MemoryOption func(*Memory)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		m.now = now
	}
}

// WithShards sets the shard count, rounded up to a power of two.
func WithShards(n int) MemoryOption {
	return func(m *Memory) {
		p := 1
		for p < n {
			p <<= 1
		}
		m.shards = newShards(p)
		m.mask = uint64(p - 1)
	}
}

// WithSweepInterval starts a janitor that removes expired entries every d.
// Zero leaves expiry to reads.
func WithSweepInterval(d time.Duration) MemoryOption {
	return func(m *Memory) {
		m.sweepEvery = d
	}
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		shards: newShards(defaultShards),
		mask:   defaultShards - 1,
		now:    time.Now,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.sweepEvery > 0 {
		go m.janitor()
	} else {
		close(m.done)
	}

	return m
}

func newShards(n int) []*memoryShard {
	shards := make([]*memoryShard, n)
	for i := range shards {
		shards[i] = &memoryShard{entries: make(map[string]memoryEntry)}
	}

	return shards
}

func (m *Memory) shard(key string) *memoryShard {
	return m.shards[xxh3.HashString(key)&m.mask]
}

func (m *Memory) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, ErrCacheUnavailable
	}

	s := m.shard(key)
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return "", false, nil
	}

	if !m.now().Before(e.expiresAt) {
		s.mu.Lock()
		if cur, ok := s.entries[key]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()

		return "", false, nil
	}

	return e.value, true, nil
}

func (m *Memory) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return ErrCacheUnavailable
	}

	s := m.shard(key)
	s.mu.Lock()
	s.entries[key] = memoryEntry{value: value, expiresAt: m.now().Add(ttl)}
	s.mu.Unlock()

	return nil
}

// TTL reports the remaining lifetime of key, or false when it is absent or
// expired.
func (m *Memory) TTL(key string) (time.Duration, bool) {
	s := m.shard(key)
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return 0, false
	}

	left := e.expiresAt.Sub(m.now())
	if left <= 0 {
		return 0, false
	}

	return left, true
}

func (m *Memory) Len() int {
	n := 0
	for _, s := range m.shards {
		s.mu.RLock()
		n += len(s.entries)
		s.mu.RUnlock()
	}

	return n
}

// Sweep removes every expired entry and reports how many were dropped.
func (m *Memory) Sweep() int {
	now := m.now()
	removed := 0
	for _, s := range m.shards {
		s.mu.Lock()
		for key, e := range s.entries {
			if !now.Before(e.expiresAt) {
				delete(s.entries, key)
				removed++
			}
		}
		s.mu.Unlock()
	}

	return removed
}

// Close stops the janitor and waits for it to exit. It is safe to call
// more than once.
func (m *Memory) Close() error {
	m.closeOnce.Do(func() {
		close(m.stop)
	})
	<-m.done

	return nil
}

func (m *Memory) janitor() {
	defer close(m.done)

	tick := time.NewTicker(m.sweepEvery)
	defer tick.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-tick.C:
			if m.Len() > 0 {
				m.Sweep()
			}
		}
	}
}
