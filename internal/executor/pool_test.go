package executor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPool_Do_ReturnsFnError(t *testing.T) {
	p := New(2)
	defer p.Close()

	boom := errors.New("boom")
	err := p.Do(context.Background(), func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)

	require.NoError(t, p.Do(context.Background(), func(context.Context) error { return nil }))
}

func TestPool_Do_BoundsConcurrency(t *testing.T) {
	const size = 3
	p := New(size)
	defer p.Close()

	var (
		running int64
		peak    int64
		wg      sync.WaitGroup
	)

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Do(context.Background(), func(context.Context) error {
				n := atomic.AddInt64(&running, 1)
				for {
					old := atomic.LoadInt64(&peak)
					if n <= old || atomic.CompareAndSwapInt64(&peak, old, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt64(&running, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	require.LessOrEqual(t, atomic.LoadInt64(&peak), int64(size))
	require.Equal(t, size, p.Size())
}

func TestPool_Do_ContextCanceledWhileWaiting(t *testing.T) {
	p := New(1)
	defer p.Close()

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = p.Do(context.Background(), func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := p.Do(ctx, func(context.Context) error { return nil })
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
}

func TestPool_Close_RejectsNewCalls(t *testing.T) {
	p := New(1)
	p.Close()

	err := p.Do(context.Background(), func(context.Context) error { return nil })
	require.ErrorIs(t, err, ErrClosed)
}

func TestNew_ClampsSize(t *testing.T) {
	p := New(0)
	defer p.Close()

	require.Equal(t, 1, p.Size())
}
