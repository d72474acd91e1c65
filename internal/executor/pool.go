package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

var ErrClosed = errors.New("executor closed")

// Pool bounds the number of blocking calls running at once. Callers wait
// for a free slot, honoring their context.
type Pool struct {
	sem  *semaphore.Weighted
	size int64

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func New(size int) *Pool {
	if size < 1 {
		size = 1
	}

	return &Pool{
		sem:  semaphore.NewWeighted(int64(size)),
		size: int64(size),
	}
}

func (p *Pool) Size() int {
	return int(p.size)
}

// Do runs fn on a pool slot and returns its error. The slot is released
// when fn returns.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrClosed
	}
	p.wg.Add(1)
	p.mu.RUnlock()
	defer p.wg.Done()

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire worker: %w", err)
	}
	defer p.sem.Release(1)

	return fn(ctx)
}

// Close rejects new calls and waits for in-flight ones.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.wg.Wait()
}
