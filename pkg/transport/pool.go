package transport

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"
)

// workerPool runs submitted tasks on their own goroutines. With a positive
// size at most size tasks run at once and the rest wait; submission itself
// never blocks.
type workerPool struct {
	ctx    context.Context
	cancel context.CancelFunc
	sem    *semaphore.Weighted

	mu      sync.Mutex
	closed  bool
	pending int
	idle    chan struct{}
	wg      sync.WaitGroup
}

func newWorkerPool(size int) *workerPool {
	ctx, cancel := context.WithCancel(context.Background())
	p := &workerPool{ctx: ctx, cancel: cancel}
	if size > 0 {
		p.sem = semaphore.NewWeighted(int64(size))
	}
	return p
}

// submit schedules run. If the pool is closed, or closes before run gets a
// slot, abandon is called instead.
func (p *workerPool) submit(run func(ctx context.Context), abandon func(error)) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		abandon(ErrShutdown)
		return
	}
	p.pending++
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.finish()
		if p.sem != nil {
			if err := p.sem.Acquire(p.ctx, 1); err != nil {
				abandon(ErrShutdown)
				return
			}
			defer p.sem.Release(1)
		}
		if p.ctx.Err() != nil {
			abandon(ErrShutdown)
			return
		}
		run(p.ctx)
	}()
}

func (p *workerPool) finish() {
	p.mu.Lock()
	p.pending--
	if p.pending == 0 && p.idle != nil {
		close(p.idle)
		p.idle = nil
	}
	p.mu.Unlock()
	p.wg.Done()
}

// drain waits until every submitted task has run or been abandoned. The
// pool stays open; tasks submitted meanwhile are waited for too.
func (p *workerPool) drain(ctx context.Context) error {
	p.mu.Lock()
	if p.pending == 0 {
		p.mu.Unlock()
		return nil
	}
	if p.idle == nil {
		p.idle = make(chan struct{})
	}
	idle := p.idle
	p.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "draining sends")
	}
}

func (p *workerPool) shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
}
