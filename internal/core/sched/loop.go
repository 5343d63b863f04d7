package sched

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Loop is the production Scheduler backed by a single goroutine.
type Loop struct {
	mu       sync.Mutex
	queue    []func()
	wake     chan struct{}
	periodic map[*periodic]struct{}
	stopped  bool
	closed   chan struct{}
	running  atomic.Bool
}

type periodic struct {
	canceled atomic.Bool
	pending  atomic.Bool
	stopCh   chan struct{}
	once     sync.Once
}

func (entry *periodic) cancel() {
	entry.once.Do(func() {
		entry.canceled.Store(true)
		close(entry.stopCh)
	})
}

// NewLoop creates a Loop. Call Run to start processing.
func NewLoop() *Loop {
	return &Loop{
		wake:     make(chan struct{}, 1),
		closed:   make(chan struct{}),
		periodic: make(map[*periodic]struct{}),
	}
}

// Now returns the wall clock time.
func (loop *Loop) Now() time.Time {
	return time.Now()
}

// Post queues fn. Posts after the loop stopped are dropped.
func (loop *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	loop.mu.Lock()
	if loop.stopped {
		loop.mu.Unlock()
		return
	}
	loop.queue = append(loop.queue, fn)
	loop.mu.Unlock()

	select {
	case loop.wake <- struct{}{}:
	default:
	}
}

// Call posts fn and waits until it has run. It returns false if the loop
// stopped before fn could run. Never call it from the loop goroutine.
func (loop *Loop) Call(fn func()) bool {
	done := make(chan struct{})
	loop.Post(func() {
		defer close(done)
		fn()
	})

	select {
	case <-done:
		return true
	case <-loop.closed:
		select {
		case <-done:
			return true
		default:
			return false
		}
	}
}

// Every starts a ticker whose fires are posted onto the loop. A fire that is
// still waiting in the queue swallows the next one, so a stalled loop sees a
// single late callback instead of a burst.
func (loop *Loop) Every(interval time.Duration, fn func()) Cancel {
	if interval <= 0 {
		interval = time.Second
	}
	entry := &periodic{stopCh: make(chan struct{})}

	loop.mu.Lock()
	if loop.stopped {
		loop.mu.Unlock()
		return func() {}
	}
	loop.periodic[entry] = struct{}{}
	loop.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-entry.stopCh:
				return
			case <-ticker.C:
				if !entry.pending.CompareAndSwap(false, true) {
					continue
				}
				loop.Post(func() {
					entry.pending.Store(false)
					if entry.canceled.Load() {
						return
					}
					fn()
				})
			}
		}
	}()

	return func() {
		entry.cancel()
		loop.mu.Lock()
		delete(loop.periodic, entry)
		loop.mu.Unlock()
	}
}

// Running reports whether Run is processing tasks.
func (loop *Loop) Running() bool {
	return loop.running.Load()
}

// Run processes tasks until ctx is done. On return every periodic callback is
// canceled and later posts are dropped.
func (loop *Loop) Run(ctx context.Context) error {
	loop.running.Store(true)
	defer loop.shutdown()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-loop.wake:
		}

		for {
			loop.mu.Lock()
			if len(loop.queue) == 0 {
				loop.mu.Unlock()
				break
			}
			task := loop.queue[0]
			loop.queue[0] = nil
			loop.queue = loop.queue[1:]
			loop.mu.Unlock()

			task()

			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
}

func (loop *Loop) shutdown() {
	loop.mu.Lock()
	if loop.stopped {
		loop.mu.Unlock()
		return
	}
	loop.stopped = true
	close(loop.closed)
	loop.queue = nil
	entries := loop.periodic
	loop.periodic = make(map[*periodic]struct{})
	loop.mu.Unlock()

	for entry := range entries {
		entry.cancel()
	}
	loop.running.Store(false)
}
