package schedule

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Loop serialises posted functions and timer callbacks onto the goroutine
// that calls Run.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	done   chan struct{}
	closed bool
}

// NewLoop returns a loop that is not yet running.
func NewLoop() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

const (
	taskPending int32 = iota
	taskStopped
	taskRan
)

type loopTask struct {
	timer *time.Timer
	state atomic.Int32
}

func (t *loopTask) Stop() bool {
	if !t.state.CompareAndSwap(taskPending, taskStopped) {
		return false
	}
	t.timer.Stop()
	return true
}

// AfterFunc runs fn on the loop after d. A task stopped after its timer
// fired but before the loop got to it does not run.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Task {
	t := &loopTask{}
	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if t.state.CompareAndSwap(taskPending, taskRan) {
				fn()
			}
		})
	})
	return t
}

// Post queues fn. Functions posted after Close are dropped.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Do posts fn and waits for it to finish. It must not be called from the
// loop goroutine. It reports false if the loop closed first.
func (l *Loop) Do(fn func()) bool {
	ran := make(chan struct{})
	l.Post(func() {
		defer close(ran)
		fn()
	})
	select {
	case <-ran:
		return true
	case <-l.done:
		return false
	}
}

// Run processes the queue until ctx is cancelled or Close is called.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.drain()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case <-l.wake:
		}
	}
}

func (l *Loop) drain() {
	for {
		l.mu.Lock()
		if len(l.queue) == 0 || l.closed {
			l.mu.Unlock()
			return
		}
		fn := l.queue[0]
		l.queue = l.queue[1:]
		l.mu.Unlock()
		fn()
	}
}

// Close stops the loop. Queued functions that have not run are dropped.
func (l *Loop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	l.queue = nil
	close(l.done)
}
