package sink

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hazyhaar/richedit/change"
)

// Queue hands batches to a slow sink on its own goroutine so the editor
// loop never waits on the network. When the buffer is full the batch is
// dropped and logged; consumers see the gap in Seq.
type Queue struct {
	next   Sink
	ch     chan change.Batch
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewQueue starts a queue of the given capacity in front of next.
func NewQueue(next Sink, size int, logger *slog.Logger) *Queue {
	if size <= 0 {
		size = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		next:   next,
		ch:     make(chan change.Batch, size),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go q.loop()
	return q
}

func (q *Queue) loop() {
	defer close(q.done)
	for b := range q.ch {
		if err := q.next.Send(q.ctx, b); err != nil {
			q.logger.Warn("sink: queued send failed", "seq", b.Seq, "error", err)
		}
	}
}

// Send enqueues batch without blocking.
func (q *Queue) Send(_ context.Context, batch change.Batch) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	select {
	case q.ch <- batch:
	default:
		q.logger.Warn("sink: queue full, batch dropped", "seq", batch.Seq)
	}
	return nil
}

// CloseContext drains what is queued, then closes the wrapped sink. Pending
// retries are abandoned when ctx ends.
func (q *Queue) CloseContext(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	q.mu.Unlock()

	select {
	case <-q.done:
	case <-ctx.Done():
		q.cancel()
		<-q.done
	}
	q.cancel()
	return q.next.Close()
}

// Close is CloseContext without a deadline.
func (q *Queue) Close() error {
	return q.CloseContext(context.Background())
}
