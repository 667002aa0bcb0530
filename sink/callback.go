package sink

import (
	"context"

	"github.com/hazyhaar/richedit/change"
)

// Func receives the emitted HTML. It is the host's change callback.
type Func func(html string)

// BatchFunc receives the whole batch.
type BatchFunc func(ctx context.Context, batch change.Batch) error

// Callback delivers batches through Go function calls on the caller's
// goroutine.
type Callback struct {
	onBatch BatchFunc
}

// NewCallback wraps fn. A nil fn makes a sink that drops everything.
func NewCallback(fn BatchFunc) *Callback {
	return &Callback{onBatch: fn}
}

// OnChange adapts a plain HTML callback.
func OnChange(fn Func) *Callback {
	if fn == nil {
		return NewCallback(nil)
	}
	return NewCallback(func(_ context.Context, b change.Batch) error {
		fn(b.HTML)
		return nil
	})
}

func (c *Callback) Send(ctx context.Context, batch change.Batch) error {
	if c.onBatch != nil {
		return c.onBatch(ctx, batch)
	}
	return nil
}

func (c *Callback) Close() error { return nil }
