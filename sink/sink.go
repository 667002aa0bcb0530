// Package sink delivers change batches to the host: in-process callbacks,
// JSON lines on a writer, or an HTTP webhook.
package sink

import (
	"context"

	"github.com/hazyhaar/richedit/change"
)

// Sink is one delivery backend.
type Sink interface {
	Send(ctx context.Context, batch change.Batch) error
	Close() error
}
