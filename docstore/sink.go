package docstore

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hazyhaar/richedit/change"
)

// Sink saves every batch of a document as its content and a revision.
type Sink struct {
	store  *Store
	logger *slog.Logger
}

// Sink returns a sink persisting batches into s. Batches without a DocID
// are ignored.
func (s *Store) Sink(logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{store: s, logger: logger}
}

func (k *Sink) Send(ctx context.Context, b change.Batch) error {
	if b.DocID == "" {
		return nil
	}
	_, err := k.store.Save(ctx, b.DocID, string(b.Origin), b.HTML)
	if errors.Is(err, ErrNotFound) {
		k.logger.Warn("docstore: batch for unknown document", "doc", b.DocID, "seq", b.Seq)
	}
	return err
}

func (k *Sink) Close() error { return nil }
