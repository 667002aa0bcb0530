package sink

import (
	"context"
	"log/slog"

	"github.com/hazyhaar/richedit/change"
)

// Router fans batches out to every sink. One failing sink does not stop
// delivery to the others; errors are logged and the first is returned.
type Router struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewRouter creates a fan-out router. Nil sinks are skipped.
func NewRouter(logger *slog.Logger, sinks ...Sink) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{logger: logger}
	for _, s := range sinks {
		if s != nil {
			r.sinks = append(r.sinks, s)
		}
	}
	return r
}

// Len is the number of sinks.
func (r *Router) Len() int { return len(r.sinks) }

func (r *Router) Send(ctx context.Context, batch change.Batch) error {
	var firstErr error
	for _, s := range r.sinks {
		if err := s.Send(ctx, batch); err != nil {
			r.logger.Warn("sink: send batch failed", "seq", batch.Seq, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (r *Router) Close() error {
	var firstErr error
	for _, s := range r.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
