// Package history keeps bounded undo/redo stacks of HTML snapshots. Records
// are debounced so a burst of edits collapses into one entry.
//
// A History is not safe for concurrent use; it runs on the goroutine of the
// scheduler it was built with.
package history

import (
	"time"

	"github.com/hazyhaar/richedit/schedule"
)

const (
	DefaultMaxHistory = 50
	DefaultDelay      = 500 * time.Millisecond
)

// Option configures a History.
type Option func(*History)

// WithMaxHistory bounds the undo stack. Values below 1 are ignored.
func WithMaxHistory(n int) Option {
	return func(h *History) {
		if n > 0 {
			h.max = n
		}
	}
}

// WithDelay sets the record debounce.
func WithDelay(d time.Duration) Option {
	return func(h *History) {
		if d > 0 {
			h.delay = d
		}
	}
}

// History is the two-stack snapshot manager.
type History struct {
	undo      []string
	redo      []string
	committed string
	latest    string

	max   int
	delay time.Duration
	push  *schedule.Debouncer

	// One Record equal to the value an undo/redo just restored is swallowed.
	guard   bool
	guarded string
}

// New returns a History whose committed value is initial.
func New(s schedule.Scheduler, initial string, opts ...Option) *History {
	h := &History{
		committed: initial,
		latest:    initial,
		max:       DefaultMaxHistory,
		delay:     DefaultDelay,
	}
	for _, o := range opts {
		o(h)
	}
	h.push = schedule.NewDebouncer(s, h.delay, h.commit)
	return h
}

// Record makes v the latest value and (re)starts the push window.
func (h *History) Record(v string) {
	if h.guard {
		h.guard = false
		if v == h.guarded {
			return
		}
	}
	h.latest = v
	h.push.Trigger()
}

func (h *History) commit() {
	if h.latest == h.committed {
		return
	}
	h.undo = append(h.undo, h.committed)
	if len(h.undo) > h.max {
		h.undo = h.undo[len(h.undo)-h.max:]
	}
	h.redo = nil
	h.committed = h.latest
}

// Flush commits a pending record now.
func (h *History) Flush() {
	h.push.Flush()
}

// Undo restores the previous snapshot. ok is false when there is nothing to
// undo, in which case nothing changes.
func (h *History) Undo() (string, bool) {
	h.push.Flush()
	if len(h.undo) == 0 {
		return "", false
	}
	i := len(h.undo) - 1
	prev := h.undo[i]
	h.undo = h.undo[:i]
	h.redo = append(h.redo, h.committed)
	h.restore(prev)
	return prev, true
}

// Redo re-applies the snapshot most recently undone.
func (h *History) Redo() (string, bool) {
	h.push.Flush()
	if len(h.redo) == 0 {
		return "", false
	}
	i := len(h.redo) - 1
	next := h.redo[i]
	h.redo = h.redo[:i]
	h.undo = append(h.undo, h.committed)
	if len(h.undo) > h.max {
		h.undo = h.undo[len(h.undo)-h.max:]
	}
	h.restore(next)
	return next, true
}

func (h *History) restore(v string) {
	h.committed = v
	h.latest = v
	h.guard = true
	h.guarded = v
}

// Reset drops both stacks and any pending record.
func (h *History) Reset(v string) {
	h.push.Stop()
	h.undo = nil
	h.redo = nil
	h.committed = v
	h.latest = v
	h.guard = false
}

// Close cancels the pending push without committing it.
func (h *History) Close() {
	h.push.Stop()
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }

func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Depth returns the sizes of the undo and redo stacks.
func (h *History) Depth() (undo, redo int) { return len(h.undo), len(h.redo) }

// Committed is the value the stacks are relative to.
func (h *History) Committed() string { return h.committed }

// Latest is the most recently recorded value, committed or not.
func (h *History) Latest() string { return h.latest }

// Pending reports whether a record is waiting for its window to close.
func (h *History) Pending() bool { return h.push.Pending() }
