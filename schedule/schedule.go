// Package schedule provides the single-threaded timing model the editor runs
// on: cancellable delayed tasks plus a queue of functions posted from other
// goroutines (upload completions). Manual is a virtual clock for tests and
// headless hosts; Loop drives everything from one real goroutine.
package schedule

import "time"

// Task is a pending delayed function.
type Task interface {
	// Stop prevents the task from running. It reports whether the call
	// stopped it; false means it already ran or was already stopped.
	Stop() bool
}

// Scheduler runs delayed and posted functions on the editor's goroutine.
// Post is the only method that may be called from another goroutine.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Task
	Post(fn func())
}
