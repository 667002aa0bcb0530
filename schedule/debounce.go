package schedule

import "time"

// Debouncer runs fn once the trigger has been quiet for the configured
// delay. Every Trigger restarts the window; there is no max-wait.
// Debouncer is not safe for concurrent use: call it on the scheduler's
// goroutine.
type Debouncer struct {
	s     Scheduler
	delay time.Duration
	fn    func()
	task  Task
	gen   uint64
}

// NewDebouncer returns an idle debouncer.
func NewDebouncer(s Scheduler, delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{s: s, delay: delay, fn: fn}
}

// Trigger (re)starts the window.
func (d *Debouncer) Trigger() {
	if d.task != nil {
		d.task.Stop()
	}
	d.gen++
	gen := d.gen
	d.task = d.s.AfterFunc(d.delay, func() {
		if gen != d.gen {
			return
		}
		d.task = nil
		d.fn()
	})
}

// Flush runs fn now if a window is open. It reports whether fn ran.
func (d *Debouncer) Flush() bool {
	if !d.Stop() {
		return false
	}
	d.fn()
	return true
}

// Stop discards the open window without running fn.
func (d *Debouncer) Stop() bool {
	if d.task == nil {
		return false
	}
	d.task.Stop()
	d.task = nil
	d.gen++
	return true
}

// Pending reports whether a window is open.
func (d *Debouncer) Pending() bool {
	return d.task != nil
}
