package schedule

import (
	"sort"
	"sync"
	"time"
)

// Manual is a virtual clock. Nothing runs until Advance, RunPosted or
// AwaitPosted is called.
type Manual struct {
	mu     sync.Mutex
	now    time.Duration
	seq    uint64
	tasks  []*manualTask
	posted []func()
	wake   chan struct{}
}

type manualTask struct {
	m       *Manual
	due     time.Duration
	seq     uint64
	fn      func()
	stopped bool
}

// NewManual returns a clock at virtual time zero.
func NewManual() *Manual {
	return &Manual{wake: make(chan struct{}, 1)}
}

func (t *manualTask) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	for i, p := range t.m.tasks {
		if p == t {
			t.m.tasks = append(t.m.tasks[:i], t.m.tasks[i+1:]...)
			t.stopped = true
			return true
		}
	}
	return false
}

// AfterFunc schedules fn at Now()+d.
func (m *Manual) AfterFunc(d time.Duration, fn func()) Task {
	if d < 0 {
		d = 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTask{m: m, due: m.now + d, seq: m.seq, fn: fn}
	m.tasks = append(m.tasks, t)
	return t
}

// Post queues fn. Safe from any goroutine.
func (m *Manual) Post(fn func()) {
	m.mu.Lock()
	m.posted = append(m.posted, fn)
	m.mu.Unlock()
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Now is the virtual time elapsed since NewManual.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending is the number of scheduled tasks not yet run or stopped.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// RunPosted runs every posted function, including ones posted while
// running. It returns how many ran.
func (m *Manual) RunPosted() int {
	n := 0
	for {
		m.mu.Lock()
		if len(m.posted) == 0 {
			m.mu.Unlock()
			return n
		}
		fn := m.posted[0]
		m.posted = m.posted[1:]
		m.mu.Unlock()
		fn()
		n++
	}
}

// AwaitPosted blocks until at least one function has been posted, or
// until timeout of real time passes, then runs the queue. It reports
// whether anything ran.
func (m *Manual) AwaitPosted(timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		if m.RunPosted() > 0 {
			return true
		}
		select {
		case <-m.wake:
		case <-deadline.C:
			return m.RunPosted() > 0
		}
	}
}

// Advance moves the clock forward by d. Posted functions run first, then
// due tasks in due-time order (ties by scheduling order). Tasks scheduled
// while advancing run too if they fall inside the window.
func (m *Manual) Advance(d time.Duration) {
	m.RunPosted()
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		sort.SliceStable(m.tasks, func(i, j int) bool {
			if m.tasks[i].due != m.tasks[j].due {
				return m.tasks[i].due < m.tasks[j].due
			}
			return m.tasks[i].seq < m.tasks[j].seq
		})
		if len(m.tasks) == 0 || m.tasks[0].due > target {
			m.now = target
			m.mu.Unlock()
			break
		}
		t := m.tasks[0]
		m.tasks = m.tasks[1:]
		m.now = t.due
		m.mu.Unlock()

		t.fn()
		m.RunPosted()
	}
	m.RunPosted()
}
