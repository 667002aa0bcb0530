package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestManual_RunsInDueOrder(t *testing.T) {
	m := NewManual()
	var order []string
	m.AfterFunc(30*time.Millisecond, func() { order = append(order, "c") })
	m.AfterFunc(10*time.Millisecond, func() { order = append(order, "a") })
	m.AfterFunc(10*time.Millisecond, func() { order = append(order, "b") })

	m.Advance(20 * time.Millisecond)
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("after 20ms: got %v, want [a b]", order)
	}
	m.Advance(10 * time.Millisecond)
	if len(order) != 3 || order[2] != "c" {
		t.Fatalf("after 30ms: got %v", order)
	}
	if got := m.Now(); got != 30*time.Millisecond {
		t.Errorf("Now: got %v, want 30ms", got)
	}
}

func TestManual_TaskScheduledDuringAdvance(t *testing.T) {
	m := NewManual()
	ran := false
	m.AfterFunc(5*time.Millisecond, func() {
		m.AfterFunc(5*time.Millisecond, func() { ran = true })
	})
	m.Advance(10 * time.Millisecond)
	if !ran {
		t.Error("nested task inside the window did not run")
	}
}

func TestManual_Stop(t *testing.T) {
	m := NewManual()
	ran := false
	task := m.AfterFunc(time.Millisecond, func() { ran = true })
	if !task.Stop() {
		t.Fatal("Stop on pending task returned false")
	}
	if task.Stop() {
		t.Error("second Stop returned true")
	}
	m.Advance(time.Second)
	if ran {
		t.Error("stopped task ran")
	}
	if m.Pending() != 0 {
		t.Errorf("Pending: got %d, want 0", m.Pending())
	}
}

func TestManual_AwaitPosted(t *testing.T) {
	m := NewManual()
	var got atomic.Int32
	go func() {
		time.Sleep(5 * time.Millisecond)
		m.Post(func() { got.Store(7) })
	}()
	if !m.AwaitPosted(2 * time.Second) {
		t.Fatal("AwaitPosted timed out")
	}
	if got.Load() != 7 {
		t.Errorf("posted function did not run")
	}
	if m.AwaitPosted(10 * time.Millisecond) {
		t.Error("AwaitPosted with nothing posted returned true")
	}
}

func TestDebouncer_ResetOnRetrigger(t *testing.T) {
	m := NewManual()
	fired := 0
	d := NewDebouncer(m, 300*time.Millisecond, func() { fired++ })

	d.Trigger()
	m.Advance(200 * time.Millisecond)
	d.Trigger()
	m.Advance(200 * time.Millisecond)
	if fired != 0 {
		t.Fatalf("fired %d times before the quiet window elapsed", fired)
	}
	m.Advance(100 * time.Millisecond)
	if fired != 1 {
		t.Fatalf("fired: got %d, want 1", fired)
	}
	if d.Pending() {
		t.Error("Pending after fire")
	}
}

func TestDebouncer_FlushAndStop(t *testing.T) {
	m := NewManual()
	fired := 0
	d := NewDebouncer(m, time.Second, func() { fired++ })

	if d.Flush() {
		t.Error("Flush with nothing pending returned true")
	}
	d.Trigger()
	if !d.Flush() || fired != 1 {
		t.Fatalf("Flush: fired %d", fired)
	}
	m.Advance(2 * time.Second)
	if fired != 1 {
		t.Errorf("flushed window fired again: %d", fired)
	}

	d.Trigger()
	d.Stop()
	m.Advance(2 * time.Second)
	if fired != 1 {
		t.Errorf("stopped window fired: %d", fired)
	}
}

func TestLoop_DoAndAfterFunc(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()

	counter := 0
	if !l.Do(func() { counter++ }) {
		t.Fatal("Do returned false on a running loop")
	}

	fired := make(chan struct{})
	l.AfterFunc(5*time.Millisecond, func() { counter++; close(fired) })
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}
	l.Do(func() {
		if counter != 2 {
			t.Errorf("counter: got %d, want 2", counter)
		}
	})

	stopped := l.AfterFunc(time.Hour, func() { t.Error("stopped task ran") })
	if !stopped.Stop() {
		t.Error("Stop returned false")
	}

	l.Close()
	if err := <-errc; err != nil {
		t.Errorf("Run: %v", err)
	}
	if l.Do(func() {}) {
		t.Error("Do on a closed loop returned true")
	}
}
