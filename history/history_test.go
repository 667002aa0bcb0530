package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/hazyhaar/richedit/schedule"
)

func record(h *History, clk *schedule.Manual, v string) {
	h.Record(v)
	clk.Advance(DefaultDelay)
}

func TestHistory_EmptyStacksAreNoOps(t *testing.T) {
	h := New(schedule.NewManual(), "<p>a</p>")
	if _, ok := h.Undo(); ok {
		t.Fatal("expected Undo=false")
	}
	if _, ok := h.Redo(); ok {
		t.Fatal("expected Redo=false")
	}
	if got := h.Committed(); got != "<p>a</p>" {
		t.Fatalf("committed=%q", got)
	}
}

func TestHistory_InverseLaw(t *testing.T) {
	clk := schedule.NewManual()
	h := New(clk, "")
	record(h, clk, "<p>a</p>")
	record(h, clk, "<p>ab</p>")

	got, ok := h.Undo()
	if !ok || got != "<p>a</p>" {
		t.Fatalf("Undo: got %q, %v", got, ok)
	}
	got, ok = h.Redo()
	if !ok || got != "<p>ab</p>" {
		t.Fatalf("Redo: got %q, %v", got, ok)
	}
	if h.CanRedo() {
		t.Error("redo stack should be empty again")
	}
}

func TestHistory_RedoClearedByNewEdit(t *testing.T) {
	clk := schedule.NewManual()
	h := New(clk, "")
	record(h, clk, "one")
	record(h, clk, "two")
	h.Undo()
	if !h.CanRedo() {
		t.Fatal("expected CanRedo=true after undo")
	}
	record(h, clk, "three")
	if h.CanRedo() {
		t.Error("redo must be empty after a new push")
	}
	if got := h.Committed(); got != "three" {
		t.Errorf("committed=%q, want %q", got, "three")
	}
}

func TestHistory_Bounded(t *testing.T) {
	clk := schedule.NewManual()
	h := New(clk, "v0", WithMaxHistory(5))
	for i := 1; i <= 12; i++ {
		record(h, clk, fmt.Sprintf("v%d", i))
	}
	if undo, _ := h.Depth(); undo != 5 {
		t.Fatalf("undo depth=%d, want 5", undo)
	}
	var last string
	for {
		v, ok := h.Undo()
		if !ok {
			break
		}
		last = v
	}
	if last != "v7" {
		t.Errorf("oldest retained=%q, want %q", last, "v7")
	}
}

func TestHistory_DefaultBound(t *testing.T) {
	clk := schedule.NewManual()
	h := New(clk, "")
	for i := 0; i < DefaultMaxHistory+20; i++ {
		record(h, clk, fmt.Sprint(i))
	}
	if undo, _ := h.Depth(); undo != DefaultMaxHistory {
		t.Errorf("undo depth=%d, want %d", undo, DefaultMaxHistory)
	}
}

func TestHistory_CoalescesBurst(t *testing.T) {
	clk := schedule.NewManual()
	h := New(clk, "")
	for _, v := range []string{"h", "he", "hel", "hell", "hello"} {
		h.Record(v)
		clk.Advance(100 * time.Millisecond)
	}
	if h.CanUndo() {
		t.Fatal("burst committed before the quiet window")
	}
	if got := h.Latest(); got != "hello" {
		t.Fatalf("latest=%q", got)
	}
	clk.Advance(DefaultDelay)
	if undo, _ := h.Depth(); undo != 1 {
		t.Fatalf("undo depth=%d, want 1", undo)
	}
	if got, _ := h.Undo(); got != "" {
		t.Errorf("undo=%q, want empty initial", got)
	}
}

func TestHistory_NoPushForUnchangedValue(t *testing.T) {
	clk := schedule.NewManual()
	h := New(clk, "same")
	record(h, clk, "same")
	if h.CanUndo() {
		t.Error("recording the committed value must not push")
	}
}

func TestHistory_UndoCommitsPendingRecord(t *testing.T) {
	clk := schedule.NewManual()
	h := New(clk, "a")
	h.Record("ab")
	got, ok := h.Undo()
	if !ok || got != "a" {
		t.Fatalf("Undo: got %q, %v", got, ok)
	}
	if got, _ := h.Redo(); got != "ab" {
		t.Errorf("Redo: got %q, want %q", got, "ab")
	}
}

func TestHistory_ReplayGuard(t *testing.T) {
	clk := schedule.NewManual()
	h := New(clk, "")
	record(h, clk, "a")
	record(h, clk, "b")

	v, _ := h.Undo()
	// The write-back of the restored value echoes through Record once.
	h.Record(v)
	clk.Advance(time.Second)
	if !h.CanRedo() {
		t.Fatal("echo of the undo clobbered the redo stack")
	}
	if h.Pending() {
		t.Error("echo opened a push window")
	}

	record(h, clk, "c")
	if h.CanRedo() {
		t.Error("a real edit after undo must clear redo")
	}
}

func TestHistory_Reset(t *testing.T) {
	clk := schedule.NewManual()
	h := New(clk, "")
	record(h, clk, "a")
	h.Record("pending")
	h.Reset("x")
	clk.Advance(time.Second)
	if h.CanUndo() || h.CanRedo() {
		t.Error("Reset must clear both stacks")
	}
	if got := h.Committed(); got != "x" {
		t.Errorf("committed=%q, want %q", got, "x")
	}
}
