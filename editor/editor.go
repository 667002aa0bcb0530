// Package editor is the controller tying the editable tree to the host. It
// reconciles host-supplied HTML, debounces change emission through the
// output sanitizer and history, and routes keyboard, pointer and media
// gestures to the formatting, drag and media code.
//
// An Editor is not safe for concurrent use. Every method must run on the
// goroutine of its scheduler; upload completions are posted back to it.
package editor

import (
	"context"
	"log/slog"

	"golang.org/x/net/html"

	"github.com/hazyhaar/richedit/change"
	"github.com/hazyhaar/richedit/dom"
	"github.com/hazyhaar/richedit/drag"
	"github.com/hazyhaar/richedit/env"
	"github.com/hazyhaar/richedit/events"
	"github.com/hazyhaar/richedit/format"
	"github.com/hazyhaar/richedit/history"
	"github.com/hazyhaar/richedit/sanitize"
	"github.com/hazyhaar/richedit/schedule"
	"github.com/hazyhaar/richedit/sink"
)

// BannerText is the advisory shown after dangerous input was sanitized.
const BannerText = "Potentially unsafe content was removed from this document."

// Editor is one editable document.
type Editor struct {
	opts   Options
	root   *html.Node
	env    env.Env
	sched  schedule.Scheduler
	log    *slog.Logger
	bus    *events.Bus
	router *sink.Router
	ctx    context.Context
	cancel context.CancelFunc

	exec  *format.Executor
	insp  *format.Inspector
	drag  *drag.Engine
	hist  *history.History
	emit  *schedule.Debouncer
	alert *schedule.Debouncer

	pending  []change.Record
	seq      uint64
	internal bool
	lastOut  string
	banner   bool
	state    format.FormatState
	closed   bool
	unsub    []func()

	media mediaState
}

// New builds an editor over opts.HTML. When the sanitized initial content is
// not empty it is emitted once after the debounce window.
func New(opts Options) (*Editor, error) {
	if opts.Scheduler == nil {
		return nil, ErrNoScheduler
	}
	opts.defaults()

	ctx, cancel := context.WithCancel(context.Background())
	e := &Editor{
		opts:   opts,
		root:   dom.NewRoot(),
		env:    opts.Env,
		sched:  opts.Scheduler,
		log:    opts.Logger,
		bus:    events.New(),
		ctx:    ctx,
		cancel: cancel,
	}

	sinks := append([]sink.Sink{}, opts.Sinks...)
	if opts.OnChange != nil {
		sinks = append([]sink.Sink{sink.OnChange(opts.OnChange)}, sinks...)
	}
	e.router = sink.NewRouter(e.log, sinks...)

	e.exec = format.NewExecutor(e.root, e.env, e.formatted, format.WithLogger(e.log))
	e.insp = format.NewInspector(e.root, e.env)
	e.drag = drag.New(e.root, e.env, e.dragged, drag.WithBus(e.bus), drag.WithLogger(e.log))
	e.hist = history.New(e.sched, "",
		history.WithMaxHistory(opts.MaxHistory),
		history.WithDelay(opts.HistoryDelay))
	e.emit = schedule.NewDebouncer(e.sched, opts.Debounce, e.flush)
	e.alert = schedule.NewDebouncer(e.sched, opts.BannerDuration, func() { e.banner = false })

	e.unsub = append(e.unsub,
		e.bus.Subscribe(events.ContentChanged, func(events.Event) {
			e.emit.Trigger()
			e.refresh()
		}),
		e.bus.Subscribe(events.SelectionChanged, func(events.Event) { e.refresh() }),
	)

	e.reconcile(opts.HTML)
	e.refresh()
	return e, nil
}

// Root is the editable element. Hosts mutate it for native edits and then
// call Input.
func (e *Editor) Root() *html.Node { return e.root }

// Env is the environment the editor was built with.
func (e *Editor) Env() env.Env { return e.env }

func (e *Editor) Executor() *format.Executor   { return e.exec }
func (e *Editor) Inspector() *format.Inspector { return e.insp }
func (e *Editor) Drag() *drag.Engine           { return e.drag }
func (e *Editor) History() *history.History    { return e.hist }
func (e *Editor) Bus() *events.Bus             { return e.bus }

// HTML serialises the live tree, marker classes included.
func (e *Editor) HTML() string { return dom.InnerHTML(e.root) }

// Output is the live tree as the host would receive it.
func (e *Editor) Output() string { return sanitize.ForOutput(e.HTML()) }

// Placeholder is the configured placeholder text.
func (e *Editor) Placeholder() string { return e.opts.Placeholder }

// PlaceholderVisible reports whether the document counts as empty.
func (e *Editor) PlaceholderVisible() bool {
	return e.opts.Placeholder != "" && sanitize.IsEmpty(e.HTML())
}

// Banner returns the advisory text while it is showing.
func (e *Editor) Banner() (string, bool) {
	if !e.banner {
		return "", false
	}
	return BannerText, true
}

// FormatState is the formatting at the caret as of the last content or
// selection change.
func (e *Editor) FormatState() format.FormatState { return e.state }

// Seq is the sequence number of the last delivered batch.
func (e *Editor) Seq() uint64 { return e.seq }

// SetHTML reconciles a new host value. A value echoing the editor's own last
// emission is ignored, as is one whose sanitized form already matches the
// tree. It reports whether the tree was rewritten.
func (e *Editor) SetHTML(v string) bool {
	if e.closed {
		return false
	}
	echo := e.internal && v == e.lastOut
	e.internal = false
	if echo {
		return false
	}
	return e.reconcile(v)
}

func (e *Editor) reconcile(v string) bool {
	if sanitize.LooksDangerous(v) {
		e.log.Warn("editor: dangerous content sanitized", "doc", e.opts.DocID)
		e.banner = true
		e.alert.Trigger()
	}
	clean := sanitize.ForInput(v)
	if clean == e.HTML() {
		return false
	}
	e.drag.Cancel()
	e.dropMedia()
	e.emit.Stop()
	e.pending = nil
	if err := dom.SetInnerHTML(e.root, clean); err != nil {
		e.log.Warn("editor: set content", "error", err)
		return false
	}
	e.hist.Reset(sanitize.ForOutput(clean))
	e.log.Debug("editor: content replaced", "doc", e.opts.DocID, "bytes", len(clean))
	if clean != "" {
		e.changed(change.Record{Op: change.OpExternal})
	}
	return true
}

// Input reports a native edit the host applied to the tree.
func (e *Editor) Input() {
	if e.closed {
		return
	}
	if e.media.selected != nil && !dom.Contains(e.root, e.media.selected) {
		e.dropMedia()
	}
	rec := change.Record{Op: change.OpInput}
	if r, ok := e.env.Selection(); ok && r.Start.Node != nil {
		if b := dom.TopLevel(r.Start.Node, e.root); b != nil {
			rec.Path = dom.Path(e.root, b)
		}
	}
	e.changed(rec)
}

// SelectionChanged reports that the host moved the selection.
func (e *Editor) SelectionChanged() {
	if e.closed {
		return
	}
	e.bus.Publish(events.Event{Topic: events.SelectionChanged})
}

func (e *Editor) formatted() {
	rec := change.Record{Op: change.OpFormat, Detail: e.exec.LastOp()}
	if r, ok := e.env.Selection(); ok && r.Start.Node != nil {
		if b := dom.TopLevel(r.Start.Node, e.root); b != nil {
			rec.Path = dom.Path(e.root, b)
		}
	}
	e.changed(rec)
}

func (e *Editor) dragged() {
	e.changed(change.Record{Op: change.OpDrag})
}

// changed queues rec and publishes content-changed, which restarts the
// emission window and recomputes the format state.
func (e *Editor) changed(rec change.Record) {
	e.pending = append(e.pending, rec)
	e.bus.Publish(events.Event{Topic: events.ContentChanged, Origin: string(rec.Op)})
}

func (e *Editor) refresh() {
	e.state = e.insp.State()
}

// Flush emits a pending change now. It reports whether one was pending.
func (e *Editor) Flush() bool {
	return e.emit.Flush()
}

func (e *Editor) flush() {
	if e.closed {
		return
	}
	out := e.Output()
	e.hist.Record(out)
	recs := change.Compress(e.pending)
	e.pending = nil
	origin := change.OpInput
	if len(recs) > 0 {
		origin = recs[len(recs)-1].Op
	}
	e.deliver(out, origin, recs)
}

func (e *Editor) deliver(out string, origin change.Op, recs []change.Record) {
	e.seq++
	b := change.Batch{
		ID:        e.opts.IDs(),
		DocID:     e.opts.DocID,
		Seq:       e.seq,
		Origin:    origin,
		HTML:      out,
		Records:   recs,
		Timestamp: e.opts.Now().UnixMilli(),
	}
	e.internal = true
	e.lastOut = out
	if err := e.router.Send(e.ctx, b); err != nil {
		e.log.Warn("editor: deliver change", "seq", b.Seq, "error", err)
	}
}

// Undo restores the previous snapshot. A pending edit is committed to
// history first so it can itself be redone, but only the restored snapshot
// is delivered.
func (e *Editor) Undo() bool { return e.replay(e.hist.Undo, change.OpUndo) }

// Redo re-applies the snapshot most recently undone.
func (e *Editor) Redo() bool { return e.replay(e.hist.Redo, change.OpRedo) }

func (e *Editor) replay(step func() (string, bool), op change.Op) bool {
	if e.closed {
		return false
	}
	held := e.emit.Stop()
	if held {
		e.hist.Record(e.Output())
	}
	v, ok := step()
	if !ok {
		if held {
			e.flush()
		}
		return false
	}
	e.drag.Cancel()
	e.dropMedia()
	e.emit.Stop()
	e.pending = nil
	if err := dom.SetInnerHTML(e.root, sanitize.ForInput(v)); err != nil {
		e.log.Warn("editor: replay", "op", op, "error", err)
		return false
	}
	e.caretAtEnd()
	e.deliver(v, op, []change.Record{{Op: op}})
	e.refresh()
	return true
}

func (e *Editor) caretAtEnd() {
	ts := dom.TextNodes(e.root)
	if len(ts) == 0 {
		e.env.SetSelection(dom.Caret(e.root, dom.Len(e.root)))
		return
	}
	last := ts[len(ts)-1]
	e.env.SetSelection(dom.Caret(last, len(last.Data)))
}

// PointerMove routes a pointer move to the active gesture.
func (e *Editor) PointerMove(x, y float64) {
	if e.media.resizing {
		e.resizeToward(x, y)
	}
	e.bus.Publish(events.Event{Topic: events.PointerMove, X: x, Y: y})
}

// PointerUp ends the active gesture.
func (e *Editor) PointerUp(x, y float64) {
	if e.media.resizing {
		e.EndResize()
	}
	e.bus.Publish(events.Event{Topic: events.PointerUp, X: x, Y: y})
}

// DragHandleDown starts a block drag from the handle next to target.
func (e *Editor) DragHandleDown(target *html.Node, x, y float64) bool {
	if e.closed {
		return false
	}
	return e.drag.Start(target, drag.Pointer{X: x, Y: y})
}

// Close stops every timer and detaches the sinks. A pending emission is
// discarded and later upload completions are dropped.
func (e *Editor) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.emit.Stop()
	e.alert.Stop()
	e.hist.Close()
	e.drag.Cancel()
	for _, u := range e.unsub {
		u()
	}
	e.cancel()
	return e.router.Close()
}
