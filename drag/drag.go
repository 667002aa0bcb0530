// Package drag reorders the top-level blocks of the editable root with a
// pointer gesture. An Engine is Idle until Start and returns to Idle on
// Drop or Cancel; nothing survives a gesture.
package drag

import (
	"fmt"
	"log/slog"

	"golang.org/x/net/html"

	"github.com/hazyhaar/richedit/dom"
	"github.com/hazyhaar/richedit/env"
	"github.com/hazyhaar/richedit/events"
)

// Marker classes. They are stripped from emitted HTML.
const (
	GhostClass    = "richedit-ghost"
	DraggingClass = "richedit-dragging"
)

var blockTags = []string{
	"p", "h1", "h2", "h3", "h4", "h5", "h6",
	"ul", "ol", "blockquote", "pre", "figure", "img", "video", "hr", "table",
}

// IsBlock reports whether n is a draggable block tag.
func IsBlock(n *html.Node) bool { return dom.IsElement(n, blockTags...) }

// State of an Engine.
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Position is the side of the target block the dragged block lands on.
type Position string

const (
	Before Position = "before"
	After  Position = "after"
)

// Pointer is a viewport coordinate.
type Pointer struct {
	X, Y float64
}

// Target is a resolved insertion point.
type Target struct {
	Block    *html.Node
	Position Position
}

// Box pairs a block with its measured rectangle.
type Box struct {
	Node *html.Node
	Rect env.Rect
}

// Resolve picks the insertion point for a pointer at height y. The first box
// whose midpoint lies strictly below y wins with Before; otherwise the last
// box wins with After. ok is false only when boxes is empty.
func Resolve(boxes []Box, y float64) (t Target, ok bool) {
	for _, b := range boxes {
		if b.Rect.MidY() > y {
			return Target{Block: b.Node, Position: Before}, true
		}
		t = Target{Block: b.Node, Position: After}
		ok = true
	}
	return t, ok
}

// Option configures an Engine.
type Option func(*Engine)

// WithBus routes pointer-move and pointer-up events from bus to the engine
// while a drag is in progress.
func WithBus(b *events.Bus) Option {
	return func(e *Engine) { e.bus = b }
}

// WithLogger sets the logger. Nil means slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// Engine is the drag state machine. It is not safe for concurrent use; the
// editor serialises every call.
type Engine struct {
	root     *html.Node
	layout   env.Layout
	onChange func()
	bus      *events.Bus
	log      *slog.Logger

	dragged   *html.Node
	ghost     *html.Node
	target    Target
	hasTarget bool
	indicator float64
	unsub     []func()
}

// New returns an idle engine over root. onChange runs after a drop that
// reordered blocks.
func New(root *html.Node, layout env.Layout, onChange func(), opts ...Option) *Engine {
	e := &Engine{root: root, layout: layout, onChange: onChange, log: slog.Default()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// State returns Idle or Dragging.
func (e *Engine) State() State {
	if e.dragged != nil {
		return Dragging
	}
	return Idle
}

// Dragged is the block being moved, nil when idle.
func (e *Engine) Dragged() *html.Node { return e.dragged }

// Ghost is the detached clone that follows the pointer, nil when idle.
func (e *Engine) Ghost() *html.Node { return e.ghost }

// Target returns the current insertion point.
func (e *Engine) Target() (Target, bool) { return e.target, e.hasTarget }

// IndicatorY is the vertical position of the drop line, valid while a
// target exists.
func (e *Engine) IndicatorY() (float64, bool) { return e.indicator, e.hasTarget }

// Start begins a drag on the nearest draggable block containing target.
// It reports false when already dragging or when no block qualifies.
func (e *Engine) Start(target *html.Node, p Pointer) bool {
	if e.dragged != nil || target == nil {
		return false
	}
	block := dom.TopLevel(target, e.root)
	if block == nil || !IsBlock(block) {
		return false
	}
	e.dragged = block
	e.ghost = dom.Clone(block)
	dom.AddClass(e.ghost, GhostClass)
	dom.AddClass(block, DraggingClass)
	e.place(p)

	if e.bus != nil {
		e.unsub = append(e.unsub,
			e.bus.Subscribe(events.PointerMove, func(ev events.Event) { e.Move(Pointer{X: ev.X, Y: ev.Y}) }),
			e.bus.Subscribe(events.PointerUp, func(ev events.Event) { e.Drop(Pointer{X: ev.X, Y: ev.Y}) }),
		)
	}
	e.log.Debug("drag: start", "block", block.Data, "index", dom.Index(block))
	e.Move(p)
	return true
}

func (e *Engine) place(p Pointer) {
	dom.SetStyle(e.ghost, "left", fmt.Sprintf("%gpx", p.X))
	dom.SetStyle(e.ghost, "top", fmt.Sprintf("%gpx", p.Y))
}

// Move tracks the pointer and recomputes the target.
func (e *Engine) Move(p Pointer) {
	if e.dragged == nil {
		return
	}
	e.place(p)
	e.hasTarget = false

	if r, ok := e.layout.Rect(e.root); ok && !r.ContainsX(p.X) {
		return
	}
	t, ok := Resolve(e.boxes(), p.Y)
	if !ok {
		return
	}
	r, _ := e.layout.Rect(t.Block)
	e.target, e.hasTarget = t, true
	if t.Position == Before {
		e.indicator = r.Top()
	} else {
		e.indicator = r.Bottom()
	}
}

// boxes lists the measured candidate blocks in document order, without the
// dragged one.
func (e *Engine) boxes() []Box {
	var out []Box
	for c := e.root.FirstChild; c != nil; c = c.NextSibling {
		if c == e.dragged || !IsBlock(c) {
			continue
		}
		if r, ok := e.layout.Rect(c); ok {
			out = append(out, Box{Node: c, Rect: r})
		}
	}
	return out
}

// Drop ends the drag at p. It reports whether the block order changed.
func (e *Engine) Drop(p Pointer) bool {
	if e.dragged == nil {
		return false
	}
	e.Move(p)
	block, t, ok := e.dragged, e.target, e.hasTarget
	e.end()

	if !ok || t.Block.Parent != block.Parent {
		e.log.Debug("drag: drop without target")
		return false
	}
	before := dom.Children(e.root)
	if t.Position == Before {
		dom.InsertBefore(block, t.Block)
	} else {
		dom.InsertAfter(block, t.Block)
	}
	if sameOrder(before, dom.Children(e.root)) {
		return false
	}
	e.log.Debug("drag: drop", "block", block.Data, "index", dom.Index(block))
	if e.onChange != nil {
		e.onChange()
	}
	return true
}

// Cancel abandons the gesture and leaves the tree as it was.
func (e *Engine) Cancel() {
	if e.dragged != nil {
		e.end()
	}
}

func (e *Engine) end() {
	for _, u := range e.unsub {
		u()
	}
	e.unsub = nil
	dom.RemoveClass(e.dragged, DraggingClass)
	e.dragged, e.ghost = nil, nil
	e.target, e.hasTarget, e.indicator = Target{}, false, 0
}

func sameOrder(a, b []*html.Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
