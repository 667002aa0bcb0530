package drag

import (
	"testing"

	"golang.org/x/net/html"

	"github.com/hazyhaar/richedit/dom"
	"github.com/hazyhaar/richedit/env"
	"github.com/hazyhaar/richedit/events"
)

// setup lays three 20px paragraphs out in a 100px column: midpoints at 10,
// 30 and 50.
func setup(t *testing.T, opts ...Option) (*html.Node, *Engine, *int) {
	t.Helper()
	root := dom.NewRoot()
	if err := dom.SetInnerHTML(root, `<p>a</p><p>b</p><p>c</p>`); err != nil {
		t.Fatal(err)
	}
	mem := env.NewMemory()
	mem.StackedLayout(root, 100, 20)
	changes := 0
	return root, New(root, mem, func() { changes++ }, opts...), &changes
}

func block(root *html.Node, i int) *html.Node { return dom.ChildAt(root, i) }

func TestResolve(t *testing.T) {
	a, b := dom.NewElement("p"), dom.NewElement("p")
	boxes := []Box{
		{Node: a, Rect: env.Rect{Y: 0, Width: 100, Height: 20}},
		{Node: b, Rect: env.Rect{Y: 20, Width: 100, Height: 20}},
	}
	cases := []struct {
		y    float64
		node *html.Node
		pos  Position
	}{
		{-5, a, Before},
		{9, a, Before},
		{10, b, Before},
		{29, b, Before},
		{30, b, After},
		{500, b, After},
	}
	for _, c := range cases {
		got, ok := Resolve(boxes, c.y)
		if !ok || got.Block != c.node || got.Position != c.pos {
			t.Errorf("Resolve(y=%v): got %+v ok=%v, want %s of %p", c.y, got, ok, c.pos, c.node)
		}
	}
	if _, ok := Resolve(nil, 0); ok {
		t.Error("Resolve(nil): expected no target")
	}
}

func TestDrop_Reorders(t *testing.T) {
	cases := []struct {
		name string
		from int
		y    float64
		want string
	}{
		{"to top", 2, 5, `<p>c</p><p>a</p><p>b</p>`},
		{"before next but one", 0, 35, `<p>b</p><p>a</p><p>c</p>`},
		{"past last", 0, 55, `<p>b</p><p>c</p><p>a</p>`},
		{"midpoint tie goes after", 0, 30, `<p>b</p><p>a</p><p>c</p>`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			root, e, changes := setup(t)
			if !e.Start(block(root, c.from).FirstChild, Pointer{X: 50, Y: 0}) {
				t.Fatal("Start refused")
			}
			if !e.Drop(Pointer{X: 50, Y: c.y}) {
				t.Fatal("Drop reported no change")
			}
			if got := dom.InnerHTML(root); got != c.want {
				t.Errorf("got %q, want %q", got, c.want)
			}
			if *changes != 1 {
				t.Errorf("changes: got %d, want 1", *changes)
			}
			if e.State() != Idle {
				t.Errorf("state: got %s, want idle", e.State())
			}
		})
	}
}

func TestDrop_SamePlaceSignalsNothing(t *testing.T) {
	root, e, changes := setup(t)
	e.Start(block(root, 1), Pointer{X: 50, Y: 30})
	if e.Drop(Pointer{X: 50, Y: 25}) {
		t.Error("Drop reported a change")
	}
	if got, want := dom.InnerHTML(root), `<p>a</p><p>b</p><p>c</p>`; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if *changes != 0 {
		t.Errorf("changes: got %d, want 0", *changes)
	}
}

func TestMove_OutsideClearsTarget(t *testing.T) {
	root, e, changes := setup(t)
	e.Start(block(root, 0), Pointer{X: 50, Y: 0})
	e.Move(Pointer{X: 50, Y: 55})
	if y, ok := e.IndicatorY(); !ok || y != 60 {
		t.Errorf("indicator: got %v ok=%v, want 60", y, ok)
	}
	e.Move(Pointer{X: 150, Y: 55})
	if _, ok := e.Target(); ok {
		t.Error("target kept outside the root")
	}
	if e.Drop(Pointer{X: 150, Y: 55}) {
		t.Error("Drop outside moved the block")
	}
	if *changes != 0 {
		t.Errorf("changes: got %d, want 0", *changes)
	}
	if got, want := dom.InnerHTML(root), `<p>a</p><p>b</p><p>c</p>`; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestStart_GhostAndMarker(t *testing.T) {
	root, e, _ := setup(t)
	b := block(root, 1)
	if !e.Start(b.FirstChild, Pointer{X: 12, Y: 34}) {
		t.Fatal("Start refused")
	}
	g := e.Ghost()
	if g == nil || g.Parent != nil {
		t.Fatal("ghost missing or attached")
	}
	if !dom.HasClass(g, GhostClass) || dom.HasClass(g, DraggingClass) {
		t.Errorf("ghost classes: got %v", dom.Classes(g))
	}
	if dom.Style(g, "left") != "12px" || dom.Style(g, "top") != "34px" {
		t.Errorf("ghost position: got %q", dom.AttrOr(g, "style", ""))
	}
	if !dom.HasClass(b, DraggingClass) {
		t.Error("original not marked")
	}
	if e.Start(block(root, 0), Pointer{}) {
		t.Error("second Start accepted")
	}
	e.Cancel()
	if _, ok := dom.Attr(b, "class"); ok {
		t.Error("dragging class left after Cancel")
	}
	if e.Ghost() != nil || e.State() != Idle {
		t.Error("engine not idle after Cancel")
	}
}

func TestStart_RequiresBlock(t *testing.T) {
	root := dom.NewRoot()
	dom.SetInnerHTML(root, `<div>x</div><ul><li>y</li></ul>`)
	e := New(root, env.NewMemory(), nil)
	if e.Start(root.FirstChild.FirstChild, Pointer{}) {
		t.Error("div accepted as a block")
	}
	if !e.Start(root.LastChild.FirstChild.FirstChild, Pointer{}) {
		t.Fatal("list item text not resolved to its list")
	}
	if e.Dragged() != root.LastChild {
		t.Errorf("dragged: got %q, want ul", e.Dragged().Data)
	}
}

func TestBus_ListenersOnlyWhileDragging(t *testing.T) {
	bus := events.New()
	root, e, changes := setup(t, WithBus(bus))
	if n := bus.Subscribers(events.PointerMove); n != 0 {
		t.Fatalf("idle listeners: got %d, want 0", n)
	}
	e.Start(block(root, 2), Pointer{X: 50, Y: 50})
	if bus.Subscribers(events.PointerMove) != 1 || bus.Subscribers(events.PointerUp) != 1 {
		t.Fatal("pointer listeners not attached")
	}
	bus.Publish(events.Event{Topic: events.PointerMove, X: 50, Y: 5})
	if tg, ok := e.Target(); !ok || tg.Block != block(root, 0) || tg.Position != Before {
		t.Errorf("target: got %+v ok=%v", tg, ok)
	}
	bus.Publish(events.Event{Topic: events.PointerUp, X: 50, Y: 5})
	if got, want := dom.InnerHTML(root), `<p>c</p><p>a</p><p>b</p>`; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if *changes != 1 {
		t.Errorf("changes: got %d, want 1", *changes)
	}
	if bus.Subscribers(events.PointerMove) != 0 || bus.Subscribers(events.PointerUp) != 0 {
		t.Error("pointer listeners left after drop")
	}
}
