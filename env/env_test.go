package env

import (
	"testing"

	"golang.org/x/net/html"

	"github.com/hazyhaar/richedit/dom"
)

func TestStackedLayout(t *testing.T) {
	root := dom.NewRoot()
	if err := dom.SetInnerHTML(root, "<p>a</p><h2>b</h2>\n<ul><li>c</li></ul>"); err != nil {
		t.Fatal(err)
	}
	m := NewMemory()
	m.StackedLayout(root, 600, 20)

	blocks := dom.Children(root)
	var want float64
	for _, b := range blocks {
		if b.Type != html.ElementNode {
			continue
		}
		r, ok := m.Rect(b)
		if !ok {
			t.Fatalf("no rect for <%s>", b.Data)
		}
		if r.Top() != want || r.Bottom() != want+20 {
			t.Errorf("<%s>: got %+v, want top %v", b.Data, r, want)
		}
		want += 20
	}
	if r, _ := m.Rect(root); r.Height != 60 {
		t.Errorf("root height: got %v, want 60", r.Height)
	}
}

func TestRect(t *testing.T) {
	r := Rect{X: 10, Y: 100, Width: 200, Height: 40}
	if r.MidY() != 120 {
		t.Errorf("MidY: got %v", r.MidY())
	}
	if !r.ContainsX(10) || !r.ContainsX(210) || r.ContainsX(211) {
		t.Error("ContainsX bounds are inclusive")
	}
}

func TestMemory_Selection(t *testing.T) {
	m := NewMemory()
	if _, ok := m.Selection(); ok {
		t.Fatal("fresh env has a selection")
	}
	n := dom.NewText("x")
	m.SetSelection(dom.Caret(n, 0))
	if r, ok := m.Selection(); !ok || r.Start.Node != n {
		t.Fatal("selection not stored")
	}
	m.ClearSelection()
	if _, ok := m.Selection(); ok {
		t.Error("ClearSelection kept the range")
	}
}
