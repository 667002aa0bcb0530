package env

import (
	"sync"

	"golang.org/x/net/html"

	"github.com/hazyhaar/richedit/dom"
)

// Memory is a mutable Env kept entirely in process. Geometry is whatever
// was last set with SetRect or StackedLayout.
type Memory struct {
	mu      sync.Mutex
	apple   bool
	focused bool
	sel     dom.Range
	hasSel  bool
	rects   map[*html.Node]Rect
	natural map[*html.Node][2]float64
}

var _ Env = (*Memory)(nil)

// NewMemory returns an unfocused, non-Apple environment without selection.
func NewMemory() *Memory {
	return &Memory{
		rects:   make(map[*html.Node]Rect),
		natural: make(map[*html.Node][2]float64),
	}
}

func (m *Memory) IsApple() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.apple
}

// SetApple switches the platform.
func (m *Memory) SetApple(v bool) {
	m.mu.Lock()
	m.apple = v
	m.mu.Unlock()
}

func (m *Memory) Selection() (dom.Range, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sel, m.hasSel
}

func (m *Memory) SetSelection(r dom.Range) {
	m.mu.Lock()
	m.sel, m.hasSel = r, r.Valid()
	m.mu.Unlock()
}

// ClearSelection drops the selection.
func (m *Memory) ClearSelection() {
	m.mu.Lock()
	m.sel, m.hasSel = dom.Range{}, false
	m.mu.Unlock()
}

func (m *Memory) HasFocus() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.focused
}

func (m *Memory) Focus() {
	m.mu.Lock()
	m.focused = true
	m.mu.Unlock()
}

// Blur removes focus.
func (m *Memory) Blur() {
	m.mu.Lock()
	m.focused = false
	m.mu.Unlock()
}

func (m *Memory) Rect(n *html.Node) (Rect, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rects[n]
	return r, ok
}

// SetRect records the box of n.
func (m *Memory) SetRect(n *html.Node, r Rect) {
	m.mu.Lock()
	m.rects[n] = r
	m.mu.Unlock()
}

func (m *Memory) NaturalSize(n *html.Node) (w, h float64, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.natural[n]
	return s[0], s[1], ok
}

// SetNaturalSize records the intrinsic size of a media element.
func (m *Memory) SetNaturalSize(n *html.Node, w, h float64) {
	m.mu.Lock()
	m.natural[n] = [2]float64{w, h}
	m.mu.Unlock()
}

// StackedLayout lays the element children of root out top to bottom, each
// lineHeight tall and width wide, starting at y = 0. The root gets the
// enclosing box. Previous rects are discarded.
func (m *Memory) StackedLayout(root *html.Node, width, lineHeight float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rects = make(map[*html.Node]Rect)
	y := 0.0
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		m.rects[c] = Rect{X: 0, Y: y, Width: width, Height: lineHeight}
		y += lineHeight
	}
	m.rects[root] = Rect{X: 0, Y: 0, Width: width, Height: y}
}
