// Package env is the editor's view of its surroundings: platform, selection,
// focus and layout geometry. Hosts implement Env; Memory is the in-process
// implementation.
package env

import (
	"golang.org/x/net/html"

	"github.com/hazyhaar/richedit/dom"
)

// Platform answers platform questions for shortcut dispatch.
type Platform interface {
	// IsApple reports whether the primary modifier is Meta instead of Ctrl.
	IsApple() bool
}

// Selection is the live selection of the editable region.
type Selection interface {
	Selection() (dom.Range, bool)
	SetSelection(r dom.Range)
}

// Focus tracks whether the editable region holds focus.
type Focus interface {
	HasFocus() bool
	Focus()
}

// Layout returns live geometry for rendered nodes.
type Layout interface {
	Rect(n *html.Node) (Rect, bool)
	// NaturalSize is the intrinsic size of a media element.
	NaturalSize(n *html.Node) (w, h float64, ok bool)
}

// Env bundles every capability the editor needs.
type Env interface {
	Platform
	Selection
	Focus
	Layout
}

// Rect is an axis-aligned box in viewport pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Top() float64    { return r.Y }
func (r Rect) Bottom() float64 { return r.Y + r.Height }
func (r Rect) Right() float64  { return r.X + r.Width }
func (r Rect) MidY() float64   { return r.Y + r.Height/2 }

// ContainsX reports whether x lies within the horizontal extent.
func (r Rect) ContainsX(x float64) bool {
	return x >= r.X && x <= r.Right()
}
