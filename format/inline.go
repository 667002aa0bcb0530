package format

import (
	"fmt"
	"strconv"

	"golang.org/x/net/html"

	"github.com/hazyhaar/richedit/dom"
)

// fontAttr maps a style property to its legacy <font> attribute.
var fontAttr = map[string]string{
	"color":       "color",
	"font-family": "face",
	"font-size":   "size",
}

// SetTextColor sets the text colour of the selection; "" clears it.
func (x *Executor) SetTextColor(c string) bool {
	return x.styleSelection("text_color", "color", colorValue(c))
}

// SetBackgroundColor sets the highlight of the selection; "" clears it.
func (x *Executor) SetBackgroundColor(c string) bool {
	return x.styleSelection("background_color", "background-color", colorValue(c))
}

// SetFontFamily sets the font family of the selection; "" clears it.
func (x *Executor) SetFontFamily(f string) bool {
	return x.styleSelection("font_family", "font-family", f)
}

func colorValue(c string) string {
	if c == "" {
		return ""
	}
	if n := NormalizeColor(c); n != "" {
		return n
	}
	return c
}

func (x *Executor) styleSelection(op, prop, value string) bool {
	return x.run(op, func() bool {
		r, ok := x.selection()
		if !ok || r.Collapsed() {
			return false
		}
		nodes, nr := dom.SelectText(x.root, r)
		if len(nodes) == 0 {
			return false
		}
		if value == "" {
			x.clearStyle(nodes, prop)
		} else {
			for _, n := range nodes {
				dom.SetStyle(inlineHolder(n, "span"), prop, value)
			}
		}
		unwrapBare(x.root)
		dom.MergeAdjacent(x.root)
		dom.PruneEmptyInline(x.root)
		x.env.SetSelection(nr)
		return true
	})
}

// inlineHolder returns an element of the given tag that holds exactly n,
// reusing n's parent when it already does.
func inlineHolder(n *html.Node, tag string) *html.Node {
	if p := n.Parent; dom.IsElement(p, tag) && p.FirstChild == n && p.LastChild == n {
		return p
	}
	el := dom.NewElement(tag)
	dom.Wrap(n, el)
	return el
}

// clearStyle removes prop from the selected nodes while the unselected text
// under the same styled ancestors keeps it.
func (x *Executor) clearStyle(nodes []*html.Node, prop string) {
	selected := make(map[*html.Node]bool, len(nodes))
	for _, n := range nodes {
		selected[n] = true
	}
	carries := func(a *html.Node) bool {
		if dom.Style(a, prop) != "" {
			return true
		}
		_, ok := dom.Attr(a, fontAttr[prop])
		return dom.IsElement(a, "font") && ok
	}
	for _, n := range nodes {
		for {
			anc := dom.Closest(n, x.root, func(a *html.Node) bool {
				return dom.IsInline(a) && carries(a)
			})
			if anc == nil {
				break
			}
			for _, t := range dom.TextNodes(anc) {
				c := dom.ShallowClone(anc)
				if selected[t] {
					dom.RemoveStyle(c, prop)
					if dom.IsElement(c, "font") {
						dom.RemoveAttr(c, fontAttr[prop])
					}
				}
				dom.Wrap(t, c)
			}
			dom.Unwrap(anc)
		}
	}
}

// unwrapBare removes attribute-less span and font elements under n.
func unwrapBare(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		unwrapBare(c)
		if dom.IsElement(c, "span", "font") && len(c.Attr) == 0 {
			dom.Unwrap(c)
		}
		c = next
	}
}

// SetFontSize sizes the selection to px. A selection whose ends share a
// parent is wrapped in one span with an explicit size; anything else falls
// back to the nearest step of FontScale on <font size>.
func (x *Executor) SetFontSize(px int) bool {
	if px <= 0 {
		return false
	}
	return x.run("font_size", func() bool {
		r, ok := x.selection()
		if !ok || r.Collapsed() {
			return false
		}
		parent := r.Start.Node.Parent
		clean := r.Start.Node.Type == html.TextNode && r.End.Node.Type == html.TextNode &&
			parent != nil && parent == r.End.Node.Parent

		nodes, nr := dom.SelectText(x.root, r)
		if len(nodes) == 0 {
			return false
		}
		if clean && x.wrapSized(parent, nodes, px) {
			x.env.SetSelection(nr)
			return true
		}

		step := FontStep(px)
		x.log.Debug("format: font size fallback", "px", px, "step", step)
		for _, n := range nodes {
			dom.SetAttr(inlineHolder(n, "font"), "size", strconv.Itoa(step))
		}
		dom.MergeAdjacent(x.root)
		x.env.SetSelection(nr)
		return true
	})
}

func (x *Executor) wrapSized(parent *html.Node, nodes []*html.Node, px int) bool {
	first := childOf(nodes[0], parent)
	last := childOf(nodes[len(nodes)-1], parent)
	if first == nil || last == nil {
		return false
	}
	size := fmt.Sprintf("%dpx", px)

	if dom.IsElement(parent, "span") && coversAll(parent, nodes) {
		dom.SetStyle(parent, "font-size", size)
		return true
	}
	if first == last && dom.IsElement(first, "span") && coversAll(first, nodes) {
		dom.SetStyle(first, "font-size", size)
		return true
	}
	span := dom.NewElement("span")
	dom.SetStyle(span, "font-size", size)
	parent.InsertBefore(span, first)
	for c := first; c != nil; {
		next := c.NextSibling
		parent.RemoveChild(c)
		span.AppendChild(c)
		if c == last {
			break
		}
		c = next
	}
	return true
}

func childOf(n, parent *html.Node) *html.Node {
	for p := n; p != nil; p = p.Parent {
		if p.Parent == parent {
			return p
		}
	}
	return nil
}

func coversAll(el *html.Node, nodes []*html.Node) bool {
	in := make(map[*html.Node]bool, len(nodes))
	for _, n := range nodes {
		in[n] = true
	}
	for _, t := range dom.TextNodes(el) {
		if t.Data != "" && !in[t] {
			return false
		}
	}
	return true
}

// SetAlign aligns every block in the selection. Left is the default and
// clears any explicit alignment.
func (x *Executor) SetAlign(a Align) bool {
	return x.run("align", func() bool {
		r, ok := x.selection()
		if !ok {
			return false
		}
		targets, changed := x.blocksInRange(r)
		for _, t := range targets {
			b := t.block
			if _, had := dom.Attr(b, "align"); had {
				dom.RemoveAttr(b, "align")
				changed = true
			}
			cur := dom.Style(b, "text-align")
			switch {
			case a == AlignLeft || a == "":
				if cur != "" {
					dom.RemoveStyle(b, "text-align")
					changed = true
				}
			case cur != string(a):
				dom.SetStyle(b, "text-align", string(a))
				changed = true
			}
		}
		return changed
	})
}
