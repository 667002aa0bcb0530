package format

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/hazyhaar/richedit/dom"
)

// CodePlaceholder fills a code block inserted over an empty selection.
const CodePlaceholder = "code"

// ValidLinkURL accepts http, https, mailto and tel URLs plus relative
// references and fragments.
func ValidLinkURL(raw string) bool {
	s := strings.TrimSpace(raw)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https", "mailto", "tel":
		return true
	}
	return false
}

func isLink(n *html.Node) bool { return dom.IsElement(n, "a") }

func newLink(href string) *html.Node {
	return dom.NewElement("a", html.Attribute{Key: "href", Val: href})
}

// InsertLink links the selection to href. Inside an existing link it
// updates the target; on a collapsed selection it inserts href as the link
// text.
func (x *Executor) InsertLink(href string) bool {
	href = strings.TrimSpace(href)
	if !ValidLinkURL(href) {
		return false
	}
	return x.run("insert_link", func() bool {
		r, ok := x.selection()
		if !ok {
			a := newLink(href)
			a.AppendChild(dom.NewText(href))
			p := dom.NewElement("p")
			p.AppendChild(a)
			x.root.AppendChild(p)
			return true
		}
		if a := dom.Closest(r.Start.Node, x.root, isLink); a != nil {
			if dom.AttrOr(a, "href", "") == href {
				return false
			}
			dom.SetAttr(a, "href", href)
			return true
		}
		if r.Collapsed() {
			a := newLink(href)
			a.AppendChild(dom.NewText(href))
			x.insertAt(r.Start, a)
			x.env.SetSelection(dom.Caret(a.Parent, dom.Index(a)+1))
			return true
		}

		nodes, nr := dom.SelectText(x.root, r)
		if len(nodes) == 0 {
			return false
		}
		for _, n := range nodes {
			if a := dom.Closest(n, x.root, isLink); a != nil {
				dom.SetAttr(a, "href", href)
				continue
			}
			dom.Wrap(n, newLink(href))
		}
		dom.MergeAdjacent(x.root)
		x.env.SetSelection(nr)
		return true
	})
}

// RemoveLink unwraps every link the selection touches.
func (x *Executor) RemoveLink() bool {
	return x.run("remove_link", func() bool {
		r, ok := x.selection()
		if !ok {
			return false
		}
		var links []*html.Node
		seen := make(map[*html.Node]bool)
		for _, n := range x.touched(r) {
			if a := dom.Closest(n, x.root, isLink); a != nil && !seen[a] {
				seen[a] = true
				links = append(links, a)
			}
		}
		for _, a := range links {
			dom.Unwrap(a)
		}
		return len(links) > 0
	})
}

// insertAt places n at point p, splitting a text node when needed. A point
// outside the tree appends to root.
func (x *Executor) insertAt(p dom.Point, n *html.Node) {
	switch {
	case p.Node == nil || !dom.Contains(x.root, p.Node):
		x.root.AppendChild(n)
	case p.Node.Type == html.TextNode:
		p.Offset = dom.RuneStart(p.Node.Data, p.Offset)
		switch {
		case p.Offset <= 0:
			p.Node.Parent.InsertBefore(n, p.Node)
		case p.Offset >= len(p.Node.Data):
			dom.InsertAfter(n, p.Node)
		default:
			dom.SplitText(p.Node, p.Offset)
			dom.InsertAfter(n, p.Node)
		}
	case p.Node.Type == html.ElementNode && !dom.IsElement(p.Node, "br", "img", "hr", "video"):
		p.Node.InsertBefore(n, dom.ChildAt(p.Node, p.Offset))
	case p.Node == x.root:
		x.root.AppendChild(n)
	default:
		dom.InsertAfter(n, p.Node)
	}
}

func (x *Executor) topAt(p dom.Point) *html.Node {
	if p.Node == x.root {
		if c := dom.ChildAt(x.root, p.Offset); c != nil {
			return c
		}
		return x.root.LastChild
	}
	return dom.TopLevel(p.Node, x.root)
}

// InsertCodeBlock replaces the selection with <pre><code> holding the
// selected text, or CodePlaceholder, and puts the caret inside it.
func (x *Executor) InsertCodeBlock() bool {
	return x.run("code_block", func() bool {
		pre := dom.NewElement("pre")
		code := dom.NewElement("code")
		pre.AppendChild(code)

		text := CodePlaceholder
		var top *html.Node
		if r, ok := x.selection(); ok {
			top = x.topAt(r.Start)
			if !r.Collapsed() {
				nodes, _ := dom.SelectText(x.root, r)
				if len(nodes) > 0 {
					text = joinBlocks(x.root, nodes)
					top = dom.TopLevel(nodes[0], x.root)
					var emptied []*html.Node
					for _, n := range nodes {
						if b := dom.TopLevel(n, x.root); b != top {
							emptied = append(emptied, b)
						}
						dom.Remove(n)
					}
					dom.PruneEmptyInline(x.root)
					dropEmpty(emptied)
				}
			}
		}

		t := dom.NewText(text)
		code.AppendChild(t)
		switch {
		case top == nil || top.Parent != x.root:
			x.root.AppendChild(pre)
		case top.Type == html.ElementNode && !isMedia(top) && !dom.HasContent(top):
			dom.InsertBefore(pre, top)
			dom.Remove(top)
		default:
			dom.InsertAfter(pre, top)
		}
		x.env.SetSelection(dom.Caret(t, len(t.Data)))
		return true
	})
}

// dropEmpty removes the blocks a deletion left without content.
func dropEmpty(blocks []*html.Node) {
	for _, b := range blocks {
		if b != nil && b.Parent != nil && b.Type == html.ElementNode && !isMedia(b) && !dom.HasContent(b) {
			dom.Remove(b)
		}
	}
}

// joinBlocks concatenates text nodes, separating nodes from different
// blocks with a newline.
func joinBlocks(root *html.Node, nodes []*html.Node) string {
	var sb strings.Builder
	var prev *html.Node
	for i, n := range nodes {
		b := dom.Closest(n, root, textBlock)
		if i > 0 && b != prev {
			sb.WriteByte('\n')
		}
		prev = b
		sb.WriteString(n.Data)
	}
	return sb.String()
}

// InsertHorizontalRule adds <hr> after the block holding the selection end.
func (x *Executor) InsertHorizontalRule() bool {
	return x.run("horizontal_rule", func() bool {
		hr := dom.NewElement("hr")
		var top *html.Node
		if r, ok := x.selection(); ok {
			top = x.topAt(r.End)
		}
		if top == nil {
			x.root.AppendChild(hr)
		} else {
			dom.InsertAfter(hr, top)
		}
		return true
	})
}

// ToggleBlockquote lifts the anchor out of its quote, or quotes the root
// children spanned by the selection.
func (x *Executor) ToggleBlockquote() bool {
	return x.run("blockquote", func() bool {
		r, ok := x.selection()
		if !ok {
			return false
		}
		if bq := dom.Closest(r.Start.Node, x.root, func(n *html.Node) bool {
			return dom.IsElement(n, "blockquote")
		}); bq != nil {
			dom.Unwrap(bq)
			return true
		}
		first, last := x.topAt(r.Start), x.topAt(r.End)
		if first == nil || last == nil {
			return false
		}
		if dom.Index(first) > dom.Index(last) {
			first, last = last, first
		}
		bq := dom.NewElement("blockquote")
		x.root.InsertBefore(bq, first)
		for c := first; c != nil; {
			next := c.NextSibling
			x.root.RemoveChild(c)
			bq.AppendChild(c)
			if c == last {
				break
			}
			c = next
		}
		return true
	})
}
