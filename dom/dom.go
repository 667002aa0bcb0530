// Package dom holds the tree helpers the editing core works with.
//
// The editable region is a detached <div> element whose children are the
// document. There is no shadow model: every command reads and mutates this
// tree directly, and its serialisation is the document.
package dom

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var bodyContext = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}

// NewRoot returns an empty editable root.
func NewRoot() *html.Node {
	return &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
}

// ParseFragment parses s as body content. The returned nodes are detached.
func ParseFragment(s string) ([]*html.Node, error) {
	return html.ParseFragment(strings.NewReader(s), bodyContext)
}

// SetInnerHTML replaces the children of root with the parsed fragment s.
func SetInnerHTML(root *html.Node, s string) error {
	nodes, err := ParseFragment(s)
	if err != nil {
		return err
	}
	RemoveChildren(root)
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return nil
}

// InnerHTML renders the children of n.
func InnerHTML(n *html.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&buf, c)
	}
	return buf.String()
}

// OuterHTML renders n itself.
func OuterHTML(n *html.Node) string {
	var buf bytes.Buffer
	_ = html.Render(&buf, n)
	return buf.String()
}

// RenderNodes renders a detached node list.
func RenderNodes(nodes []*html.Node) string {
	var buf bytes.Buffer
	for _, n := range nodes {
		_ = html.Render(&buf, n)
	}
	return buf.String()
}

// NewElement creates a detached element.
func NewElement(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
}

// NewText creates a detached text node.
func NewText(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// Clone deep-copies n. The copy is detached.
func Clone(n *html.Node) *html.Node {
	c := ShallowClone(n)
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		c.AppendChild(Clone(ch))
	}
	return c
}

// ShallowClone copies n without its children.
func ShallowClone(n *html.Node) *html.Node {
	return &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
}

// IsElement reports whether n is an element with one of the given tags.
// With no tags it only checks the node type.
func IsElement(n *html.Node, tags ...string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if len(tags) == 0 {
		return true
	}
	for _, t := range tags {
		if n.Data == t {
			return true
		}
	}
	return false
}

// Contains reports whether n is anc or one of its descendants.
func Contains(anc, n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == anc {
			return true
		}
	}
	return false
}

// Ancestors returns the element ancestors of n, nearest first, stopping
// before root. n itself is included when it is an element. It returns nil
// when n is not inside root.
func Ancestors(n, root *html.Node) []*html.Node {
	var out []*html.Node
	for p := n; p != nil; p = p.Parent {
		if p == root {
			return out
		}
		if p.Type == html.ElementNode {
			out = append(out, p)
		}
	}
	return nil
}

// Closest returns the first element on the ancestor chain of n (n included,
// root excluded) that satisfies pred.
func Closest(n, root *html.Node, pred func(*html.Node) bool) *html.Node {
	for _, a := range Ancestors(n, root) {
		if pred(a) {
			return a
		}
	}
	return nil
}

// TopLevel returns the child of root that contains n.
func TopLevel(n, root *html.Node) *html.Node {
	for p := n; p != nil; p = p.Parent {
		if p.Parent == root {
			return p
		}
	}
	return nil
}

// Index returns the position of n among its siblings.
func Index(n *html.Node) int {
	i := 0
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		i++
	}
	return i
}

// ChildAt returns the i-th child of n or nil.
func ChildAt(n *html.Node, i int) *html.Node {
	if i < 0 {
		return nil
	}
	c := n.FirstChild
	for ; c != nil && i > 0; i-- {
		c = c.NextSibling
	}
	return c
}

// Children returns a snapshot of n's children.
func Children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// Remove detaches n from its parent.
func Remove(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// RemoveChildren detaches every child of n.
func RemoveChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
}

// InsertBefore attaches n right before ref, detaching n first.
func InsertBefore(n, ref *html.Node) {
	Remove(n)
	ref.Parent.InsertBefore(n, ref)
}

// InsertAfter attaches n right after ref, detaching n first.
func InsertAfter(n, ref *html.Node) {
	Remove(n)
	ref.Parent.InsertBefore(n, ref.NextSibling)
}

// Wrap puts el in n's place and moves n inside it.
func Wrap(n, el *html.Node) {
	parent := n.Parent
	parent.InsertBefore(el, n)
	parent.RemoveChild(n)
	el.AppendChild(n)
}

// Unwrap replaces el with its children.
func Unwrap(el *html.Node) {
	parent := el.Parent
	if parent == nil {
		return
	}
	for c := el.FirstChild; c != nil; {
		next := c.NextSibling
		el.RemoveChild(c)
		parent.InsertBefore(c, el)
		c = next
	}
	parent.RemoveChild(el)
}

// MoveChildren appends every child of src to dst.
func MoveChildren(dst, src *html.Node) {
	for c := src.FirstChild; c != nil; {
		next := c.NextSibling
		src.RemoveChild(c)
		dst.AppendChild(c)
		c = next
	}
}

// Rename turns el into a new element with the given tag, keeping its
// attributes and children. The new element takes el's place.
func Rename(el *html.Node, tag string) *html.Node {
	if el.Data == tag {
		return el
	}
	n := NewElement(tag, append([]html.Attribute(nil), el.Attr...)...)
	el.Parent.InsertBefore(n, el)
	MoveChildren(n, el)
	el.Parent.RemoveChild(el)
	return n
}

// TextNodes returns the text nodes under n in document order.
func TextNodes(n *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			out = append(out, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// TextContent concatenates every text node under n.
func TextContent(n *html.Node) string {
	var sb strings.Builder
	for _, t := range TextNodes(n) {
		sb.WriteString(t.Data)
	}
	return sb.String()
}

// HasContent reports whether n holds any visible text or media.
func HasContent(n *html.Node) bool {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data) != ""
	}
	if IsElement(n, "img", "video", "audio", "hr", "iframe", "table", "picture") {
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if HasContent(c) {
			return true
		}
	}
	return false
}
