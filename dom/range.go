package dom

import (
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Point is a boundary inside the tree. For text nodes Offset is a byte
// offset into Data; for elements it is a child index.
type Point struct {
	Node   *html.Node
	Offset int
}

// Range is a selection between two points. Start is the anchor.
type Range struct {
	Start Point
	End   Point
}

// Caret returns a collapsed range at (n, offset).
func Caret(n *html.Node, offset int) Range {
	p := Point{Node: n, Offset: offset}
	return Range{Start: p, End: p}
}

// Collapsed reports whether the range is empty.
func (r Range) Collapsed() bool {
	return r.Start == r.End || Compare(r.Start, r.End) == 0
}

// Valid reports whether both endpoints are set.
func (r Range) Valid() bool {
	return r.Start.Node != nil && r.End.Node != nil
}

// Normalize returns r with Start before End.
func (r Range) Normalize() Range {
	if Compare(r.Start, r.End) > 0 {
		return Range{Start: r.End, End: r.Start}
	}
	return r
}

// Within reports whether both endpoints lie inside root.
func (r Range) Within(root *html.Node) bool {
	return r.Valid() && Contains(root, r.Start.Node) && Contains(root, r.End.Node)
}

// Len is the maximum offset for a point in n.
func Len(n *html.Node) int {
	if n.Type == html.TextNode {
		return len(n.Data)
	}
	c := 0
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		c++
	}
	return c
}

// Compare orders two points of the same tree in document order.
func Compare(a, b Point) int {
	ka := append(indexPath(a.Node), a.Offset)
	kb := append(indexPath(b.Node), b.Offset)
	for i := 0; i < len(ka) && i < len(kb); i++ {
		if ka[i] != kb[i] {
			if ka[i] < kb[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(ka) < len(kb):
		return -1
	case len(ka) > len(kb):
		return 1
	}
	return 0
}

func indexPath(n *html.Node) []int {
	var rev []int
	for p := n; p != nil && p.Parent != nil; p = p.Parent {
		rev = append(rev, Index(p))
	}
	out := make([]int, len(rev))
	for i, v := range rev {
		out[len(rev)-1-i] = v
	}
	return out
}

// RuneStart moves a byte offset into s back to the start of the character
// it falls in, clamped to [0, len(s)].
func RuneStart(s string, offset int) int {
	if offset <= 0 {
		return 0
	}
	if offset >= len(s) {
		return len(s)
	}
	for offset > 0 && !utf8.RuneStart(s[offset]) {
		offset--
	}
	return offset
}

// snap re-expresses a text point on a character boundary.
func snap(p Point) Point {
	if p.Node != nil && p.Node.Type == html.TextNode {
		p.Offset = RuneStart(p.Node.Data, p.Offset)
	}
	return p
}

// SplitText cuts t at offset, moved back to a character boundary. t keeps
// the head; the returned node holds the tail and is inserted right after t.
func SplitText(t *html.Node, offset int) *html.Node {
	offset = RuneStart(t.Data, offset)
	tail := NewText(t.Data[offset:])
	t.Data = t.Data[:offset]
	t.Parent.InsertBefore(tail, t.NextSibling)
	return tail
}

// SelectText splits the boundary text nodes of r so the range covers whole
// text nodes, and returns those nodes in document order together with the
// range re-expressed over them. A collapsed range selects nothing.
func SelectText(root *html.Node, r Range) ([]*html.Node, Range) {
	if !r.Within(root) {
		return nil, r
	}
	r = r.Normalize()
	if r.Collapsed() {
		return nil, r
	}
	start, end := snap(r.Start), snap(r.End)
	if start == end {
		return nil, Range{Start: start, End: end}
	}
	if end.Node.Type == html.TextNode && end.Offset > 0 && end.Offset < len(end.Node.Data) {
		SplitText(end.Node, end.Offset)
	}
	if start.Node.Type == html.TextNode && start.Offset > 0 && start.Offset < len(start.Node.Data) {
		tail := SplitText(start.Node, start.Offset)
		if end.Node == start.Node {
			end = Point{Node: tail, Offset: end.Offset - start.Offset}
		}
		start = Point{Node: tail, Offset: 0}
	}

	var out []*html.Node
	for _, t := range TextNodes(root) {
		if t.Data == "" {
			continue
		}
		if Compare(Point{Node: t}, start) >= 0 && Compare(Point{Node: t, Offset: len(t.Data)}, end) <= 0 {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil, Range{Start: start, End: end}
	}
	last := out[len(out)-1]
	return out, Range{Start: Point{Node: out[0]}, End: Point{Node: last, Offset: len(last.Data)}}
}

// SelectNode returns a range spanning the whole content of n.
func SelectNode(n *html.Node) Range {
	return Range{Start: Point{Node: n}, End: Point{Node: n, Offset: Len(n)}}
}
