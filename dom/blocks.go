package dom

import (
	"golang.org/x/net/html"
)

var blockTags = map[string]bool{
	"p": true, "div": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "ul": true, "ol": true, "li": true, "hr": true,
	"figure": true, "figcaption": true, "table": true, "thead": true, "tbody": true,
	"tfoot": true, "tr": true, "td": true, "th": true, "caption": true,
}

var inlineTags = map[string]bool{
	"a": true, "b": true, "strong": true, "i": true, "em": true, "u": true, "s": true,
	"strike": true, "del": true, "ins": true, "mark": true, "sub": true, "sup": true,
	"small": true, "code": true, "kbd": true, "span": true, "font": true,
}

// IsBlock reports whether n is a block-level element.
func IsBlock(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && blockTags[n.Data]
}

// IsInline reports whether n is an inline formatting element.
func IsInline(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && inlineTags[n.Data]
}

// IsHeading reports whether n is h1..h6.
func IsHeading(n *html.Node) bool {
	return IsElement(n, "h1", "h2", "h3", "h4", "h5", "h6")
}

// MergeAdjacent joins neighbouring inline elements that share tag and
// attributes, recursively under n. Text nodes are left as they are so
// points into them stay valid.
func MergeAdjacent(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		for {
			next := c.NextSibling
			if !IsInline(c) || !IsInline(next) || c.Data != next.Data || !SameAttrs(c, next) {
				break
			}
			MoveChildren(c, next)
			n.RemoveChild(next)
		}
		MergeAdjacent(c)
	}
}

// PruneEmptyInline removes inline elements under n that no longer hold any
// node.
func PruneEmptyInline(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		PruneEmptyInline(c)
		if IsInline(c) && c.FirstChild == nil {
			n.RemoveChild(c)
		}
		c = next
	}
}
