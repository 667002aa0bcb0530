// Package format holds the formatting commands that mutate the editable
// tree (Executor) and the read-only queries that describe the formatting at
// the selection anchor (Inspector).
package format

import (
	"golang.org/x/net/html"

	"github.com/hazyhaar/richedit/dom"
)

// Mark is an inline toggle.
type Mark int

const (
	Bold Mark = iota
	Italic
	Underline
	Strike
)

func (m Mark) String() string {
	switch m {
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	case Underline:
		return "underline"
	case Strike:
		return "strike"
	}
	return "unknown"
}

// ParseMark is the inverse of Mark.String.
func ParseMark(s string) (Mark, bool) {
	for _, m := range []Mark{Bold, Italic, Underline, Strike} {
		if m.String() == s {
			return m, true
		}
	}
	return 0, false
}

// markTags lists the elements that carry each mark; the first is the one
// the executor creates.
var markTags = map[Mark][]string{
	Bold:      {"strong", "b"},
	Italic:    {"em", "i"},
	Underline: {"u"},
	Strike:    {"s", "strike", "del"},
}

func isMark(n *html.Node, m Mark) bool {
	return dom.IsElement(n, markTags[m]...)
}

// ListKind is the list membership of the anchor.
type ListKind string

const (
	NoList   ListKind = ""
	Bulleted ListKind = "bulleted"
	Numbered ListKind = "numbered"
)

func (k ListKind) tag() string {
	if k == Numbered {
		return "ol"
	}
	return "ul"
}

// Align is a block's text alignment.
type Align string

const (
	AlignLeft    Align = "left"
	AlignCenter  Align = "center"
	AlignRight   Align = "right"
	AlignJustify Align = "justify"
)

// ParseAlign accepts the four CSS keywords; anything else is left.
func ParseAlign(s string) Align {
	switch Align(s) {
	case AlignCenter, AlignRight, AlignJustify:
		return Align(s)
	}
	return AlignLeft
}

// BlockTags are the block types SetBlock accepts.
var BlockTags = []string{"p", "h1", "h2", "h3", "h4", "h5", "h6", "pre"}

func validBlock(tag string) bool {
	for _, t := range BlockTags {
		if t == tag {
			return true
		}
	}
	return false
}

// FormatState describes the formatting at the selection anchor.
type FormatState struct {
	Bold       bool     `json:"bold"`
	Italic     bool     `json:"italic"`
	Underline  bool     `json:"underline"`
	Strike     bool     `json:"strike"`
	Block      string   `json:"block"`
	List       ListKind `json:"list,omitempty"`
	Link       string   `json:"link,omitempty"`
	Color      string   `json:"color,omitempty"`
	Background string   `json:"background,omitempty"`
	FontFamily string   `json:"font_family,omitempty"`
	FontSize   string   `json:"font_size,omitempty"`
	Align      Align    `json:"align"`
}

// textBlock matches the elements that directly hold a run of inline
// content.
func textBlock(n *html.Node) bool {
	return dom.IsElement(n, "p", "h1", "h2", "h3", "h4", "h5", "h6", "pre",
		"div", "li", "blockquote", "td", "th", "figcaption")
}
