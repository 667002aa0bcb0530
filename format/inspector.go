package format

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/hazyhaar/richedit/dom"
	"github.com/hazyhaar/richedit/env"
)

// Inspector answers formatting queries from the ancestor chain of the
// selection anchor, nearest first, stopping before the editable root.
type Inspector struct {
	root *html.Node
	sel  env.Selection
}

// NewInspector binds queries to root and the live selection.
func NewInspector(root *html.Node, sel env.Selection) *Inspector {
	return &Inspector{root: root, sel: sel}
}

func (in *Inspector) chain() []*html.Node {
	r, ok := in.sel.Selection()
	if !ok || r.Start.Node == nil {
		return nil
	}
	return dom.Ancestors(r.Start.Node, in.root)
}

func firstMatch(chain []*html.Node, pred func(*html.Node) bool) *html.Node {
	for _, n := range chain {
		if pred(n) {
			return n
		}
	}
	return nil
}

// Active reports whether mark m applies at the anchor.
func (in *Inspector) Active(m Mark) bool {
	return active(in.chain(), m)
}

func active(chain []*html.Node, m Mark) bool {
	return firstMatch(chain, func(n *html.Node) bool { return carriesMark(n, m) }) != nil
}

func carriesMark(n *html.Node, m Mark) bool {
	if isMark(n, m) {
		return true
	}
	switch m {
	case Bold:
		w := dom.Style(n, "font-weight")
		if w == "bold" || w == "bolder" {
			return true
		}
		v, err := strconv.Atoi(w)
		return err == nil && v >= 600
	case Italic:
		return dom.Style(n, "font-style") == "italic"
	case Underline:
		return strings.Contains(dom.Style(n, "text-decoration"), "underline")
	case Strike:
		return strings.Contains(dom.Style(n, "text-decoration"), "line-through")
	}
	return false
}

// BlockType is the tag of the nearest paragraph, heading or pre; "p" when
// there is none.
func (in *Inspector) BlockType() string {
	return blockType(in.chain())
}

func blockType(chain []*html.Node) string {
	if b := firstMatch(chain, func(n *html.Node) bool { return validBlock(n.Data) }); b != nil {
		return b.Data
	}
	return "p"
}

// ListKind is the kind of the nearest list.
func (in *Inspector) ListKind() ListKind {
	return listKind(in.chain())
}

func listKind(chain []*html.Node) ListKind {
	switch l := firstMatch(chain, func(n *html.Node) bool { return dom.IsElement(n, "ul", "ol") }); {
	case l == nil:
		return NoList
	case l.Data == "ol":
		return Numbered
	default:
		return Bulleted
	}
}

// LinkURL is the href of the nearest link.
func (in *Inspector) LinkURL() string {
	return linkURL(in.chain())
}

func linkURL(chain []*html.Node) string {
	if a := firstMatch(chain, isLink); a != nil {
		return dom.AttrOr(a, "href", "")
	}
	return ""
}

// Colors returns the text and background colours as #rrggbb.
func (in *Inspector) Colors() (fg, bg string) {
	return colors(in.chain())
}

func colors(chain []*html.Node) (fg, bg string) {
	if n := firstMatch(chain, func(n *html.Node) bool { return colorOf(n) != "" }); n != nil {
		fg = NormalizeColor(colorOf(n))
	}
	if n := firstMatch(chain, func(n *html.Node) bool { return dom.Style(n, "background-color") != "" }); n != nil {
		bg = NormalizeColor(dom.Style(n, "background-color"))
	}
	return fg, bg
}

func colorOf(n *html.Node) string {
	if c := dom.Style(n, "color"); c != "" {
		return c
	}
	if dom.IsElement(n, "font") {
		return dom.AttrOr(n, "color", "")
	}
	return ""
}

// Font returns the family and the size (as "Npx") in effect.
func (in *Inspector) Font() (family, size string) {
	return font(in.chain())
}

func font(chain []*html.Node) (family, size string) {
	for _, n := range chain {
		if family == "" {
			if f := dom.Style(n, "font-family"); f != "" {
				family = f
			} else if dom.IsElement(n, "font") {
				family = dom.AttrOr(n, "face", "")
			}
		}
		if size == "" {
			if s := dom.Style(n, "font-size"); s != "" {
				size = s
			} else if dom.IsElement(n, "font") {
				if k, err := strconv.Atoi(dom.AttrOr(n, "size", "")); err == nil {
					size = strconv.Itoa(StepPx(k)) + "px"
				}
			}
		}
	}
	return family, size
}

// Alignment is the alignment of the nearest block that sets one.
func (in *Inspector) Alignment() Align {
	return alignment(in.chain())
}

func alignment(chain []*html.Node) Align {
	for _, n := range chain {
		if a := dom.Style(n, "text-align"); a != "" {
			return ParseAlign(a)
		}
		if a, ok := dom.Attr(n, "align"); ok && dom.IsBlock(n) {
			return ParseAlign(strings.ToLower(a))
		}
	}
	return AlignLeft
}

// State snapshots every query at once.
func (in *Inspector) State() FormatState {
	chain := in.chain()
	fg, bg := colors(chain)
	family, size := font(chain)
	return FormatState{
		Bold:       active(chain, Bold),
		Italic:     active(chain, Italic),
		Underline:  active(chain, Underline),
		Strike:     active(chain, Strike),
		Block:      blockType(chain),
		List:       listKind(chain),
		Link:       linkURL(chain),
		Color:      fg,
		Background: bg,
		FontFamily: family,
		FontSize:   size,
		Align:      alignment(chain),
	}
}
