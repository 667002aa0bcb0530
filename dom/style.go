package dom

import (
	"strings"

	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"
)

// Declaration is one inline style property.
type Declaration struct {
	Property  string
	Value     string
	Important bool
}

// Styles parses the inline style attribute of n. An unparsable attribute
// yields no declarations.
func Styles(n *html.Node) []Declaration {
	raw, ok := Attr(n, "style")
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	// The parser drops the value of a last declaration left unterminated.
	if !strings.HasSuffix(strings.TrimSpace(raw), ";") {
		raw += ";"
	}
	decls, err := parser.ParseDeclarations(raw)
	if err != nil {
		return nil
	}
	out := make([]Declaration, 0, len(decls))
	for _, d := range decls {
		out = append(out, Declaration{
			Property:  strings.ToLower(strings.TrimSpace(d.Property)),
			Value:     strings.TrimSpace(d.Value),
			Important: d.Important,
		})
	}
	return out
}

// Style returns the value of one inline property, or "".
func Style(n *html.Node, prop string) string {
	if n == nil || n.Type != html.ElementNode {
		return ""
	}
	v := ""
	for _, d := range Styles(n) {
		if d.Property == prop {
			v = d.Value
		}
	}
	return v
}

// SetStyle sets one inline property, keeping the others in place.
func SetStyle(n *html.Node, prop, value string) {
	decls := Styles(n)
	found := false
	for i := range decls {
		if decls[i].Property == prop {
			decls[i].Value = value
			decls[i].Important = false
			found = true
		}
	}
	if !found {
		decls = append(decls, Declaration{Property: prop, Value: value})
	}
	writeStyles(n, decls)
}

// RemoveStyle deletes one inline property. An emptied style attribute is
// dropped.
func RemoveStyle(n *html.Node, prop string) {
	decls := Styles(n)
	out := decls[:0]
	for _, d := range decls {
		if d.Property != prop {
			out = append(out, d)
		}
	}
	writeStyles(n, out)
}

func writeStyles(n *html.Node, decls []Declaration) {
	if len(decls) == 0 {
		RemoveAttr(n, "style")
		return
	}
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		s := d.Property + ": " + d.Value
		if d.Important {
			s += " !important"
		}
		parts = append(parts, s)
	}
	SetAttr(n, "style", strings.Join(parts, "; "))
}
