package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Attr returns the value of attribute key on n.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// AttrOr returns the attribute value or def when absent.
func AttrOr(n *html.Node, key, def string) string {
	if v, ok := Attr(n, key); ok {
		return v
	}
	return def
}

// SetAttr sets or replaces attribute key on n.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes attribute key from n.
func RemoveAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		out = append(out, a)
	}
	n.Attr = out
}

// RemoveAttrFunc deletes every attribute whose key satisfies drop.
func RemoveAttrFunc(n *html.Node, drop func(key string) bool) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if drop(a.Key) {
			continue
		}
		out = append(out, a)
	}
	n.Attr = out
}

// SameAttrs reports whether a and b carry the same attribute set,
// ignoring order.
func SameAttrs(a, b *html.Node) bool {
	if len(a.Attr) != len(b.Attr) {
		return false
	}
	for _, x := range a.Attr {
		v, ok := Attr(b, x.Key)
		if !ok || v != x.Val {
			return false
		}
	}
	return true
}

// Classes returns the class list of n.
func Classes(n *html.Node) []string {
	v, _ := Attr(n, "class")
	return strings.Fields(v)
}

// HasClass reports whether n carries class c.
func HasClass(n *html.Node, c string) bool {
	for _, x := range Classes(n) {
		if x == c {
			return true
		}
	}
	return false
}

// AddClass adds class c to n if missing.
func AddClass(n *html.Node, c string) {
	if HasClass(n, c) {
		return
	}
	SetAttr(n, "class", strings.TrimSpace(strings.Join(append(Classes(n), c), " ")))
}

// RemoveClass removes class c from n. An emptied class attribute is dropped.
func RemoveClass(n *html.Node, c string) {
	RemoveClassFunc(n, func(x string) bool { return x == c })
}

// RemoveClassFunc removes every class satisfying drop.
func RemoveClassFunc(n *html.Node, drop func(string) bool) {
	if _, ok := Attr(n, "class"); !ok {
		return
	}
	var keep []string
	for _, x := range Classes(n) {
		if !drop(x) {
			keep = append(keep, x)
		}
	}
	if len(keep) == 0 {
		RemoveAttr(n, "class")
		return
	}
	SetAttr(n, "class", strings.Join(keep, " "))
}
