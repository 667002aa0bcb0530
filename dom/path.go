package dom

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Path returns an XPath-like location of n relative to root, e.g.
// "/p[2]/strong/text()". Sibling indexes are only written when a parent has
// more than one child of the same kind. The root itself is "/".
func Path(root, n *html.Node) string {
	if n == root {
		return "/"
	}
	var segs []string
	for p := n; p != nil && p != root; p = p.Parent {
		if p.Parent == nil {
			return fmt.Sprintf("/unknown[%s]", p.Data)
		}
		segs = append(segs, segment(p))
	}
	var sb strings.Builder
	for i := len(segs) - 1; i >= 0; i-- {
		sb.WriteByte('/')
		sb.WriteString(segs[i])
	}
	return sb.String()
}

func segmentName(n *html.Node) string {
	switch n.Type {
	case html.TextNode:
		return "text()"
	case html.CommentNode:
		return "comment()"
	default:
		return strings.ToLower(n.Data)
	}
}

func sameKind(a, b *html.Node) bool {
	return a.Type == b.Type && segmentName(a) == segmentName(b)
}

func segment(n *html.Node) string {
	name := segmentName(n)
	idx, total := 0, 0
	for s := n.Parent.FirstChild; s != nil; s = s.NextSibling {
		if !sameKind(s, n) {
			continue
		}
		total++
		if s == n {
			idx = total
		}
	}
	if total > 1 {
		return fmt.Sprintf("%s[%d]", name, idx)
	}
	return name
}

// Resolve finds the node addressed by a Path result. It returns nil when
// the path does not match the current tree.
func Resolve(root *html.Node, path string) *html.Node {
	path = strings.TrimSpace(path)
	if path == "" || path == "/" {
		return root
	}
	cur := root
	for _, seg := range strings.Split(strings.TrimPrefix(path, "/"), "/") {
		if seg == "" {
			return nil
		}
		name, want := seg, 1
		if i := strings.IndexByte(seg, '['); i >= 0 && strings.HasSuffix(seg, "]") {
			n, err := strconv.Atoi(seg[i+1 : len(seg)-1])
			if err != nil || n < 1 {
				return nil
			}
			name, want = seg[:i], n
		}
		var next *html.Node
		k := 0
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			if segmentName(c) != name {
				continue
			}
			k++
			if k == want {
				next = c
				break
			}
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}
