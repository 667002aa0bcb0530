package format

import (
	"log/slog"

	"golang.org/x/net/html"

	"github.com/hazyhaar/richedit/dom"
	"github.com/hazyhaar/richedit/env"
)

// Executor applies formatting commands to the editable root. Every command
// focuses the region, mutates the tree and, when something changed, calls
// onChange before returning. Commands report whether they changed the tree;
// a command that cannot apply is a silent no-op.
type Executor struct {
	root     *html.Node
	env      env.Env
	onChange func()
	log      *slog.Logger
	last     string
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithLogger sets the logger for degraded commands.
func WithLogger(l *slog.Logger) ExecutorOption {
	return func(x *Executor) {
		if l != nil {
			x.log = l
		}
	}
}

// NewExecutor binds commands to root. onChange may be nil.
func NewExecutor(root *html.Node, e env.Env, onChange func(), opts ...ExecutorOption) *Executor {
	x := &Executor{root: root, env: e, onChange: onChange, log: slog.Default()}
	for _, o := range opts {
		o(x)
	}
	return x
}

func (x *Executor) run(op string, fn func() bool) bool {
	if !x.env.HasFocus() {
		x.env.Focus()
	}
	if !fn() {
		x.log.Debug("format: no effect", "op", op)
		return false
	}
	x.last = op
	if x.onChange != nil {
		x.onChange()
	}
	return true
}

// LastOp names the most recent command that changed the tree.
func (x *Executor) LastOp() string { return x.last }

// selection returns the normalised selection when it lies inside root.
func (x *Executor) selection() (dom.Range, bool) {
	r, ok := x.env.Selection()
	if !ok || !r.Within(x.root) {
		return dom.Range{}, false
	}
	return r.Normalize(), true
}

// touched returns the nodes a range acts on: the text nodes it intersects,
// or its start node when it covers no text.
func (x *Executor) touched(r dom.Range) []*html.Node {
	if !r.Collapsed() {
		var out []*html.Node
		for _, t := range dom.TextNodes(x.root) {
			if dom.Compare(dom.Point{Node: t, Offset: len(t.Data)}, r.Start) > 0 &&
				dom.Compare(dom.Point{Node: t}, r.End) < 0 {
				out = append(out, t)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	n := r.Start.Node
	if n == x.root {
		n = dom.ChildAt(x.root, r.Start.Offset)
		if n == nil {
			n = x.root.LastChild
		}
	}
	if n == nil {
		return nil
	}
	return []*html.Node{n}
}

type target struct {
	block *html.Node
	node  *html.Node
}

// blocksInRange returns the text blocks the range touches, in order. Bare
// inline runs directly under root are wrapped in <p> first; wrapped reports
// whether that happened.
func (x *Executor) blocksInRange(r dom.Range) (out []target, wrapped bool) {
	seen := make(map[*html.Node]bool)
	for _, n := range x.touched(r) {
		b := dom.Closest(n, x.root, textBlock)
		if b == nil {
			b = wrapRun(n, x.root, "p")
			if b == nil {
				continue
			}
			wrapped = true
		}
		if !seen[b] {
			seen[b] = true
			out = append(out, target{block: b, node: n})
		}
	}
	return out, wrapped
}

// wrapRun moves the maximal run of inline siblings under parent that
// contains n into a new tag element and returns it.
func wrapRun(n, parent *html.Node, tag string) *html.Node {
	top := n
	for top != nil && top.Parent != parent {
		top = top.Parent
	}
	if top == nil || dom.IsBlock(top) {
		return nil
	}
	first, last := top, top
	for p := first.PrevSibling; p != nil && !dom.IsBlock(p) && !isMedia(p); p = p.PrevSibling {
		first = p
	}
	for s := last.NextSibling; s != nil && !dom.IsBlock(s) && !isMedia(s); s = s.NextSibling {
		last = s
	}
	el := dom.NewElement(tag)
	parent.InsertBefore(el, first)
	for c := first; ; {
		next := c.NextSibling
		parent.RemoveChild(c)
		el.AppendChild(c)
		if c == last {
			break
		}
		c = next
	}
	return el
}

func isMedia(n *html.Node) bool {
	return dom.IsElement(n, "img", "video", "audio", "picture", "figure")
}

func isContainer(n *html.Node) bool {
	return dom.IsElement(n, "li", "blockquote", "td", "th", "figcaption")
}

func remap(r dom.Range, from, to *html.Node) dom.Range {
	if r.Start.Node == from {
		r.Start.Node = to
	}
	if r.End.Node == from {
		r.End.Node = to
	}
	return r
}

// Toggle flips an inline mark over the selection. When every selected text
// node already carries the mark it is removed; otherwise it is added to the
// nodes that lack it. A collapsed selection changes nothing.
func (x *Executor) Toggle(m Mark) bool {
	if _, ok := markTags[m]; !ok {
		return false
	}
	return x.run("toggle_"+m.String(), func() bool {
		r, ok := x.selection()
		if !ok || r.Collapsed() {
			return false
		}
		nodes, nr := dom.SelectText(x.root, r)
		if len(nodes) == 0 {
			return false
		}

		covered := true
		for _, n := range nodes {
			if x.markAncestor(n, m) == nil {
				covered = false
				break
			}
		}
		if covered {
			x.unmark(nodes, m)
		} else {
			for _, n := range nodes {
				if x.markAncestor(n, m) == nil {
					dom.Wrap(n, dom.NewElement(markTags[m][0]))
				}
			}
		}
		dom.MergeAdjacent(x.root)
		dom.PruneEmptyInline(x.root)
		x.env.SetSelection(nr)
		return true
	})
}

func (x *Executor) markAncestor(n *html.Node, m Mark) *html.Node {
	return dom.Closest(n, x.root, func(a *html.Node) bool { return isMark(a, m) })
}

// unmark removes mark m from the selected nodes. Each carrying ancestor is
// unwrapped and re-applied to the text it held outside the selection.
func (x *Executor) unmark(nodes []*html.Node, m Mark) {
	selected := make(map[*html.Node]bool, len(nodes))
	for _, n := range nodes {
		selected[n] = true
	}
	for _, n := range nodes {
		for anc := x.markAncestor(n, m); anc != nil; anc = x.markAncestor(n, m) {
			for _, t := range dom.TextNodes(anc) {
				if !selected[t] {
					dom.Wrap(t, dom.ShallowClone(anc))
				}
			}
			dom.Unwrap(anc)
		}
	}
}

// SetBlock turns every block in the selection into tag (p, h1..h6 or pre).
// Inline content of list items and quotes is wrapped instead.
func (x *Executor) SetBlock(tag string) bool {
	if !validBlock(tag) {
		return false
	}
	return x.run("set_block", func() bool {
		r, ok := x.selection()
		if !ok {
			return false
		}
		targets, changed := x.blocksInRange(r)
		for _, t := range targets {
			switch {
			case isContainer(t.block):
				if wrapRun(t.node, t.block, tag) != nil {
					changed = true
				}
			case t.block.Data == tag:
			default:
				nb := dom.Rename(t.block, tag)
				r = remap(r, t.block, nb)
				changed = true
			}
		}
		if changed {
			x.env.SetSelection(r)
		}
		return changed
	})
}

// ToggleList removes the selected items from a list of the same kind,
// switches a list of the other kind, or wraps the selected blocks in a new
// list.
func (x *Executor) ToggleList(kind ListKind) bool {
	if kind != Bulleted && kind != Numbered {
		return false
	}
	return x.run("toggle_list", func() bool {
		r, ok := x.selection()
		if !ok {
			return false
		}
		tag := kind.tag()
		isLI := func(n *html.Node) bool { return dom.IsElement(n, "li") }

		if li := dom.Closest(r.Start.Node, x.root, isLI); li != nil && dom.IsElement(li.Parent, "ul", "ol") {
			list := li.Parent
			if list.Data != tag {
				nl := dom.Rename(list, tag)
				x.env.SetSelection(remap(r, list, nl))
				return true
			}
			var items []*html.Node
			seen := make(map[*html.Node]bool)
			for _, n := range x.touched(r) {
				item := dom.Closest(n, x.root, isLI)
				if item != nil && item.Parent == list && !seen[item] {
					seen[item] = true
					items = append(items, item)
				}
			}
			if len(items) == 0 {
				items = []*html.Node{li}
			}
			x.unlist(list, items)
			return true
		}

		targets, _ := x.blocksInRange(r)
		if len(targets) == 0 {
			return false
		}
		list := dom.NewElement(tag)
		first := targets[0].block
		if isContainer(first) {
			if first = wrapRun(targets[0].node, first, "p"); first == nil {
				return false
			}
		}
		first.Parent.InsertBefore(list, first)
		for i, t := range targets {
			b := t.block
			if i == 0 {
				b = first
			} else if isContainer(b) {
				if b = wrapRun(t.node, b, "p"); b == nil {
					continue
				}
			}
			li := dom.NewElement("li")
			dom.MoveChildren(li, b)
			list.AppendChild(li)
			dom.Remove(b)
			r = remap(r, b, li)
		}
		x.env.SetSelection(r)
		return true
	})
}

// unlist lifts items (contiguous children of list) out of it. Items after
// the selection move to a new list of the same kind.
func (x *Executor) unlist(list *html.Node, items []*html.Node) {
	last := items[len(items)-1]
	after := dom.ShallowClone(list)
	for c := last.NextSibling; c != nil; {
		next := c.NextSibling
		list.RemoveChild(c)
		after.AppendChild(c)
		c = next
	}

	ref := list
	for _, li := range items {
		if hasBlockChild(li) {
			for c := li.FirstChild; c != nil; {
				next := c.NextSibling
				dom.InsertAfter(c, ref)
				ref = c
				c = next
			}
		} else {
			p := dom.NewElement("p")
			dom.MoveChildren(p, li)
			dom.InsertAfter(p, ref)
			ref = p
		}
		dom.Remove(li)
	}
	if hasElementChild(after) {
		dom.InsertAfter(after, ref)
	}
	if !hasElementChild(list) {
		dom.Remove(list)
	}
}

func hasBlockChild(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if dom.IsBlock(c) {
			return true
		}
	}
	return false
}

func hasElementChild(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return true
		}
	}
	return false
}
