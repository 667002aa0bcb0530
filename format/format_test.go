package format

import (
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/hazyhaar/richedit/dom"
	"github.com/hazyhaar/richedit/env"
)

type fixture struct {
	root    *html.Node
	env     *env.Memory
	x       *Executor
	in      *Inspector
	changes int
}

func setup(t *testing.T, doc string) *fixture {
	t.Helper()
	f := &fixture{root: dom.NewRoot(), env: env.NewMemory()}
	if err := dom.SetInnerHTML(f.root, doc); err != nil {
		t.Fatalf("SetInnerHTML: %v", err)
	}
	f.x = NewExecutor(f.root, f.env, func() { f.changes++ })
	f.in = NewInspector(f.root, f.env)
	return f
}

func (f *fixture) html() string { return dom.InnerHTML(f.root) }

// textNode returns the first text node containing s.
func (f *fixture) textNode(t *testing.T, s string) *html.Node {
	t.Helper()
	for _, n := range dom.TextNodes(f.root) {
		if strings.Contains(n.Data, s) {
			return n
		}
	}
	t.Fatalf("no text node contains %q", s)
	return nil
}

// selectText selects the first occurrence of s.
func (f *fixture) selectText(t *testing.T, s string) {
	t.Helper()
	n := f.textNode(t, s)
	i := strings.Index(n.Data, s)
	f.env.SetSelection(dom.Range{Start: dom.Point{Node: n, Offset: i}, End: dom.Point{Node: n, Offset: i + len(s)}})
}

func (f *fixture) caret(t *testing.T, s string, off int) {
	t.Helper()
	f.env.SetSelection(dom.Caret(f.textNode(t, s), off))
}

func (f *fixture) want(t *testing.T, want string) {
	t.Helper()
	if got := f.html(); got != want {
		t.Errorf("html:\n got  %q\n want %q", got, want)
	}
}

func TestToggle_BoldOnAndOff(t *testing.T) {
	f := setup(t, `<p>hello world</p>`)
	f.selectText(t, "world")

	if !f.x.Toggle(Bold) {
		t.Fatal("Toggle(Bold) reported no change")
	}
	f.want(t, `<p>hello <strong>world</strong></p>`)
	if f.changes != 1 {
		t.Errorf("changes: got %d, want 1", f.changes)
	}
	if !f.env.HasFocus() {
		t.Error("command must focus the region")
	}
	if !f.in.Active(Bold) {
		t.Error("inspector does not see bold on the new selection")
	}

	f.x.Toggle(Bold)
	f.want(t, `<p>hello world</p>`)
	if f.changes != 2 {
		t.Errorf("changes: got %d, want 2", f.changes)
	}
}

func TestToggle_PartialUnbold(t *testing.T) {
	f := setup(t, `<p><strong>hello</strong></p>`)
	f.selectText(t, "ell")
	f.x.Toggle(Bold)
	f.want(t, `<p><strong>h</strong>ell<strong>o</strong></p>`)
}

func TestToggle_MixedSelectionBoldsAll(t *testing.T) {
	f := setup(t, `<p>a<strong>b</strong>c</p>`)
	a, c := f.textNode(t, "a"), f.textNode(t, "c")
	f.env.SetSelection(dom.Range{Start: dom.Point{Node: a}, End: dom.Point{Node: c, Offset: 1}})
	f.x.Toggle(Bold)
	f.want(t, `<p><strong>abc</strong></p>`)
}

func TestToggle_LegacyTagsCount(t *testing.T) {
	f := setup(t, `<p><b>x</b> <i>y</i></p>`)
	f.selectText(t, "x")
	f.x.Toggle(Bold)
	f.want(t, `<p>x <i>y</i></p>`)
	f.selectText(t, "y")
	f.x.Toggle(Italic)
	f.want(t, `<p>x y</p>`)
}

func TestToggle_CollapsedIsNoOp(t *testing.T) {
	f := setup(t, `<p>abc</p>`)
	f.caret(t, "abc", 1)
	if f.x.Toggle(Underline) {
		t.Error("collapsed toggle reported a change")
	}
	if f.changes != 0 {
		t.Errorf("changes: got %d, want 0", f.changes)
	}
	f.want(t, `<p>abc</p>`)
}

func TestToggle_NoSelection(t *testing.T) {
	f := setup(t, `<p>abc</p>`)
	if f.x.Toggle(Strike) {
		t.Error("toggle without selection reported a change")
	}
	if !f.env.HasFocus() {
		t.Error("focus must still be taken")
	}
}

func TestSetBlock(t *testing.T) {
	f := setup(t, `<p>Title</p><p>body</p>`)
	f.caret(t, "Title", 2)
	f.x.SetBlock("h2")
	f.want(t, `<h2>Title</h2><p>body</p>`)
	if got := f.in.BlockType(); got != "h2" {
		t.Errorf("BlockType: got %q, want h2", got)
	}
	f.x.SetBlock("p")
	f.want(t, `<p>Title</p><p>body</p>`)

	if f.x.SetBlock("script") {
		t.Error("SetBlock accepted an invalid tag")
	}
}

func TestSetBlock_BareTextAndListItem(t *testing.T) {
	f := setup(t, `hello<ul><li>item</li></ul>`)
	f.caret(t, "hello", 0)
	f.x.SetBlock("h1")
	f.want(t, `<h1>hello</h1><ul><li>item</li></ul>`)

	f.caret(t, "item", 0)
	f.x.SetBlock("h3")
	f.want(t, `<h1>hello</h1><ul><li><h3>item</h3></li></ul>`)
}

func TestToggleList_WrapAndUnwrap(t *testing.T) {
	f := setup(t, `<p>a</p><p>b</p>`)
	a, b := f.textNode(t, "a"), f.textNode(t, "b")
	f.env.SetSelection(dom.Range{Start: dom.Point{Node: a}, End: dom.Point{Node: b, Offset: 1}})

	f.x.ToggleList(Bulleted)
	f.want(t, `<ul><li>a</li><li>b</li></ul>`)
	if f.in.ListKind() != Bulleted {
		t.Errorf("ListKind: got %q", f.in.ListKind())
	}

	f.x.ToggleList(Bulleted)
	f.want(t, `<p>a</p><p>b</p>`)
}

func TestToggleList_SwitchKind(t *testing.T) {
	f := setup(t, `<ul><li>x</li></ul>`)
	f.caret(t, "x", 0)
	f.x.ToggleList(Numbered)
	f.want(t, `<ol><li>x</li></ol>`)
}

func TestToggleList_SplitsAroundItem(t *testing.T) {
	f := setup(t, `<ul><li>a</li><li>b</li><li>c</li></ul>`)
	f.caret(t, "b", 0)
	f.x.ToggleList(Bulleted)
	f.want(t, `<ul><li>a</li></ul><p>b</p><ul><li>c</li></ul>`)
}

func TestInsertLink(t *testing.T) {
	f := setup(t, `<p>hello world</p>`)
	f.selectText(t, "world")
	if f.x.InsertLink("javascript:alert(1)") {
		t.Fatal("javascript: link accepted")
	}
	if f.changes != 0 {
		t.Fatalf("rejected link signalled a change")
	}
	f.x.InsertLink("https://x.test")
	f.want(t, `<p>hello <a href="https://x.test">world</a></p>`)

	f.caret(t, "world", 2)
	if got := f.in.LinkURL(); got != "https://x.test" {
		t.Errorf("LinkURL: got %q", got)
	}
	f.x.InsertLink("/docs#intro")
	f.want(t, `<p>hello <a href="/docs#intro">world</a></p>`)

	f.x.RemoveLink()
	f.want(t, `<p>hello world</p>`)
}

func TestInsertLink_Collapsed(t *testing.T) {
	f := setup(t, `<p>hello</p>`)
	f.caret(t, "hello", 5)
	f.x.InsertLink("mailto:a@b.test")
	f.want(t, `<p>hello<a href="mailto:a@b.test">mailto:a@b.test</a></p>`)
}

func TestValidLinkURL(t *testing.T) {
	for _, u := range []string{"https://a.test", "http://a", "mailto:x@y", "tel:+331", "/rel", "#frag", "page.html"} {
		if !ValidLinkURL(u) {
			t.Errorf("ValidLinkURL(%q) = false", u)
		}
	}
	for _, u := range []string{"", "javascript:alert(1)", "data:text/html,x", "vbscript:x", "ftp://x"} {
		if ValidLinkURL(u) {
			t.Errorf("ValidLinkURL(%q) = true", u)
		}
	}
}

func TestSetFontSize_CleanWrap(t *testing.T) {
	f := setup(t, `<p>hello world</p>`)
	f.selectText(t, "world")
	f.x.SetFontSize(18)
	f.want(t, `<p>hello <span style="font-size: 18px">world</span></p>`)
	f.caret(t, "world", 1)
	if _, size := f.in.Font(); size != "18px" {
		t.Errorf("Font size: got %q", size)
	}

	f.selectText(t, "world")
	f.x.SetFontSize(24)
	f.want(t, `<p>hello <span style="font-size: 24px">world</span></p>`)
}

func TestSetFontSize_FallbackStep(t *testing.T) {
	f := setup(t, `<p>a<em>b</em></p>`)
	a, b := f.textNode(t, "a"), f.textNode(t, "b")
	f.env.SetSelection(dom.Range{Start: dom.Point{Node: a}, End: dom.Point{Node: b, Offset: 1}})
	f.x.SetFontSize(18)
	f.want(t, `<p><font size="4">a</font><em><font size="4">b</font></em></p>`)
	f.caret(t, "a", 0)
	if _, size := f.in.Font(); size != "18px" {
		t.Errorf("Font size via <font>: got %q", size)
	}
}

func TestSetFontSize_KeepsHostStyle(t *testing.T) {
	f := setup(t, `<p style="text-align: center"><span style="color: rgb(255, 0, 0)">red</span></p>`)
	f.caret(t, "red", 1)
	st := f.in.State()
	if st.Color != "#ff0000" || st.Align != AlignCenter {
		t.Errorf("state: %+v", st)
	}
	f.selectText(t, "red")
	f.x.SetFontSize(20)
	f.want(t, `<p style="text-align: center"><span style="color: rgb(255, 0, 0); font-size: 20px">red</span></p>`)
	f.caret(t, "red", 1)
	if fg, _ := f.in.Colors(); fg != "#ff0000" {
		t.Errorf("Colors fg: got %q", fg)
	}
}

func TestToggle_MultibyteBoundary(t *testing.T) {
	f := setup(t, `<p>héllo</p>`)
	n := f.textNode(t, "h")
	f.env.SetSelection(dom.Range{Start: dom.Point{Node: n, Offset: 2}, End: dom.Point{Node: n, Offset: 6}})
	f.x.Toggle(Bold)
	f.want(t, `<p>h<strong>éllo</strong></p>`)
}

func TestFontStep(t *testing.T) {
	cases := map[int]int{1: 1, 10: 1, 12: 2, 14: 2, 15: 3, 16: 3, 17: 3, 18: 4, 21: 4, 22: 5, 28: 5, 40: 6, 41: 7, 100: 7}
	for px, want := range cases {
		if got := FontStep(px); got != want {
			t.Errorf("FontStep(%d) = %d, want %d", px, got, want)
		}
	}
}

func TestTextColor_SetAndClear(t *testing.T) {
	f := setup(t, `<p>hello world</p>`)
	f.selectText(t, "world")
	f.x.SetTextColor("rgb(255, 0, 0)")
	f.want(t, `<p>hello <span style="color: #ff0000">world</span></p>`)

	f.caret(t, "world", 1)
	if fg, _ := f.in.Colors(); fg != "#ff0000" {
		t.Errorf("Colors fg: got %q", fg)
	}

	f.selectText(t, "world")
	f.x.SetTextColor("")
	f.want(t, `<p>hello world</p>`)
}

func TestBackgroundAndFamily(t *testing.T) {
	f := setup(t, `<p>word</p>`)
	f.selectText(t, "word")
	f.x.SetBackgroundColor("yellow")
	f.selectText(t, "word")
	f.x.SetFontFamily("Georgia")
	f.want(t, `<p><span style="background-color: #ffff00; font-family: Georgia">word</span></p>`)

	f.caret(t, "word", 0)
	st := f.in.State()
	if st.Background != "#ffff00" || st.FontFamily != "Georgia" {
		t.Errorf("state: %+v", st)
	}
}

func TestSetAlign(t *testing.T) {
	f := setup(t, `<p>x</p>`)
	f.caret(t, "x", 0)
	f.x.SetAlign(AlignCenter)
	f.want(t, `<p style="text-align: center">x</p>`)
	if got := f.in.Alignment(); got != AlignCenter {
		t.Errorf("Alignment: got %q", got)
	}
	if f.x.SetAlign(AlignCenter) {
		t.Error("re-applying the same alignment reported a change")
	}
	f.x.SetAlign(AlignLeft)
	f.want(t, `<p>x</p>`)
}

func TestInsertCodeBlock(t *testing.T) {
	f := setup(t, `<p>hello world</p>`)
	f.selectText(t, "world")
	f.x.InsertCodeBlock()
	f.want(t, `<p>hello </p><pre><code>world</code></pre>`)

	r, _ := f.env.Selection()
	if r.Start.Node.Parent == nil || r.Start.Node.Parent.Data != "code" {
		t.Errorf("caret not inside the code block")
	}
}

func TestInsertCodeBlock_EmptyParagraph(t *testing.T) {
	f := setup(t, `<p><br></p>`)
	f.env.SetSelection(dom.Caret(f.root.FirstChild, 0))
	f.x.InsertCodeBlock()
	f.want(t, `<pre><code>code</code></pre>`)
}

func TestInsertCodeBlock_NoSelectionAppends(t *testing.T) {
	f := setup(t, `<p>a</p>`)
	f.x.InsertCodeBlock()
	f.want(t, `<p>a</p><pre><code>code</code></pre>`)
}

func TestInsertHorizontalRule(t *testing.T) {
	f := setup(t, `<p>a</p><p>b</p>`)
	f.caret(t, "a", 1)
	f.x.InsertHorizontalRule()
	f.want(t, `<p>a</p><hr/><p>b</p>`)
}

func TestToggleBlockquote(t *testing.T) {
	f := setup(t, `<p>a</p><p>b</p>`)
	f.caret(t, "a", 0)
	f.x.ToggleBlockquote()
	f.want(t, `<blockquote><p>a</p></blockquote><p>b</p>`)
	f.x.ToggleBlockquote()
	f.want(t, `<p>a</p><p>b</p>`)
}

func TestInspector_State(t *testing.T) {
	f := setup(t, `<h2 style="text-align: right"><em><strong>x</strong></em></h2>`)
	f.caret(t, "x", 0)
	st := f.in.State()
	if !st.Bold || !st.Italic || st.Underline || st.Strike {
		t.Errorf("marks: %+v", st)
	}
	if st.Block != "h2" || st.Align != AlignRight || st.List != NoList {
		t.Errorf("block: %+v", st)
	}
}

func TestInspector_StopsAtRoot(t *testing.T) {
	f := setup(t, `<p>x</p>`)
	dom.SetStyle(f.root, "text-align", "center")
	dom.AddClass(f.root, "strong")
	f.caret(t, "x", 0)
	if f.in.Alignment() != AlignLeft {
		t.Error("inspector read the editable root itself")
	}
}

func TestNormalizeColor(t *testing.T) {
	cases := map[string]string{
		"rgb(255, 0, 0)":       "#ff0000",
		"rgba(0,128,255,0.5)":  "#0080ff",
		"rgb(0 0 0 / 50%)":     "#000000",
		"rgb(100%, 50%, 0%)":   "#ff8000",
		"#ABC":                 "#aabbcc",
		"#FFAA00":              "#ffaa00",
		"#11223344":            "#112233",
		"red":                  "#ff0000",
		"CornflowerBlue":       "#6495ed",
		" white ":              "#ffffff",
		"transparent":          "",
		"bogus":                "",
		"#12":                  "",
	}
	for in, want := range cases {
		if got := NormalizeColor(in); got != want {
			t.Errorf("NormalizeColor(%q) = %q, want %q", in, got, want)
		}
	}
}
