package rodlayout

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher"

	"github.com/hazyhaar/richedit/dom"
	"github.com/hazyhaar/richedit/env"
)

func TestDocument_EmbedsBodyAndWidth(t *testing.T) {
	doc, err := document(Config{Width: 500, CSS: "p{margin:0}"}, "<p>x</p>")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`width:500px`, `<p>x</p>`, `p{margin:0}`, `id="richedit-root"`} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q:\n%s", want, doc)
		}
	}
}

func TestLayoutApply(t *testing.T) {
	root := dom.NewRoot()
	if err := dom.SetInnerHTML(root, `<p>a</p> <p><img src="a.png"></p>`); err != nil {
		t.Fatal(err)
	}
	l, err := decode(`{"root":{"x":0,"y":0,"width":500,"height":80},
		"blocks":[{"x":0,"y":0,"width":500,"height":20},{"x":0,"y":20,"width":500,"height":60}],
		"media":[{"w":400,"h":300}]}`)
	if err != nil {
		t.Fatal(err)
	}
	mem := env.NewMemory()
	if err := l.Apply(root, mem); err != nil {
		t.Fatal(err)
	}
	second := root.LastChild
	if r, ok := mem.Rect(second); !ok || r.Y != 20 || r.Height != 60 {
		t.Errorf("second block: got %+v, %v", r, ok)
	}
	img := second.FirstChild
	if w, h, ok := mem.NaturalSize(img); !ok || w != 400 || h != 300 {
		t.Errorf("natural size: got %v x %v, %v", w, h, ok)
	}
}

func TestLayoutApply_TooFewBlocks(t *testing.T) {
	root := dom.NewRoot()
	dom.SetInnerHTML(root, `<p>a</p><p>b</p>`)
	l := &Layout{Blocks: []env.Rect{{Height: 10}}}
	if err := l.Apply(root, env.NewMemory()); err == nil {
		t.Error("expected an error when the tree has more blocks than measured")
	}
}

func TestMeasure_Chrome(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping chrome measurement in short mode")
	}
	if _, ok := launcher.LookPath(); !ok {
		t.Skip("no chrome binary found")
	}
	m, err := New(Config{Width: 400, CSS: "p,h1{margin:0;line-height:20px;font-size:16px}"})
	if err != nil {
		t.Skipf("chrome unavailable: %v", err)
	}
	defer m.Close()

	root := dom.NewRoot()
	dom.SetInnerHTML(root, `<p>one</p><p>two</p><p>three</p>`)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	mem := env.NewMemory()
	if err := m.Apply(ctx, root, mem); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	var prev float64 = -1
	for _, b := range dom.Children(root) {
		r, ok := mem.Rect(b)
		if !ok {
			t.Fatalf("no rect for %q", dom.TextContent(b))
		}
		if r.Y <= prev {
			t.Errorf("blocks not stacked: %v after %v", r.Y, prev)
		}
		prev = r.Y
	}
}
