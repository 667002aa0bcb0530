// Package rodlayout measures real block geometry by rendering the document
// in headless Chrome through go-rod. Hosts without a browser of their own
// use it to feed env.Memory before a drag gesture.
package rodlayout

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"golang.org/x/net/html"

	"github.com/hazyhaar/richedit/dom"
	"github.com/hazyhaar/richedit/env"
)

// Config configures a Measurer.
type Config struct {
	// RemoteURL is the DevTools WebSocket URL of a running Chrome.
	// Empty launches a local headless Chrome.
	RemoteURL string

	// Width of the editable column in CSS pixels. Default: 720.
	Width int

	// CSS is injected into the measuring page, typically the host's
	// editor stylesheet.
	CSS string

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Width <= 0 {
		c.Width = 720
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Layout is one measurement of a document.
type Layout struct {
	Root   env.Rect      `json:"root"`
	Blocks []env.Rect    `json:"blocks"`
	Media  []mediaExtent `json:"media"`
}

type mediaExtent struct {
	Width  float64 `json:"w"`
	Height float64 `json:"h"`
}

// Measurer owns one browser connection. It is safe for concurrent use;
// measurements are serialised.
type Measurer struct {
	cfg     Config
	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
}

// New connects to (or launches) Chrome.
func New(cfg Config) (*Measurer, error) {
	cfg.defaults()
	m := &Measurer{cfg: cfg}

	wsURL := cfg.RemoteURL
	if wsURL == "" {
		l := launcher.New().Headless(true)
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("rodlayout: launch: %w", err)
		}
		wsURL = u
		m.lnch = l
		cfg.Logger.Info("rodlayout: launched local chrome", "url", wsURL)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		m.cleanup()
		return nil, fmt.Errorf("rodlayout: connect: %w", err)
	}
	m.browser = b
	return m, nil
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><style>body{margin:0}{{.CSS}}</style></head>
<body><div id="richedit-root" style="width:{{.Width}}px">{{.Body}}</div></body></html>`))

func document(cfg Config, body string) (string, error) {
	var sb strings.Builder
	err := pageTmpl.Execute(&sb, struct {
		CSS   template.CSS
		Width int
		Body  template.HTML
	}{template.CSS(cfg.CSS), cfg.Width, template.HTML(body)})
	return sb.String(), err
}

const measureJS = `() => {
	const root = document.getElementById('richedit-root');
	const box = (el) => { const b = el.getBoundingClientRect(); return {x: b.x, y: b.y, width: b.width, height: b.height}; };
	const blocks = Array.from(root.children).map(box);
	const media = Array.from(root.querySelectorAll('img, video')).map((el) => ({
		w: el.naturalWidth || el.videoWidth || 0,
		h: el.naturalHeight || el.videoHeight || 0,
	}));
	return JSON.stringify({root: box(root), blocks: blocks, media: media});
}`

// Measure renders the children of root and returns the box of every
// element child in order, plus the intrinsic size of img/video elements.
func (m *Measurer) Measure(ctx context.Context, root *html.Node) (*Layout, error) {
	doc, err := document(m.cfg, dom.InnerHTML(root))
	if err != nil {
		return nil, fmt.Errorf("rodlayout: template: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.browser == nil {
		return nil, fmt.Errorf("rodlayout: measurer is closed")
	}

	page, err := m.browser.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return nil, fmt.Errorf("rodlayout: page: %w", err)
	}
	defer page.Close()
	page = page.Context(ctx)

	if err := page.SetDocumentContent(doc); err != nil {
		return nil, fmt.Errorf("rodlayout: set content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		m.cfg.Logger.Warn("rodlayout: wait load", "error", err)
	}

	res, err := page.Eval(measureJS)
	if err != nil {
		return nil, fmt.Errorf("rodlayout: measure: %w", err)
	}
	return decode(res.Value.Str())
}

func decode(raw string) (*Layout, error) {
	var l Layout
	if err := json.Unmarshal([]byte(raw), &l); err != nil {
		return nil, fmt.Errorf("rodlayout: decode: %w", err)
	}
	return &l, nil
}

// Apply measures root and stores the result in mem.
func (m *Measurer) Apply(ctx context.Context, root *html.Node, mem *env.Memory) error {
	l, err := m.Measure(ctx, root)
	if err != nil {
		return err
	}
	return l.Apply(root, mem)
}

// Apply maps the measured boxes back onto the nodes of root. The tree must
// be the one that was measured.
func (l *Layout) Apply(root *html.Node, mem *env.Memory) error {
	mem.SetRect(root, l.Root)
	i := 0
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if i >= len(l.Blocks) {
			return fmt.Errorf("rodlayout: %d blocks measured, tree has more", len(l.Blocks))
		}
		mem.SetRect(c, l.Blocks[i])
		i++
	}

	j := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if dom.IsElement(c, "img", "video") && j < len(l.Media) {
				if e := l.Media[j]; e.Width > 0 && e.Height > 0 {
					mem.SetNaturalSize(c, e.Width, e.Height)
				}
				j++
			}
			walk(c)
		}
	}
	walk(root)
	return nil
}

// Close disconnects and, when it launched Chrome, kills it.
func (m *Measurer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var err error
	if m.browser != nil {
		err = m.browser.Close()
		m.browser = nil
	}
	m.cleanup()
	return err
}

func (m *Measurer) cleanup() {
	if m.lnch != nil {
		m.lnch.Cleanup()
		m.lnch = nil
	}
}
