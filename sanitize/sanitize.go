// Package sanitize is the security boundary of the editor. It cleans HTML
// arriving from the host (ForInput) and HTML leaving the editor (ForOutput).
// Neither function fails: disallowed markup is dropped, never rejected.
package sanitize

import (
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/hazyhaar/richedit/dom"
)

// InternalPrefix marks classes and data attributes that only exist for
// in-editor bookkeeping (selection, drag, ghost). ForOutput strips them.
const InternalPrefix = "richedit-"

var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.NewPolicy()

		p.AllowElements(
			"b", "strong", "i", "em", "u", "s", "strike", "del", "ins", "mark",
			"sub", "sup", "small", "code", "kbd", "span", "br",
			"p", "div", "h1", "h2", "h3", "h4", "h5", "h6",
			"blockquote", "pre", "ul", "ol", "li", "hr", "figure", "figcaption",
			"table", "thead", "tbody", "tfoot", "tr", "th", "td", "caption", "colgroup", "col",
			"img", "video", "audio", "source", "picture", "font", "a",
			// Host pages pull CDN resources through the document.
			"link", "script",
		)

		p.AllowAttrs("class", "id", "title", "dir", "lang").Globally()
		p.AllowDataAttributes()

		p.AllowAttrs("href", "target", "rel", "name").OnElements("a")
		p.AllowAttrs("src", "alt", "width", "height", "loading").OnElements("img")
		p.AllowAttrs("src", "poster", "width", "height", "controls", "autoplay",
			"loop", "muted", "playsinline", "preload").OnElements("video", "audio")
		p.AllowAttrs("src", "type", "srcset", "media").OnElements("source")
		p.AllowAttrs("colspan", "rowspan", "scope").OnElements("td", "th")
		p.AllowAttrs("span").OnElements("col", "colgroup")
		p.AllowAttrs("start", "type", "reversed").OnElements("ol")
		p.AllowAttrs("value").OnElements("li")
		p.AllowAttrs("size", "face", "color").OnElements("font")
		p.AllowAttrs("cite").OnElements("blockquote")
		p.AllowAttrs("href", "rel", "type", "media", "crossorigin", "integrity").OnElements("link")
		p.AllowAttrs("src", "type", "async", "defer", "crossorigin", "integrity").OnElements("script")

		p.AllowStyles(
			"color", "background-color", "font-family", "font-size", "font-weight",
			"font-style", "text-decoration", "text-align", "width", "height", "margin-left",
		).Globally()

		// Script elements survive only with an http(s) src; stripScripts
		// has already emptied their bodies and dropped the rest.
		p.AllowUnsafe(true)

		p.RequireParseableURLs(true)
		p.AllowRelativeURLs(true)
		p.AllowURLSchemes("http", "https", "mailto", "tel")
		p.AllowURLSchemeWithCustomPolicy("data", func(u *url.URL) bool {
			return !strings.HasPrefix(strings.ToLower(strings.TrimSpace(u.Opaque)), "text/html")
		})

		policy = p
	})
	return policy
}

// ForInput widens host-supplied HTML to the editor's allow-list. The result
// is in canonical serialisation, so it compares byte for byte with the
// live tree once loaded.
func ForInput(s string) string {
	nodes, ok := clean(s)
	if !ok {
		return strings.TrimSpace(getPolicy().Sanitize(s))
	}
	return dom.RenderNodes(nodes)
}

// ForOutput applies the input allow-list, strips editor bookkeeping and
// normalises cosmetic noise. ForOutput(ForOutput(x)) == ForOutput(x).
func ForOutput(s string) string {
	nodes, ok := clean(s)
	if !ok {
		return strings.TrimSpace(getPolicy().Sanitize(s))
	}
	holder := dom.NewRoot()
	for _, n := range nodes {
		holder.AppendChild(n)
	}
	stripInternal(holder)
	removeEmptyParagraphs(holder)
	trimTrailing(holder)
	return strings.TrimSpace(dom.InnerHTML(holder))
}

// clean runs the pre-pass, the bluemonday policy, then re-parses so the
// result is a well-formed tree.
func clean(s string) ([]*html.Node, bool) {
	pre, err := dom.ParseFragment(s)
	if err != nil {
		return nil, false
	}
	holder := dom.NewRoot()
	for _, n := range pre {
		holder.AppendChild(n)
	}
	stripScripts(holder)

	out, err := dom.ParseFragment(getPolicy().Sanitize(dom.InnerHTML(holder)))
	if err != nil {
		return nil, false
	}
	return out, true
}

// stripScripts keeps only remote <script src> elements and drops every
// script body.
func stripScripts(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if dom.IsElement(c, "script") {
			if remoteURL(dom.AttrOr(c, "src", "")) {
				dom.RemoveChildren(c)
			} else {
				n.RemoveChild(c)
			}
		} else {
			stripScripts(c)
		}
		c = next
	}
}

func remoteURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

func stripInternal(n *html.Node) {
	if n.Type == html.ElementNode {
		dom.RemoveAttrFunc(n, func(key string) bool {
			return strings.HasPrefix(key, "data-"+InternalPrefix)
		})
		dom.RemoveClassFunc(n, func(c string) bool {
			return strings.HasPrefix(c, InternalPrefix)
		})
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		stripInternal(c)
	}
}

func isEmptyParagraph(n *html.Node) bool {
	if !dom.IsElement(n, "p") {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.TextNode && strings.TrimSpace(c.Data) == "":
		case dom.IsElement(c, "br"):
		default:
			return false
		}
	}
	return true
}

func removeEmptyParagraphs(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if isEmptyParagraph(c) {
			n.RemoveChild(c)
		} else {
			removeEmptyParagraphs(c)
		}
		c = next
	}
}

func trimTrailing(root *html.Node) {
	for last := root.LastChild; last != nil; last = root.LastChild {
		if dom.IsElement(last, "br") || (last.Type == html.TextNode && strings.TrimSpace(last.Data) == "") {
			root.RemoveChild(last)
			continue
		}
		return
	}
}

var dangerPattern = regexp.MustCompile(`(?i)<script|javascript\s*:|\son[a-z]+\s*=|<iframe|<object|<embed|data\s*:\s*text/html`)

// LooksDangerous is a fast heuristic used to decide whether to show the
// risk advisory. It is not a security boundary; ForInput is.
func LooksDangerous(s string) bool {
	return dangerPattern.MatchString(s)
}

var emptyDocs = map[string]bool{
	"":              true,
	"<br>":          true,
	"<br/>":         true,
	"<p></p>":       true,
	"<p><br></p>":   true,
	"<p><br/></p>":  true,
	"<p><br /></p>": true,
}

// IsEmpty reports whether a document should show the placeholder.
func IsEmpty(s string) bool {
	return emptyDocs[strings.TrimSpace(s)]
}
