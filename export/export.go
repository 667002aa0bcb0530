// Package export renders editor output in other formats. Input always goes
// through the output sanitizer first, so marker classes and unsafe markup
// never reach an export.
package export

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/strikethrough"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"golang.org/x/net/html"

	"github.com/hazyhaar/richedit/dom"
	"github.com/hazyhaar/richedit/sanitize"
)

var (
	mdOnce sync.Once
	mdConv *converter.Converter
)

func markdownConverter() *converter.Converter {
	mdOnce.Do(func() {
		mdConv = converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				strikethrough.NewStrikethroughPlugin(),
				table.NewTablePlugin(),
			),
		)
	})
	return mdConv
}

// Markdown converts s to CommonMark with strikethrough and tables.
func Markdown(s string) (string, error) {
	clean := sanitize.ForOutput(s)
	if clean == "" {
		return "", nil
	}
	out, err := markdownConverter().ConvertString(clean)
	if err != nil {
		return "", fmt.Errorf("export: markdown: %w", err)
	}
	return strings.TrimSpace(out), nil
}

var blankRuns = regexp.MustCompile(`\n{3,}`)

// PlainText flattens s to text: blocks are separated by a blank line, list
// items become "- " lines, line breaks are kept and media become their alt
// text.
func PlainText(s string) string {
	nodes, err := dom.ParseFragment(sanitize.ForOutput(s))
	if err != nil {
		return ""
	}
	var b strings.Builder
	for _, n := range nodes {
		writeText(&b, n)
	}
	lines := strings.Split(b.String(), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	out := blankRuns.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(out)
}

func writeText(b *strings.Builder, n *html.Node) {
	switch {
	case n.Type == html.TextNode:
		b.WriteString(n.Data)
		return
	case dom.IsElement(n, "br"):
		b.WriteByte('\n')
		return
	case dom.IsElement(n, "img", "video"):
		if alt := dom.AttrOr(n, "alt", ""); alt != "" {
			b.WriteString(alt)
		}
		return
	case dom.IsElement(n, "hr"):
		b.WriteString("\n\n---\n\n")
		return
	case dom.IsElement(n, "li"):
		b.WriteString("\n- ")
	case dom.IsElement(n, "td", "th"):
		b.WriteByte('\t')
	case dom.IsElement(n, "tr"):
		b.WriteByte('\n')
	case dom.IsElement(n, "ul", "ol", "table", "thead", "tbody", "tfoot"):
	case dom.IsBlock(n):
		b.WriteString("\n\n")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
	if dom.IsBlock(n) && !dom.IsElement(n, "li", "td", "th", "tr") {
		b.WriteString("\n\n")
	}
}
