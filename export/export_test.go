package export

import (
	"strings"
	"testing"
)

func TestMarkdown(t *testing.T) {
	got, err := Markdown(`<h2>Title</h2><p><strong>bold</strong> and <em>it</em></p>`)
	if err != nil {
		t.Fatal(err)
	}
	want := "## Title\n\n**bold** and *it*"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMarkdown_DropsUnsafeAndMarkers(t *testing.T) {
	got, err := Markdown(`<p class="richedit-selected">a<script>alert(1)</script></p>`)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "alert") || strings.Contains(got, "richedit") {
		t.Errorf("got %q", got)
	}
}

func TestMarkdown_Empty(t *testing.T) {
	got, err := Markdown("<p><br></p>")
	if err != nil || got != "" {
		t.Errorf("got %q, %v", got, err)
	}
}

func TestPlainText(t *testing.T) {
	got := PlainText(`<h1>T</h1><p>a<br>b</p><ul><li>x</li><li>y</li></ul><p><img src="https://e.com/c.png" alt="cat"></p>`)
	want := "T\n\na\nb\n\n- x\n- y\n\ncat"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
