package sanitize

import (
	"strings"
	"testing"
)

func TestForInput_KeepsSafeMarkup(t *testing.T) {
	if got := ForInput("<p>Hello</p>"); got != "<p>Hello</p>" {
		t.Errorf("got %q, want %q", got, "<p>Hello</p>")
	}
	got := ForInput(`<h2>Title</h2><ul><li><strong>a</strong></li></ul>`)
	for _, want := range []string{"<h2>Title</h2>", "<ul>", "<li>", "<strong>a</strong>"} {
		if !strings.Contains(got, want) {
			t.Errorf("ForInput dropped %q: %q", want, got)
		}
	}
}

func TestForInput_RemovesInlineScript(t *testing.T) {
	if got := ForInput("<p>Hi</p><script>alert(1)</script>"); got != "<p>Hi</p>" {
		t.Errorf("got %q, want %q", got, "<p>Hi</p>")
	}
}

func TestForInput_KeepsRemoteScriptWithoutBody(t *testing.T) {
	got := ForInput(`<script src="https://cdn.example.com/lib.js">steal()</script><p>x</p>`)
	if !strings.Contains(got, "https://cdn.example.com/lib.js") {
		t.Errorf("remote script dropped: %q", got)
	}
	if strings.Contains(got, "steal") {
		t.Errorf("script body survived: %q", got)
	}
	if got := ForInput(`<script src="/local.js"></script>`); strings.Contains(got, "script") {
		t.Errorf("relative script kept: %q", got)
	}
}

func TestForInput_XSSVectors(t *testing.T) {
	vectors := []string{
		`<img src="x" onerror="alert(1)">`,
		`<a href="javascript:alert(1)">x</a>`,
		`<iframe src="https://evil.example"></iframe>`,
		`<object data="x.swf"></object>`,
		`<embed src="x.swf">`,
		`<a href="data:text/html;base64,PHNjcmlwdD4=">x</a>`,
		`<p onclick="steal()">text</p>`,
		`<svg><script>alert(1)</script></svg>`,
		`<div style="background:url(javascript:alert(1))">x</div>`,
	}
	for _, v := range vectors {
		got := ForInput(v)
		if LooksDangerous(got) {
			t.Errorf("ForInput(%q) is still dangerous: %q", v, got)
		}
	}
}

func TestForInput_AllowsDataImages(t *testing.T) {
	in := `<img src="data:image/png;base64,iVBORw0KGgo=" alt="dot">`
	if got := ForInput(in); !strings.Contains(got, "data:image/png") {
		t.Errorf("data image dropped: %q", got)
	}
}

func TestForInput_KeepsAllowedStyles(t *testing.T) {
	got := ForInput(`<p style="text-align: center; position: fixed">x</p>`)
	if !strings.Contains(got, "text-align") {
		t.Errorf("text-align dropped: %q", got)
	}
	if strings.Contains(got, "position") {
		t.Errorf("position kept: %q", got)
	}
}

func TestForOutput_StripsInternalMarkers(t *testing.T) {
	got := ForOutput(`<p><img src="a.png" class="richedit-selected wide" data-richedit-id="3" data-caption="c"></p>`)
	if strings.Contains(got, "richedit") {
		t.Errorf("internal marker survived: %q", got)
	}
	if !strings.Contains(got, `class="wide"`) || !strings.Contains(got, `data-caption="c"`) {
		t.Errorf("user attributes lost: %q", got)
	}

	got = ForOutput(`<p><img src="a.png" class="richedit-selected"></p>`)
	if strings.Contains(got, "class") {
		t.Errorf("empty class attribute kept: %q", got)
	}
}

func TestForOutput_Normalises(t *testing.T) {
	cases := []struct{ in, want string }{
		{"<p>a</p><p></p><p>  </p><p><br></p>", "<p>a</p>"},
		{"<p>a</p><br><br>  ", "<p>a</p>"},
		{"  <p>a</p>\n", "<p>a</p>"},
		{"<p></p>", ""},
	}
	for _, c := range cases {
		if got := ForOutput(c.in); got != c.want {
			t.Errorf("ForOutput(%q): got %q, want %q", c.in, got, c.want)
		}
	}
}

func TestForOutput_Idempotent(t *testing.T) {
	inputs := []string{
		"<p>Hello</p>",
		"<p>it's <em>fine</em> &amp; good</p><br>",
		`<p style="color: red">x</p><p></p>`,
		`<ul><li>a<br></li><li><a href="https://example.com" target="_blank">b</a></li></ul>`,
		`<p>Hi</p><script>alert(1)</script><img src=x onerror=alert(1)>`,
		`<table><tr><td>1</td></tr></table>`,
		`<div><p><br></p><p>kept</p></div>`,
		"plain text",
		"",
	}
	for _, in := range inputs {
		once := ForOutput(in)
		twice := ForOutput(once)
		if once != twice {
			t.Errorf("not idempotent for %q:\n once  %q\n twice %q", in, once, twice)
		}
	}
}

func TestForInput_Idempotent(t *testing.T) {
	for _, in := range []string{"<p>a<br>b</p>", `<p>x</p><script>y</script>`, "<b>bold</b> text"} {
		once := ForInput(in)
		if twice := ForInput(once); once != twice {
			t.Errorf("ForInput not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}

func TestLooksDangerous(t *testing.T) {
	cases := map[string]bool{
		"<p>hello</p>":                      false,
		"<SCRIPT>alert(1)</SCRIPT>":         true,
		`<a href="JavaScript:x">`:           true,
		`<img src=x onerror=alert(1)>`:      true,
		`<iframe src="x">`:                  true,
		`<a href="data:text/html,<b>">x</a>`: true,
		"going online today":                false,
	}
	for in, want := range cases {
		if got := LooksDangerous(in); got != want {
			t.Errorf("LooksDangerous(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestIsEmpty(t *testing.T) {
	for _, s := range []string{"", "<br>", "<p></p>", "<p><br></p>", "  <p><br/></p> "} {
		if !IsEmpty(s) {
			t.Errorf("IsEmpty(%q) = false", s)
		}
	}
	for _, s := range []string{"<p>a</p>", "<p> </p><p>x</p>"} {
		if IsEmpty(s) {
			t.Errorf("IsEmpty(%q) = true", s)
		}
	}
}
