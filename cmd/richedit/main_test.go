package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFragment(t *testing.T, s string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.html")
	if err := os.WriteFile(path, []byte(s), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSanitize(t *testing.T) {
	var out bytes.Buffer
	if err := runSanitize([]string{writeFragment(t, `<p>a</p><script>x</script>`)}, &out); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(out.String()); got != "<p>a</p>" {
		t.Errorf("got %q, want %q", got, "<p>a</p>")
	}
}

func TestCheck(t *testing.T) {
	var out bytes.Buffer
	if err := runCheck([]string{writeFragment(t, `<p>a</p>`)}, &out); err != nil {
		t.Fatal(err)
	}
	want := `{"changed":false,"dangerous":false,"empty":false}`
	if got := strings.TrimSpace(out.String()); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExport(t *testing.T) {
	path := writeFragment(t, `<h1>T</h1><p>x</p>`)
	var out bytes.Buffer
	if err := runExport([]string{"-format", "text", path}, &out); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(out.String()); got != "T\n\nx" {
		t.Errorf("got %q", got)
	}
	if err := runExport([]string{"-format", "pdf", path}, &out); err == nil {
		t.Error("expected error for unknown format")
	}
}
