package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// NormalizeColor converts a CSS colour (rgb(), rgba(), #rgb, #rrggbb,
// #rrggbbaa or a named colour) to lower-case #rrggbb. It returns "" for
// transparent and for values it cannot read.
func NormalizeColor(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "" || s == "transparent" || s == "inherit" || s == "currentcolor":
		return ""
	case strings.HasPrefix(s, "#"):
		return normalizeHex(s[1:])
	case strings.HasPrefix(s, "rgb"):
		return normalizeRGB(s)
	}
	if c, ok := colornames.Map[s]; ok {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return ""
}

func normalizeHex(h string) string {
	for _, r := range h {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return ""
		}
	}
	switch len(h) {
	case 3, 4:
		return "#" + string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	case 6, 8:
		return "#" + h[:6]
	}
	return ""
}

// normalizeRGB reads rgb(r, g, b), rgba(r, g, b, a) and the space-separated
// rgb(r g b / a) form. Channels may be percentages.
func normalizeRGB(s string) string {
	open, closing := strings.IndexByte(s, '('), strings.LastIndexByte(s, ')')
	if open < 0 || closing < open {
		return ""
	}
	body := s[open+1 : closing]
	if i := strings.IndexByte(body, '/'); i >= 0 {
		body = body[:i]
	}
	fields := strings.FieldsFunc(body, func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) < 3 {
		return ""
	}
	var ch [3]int
	for i := 0; i < 3; i++ {
		v, ok := channel(fields[i])
		if !ok {
			return ""
		}
		ch[i] = v
	}
	return fmt.Sprintf("#%02x%02x%02x", ch[0], ch[1], ch[2])
}

func channel(f string) (int, bool) {
	pct := strings.HasSuffix(f, "%")
	v, err := strconv.ParseFloat(strings.TrimSuffix(f, "%"), 64)
	if err != nil {
		return 0, false
	}
	if pct {
		v = v * 255 / 100
	}
	return int(math.Round(math.Max(0, math.Min(255, v)))), true
}
