package format

import (
	"strconv"
	"strings"
)

// FontScale is the legacy seven-step size scale, in pixels, for
// <font size="1".."7">.
var FontScale = [7]int{10, 13, 16, 18, 24, 32, 48}

// FontStep returns the 1-based step nearest to px. Ties go to the smaller
// step.
func FontStep(px int) int {
	best := 0
	for i, s := range FontScale {
		if abs(s-px) < abs(FontScale[best]-px) {
			best = i
		}
	}
	return best + 1
}

// StepPx is the pixel size of a step, clamped to the scale.
func StepPx(step int) int {
	if step < 1 {
		step = 1
	}
	if step > len(FontScale) {
		step = len(FontScale)
	}
	return FontScale[step-1]
}

// ParsePx reads "18px" or "18" as 18.
func ParsePx(s string) (int, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(strings.ToLower(s)), "px")
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return int(f + 0.5), true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
