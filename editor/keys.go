package editor

import (
	"strings"

	"github.com/hazyhaar/richedit/format"
)

// KeyEvent is a key press on the editable region. Key is the produced key
// value ("b", "Escape", "!"); Code is the physical key ("KeyB", "Digit1").
type KeyEvent struct {
	Key   string `json:"key"`
	Code  string `json:"code,omitempty"`
	Ctrl  bool   `json:"ctrl,omitempty"`
	Meta  bool   `json:"meta,omitempty"`
	Shift bool   `json:"shift,omitempty"`
	Alt   bool   `json:"alt,omitempty"`
}

// letter is the lower-cased letter of k, or 0.
func (k KeyEvent) letter() byte {
	if strings.HasPrefix(k.Code, "Key") && len(k.Code) == 4 {
		return k.Code[3] | 0x20
	}
	if len(k.Key) == 1 && (k.Key[0]|0x20) >= 'a' && (k.Key[0]|0x20) <= 'z' {
		return k.Key[0] | 0x20
	}
	return 0
}

// digit is the digit of k, or -1. Shifted digits produce symbols in Key, so
// Code wins.
func (k KeyEvent) digit() int {
	if strings.HasPrefix(k.Code, "Digit") && len(k.Code) == 6 {
		return int(k.Code[5] - '0')
	}
	if len(k.Key) == 1 && k.Key[0] >= '0' && k.Key[0] <= '9' {
		return int(k.Key[0] - '0')
	}
	return -1
}

// HandleKey dispatches a shortcut. It only acts while the region has focus
// and reports whether the key was consumed, in which case the host should
// suppress its default action.
func (e *Editor) HandleKey(k KeyEvent) bool {
	if e.closed || !e.env.HasFocus() {
		return false
	}
	mod := k.Ctrl
	if e.env.IsApple() {
		mod = k.Meta
	}

	switch k.Key {
	case "Escape":
		if e.ClosePicker() {
			return true
		}
		if e.media.selected != nil {
			e.Deselect()
			return true
		}
		return false
	case "Delete", "Backspace":
		if !mod && e.media.selected != nil {
			return e.DeleteSelectedMedia()
		}
		return false
	}
	if !mod || k.Alt {
		return false
	}

	if d := k.digit(); d >= 0 && k.Shift {
		switch {
		case d == 0:
			e.exec.SetBlock("p")
			return true
		case d <= 6:
			e.exec.SetBlock("h" + string(rune('0'+d)))
			return true
		}
		return false
	}

	switch k.letter() {
	case 'b':
		e.exec.Toggle(format.Bold)
	case 'i':
		e.exec.Toggle(format.Italic)
	case 'u':
		e.exec.Toggle(format.Underline)
	case 'k':
		if e.opts.PromptLink == nil {
			return false
		}
		url, ok := e.opts.PromptLink(e.insp.LinkURL())
		switch {
		case !ok:
		case url == "":
			e.exec.RemoveLink()
		default:
			e.exec.InsertLink(url)
		}
	case 'z':
		if k.Shift {
			e.Redo()
		} else {
			e.Undo()
		}
	case 'y':
		if e.env.IsApple() || k.Shift {
			return false
		}
		e.Redo()
	default:
		return false
	}
	return true
}
