package editor

import (
	"context"
	"math"
	"strconv"

	"golang.org/x/net/html"

	"github.com/hazyhaar/richedit/change"
	"github.com/hazyhaar/richedit/dom"
	"github.com/hazyhaar/richedit/sanitize"
)

// SelectedClass marks the selected media element.
const SelectedClass = "richedit-selected"

type mediaState struct {
	selected *html.Node

	resizing       bool
	startX, startY float64
	startW, startH float64
	aspect         float64
	attrW, attrH   string
	width, height  float64

	picker    bool
	uploading bool
	uploadGen uint64
}

// PickerState is what a media picker renders.
type PickerState struct {
	Open      bool    `json:"open"`
	Uploading bool    `json:"uploading"`
	Assets    []Asset `json:"assets,omitempty"`
}

func isMedia(n *html.Node) bool { return dom.IsElement(n, "img", "video") }

// SelectedMedia is the selected img or video, nil when none.
func (e *Editor) SelectedMedia() *html.Node { return e.media.selected }

// Click handles a click on n. Media inside the document becomes selected;
// anything else clears the media selection. It reports whether media is
// selected afterwards.
func (e *Editor) Click(n *html.Node) bool {
	if e.closed {
		return false
	}
	if !isMedia(n) || !dom.Contains(e.root, n) {
		e.Deselect()
		return false
	}
	if e.media.selected == n {
		return true
	}
	e.Deselect()
	e.media.selected = n
	dom.AddClass(n, SelectedClass)
	e.log.Debug("editor: media selected", "tag", n.Data, "path", dom.Path(e.root, n))
	return true
}

// Deselect clears the media selection and closes the picker. A resize in
// progress is abandoned and its preview reverted.
func (e *Editor) Deselect() {
	if e.media.selected == nil {
		return
	}
	if e.media.resizing {
		e.revertResize()
	}
	e.dropMedia()
}

// dropMedia forgets the selection without touching anything but the marker
// class. An upload in flight keeps running.
func (e *Editor) dropMedia() {
	if n := e.media.selected; n != nil {
		dom.RemoveClass(n, SelectedClass)
	}
	up, gen := e.media.uploading, e.media.uploadGen
	e.media = mediaState{uploading: up, uploadGen: gen}
}

// DeleteSelectedMedia removes the selected element from the document.
func (e *Editor) DeleteSelectedMedia() bool {
	n := e.media.selected
	if e.closed || n == nil {
		return false
	}
	path := dom.Path(e.root, n)
	parent, idx := n.Parent, dom.Index(n)
	e.dropMedia()
	dom.Remove(n)
	e.env.SetSelection(dom.Caret(parent, idx))
	e.log.Debug("editor: media deleted", "path", path)
	e.changed(change.Record{Op: change.OpMedia, Path: path, Detail: "delete"})
	return true
}

// BeginResize starts a corner-handle resize of the selected media with the
// pointer at (x, y).
func (e *Editor) BeginResize(x, y float64) bool {
	n := e.media.selected
	if e.closed || n == nil || e.media.resizing {
		return false
	}
	w, h := e.currentSize(n)
	if w <= 0 || h <= 0 {
		return false
	}
	aspect := w / h
	if nw, nh, ok := e.env.NaturalSize(n); ok && nw > 0 && nh > 0 {
		aspect = nw / nh
	}
	m := &e.media
	m.resizing = true
	m.startX, m.startY = x, y
	m.startW, m.startH = w, h
	m.aspect = aspect
	m.attrW = dom.AttrOr(n, "width", "")
	m.attrH = dom.AttrOr(n, "height", "")
	m.width, m.height = w, h
	return true
}

func (e *Editor) currentSize(n *html.Node) (w, h float64) {
	aw, errW := strconv.ParseFloat(dom.AttrOr(n, "width", ""), 64)
	ah, errH := strconv.ParseFloat(dom.AttrOr(n, "height", ""), 64)
	if errW == nil && errH == nil {
		return aw, ah
	}
	if r, ok := e.env.Rect(n); ok && r.Width > 0 && r.Height > 0 {
		return r.Width, r.Height
	}
	if nw, nh, ok := e.env.NaturalSize(n); ok {
		return nw, nh
	}
	return 0, 0
}

func (e *Editor) resizeToward(x, _ float64) {
	e.ResizeTo(e.media.startW + x - e.media.startX)
}

// ResizeTo previews a new width; the height follows the original aspect
// ratio and neither side drops below MinMediaSize.
func (e *Editor) ResizeTo(width float64) bool {
	m := &e.media
	if !m.resizing {
		return false
	}
	w, h := fitAspect(width, m.aspect)
	m.width, m.height = w, h
	dom.SetStyle(m.selected, "width", px(w))
	dom.SetStyle(m.selected, "height", px(h))
	return true
}

func fitAspect(width, aspect float64) (w, h float64) {
	w = math.Max(width, MinMediaSize)
	h = w / aspect
	if h < MinMediaSize {
		h = MinMediaSize
		w = h * aspect
	}
	return w, h
}

func px(v float64) string { return strconv.Itoa(int(math.Round(v))) + "px" }

// EndResize commits the previewed size as width and height attributes. It
// reports whether the size changed.
func (e *Editor) EndResize() bool {
	m := &e.media
	if !m.resizing {
		return false
	}
	n := m.selected
	m.resizing = false
	dom.RemoveStyle(n, "width")
	dom.RemoveStyle(n, "height")

	w := strconv.Itoa(int(math.Round(m.width)))
	h := strconv.Itoa(int(math.Round(m.height)))
	if w == m.attrW && h == m.attrH {
		return false
	}
	dom.SetAttr(n, "width", w)
	dom.SetAttr(n, "height", h)
	e.changed(change.Record{Op: change.OpMedia, Path: dom.Path(e.root, n), Detail: "resize"})
	return true
}

func (e *Editor) revertResize() {
	n := e.media.selected
	e.media.resizing = false
	dom.RemoveStyle(n, "width")
	dom.RemoveStyle(n, "height")
}

// ReplaceMedia points the selected media at url.
func (e *Editor) ReplaceMedia(url string) bool {
	if e.closed || e.media.selected == nil {
		return false
	}
	ok := e.setSource(e.media.selected, url)
	if ok {
		e.media.picker = false
	}
	return ok
}

func (e *Editor) setSource(n *html.Node, url string) bool {
	if url == "" || sanitize.LooksDangerous(url) {
		e.log.Warn("editor: media url rejected", "url", url)
		return false
	}
	if dom.AttrOr(n, "src", "") == url {
		return false
	}
	dom.SetAttr(n, "src", url)
	dom.RemoveAttr(n, "srcset")
	e.changed(change.Record{Op: change.OpMedia, Path: dom.Path(e.root, n), Detail: "replace"})
	return true
}

// ReplaceWithAsset points the selected media at the library asset id.
func (e *Editor) ReplaceWithAsset(id string) bool {
	for _, a := range e.opts.Assets {
		if a.ID == id {
			return e.ReplaceMedia(a.URL)
		}
	}
	return false
}

// ReplaceWithUpload hands f to the upload function and, once it returns a
// URL, points the media that was selected at call time at it. Only one
// upload runs at a time. A failure is logged and leaves everything as it
// was.
func (e *Editor) ReplaceWithUpload(ctx context.Context, f File) bool {
	target := e.media.selected
	if e.closed || target == nil || e.opts.Upload == nil || e.media.uploading {
		return false
	}
	e.media.uploading = true
	e.media.uploadGen++
	gen := e.media.uploadGen
	upload := e.opts.Upload
	e.log.Info("editor: upload started", "name", f.Name, "bytes", len(f.Data))

	go func() {
		url, err := upload(ctx, f)
		e.sched.Post(func() { e.uploaded(gen, target, f.Name, url, err) })
	}()
	return true
}

func (e *Editor) uploaded(gen uint64, target *html.Node, name, url string, err error) {
	if e.closed || gen != e.media.uploadGen {
		return
	}
	e.media.uploading = false
	if err != nil {
		e.log.Warn("editor: upload failed", "name", name, "error", err)
		return
	}
	if !dom.Contains(e.root, target) {
		e.log.Info("editor: upload target gone", "name", name)
		return
	}
	if e.setSource(target, url) && e.media.selected == target {
		e.media.picker = false
	}
}

// Uploading reports whether an upload is in flight.
func (e *Editor) Uploading() bool { return e.media.uploading }

// OpenPicker opens the media picker for the selected media.
func (e *Editor) OpenPicker() bool {
	if e.closed || e.media.selected == nil {
		return false
	}
	e.media.picker = true
	return true
}

// ClosePicker dismisses the picker. It reports whether it was open.
func (e *Editor) ClosePicker() bool {
	was := e.media.picker
	e.media.picker = false
	return was
}

// Picker returns the picker's state.
func (e *Editor) Picker() PickerState {
	return PickerState{
		Open:      e.media.picker,
		Uploading: e.media.uploading,
		Assets:    e.opts.Assets,
	}
}
