package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/net/html"

	"github.com/hazyhaar/richedit/dom"
	"github.com/hazyhaar/richedit/editor"
	"github.com/hazyhaar/richedit/env"
	"github.com/hazyhaar/richedit/format"
	"github.com/hazyhaar/richedit/kit"
	"github.com/hazyhaar/richedit/upload"
)

var (
	errNoSession      = errors.New("server: no such session")
	errBadPath        = errors.New("server: path does not resolve")
	errUnknownCommand = errors.New("server: unknown command")
)

func (s *Server) sessionRoutes(r chi.Router) {
	r.Post("/", s.createSession)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", s.withSession(func(w http.ResponseWriter, _ *http.Request, ss *session) {
			s.respond(w, ss, nil)
		}))
		r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
			if !s.remove(chi.URLParam(r, "id")) {
				writeError(w, http.StatusNotFound, errNoSession)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
		r.Put("/html", s.withSession(s.setHTML))
		r.Post("/input", s.withSession(s.input))
		r.Post("/selection", s.withSession(s.selection))
		r.Post("/focus", s.withSession(s.focus))
		r.Post("/command", s.withSession(s.command))
		r.Post("/key", s.withSession(s.key))
		r.Post("/click", s.withSession(s.click))
		r.Post("/pointer", s.withSession(s.pointer))
		r.Post("/drag", s.withSession(s.dragStart))
		r.Post("/flush", s.withSession(func(w http.ResponseWriter, _ *http.Request, ss *session) {
			s.respond(w, ss, func() bool { return ss.ed.Flush() })
		}))
		r.Get("/batches", s.withSession(s.batches))
		r.Get("/export", s.withSession(s.export))
		r.Route("/media", func(r chi.Router) {
			r.Post("/delete", s.withSession(func(w http.ResponseWriter, _ *http.Request, ss *session) {
				s.respond(w, ss, func() bool { return ss.ed.DeleteSelectedMedia() })
			}))
			r.Post("/resize", s.withSession(s.resize))
			r.Post("/replace", s.withSession(s.replace))
			r.Post("/upload", s.withSession(s.upload))
			r.Post("/picker", s.withSession(s.picker))
		})
	})
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, ss *session)

func (s *Server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ss, ok := s.session(chi.URLParam(r, "id"))
		if !ok {
			writeError(w, http.StatusNotFound, errNoSession)
			return
		}
		h(w, r.WithContext(kit.WithSessionID(r.Context(), ss.id)), ss)
	}
}

type result struct {
	Applied bool     `json:"applied"`
	Session snapshot `json:"session"`
}

// respond runs fn on the session goroutine and answers with its outcome and
// the session state. A nil fn only reports the state.
func (s *Server) respond(w http.ResponseWriter, ss *session, fn func() bool) {
	var out result
	err := ss.do(func() {
		if fn != nil {
			out.Applied = fn()
		}
		out.Session = ss.snapshot()
	})
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type createReq struct {
	HTML        string `json:"html"`
	DocID       string `json:"doc_id"`
	Placeholder string `json:"placeholder"`
	Apple       bool   `json:"apple"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req createReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	spec := sessionSpec{HTML: req.HTML, DocID: req.DocID, Placeholder: req.Placeholder, Apple: req.Apple}
	if req.DocID != "" {
		if s.opts.Store == nil {
			writeError(w, http.StatusBadRequest, errors.New("server: no document store"))
			return
		}
		doc, err := s.opts.Store.Get(r.Context(), req.DocID)
		if err != nil {
			writeFailure(w, err)
			return
		}
		spec.HTML = doc.HTML
	}
	ss, err := s.newSession(spec)
	if err != nil {
		writeFailure(w, err)
		return
	}
	s.add(ss)

	var snap snapshot
	if err := ss.do(func() { snap = ss.snapshot() }); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

type htmlReq struct {
	HTML string `json:"html"`
}

func (s *Server) setHTML(w http.ResponseWriter, r *http.Request, ss *session) {
	var req htmlReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.respond(w, ss, func() bool { return ss.ed.SetHTML(req.HTML) })
}

type pointReq struct {
	Path   string `json:"path"`
	Offset int    `json:"offset"`
}

func (p pointReq) resolve(root *html.Node) (dom.Point, error) {
	n := dom.Resolve(root, p.Path)
	if n == nil {
		return dom.Point{}, fmt.Errorf("%w: %q", errBadPath, p.Path)
	}
	if p.Offset < 0 || p.Offset > dom.Len(n) {
		return dom.Point{}, fmt.Errorf("server: offset %d out of range for %q", p.Offset, p.Path)
	}
	if n.Type == html.TextNode && dom.RuneStart(n.Data, p.Offset) != p.Offset {
		return dom.Point{}, fmt.Errorf("server: offset %d splits a character in %q", p.Offset, p.Path)
	}
	return dom.Point{Node: n, Offset: p.Offset}, nil
}

type selectionReq struct {
	Start pointReq  `json:"start"`
	End   *pointReq `json:"end,omitempty"`
}

func (q selectionReq) resolve(root *html.Node) (dom.Range, error) {
	start, err := q.Start.resolve(root)
	if err != nil {
		return dom.Range{}, err
	}
	end := start
	if q.End != nil {
		if end, err = q.End.resolve(root); err != nil {
			return dom.Range{}, err
		}
	}
	return dom.Range{Start: start, End: end}, nil
}

// withBadRequest runs fn on the session goroutine; an error from fn is a
// 400, anything else is reported like respond.
func (s *Server) withBadRequest(w http.ResponseWriter, ss *session, fn func() (bool, error)) {
	var out result
	var reqErr error
	err := ss.do(func() {
		out.Applied, reqErr = fn()
		out.Session = ss.snapshot()
	})
	switch {
	case err != nil:
		writeFailure(w, err)
	case reqErr != nil:
		writeError(w, http.StatusBadRequest, reqErr)
	default:
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) selection(w http.ResponseWriter, r *http.Request, ss *session) {
	var req selectionReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.withBadRequest(w, ss, func() (bool, error) {
		rng, err := req.resolve(ss.ed.Root())
		if err != nil {
			return false, err
		}
		ss.mem.SetSelection(rng)
		ss.ed.SelectionChanged()
		return true, nil
	})
}

type inputReq struct {
	// HTML replaces the whole tree, as a native edit would leave it.
	HTML *string `json:"html,omitempty"`
	// Text is typed at the caret.
	Text      string        `json:"text,omitempty"`
	Selection *selectionReq `json:"selection,omitempty"`
}

func (s *Server) input(w http.ResponseWriter, r *http.Request, ss *session) {
	var req inputReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.withBadRequest(w, ss, func() (bool, error) {
		root := ss.ed.Root()
		if req.HTML != nil {
			if err := dom.SetInnerHTML(root, *req.HTML); err != nil {
				return false, err
			}
			ss.mem.ClearSelection()
		}
		if req.Selection != nil {
			rng, err := req.Selection.resolve(root)
			if err != nil {
				return false, err
			}
			ss.mem.SetSelection(rng)
		}
		if req.Text != "" && !typeText(ss.mem, root, req.Text) {
			return false, errors.New("server: text needs a collapsed selection")
		}
		ss.ed.Input()
		return true, nil
	})
}

// typeText inserts text at a collapsed selection the way a browser would,
// inside the anchor text node when there is one.
func typeText(sel env.Selection, root *html.Node, text string) bool {
	rng, ok := sel.Selection()
	if !ok || !rng.Valid() || !rng.Collapsed() || !rng.Within(root) {
		return false
	}
	p := rng.Start
	if p.Node.Type == html.TextNode {
		off := dom.RuneStart(p.Node.Data, p.Offset)
		p.Node.Data = p.Node.Data[:off] + text + p.Node.Data[off:]
		sel.SetSelection(dom.Caret(p.Node, off+len(text)))
		return true
	}
	t := dom.NewText(text)
	if ref := dom.ChildAt(p.Node, p.Offset); ref != nil {
		dom.InsertBefore(t, ref)
	} else {
		p.Node.AppendChild(t)
	}
	sel.SetSelection(dom.Caret(t, len(text)))
	return true
}

type focusReq struct {
	Focused bool `json:"focused"`
}

func (s *Server) focus(w http.ResponseWriter, r *http.Request, ss *session) {
	var req focusReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.respond(w, ss, func() bool {
		if req.Focused {
			ss.mem.Focus()
		} else {
			ss.mem.Blur()
		}
		return true
	})
}

type commandReq struct {
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
}

func (s *Server) command(w http.ResponseWriter, r *http.Request, ss *session) {
	var req commandReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.withBadRequest(w, ss, func() (bool, error) { return runCommand(ss.ed, req) })
}

// runCommand maps a toolbar command onto the editor.
func runCommand(ed *editor.Editor, c commandReq) (bool, error) {
	x := ed.Executor()
	if m, ok := format.ParseMark(c.Name); ok {
		return x.Toggle(m), nil
	}
	switch c.Name {
	case "block":
		return x.SetBlock(c.Value), nil
	case "list":
		kind := format.ListKind(c.Value)
		if kind != format.Bulleted && kind != format.Numbered {
			return false, fmt.Errorf("server: list kind %q", c.Value)
		}
		return x.ToggleList(kind), nil
	case "text_color":
		return x.SetTextColor(c.Value), nil
	case "background_color":
		return x.SetBackgroundColor(c.Value), nil
	case "font_family":
		return x.SetFontFamily(c.Value), nil
	case "font_size":
		px, err := strconv.Atoi(c.Value)
		if err != nil {
			return false, fmt.Errorf("server: font size %q", c.Value)
		}
		return x.SetFontSize(px), nil
	case "align":
		return x.SetAlign(format.ParseAlign(c.Value)), nil
	case "link":
		return x.InsertLink(c.Value), nil
	case "unlink":
		return x.RemoveLink(), nil
	case "code_block":
		return x.InsertCodeBlock(), nil
	case "horizontal_rule":
		return x.InsertHorizontalRule(), nil
	case "blockquote":
		return x.ToggleBlockquote(), nil
	case "undo":
		return ed.Undo(), nil
	case "redo":
		return ed.Redo(), nil
	}
	return false, fmt.Errorf("%w: %q", errUnknownCommand, c.Name)
}

type keyReq struct {
	editor.KeyEvent
	// Link answers the link prompt a Mod+K opens. Absent cancels it.
	Link *string `json:"link,omitempty"`
}

func (s *Server) key(w http.ResponseWriter, r *http.Request, ss *session) {
	var req keyReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.respond(w, ss, func() bool {
		ss.link = req.Link
		defer func() { ss.link = nil }()
		return ss.ed.HandleKey(req.KeyEvent)
	})
}

func (s *Server) click(w http.ResponseWriter, r *http.Request, ss *session) {
	var req pointReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.withBadRequest(w, ss, func() (bool, error) {
		n := dom.Resolve(ss.ed.Root(), req.Path)
		if n == nil {
			return false, fmt.Errorf("%w: %q", errBadPath, req.Path)
		}
		return ss.ed.Click(n), nil
	})
}

type pointerReq struct {
	Type string  `json:"type"` // move | up
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

func (s *Server) pointer(w http.ResponseWriter, r *http.Request, ss *session) {
	var req pointerReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.withBadRequest(w, ss, func() (bool, error) {
		switch req.Type {
		case "move":
			ss.ed.PointerMove(req.X, req.Y)
		case "up":
			ss.ed.PointerUp(req.X, req.Y)
		default:
			return false, fmt.Errorf("server: pointer type %q", req.Type)
		}
		return true, nil
	})
}

type dragReq struct {
	Path string  `json:"path"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

func (s *Server) dragStart(w http.ResponseWriter, r *http.Request, ss *session) {
	var req dragReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.withBadRequest(w, ss, func() (bool, error) {
		n := dom.Resolve(ss.ed.Root(), req.Path)
		if n == nil {
			return false, fmt.Errorf("%w: %q", errBadPath, req.Path)
		}
		s.measure(ss)
		return ss.ed.DragHandleDown(n, req.X, req.Y), nil
	})
}

// measure refreshes the geometry the drag and resize code reads. It runs on
// the session goroutine.
func (s *Server) measure(ss *session) {
	root := ss.ed.Root()
	if s.opts.Layout != nil {
		err := s.opts.Layout.Apply(ss.ctx, root, ss.mem)
		if err == nil {
			return
		}
		ss.log.Warn("server: layout failed, using stacked boxes", "error", err)
	}
	ss.mem.StackedLayout(root, stackedWidth, stackedLine)
}

const (
	stackedWidth = 720
	stackedLine  = 24
)

type resizeReq struct {
	// Width commits a resize in one call.
	Width float64 `json:"width,omitempty"`
	// Begin starts a pointer-driven resize at (X, Y); /pointer finishes it.
	Begin bool    `json:"begin,omitempty"`
	X     float64 `json:"x,omitempty"`
	Y     float64 `json:"y,omitempty"`
}

func (s *Server) resize(w http.ResponseWriter, r *http.Request, ss *session) {
	var req resizeReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.respond(w, ss, func() bool {
		s.measure(ss)
		if req.Begin {
			return ss.ed.BeginResize(req.X, req.Y)
		}
		if req.Width <= 0 || !ss.ed.BeginResize(0, 0) {
			return false
		}
		ss.ed.ResizeTo(req.Width)
		return ss.ed.EndResize()
	})
}

type replaceReq struct {
	URL     string `json:"url,omitempty"`
	AssetID string `json:"asset_id,omitempty"`
}

func (s *Server) replace(w http.ResponseWriter, r *http.Request, ss *session) {
	var req replaceReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.respond(w, ss, func() bool {
		if req.AssetID != "" {
			return ss.ed.ReplaceWithAsset(req.AssetID)
		}
		return ss.ed.ReplaceMedia(req.URL)
	})
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request, ss *session) {
	if s.opts.Uploads == nil {
		writeError(w, http.StatusNotImplemented, errors.New("server: uploads disabled"))
		return
	}
	limit := s.opts.Config.Server.MaxUpload
	r.Body = http.MaxBytesReader(w, r.Body, limit+(1<<20))
	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("server: form file: %w", err))
		return
	}
	defer f.Close()
	data, err := upload.LimitedReadAll(f, limit)
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err)
		return
	}
	file := editor.File{Name: hdr.Filename, ContentType: hdr.Header.Get("Content-Type"), Data: data}

	var out result
	if err := ss.do(func() {
		out.Applied = ss.ed.ReplaceWithUpload(ss.ctx, file)
		out.Session = ss.snapshot()
	}); err != nil {
		writeFailure(w, err)
		return
	}
	code := http.StatusAccepted
	if !out.Applied {
		code = http.StatusConflict
	}
	writeJSON(w, code, out)
}

type pickerReq struct {
	Open bool `json:"open"`
}

func (s *Server) picker(w http.ResponseWriter, r *http.Request, ss *session) {
	var req pickerReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.respond(w, ss, func() bool {
		if req.Open {
			return ss.ed.OpenPicker()
		}
		return ss.ed.ClosePicker()
	})
}

func (s *Server) batches(w http.ResponseWriter, r *http.Request, ss *session) {
	after := uint64(queryInt(r, "after", 0))
	var out any
	if err := ss.do(func() { out = map[string]any{"batches": ss.since(after), "seq": ss.ed.Seq()} }); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) export(w http.ResponseWriter, r *http.Request, ss *session) {
	var doc string
	if err := ss.do(func() { doc = ss.ed.Output() }); err != nil {
		writeFailure(w, err)
		return
	}
	s.writeExport(w, r, doc)
}
