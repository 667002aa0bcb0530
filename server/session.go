package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/richedit/change"
	"github.com/hazyhaar/richedit/dom"
	"github.com/hazyhaar/richedit/editor"
	"github.com/hazyhaar/richedit/env"
	"github.com/hazyhaar/richedit/format"
	"github.com/hazyhaar/richedit/kit"
	"github.com/hazyhaar/richedit/schedule"
	"github.com/hazyhaar/richedit/sink"
)

// maxBatches is how many delivered batches a session keeps for polling.
const maxBatches = 50

var errSessionClosed = errors.New("server: session closed")

// session is one editor and the goroutine it runs on. Fields below the
// loop marker are only touched from that goroutine.
type session struct {
	id     string
	docID  string
	loop   *schedule.Loop
	mem    *env.Memory
	log    *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	lastSeen time.Time

	// loop
	ed      *editor.Editor
	batches []change.Batch
	link    *string
}

type sessionSpec struct {
	HTML        string
	DocID       string
	Placeholder string
	Apple       bool
}

func (s *Server) newSession(spec sessionSpec) (*session, error) {
	id := s.opts.IDs()
	ctx, cancel := context.WithCancel(kit.WithSessionID(context.Background(), id))
	ss := &session{
		id:       id,
		docID:    spec.DocID,
		loop:     schedule.NewLoop(),
		mem:      env.NewMemory(),
		log:      s.log.With("session", id),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		lastSeen: s.opts.Now(),
	}
	ss.mem.SetApple(spec.Apple)
	go func() {
		defer close(ss.done)
		_ = ss.loop.Run(ctx)
	}()

	sinks := []sink.Sink{sink.NewCallback(ss.record)}
	if s.opts.Store != nil && spec.DocID != "" {
		sinks = append(sinks, sink.NewQueue(s.opts.Store.Sink(ss.log), 64, ss.log))
	}
	if s.opts.Sinks != nil {
		sinks = append(sinks, s.opts.Sinks()...)
	}

	o := editor.Options{
		Placeholder: spec.Placeholder,
		HTML:        spec.HTML,
		Sinks:       sinks,
		Env:         ss.mem,
		Scheduler:   ss.loop,
		Logger:      ss.log,
		DocID:       spec.DocID,
		PromptLink:  ss.prompt,
	}
	s.opts.Config.Apply(&o)
	if s.opts.Store != nil {
		assets, err := s.opts.Store.Assets(ctx)
		if err != nil {
			ss.log.Warn("server: load assets", "error", err)
		}
		o.Assets = append(o.Assets, assets...)
	}
	if s.opts.Uploads != nil {
		o.Upload = s.opts.Uploads.Func()
	}

	var err error
	if !ss.loop.Do(func() { ss.ed, err = editor.New(o) }) {
		err = errSessionClosed
	}
	if err != nil {
		ss.stop()
		return nil, err
	}
	ss.log.Info("server: session started", "doc", spec.DocID)
	return ss, nil
}

// do runs fn on the session goroutine and waits for it.
func (ss *session) do(fn func()) error {
	if !ss.loop.Do(fn) {
		return errSessionClosed
	}
	return nil
}

func (ss *session) touch(now time.Time) {
	ss.mu.Lock()
	ss.lastSeen = now
	ss.mu.Unlock()
}

func (ss *session) seen() time.Time {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.lastSeen
}

func (ss *session) close() {
	_ = ss.do(func() {
		if err := ss.ed.Close(); err != nil {
			ss.log.Warn("server: close editor", "error", err)
		}
	})
	ss.stop()
	ss.log.Info("server: session closed")
}

func (ss *session) stop() {
	ss.loop.Close()
	ss.cancel()
	<-ss.done
}

func (ss *session) record(_ context.Context, b change.Batch) error {
	ss.batches = append(ss.batches, b)
	if n := len(ss.batches); n > maxBatches {
		ss.batches = append([]change.Batch(nil), ss.batches[n-maxBatches:]...)
	}
	return nil
}

// since returns the kept batches with Seq > seq.
func (ss *session) since(seq uint64) []change.Batch {
	out := []change.Batch{}
	for _, b := range ss.batches {
		if b.Seq > seq {
			out = append(out, b)
		}
	}
	return out
}

// prompt answers the link shortcut with the value sent along with the key.
func (ss *session) prompt(string) (string, bool) {
	if ss.link == nil {
		return "", false
	}
	v := *ss.link
	ss.link = nil
	return v, true
}

// snapshot is what the playground renders after every call.
type snapshot struct {
	ID                 string             `json:"id"`
	DocID              string             `json:"doc_id,omitempty"`
	HTML               string             `json:"html"`
	Output             string             `json:"output"`
	State              format.FormatState `json:"state"`
	Banner             string             `json:"banner,omitempty"`
	Placeholder        string             `json:"placeholder,omitempty"`
	PlaceholderVisible bool               `json:"placeholder_visible"`
	Selected           string             `json:"selected,omitempty"`
	Dragging           bool               `json:"dragging"`
	Picker             editor.PickerState `json:"picker"`
	Seq                uint64             `json:"seq"`
	CanUndo            bool               `json:"can_undo"`
	CanRedo            bool               `json:"can_redo"`
	Focused            bool               `json:"focused"`
}

func (ss *session) snapshot() snapshot {
	ed := ss.ed
	banner, _ := ed.Banner()
	out := snapshot{
		ID:                 ss.id,
		DocID:              ss.docID,
		HTML:               ed.HTML(),
		Output:             ed.Output(),
		State:              ed.FormatState(),
		Banner:             banner,
		Placeholder:        ed.Placeholder(),
		PlaceholderVisible: ed.PlaceholderVisible(),
		Dragging:           ed.Drag().Dragged() != nil,
		Picker:             ed.Picker(),
		Seq:                ed.Seq(),
		CanUndo:            ed.History().CanUndo(),
		CanRedo:            ed.History().CanRedo(),
		Focused:            ss.mem.HasFocus(),
	}
	if n := ed.SelectedMedia(); n != nil {
		out.Selected = dom.Path(ed.Root(), n)
	}
	return out
}
