// Package server is the playground host: an HTTP API over sessions of
// editors, plus MCP tools for sanitizing and exporting HTML. Each session
// owns one editor running on its own schedule.Loop goroutine; handlers hand
// work to that goroutine and wait for it.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/net/html"

	"github.com/hazyhaar/richedit/config"
	"github.com/hazyhaar/richedit/docstore"
	"github.com/hazyhaar/richedit/env"
	"github.com/hazyhaar/richedit/idgen"
	"github.com/hazyhaar/richedit/shield"
	"github.com/hazyhaar/richedit/sink"
	"github.com/hazyhaar/richedit/upload"
)

// Layouter fills block geometry for the tree before a drag or resize.
// rodlayout.Measurer is one.
type Layouter interface {
	Apply(ctx context.Context, root *html.Node, mem *env.Memory) error
}

// Options configures a Server. Config is required; the rest is optional.
type Options struct {
	Config  *config.Config
	Store   *docstore.Store
	Uploads *upload.Store
	Layout  Layouter
	Sinks   func() []sink.Sink // extra sinks per session
	Logger  *slog.Logger
	IDs     idgen.Generator
	Now     func() time.Time
}

// Server holds the live sessions.
type Server struct {
	opts Options
	log  *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// New builds a server. Config nil means config.Default().
func New(opts Options) *Server {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.IDs == nil {
		opts.IDs = idgen.Prefixed("ses_", idgen.Short(12))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Server{
		opts:     opts,
		log:      opts.Logger,
		sessions: make(map[string]*session),
	}
}

// Handler returns the HTTP routes behind the shield middleware stack.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	for _, mw := range shield.Stack(shield.DefaultHeaders(), s.opts.Config.Server.MaxBody) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.Len()})
	})
	r.Route("/api/sessions", s.sessionRoutes)
	if s.opts.Store != nil {
		r.Route("/api/documents", s.documentRoutes)
		r.Route("/api/assets", s.assetRoutes)
	}
	if s.opts.Uploads != nil {
		prefix := s.opts.Config.Server.PublicPrefix
		r.Handle(prefix+"/*", http.StripPrefix(prefix, http.FileServer(http.Dir(s.opts.Uploads.Dir()))))
	}
	return r
}

// Len is the number of live sessions.
func (s *Server) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) session(id string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ss, ok := s.sessions[id]
	if ok {
		ss.touch(s.opts.Now())
	}
	return ss, ok
}

func (s *Server) add(ss *session) {
	s.mu.Lock()
	s.sessions[ss.id] = ss
	s.mu.Unlock()
}

func (s *Server) remove(id string) bool {
	s.mu.Lock()
	ss, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		ss.close()
	}
	return ok
}

// Sweep closes sessions idle longer than the configured TTL. It returns how
// many were closed.
func (s *Server) Sweep(now time.Time) int {
	ttl := s.opts.Config.Server.SessionTTL
	var stale []string
	s.mu.Lock()
	for id, ss := range s.sessions {
		if now.Sub(ss.seen()) > ttl {
			stale = append(stale, id)
		}
	}
	s.mu.Unlock()
	for _, id := range stale {
		s.remove(id)
		s.log.Info("server: session expired", "session", id)
	}
	return len(stale)
}

// Run sweeps idle sessions every minute until ctx is done, then closes
// every session.
func (s *Server) Run(ctx context.Context) error {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			s.Close()
			return ctx.Err()
		case now := <-t.C:
			s.Sweep(now)
		}
	}
}

// Close ends every session.
func (s *Server) Close() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	for _, id := range ids {
		s.remove(id)
	}
}
