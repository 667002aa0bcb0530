package editor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hazyhaar/richedit/env"
	"github.com/hazyhaar/richedit/idgen"
	"github.com/hazyhaar/richedit/schedule"
	"github.com/hazyhaar/richedit/sink"
)

// Defaults.
const (
	DefaultDebounce       = 300 * time.Millisecond
	DefaultBannerDuration = 3 * time.Second
	MinMediaSize          = 50.0
)

// ErrNoScheduler is returned by New when Options.Scheduler is nil.
var ErrNoScheduler = errors.New("editor: scheduler is required")

// Asset is one entry of the host's media library.
type Asset struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Name string `json:"name,omitempty"`
	Kind string `json:"kind,omitempty"` // image or video
}

// File is a file handed to the upload function.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// UploadFunc stores f and returns the URL it is served from. It runs on its
// own goroutine.
type UploadFunc func(ctx context.Context, f File) (url string, err error)

// Options configures an Editor. Only Scheduler is required.
type Options struct {
	HTML        string
	Placeholder string

	Debounce       time.Duration // change emission window
	HistoryDelay   time.Duration // history push window
	MaxHistory     int
	BannerDuration time.Duration

	Assets []Asset
	Upload UploadFunc

	OnChange func(html string)
	Sinks    []sink.Sink

	Env       env.Env
	Scheduler schedule.Scheduler
	Logger    *slog.Logger

	DocID string
	IDs   idgen.Generator
	Now   func() time.Time

	// PromptLink asks the user for a link target; current is the link at the
	// caret. ok false cancels, an empty url removes the link.
	PromptLink func(current string) (url string, ok bool)
}

func (o *Options) defaults() {
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.BannerDuration <= 0 {
		o.BannerDuration = DefaultBannerDuration
	}
	if o.Env == nil {
		o.Env = env.NewMemory()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.IDs == nil {
		o.IDs = idgen.Prefixed("chg_", idgen.Default)
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}
