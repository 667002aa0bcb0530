// Package upload is a disk-backed store for media handed to the editor's
// upload function. File names are generated, never taken from the client,
// and every path is checked against the store directory.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/webp"

	"github.com/hazyhaar/richedit/editor"
	"github.com/hazyhaar/richedit/idgen"
	"github.com/hazyhaar/richedit/kit"
)

// DefaultMaxBytes caps a single upload (10 MiB).
const DefaultMaxBytes int64 = 10 << 20

var (
	ErrPathTraversal = errors.New("upload: path traversal detected")
	ErrTooLarge      = errors.New("upload: file too large")
	ErrUnsupported   = errors.New("upload: unsupported media type")
)

// extensions maps the sniffed content types the store accepts to the file
// extension it writes. SVG is absent on purpose: it can carry script.
var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"video/mp4":  ".mp4",
	"video/webm": ".webm",
}

// Stored describes a saved file.
type Stored struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
}

// Store writes uploads under one directory and serves them from a URL prefix.
type Store struct {
	dir      string
	prefix   string
	maxBytes int64
	ids      idgen.Generator
	logger   *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithMaxBytes sets the per-file limit.
func WithMaxBytes(n int64) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// WithIDs sets the file name generator.
func WithIDs(g idgen.Generator) Option {
	return func(s *Store) { s.ids = g }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates dir if needed. prefix is the public URL path files are served
// under, e.g. "/media".
func New(dir, prefix string, opts ...Option) (*Store, error) {
	s := &Store{
		dir:      filepath.Clean(dir),
		prefix:   strings.TrimRight(prefix, "/"),
		maxBytes: DefaultMaxBytes,
		ids:      idgen.Short(16),
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("upload: mkdir %s: %w", s.dir, err)
	}
	return s, nil
}

// Dir is the directory files are written to.
func (s *Store) Dir() string { return s.dir }

// Save reads r, checks its size and sniffed type, and writes it under a
// generated name. name is the client's file name and is only logged.
func (s *Store) Save(ctx context.Context, name string, r io.Reader) (Stored, error) {
	if err := ctx.Err(); err != nil {
		return Stored{}, err
	}
	data, err := LimitedReadAll(r, s.maxBytes)
	if err != nil {
		return Stored{}, err
	}
	ct := http.DetectContentType(data)
	ext, ok := extensions[ct]
	if !ok {
		return Stored{}, fmt.Errorf("%w: %s", ErrUnsupported, ct)
	}

	out := Stored{
		Name:        s.ids() + ext,
		ContentType: ct,
		Size:        int64(len(data)),
	}
	if strings.HasPrefix(ct, "image/") {
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
			out.Width, out.Height = cfg.Width, cfg.Height
		}
	}
	path, err := SafePath(s.dir, out.Name)
	if err != nil {
		return Stored{}, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return Stored{}, fmt.Errorf("upload: write: %w", err)
	}
	out.URL = s.prefix + "/" + out.Name
	s.logger.InfoContext(ctx, "upload: stored", "session", kit.GetSessionID(ctx),
		"client_name", name, "name", out.Name, "type", ct, "bytes", out.Size)
	return out, nil
}

// Func adapts the store to the editor's upload hook.
func (s *Store) Func() editor.UploadFunc {
	return func(ctx context.Context, f editor.File) (string, error) {
		st, err := s.Save(ctx, f.Name, bytes.NewReader(f.Data))
		if err != nil {
			return "", err
		}
		return st.URL, nil
	}
}

// Remove deletes a stored file by name.
func (s *Store) Remove(name string) error {
	path, err := SafePath(s.dir, name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("upload: remove: %w", err)
	}
	return nil
}

// SafePath joins base and name, refusing any name that would land outside
// base.
func SafePath(base, name string) (string, error) {
	if name == "" || strings.Contains(name, "..") {
		return "", ErrPathTraversal
	}
	base = filepath.Clean(base)
	joined := filepath.Join(base, filepath.Clean("/"+name))
	if joined == base || !strings.HasPrefix(joined, base+string(filepath.Separator)) {
		return "", ErrPathTraversal
	}
	return joined, nil
}

// LimitedReadAll reads r, failing with ErrTooLarge past maxBytes.
func LimitedReadAll(r io.Reader, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("upload: read: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: over %d bytes", ErrTooLarge, maxBytes)
	}
	return data, nil
}
