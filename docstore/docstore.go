// Package docstore persists documents, their revisions and the media library
// in SQLite. It is host-side storage; the editor itself never touches it.
package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/richedit/dbopen"
	"github.com/hazyhaar/richedit/editor"
	"github.com/hazyhaar/richedit/idgen"
)

// Schema creates the store's tables.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
    id          TEXT PRIMARY KEY,
    title       TEXT NOT NULL DEFAULT '',
    html        TEXT NOT NULL DEFAULT '',
    seq         INTEGER NOT NULL DEFAULT 0,
    created_at  INTEGER NOT NULL,
    updated_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS revisions (
    doc_id      TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    seq         INTEGER NOT NULL,
    origin      TEXT NOT NULL,
    html        TEXT NOT NULL,
    created_at  INTEGER NOT NULL,
    PRIMARY KEY (doc_id, seq)
);

CREATE TABLE IF NOT EXISTS assets (
    id          TEXT PRIMARY KEY,
    url         TEXT NOT NULL,
    name        TEXT NOT NULL DEFAULT '',
    kind        TEXT NOT NULL DEFAULT 'image',
    created_at  INTEGER NOT NULL
);
`

// ErrNotFound is returned when a document or asset does not exist.
var ErrNotFound = errors.New("docstore: not found")

// Document is a stored document. Seq counts its revisions.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	HTML      string    `json:"html,omitempty"`
	Seq       uint64    `json:"seq"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Revision is one saved change batch of a document.
type Revision struct {
	Seq       uint64    `json:"seq"`
	Origin    string    `json:"origin"`
	HTML      string    `json:"html"`
	CreatedAt time.Time `json:"created_at"`
}

// Store wraps the database.
type Store struct {
	db  *sql.DB
	ids idgen.Generator
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithIDs sets the generator for document and asset ids.
func WithIDs(g idgen.Generator) Option { return func(s *Store) { s.ids = g } }

// WithClock sets the time source.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// Open opens (or creates) the database at path.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(Schema))
	if err != nil {
		return nil, fmt.Errorf("docstore: %w", err)
	}
	return New(db, opts...), nil
}

// New wraps a database that already carries Schema.
func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, ids: idgen.Prefixed("doc_", idgen.Short(12)), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// DB returns the underlying database.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

func millis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

// Create inserts a new document.
func (s *Store) Create(ctx context.Context, title, html string) (Document, error) {
	now := s.now()
	d := Document{ID: s.ids(), Title: title, HTML: html, CreatedAt: now.UTC(), UpdatedAt: now.UTC()}
	_, err := dbopen.Exec(ctx, s.db,
		`INSERT INTO documents (id, title, html, seq, created_at, updated_at) VALUES (?, ?, ?, 0, ?, ?)`,
		d.ID, d.Title, d.HTML, millis(now), millis(now))
	if err != nil {
		return Document{}, fmt.Errorf("docstore: create: %w", err)
	}
	return d, nil
}

// Get returns a document with its content.
func (s *Store) Get(ctx context.Context, id string) (Document, error) {
	var d Document
	var created, updated int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, html, seq, created_at, updated_at FROM documents WHERE id = ?`, id,
	).Scan(&d.ID, &d.Title, &d.HTML, &d.Seq, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("docstore: get: %w", err)
	}
	d.CreatedAt, d.UpdatedAt = fromMillis(created), fromMillis(updated)
	return d, nil
}

// List returns every document, most recently updated first, without content.
func (s *Store) List(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, seq, created_at, updated_at FROM documents ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("docstore: list: %w", err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var d Document
		var created, updated int64
		if err := rows.Scan(&d.ID, &d.Title, &d.Seq, &created, &updated); err != nil {
			return nil, fmt.Errorf("docstore: list: %w", err)
		}
		d.CreatedAt, d.UpdatedAt = fromMillis(created), fromMillis(updated)
		out = append(out, d)
	}
	return out, rows.Err()
}

// Save stores html as the content of document id and appends it as the
// next revision. It returns the revision number.
func (s *Store) Save(ctx context.Context, id, origin, html string) (uint64, error) {
	now := millis(s.now())
	var seq uint64
	err := dbopen.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `SELECT seq FROM documents WHERE id = ?`, id).Scan(&seq)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("docstore: save: %w", err)
		}
		seq++
		if _, err := tx.ExecContext(ctx,
			`UPDATE documents SET html = ?, seq = ?, updated_at = ? WHERE id = ?`,
			html, seq, now, id); err != nil {
			return fmt.Errorf("docstore: save: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO revisions (doc_id, seq, origin, html, created_at) VALUES (?, ?, ?, ?, ?)`,
			id, seq, origin, html, now); err != nil {
			return fmt.Errorf("docstore: revision: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return seq, nil
}

// Rename changes a document's title.
func (s *Store) Rename(ctx context.Context, id, title string) error {
	res, err := dbopen.Exec(ctx, s.db,
		`UPDATE documents SET title = ?, updated_at = ? WHERE id = ?`, title, millis(s.now()), id)
	if err != nil {
		return fmt.Errorf("docstore: rename: %w", err)
	}
	return affected(res)
}

// Delete removes a document and its revisions.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := dbopen.Exec(ctx, s.db, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("docstore: delete: %w", err)
	}
	return affected(res)
}

// Revisions returns the latest revisions of a document, newest first.
func (s *Store) Revisions(ctx context.Context, id string, limit int) ([]Revision, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, origin, html, created_at FROM revisions WHERE doc_id = ? ORDER BY seq DESC LIMIT ?`,
		id, limit)
	if err != nil {
		return nil, fmt.Errorf("docstore: revisions: %w", err)
	}
	defer rows.Close()

	var out []Revision
	for rows.Next() {
		var r Revision
		var created int64
		if err := rows.Scan(&r.Seq, &r.Origin, &r.HTML, &created); err != nil {
			return nil, fmt.Errorf("docstore: revisions: %w", err)
		}
		r.CreatedAt = fromMillis(created)
		out = append(out, r)
	}
	return out, rows.Err()
}

// AddAsset adds an entry to the media library. An empty ID is generated.
func (s *Store) AddAsset(ctx context.Context, a editor.Asset) (editor.Asset, error) {
	if a.ID == "" {
		a.ID = "asset_" + s.ids()
	}
	if a.Kind == "" {
		a.Kind = "image"
	}
	_, err := dbopen.Exec(ctx, s.db,
		`INSERT INTO assets (id, url, name, kind, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET url = excluded.url, name = excluded.name, kind = excluded.kind`,
		a.ID, a.URL, a.Name, a.Kind, millis(s.now()))
	if err != nil {
		return editor.Asset{}, fmt.Errorf("docstore: add asset: %w", err)
	}
	return a, nil
}

// Assets returns the media library in insertion order.
func (s *Store) Assets(ctx context.Context) ([]editor.Asset, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, url, name, kind FROM assets ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("docstore: assets: %w", err)
	}
	defer rows.Close()

	var out []editor.Asset
	for rows.Next() {
		var a editor.Asset
		if err := rows.Scan(&a.ID, &a.URL, &a.Name, &a.Kind); err != nil {
			return nil, fmt.Errorf("docstore: assets: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteAsset removes an asset from the library.
func (s *Store) DeleteAsset(ctx context.Context, id string) error {
	res, err := dbopen.Exec(ctx, s.db, `DELETE FROM assets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("docstore: delete asset: %w", err)
	}
	return affected(res)
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("docstore: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
