package dbopen_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/richedit/dbopen"
)

func pragma(t *testing.T, db *sql.DB, name string) string {
	t.Helper()
	var v string
	if err := db.QueryRow("PRAGMA " + name).Scan(&v); err != nil {
		t.Fatalf("PRAGMA %s: %v", name, err)
	}
	return v
}

func TestOpenMemory_Pragmas(t *testing.T) {
	db := dbopen.OpenMemory(t)
	// :memory: reports "memory" for journal_mode even after WAL was asked.
	if jm := pragma(t, db, "journal_mode"); jm != "wal" && jm != "memory" {
		t.Errorf("journal_mode: got %q", jm)
	}
	if fk := pragma(t, db, "foreign_keys"); fk != "1" {
		t.Errorf("foreign_keys: got %q, want 1", fk)
	}
	if s := pragma(t, db, "synchronous"); s != "1" {
		t.Errorf("synchronous: got %q, want 1 (NORMAL)", s)
	}
	if bt := pragma(t, db, "busy_timeout"); bt != "10000" {
		t.Errorf("busy_timeout: got %q, want 10000", bt)
	}
}

func TestWithBusyTimeout(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithBusyTimeout(2500))
	if bt := pragma(t, db, "busy_timeout"); bt != "2500" {
		t.Errorf("busy_timeout: got %q, want 2500", bt)
	}
}

func TestWithSchema(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(`CREATE TABLE IF NOT EXISTS notes (id TEXT PRIMARY KEY, body TEXT)`))
	if _, err := db.Exec(`INSERT INTO notes (id, body) VALUES ('1', '<p>x</p>')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
}

func TestWithMkdirAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "doc.db")
	db, err := dbopen.Open(path, dbopen.WithMkdirAll())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("directory not created: %v", err)
	}
}

func TestIsBusy(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("no such table"), false},
		{errors.New("SQLITE_BUSY"), true},
		{errors.New("exec: database is locked (5)"), true},
		{errors.New("database table is locked"), true},
	}
	for _, c := range cases {
		if got := dbopen.IsBusy(c.err); got != c.want {
			t.Errorf("IsBusy(%v): got %v, want %v", c.err, got, c.want)
		}
	}
}

func TestRunTx_CommitAndRollback(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(`CREATE TABLE kv (k TEXT PRIMARY KEY)`))
	ctx := context.Background()

	if err := dbopen.RunTx(ctx, db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO kv (k) VALUES ('a')`)
		return err
	}); err != nil {
		t.Fatalf("RunTx: %v", err)
	}

	boom := errors.New("boom")
	err := dbopen.RunTx(ctx, db, func(tx *sql.Tx) error {
		tx.Exec(`INSERT INTO kv (k) VALUES ('b')`)
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want boom", err)
	}

	var n int
	db.QueryRow(`SELECT COUNT(*) FROM kv`).Scan(&n)
	if n != 1 {
		t.Errorf("rows: got %d, want 1", n)
	}
}

func TestExec(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(`CREATE TABLE kv (k TEXT PRIMARY KEY)`))
	res, err := dbopen.Exec(context.Background(), db, `INSERT INTO kv (k) VALUES (?)`, "x")
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		t.Errorf("rows affected: got %d, want 1", n)
	}
}

func TestRunTx_CancelledContext(t *testing.T) {
	db := dbopen.OpenMemory(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := dbopen.RunTx(ctx, db, func(*sql.Tx) error { return nil }); err == nil {
		t.Error("expected an error on a cancelled context")
	}
}
