/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "visitingcard/internal/log"
	"visitingcard/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

// schemaVersion tracks the history schema. Bump it and add a migration step for
// breaking changes.
const schemaVersion = 2

// tsLayout is fixed-width so created_at sorts lexically.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

// Entry is one rendered card.
type Entry struct {
	ID          int64
	Name        string
	Designation string
	Variant     string
	Preset      string
	Template    string
	Photo       string
	Output      string
	Width       int
	Height      int
	Thumb       []byte // PNG
	CreatedAt   time.Time
}

// History is a handle to the history database. It is safe for concurrent use.
type History struct {
	db   *sql.DB
	path string
	log  *slog.Logger
}

// OpenHistory creates or opens the database at path, enables WAL mode and
// brings the schema up to date.
func OpenHistory(path string) (*History, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "history_open").With(
		slog.String("path", path),
	)
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("history path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		l.Error("create history dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// single writer; the server serializes inserts through this handle
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("history ready")
	return &History{db: db, path: path, log: applog.WithComponent("storage")}, nil
}

// Path returns the database file path.
func (h *History) Path() string { return h.path }

// Close releases the database.
func (h *History) Close() error {
	if h == nil || h.db == nil {
		return nil
	}
	return h.db.Close()
}

func ensureVersion(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`); err != nil {
		return fmt.Errorf("create version table: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// fresh database starts at schema 1 and migrates forward
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, 1, ?, ?, ?)`, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS renders (
			id          INTEGER PRIMARY KEY,
			name        TEXT    NOT NULL,
			designation TEXT    NOT NULL DEFAULT '',
			variant     TEXT    NOT NULL DEFAULT '',
			template    TEXT    NOT NULL DEFAULT '',
			photo       TEXT    NOT NULL DEFAULT '',
			output      TEXT    NOT NULL,
			width       INTEGER NOT NULL DEFAULT 0,
			height      INTEGER NOT NULL DEFAULT 0,
			thumb       BLOB,
			created_at  TEXT    NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_renders_created ON renders(created_at);`,
		// Contentless FTS5 index over name and designation fed by triggers.
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_renders USING fts5(
			name,
			designation,
			content='',
			tokenize = 'unicode61'
		);`,
		`CREATE TRIGGER IF NOT EXISTS renders_ai AFTER INSERT ON renders BEGIN
			INSERT INTO fts_renders(rowid, name, designation) VALUES (new.id, new.name, new.designation);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS renders_ad AFTER DELETE ON renders BEGIN
			INSERT INTO fts_renders(fts_renders, rowid, name, designation) VALUES ('delete', old.id, old.name, old.designation);
		END;`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure history schema: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental steps up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			// output preset column
			stmts = []string{`ALTER TABLE renders ADD COLUMN preset TEXT NOT NULL DEFAULT 'print'`}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

// SchemaVersion reports the schema version stored in the database.
func (h *History) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := h.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&v)
	return v, err
}

// Add stores e and returns its id. A zero CreatedAt is set to now.
func (h *History) Add(ctx context.Context, e Entry) (int64, error) {
	if strings.TrimSpace(e.Name) == "" || strings.TrimSpace(e.Output) == "" {
		return 0, errors.New("history entry needs name and output")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if e.Preset == "" {
		e.Preset = "print"
	}
	res, err := h.db.ExecContext(ctx, `INSERT INTO renders
		(name, designation, variant, preset, template, photo, output, width, height, thumb, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Name, e.Designation, e.Variant, e.Preset, e.Template, e.Photo, e.Output,
		e.Width, e.Height, e.Thumb, e.CreatedAt.UTC().Format(tsLayout))
	if err != nil {
		return 0, fmt.Errorf("insert render: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert render id: %w", err)
	}
	h.log.DebugContext(ctx, "render recorded", slog.Int64("id", id), slog.String("name", e.Name))
	return id, nil
}

const selectCols = `id, name, designation, variant, preset, template, photo, output, width, height, created_at`

type scanner interface{ Scan(dest ...any) error }

func scanEntry(s scanner, withThumb bool) (Entry, error) {
	var e Entry
	var ts string
	dest := []any{&e.ID, &e.Name, &e.Designation, &e.Variant, &e.Preset, &e.Template, &e.Photo,
		&e.Output, &e.Width, &e.Height, &ts}
	if withThumb {
		dest = append(dest, &e.Thumb)
	}
	if err := s.Scan(dest...); err != nil {
		return Entry{}, err
	}
	t, err := time.Parse(tsLayout, ts)
	if err != nil {
		return Entry{}, fmt.Errorf("parse created_at %q: %w", ts, err)
	}
	e.CreatedAt = t
	return e, nil
}

// List returns the newest entries first, without thumbnails. limit <= 0 means 20.
func (h *History) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.db.QueryContext(ctx, `SELECT `+selectCols+` FROM renders ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list renders: %w", err)
	}
	return collect(rows)
}

// Search matches the query against names and designations using FTS5 prefix
// terms, newest first.
func (h *History) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.db.QueryContext(ctx, `SELECT `+selectCols+` FROM renders
		WHERE id IN (SELECT rowid FROM fts_renders WHERE fts_renders MATCH ?)
		ORDER BY created_at DESC, id DESC LIMIT ?`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("search renders: %w", err)
	}
	return collect(rows)
}

// ftsQuery turns free text into AND-ed prefix terms, quoting each token so
// user input cannot inject FTS syntax.
func ftsQuery(q string) string {
	var terms []string
	for _, tok := range strings.Fields(q) {
		tok = strings.ReplaceAll(tok, `"`, "")
		if tok == "" {
			continue
		}
		terms = append(terms, `"`+tok+`"*`)
	}
	return strings.Join(terms, " ")
}

func collect(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows, false)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Get returns one entry including its thumbnail.
func (h *History) Get(ctx context.Context, id int64) (Entry, error) {
	row := h.db.QueryRowContext(ctx, `SELECT `+selectCols+`, thumb FROM renders WHERE id=?`, id)
	e, err := scanEntry(row, true)
	if err != nil {
		return Entry{}, fmt.Errorf("get render %d: %w", id, err)
	}
	return e, nil
}

// Prune deletes all but the newest keep entries and returns how many were removed.
func (h *History) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := h.db.ExecContext(ctx, `DELETE FROM renders WHERE id NOT IN (
		SELECT id FROM renders ORDER BY created_at DESC, id DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune renders: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		h.log.InfoContext(ctx, "history pruned", slog.Int64("removed", n), slog.Int("kept", keep))
	}
	return n, nil
}
