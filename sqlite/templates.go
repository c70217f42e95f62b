package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"

	"github.com/nw0220/Jumony/dom"
	"github.com/nw0220/Jumony/web"
)

// Templates stores html templates by request path and serves them as a
// web.Store.
type Templates struct{ db *DB }

var TemplateMigrations = []string{
	`CREATE TABLE templates (path TEXT PRIMARY KEY, html TEXT NOT NULL)`,
}

// OpenTemplates opens (and if needed creates) the template database at name.
func OpenTemplates(name string) (*Templates, error) {
	db, err := New(name, TemplateMigrations)
	if err != nil {
		return nil, err
	}
	return &Templates{db}, nil
}

func (t *Templates) Close() error { return t.db.Close() }

func (t *Templates) Put(p, html string) error {
	_, count, err := CheckExec(t.db, "INSERT OR REPLACE INTO templates (path, html) VALUES (?, ?)", key(p), html)
	if err == nil && count != 1 {
		err = fmt.Errorf("%s: %d rows affected", key(p), count)
	}
	return err
}

func (t *Templates) Get(ctx context.Context, p string) (string, error) {
	html := ""
	err := t.db.QueryRowContext(ctx, "SELECT html FROM templates WHERE path = ?", key(p)).Scan(&html)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%s: %w", key(p), web.ErrNotFound)
	}
	return html, err
}

func (t *Templates) Template(ctx context.Context, p string) (*dom.Document, error) {
	html, err := t.Get(ctx, p)
	if err != nil {
		return nil, err
	}
	return dom.ParseString(html)
}

// Paths returns the paths of the templates containing at least one element
// matching selector.
func (t *Templates) Paths(selector string) ([]string, error) {
	rows, err := Query[Map[string]](t.db, "SELECT path FROM templates WHERE css_count(html, ?) > 0 ORDER BY path", selector)
	if err != nil {
		return nil, err
	}
	ps := make([]string, len(rows))
	for i, row := range rows {
		ps[i] = row["path"]
	}
	return ps, nil
}

func key(p string) string { return path.Clean("/" + p) }
