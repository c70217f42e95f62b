package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/nw0220/Jumony/web"
)

var docsSQL = []string{
	`CREATE TABLE docs (id INTEGER, title TEXT, html TEXT)`,
	`INSERT INTO docs VALUES (1, 'doc one', '<ul><li>a</li><li class="x">b</li></ul>')`,
	`INSERT INTO docs VALUES (2, 'doc two', '<p>nothing</p>')`,
}

func simpleDB(t *testing.T, migrations []string) *DB {
	db, err := New(filepath.Join(t.TempDir(), "test.db"), migrations)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrate(t *testing.T) {
	name := filepath.Join(t.TempDir(), "test.db")
	db, err := New(name, docsSQL[:1])
	if err != nil {
		t.Fatal(err)
	}
	db.Close()
	if db, err = New(name, docsSQL); err != nil {
		t.Fatal(err)
	}
	ms, err := Query[Map[string]](db, "SELECT sql FROM _migrations")
	db.Close()
	if err != nil || len(ms) != 3 {
		t.Fatalf("Got %v %v, expected 3 migrations", ms, err)
	}
	if _, err := New(name, []string{docsSQL[0], docsSQL[1], "CREATE TABLE other (id)"}); err == nil || !strings.Contains(err.Error(), "changed after it was applied") {
		t.Errorf("expected changed migration error, got %v", err)
	}
	if _, err := New(name, docsSQL[:1]); err == nil {
		t.Errorf("expected unknown migrations error")
	}
}

func TestCSSCount(t *testing.T) {
	db := simpleDB(t, docsSQL)
	rows, err := Query[Map[any]](db, "SELECT id, css_count(html, 'li') AS lis, css_count(html, 'li.x, p') AS xs FROM docs ORDER BY id")
	if err != nil {
		t.Fatal(err)
	}
	expected := []Map[any]{
		{"id": int64(1), "lis": int64(2), "xs": int64(1)},
		{"id": int64(2), "lis": int64(0), "xs": int64(1)},
	}
	if !reflect.DeepEqual(rows, expected) {
		t.Errorf("Got %v, expected %v", rows, expected)
	}
	if _, err := Query[Map[any]](db, "SELECT css_count(html, 'li[') FROM docs"); err == nil {
		t.Errorf("expected invalid selector to fail the query")
	}
}

func TestRegexpExtract(t *testing.T) {
	db := simpleDB(t, docsSQL)
	row, err := QueryOne[Map[string]](db, "SELECT re_extract(title, 'doc (\\w+)', 1) AS n FROM docs WHERE id = 2")
	if err != nil {
		t.Fatal(err)
	}
	if row["n"] != "two" {
		t.Errorf("Got %q, expected two", row["n"])
	}
}

func TestTemplates(t *testing.T) {
	ctx := context.Background()
	ts, err := OpenTemplates(filepath.Join(t.TempDir(), "templates.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer ts.Close()
	var _ web.Store = ts
	for _, kv := range [][2]string{
		{"/", `<nav><a href="/about">about</a></nav>`},
		{"about", `<p>about</p>`},
		{"/b/c/", `<p><a>c</a></p>`},
		{"/about", `<p class="x">about</p>`},
	} {
		if err := ts.Put(kv[0], kv[1]); err != nil {
			t.Fatal(err)
		}
	}
	if html, err := ts.Get(ctx, "/about"); err != nil || html != `<p class="x">about</p>` {
		t.Errorf("Got %q %v, expected replaced template", html, err)
	}
	d, err := ts.Template(ctx, "/b/c")
	if err != nil {
		t.Fatal(err)
	}
	if n, ok := d.Element(); !ok || n.Text() != "c" {
		t.Errorf("bad template document")
	}
	if _, err := ts.Template(ctx, "/missing"); !errors.Is(err, web.ErrNotFound) {
		t.Errorf("Got %v, expected ErrNotFound", err)
	}
	ps, err := ts.Paths("a")
	if err != nil {
		t.Fatal(err)
	}
	if expected := []string{"/", "/b/c"}; !reflect.DeepEqual(ps, expected) {
		t.Errorf("Got %v, expected %v", ps, expected)
	}
}
