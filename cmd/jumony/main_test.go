package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nw0220/Jumony/css"
)

func writeFiles(t *testing.T, files map[string]string) string {
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestQuery(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.html": `<div class="item" data-id="42"><span> one </span><span>two</span></div>`,
		"b.html": `<div class="item" data-id="7"><span>three</span></div>`,
	})
	a, b := filepath.Join(dir, "a.html"), filepath.Join(dir, "b.html")
	for _, tc := range []struct {
		args     []string
		expected string
	}{
		{[]string{"-s", "div.item[data-id='42'] > span", "-text", a}, "one\ntwo\n"},
		{[]string{"-s", "span", "-count", a, b}, fmt.Sprintf("%s\t2\n%s\t1\n", a, b)},
		{[]string{"-s", "span:last-child", b}, "<span>three</span>\n"},
	} {
		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
		if err := run(context.Background(), tc.args, stdout, stderr); err != nil {
			t.Errorf("%v: %s", tc.args, err)
		} else if actual := stdout.String(); actual != tc.expected {
			t.Errorf("%v: got %q, expected %q", tc.args, actual, tc.expected)
		}
	}
}

func TestQueryURL(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<p>%s</p>`, r.Header.Get("User-Agent"))
	}))
	defer s.Close()
	t.Setenv("JUMONY_USER_AGENT", "test-agent")
	stdout := &bytes.Buffer{}
	if err := run(context.Background(), []string{"-s", "p", "-text", s.URL}, stdout, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	} else if actual := stdout.String(); actual != "test-agent\n" {
		t.Errorf("Got %q, expected test-agent", actual)
	}
}

func TestQueryErrors(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.html": `<p></p>`})
	err := run(context.Background(), []string{"-s", "p[", filepath.Join(dir, "a.html")}, &bytes.Buffer{}, &bytes.Buffer{})
	if pe := (*css.ParseError)(nil); !errors.As(err, &pe) {
		t.Errorf("Got %v, expected parse error", err)
	}
	err = run(context.Background(), []string{"-s", "p", filepath.Join(dir, "missing.html")}, &bytes.Buffer{}, &bytes.Buffer{})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Got %v, expected not exist error", err)
	}
	if err := run(context.Background(), []string{"-s", "p"}, &bytes.Buffer{}, &bytes.Buffer{}); err == nil {
		t.Errorf("expected error for missing inputs")
	}
}

func TestHandler(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"index.html": `<html><head></head><body>hi</body></html>`,
		"style.css":  `body {}`,
	})
	h, close, err := handler(context.Background(), options{dir: dir, generator: "jumony"})
	if err != nil {
		t.Fatal(err)
	}
	defer close()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(w.Body.String(), `<meta name="generator" content="jumony"/>`) {
		t.Errorf("missing generator meta: %s", w.Body)
	}
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/style.css", nil))
	if w.Body.String() != "body {}" {
		t.Errorf("Got %q, expected style.css", w.Body)
	}
}

func TestHandlerDB(t *testing.T) {
	h, close, err := handler(context.Background(), options{db: filepath.Join(t.TempDir(), "t.db"), generator: "jumony"})
	if err != nil {
		t.Fatal(err)
	}
	defer close()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Got %d, expected 404", w.Code)
	}
}

func TestHandlerImportAuth(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"index.html":      `<p>home</p>`,
		"about.html":      `<p>about</p>`,
		"docs/index.html": `<p>docs</p>`,
		"style.css":       `p {}`,
	})
	o := options{dir: dir, db: filepath.Join(t.TempDir(), "t.db"), imports: true, auth: "user:pass", generator: "jumony"}
	h, close, err := handler(context.Background(), o)
	if err != nil {
		t.Fatal(err)
	}
	defer close()
	get := func(path string, auth bool) *httptest.ResponseRecorder {
		w, r := httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil)
		if auth {
			r.SetBasicAuth("user", "pass")
		}
		h.ServeHTTP(w, r)
		return w
	}
	if w := get("/about", false); w.Code != http.StatusUnauthorized {
		t.Errorf("Got %d, expected 401", w.Code)
	}
	for path, expected := range map[string]string{"/": "<p>home</p>", "/about": "<p>about</p>", "/docs": "<p>docs</p>"} {
		if w := get(path, true); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), expected) {
			t.Errorf("%s: got %d %s, expected %s", path, w.Code, w.Body, expected)
		}
	}
	if w := get("/style.css", true); w.Code != http.StatusNotFound {
		t.Errorf("Got %d, expected static files not to be imported", w.Code)
	}
	o.auth, o.imports = "nopass", false
	if _, _, err := handler(context.Background(), o); err == nil {
		t.Errorf("expected error for bad -auth")
	}
}
