package web

import (
	"context"
	"errors"
	"io/fs"
	"path"
	"strings"

	"github.com/nw0220/Jumony/dom"
)

var ErrNotFound = errors.New("template not found")

// Store resolves a request path to a freshly parsed template document. Each
// call returns a new document; handlers are free to modify it.
type Store interface {
	Template(ctx context.Context, path string) (*dom.Document, error)
}

// FSStore loads templates from an fs.FS. A request for /a/b is served by the
// first existing file of a/b, a/b.html and a/b/index.html.
type FSStore struct{ FS fs.FS }

func (s FSStore) Template(ctx context.Context, p string) (*dom.Document, error) {
	for _, name := range candidates(p) {
		f, err := s.FS.Open(name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		} else if err != nil {
			return nil, err
		}
		defer f.Close()
		if st, err := f.Stat(); err != nil {
			return nil, err
		} else if st.IsDir() {
			continue
		}
		return dom.Parse(f)
	}
	return nil, ErrNotFound
}

func candidates(p string) []string {
	name := strings.TrimPrefix(path.Clean("/"+p), "/")
	if name == "" {
		return []string{"index.html"}
	}
	return []string{name, name + ".html", path.Join(name, "index.html")}
}
