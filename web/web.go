package web

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"os"
	"path"
	"strings"
)

type ErrHandler func(http.ResponseWriter, *http.Request) (int, error)

// FilterFS hides the files for which Filter returns true. Directories are only
// served when they contain a visible index.html.
type FilterFS struct {
	http.FileSystem
	Filter func(name string) bool
}

func (f ErrHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if code, err := f(w, r); err != nil {
		http.Error(w, err.Error(), code)
	}
}

// Static serves the non-template files of root, e.g. stylesheets and images
// living next to the templates.
func Static(root http.FileSystem) http.Handler {
	return http.FileServer(&FilterFS{root, func(name string) bool {
		return strings.HasSuffix(name, ".html")
	}})
}

func (fs *FilterFS) Open(name string) (http.File, error) {
	if fs.Filter != nil && fs.Filter(name) {
		return nil, os.ErrNotExist
	} else if f, err := fs.FileSystem.Open(name); err != nil {
		return nil, err
	} else if s, err := f.Stat(); err != nil {
		return nil, err
	} else if !s.IsDir() {
		return f, nil
	} else if index := path.Join(name, "index.html"); fs.Filter != nil && fs.Filter(index) {
		f.Close()
		return nil, os.ErrNotExist
	} else if f2, err := fs.FileSystem.Open(index); err != nil {
		f.Close()
		return nil, err
	} else if err := f2.Close(); err != nil {
		return nil, err
	} else {
		return f, nil
	}
}

func WithBasicAuth(h http.Handler, realm, user, pass string) http.Handler {
	eq := func(s1, s2 string) bool { return subtle.ConstantTimeCompare([]byte(s1), []byte(s2)) == 1 }
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rUser, rPass, ok := r.BasicAuth(); !ok || !eq(user, rUser) || !eq(pass, rPass) {
			w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Basic realm="%s"`, realm))
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		h.ServeHTTP(w, r)
	})
}
