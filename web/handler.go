package web

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/nw0220/Jumony/dom"
	"github.com/nw0220/Jumony/soup"
	"github.com/nw0220/Jumony/util"
)

type Stage int

const (
	PreLoad Stage = iota
	PostLoad
	PreProcess
	PostProcess
	PreRender
	PostRender
	stages
)

type Hook func(*Page) error

// Hooks are run per stage in the order they were registered.
type Hooks struct{ hs [stages][]Hook }

// Page is the state of a single request as it moves through the stages.
// Document is nil before PostLoad and Body is nil before PostRender.
type Page struct {
	Request  *http.Request
	Path     string
	Document *dom.Document
	Body     []byte
}

type Handler struct {
	Store     Store
	Process   func(*Page) error
	Hooks     Hooks
	Generator string
	Suffix    string
}

func (s Stage) String() string {
	switch s {
	case PreLoad:
		return "PreLoad"
	case PostLoad:
		return "PostLoad"
	case PreProcess:
		return "PreProcess"
	case PostProcess:
		return "PostProcess"
	case PreRender:
		return "PreRender"
	case PostRender:
		return "PostRender"
	default:
		panic(fmt.Errorf("bad stage: %d", s))
	}
}

func (h *Hooks) On(s Stage, f Hook) {
	h.hs[s] = append(h.hs[s], f)
}

func (h *Hooks) run(s Stage, p *Page) error {
	for _, f := range h.hs[s] {
		if err := f(p); err != nil {
			return fmt.Errorf("%s hook: %w", s, err)
		}
	}
	return nil
}

func (p *Page) Find(selectors ...string) (soup.Nodes, error) {
	return soup.All(p.Document.Root(), selectors...)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ErrHandler(h.serve).ServeHTTP(w, r)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request) (int, error) {
	ctx, p := r.Context(), &Page{Request: r, Path: r.URL.Path}
	if err := h.Hooks.run(PreLoad, p); err != nil {
		return http.StatusInternalServerError, err
	}
	util.Debugf(ctx, "begin load document %s", p.Path)
	d, err := h.Store.Template(ctx, p.Path)
	if errors.Is(err, ErrNotFound) {
		if h.Suffix != "" && strings.HasSuffix(p.Path, h.Suffix) {
			http.Redirect(w, r, strings.TrimSuffix(p.Path, h.Suffix), http.StatusMovedPermanently)
			return 0, nil
		}
		return http.StatusNotFound, err
	} else if err != nil {
		return http.StatusInternalServerError, err
	}
	util.Debugf(ctx, "end load document %s", p.Path)
	p.Document = d
	if err := h.Hooks.run(PostLoad, p); err != nil {
		return http.StatusInternalServerError, err
	}

	if err := h.Hooks.run(PreProcess, p); err != nil {
		return http.StatusInternalServerError, err
	}
	util.Debugf(ctx, "begin process document %s", p.Path)
	if h.Process != nil {
		if err := h.Process(p); err != nil {
			return http.StatusInternalServerError, err
		}
	}
	util.Debugf(ctx, "end process document %s", p.Path)
	if err := h.Hooks.run(PostProcess, p); err != nil {
		return http.StatusInternalServerError, err
	}
	if err := h.addGenerator(p.Document); err != nil {
		return http.StatusInternalServerError, err
	}

	if err := h.Hooks.run(PreRender, p); err != nil {
		return http.StatusInternalServerError, err
	}
	util.Debugf(ctx, "begin render document %s", p.Path)
	b := &bytes.Buffer{}
	if err := p.Document.Render(b); err != nil {
		return http.StatusInternalServerError, err
	}
	p.Body = b.Bytes()
	util.Debugf(ctx, "end render document %s", p.Path)
	if err := h.Hooks.run(PostRender, p); err != nil {
		return http.StatusInternalServerError, err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(p.Body); err != nil {
		util.Errorf(ctx, "write %s: %v", p.Path, err)
	}
	return 0, nil
}

func (h *Handler) addGenerator(d *dom.Document) error {
	if h.Generator == "" {
		return nil
	}
	head, ok, err := soup.First(d.Root(), "html head")
	if err != nil || !ok {
		return err
	}
	meta := d.CreateElement("meta",
		dom.Attribute{Name: "name", Value: "generator"},
		dom.Attribute{Name: "content", Value: h.Generator})
	return head.InsertChild(0, meta)
}
