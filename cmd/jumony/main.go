package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path"
	"strings"
	"time"

	"github.com/nw0220/Jumony/css"
	"github.com/nw0220/Jumony/dom"
	"github.com/nw0220/Jumony/soup"
	"github.com/nw0220/Jumony/sqlite"
	"github.com/nw0220/Jumony/util"
	"github.com/nw0220/Jumony/web"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	UserAgent string `env:"JUMONY_USER_AGENT"`
	LogLevel  string `env:"JUMONY_LOG_LEVEL"`
}

type options struct {
	selector, serve, dir, db, generator, cache, auth string
	text, count, imports                             bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	o, fs := options{}, flag.NewFlagSet("jumony", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.selector, "s", "", "selector to match against the inputs")
	fs.BoolVar(&o.text, "text", false, "print the trimmed text of matches")
	fs.BoolVar(&o.count, "count", false, "print the number of matches")
	fs.StringVar(&o.cache, "cache", "", "directory to cache http responses in")
	fs.StringVar(&o.serve, "serve", "", "serve templates on `address`")
	fs.StringVar(&o.dir, "dir", ".", "template directory")
	fs.StringVar(&o.db, "db", "", "template database (instead of -dir)")
	fs.BoolVar(&o.imports, "import", false, "import the templates of -dir into -db before serving")
	fs.StringVar(&o.generator, "generator", "jumony", "generator meta content")
	fs.StringVar(&o.auth, "auth", "", "require basic auth `user:pass`")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage:\n  jumony -s selector [-text|-count] file-or-url...\n  jumony -serve :8080 [-auth user:pass] [-dir templates | -db templates.db [-import]]\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	c := Config{UserAgent: "jumony", LogLevel: "INFO"}
	if err := util.LoadConfig("JUMONY_", &c); err != nil {
		return err
	}
	ctx = util.WithLogger(ctx, util.WithLvl(util.ParseLvl(c.LogLevel), util.WriterLogFn(stderr, true)))
	if o.serve != "" {
		return serve(ctx, o)
	} else if o.selector == "" || fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("missing selector or inputs")
	}
	return query(ctx, c, o, fs.Args(), stdout)
}

func query(ctx context.Context, c Config, o options, srcs []string, stdout io.Writer) error {
	g, err := soup.Compile(o.selector)
	if err != nil {
		return err
	}
	t := soup.Transport{UserAgent: c.UserAgent, RetryCount: 2, RetryDelay: time.Second}
	if o.cache != "" {
		t.Cache = &soup.FileCache{Root: o.cache}
	}
	client, results := t.Client(), make([]soup.Nodes, len(srcs))
	eg, ctx := errgroup.WithContext(ctx)
	for i, src := range srcs {
		eg.Go(func() error {
			d, err := load(ctx, client, src)
			if err != nil {
				return fmt.Errorf("%s: %w", src, err)
			}
			ns, err := css.All(d.Root(), g)
			util.Debugf(ctx, "%s: %d matches", src, len(ns))
			results[i] = ns
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	for i, ns := range results {
		prefix := ""
		if len(srcs) > 1 {
			prefix = srcs[i] + "\t"
		}
		if o.count {
			fmt.Fprintf(stdout, "%s%d\n", prefix, ns.Len())
			continue
		}
		for _, n := range ns {
			if o.text {
				fmt.Fprintf(stdout, "%s%s\n", prefix, soup.TrimmedText(n))
			} else {
				fmt.Fprintf(stdout, "%s%s\n", prefix, n.OuterHTML())
			}
		}
	}
	return nil
}

func load(ctx context.Context, client *http.Client, src string) (*dom.Document, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return soup.Load(ctx, client, src)
	}
	f, err := os.Open(src)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return soup.Parse(f)
}

func serve(ctx context.Context, o options) error {
	h, close, err := handler(ctx, o)
	if err != nil {
		return err
	}
	defer close()
	s := &http.Server{
		Addr:        o.serve,
		Handler:     h,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		util.Infof(ctx, "listening on %s", o.serve)
		if err := s.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Shutdown(closeCtx)
	})
	return g.Wait()
}

// handler serves templates through web.Handler and any other file of the
// template directory as is.
func handler(ctx context.Context, o options) (http.Handler, func() error, error) {
	h, close := &web.Handler{Generator: o.generator, Suffix: ".html"}, func() error { return nil }
	static := web.Static(http.Dir(o.dir))
	if o.db != "" {
		ts, err := sqlite.OpenTemplates(o.db)
		if err != nil {
			return nil, nil, err
		}
		if o.imports {
			if err := importTemplates(ctx, ts, os.DirFS(o.dir)); err != nil {
				return nil, nil, errors.Join(err, ts.Close())
			}
		}
		h.Store, close, static = ts, ts.Close, http.NotFoundHandler()
	} else {
		h.Store = web.FSStore{FS: os.DirFS(o.dir)}
	}
	h.Hooks.On(web.PreLoad, func(p *web.Page) error {
		util.Infof(p.Request.Context(), "%s %s", p.Request.Method, p.Path)
		return nil
	})
	var hh http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ext := path.Ext(r.URL.Path); ext != "" && ext != ".html" {
			static.ServeHTTP(w, r)
		} else {
			h.ServeHTTP(w, r)
		}
	})
	if o.auth != "" {
		user, pass, ok := strings.Cut(o.auth, ":")
		if !ok || user == "" {
			return nil, nil, errors.Join(fmt.Errorf("bad -auth %q: expected user:pass", o.auth), close())
		}
		hh = web.WithBasicAuth(hh, "jumony", user, pass)
	}
	return hh, close, nil
}

// importTemplates stores every .html file of fsys under its request path:
// a/index.html is served as /a and a/b.html as /a/b.
func importTemplates(ctx context.Context, ts *sqlite.Templates, fsys fs.FS) error {
	return fs.WalkDir(fsys, ".", func(name string, e fs.DirEntry, err error) error {
		if err != nil || e.IsDir() || path.Ext(name) != ".html" {
			return err
		}
		bs, err := fs.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		p := strings.TrimSuffix(name, ".html")
		if path.Base(p) == "index" {
			p = path.Dir(p)
		}
		util.Debugf(ctx, "import %s as %s", name, p)
		return ts.Put(p, string(bs))
	})
}
