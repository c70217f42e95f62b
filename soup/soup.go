package soup

import (
	"context"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"

	"github.com/nw0220/Jumony/css"
	"github.com/nw0220/Jumony/dom"
	"github.com/nw0220/Jumony/util"
)

type Nodes []dom.Node

var compiled = util.Memo[string, *css.SelectorGroup]{Max: 1024}

func Parse(r io.Reader) (*dom.Document, error) { return dom.Parse(r) }

func MustParse(r io.Reader) *dom.Document {
	d, err := Parse(r)
	if err != nil {
		panic(err)
	}
	return d
}

func Load(ctx context.Context, client *http.Client, url string) (*dom.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return LoadReq(client, req)
}

func LoadReq(client *http.Client, req *http.Request) (*dom.Document, error) {
	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return nil, fmt.Errorf("%s: status: %d", req.URL, res.StatusCode)
	}
	return Parse(res.Body)
}

// Compile compiles each selector (memoized) and merges them into one group.
func Compile(selectors ...string) (*css.SelectorGroup, error) {
	gs := make([]*css.SelectorGroup, len(selectors))
	for i, s := range selectors {
		g, err := compiled.Get(s, css.Compile)
		if err != nil {
			return nil, err
		}
		gs[i] = g
	}
	return css.Merge(gs...), nil
}

// Find returns the elements below scope matching any of the selectors, each
// element once and in document order.
func Find(scope dom.Node, selectors ...string) (iter.Seq[dom.Node], error) {
	g, err := Compile(selectors...)
	if err != nil {
		return nil, err
	}
	return css.Find(scope, g)
}

func All(scope dom.Node, selectors ...string) (Nodes, error) {
	g, err := Compile(selectors...)
	if err != nil {
		return nil, err
	}
	return css.All(scope, g)
}

func MustAll(scope dom.Node, selectors ...string) Nodes {
	ns, err := All(scope, selectors...)
	if err != nil {
		panic(err)
	}
	return ns
}

func First(scope dom.Node, selectors ...string) (dom.Node, bool, error) {
	g, err := Compile(selectors...)
	if err != nil {
		return dom.Node{}, false, err
	}
	return css.First(scope, g)
}

func (ns Nodes) Len() int { return len(ns) }

func (ns Nodes) Text(sep string) string {
	ss := make([]string, len(ns))
	for i, n := range ns {
		ss[i] = n.Text()
	}
	return strings.Join(ss, sep)
}

func (ns Nodes) TrimmedText(sep string) string {
	ss := make([]string, len(ns))
	for i, n := range ns {
		ss[i] = TrimmedText(n)
	}
	return strings.Join(ss, sep)
}

func (ns Nodes) Attr(name string) []string {
	as := make([]string, len(ns))
	for i, n := range ns {
		as[i], _ = n.AttrValue(name)
	}
	return as
}

func (ns Nodes) HTML() string {
	ss := make([]string, len(ns))
	for i, n := range ns {
		ss[i] = n.OuterHTML()
	}
	return strings.Join(ss, "\n")
}

// All searches below every node and returns each match once, in the order
// the nodes were searched.
func (ns Nodes) All(selectors ...string) (Nodes, error) {
	all, seen := Nodes{}, map[dom.Node]bool{}
	for _, n := range ns {
		matches, err := All(n, selectors...)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				all = append(all, m)
			}
		}
	}
	return all, nil
}
