package css

import (
	"os"
	"reflect"
	"regexp"
	"strings"
	"testing"

	"github.com/andybalholm/cascadia"
	ecss "github.com/ericchiang/css"
	"github.com/nw0220/Jumony/dom"
	"golang.org/x/exp/slices"
	"golang.org/x/net/html"
)

// readHTML parses path and returns the selectors listed in its <style> element.
func readHTML(t testing.TB, path string) (*html.Node, *dom.Document, []string) {
	bs, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	n, err := html.Parse(strings.NewReader(string(bs)))
	if err != nil {
		t.Fatal(err)
	}
	d := dom.FromHTML(n)
	style, ok, err := First(d.Root(), MustCompile("style"))
	if err != nil || !ok {
		t.Fatalf("no style element in %s", path)
	}
	selectors := regexp.MustCompile(`\s*{.*}\s*`).Split(strings.TrimSpace(style.Text()), -1)
	if l := len(selectors); l > 0 && selectors[l-1] == "" {
		selectors = selectors[:l-1]
	}
	return n, d, selectors
}

// elementIndex maps each element to its position in document order, so
// results of different engines can be compared.
func elementIndex(root *html.Node) map[*html.Node]int {
	m := map[*html.Node]int{}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			m[n] = len(m)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return m
}

func domIndexes(d *dom.Document, ns []dom.Node) []int {
	m, i := map[dom.Node]int{}, 0
	for n := range d.Root().Descendants() {
		if n.IsElement() {
			m[n], i = i, i+1
		}
	}
	out := []int{}
	for _, n := range ns {
		out = append(out, m[n])
	}
	return out
}

func htmlIndexes(m map[*html.Node]int, ns []*html.Node) []int {
	out := []int{}
	for _, n := range ns {
		out = append(out, m[n])
	}
	return out
}

func TestCompareCascadia(t *testing.T) {
	root, d, selectors := readHTML(t, "testdata/benchmark.html")
	index := elementIndex(root)
	for _, selector := range selectors {
		ns, err := All(d.Root(), MustCompile(selector))
		if err != nil {
			t.Fatal(err)
		}
		actual := domIndexes(d, ns)
		expected := htmlIndexes(index, cascadia.MustCompile(selector).MatchAll(root))
		if !reflect.DeepEqual(actual, expected) {
			t.Errorf("%s: got %v, expected %v", selector, actual, expected)
		}
	}
}

func TestCompareEricChiang(t *testing.T) {
	root, d, _ := readHTML(t, "testdata/benchmark.html")
	index := elementIndex(root)
	for _, selector := range []string{"div", "p.intro", "#main", "ul > li", "section p", "a[href^='https://']"} {
		ns, err := All(d.Root(), MustCompile(selector))
		if err != nil {
			t.Fatal(err)
		}
		actual := domIndexes(d, ns)
		expected := htmlIndexes(index, ecss.MustParse(selector).Select(root))
		slices.Sort(expected)
		if expected = slices.Compact(expected); !reflect.DeepEqual(actual, expected) {
			t.Errorf("%s: got %v, expected %v", selector, actual, expected)
		}
	}
}

func BenchmarkJumony(b *testing.B) {
	_, d, selectors := readHTML(b, "testdata/benchmark.html")
	for _, selector := range selectors {
		g := MustCompile(selector)
		for n := 0; n < b.N; n++ {
			if _, err := All(d.Root(), g); err != nil {
				b.Fatal(err)
			}
		}
	}
}

func BenchmarkEricChiangCSS(b *testing.B) {
	benchmark(b, func(selector string) func(*html.Node) []*html.Node {
		s := ecss.MustParse(selector)
		return func(n *html.Node) []*html.Node { return s.Select(n) }
	})
}

func BenchmarkAndyBalholmCSS(b *testing.B) {
	benchmark(b, func(selector string) func(*html.Node) []*html.Node {
		s := cascadia.MustCompile(selector)
		return func(n *html.Node) []*html.Node { return s.MatchAll(n) }
	})
}

func benchmark(b *testing.B, compile func(string) func(*html.Node) []*html.Node) {
	root, _, selectors := readHTML(b, "testdata/benchmark.html")
	for _, selector := range selectors {
		matchAll, ok := func() (f func(*html.Node) []*html.Node, ok bool) {
			defer func() { ok = recover() == nil }()
			return compile(selector), true
		}()
		if !ok {
			b.Logf("%s: not supported", selector)
			continue
		}
		for n := 0; n < b.N; n++ {
			matchAll(root)
		}
	}
}
