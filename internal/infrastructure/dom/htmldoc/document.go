// Package htmldoc is an in-memory ports.Document backed by golang.org/x/net/html.
// CSS selectors are evaluated with cascadia through goquery and XPath with
// htmlquery. It serves saved page snapshots and tests; it has no layout
// engine, so visibility is derived from the hidden attribute and inline styles.
package htmldoc

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"autolike/internal/domain/ports"
)

var _ ports.Document = (*Document)(nil)

type Document struct {
	mu   sync.RWMutex
	root *html.Node
	loc  *url.URL
	// localNames keeps the original case of foreign (svg, math) element
	// names whose node Data was folded to lower case.
	localNames map[*html.Node]string

	obsMu     sync.Mutex
	observers map[int]observer
	nextObs   int

	clickMu sync.Mutex
	onClick []func(el ports.Element)

	visibilityAPI bool
}

type observer struct {
	target ports.MutationTarget
	fn     func()
}

type Option func(*Document)

// WithoutVisibilityAPI makes CheckVisibility report unsupported, forcing
// callers onto the layout-box fallback.
func WithoutVisibilityAPI() Option {
	return func(d *Document) { d.visibilityAPI = false }
}

func Parse(r io.Reader, rawURL string, opts ...Option) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	loc, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	d := &Document{
		root:          root,
		loc:           loc,
		localNames:    make(map[*html.Node]string),
		observers:     make(map[int]observer),
		visibilityAPI: true,
	}
	d.foldForeignNames(root)
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

func ParseString(src, rawURL string, opts ...Option) (*Document, error) {
	return Parse(strings.NewReader(src), rawURL, opts...)
}

func (d *Document) QuerySelectorAll(selector string) ([]ports.Element, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	found := goquery.NewDocumentFromNode(d.root).FindMatcher(sel)
	out := make([]ports.Element, 0, found.Length())
	for _, n := range found.Nodes {
		out = append(out, d.wrap(n))
	}
	return out, nil
}

func (d *Document) EvaluateXPath(expr string) ([]ports.Element, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	nodes, err := htmlquery.QueryAll(d.root, expr)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", expr, err)
	}
	out := make([]ports.Element, 0, len(nodes))
	for _, n := range nodes {
		if n.Type != html.ElementNode {
			continue
		}
		out = append(out, d.wrap(n))
	}
	return out, nil
}

func (d *Document) Body() ports.Element {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if n := findTag(d.root, "body"); n != nil {
		return d.wrap(n)
	}
	return nil
}

func (d *Document) Title() string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if n := findTag(d.root, "title"); n != nil {
		return strings.TrimSpace(textContent(n))
	}
	return ""
}

func (d *Document) Location() (*url.URL, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u := *d.loc
	return &u, nil
}

func (d *Document) ObserveMutations(target ports.MutationTarget, fn func()) (func(), error) {
	if fn == nil {
		return nil, fmt.Errorf("observe %s: nil callback", target)
	}
	if target == ports.MutationTitle && findTagLocked(d, "title") == nil {
		return nil, fmt.Errorf("observe title: no <title> element")
	}

	d.obsMu.Lock()
	id := d.nextObs
	d.nextObs++
	d.observers[id] = observer{target: target, fn: fn}
	d.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.obsMu.Lock()
			delete(d.observers, id)
			d.obsMu.Unlock()
		})
	}, nil
}

// ObserverCount returns the number of live mutation subscriptions.
func (d *Document) ObserverCount() int {
	d.obsMu.Lock()
	defer d.obsMu.Unlock()
	return len(d.observers)
}

// OnClick registers a hook run by Element.Click.
func (d *Document) OnClick(fn func(el ports.Element)) {
	d.clickMu.Lock()
	defer d.clickMu.Unlock()
	d.onClick = append(d.onClick, fn)
}

func (d *Document) notify(target ports.MutationTarget) {
	d.obsMu.Lock()
	fns := make([]func(), 0, len(d.observers))
	for _, o := range d.observers {
		if o.target == target {
			fns = append(fns, o.fn)
		}
	}
	d.obsMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// HTML renders the current tree.
func (d *Document) HTML() string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var sb strings.Builder
	_ = html.Render(&sb, d.root)
	return sb.String()
}

// foldForeignNames lower-cases camelCase foreign element names such as
// clipPath. cascadia folds type selectors to lower case before comparing
// them with node Data, so a folded tree is what both CSS and XPath match.
// Callers hold the write lock or own the tree exclusively.
func (d *Document) foldForeignNames(n *html.Node) {
	if n.Type == html.ElementNode && n.Namespace != "" {
		if lower := strings.ToLower(n.Data); lower != n.Data {
			d.localNames[n] = n.Data
			n.Data = lower
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.foldForeignNames(c)
	}
}

func (d *Document) wrap(n *html.Node) *Element {
	return &Element{doc: d, node: n}
}

func findTagLocked(d *Document, tag string) *html.Node {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return findTag(d.root, tag)
}

func findTag(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findTag(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}
