package rod

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/ysmood/gson"

	"autolike/internal/domain/ports"
)

var _ ports.Document = (*Document)(nil)

var ErrNotObservable = errors.New("mutation target not present")

var bindingSeq atomic.Uint64

// Document is the page currently loaded in the controlled tab.
type Document struct {
	page    *rod.Page
	timeout time.Duration
}

func NewDocument(page *rod.Page, timeout time.Duration) *Document {
	return &Document{page: page, timeout: timeout}
}

func (d *Document) ctx() (*rod.Page, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	return d.page.Context(ctx), cancel
}

func (d *Document) QuerySelectorAll(selector string) ([]ports.Element, error) {
	page, cancel := d.ctx()
	defer cancel()

	els, err := page.Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	return wrapAll(els, d.timeout), nil
}

func (d *Document) EvaluateXPath(expr string) ([]ports.Element, error) {
	page, cancel := d.ctx()
	defer cancel()

	els, err := page.ElementsX(expr)
	if err != nil {
		return nil, fmt.Errorf("xpath %q: %w", expr, err)
	}
	return wrapAll(els, d.timeout), nil
}

func (d *Document) Body() ports.Element {
	page, cancel := d.ctx()
	defer cancel()

	els, err := page.Elements("body")
	if err != nil || len(els) == 0 {
		return nil
	}
	return newElement(els[0], d.timeout)
}

func (d *Document) Title() string {
	page, cancel := d.ctx()
	defer cancel()

	res, err := page.Eval(`() => document.title`)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

func (d *Document) Location() (*url.URL, error) {
	page, cancel := d.ctx()
	defer cancel()

	res, err := page.Eval(`() => location.href`)
	if err != nil {
		return nil, fmt.Errorf("read location: %w", err)
	}
	return url.Parse(res.Value.Str())
}

const observeJS = `(name, target) => {
	const node = target === "title" ? document.querySelector("title") : document.body;
	if (!node) return false;
	const opts = target === "title"
		? {childList: true, characterData: true, subtree: true}
		: {childList: true, subtree: true};
	const obs = new MutationObserver(() => window[name]());
	obs.observe(node, opts);
	window[name + "Observer"] = obs;
	return true;
}`

const unobserveJS = `(name) => {
	const obs = window[name + "Observer"];
	if (obs) obs.disconnect();
	delete window[name + "Observer"];
}`

// ObserveMutations installs a page MutationObserver whose callback reaches
// Go through an exposed binding. The observer lives in the current JS
// context and does not survive a full page load.
func (d *Document) ObserveMutations(target ports.MutationTarget, fn func()) (func(), error) {
	name := fmt.Sprintf("__autolikeMutation%d", bindingSeq.Add(1))

	stop, err := d.page.Expose(name, func(gson.JSON) (interface{}, error) {
		fn()
		return nil, nil
	})
	if err != nil {
		return nil, fmt.Errorf("expose binding: %w", err)
	}

	page, cancel := d.ctx()
	defer cancel()

	res, err := page.Eval(observeJS, name, target.String())
	if err != nil || !res.Value.Bool() {
		_ = stop()
		if err == nil {
			err = fmt.Errorf("%w: %s", ErrNotObservable, target)
		}
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			page, cancel := d.ctx()
			defer cancel()
			_, _ = page.Eval(unobserveJS, name)
			_ = stop()
		})
	}, nil
}
