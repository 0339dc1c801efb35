package rod

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"autolike/internal/domain/ports"
)

var (
	_ ports.Element    = (*Element)(nil)
	_ ports.Actionable = (*Element)(nil)
)

// Element wraps a remote DOM node. Accessors swallow CDP errors and report
// zero values, so a node removed from the page looks disconnected.
type Element struct {
	el      *rod.Element
	timeout time.Duration
}

// newElement detaches el from the context of the query that produced it.
func newElement(el *rod.Element, timeout time.Duration) *Element {
	return &Element{el: el.Context(context.Background()), timeout: timeout}
}

func wrapAll(els rod.Elements, timeout time.Duration) []ports.Element {
	out := make([]ports.Element, 0, len(els))
	for _, el := range els {
		out = append(out, newElement(el, timeout))
	}
	return out
}

// Rod exposes the underlying handle.
func (e *Element) Rod() *rod.Element { return e.el }

func (e *Element) eval(js string) (gson.JSON, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	res, err := e.el.Context(ctx).Eval(js)
	if err != nil {
		return gson.JSON{}, false
	}
	return res.Value, true
}

func (e *Element) TagName() string {
	v, ok := e.eval(`() => this.localName`)
	if !ok {
		return ""
	}
	return v.Str()
}

func (e *Element) ID() string {
	v, ok := e.eval(`() => this.id || ""`)
	if !ok {
		return ""
	}
	return v.Str()
}

func (e *Element) ClassList() []string {
	v, ok := e.eval(`() => Array.from(this.classList)`)
	if !ok {
		return nil
	}
	var out []string
	for _, c := range v.Arr() {
		out = append(out, c.Str())
	}
	return out
}

func (e *Element) Attribute(name string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	v, err := e.el.Context(ctx).Attribute(name)
	if err != nil || v == nil {
		return "", false
	}
	return *v, true
}

func (e *Element) Text() string {
	v, ok := e.eval(`() => this.textContent || ""`)
	if !ok {
		return ""
	}
	return v.Str()
}

func (e *Element) Parent() ports.Element {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	p, err := e.el.Context(ctx).ElementByJS(rod.Eval(`() => this.parentElement`))
	if err != nil || p == nil {
		return nil
	}
	return newElement(p, e.timeout)
}

func (e *Element) Children() []ports.Element {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	els, err := e.el.Context(ctx).ElementsByJS(rod.Eval(`() => Array.from(this.children)`))
	if err != nil {
		return nil
	}
	return wrapAll(els, e.timeout)
}

func (e *Element) IsConnected() bool {
	v, ok := e.eval(`() => this.isConnected`)
	return ok && v.Bool()
}

func (e *Element) CheckVisibility() (bool, bool) {
	v, ok := e.eval(`() => typeof this.checkVisibility === "function"
		? [this.checkVisibility({checkOpacity: true, checkVisibilityCSS: true}), true]
		: [false, false]`)
	if !ok {
		return false, true
	}
	arr := v.Arr()
	if len(arr) != 2 {
		return false, false
	}
	return arr[0].Bool(), arr[1].Bool()
}

func (e *Element) HasLayoutBox() bool {
	v, ok := e.eval(`() => !!(this.offsetWidth || this.offsetHeight || this.getClientRects().length)`)
	return ok && v.Bool()
}

func (e *Element) Equal(other ports.Element) bool {
	o, ok := other.(*Element)
	if !ok || o == nil {
		return false
	}
	eq, err := e.el.Equal(o.el)
	return err == nil && eq
}

func (e *Element) Click(ctx context.Context) error {
	if err := e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	return nil
}

// SetText replaces the content of an input, textarea or contenteditable.
func (e *Element) SetText(ctx context.Context, text string) error {
	el := e.el.Context(ctx)
	editable, ok := e.eval(`() => this.isContentEditable`)
	if ok && editable.Bool() {
		if _, err := el.Eval(`(t) => { this.focus(); this.textContent = t;
			this.dispatchEvent(new InputEvent("input", {bubbles: true})); }`, text); err != nil {
			return fmt.Errorf("input failed: %w", err)
		}
		return nil
	}

	if err := el.SelectAllText(); err == nil {
		_ = el.Input("")
	}
	if err := el.Input(text); err != nil {
		return fmt.Errorf("input failed: %w", err)
	}
	return nil
}

func (e *Element) ScrollIntoView(ctx context.Context) error {
	if err := e.el.Context(ctx).ScrollIntoView(); err != nil {
		return fmt.Errorf("scroll failed: %w", err)
	}
	return nil
}
