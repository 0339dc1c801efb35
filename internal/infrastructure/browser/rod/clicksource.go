package rod

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/ysmood/gson"

	"autolike/internal/domain/ports"
)

var _ ports.ClickSource = (*ClickSource)(nil)

const (
	pickBinding = "__autolikePick"
	pickAbort   = "abort"
)

const installPickerJS = `(bind) => {
	if (window.__autolikePicker) return;
	let last = null;
	const banner = document.createElement("div");
	banner.style.cssText = "position:fixed;top:0;left:0;right:0;z-index:2147483647;" +
		"padding:8px 12px;background:#212121;color:#fff;font:14px sans-serif;pointer-events:none";
	document.documentElement.appendChild(banner);
	const unmark = () => { if (last) { last.style.outline = last.__autolikeOutline || ""; last = null; } };
	const over = (e) => {
		unmark();
		last = e.target;
		last.__autolikeOutline = last.style.outline;
		last.style.outline = "2px solid #e53935";
	};
	const click = (e) => {
		e.preventDefault();
		e.stopPropagation();
		window.__autolikePicked = e.target;
		window[bind]("click");
	};
	const key = (e) => { if (e.key === "Escape") window[bind]("abort"); };
	document.addEventListener("mouseover", over, true);
	document.addEventListener("click", click, true);
	document.addEventListener("keydown", key, true);
	window.__autolikePicker = {
		banner,
		remove() {
			document.removeEventListener("mouseover", over, true);
			document.removeEventListener("click", click, true);
			document.removeEventListener("keydown", key, true);
			unmark();
			banner.remove();
			delete window.__autolikePicked;
			delete window.__autolikePicker;
		},
	};
}`

// ClickSource captures the next element the user clicks in the page. While
// installed, page clicks are swallowed.
type ClickSource struct {
	doc    *Document
	events chan string
	stop   func() error
}

func NewClickSource(doc *Document) (*ClickSource, error) {
	events := make(chan string, 1)
	stop, err := doc.page.Expose(pickBinding, func(j gson.JSON) (interface{}, error) {
		select {
		case events <- j.Str():
		default:
		}
		return nil, nil
	})
	if err != nil {
		return nil, fmt.Errorf("expose picker binding: %w", err)
	}

	page, cancel := doc.ctx()
	defer cancel()
	if _, err := page.Eval(installPickerJS, pickBinding); err != nil {
		_ = stop()
		return nil, fmt.Errorf("install picker: %w", err)
	}
	return &ClickSource{doc: doc, events: events, stop: stop}, nil
}

func (c *ClickSource) NextClick(ctx context.Context) (ports.Element, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case ev := <-c.events:
		if ev == pickAbort {
			return nil, ports.ErrCalibrationAborted
		}
	}

	page, cancel := c.doc.ctx()
	defer cancel()
	el, err := page.ElementByJS(rod.Eval(`() => window.__autolikePicked`))
	if err != nil {
		return nil, fmt.Errorf("read picked element: %w", err)
	}
	return newElement(el, c.doc.timeout), nil
}

func (c *ClickSource) Highlight(ctx context.Context, instruction string) error {
	_, err := c.doc.page.Context(ctx).Eval(`(text) => {
		if (window.__autolikePicker) window.__autolikePicker.banner.textContent = text;
	}`, instruction)
	if err != nil {
		return fmt.Errorf("show instruction: %w", err)
	}
	return nil
}

func (c *ClickSource) Close() error {
	page, cancel := c.doc.ctx()
	defer cancel()
	_, _ = page.Eval(`() => { if (window.__autolikePicker) window.__autolikePicker.remove(); }`)
	return c.stop()
}
