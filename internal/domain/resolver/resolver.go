// Package resolver turns persisted locators back into live elements. It
// caches short-lived results per role and drops them on every navigation.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"autolike/internal/domain/entity"
	"autolike/internal/domain/navigation"
	"autolike/internal/domain/ports"
)

var (
	// ErrElementNotFound is the only failure of a wait that ran out of time.
	ErrElementNotFound = errors.New("element not found")
	// ErrNavigated means the page changed video while the wait was running;
	// whatever was found belongs to the previous page.
	ErrNavigated = errors.New("navigated away during resolution")
	// ErrNotActionable is returned when an element cannot be clicked or typed into.
	ErrNotActionable = errors.New("element is not actionable")
)

type Resolver struct {
	doc   ports.Document
	cfg   entity.DOMConfig
	log   ports.Logger
	now   func() time.Time
	cache *elementCache
	nav   *navigation.Observer
}

type Option func(*Resolver)

// WithClock replaces time.Now for cache ageing.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

func New(doc ports.Document, cfg entity.DOMConfig, log ports.Logger, opts ...Option) *Resolver {
	if log == nil {
		log = ports.NopLogger()
	}
	r := &Resolver{
		doc: doc,
		cfg: cfg,
		log: log,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.cache = newElementCache(cfg.Timeouts.CacheTTL, func() time.Time { return r.now() }, IsVisible)
	r.nav = navigation.New(doc, navigation.Config{
		PollInterval: cfg.Timeouts.URLPolling,
		WatchPath:    cfg.WatchPath,
		VideoParam:   cfg.VideoParam,
	}, log)
	return r
}

// Start watches for video changes. The cache is cleared before onChange
// runs, so any resolution made from onChange sees the new page.
func (r *Resolver) Start(onChange func(videoID string)) error {
	if onChange == nil {
		return navigation.ErrNilCallback
	}
	return r.nav.Start(func(videoID string) {
		r.Invalidate()
		onChange(videoID)
	})
}

func (r *Resolver) Stop() {
	r.nav.Stop()
	r.cache.clear()
}

func (r *Resolver) CurrentVideoID() string { return r.nav.CurrentVideoID() }

// Invalidate drops every cached element and starts a new navigation epoch.
func (r *Resolver) Invalidate() {
	r.cache.clear()
}

// Resolve returns the first visible element for role, custom locator first,
// then the role defaults in order. It returns nil when nothing matches.
func (r *Resolver) Resolve(role entity.Role, custom entity.Locator) ports.Element {
	if el, ok := r.cache.get(role); ok {
		r.log.Debug("resolver: cache hit", "role", role)
		return el
	}
	r.log.Debug("resolver: cache miss", "role", role)

	epoch, _ := r.cache.current()
	el := r.find(r.candidates(role, custom))
	if el == nil {
		return nil
	}
	if !r.cache.set(role, el, epoch) {
		r.log.Debug("resolver: page changed during lookup", "role", role)
		return nil
	}
	return el
}

// ResolveAsync waits up to timeout for role to appear. It bypasses the cache.
func (r *Resolver) ResolveAsync(ctx context.Context, role entity.Role, custom entity.Locator, timeout time.Duration) (ports.Element, error) {
	el, err := r.WaitFor(ctx, r.candidates(role, custom), timeout)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", role, err)
	}
	return el, nil
}

// WaitFor resolves locators now and again after every body mutation until
// one matches, timeout elapses, ctx is done or the page navigates. A zero
// timeout means the element search timeout.
func (r *Resolver) WaitFor(ctx context.Context, locators []entity.Locator, timeout time.Duration) (ports.Element, error) {
	if timeout <= 0 {
		timeout = r.cfg.Timeouts.ElementSearch
	}
	epoch, navigated := r.cache.current()

	if el := r.find(locators); el != nil {
		return el, nil
	}

	signal := make(chan struct{}, 1)
	disconnect, err := r.doc.ObserveMutations(ports.MutationBody, func() {
		select {
		case signal <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return nil, fmt.Errorf("observe body: %w", err)
	}
	defer disconnect()
	// Re-check once: a render may have landed before the subscription.
	signal <- struct{}{}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-navigated:
			return nil, ErrNavigated
		case <-timer.C:
			return nil, fmt.Errorf("%w: %d locator(s) after %s", ErrElementNotFound, len(locators), timeout)
		case <-signal:
			el := r.find(locators)
			if el == nil {
				continue
			}
			if cur, _ := r.cache.current(); cur != epoch {
				return nil, ErrNavigated
			}
			return el, nil
		}
	}
}

func (r *Resolver) candidates(role entity.Role, custom entity.Locator) []entity.Locator {
	return entity.MergeLocators(custom, r.cfg.Selectors[role])
}

// find tries locators strictly in order and returns the first visible match.
// Locators the document rejects are logged and skipped.
func (r *Resolver) find(locators []entity.Locator) ports.Element {
	for _, loc := range locators {
		if loc.IsEmpty() {
			continue
		}
		matches, err := r.query(loc)
		if err != nil {
			r.log.Warn("resolver: invalid locator skipped", "locator", loc, "error", err)
			continue
		}
		for _, el := range matches {
			if IsVisible(el) {
				return el
			}
		}
	}
	return nil
}

func (r *Resolver) query(loc entity.Locator) ([]ports.Element, error) {
	if loc.IsXPath() {
		return r.doc.EvaluateXPath(loc.String())
	}
	return r.doc.QuerySelectorAll(loc.String())
}

// IsVisible reports whether el is attached and rendered. CSS visibility is
// preferred; documents that cannot compute it fall back to the layout box.
func IsVisible(el ports.Element) bool {
	if el == nil || !el.IsConnected() {
		return false
	}
	if visible, supported := el.CheckVisibility(); supported {
		return visible
	}
	return el.HasLayoutBox()
}
