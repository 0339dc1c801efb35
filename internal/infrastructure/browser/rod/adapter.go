// Package rod drives a real Chromium tab through the DevTools protocol.
package rod

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"autolike/internal/domain/ports"
)

var _ ports.Browser = (*BrowserAdapter)(nil)

var (
	ErrInvalidURL    = errors.New("invalid url")
	ErrNotOurElement = errors.New("element does not belong to this browser")
)

const (
	defaultTimeout     = 10 * time.Second
	defaultSlowMotion  = 0
	screenshotQuality  = 80
	navigationIdleWait = 5 * time.Second
)

type BrowserAdapter struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	doc      *Document
	timeout  time.Duration
	log      ports.Logger
}

type BrowserConfig struct {
	Headless    bool
	SlowMotion  time.Duration
	Timeout     time.Duration
	NoSandbox   bool
	DevTools    bool
	Trace       bool
	Bin         string
	UserDataDir string
}

func DefaultConfig() BrowserConfig {
	return BrowserConfig{
		Headless:   false,
		SlowMotion: defaultSlowMotion,
		Timeout:    defaultTimeout,
		NoSandbox:  false,
		DevTools:   false,
	}
}

func NewBrowserAdapter(ctx context.Context, cfg BrowserConfig, log ports.Logger) (*BrowserAdapter, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		log = ports.NopLogger()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	l := launcher.New().
		Context(ctx).
		Headless(cfg.Headless).
		Devtools(cfg.DevTools).
		NoSandbox(cfg.NoSandbox).
		Delete("use-mock-keychain")
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}
	if cfg.UserDataDir != "" {
		l = l.UserDataDir(cfg.UserDataDir)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().
		ControlURL(controlURL).
		Trace(cfg.Trace).
		SlowMotion(cfg.SlowMotion)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	log.Info("browser started", "headless", cfg.Headless, "control_url", controlURL)
	return &BrowserAdapter{
		browser:  browser,
		launcher: l,
		page:     page,
		doc:      NewDocument(page, cfg.Timeout),
		timeout:  cfg.Timeout,
		log:      log,
	}, nil
}

func (b *BrowserAdapter) Navigate(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https" && u.Scheme != "file") {
		return fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	page := b.page.Context(ctx)
	if err := page.Navigate(rawURL); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait load: %w", err)
	}
	if err := page.WaitIdle(navigationIdleWait); err != nil {
		b.log.Debug("page did not go idle", "url", rawURL, "error", err)
	}
	b.log.Info("navigated", "url", rawURL)
	return nil
}

func (b *BrowserAdapter) Document() ports.Document { return b.doc }

// LiveDocument returns the concrete document for components that need the
// page itself, such as the calibration click source.
func (b *BrowserAdapter) LiveDocument() *Document { return b.doc }

func (b *BrowserAdapter) CurrentURL() string {
	info, err := b.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// PageHTML returns the serialized current DOM, not the original response.
func (b *BrowserAdapter) PageHTML(ctx context.Context) (string, error) {
	html, err := b.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}
	return html, nil
}

func (b *BrowserAdapter) CaptureElement(ctx context.Context, el ports.Element) ([]byte, error) {
	re, ok := el.(*Element)
	if !ok {
		return nil, ErrNotOurElement
	}
	data, err := re.el.Context(ctx).Screenshot(proto.PageCaptureScreenshotFormatJpeg, screenshotQuality)
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return data, nil
}

func (b *BrowserAdapter) Close() {
	if b.browser != nil {
		_ = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
	}
	b.log.Info("browser closed")
}
