// Package navigation detects content changes in a single-page application
// from two redundant signals: <title> mutations and URL polling.
package navigation

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"autolike/internal/domain/ports"
)

var ErrNilCallback = errors.New("navigation: nil callback")

const (
	DefaultPollInterval = time.Second
	DefaultWatchPath    = "/watch"
	DefaultVideoParam   = "v"
)

type Config struct {
	PollInterval time.Duration
	WatchPath    string
	VideoParam   string
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.WatchPath == "" {
		c.WatchPath = DefaultWatchPath
	}
	if c.VideoParam == "" {
		c.VideoParam = DefaultVideoParam
	}
	return c
}

// Observer reports each new video id once. All checks run on a single
// goroutine, so callbacks are never concurrent with each other.
type Observer struct {
	doc ports.Document
	cfg Config
	log ports.Logger

	mu      sync.Mutex
	current string
	run     *run
}

// run is one Start..Stop cycle.
type run struct {
	callback func(videoID string)
	stop     chan struct{}
	done     chan struct{}
	// inCallback is set while the loop goroutine runs the callback, so a
	// Stop issued from the callback does not wait for its own goroutine.
	inCallback atomic.Bool
}

func New(doc ports.Document, cfg Config, log ports.Logger) *Observer {
	if log == nil {
		log = ports.NopLogger()
	}
	return &Observer{doc: doc, cfg: cfg.withDefaults(), log: log}
}

// Start runs an immediate check and then watches until Stop. Starting a
// running observer restarts it with the new callback. Start and Stop may be
// called from inside the callback.
func (o *Observer) Start(callback func(videoID string)) error {
	if callback == nil {
		return ErrNilCallback
	}
	o.Stop()

	titleCh := make(chan struct{}, 1)
	disconnect, err := o.doc.ObserveMutations(ports.MutationTitle, func() {
		select {
		case titleCh <- struct{}{}:
		default:
		}
	})
	if err != nil {
		o.log.Warn("navigation: title not observable, polling only", "error", err)
		disconnect = func() {}
	}

	r := &run{
		callback: callback,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	o.mu.Lock()
	o.run = r
	o.mu.Unlock()

	go o.loop(r, titleCh, disconnect)
	return nil
}

// Stop disconnects the title observer, stops polling and drops the
// callback. It is safe to call on an idle observer and from the callback.
// Unless a callback is running, it returns once the watching goroutine has
// exited.
func (o *Observer) Stop() {
	o.mu.Lock()
	r := o.run
	o.run = nil
	o.mu.Unlock()

	if r == nil {
		return
	}
	close(r.stop)
	if r.inCallback.Load() {
		return
	}
	<-r.done
}

// CurrentVideoID returns the last video id reported.
func (o *Observer) CurrentVideoID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

func (o *Observer) loop(r *run, titleCh <-chan struct{}, disconnect func()) {
	defer close(r.done)
	defer disconnect()

	ticker := time.NewTicker(o.cfg.PollInterval)
	defer ticker.Stop()

	o.check(r)
	for {
		select {
		case <-r.stop:
			return
		case <-titleCh:
			o.check(r)
		case <-ticker.C:
			o.check(r)
		}
	}
}

func stopped(r *run) bool {
	select {
	case <-r.stop:
		return true
	default:
		return false
	}
}

func (o *Observer) check(r *run) {
	if stopped(r) {
		return
	}
	id, ok := o.videoID()
	if !ok {
		return
	}

	o.mu.Lock()
	if o.run != r || id == o.current {
		o.mu.Unlock()
		return
	}
	previous := o.current
	o.current = id
	o.mu.Unlock()

	o.log.Info("navigation: video changed", "from", previous, "to", id)
	r.inCallback.Store(true)
	defer r.inCallback.Store(false)
	r.callback(id)
}

// videoID extracts the id of a watch page. Other pages yield false.
func (o *Observer) videoID() (string, bool) {
	loc, err := o.doc.Location()
	if err != nil {
		o.log.Debug("navigation: location unavailable", "error", err)
		return "", false
	}
	if !strings.Contains(loc.Path, o.cfg.WatchPath) {
		return "", false
	}
	id := loc.Query().Get(o.cfg.VideoParam)
	return id, id != ""
}
