package entity

import "time"

// Timeouts are the DOM timings, all plain durations.
type Timeouts struct {
	ElementSearch time.Duration
	PlayerLoad    time.Duration
	CacheTTL      time.Duration
	URLPolling    time.Duration
	CommentStep   time.Duration
	SubmitWait    time.Duration
}

// DOMConfig is what the resolver needs to know about the page: timings and
// the built-in fallback locators per role.
type DOMConfig struct {
	Timeouts        Timeouts
	Selectors       SelectorTable
	ChannelFallback []Locator
	CommentsSection Locator
	WatchPath       string
	VideoParam      string
}
