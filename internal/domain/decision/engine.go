// Package decision maps a channel name to what the watcher should do.
package decision

import (
	"math/rand/v2"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"autolike/internal/domain/entity"
)

type Decision int

const (
	DoNothing Decision = iota
	Like
	Skip
	AskConsent
)

func (d Decision) String() string {
	switch d {
	case Like:
		return "like"
	case Skip:
		return "skip"
	case AskConsent:
		return "ask"
	default:
		return "none"
	}
}

// MaxDelay bounds every computed delay.
const MaxDelay = 600 * time.Second

type Engine struct {
	baseDelay time.Duration
	variation int
	whitelist map[string]struct{}
	blacklist map[string]struct{}
}

func NewEngine(cfg entity.AppConfig) *Engine {
	return &Engine{
		baseDelay: time.Duration(cfg.BaseDelay) * time.Second,
		variation: cfg.VariationPercent,
		whitelist: normalizeSet(cfg.Whitelist),
		blacklist: normalizeSet(cfg.Blacklist),
	}
}

// Decide checks the blacklist before the whitelist.
func (e *Engine) Decide(channel string) Decision {
	name := Normalize(channel)
	if name == "" {
		return DoNothing
	}
	if _, ok := e.blacklist[name]; ok {
		return Skip
	}
	if _, ok := e.whitelist[name]; ok {
		return Like
	}
	return AskConsent
}

// ComputeDelay returns the base delay shifted by a uniform factor in
// [-variation%, +variation%], clamped to [0, MaxDelay]. rng may be nil.
func (e *Engine) ComputeDelay(rng *rand.Rand) time.Duration {
	d := e.baseDelay
	if e.variation > 0 {
		f := rand.Float64
		if rng != nil {
			f = rng.Float64
		}
		maxDev := float64(e.variation) / 100
		factor := f()*2*maxDev - maxDev
		d += time.Duration(float64(d) * factor).Round(time.Millisecond)
	}
	return min(max(d, 0), MaxDelay)
}

var (
	zeroWidth = strings.NewReplacer("\u200b", "", "\u200c", "", "\u200d", "", "\ufeff", "")
	lower     = cases.Lower(language.Und)
)

// Normalize makes channel names comparable: zero-width characters are
// dropped, whitespace collapsed, the result composed to NFC and lower-cased.
func Normalize(name string) string {
	name = zeroWidth.Replace(strings.TrimSpace(name))
	name = strings.Join(strings.Fields(name), " ")
	return lower.String(norm.NFC.String(name))
}

func normalizeSet(names []string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		if k := Normalize(n); k != "" {
			out[k] = struct{}{}
		}
	}
	return out
}
