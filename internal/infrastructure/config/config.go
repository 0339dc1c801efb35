// Package config loads the DOM configuration: timings and default locator
// tables. Built-in values are embedded; a YAML file may override any of them.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"autolike/internal/domain/entity"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type File struct {
	Timeouts        TimeoutsFile        `yaml:"timeouts"`
	WatchPath       string              `yaml:"watch_path"`
	VideoParam      string              `yaml:"video_param"`
	CommentsSection string              `yaml:"comments_section"`
	Selectors       map[string][]string `yaml:"selectors"`
	ChannelFallback []string            `yaml:"channel_fallback"`
}

type TimeoutsFile struct {
	ElementSearchMS int `yaml:"element_search_ms"`
	PlayerLoadMS    int `yaml:"player_load_ms"`
	CacheTTLMS      int `yaml:"cache_ttl_ms"`
	URLPollingMS    int `yaml:"url_polling_ms"`
	CommentStepMS   int `yaml:"comment_step_ms"`
	SubmitWaitMS    int `yaml:"submit_wait_ms"`
}

// Default returns the embedded configuration.
func Default() entity.DOMConfig {
	cfg, err := Parse(nil)
	if err != nil {
		panic(fmt.Sprintf("embedded dom config: %v", err))
	}
	return cfg
}

// Load reads path over the embedded defaults. An empty path yields the
// defaults.
func Load(path string) (entity.DOMConfig, error) {
	if path == "" {
		return Parse(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return entity.DOMConfig{}, fmt.Errorf("read dom config: %w", err)
	}
	return Parse(data)
}

// Parse decodes override over the embedded defaults and validates the result.
// Keys absent from override keep their default values.
func Parse(override []byte) (entity.DOMConfig, error) {
	var f File
	if err := yaml.Unmarshal(defaultsYAML, &f); err != nil {
		return entity.DOMConfig{}, fmt.Errorf("decode defaults: %w", err)
	}
	if len(override) > 0 {
		if err := yaml.Unmarshal(override, &f); err != nil {
			return entity.DOMConfig{}, fmt.Errorf("decode dom config: %w", err)
		}
	}
	if err := f.validate(); err != nil {
		return entity.DOMConfig{}, err
	}
	return f.toEntity(), nil
}

func (f File) validate() error {
	t := f.Timeouts
	for name, v := range map[string]int{
		"element_search_ms": t.ElementSearchMS,
		"player_load_ms":    t.PlayerLoadMS,
		"cache_ttl_ms":      t.CacheTTLMS,
		"url_polling_ms":    t.URLPollingMS,
		"comment_step_ms":   t.CommentStepMS,
		"submit_wait_ms":    t.SubmitWaitMS,
	} {
		if v <= 0 {
			return fmt.Errorf("dom config: timeouts.%s must be positive, got %d", name, v)
		}
	}
	for role := range f.Selectors {
		if !entity.Role(role).Valid() {
			return fmt.Errorf("dom config: unknown role %q in selectors", role)
		}
	}
	if f.WatchPath == "" || f.VideoParam == "" {
		return fmt.Errorf("dom config: watch_path and video_param are required")
	}
	return nil
}

func (f File) toEntity() entity.DOMConfig {
	ms := func(v int) time.Duration { return time.Duration(v) * time.Millisecond }

	table := make(entity.SelectorTable, len(entity.Roles))
	for _, role := range entity.Roles {
		table[role] = toLocators(f.Selectors[string(role)])
	}
	return entity.DOMConfig{
		Timeouts: entity.Timeouts{
			ElementSearch: ms(f.Timeouts.ElementSearchMS),
			PlayerLoad:    ms(f.Timeouts.PlayerLoadMS),
			CacheTTL:      ms(f.Timeouts.CacheTTLMS),
			URLPolling:    ms(f.Timeouts.URLPollingMS),
			CommentStep:   ms(f.Timeouts.CommentStepMS),
			SubmitWait:    ms(f.Timeouts.SubmitWaitMS),
		},
		Selectors:       table,
		ChannelFallback: toLocators(f.ChannelFallback),
		CommentsSection: entity.Locator(f.CommentsSection),
		WatchPath:       f.WatchPath,
		VideoParam:      f.VideoParam,
	}
}

func toLocators(in []string) []entity.Locator {
	out := make([]entity.Locator, 0, len(in))
	for _, s := range in {
		if l := entity.Locator(s); !l.IsEmpty() {
			out = append(out, l)
		}
	}
	return out
}
