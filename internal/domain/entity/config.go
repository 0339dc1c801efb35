package entity

import "time"

// AppConfig is the user configuration persisted between runs.
type AppConfig struct {
	IsEnabled        bool        `json:"isEnabled"`
	BaseDelay        int         `json:"baseDelay"`        // seconds
	VariationPercent int         `json:"variationPercent"` // 0..100
	LogLevel         string      `json:"logLevel"`
	Whitelist        []string    `json:"whitelist"`
	Blacklist        []string    `json:"blacklist"`
	CustomSelectors  SelectorSet `json:"customSelectors"`
}

func DefaultAppConfig() AppConfig {
	return AppConfig{
		IsEnabled:        true,
		BaseDelay:        10,
		VariationPercent: 30,
		LogLevel:         "INFO",
		Whitelist:        []string{},
		Blacklist:        []string{},
		CustomSelectors:  NewSelectorSet(),
	}
}

type AIProvider string

const (
	ProviderOpenRouter AIProvider = "openrouter"
	ProviderGroq       AIProvider = "groq"
)

type AIConfig struct {
	IsEnabled      bool       `json:"isEnabled"`
	Provider       AIProvider `json:"provider"`
	APIKey         string     `json:"apiKey"`
	Model          string     `json:"model"`
	SystemPrompt   string     `json:"systemPrompt"`
	Temperature    float32    `json:"temperature"`
	MaxSuggestions int        `json:"maxSuggestions"`
}

func DefaultAIConfig() AIConfig {
	return AIConfig{
		IsEnabled:      false,
		Provider:       ProviderOpenRouter,
		Model:          "google/gemini-2.0-flash-lite-preview-02-05:free",
		SystemPrompt:   "You are a subscriber of this channel. Write a short comment (2 sentences max), positive, constructive and relevant to the video title. Stay natural, no hashtag spam.",
		Temperature:    0.7,
		MaxSuggestions: 5,
	}
}

type StatKind string

const (
	StatAuto    StatKind = "auto"
	StatManual  StatKind = "manual"
	StatSkipped StatKind = "skipped"
)

type Stats struct {
	Total   int `json:"total"`
	Auto    int `json:"auto"`
	Manual  int `json:"manual"`
	Skipped int `json:"skipped"`
}

type HistoryAction string

const (
	ActionAutoLike   HistoryAction = "AUTO_LIKE"
	ActionManualLike HistoryAction = "MANUAL_LIKE"
	ActionDislike    HistoryAction = "DISLIKE"
	ActionComment    HistoryAction = "COMMENT"
)

const HistoryMaxItems = 50

type HistoryEntry struct {
	VideoID     string        `json:"videoId"`
	ChannelName string        `json:"channelName"`
	VideoTitle  string        `json:"videoTitle"`
	Timestamp   time.Time     `json:"timestamp"`
	Action      HistoryAction `json:"action"`
}
