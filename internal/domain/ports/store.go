package ports

import (
	"context"

	"autolike/internal/domain/entity"
)

// Store persists user configuration, counters and the action history.
type Store interface {
	LoadConfig(ctx context.Context) (entity.AppConfig, error)
	SaveConfig(ctx context.Context, cfg entity.AppConfig) error
	// SaveCustomSelectors overlays set onto the stored selectors and
	// returns the merged result.
	SaveCustomSelectors(ctx context.Context, set entity.SelectorSet) (entity.SelectorSet, error)

	IncrementStat(ctx context.Context, kind entity.StatKind) error
	Stats(ctx context.Context) (entity.Stats, error)
	ResetStats(ctx context.Context) error

	AddHistory(ctx context.Context, entry entity.HistoryEntry) error
	History(ctx context.Context) ([]entity.HistoryEntry, error)

	LoadAIConfig(ctx context.Context) (entity.AIConfig, error)
	SaveAIConfig(ctx context.Context, cfg entity.AIConfig) error
}
