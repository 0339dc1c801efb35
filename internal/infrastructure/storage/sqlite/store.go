// Package sqlite persists configuration, stats and history in a single
// SQLite file through the pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"autolike/internal/domain/entity"
	"autolike/internal/domain/ports"
)

var _ ports.Store = (*Store)(nil)

var ErrNotFound = errors.New("storage: key not found")

const (
	keyConfig   = "alp_config_v5"
	keyStats    = "alp_stats_v5"
	keyAIConfig = "alp_ai_config_v1"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS history (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	video_id     TEXT NOT NULL,
	channel_name TEXT NOT NULL DEFAULT '',
	video_title  TEXT NOT NULL DEFAULT '',
	action       TEXT NOT NULL,
	created_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_history_created ON history(created_at DESC, id DESC);
`

type Store struct {
	db  *sql.DB
	log ports.Logger
	// mu serializes read-modify-write sequences.
	mu sync.Mutex
}

// Open opens (or creates) the database at path. ":memory:" is accepted.
func Open(path string, log ports.Logger) (*Store, error) {
	if log == nil {
		log = ports.NopLogger()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("storage: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 10000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("storage: %s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: schema: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) LoadConfig(ctx context.Context) (entity.AppConfig, error) {
	cfg := entity.DefaultAppConfig()
	if err := s.getJSON(ctx, keyConfig, &cfg); err != nil && !errors.Is(err, ErrNotFound) {
		return entity.DefaultAppConfig(), err
	}
	if cfg.Whitelist == nil {
		cfg.Whitelist = []string{}
	}
	if cfg.Blacklist == nil {
		cfg.Blacklist = []string{}
	}
	return cfg, nil
}

func (s *Store) SaveConfig(ctx context.Context, cfg entity.AppConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.putJSON(ctx, keyConfig, cfg); err != nil {
		return err
	}
	s.log.Info("storage: config saved")
	return nil
}

func (s *Store) SaveCustomSelectors(ctx context.Context, set entity.SelectorSet) (entity.SelectorSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.LoadConfig(ctx)
	if err != nil {
		return entity.SelectorSet{}, err
	}
	cfg.CustomSelectors = cfg.CustomSelectors.Merge(set)
	if err := s.putJSON(ctx, keyConfig, cfg); err != nil {
		return entity.SelectorSet{}, err
	}
	s.log.Info("storage: custom selectors saved", "count", cfg.CustomSelectors.Len())
	return cfg.CustomSelectors, nil
}

// IncrementStat bumps kind and the total. Unknown kinds are ignored.
func (s *Store) IncrementStat(ctx context.Context, kind entity.StatKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats, err := s.Stats(ctx)
	if err != nil {
		return err
	}
	switch kind {
	case entity.StatAuto:
		stats.Auto++
	case entity.StatManual:
		stats.Manual++
	case entity.StatSkipped:
		stats.Skipped++
	default:
		s.log.Warn("storage: unknown stat ignored", "kind", kind)
		return nil
	}
	stats.Total++
	return s.putJSON(ctx, keyStats, stats)
}

func (s *Store) Stats(ctx context.Context) (entity.Stats, error) {
	var stats entity.Stats
	if err := s.getJSON(ctx, keyStats, &stats); err != nil && !errors.Is(err, ErrNotFound) {
		return entity.Stats{}, err
	}
	return stats, nil
}

func (s *Store) ResetStats(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putJSON(ctx, keyStats, entity.Stats{})
}

// AddHistory records entry and keeps only the newest HistoryMaxItems.
func (s *Store) AddHistory(ctx context.Context, entry entity.HistoryEntry) error {
	if entry.VideoID == "" {
		return fmt.Errorf("storage: history entry without video id")
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO history (video_id, channel_name, video_title, action, created_at) VALUES (?, ?, ?, ?, ?)`,
		entry.VideoID, entry.ChannelName, entry.VideoTitle, string(entry.Action), entry.Timestamp.UnixMilli(),
	); err != nil {
		return fmt.Errorf("storage: insert history: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM history WHERE id NOT IN (SELECT id FROM history ORDER BY created_at DESC, id DESC LIMIT ?)`,
		entity.HistoryMaxItems,
	); err != nil {
		return fmt.Errorf("storage: trim history: %w", err)
	}
	return tx.Commit()
}

// History returns entries newest first.
func (s *Store) History(ctx context.Context) ([]entity.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT video_id, channel_name, video_title, action, created_at FROM history ORDER BY created_at DESC, id DESC LIMIT ?`,
		entity.HistoryMaxItems,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: query history: %w", err)
	}
	defer rows.Close()

	var out []entity.HistoryEntry
	for rows.Next() {
		var (
			e      entity.HistoryEntry
			action string
			ms     int64
		)
		if err := rows.Scan(&e.VideoID, &e.ChannelName, &e.VideoTitle, &action, &ms); err != nil {
			return nil, fmt.Errorf("storage: scan history: %w", err)
		}
		e.Action = entity.HistoryAction(action)
		e.Timestamp = time.UnixMilli(ms)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) LoadAIConfig(ctx context.Context) (entity.AIConfig, error) {
	cfg := entity.DefaultAIConfig()
	if err := s.getJSON(ctx, keyAIConfig, &cfg); err != nil && !errors.Is(err, ErrNotFound) {
		return entity.DefaultAIConfig(), err
	}
	return cfg, nil
}

func (s *Store) SaveAIConfig(ctx context.Context, cfg entity.AIConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putJSON(ctx, keyAIConfig, cfg)
}

func (s *Store) getJSON(ctx context.Context, key string, dst any) error {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("storage: read %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("storage: decode %s: %w", key, err)
	}
	return nil
}

func (s *Store) putJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(data), time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("storage: write %s: %w", key, err)
	}
	return nil
}
