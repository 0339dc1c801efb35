package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autolike/internal/domain/entity"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 5*time.Second, cfg.Timeouts.ElementSearch)
	assert.Equal(t, 10*time.Second, cfg.Timeouts.PlayerLoad)
	assert.Equal(t, 2*time.Second, cfg.Timeouts.CacheTTL)
	assert.Equal(t, time.Second, cfg.Timeouts.URLPolling)
	assert.Equal(t, 2*time.Second, cfg.Timeouts.CommentStep)
	assert.Equal(t, time.Second, cfg.Timeouts.SubmitWait)

	assert.Empty(t, cfg.Selectors[entity.RoleLikeButton])
	assert.Equal(t, []entity.Locator{"#placeholder-area", "#simple-box"}, cfg.Selectors[entity.RoleCommentPlaceholder])
	assert.Equal(t, entity.Locator(`div[contenteditable="true"]`), cfg.Selectors[entity.RoleCommentInput][1])
	assert.Len(t, cfg.ChannelFallback, 5)
	assert.Equal(t, entity.Locator("ytd-comments"), cfg.CommentsSection)
	assert.Equal(t, "/watch", cfg.WatchPath)
	assert.Equal(t, "v", cfg.VideoParam)
}

func TestParse_OverrideKeepsOtherDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
timeouts:
  cache_ttl_ms: 500
selectors:
  likeButton:
    - "like-button-view-model button"
`))
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.Timeouts.CacheTTL)
	assert.Equal(t, 5*time.Second, cfg.Timeouts.ElementSearch)
	assert.Equal(t, []entity.Locator{"like-button-view-model button"}, cfg.Selectors[entity.RoleLikeButton])
	assert.Len(t, cfg.Selectors[entity.RoleCommentSubmit], 3)
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"negative timeout": "timeouts:\n  url_polling_ms: -1\n",
		"unknown role":     "selectors:\n  subscribeButton: [\"x\"]\n",
		"bad yaml":         "timeouts: [",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("watch_path: /shorts\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/shorts", cfg.WatchPath)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	def, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), def)
}
