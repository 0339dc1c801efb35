package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	assert.Equal(t, "watch_video", sanitize("watch video"))
	assert.Equal(t, "task", sanitize("///"))
	assert.Len(t, sanitize(strings.Repeat("a", 100)), 60)
}

func TestParseLevel(t *testing.T) {
	for _, in := range []string{"DEBUG", "info", "Warn", "ERROR", ""} {
		_, err := ParseLevel(in)
		assert.NoError(t, err, in)
	}
	_, err := ParseLevel("VERBOSE")
	assert.Error(t, err)
}

func TestNew_WritesJSONLines(t *testing.T) {
	dir := t.TempDir()
	log, err := New(Config{Task: "calibrate", Level: "INFO", Dir: dir})
	require.NoError(t, err)

	log.Debug("hidden")
	log.With("role", "likeButton").Info("resolved", "locator", "#x > button.primary")
	require.NoError(t, log.Close())

	files, err := filepath.Glob(filepath.Join(dir, "*_calibrate.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "resolved", entry["msg"])
	assert.Equal(t, "likeButton", entry["role"])
	assert.Equal(t, "#x > button.primary", entry["locator"])
}

func TestSetLevel_SharedWithDerivedLoggers(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: "WARN", NoFile: true, Console: &buf})
	require.NoError(t, err)
	child := log.With("component", "resolver")

	child.Info("dropped")
	assert.Empty(t, buf.String())

	require.NoError(t, log.SetLevel("DEBUG"))
	child.Debug("kept")
	assert.Contains(t, buf.String(), "kept")
	assert.Equal(t, "DEBUG", log.(*Adapter).Level())

	assert.Error(t, log.SetLevel("LOUD"))
}
