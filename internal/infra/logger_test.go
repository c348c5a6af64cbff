package infra

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLogger_WritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cammon.log")
	logger := NewLogger(LogOptions{File: path})

	logger.Info("trigger fired", zap.String("clip", "a.mp4"))
	logger.Debug("not at info level")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "trigger fired", entry["msg"])
	assert.Equal(t, "a.mp4", entry["clip"])
	assert.Equal(t, "info", entry["level"])
	assert.Contains(t, entry, "time")
}

func TestNewLogger_Debug(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cammon.log")
	logger := NewLogger(LogOptions{File: path, Debug: true})

	logger.Debug("event received")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "event received")
}

func TestNewLogger_ConsoleOnly(t *testing.T) {
	logger := NewLogger(LogOptions{})
	require.NotNil(t, logger)
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
}
