package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLoggerWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	l, err := newLogger(Config{Filename: path, MaxSize: 1, MaxBackups: 2, MaxAge: 1, Compress: true}, false)
	require.NoError(t, err)
	l.Info("fee refresh finished", zap.String("exchange", "OKX"))
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"fee refresh finished"`)
	assert.Contains(t, string(data), `"exchange":"OKX"`)
}

func TestNewLoggerWithoutCompression(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.log")

	l, err := newLogger(Config{Filename: path, MaxSize: 1}, false)
	require.NoError(t, err)
	l.Warn("session failed")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "session failed")
}
