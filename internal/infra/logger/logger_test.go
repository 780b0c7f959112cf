package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNew_WritesFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shorty.log")

	l, err := New(Config{Development: true, Level: "debug", File: path})
	require.NoError(t, err)

	l.Info("shortened")
	_ = l.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"msg":"shortened"`)
}

func TestInitReplacesGlobal(t *testing.T) {
	l, err := Init(Config{Level: "warn"})
	require.NoError(t, err)
	assert.Same(t, l, L())
	assert.False(t, L().Core().Enabled(zapcore.DebugLevel))
}
