package logger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "engine.log")

	l, err := New(Config{Level: "info", OutputPath: path, Format: "json"})
	require.NoError(t, err)

	l.Info("procurement created", zap.Int64("procurement_id", 7))
	l.Debug("hidden")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"procurement created"`)
	assert.Contains(t, string(data), `"procurement_id":7`)
	assert.NotContains(t, string(data), "hidden")
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	l, err := New(Config{Level: "verbose", OutputPath: "stderr", Format: "console"})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestAdapter(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	a := NewAdapter(zap.New(core))

	a.Info("dispatching", "event_type", "bid.added", "handler_count", 2)
	a.Error("handler failed", "error", errors.New("boom"), 42, "ignored", "dangling")

	entries := logs.All()
	require.Len(t, entries, 2)

	info := entries[0].ContextMap()
	assert.Equal(t, "bid.added", info["event_type"])
	assert.EqualValues(t, 2, info["handler_count"])

	errFields := entries[1].ContextMap()
	assert.Equal(t, "boom", errFields["error"])
	assert.Len(t, errFields, 1)
}

func TestNewAdapter_Nil(t *testing.T) {
	assert.NotPanics(t, func() {
		NewAdapter(nil).Info("nothing")
	})
}
