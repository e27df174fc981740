package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/garyjia/mmg-procurement/internal/config"
)

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Database: config.DatabaseConfig{
			Driver: "sqlite3",
			Path:   filepath.Join(t.TempDir(), "procurement.db"),
		},
	}
}

func TestRun_Commands(t *testing.T) {
	cfg := sqliteConfig(t)
	core, logs := observer.New(zap.InfoLevel)
	log := zap.New(core)

	require.NoError(t, run("up", 1, cfg, log))
	require.NoError(t, run("up", 1, cfg, log), "up is idempotent")

	require.NoError(t, run("version", 1, cfg, log))
	versions := logs.FilterMessage("Database schema version").All()
	require.Len(t, versions, 1)
	assert.EqualValues(t, 1, versions[0].ContextMap()["version"])
	assert.Equal(t, false, versions[0].ContextMap()["dirty"])

	require.NoError(t, run("down", 1, cfg, log))
}

func TestRun_Errors(t *testing.T) {
	cfg := sqliteConfig(t)

	assert.Error(t, run("down", 0, cfg, zap.NewNop()))
	assert.Error(t, run("sideways", 1, cfg, zap.NewNop()))

	bad := sqliteConfig(t)
	bad.Database.Driver = "mysql"
	assert.Error(t, run("up", 1, bad, zap.NewNop()))
}
