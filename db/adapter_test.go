package db_test

import (
	"path/filepath"
	"testing"

	"github.com/kasuganosora/raiderdex/config"
	"github.com/kasuganosora/raiderdex/db"
	"github.com/kasuganosora/raiderdex/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLite(t *testing.T) {
	gdb, err := db.Open(config.DatabaseConfig{
		Mode:       db.ModeSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "cache.db"),
	})
	require.NoError(t, err)
	require.NoError(t, model.AutoMigrate(gdb))
	assert.True(t, gdb.Migrator().HasTable(&model.CacheRecord{}))
}

func TestOpen_UnknownMode(t *testing.T) {
	_, err := db.Open(config.DatabaseConfig{Mode: "embedded_xml"})
	assert.Error(t, err)
}
