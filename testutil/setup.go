package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kasuganosora/raiderdex/cache"
	"github.com/kasuganosora/raiderdex/config"
	dbadapter "github.com/kasuganosora/raiderdex/db"
	"github.com/kasuganosora/raiderdex/model"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SetupTestDB opens a SQLite database in the test's temp dir and runs
// AutoMigrate.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := dbadapter.Open(config.DatabaseConfig{
		Mode:       dbadapter.ModeSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err, "SetupTestDB: Open")
	require.NoError(t, model.AutoMigrate(db), "SetupTestDB: AutoMigrate")
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// SetupTestStore creates a cache store over a LocalCache (no Redis required).
func SetupTestStore(t *testing.T, opts ...cache.Option) *cache.Store {
	t.Helper()
	c, err := cache.NewCache(cache.CacheConfig{}, nil)
	require.NoError(t, err, "SetupTestStore: NewCache")
	s := cache.NewStore(context.Background(), c, zap.NewNop(), opts...)
	t.Cleanup(s.Close)
	return s
}
