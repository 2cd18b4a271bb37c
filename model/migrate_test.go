package model_test

import (
	"testing"
	"time"

	"github.com/kasuganosora/raiderdex/model"
	"github.com/kasuganosora/raiderdex/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestAutoMigrate_InsertAndQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)

	exp := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	rec := &model.CacheRecord{
		Key:      "raiderdex:v1:primary:items",
		Value:    datatypes.JSON(`{"data":[],"cachedAt":1,"ttl":2}`),
		ExpireAt: &exp,
	}
	require.NoError(t, db.Create(rec).Error)

	var found model.CacheRecord
	require.NoError(t, db.First(&found, "cache_key = ?", rec.Key).Error)
	assert.JSONEq(t, `{"data":[],"cachedAt":1,"ttl":2}`, string(found.Value))
	require.NotNil(t, found.ExpireAt)
	assert.True(t, exp.Equal(found.ExpireAt.UTC()))
}
