package sqlstore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/kasuganosora/raiderdex/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("cache: key not found")

// SQLCache is a KV cache stored in the cache_records table. Values must be
// JSON documents.
type SQLCache struct {
	db  *gorm.DB
	now func() time.Time
}

// NewCache returns a SQLCache over db. The cache_records table must exist
// (see model.AutoMigrate).
func NewCache(db *gorm.DB) *SQLCache {
	return &SQLCache{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *SQLCache) Get(ctx context.Context, key string) (string, error) {
	var rec model.CacheRecord
	err := s.db.WithContext(ctx).Where("cache_key = ?", key).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if rec.ExpireAt != nil && s.now().After(*rec.ExpireAt) {
		_ = s.Del(ctx, key)
		return "", ErrNotFound
	}
	return string(rec.Value), nil
}

func (s *SQLCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	rec := model.CacheRecord{Key: key, Value: datatypes.JSON(value)}
	if ttl > 0 {
		exp := s.now().Add(ttl)
		rec.ExpireAt = &exp
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expire_at", "updated_at"}),
	}).Create(&rec).Error
}

func (s *SQLCache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Where("cache_key IN ?", keys).Delete(&model.CacheRecord{}).Error
}

func (s *SQLCache) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Keys returns the unexpired keys starting with prefix, sorted.
func (s *SQLCache) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.db.WithContext(ctx).Model(&model.CacheRecord{}).
		Where("cache_key LIKE ? ESCAPE '!'", escapeLike(prefix)+"%").
		Where("expire_at IS NULL OR expire_at > ?", s.now()).
		Pluck("cache_key", &keys).Error
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// DeleteExpired removes rows past their retention and reports how many went.
func (s *SQLCache) DeleteExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expire_at IS NOT NULL AND expire_at <= ?", s.now()).
		Delete(&model.CacheRecord{})
	return res.RowsAffected, res.Error
}

func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}
