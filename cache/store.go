package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kasuganosora/raiderdex/cache/local"
	"go.uber.org/zap"
)

// DefaultKeyPrefix namespaces every key the store writes.
const DefaultKeyPrefix = "raiderdex:v1:"

const healthKey = "__health__"

// Entry is the persisted form of one cached dataset.
type Entry struct {
	Data     json.RawMessage `json:"data"`
	CachedAt int64           `json:"cachedAt"` // epoch ms
	TTL      int64           `json:"ttl"`      // ms
}

// Age is the time elapsed since the entry was written.
func (e *Entry) Age(now time.Time) time.Duration {
	return time.Duration(now.UnixMilli()-e.CachedAt) * time.Millisecond
}

// Stale reports whether the entry outlived its TTL at now.
func (e *Entry) Stale(now time.Time) bool {
	return now.UnixMilli()-e.CachedAt > e.TTL
}

// Status describes the cache state of one key.
type Status struct {
	Key         string `json:"key"`
	Cached      bool   `json:"cached"`
	Stale       bool   `json:"stale"`
	AgeMs       int64  `json:"ageMs"`
	TTLMs       int64  `json:"ttlMs"`
	ExpiresInMs int64  `json:"expiresInMs"`
	CachedAt    int64  `json:"cachedAt,omitempty"`
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock used for staleness.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithKeyPrefix sets the namespace prefix of every stored key.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithRetention sets how long backends keep a key after it was written.
// Zero keeps keys until they are overwritten or cleared.
func WithRetention(d time.Duration) Option {
	return func(s *Store) { s.retention = d }
}

// WithMaxEntryBytes sets the primary backend's per-entry quota. Larger
// entries go to the in-process fallback. Zero disables the quota.
func WithMaxEntryBytes(n int) Option {
	return func(s *Store) { s.maxEntryBytes = n }
}

// Store keeps {data, cachedAt, ttl} entries in a primary backend, with an
// in-process fallback for when the primary is unusable. Staleness is
// evaluated lazily on read; nothing is evicted in the background.
type Store struct {
	primary       Cache
	fallback      *local.LocalCache
	prefix        string
	retention     time.Duration
	maxEntryBytes int
	now           func() time.Time
	logger        *zap.Logger
}

// NewStore checks primary with a write and a delete. If primary is nil or
// the check fails, the store uses only the in-process fallback for the rest
// of its life.
func NewStore(ctx context.Context, primary Cache, logger *zap.Logger, opts ...Option) *Store {
	fallback, _ := local.NewCache(local.Config{})
	s := &Store{
		primary:  primary,
		fallback: fallback,
		prefix:   DefaultKeyPrefix,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.primary == nil {
		s.logger.Warn("cache store: no primary backend, using in-process fallback")
		return s
	}
	if err := s.checkPrimary(ctx); err != nil {
		s.logger.Warn("cache store: primary backend failed write check, using in-process fallback", zap.Error(err))
		s.primary = nil
	}
	return s
}

func (s *Store) checkPrimary(ctx context.Context) error {
	key := s.prefix + healthKey
	if err := s.primary.Set(ctx, key, `"ok"`, time.Minute); err != nil {
		return fmt.Errorf("write check: %w", err)
	}
	if err := s.primary.Del(ctx, key); err != nil {
		return fmt.Errorf("delete check: %w", err)
	}
	return nil
}

// Close stops the fallback's GC goroutine.
func (s *Store) Close() {
	s.fallback.Close()
}

// Backend reports which backend new writes go to first.
func (s *Store) Backend() string {
	if s.primary == nil {
		return "fallback"
	}
	return "primary"
}

func (s *Store) fullKey(key string) string { return s.prefix + key }

// Read returns the entry under key. Missing, undecodable and stale entries
// all read as absent.
func (s *Store) Read(ctx context.Context, key string) (*Entry, bool) {
	e, ok := s.load(ctx, key)
	if !ok || e.Stale(s.now()) {
		return nil, false
	}
	return e, true
}

// load returns the entry regardless of staleness.
func (s *Store) load(ctx context.Context, key string) (*Entry, bool) {
	full := s.fullKey(key)
	raw, ok := s.raw(ctx, full)
	if !ok {
		return nil, false
	}
	var e Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		s.logger.Warn("cache store: undecodable entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &e, true
}

// raw checks the fallback first: a key is only there when its last write
// could not go to the primary.
func (s *Store) raw(ctx context.Context, full string) (string, bool) {
	if v, err := s.fallback.Get(ctx, full); err == nil {
		return v, true
	}
	if s.primary == nil {
		return "", false
	}
	v, err := s.primary.Get(ctx, full)
	if err != nil {
		if !isNotFound(err) {
			s.logger.Warn("cache store: primary read failed", zap.String("key", full), zap.Error(err))
		}
		return "", false
	}
	return v, true
}

// Write stores data under key with the given TTL. Backend failures are
// absorbed by the fallback; only a data encoding error is returned.
func (s *Store) Write(ctx context.Context, key string, data interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("cache store: encode %s: %w", key, err)
	}
	value, err := json.Marshal(Entry{
		Data:     payload,
		CachedAt: s.now().UnixMilli(),
		TTL:      ttl.Milliseconds(),
	})
	if err != nil {
		return fmt.Errorf("cache store: encode %s: %w", key, err)
	}

	full := s.fullKey(key)
	keep := s.retention
	if keep > 0 && keep < ttl {
		keep = ttl
	}

	if s.primary != nil {
		if s.maxEntryBytes > 0 && len(value) > s.maxEntryBytes {
			s.logger.Warn("cache store: entry exceeds quota, writing to fallback",
				zap.String("key", key), zap.Int("bytes", len(value)), zap.Int("quota", s.maxEntryBytes))
		} else if err := s.primary.Set(ctx, full, string(value), keep); err != nil {
			s.logger.Warn("cache store: primary write failed, writing to fallback",
				zap.String("key", key), zap.Error(err))
		} else {
			_ = s.fallback.Del(ctx, full)
			return nil
		}
	}
	_ = s.fallback.Set(ctx, full, string(value), keep)
	return nil
}

// Clear deletes key from both backends.
func (s *Store) Clear(ctx context.Context, key string) error {
	full := s.fullKey(key)
	_ = s.fallback.Del(ctx, full)
	if s.primary != nil {
		if err := s.primary.Del(ctx, full); err != nil {
			return fmt.Errorf("cache store: clear %s: %w", key, err)
		}
	}
	return nil
}

// ClearAll deletes every key under the store's prefix and reports how
// many distinct keys were removed.
func (s *Store) ClearAll(ctx context.Context) (int, error) {
	keys, err := s.fullKeys(ctx)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	_ = s.fallback.Del(ctx, keys...)
	if s.primary != nil {
		if err := s.primary.Del(ctx, keys...); err != nil {
			return 0, fmt.Errorf("cache store: clear all: %w", err)
		}
	}
	return len(keys), nil
}

// Keys returns the logical keys currently stored, without the prefix.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	full, err := s.fullKeys(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(full))
	for i, k := range full {
		keys[i] = strings.TrimPrefix(k, s.prefix)
	}
	return keys, nil
}

func (s *Store) fullKeys(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	fb, _ := s.fallback.Keys(ctx, s.prefix)
	for _, k := range fb {
		seen[k] = struct{}{}
	}
	if s.primary != nil {
		pk, err := s.primary.Keys(ctx, s.prefix)
		if err != nil {
			return nil, fmt.Errorf("cache store: list keys: %w", err)
		}
		for _, k := range pk {
			seen[k] = struct{}{}
		}
	}
	delete(seen, s.prefix+healthKey)
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Status reports age and expiry of key. Cached is true whenever an entry
// exists, stale or not.
func (s *Store) Status(ctx context.Context, key string) Status {
	st := Status{Key: key}
	e, ok := s.load(ctx, key)
	if !ok {
		return st
	}
	now := s.now()
	age := now.UnixMilli() - e.CachedAt
	st.Cached = true
	st.Stale = e.Stale(now)
	st.AgeMs = age
	st.TTLMs = e.TTL
	st.CachedAt = e.CachedAt
	if left := e.TTL - age; left > 0 {
		st.ExpiresInMs = left
	}
	return st
}
