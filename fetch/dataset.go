package fetch

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kasuganosora/raiderdex/cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DatasetInfo describes one cached dataset of a provider.
type DatasetInfo struct {
	Name string        `json:"name"`
	Key  string        `json:"key"`
	TTL  time.Duration `json:"ttl"`
}

// service is the read-through machinery shared by both providers.
type service struct {
	provider string
	client   *Client
	store    *cache.Store
	flight   singleflight.Group
	logger   *zap.Logger
}

func (s *service) key(dataset string) string { return s.provider + ":" + dataset }

func (s *service) endpoint(dataset string) string { return s.provider + " " + dataset }

// readThrough returns the cached value of dataset when fresh, otherwise runs
// load once for all concurrent callers and caches its result for ttl.
func readThrough[T any](ctx context.Context, s *service, dataset string, ttl time.Duration, force bool, load func(context.Context) (T, error)) (T, error) {
	key := s.key(dataset)
	if !force {
		if v, ok := cached[T](ctx, s, key); ok {
			return v, nil
		}
	}

	// The shared load outlives any single caller.
	shared := context.WithoutCancel(ctx)
	v, err, joined := s.flight.Do(key, func() (interface{}, error) {
		res, err := load(shared)
		if err != nil {
			return nil, err
		}
		if err := s.store.Write(shared, key, res, ttl); err != nil {
			s.logger.Warn("fetch: cache write failed", zap.String("dataset", key), zap.Error(err))
		}
		return res, nil
	})
	if joined {
		s.logger.Debug("fetch: joined in-flight request", zap.String("dataset", key))
	}
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func cached[T any](ctx context.Context, s *service, key string) (T, bool) {
	var v T
	e, ok := s.store.Read(ctx, key)
	if !ok {
		s.logger.Debug("fetch: cache miss", zap.String("dataset", key))
		return v, false
	}
	if err := json.Unmarshal(e.Data, &v); err != nil {
		s.logger.Warn("fetch: cached dataset does not decode", zap.String("dataset", key), zap.Error(err))
		var zero T
		return zero, false
	}
	s.logger.Debug("fetch: cache hit", zap.String("dataset", key))
	return v, true
}
