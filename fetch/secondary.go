package fetch

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/kasuganosora/raiderdex/cache"
	"github.com/kasuganosora/raiderdex/model"
	"go.uber.org/zap"
)

const (
	DatasetSecondaryItems = "items"
	detailPrefix          = "item-detail:"
)

type SecondaryTTL struct {
	Items   time.Duration
	Details time.Duration
}

type SecondaryConfig struct {
	Client ClientConfig
	TTL    SecondaryTTL
}

// Secondary is the fetch service of the secondary provider: the flat item
// list and per-item detail records.
type Secondary struct {
	svc *service
	ttl SecondaryTTL
}

func NewSecondary(cfg SecondaryConfig, store *cache.Store, logger *zap.Logger) *Secondary {
	return &Secondary{
		svc: &service{
			provider: "secondary",
			client:   NewClient(cfg.Client, logger),
			store:    store,
			logger:   logger,
		},
		ttl: cfg.TTL,
	}
}

// Datasets lists the secondary list dataset. Detail entries are keyed per
// item under DetailKey.
func (s *Secondary) Datasets() []DatasetInfo {
	return []DatasetInfo{
		{Name: DatasetSecondaryItems, Key: s.svc.key(DatasetSecondaryItems), TTL: s.ttl.Items},
	}
}

// DetailKey is the cache key of the detail record of id.
func (s *Secondary) DetailKey(id string) string { return s.svc.key(detailPrefix + id) }

// Items returns the full secondary item list.
func (s *Secondary) Items(ctx context.Context, force bool) ([]model.SecondaryRecord, error) {
	return readThrough(ctx, s.svc, DatasetSecondaryItems, s.ttl.Items, force, func(ctx context.Context) ([]model.SecondaryRecord, error) {
		endpoint := s.svc.endpoint(DatasetSecondaryItems)
		status, body, err := s.svc.client.Get(ctx, endpoint, "/items", nil)
		if err != nil {
			return nil, err
		}
		records, err := decodeRecords[model.SecondaryRecord](body)
		if err != nil {
			return nil, invalidResponse(endpoint, status, err)
		}
		s.svc.logger.Info("fetch: dataset loaded", zap.String("dataset", s.svc.key(DatasetSecondaryItems)), zap.Int("records", len(records)))
		return records, nil
	})
}

// ItemDetail returns the detail record of one secondary item.
func (s *Secondary) ItemDetail(ctx context.Context, id string, force bool) (*model.SecondaryDetail, error) {
	id = strings.TrimSpace(id)
	dataset := detailPrefix + id
	return readThrough(ctx, s.svc, dataset, s.ttl.Details, force, func(ctx context.Context) (*model.SecondaryDetail, error) {
		endpoint := s.svc.endpoint("item detail")
		status, body, err := s.svc.client.Get(ctx, endpoint, "/items/"+url.PathEscape(id), nil)
		if err != nil {
			return nil, err
		}
		d, err := decodeObject[model.SecondaryDetail](body)
		if err != nil {
			return nil, invalidResponse(endpoint, status, err)
		}
		return d, nil
	})
}

// PrefetchAll loads the secondary list dataset.
func (s *Secondary) PrefetchAll(ctx context.Context, force bool) PrefetchResult {
	return prefetch(ctx, s.svc.logger, []prefetchTask{
		{s.svc.key(DatasetSecondaryItems), func(ctx context.Context) error { _, err := s.Items(ctx, force); return err }},
	})
}
