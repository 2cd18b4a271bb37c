package fetch

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/kasuganosora/raiderdex/cache"
	"github.com/kasuganosora/raiderdex/model"
	"go.uber.org/zap"
)

// Primary-provider dataset names.
const (
	DatasetItems       = "items"
	DatasetArcs        = "arcs"
	DatasetQuests      = "quests"
	DatasetTraders     = "traders"
	DatasetEventTimers = "event-timers"
)

// ErrNotFound is returned by single-record lookups over a fetched dataset.
var ErrNotFound = errors.New("fetch: record not found")

// PrimaryTTL holds the TTL of each primary dataset.
type PrimaryTTL struct {
	Items       time.Duration
	Arcs        time.Duration
	Quests      time.Duration
	Traders     time.Duration
	EventTimers time.Duration
}

type PrimaryConfig struct {
	Client    ClientConfig
	PageLimit int
	MaxPages  int
	TTL       PrimaryTTL
}

// Primary is the fetch service of the primary provider: paginated items,
// ARC enemies, quests, the keyed trader map and event timers.
type Primary struct {
	svc       *service
	pageLimit int
	maxPages  int
	ttl       PrimaryTTL
}

func NewPrimary(cfg PrimaryConfig, store *cache.Store, logger *zap.Logger) *Primary {
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = 100
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 50
	}
	return &Primary{
		svc: &service{
			provider: "primary",
			client:   NewClient(cfg.Client, logger),
			store:    store,
			logger:   logger,
		},
		pageLimit: cfg.PageLimit,
		maxPages:  cfg.MaxPages,
		ttl:       cfg.TTL,
	}
}

// Datasets lists the primary datasets in declaration order.
func (p *Primary) Datasets() []DatasetInfo {
	return []DatasetInfo{
		{Name: DatasetItems, Key: p.svc.key(DatasetItems), TTL: p.ttl.Items},
		{Name: DatasetArcs, Key: p.svc.key(DatasetArcs), TTL: p.ttl.Arcs},
		{Name: DatasetQuests, Key: p.svc.key(DatasetQuests), TTL: p.ttl.Quests},
		{Name: DatasetTraders, Key: p.svc.key(DatasetTraders), TTL: p.ttl.Traders},
		{Name: DatasetEventTimers, Key: p.svc.key(DatasetEventTimers), TTL: p.ttl.EventTimers},
	}
}

func (p *Primary) Items(ctx context.Context, force bool) ([]model.Item, error) {
	return readThrough(ctx, p.svc, DatasetItems, p.ttl.Items, force, func(ctx context.Context) ([]model.Item, error) {
		return fetchPages[model.Item](ctx, p, DatasetItems, "/items")
	})
}

// Enemies returns the ARC dataset.
func (p *Primary) Enemies(ctx context.Context, force bool) ([]model.Enemy, error) {
	return readThrough(ctx, p.svc, DatasetArcs, p.ttl.Arcs, force, func(ctx context.Context) ([]model.Enemy, error) {
		return fetchPages[model.Enemy](ctx, p, DatasetArcs, "/arcs")
	})
}

func (p *Primary) Quests(ctx context.Context, force bool) ([]model.Quest, error) {
	return readThrough(ctx, p.svc, DatasetQuests, p.ttl.Quests, force, func(ctx context.Context) ([]model.Quest, error) {
		return fetchPages[model.Quest](ctx, p, DatasetQuests, "/quests")
	})
}

// Traders returns the trader map keyed by trader name.
func (p *Primary) Traders(ctx context.Context, force bool) (model.TraderMap, error) {
	return readThrough(ctx, p.svc, DatasetTraders, p.ttl.Traders, force, func(ctx context.Context) (model.TraderMap, error) {
		endpoint := p.svc.endpoint(DatasetTraders)
		status, body, err := p.svc.client.Get(ctx, endpoint, "/traders", nil)
		if err != nil {
			return nil, err
		}
		m, err := decodeKeyed[model.TraderOffer](body)
		if err != nil {
			return nil, invalidResponse(endpoint, status, err)
		}
		p.svc.logger.Info("fetch: dataset loaded", zap.String("dataset", p.svc.key(DatasetTraders)), zap.Int("records", len(m)))
		return model.TraderMap(m), nil
	})
}

func (p *Primary) EventTimers(ctx context.Context, force bool) ([]model.EventTimer, error) {
	return readThrough(ctx, p.svc, DatasetEventTimers, p.ttl.EventTimers, force, func(ctx context.Context) ([]model.EventTimer, error) {
		return fetchPages[model.EventTimer](ctx, p, DatasetEventTimers, "/event-timers")
	})
}

// Item returns the item with the given id.
func (p *Primary) Item(ctx context.Context, id string) (*model.Item, error) {
	items, err := p.Items(ctx, false)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			return &items[i], nil
		}
	}
	return nil, ErrNotFound
}

func (p *Primary) Enemy(ctx context.Context, id string) (*model.Enemy, error) {
	enemies, err := p.Enemies(ctx, false)
	if err != nil {
		return nil, err
	}
	for i := range enemies {
		if enemies[i].ID == id {
			return &enemies[i], nil
		}
	}
	return nil, ErrNotFound
}

func (p *Primary) Quest(ctx context.Context, id string) (*model.Quest, error) {
	quests, err := p.Quests(ctx, false)
	if err != nil {
		return nil, err
	}
	for i := range quests {
		if quests[i].ID == id {
			return &quests[i], nil
		}
	}
	return nil, ErrNotFound
}

// Trader returns the offers of the named trader, matched case-insensitively,
// and the trader's name as the provider spells it.
func (p *Primary) Trader(ctx context.Context, name string) (string, []model.TraderOffer, error) {
	traders, err := p.Traders(ctx, false)
	if err != nil {
		return "", nil, err
	}
	want := strings.TrimSpace(name)
	for _, n := range traders.Names() {
		if strings.EqualFold(n, want) {
			return n, traders[n], nil
		}
	}
	return "", nil, ErrNotFound
}

// PrefetchAll loads every primary dataset concurrently. It never fails as
// a whole; failures are reported per dataset.
func (p *Primary) PrefetchAll(ctx context.Context, force bool) PrefetchResult {
	k := p.svc.key
	return prefetch(ctx, p.svc.logger, []prefetchTask{
		{k(DatasetItems), func(ctx context.Context) error { _, err := p.Items(ctx, force); return err }},
		{k(DatasetArcs), func(ctx context.Context) error { _, err := p.Enemies(ctx, force); return err }},
		{k(DatasetQuests), func(ctx context.Context) error { _, err := p.Quests(ctx, force); return err }},
		{k(DatasetTraders), func(ctx context.Context) error { _, err := p.Traders(ctx, force); return err }},
		{k(DatasetEventTimers), func(ctx context.Context) error { _, err := p.EventTimers(ctx, force); return err }},
	})
}

// fetchPages follows the pagination envelope from page 1 until the provider
// reports no further page, concatenating records in page order.
func fetchPages[T any](ctx context.Context, p *Primary, dataset, path string) ([]T, error) {
	endpoint := p.svc.endpoint(dataset)
	all := make([]T, 0)
	for page := 1; ; page++ {
		query := map[string]string{
			"page":  strconv.Itoa(page),
			"limit": strconv.Itoa(p.pageLimit),
		}
		status, body, err := p.svc.client.Get(ctx, endpoint, path, query)
		if err != nil {
			return nil, err
		}
		records, pg, err := decodePage[T](body)
		if err != nil {
			return nil, invalidResponse(endpoint, status, err)
		}
		all = append(all, records...)
		p.svc.logger.Debug("fetch: page loaded",
			zap.String("dataset", p.svc.key(dataset)), zap.Int("page", page), zap.Int("records", len(records)))

		if !pg.more(page) {
			break
		}
		if page >= p.maxPages {
			p.svc.logger.Warn("fetch: page cap reached", zap.String("dataset", p.svc.key(dataset)), zap.Int("page", page))
			break
		}
	}
	p.svc.logger.Info("fetch: dataset loaded", zap.String("dataset", p.svc.key(dataset)), zap.Int("records", len(all)))
	return all, nil
}
