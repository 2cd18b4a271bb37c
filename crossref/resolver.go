// Package crossref joins secondary-provider records onto primary items by
// display name.
package crossref

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/kasuganosora/raiderdex/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// detailConcurrency caps the detail requests in flight for one call.
const detailConcurrency = 8

// Source is the secondary provider as the resolver uses it.
type Source interface {
	Items(ctx context.Context, force bool) ([]model.SecondaryRecord, error)
	ItemDetail(ctx context.Context, id string, force bool) (*model.SecondaryDetail, error)
}

// Table maps trimmed, lowercased display names to secondary records.
type Table map[string]model.SecondaryRecord

func normalize(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

// NewTable indexes records by name. When two records share a name the
// later one wins.
func NewTable(records []model.SecondaryRecord) Table {
	t := make(Table, len(records))
	for _, r := range records {
		t[normalize(r.Name)] = r
	}
	return t
}

// Lookup matches name exactly, ignoring case and surrounding whitespace.
func (t Table) Lookup(name string) (model.SecondaryRecord, bool) {
	r, ok := t[normalize(name)]
	return r, ok
}

// Lookup is Table.Lookup for callers holding a possibly nil table.
func Lookup(name string, t Table) (model.SecondaryRecord, bool) {
	if t == nil {
		return model.SecondaryRecord{}, false
	}
	return t.Lookup(name)
}

// Resolver builds the cross-reference table once and serves it until Reset.
type Resolver struct {
	src      Source
	iconBase string
	logger   *zap.Logger
	flight   singleflight.Group

	mu    sync.RWMutex
	table Table
	gen   int
}

func NewResolver(src Source, iconBase string, logger *zap.Logger) *Resolver {
	return &Resolver{src: src, iconBase: iconBase, logger: logger}
}

// Build returns the cross-reference table, fetching the secondary list on
// first use. Concurrent callers share one build. A failed build is not
// remembered; the next call tries again.
func (r *Resolver) Build(ctx context.Context) (Table, error) {
	r.mu.RLock()
	t, gen := r.table, r.gen
	r.mu.RUnlock()
	if t != nil {
		return t, nil
	}

	v, err, _ := r.flight.Do("build:"+strconv.Itoa(gen), func() (interface{}, error) {
		r.mu.RLock()
		done := r.table
		r.mu.RUnlock()
		if done != nil {
			return done, nil
		}
		records, err := r.src.Items(context.WithoutCancel(ctx), false)
		if err != nil {
			return nil, err
		}
		t := NewTable(records)
		r.mu.Lock()
		if r.gen == gen {
			r.table = t
		}
		r.mu.Unlock()
		r.logger.Info("crossref: table built", zap.Int("records", len(records)), zap.Int("names", len(t)))
		return t, nil
	})
	if err != nil {
		r.logger.Warn("crossref: build failed", zap.Error(err))
		return nil, err
	}
	return v.(Table), nil
}

// Built reports whether a table is currently held.
func (r *Resolver) Built() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.table != nil
}

// Reset drops the table. A build in flight when Reset is called does not
// repopulate it.
func (r *Resolver) Reset() {
	r.mu.Lock()
	r.table = nil
	r.gen++
	r.mu.Unlock()
}

// Details fetches the detail record of every member that has a match in t,
// concurrently. A failed fetch is logged and leaves that member out.
// The result is keyed by primary item id.
func (r *Resolver) Details(ctx context.Context, members []model.Item, t Table) map[string]*model.SecondaryDetail {
	out := make(map[string]*model.SecondaryDetail)
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(detailConcurrency)
	for _, m := range members {
		rec, ok := Lookup(m.Name, t)
		if !ok {
			continue
		}
		g.Go(func() error {
			d, err := r.src.ItemDetail(ctx, rec.ID, false)
			if err != nil {
				r.logger.Warn("crossref: detail fetch failed",
					zap.String("item", m.ID), zap.String("secondary_id", rec.ID), zap.Error(err))
				return nil
			}
			mu.Lock()
			out[m.ID] = r.withIcons(d)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Supplement is the cross-reference data of one item group.
type Supplement struct {
	// Records holds the matched secondary record per primary item id.
	Records map[string]model.SecondaryRecord  `json:"records"`
	Details map[string]*model.SecondaryDetail `json:"details"`
}

// ForMembers resolves the members of one group. An unavailable secondary
// provider yields an empty supplement, never an error.
func (r *Resolver) ForMembers(ctx context.Context, members []model.Item) Supplement {
	s := Supplement{
		Records: make(map[string]model.SecondaryRecord),
		Details: make(map[string]*model.SecondaryDetail),
	}
	t, err := r.Build(ctx)
	if err != nil {
		return s
	}
	for _, m := range members {
		if rec, ok := t.Lookup(m.Name); ok {
			rec.Icon = model.ResolveIcon(r.iconBase, rec.Icon)
			s.Records[m.ID] = rec
		}
	}
	s.Details = r.Details(ctx, members, t)
	return s
}

// withIcons returns a copy of d with absolute icon URLs. d itself may be
// shared with other callers of the same in-flight fetch.
func (r *Resolver) withIcons(d *model.SecondaryDetail) *model.SecondaryDetail {
	out := *d
	out.Icon = model.ResolveIcon(r.iconBase, d.Icon)
	out.Recipe = r.ingredientIcons(d.Recipe)
	out.RecyclesInto = r.ingredientIcons(d.RecyclesInto)
	out.SalvagesInto = r.ingredientIcons(d.SalvagesInto)
	if d.UsedIn != nil {
		out.UsedIn = make([]model.ItemRef, len(d.UsedIn))
		for i, ref := range d.UsedIn {
			ref.Icon = model.ResolveIcon(r.iconBase, ref.Icon)
			out.UsedIn[i] = ref
		}
	}
	return &out
}

func (r *Resolver) ingredientIcons(in []model.Ingredient) []model.Ingredient {
	if in == nil {
		return nil
	}
	out := make([]model.Ingredient, len(in))
	for i, ing := range in {
		ing.Icon = model.ResolveIcon(r.iconBase, ing.Icon)
		out[i] = ing
	}
	return out
}
