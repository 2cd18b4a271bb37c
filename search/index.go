// Package search keeps a flat, type-tagged index of every primary entity
// and ranks name matches against it.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// DefaultLimit is the result count of a search that names no limit.
const DefaultLimit = 25

// ErrNoSources is wrapped by the error of a build in which no source loaded.
var ErrNoSources = errors.New("search: no source could be loaded")

type EntryType string

const (
	TypeItem   EntryType = "item"
	TypeEnemy  EntryType = "enemy"
	TypeQuest  EntryType = "quest"
	TypeTrader EntryType = "trader"
)

// Entry is one searchable entity.
type Entry struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Type     EntryType `json:"type"`
	Category string    `json:"category,omitempty"`
	Rarity   string    `json:"rarity,omitempty"`
	Icon     string    `json:"icon,omitempty"`
}

// Source loads the entries of one entity type.
type Source struct {
	Type EntryType
	Load func(ctx context.Context, force bool) ([]Entry, error)
}

type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// Snapshot is the observable state of an Index.
type Snapshot struct {
	State     State             `json:"state"`
	Size      int               `json:"size"`
	Breakdown map[EntryType]int `json:"breakdown"`
	Error     string            `json:"error,omitempty"`
	BuiltAt   *time.Time        `json:"built_at,omitempty"`
}

// Options narrows a search. A zero Limit means the index default; an empty
// Type matches every type.
type Options struct {
	Limit int
	Type  EntryType
}

// Index is built from its sources as a whole and swapped in at once; readers
// never see a partial index.
type Index struct {
	sources      []Source
	defaultLimit int
	logger       *zap.Logger
	flight       singleflight.Group

	mu        sync.RWMutex
	state     State
	entries   []Entry
	breakdown map[EntryType]int
	err       error
	builtAt   time.Time
	gen       int
	forced    bool // the build of gen fetches fresh sources
}

func NewIndex(sources []Source, defaultLimit int, logger *zap.Logger) *Index {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	return &Index{
		sources:      sources,
		defaultLimit: defaultLimit,
		logger:       logger,
		state:        StateIdle,
	}
}

// Build returns the index entries, building them when the index is not
// ready. Concurrent callers share one build. force discards the index and
// any non-forced build in flight, then rebuilds from freshly fetched
// sources; concurrent forced callers share that rebuild. A build in which
// every source fails leaves the index in the error state and returns the
// error; any later Build starts over.
func (x *Index) Build(ctx context.Context, force bool) ([]Entry, error) {
	x.mu.Lock()
	if x.state == StateReady && !force {
		entries := x.entries
		x.mu.Unlock()
		return entries, nil
	}
	if force && !x.forced {
		x.resetLocked()
		x.forced = true
	}
	gen := x.gen
	x.mu.Unlock()

	v, err, _ := x.flight.Do(fmt.Sprintf("build:%d", gen), func() (interface{}, error) {
		return x.build(context.WithoutCancel(ctx), gen, force)
	})
	if err != nil {
		return nil, err
	}
	return v.([]Entry), nil
}

func (x *Index) build(ctx context.Context, gen int, force bool) ([]Entry, error) {
	x.mu.Lock()
	if x.gen == gen && x.state == StateReady {
		entries := x.entries
		x.mu.Unlock()
		return entries, nil
	}
	if x.gen == gen {
		x.state = StateLoading
		x.err = nil
		force = force || x.forced
	}
	x.mu.Unlock()

	start := time.Now()
	results := make([][]Entry, len(x.sources))
	errs := make([]error, len(x.sources))
	var g errgroup.Group
	for i, src := range x.sources {
		g.Go(func() error {
			results[i], errs[i] = src.Load(ctx, force)
			return nil
		})
	}
	_ = g.Wait()

	var entries []Entry
	var failed []error
	breakdown := make(map[EntryType]int)
	for i, src := range x.sources {
		if errs[i] != nil {
			x.logger.Warn("search: source failed, omitting its entries",
				zap.String("type", string(src.Type)), zap.Error(errs[i]))
			failed = append(failed, fmt.Errorf("%s: %w", src.Type, errs[i]))
			continue
		}
		entries = append(entries, results[i]...)
		breakdown[src.Type] += len(results[i])
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if len(x.sources) == 0 || len(failed) == len(x.sources) {
		err := ErrNoSources
		if len(failed) > 0 {
			err = fmt.Errorf("%w: %w", ErrNoSources, errors.Join(failed...))
		}
		if x.gen == gen {
			x.state = StateError
			x.err = err
			x.forced = false
		}
		x.logger.Error("search: index build failed", zap.Error(err))
		return nil, err
	}
	if entries == nil {
		entries = []Entry{}
	}
	if x.gen == gen {
		x.state = StateReady
		x.entries = entries
		x.breakdown = breakdown
		x.err = nil
		x.builtAt = time.Now()
		x.forced = false
	}
	x.logger.Info("search: index ready",
		zap.Int("size", len(entries)),
		zap.Int("failed_sources", len(failed)),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return entries, nil
}

// Search ranks the entries whose name matches query, case-insensitively:
// exact match first, then name prefix, then word prefix, then substring;
// ties sort by name. It returns an empty result while the index is not
// ready or the query is blank.
func (x *Index) Search(query string, opts Options) []Entry {
	x.mu.RLock()
	state, entries := x.state, x.entries
	x.mu.RUnlock()
	if state != StateReady {
		x.logger.Warn("search: index not ready", zap.String("state", string(state)))
		return []Entry{}
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []Entry{}
	}

	type hit struct {
		tier  int
		lower string
		entry Entry
	}
	var hits []hit
	for _, e := range entries {
		if opts.Type != "" && e.Type != opts.Type {
			continue
		}
		lower := strings.ToLower(e.Name)
		if tier := matchTier(lower, q); tier >= 0 {
			hits = append(hits, hit{tier: tier, lower: lower, entry: e})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].tier != hits[j].tier {
			return hits[i].tier < hits[j].tier
		}
		if hits[i].lower != hits[j].lower {
			return hits[i].lower < hits[j].lower
		}
		return hits[i].entry.Name < hits[j].entry.Name
	})

	limit := opts.Limit
	if limit <= 0 {
		limit = x.defaultLimit
	}
	if len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]Entry, len(hits))
	for i, h := range hits {
		out[i] = h.entry
	}
	return out
}

// matchTier ranks a lowercased name against a lowercased query, or returns
// -1 when it does not match. Every word counts for word prefix, the first
// one included.
func matchTier(name, q string) int {
	if name == q {
		return 0
	}
	if strings.HasPrefix(name, q) {
		return 1
	}
	for _, w := range strings.Fields(name) {
		if strings.HasPrefix(w, q) {
			return 2
		}
	}
	if strings.Contains(name, q) {
		return 3
	}
	return -1
}

// State returns a snapshot of the index state.
func (x *Index) State() Snapshot {
	x.mu.RLock()
	defer x.mu.RUnlock()
	s := Snapshot{
		State:     x.state,
		Size:      len(x.entries),
		Breakdown: make(map[EntryType]int, len(x.breakdown)),
	}
	for k, v := range x.breakdown {
		s.Breakdown[k] = v
	}
	if x.err != nil {
		s.Error = x.err.Error()
	}
	if !x.builtAt.IsZero() {
		t := x.builtAt
		s.BuiltAt = &t
	}
	return s
}

// Clear drops the index and returns it to idle. A build in flight when
// Clear is called does not repopulate it.
func (x *Index) Clear() {
	x.mu.Lock()
	x.resetLocked()
	x.mu.Unlock()
}

func (x *Index) resetLocked() {
	x.state = StateIdle
	x.entries = nil
	x.breakdown = nil
	x.err = nil
	x.builtAt = time.Time{}
	x.forced = false
	x.gen++
}
