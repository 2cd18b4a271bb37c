package fetch

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/kasuganosora/raiderdex/cache"
	"github.com/kasuganosora/raiderdex/model"
	"github.com/kasuganosora/raiderdex/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testTTL = PrimaryTTL{
	Items:       30 * time.Minute,
	Arcs:        30 * time.Minute,
	Quests:      30 * time.Minute,
	Traders:     15 * time.Minute,
	EventTimers: 5 * time.Minute,
}

func newTestPrimary(t *testing.T, baseURL string, store *cache.Store) *Primary {
	t.Helper()
	if store == nil {
		store = testutil.SetupTestStore(t)
	}
	return NewPrimary(PrimaryConfig{
		Client:    ClientConfig{BaseURL: baseURL, Timeout: 5 * time.Second},
		PageLimit: 100,
		MaxPages:  10,
		TTL:       testTTL,
	}, store, zap.NewNop())
}

func itemPage(from, n int) []model.Item {
	items := make([]model.Item, n)
	for i := range items {
		items[i] = model.Item{ID: fmt.Sprintf("item-%d", from+i), Name: fmt.Sprintf("Item %d", from+i)}
	}
	return items
}

func TestPrimary_PaginationMerge(t *testing.T) {
	up := testutil.NewUpstream(t)
	sizes := []int{100, 100, 27}
	up.Handle("/items", func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		if page < 1 || page > len(sizes) {
			http.Error(w, "bad page", http.StatusBadRequest)
			return
		}
		testutil.WriteJSON(w, http.StatusOK, testutil.Page(itemPage((page-1)*100, sizes[page-1]), page, len(sizes)))
	})

	p := newTestPrimary(t, up.URL, nil)
	items, err := p.Items(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, items, 227)
	for i, it := range items {
		assert.Equal(t, fmt.Sprintf("item-%d", i), it.ID)
	}
	assert.Equal(t, 3, up.Calls("/items"))
}

func TestPrimary_PaginationSignals(t *testing.T) {
	tests := []struct {
		name       string
		pagination map[string]interface{}
		wantCalls  int
	}{
		{"hasNextPage wins", map[string]interface{}{"hasNextPage": false, "totalPages": 5}, 1},
		{"totalPages only", map[string]interface{}{"totalPages": 3}, 3},
		{"no signal", map[string]interface{}{}, 1},
		{"always more stops at cap", map[string]interface{}{"hasNextPage": true}, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := testutil.NewUpstream(t)
			up.Handle("/quests", func(w http.ResponseWriter, r *http.Request) {
				testutil.WriteJSON(w, http.StatusOK, map[string]interface{}{
					"data":       []model.Quest{{ID: "q", Name: "Q"}},
					"pagination": tt.pagination,
				})
			})
			p := newTestPrimary(t, up.URL, nil)
			quests, err := p.Quests(context.Background(), false)
			require.NoError(t, err)
			assert.Len(t, quests, tt.wantCalls)
			assert.Equal(t, tt.wantCalls, up.Calls("/quests"))
		})
	}
}

func TestPrimary_ConcurrentCallsShareOneRequest(t *testing.T) {
	up := testutil.NewUpstream(t)
	release := make(chan struct{})
	up.Handle("/arcs", func(w http.ResponseWriter, r *http.Request) {
		<-release
		testutil.WriteJSON(w, http.StatusOK, testutil.Page([]model.Enemy{{ID: "tick", Name: "Tick"}}, 1, 1))
	})
	p := newTestPrimary(t, up.URL, nil)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = p.Enemies(context.Background(), false)
		}()
	}
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, up.Calls("/arcs"))
}

func TestPrimary_ReadThroughAndForceRefresh(t *testing.T) {
	up := testutil.NewUpstream(t)
	up.JSON("/event-timers", testutil.Page([]model.EventTimer{{Name: "Night Raid", Map: "dam"}}, 1, 1))
	p := newTestPrimary(t, up.URL, nil)
	ctx := context.Background()

	first, err := p.EventTimers(ctx, false)
	require.NoError(t, err)
	second, err := p.EventTimers(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, up.Calls("/event-timers"))

	_, err = p.EventTimers(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 2, up.Calls("/event-timers"))
}

func TestPrimary_StaleEntryRefetches(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time { mu.Lock(); defer mu.Unlock(); return now }
	up := testutil.NewUpstream(t)
	up.JSON("/event-timers", testutil.Page([]model.EventTimer{{Name: "Storm"}}, 1, 1))
	p := newTestPrimary(t, up.URL, testutil.SetupTestStore(t, cache.WithClock(clock)))
	ctx := context.Background()

	_, err := p.EventTimers(ctx, false)
	require.NoError(t, err)
	mu.Lock()
	now = now.Add(testTTL.EventTimers + time.Second)
	mu.Unlock()
	_, err = p.EventTimers(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 2, up.Calls("/event-timers"))
}

func TestPrimary_TradersUnwrapKeyedMap(t *testing.T) {
	up := testutil.NewUpstream(t)
	up.JSON("/traders", map[string]interface{}{
		"success": true,
		"data": map[string][]model.TraderOffer{
			"Celeste": {{ID: "bandage", Name: "Bandage", Value: 50}},
			"Tian Wen": {{ID: "anvil-i", Name: "Anvil I", Value: 1200}},
		},
	})
	p := newTestPrimary(t, up.URL, nil)
	ctx := context.Background()

	traders, err := p.Traders(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Celeste", "Tian Wen"}, traders.Names())

	name, offers, err := p.Trader(ctx, "tian wen")
	require.NoError(t, err)
	assert.Equal(t, "Tian Wen", name)
	require.Len(t, offers, 1)
	assert.Equal(t, "anvil-i", offers[0].ID)

	_, _, err = p.Trader(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPrimary_BareTraderMap(t *testing.T) {
	up := testutil.NewUpstream(t)
	up.JSON("/traders", map[string][]model.TraderOffer{"Lance": {{ID: "x", Name: "X"}}})
	p := newTestPrimary(t, up.URL, nil)

	traders, err := p.Traders(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, traders["Lance"], 1)
}

func TestPrimary_SingleRecordLookups(t *testing.T) {
	up := testutil.NewUpstream(t)
	up.JSON("/items", testutil.Page(itemPage(0, 3), 1, 1))
	up.JSON("/arcs", testutil.Page([]model.Enemy{{ID: "wasp", Name: "Wasp"}}, 1, 1))
	up.JSON("/quests", testutil.Page([]model.Quest{{ID: "q1", Name: "Picking Up"}}, 1, 1))
	p := newTestPrimary(t, up.URL, nil)
	ctx := context.Background()

	it, err := p.Item(ctx, "item-2")
	require.NoError(t, err)
	assert.Equal(t, "Item 2", it.Name)
	_, err = p.Item(ctx, "item-9")
	assert.ErrorIs(t, err, ErrNotFound)

	e, err := p.Enemy(ctx, "wasp")
	require.NoError(t, err)
	assert.Equal(t, "Wasp", e.Name)

	q, err := p.Quest(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, "Picking Up", q.Name)
	assert.Equal(t, 1, up.Calls("/items"))
}

func TestPrimary_ErrorTaxonomy(t *testing.T) {
	t.Run("network", func(t *testing.T) {
		up := testutil.NewUpstream(t)
		url := up.URL
		up.Close()
		p := newTestPrimary(t, url, nil)

		_, err := p.Items(context.Background(), false)
		fe, ok := AsError(err)
		require.True(t, ok)
		assert.Equal(t, KindNetwork, fe.Kind)
		assert.Zero(t, fe.StatusCode)
		assert.True(t, fe.Retryable)
		assert.Equal(t, "primary items", fe.Endpoint)
		assert.Contains(t, fe.Message, "primary items")
	})

	statuses := []struct {
		status    int
		retryable bool
	}{
		{http.StatusBadRequest, false},
		{http.StatusNotFound, false},
		{http.StatusRequestEntityTooLarge, false},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, false},
	}
	for _, tt := range statuses {
		t.Run(strconv.Itoa(tt.status), func(t *testing.T) {
			up := testutil.NewUpstream(t)
			up.Status("/quests", tt.status)
			p := newTestPrimary(t, up.URL, nil)

			_, err := p.Quests(context.Background(), false)
			fe, ok := AsError(err)
			require.True(t, ok)
			assert.Equal(t, KindHTTPStatus, fe.Kind)
			assert.Equal(t, tt.status, fe.StatusCode)
			assert.Equal(t, tt.retryable, fe.Retryable)
			assert.Equal(t, statusMessage(tt.status), fe.Message)
		})
	}

	t.Run("invalid body", func(t *testing.T) {
		up := testutil.NewUpstream(t)
		up.Handle("/items", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html>proxy error</html>"))
		})
		p := newTestPrimary(t, up.URL, nil)

		_, err := p.Items(context.Background(), false)
		fe, ok := AsError(err)
		require.True(t, ok)
		assert.Equal(t, KindInvalidResponse, fe.Kind)
		assert.Equal(t, http.StatusOK, fe.StatusCode)
		assert.False(t, fe.Retryable)
	})
}

func TestPrimary_FailureIsNotCached(t *testing.T) {
	up := testutil.NewUpstream(t)
	up.Status("/items", http.StatusInternalServerError)
	p := newTestPrimary(t, up.URL, nil)
	ctx := context.Background()

	_, err := p.Items(ctx, false)
	require.Error(t, err)

	up.JSON("/items", testutil.Page(itemPage(0, 2), 1, 1))
	items, err := p.Items(ctx, false)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestPrimary_PrefetchAllPartialFailure(t *testing.T) {
	up := testutil.NewUpstream(t)
	up.JSON("/items", testutil.Page(itemPage(0, 1), 1, 1))
	up.JSON("/arcs", testutil.Page([]model.Enemy{}, 1, 1))
	up.Status("/quests", http.StatusInternalServerError)
	up.JSON("/traders", map[string]interface{}{"data": map[string][]model.TraderOffer{}})
	up.JSON("/event-timers", testutil.Page([]model.EventTimer{}, 1, 1))
	p := newTestPrimary(t, up.URL, nil)

	res := p.PrefetchAll(context.Background(), false)
	assert.Equal(t, []string{"primary:items", "primary:arcs", "primary:traders", "primary:event-timers"}, res.Succeeded)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "primary:quests", res.Failed[0].Dataset)
	assert.True(t, IsRetryable(res.Failed[0].Err))
	assert.False(t, res.OK())
}

func TestPrimary_Datasets(t *testing.T) {
	p := newTestPrimary(t, "http://unused", nil)
	ds := p.Datasets()
	require.Len(t, ds, 5)
	assert.Equal(t, "primary:traders", ds[3].Key)
	assert.Equal(t, 15*time.Minute, ds[3].TTL)
}
