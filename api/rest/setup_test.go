package rest_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/raiderdex/api/rest"
	"github.com/kasuganosora/raiderdex/cache"
	"github.com/kasuganosora/raiderdex/catalog"
	"github.com/kasuganosora/raiderdex/crossref"
	"github.com/kasuganosora/raiderdex/fetch"
	"github.com/kasuganosora/raiderdex/model"
	"github.com/kasuganosora/raiderdex/scheduler"
	"github.com/kasuganosora/raiderdex/search"
	"github.com/kasuganosora/raiderdex/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	adminKey = "secret"
	iconBase = "https://cdn.example.com"
)

type harness struct {
	router    *gin.Engine
	primary   *testutil.Upstream
	secondary *testutil.Upstream
	store     *cache.Store
	index     *search.Index
	resolver  *crossref.Resolver
	sched     *scheduler.Scheduler
}

var fixtureItems = []model.Item{
	{ID: "tempest-i", Name: "Tempest I", ItemType: "Assault Rifle", Rarity: "Rare", Icon: "icons/tempest-1.png",
		LootArea: "Industrial, Residential"},
	{ID: "tempest-ii", Name: "Tempest II", ItemType: "Assault Rifle", Rarity: "Epic", Icon: "icons/tempest-2.png"},
	{ID: "tempest-blueprint", Name: "Tempest Blueprint", ItemType: "Blueprint", Rarity: "Legendary"},
	{ID: "bandage", Name: "Bandage", ItemType: "Medical", Rarity: "Common"},
	{ID: "goo", Name: "Strange Goo", ItemType: "Mystery"},
}

// newHarness wires real fetch services against fake upstreams serving the
// fixture datasets.
func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		primary:   testutil.NewUpstream(t),
		secondary: testutil.NewUpstream(t),
		store:     testutil.SetupTestStore(t),
	}
	h.primary.JSON("/items", testutil.Page(fixtureItems, 1, 1))
	h.primary.JSON("/arcs", testutil.Page([]model.Enemy{
		{ID: "tick", Name: "Tick", Threat: "Low", Icon: "arcs/tick.png",
			Loot: []model.ItemRef{{ID: "gear", Name: "Gear", Icon: "icons/gear.png"}}},
	}, 1, 1))
	h.primary.JSON("/quests", testutil.Page([]model.Quest{{ID: "q1", Name: "A Tempest Brewing", Trader: "Celeste"}}, 1, 1))
	h.primary.JSON("/traders", map[string]interface{}{"data": map[string][]model.TraderOffer{
		"Celeste":  {{ID: "bandage", Name: "Bandage", Icon: "icons/bandage.png", Value: 50}},
		"Tian Wen": {},
	}})
	h.primary.JSON("/event-timers", testutil.Page([]model.EventTimer{{Name: "Night Raid", Map: "dam"}}, 1, 1))

	h.secondary.JSON("/items", []model.SecondaryRecord{
		{ID: "s-t1", Name: "tempest i", Type: "Weapon", Icon: "/sec/t1.webp"},
		{ID: "s-t2", Name: "Tempest II", Type: "Weapon"},
	})
	h.secondary.JSON("/items/s-t1", model.SecondaryDetail{
		SecondaryRecord: model.SecondaryRecord{ID: "s-t1", Name: "Tempest I"},
		Recipe:          []model.Ingredient{{ItemID: "gear", Amount: 4}},
	})
	h.secondary.Status("/items/s-t2", http.StatusInternalServerError)

	logger := zap.NewNop()
	client := func(url string) fetch.ClientConfig {
		return fetch.ClientConfig{BaseURL: url, Timeout: 5 * time.Second}
	}
	primary := fetch.NewPrimary(fetch.PrimaryConfig{
		Client: client(h.primary.URL),
		TTL: fetch.PrimaryTTL{
			Items: time.Hour, Arcs: time.Hour, Quests: time.Hour, Traders: time.Hour, EventTimers: time.Minute,
		},
	}, h.store, logger)
	secondary := fetch.NewSecondary(fetch.SecondaryConfig{
		Client: client(h.secondary.URL),
		TTL:    fetch.SecondaryTTL{Items: time.Hour, Details: time.Hour},
	}, h.store, logger)

	bucketer := catalog.NewBucketer(logger)
	h.resolver = crossref.NewResolver(secondary, iconBase, logger)
	h.index = search.NewIndex(search.PrimarySources(primary, iconBase), 0, logger)
	h.sched = scheduler.New(logger)
	t.Cleanup(h.sched.Stop)

	r := gin.New()
	rest.RegisterRoutes(r.Group("/api"),
		rest.NewCatalogHandler(primary, h.resolver, bucketer, iconBase, logger),
		rest.NewSearchHandler(h.index, logger))
	admin := r.Group("/api/admin", rest.AdminAuth(adminKey))
	rest.RegisterAdminRoutes(admin, rest.NewAdminHandler(rest.AdminDeps{
		Primary:   primary,
		Secondary: secondary,
		Store:     h.store,
		Index:     h.index,
		Resolver:  h.resolver,
		Bucketer:  bucketer,
		Scheduler: h.sched,
	}, logger))
	r.GET("/health", rest.Health)
	h.router = r
	return h
}

func (h *harness) do(method, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if key != "" {
		req.Header.Set("X-Admin-Key", key)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *harness) get(path string) *httptest.ResponseRecorder {
	return h.do(http.MethodGet, path, "")
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}
