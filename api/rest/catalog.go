package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/raiderdex/catalog"
	"github.com/kasuganosora/raiderdex/crossref"
	"github.com/kasuganosora/raiderdex/fetch"
	"github.com/kasuganosora/raiderdex/model"
	"go.uber.org/zap"
)

// bucketOther lists groups whose category has no bucket.
const bucketOther = "other"

// CatalogHandler serves the primary datasets, item groups and their
// cross-reference data.
type CatalogHandler struct {
	primary  *fetch.Primary
	resolver *crossref.Resolver
	bucketer *catalog.Bucketer
	iconBase string
	logger   *zap.Logger
}

// NewCatalogHandler creates a CatalogHandler. iconBase resolves primary
// icon paths.
func NewCatalogHandler(p *fetch.Primary, r *crossref.Resolver, b *catalog.Bucketer, iconBase string, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{primary: p, resolver: r, bucketer: b, iconBase: iconBase, logger: logger}
}

type memberSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Tier   string `json:"tier"`
	Rarity string `json:"rarity,omitempty"`
}

type groupSummary struct {
	Key        string          `json:"key"`
	BaseName   string          `json:"base_name"`
	Tiered     bool            `json:"tiered"`
	Category   string          `json:"category,omitempty"`
	Bucket     string          `json:"bucket"`
	Rarity     string          `json:"rarity,omitempty"`
	RarityRank int             `json:"rarity_rank"` // Common 0 .. Legendary 4, -1 unknown
	Icon       string          `json:"icon,omitempty"`
	Members    []memberSummary `json:"members"`
}

func (h *CatalogHandler) summarize(g *catalog.Group) groupSummary {
	rep := g.Representative()
	bucket, ok := h.bucketer.Bucket(rep.ItemType)
	if !ok {
		bucket = bucketOther
	}
	labels := g.TierLabels()
	members := make([]memberSummary, len(g.Members))
	for i, m := range g.Members {
		members[i] = memberSummary{ID: m.ID, Name: m.Name, Tier: labels[i], Rarity: m.Rarity}
	}
	return groupSummary{
		Key:        g.Key,
		BaseName:   g.BaseName,
		Tiered:     g.Tiered(),
		Category:   rep.ItemType,
		Bucket:     bucket,
		Rarity:     rep.Rarity,
		RarityRank: model.RarityRank(rep.Rarity),
		Icon:       model.ResolveIcon(h.iconBase, rep.Icon),
		Members:    members,
	}
}

func validBucket(b string) bool {
	if b == bucketOther {
		return true
	}
	for _, known := range catalog.Buckets() {
		if b == known {
			return true
		}
	}
	return false
}

// ListItems returns the item groups, optionally narrowed to one bucket.
// GET /api/items?bucket=weapons&force=true
func (h *CatalogHandler) ListItems(c *gin.Context) {
	bucket := c.Query("bucket")
	if bucket != "" && !validBucket(bucket) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown bucket", "buckets": append(catalog.Buckets(), bucketOther)})
		return
	}
	items, err := h.primary.Items(c.Request.Context(), forceRefresh(c))
	if err != nil {
		respondFetchError(c, "items", err)
		return
	}
	cat := catalog.NewCatalog(items)
	groups := cat.Groups()
	counts := make(map[string]int)
	out := make([]groupSummary, 0, len(groups))
	for i := range groups {
		s := h.summarize(&groups[i])
		counts[s.Bucket]++
		if bucket != "" && s.Bucket != bucket {
			continue
		}
		out = append(out, s)
	}
	c.JSON(http.StatusOK, gin.H{"groups": out, "count": len(out), "buckets": counts})
}

type tierTab struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

// GetItem returns an item group page: the group, its active member and
// the cross-reference data of every member.
// GET /api/items/:slug
func (h *CatalogHandler) GetItem(c *gin.Context) {
	items, err := h.primary.Items(c.Request.Context(), forceRefresh(c))
	if err != nil {
		respondFetchError(c, "item", err)
		return
	}
	cat := catalog.NewCatalog(items)
	g, active, ok := cat.Lookup(c.Param("slug"))
	if !ok {
		notFound(c, "item")
		return
	}

	labels := g.TierLabels()
	tiers := make([]tierTab, len(g.Members))
	for i, m := range g.Members {
		tiers[i] = tierTab{ID: m.ID, Name: m.Name, Label: labels[i], Active: m.ID == active.ID}
	}
	activeItem := *active
	activeItem.Icon = model.ResolveIcon(h.iconBase, activeItem.Icon)

	sup := h.resolver.ForMembers(c.Request.Context(), g.Members)
	var xref interface{}
	if rec, ok := sup.Records[active.ID]; ok {
		xref = rec
	}
	c.JSON(http.StatusOK, gin.H{
		"group":           h.summarize(g),
		"active":          activeItem,
		"zones":           active.Zones(),
		"tiers":           tiers,
		"cross_reference": xref,
		"details":         sup.Details,
	})
}

// ListArcs returns the ARC enemies.
// GET /api/arcs
func (h *CatalogHandler) ListArcs(c *gin.Context) {
	enemies, err := h.primary.Enemies(c.Request.Context(), forceRefresh(c))
	if err != nil {
		respondFetchError(c, "ARCs", err)
		return
	}
	out := make([]model.Enemy, len(enemies))
	for i, e := range enemies {
		out[i] = h.enemyIcons(e)
	}
	c.JSON(http.StatusOK, gin.H{"arcs": out, "count": len(out)})
}

// GetArc returns one ARC enemy.
// GET /api/arcs/:id
func (h *CatalogHandler) GetArc(c *gin.Context) {
	e, err := h.primary.Enemy(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondFetchError(c, "ARC", err)
		return
	}
	c.JSON(http.StatusOK, h.enemyIcons(*e))
}

func (h *CatalogHandler) enemyIcons(e model.Enemy) model.Enemy {
	e.Icon = model.ResolveIcon(h.iconBase, e.Icon)
	e.Image = model.ResolveIcon(h.iconBase, e.Image)
	if e.Loot != nil {
		loot := make([]model.ItemRef, len(e.Loot))
		for i, ref := range e.Loot {
			ref.Icon = model.ResolveIcon(h.iconBase, ref.Icon)
			loot[i] = ref
		}
		e.Loot = loot
	}
	return e
}

// ListQuests returns every quest.
// GET /api/quests
func (h *CatalogHandler) ListQuests(c *gin.Context) {
	quests, err := h.primary.Quests(c.Request.Context(), forceRefresh(c))
	if err != nil {
		respondFetchError(c, "quests", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quests": quests, "count": len(quests)})
}

// GetQuest returns one quest.
// GET /api/quests/:id
func (h *CatalogHandler) GetQuest(c *gin.Context) {
	q, err := h.primary.Quest(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondFetchError(c, "quest", err)
		return
	}
	c.JSON(http.StatusOK, q)
}

type traderSummary struct {
	Name   string `json:"name"`
	Offers int    `json:"offers"`
}

// ListTraders returns the traders and how many offers each has.
// GET /api/traders
func (h *CatalogHandler) ListTraders(c *gin.Context) {
	traders, err := h.primary.Traders(c.Request.Context(), forceRefresh(c))
	if err != nil {
		respondFetchError(c, "traders", err)
		return
	}
	names := traders.Names()
	out := make([]traderSummary, len(names))
	for i, n := range names {
		out[i] = traderSummary{Name: n, Offers: len(traders[n])}
	}
	c.JSON(http.StatusOK, gin.H{"traders": out, "count": len(out)})
}

// GetTrader returns the offers of one trader.
// GET /api/traders/:name
func (h *CatalogHandler) GetTrader(c *gin.Context) {
	name, offers, err := h.primary.Trader(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondFetchError(c, "trader", err)
		return
	}
	out := make([]model.TraderOffer, len(offers))
	for i, o := range offers {
		o.Icon = model.ResolveIcon(h.iconBase, o.Icon)
		out[i] = o
	}
	c.JSON(http.StatusOK, gin.H{"name": name, "offers": out})
}

// EventTimers returns the map event schedule.
// GET /api/event-timers
func (h *CatalogHandler) EventTimers(c *gin.Context) {
	events, err := h.primary.EventTimers(c.Request.Context(), forceRefresh(c))
	if err != nil {
		respondFetchError(c, "event timers", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}
