package rest

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/raiderdex/cache"
	"github.com/kasuganosora/raiderdex/catalog"
	"github.com/kasuganosora/raiderdex/crossref"
	"github.com/kasuganosora/raiderdex/fetch"
	"github.com/kasuganosora/raiderdex/scheduler"
	"github.com/kasuganosora/raiderdex/search"
	"go.uber.org/zap"
)

// AdminHandler handles admin-only REST endpoints.
// Routes should be protected by AdminAuth middleware.
type AdminHandler struct {
	primary   *fetch.Primary
	secondary *fetch.Secondary
	store     *cache.Store
	index     *search.Index
	resolver  *crossref.Resolver
	bucketer  *catalog.Bucketer
	sched     *scheduler.Scheduler
	logger    *zap.Logger
}

// AdminDeps groups the services the admin endpoints operate on.
type AdminDeps struct {
	Primary   *fetch.Primary
	Secondary *fetch.Secondary
	Store     *cache.Store
	Index     *search.Index
	Resolver  *crossref.Resolver
	Bucketer  *catalog.Bucketer
	Scheduler *scheduler.Scheduler
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(d AdminDeps, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		primary:   d.Primary,
		secondary: d.Secondary,
		store:     d.Store,
		index:     d.Index,
		resolver:  d.Resolver,
		bucketer:  d.Bucketer,
		sched:     d.Scheduler,
		logger:    logger,
	}
}

// Prefetch loads every dataset of both providers. It answers 200 even when
// some datasets fail; the body lists them.
// POST /api/admin/prefetch?force=true
func (h *AdminHandler) Prefetch(c *gin.Context) {
	ctx := c.Request.Context()
	force := forceRefresh(c)
	res := h.primary.PrefetchAll(ctx, force).Merge(h.secondary.PrefetchAll(ctx, force))
	h.logger.Info("admin prefetch",
		zap.Int("succeeded", len(res.Succeeded)), zap.Int("failed", len(res.Failed)))
	c.JSON(http.StatusOK, res)
}

// CacheStatus reports the state of every known dataset and the stored keys.
// GET /api/admin/cache
func (h *AdminHandler) CacheStatus(c *gin.Context) {
	ctx := c.Request.Context()
	var datasets []cache.Status
	for _, d := range append(h.primary.Datasets(), h.secondary.Datasets()...) {
		datasets = append(datasets, h.store.Status(ctx, d.Key))
	}
	keys, err := h.store.Keys(ctx)
	if err != nil {
		h.logger.Warn("admin: list cache keys failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "cache backend unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"backend":  h.store.Backend(),
		"datasets": datasets,
		"keys":     keys,
	})
}

func cacheKeyParam(c *gin.Context) string {
	return strings.TrimSpace(c.Param("key"))
}

// CacheKeyStatus reports the state of one cache key.
// GET /api/admin/cache/:key
func (h *AdminHandler) CacheKeyStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Status(c.Request.Context(), cacheKeyParam(c)))
}

// ClearCache deletes every cached dataset.
// DELETE /api/admin/cache
func (h *AdminHandler) ClearCache(c *gin.Context) {
	n, err := h.store.ClearAll(c.Request.Context())
	if err != nil {
		h.logger.Warn("admin: clear cache failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "cache backend unavailable"})
		return
	}
	h.logger.Info("admin cleared cache", zap.Int("keys", n))
	c.JSON(http.StatusOK, gin.H{"ok": true, "cleared": n})
}

// ClearCacheKey deletes one cached dataset.
// DELETE /api/admin/cache/:key
func (h *AdminHandler) ClearCacheKey(c *gin.Context) {
	key := cacheKeyParam(c)
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing key"})
		return
	}
	if err := h.store.Clear(c.Request.Context(), key); err != nil {
		h.logger.Warn("admin: clear cache key failed", zap.String("key", key), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "cache backend unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "key": key})
}

// RebuildSearch discards the search index and rebuilds it from fresh data.
// POST /api/admin/search/rebuild
func (h *AdminHandler) RebuildSearch(c *gin.Context) {
	if _, err := h.index.Build(c.Request.Context(), true); err != nil {
		c.JSON(http.StatusBadGateway, h.index.State())
		return
	}
	c.JSON(http.StatusOK, h.index.State())
}

// ResetCrossref drops the cross-reference table; the next item page
// rebuilds it.
// POST /api/admin/crossref/reset
func (h *AdminHandler) ResetCrossref(c *gin.Context) {
	h.resolver.Reset()
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// UnmappedCategories lists category labels no bucket covers, and forgets
// them when reset=true so they are logged again.
// GET /api/admin/categories/unmapped
func (h *AdminHandler) UnmappedCategories(c *gin.Context) {
	labels := h.bucketer.Unmapped()
	if c.Query("reset") == "true" {
		h.bucketer.Reset()
	}
	c.JSON(http.StatusOK, gin.H{"labels": labels, "count": len(labels)})
}

// ListSchedulerTasks returns the status of every scheduled task and the
// names of the recurring ones.
// GET /api/admin/scheduler
func (h *AdminHandler) ListSchedulerTasks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tasks": h.sched.Tasks(), "tickers": h.sched.ListTickers()})
}

// RemoveSchedulerTask stops a task until the process restarts.
// DELETE /api/admin/scheduler/:name
func (h *AdminHandler) RemoveSchedulerTask(c *gin.Context) {
	name := c.Param("name")
	if !h.sched.Remove(name) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown task"})
		return
	}
	h.logger.Info("admin removed scheduler task", zap.String("task", name))
	c.JSON(http.StatusOK, gin.H{"ok": true, "task": name})
}

// AdminAuth returns a middleware that checks the X-Admin-Key header.
// WARNING: if adminKey is empty all admin endpoints are disabled (503) so the
// server cannot be accidentally deployed without protection. Set a non-empty
// server.admin_key in config to enable admin routes.
func AdminAuth(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": "admin endpoints disabled: set server.admin_key in config"})
			return
		}
		key := c.GetHeader("X-Admin-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(adminKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
