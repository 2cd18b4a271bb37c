package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the public read endpoints under api.
func RegisterRoutes(api *gin.RouterGroup, cat *CatalogHandler, s *SearchHandler) {
	api.GET("/items", cat.ListItems)
	api.GET("/items/:slug", cat.GetItem)
	api.GET("/arcs", cat.ListArcs)
	api.GET("/arcs/:id", cat.GetArc)
	api.GET("/quests", cat.ListQuests)
	api.GET("/quests/:id", cat.GetQuest)
	api.GET("/traders", cat.ListTraders)
	api.GET("/traders/:name", cat.GetTrader)
	api.GET("/event-timers", cat.EventTimers)
	api.GET("/search", s.Search)
	api.GET("/search/state", s.State)
}

// RegisterAdminRoutes mounts the admin endpoints under admin. The caller
// attaches AdminAuth and any IP allow-list to the group.
func RegisterAdminRoutes(admin *gin.RouterGroup, h *AdminHandler) {
	admin.POST("/prefetch", h.Prefetch)
	admin.GET("/cache", h.CacheStatus)
	admin.GET("/cache/:key", h.CacheKeyStatus)
	admin.DELETE("/cache", h.ClearCache)
	admin.DELETE("/cache/:key", h.ClearCacheKey)
	admin.POST("/search/rebuild", h.RebuildSearch)
	admin.POST("/crossref/reset", h.ResetCrossref)
	admin.GET("/categories/unmapped", h.UnmappedCategories)
	admin.GET("/scheduler", h.ListSchedulerTasks)
	admin.DELETE("/scheduler/:name", h.RemoveSchedulerTask)
}

// Health answers liveness checks.
// GET /health
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
