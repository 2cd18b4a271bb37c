package rest

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/raiderdex/search"
	"go.uber.org/zap"
)

const maxSearchLimit = 100

// SearchHandler serves ranked name search over the search index.
type SearchHandler struct {
	index  *search.Index
	logger *zap.Logger
}

func NewSearchHandler(index *search.Index, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{index: index, logger: logger}
}

var searchTypes = map[string]search.EntryType{
	"item":   search.TypeItem,
	"enemy":  search.TypeEnemy,
	"quest":  search.TypeQuest,
	"trader": search.TypeTrader,
}

// Search ranks index entries against q. While the index is not ready the
// result is empty and a build is started in the background; clients poll.
// GET /api/search?q=tempest&limit=10&type=item
func (h *SearchHandler) Search(c *gin.Context) {
	var opts search.Options
	if l := c.Query("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		opts.Limit = min(n, maxSearchLimit)
	}
	if t := c.Query("type"); t != "" {
		typ, ok := searchTypes[t]
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown type"})
			return
		}
		opts.Type = typ
	}

	st := h.index.State()
	if st.State == search.StateIdle || st.State == search.StateError {
		go func() {
			if _, err := h.index.Build(context.Background(), false); err != nil {
				h.logger.Warn("search: background build failed", zap.Error(err))
			}
		}()
	}
	results := h.index.Search(c.Query("q"), opts)
	c.JSON(http.StatusOK, gin.H{
		"query":   c.Query("q"),
		"results": results,
		"count":   len(results),
		"state":   h.index.State().State,
	})
}

// State reports the index state.
// GET /api/search/state
func (h *SearchHandler) State(c *gin.Context) {
	c.JSON(http.StatusOK, h.index.State())
}
