package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/raiderdex/fetch"
)

// respondFetchError writes the JSON error of a failed load of what.
// Unreachable or failing upstreams answer 502; an upstream 404 answers 404.
func respondFetchError(c *gin.Context, what string, err error) {
	_ = c.Error(err)
	if errors.Is(err, fetch.ErrNotFound) {
		notFound(c, what)
		return
	}
	fe, ok := fetch.AsError(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load " + what + ": " + err.Error()})
		return
	}
	status := http.StatusBadGateway
	if fe.Kind == fetch.KindHTTPStatus && fe.StatusCode == http.StatusNotFound {
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{
		"error":     "Failed to load " + what + ": " + fe.Message,
		"endpoint":  fe.Endpoint,
		"retryable": fetch.IsRetryable(err),
	})
}

func notFound(c *gin.Context, what string) {
	c.JSON(http.StatusNotFound, gin.H{"error": "Failed to load " + what + ": not found"})
}

// forceRefresh reads the force query flag.
func forceRefresh(c *gin.Context) bool {
	v, _ := strconv.ParseBool(c.Query("force"))
	return v
}
