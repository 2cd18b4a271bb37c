package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Upstream is a fake provider API that counts requests per path.
type Upstream struct {
	*httptest.Server

	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	calls  map[string]int
}

// NewUpstream starts a fake provider. Unrouted paths answer 404.
func NewUpstream(t *testing.T) *Upstream {
	t.Helper()
	u := &Upstream{
		routes: make(map[string]http.HandlerFunc),
		calls:  make(map[string]int),
	}
	u.Server = httptest.NewServer(http.HandlerFunc(u.serve))
	t.Cleanup(u.Close)
	return u
}

func (u *Upstream) serve(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	u.calls[r.URL.Path]++
	h, ok := u.routes[r.URL.Path]
	u.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	h(w, r)
}

// Handle routes path to h, replacing any earlier handler.
func (u *Upstream) Handle(path string, h http.HandlerFunc) {
	u.mu.Lock()
	u.routes[path] = h
	u.mu.Unlock()
}

// JSON routes path to a handler that always answers body as JSON.
func (u *Upstream) JSON(path string, body interface{}) {
	u.Handle(path, func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, body)
	})
}

// Status routes path to a handler that always answers with status.
func (u *Upstream) Status(path string, status int) {
	u.Handle(path, func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, status, map[string]string{"error": http.StatusText(status)})
	})
}

// Calls returns how many requests reached path.
func (u *Upstream) Calls(path string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls[path]
}

// Page is one page of a primary-provider envelope.
func Page(data interface{}, page, totalPages int) map[string]interface{} {
	return map[string]interface{}{
		"data": data,
		"pagination": map[string]interface{}{
			"page":        page,
			"totalPages":  totalPages,
			"hasNextPage": page < totalPages,
		},
	}
}

func WriteJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
