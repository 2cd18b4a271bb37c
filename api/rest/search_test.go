package rest_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/kasuganosora/raiderdex/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resultNames(body map[string]interface{}) []string {
	results := body["results"].([]interface{})
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.(map[string]interface{})["name"].(string)
	}
	return out
}

func TestSearch_StartsBuildWhenIdle(t *testing.T) {
	h := newHarness(t)
	body := decode(t, h.get("/api/search?q=tempest"))
	assert.Empty(t, body["results"])

	require.Eventually(t, func() bool {
		return h.index.State().State == search.StateReady
	}, 2*time.Second, 10*time.Millisecond)

	body = decode(t, h.get("/api/search?q=tempest"))
	assert.Equal(t, "ready", body["state"])
	assert.Equal(t, []string{"Tempest Blueprint", "Tempest I", "Tempest II", "A Tempest Brewing"}, resultNames(body))
}

func TestSearch_Options(t *testing.T) {
	h := newHarness(t)
	_, err := h.index.Build(context.Background(), false)
	require.NoError(t, err)

	body := decode(t, h.get("/api/search?q=tempest&type=quest"))
	assert.Equal(t, []string{"A Tempest Brewing"}, resultNames(body))

	body = decode(t, h.get("/api/search?q=tempest&limit=2"))
	assert.EqualValues(t, 2, body["count"])

	assert.Equal(t, http.StatusBadRequest, h.get("/api/search?q=x&limit=zero").Code)
	assert.Equal(t, http.StatusBadRequest, h.get("/api/search?q=x&type=map").Code)

	body = decode(t, h.get("/api/search?q="))
	assert.Empty(t, body["results"])
}

func TestSearchState(t *testing.T) {
	h := newHarness(t)
	body := decode(t, h.get("/api/search/state"))
	assert.Equal(t, "idle", body["state"])

	_, err := h.index.Build(context.Background(), false)
	require.NoError(t, err)
	body = decode(t, h.get("/api/search/state"))
	assert.Equal(t, "ready", body["state"])
	assert.EqualValues(t, 5+1+1+2, body["size"])
	breakdown := body["breakdown"].(map[string]interface{})
	assert.EqualValues(t, 2, breakdown["trader"])
}
