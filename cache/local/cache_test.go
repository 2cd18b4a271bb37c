package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *LocalCache {
	c, err := NewCache(Config{GCInterval: time.Minute})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestGetSet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	err := c.Set(ctx, "key1", "value1", 0)
	require.NoError(t, err)

	v, err := c.Get(ctx, "key1")
	require.NoError(t, err)
	assert.Equal(t, "value1", v)
}

func TestGetMissing(t *testing.T) {
	c := newTestCache(t)
	_, err := c.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTTLExpiry(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	err := c.Set(ctx, "ttl_key", "val", 10*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	_, err = c.Get(ctx, "ttl_key")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDel(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	_ = c.Set(ctx, "k", "v", 0)
	_ = c.Del(ctx, "k")
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExists(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	_ = c.Set(ctx, "k", "v", 0)
	exists, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = c.Exists(ctx, "other")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestKeys_PrefixAndExpiry(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "rd:primary:items", "a", 0))
	require.NoError(t, c.Set(ctx, "rd:primary:arcs", "b", 0))
	require.NoError(t, c.Set(ctx, "rd:gone", "c", time.Millisecond))
	require.NoError(t, c.Set(ctx, "other:items", "d", 0))
	time.Sleep(5 * time.Millisecond)

	keys, err := c.Keys(ctx, "rd:")
	require.NoError(t, err)
	assert.Equal(t, []string{"rd:primary:arcs", "rd:primary:items"}, keys)
}

func TestSweep(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "short", "v", time.Second))
	require.NoError(t, c.Set(ctx, "forever", "v", 0))

	c.sweep(time.Now().Add(2 * time.Second))

	_, ok := c.kv.Load("short")
	assert.False(t, ok)
	_, ok = c.kv.Load("forever")
	assert.True(t, ok)
}

func TestClose_Idempotent(t *testing.T) {
	c, err := NewCache(Config{})
	require.NoError(t, err)
	c.Close()
	c.Close()
}
