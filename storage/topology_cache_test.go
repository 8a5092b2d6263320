package storage_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"gomsg/storage"
)

type staticResolver map[string][2]string

func (r staticResolver) Resolve(addr string) (string, string) {
	pair, ok := r[addr]
	if !ok {
		return "", ""
	}
	return pair[0], pair[1]
}

func TestTopologyCache_ResolveCachesFallbackResult(t *testing.T) {
	fallback := staticResolver{"10.0.0.1:3181": {"region1", "/region1/rack1"}}
	cache, err := storage.NewTopologyCache(t.TempDir(), fallback)
	require.NoError(t, err)
	defer cache.Close()

	region, rack := cache.Resolve("10.0.0.1:3181")
	require.Equal(t, "region1", region)
	require.Equal(t, "/region1/rack1", rack)

	delete(fallback, "10.0.0.1:3181")
	region, rack = cache.Resolve("10.0.0.1:3181")
	require.Equal(t, "region1", region)
	require.Equal(t, "/region1/rack1", rack)
}

func TestTopologyCache_MissWithoutFallback(t *testing.T) {
	cache, err := storage.NewTopologyCache(t.TempDir(), nil)
	require.NoError(t, err)
	defer cache.Close()

	region, rack := cache.Resolve("unknown")
	require.Empty(t, region)
	require.Empty(t, rack)
}

func TestTopologyCache_Invalidate(t *testing.T) {
	calls := 0
	fallback := resolverFunc(func(addr string) (string, string) {
		calls++
		return "region1", "/region1/rack1"
	})
	cache, err := storage.NewTopologyCache(t.TempDir(), fallback)
	require.NoError(t, err)
	defer cache.Close()

	cache.Resolve("addr")
	cache.Resolve("addr")
	require.Equal(t, 1, calls)

	require.NoError(t, cache.Invalidate("addr"))
	cache.Resolve("addr")
	require.Equal(t, 2, calls)
}

type resolverFunc func(addr string) (string, string)

func (f resolverFunc) Resolve(addr string) (string, string) { return f(addr) }
