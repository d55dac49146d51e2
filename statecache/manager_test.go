package statecache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scmcore/config"
	"scmcore/store"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(&config.StoreConfig{Driver: "csv", DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

// unreachableRedis points at a port nothing listens on.
func unreachableRedis(t *testing.T) *RedisStore {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, time.Minute)
}

func TestManagerWithoutRedis(t *testing.T) {
	st := testStore(t)
	_, err := st.SaveSupplier(&store.Supplier{SupplierID: "lo", ReliabilityScore: store.Ptr(0.2)})
	require.NoError(t, err)
	_, err = st.SaveSupplier(&store.Supplier{SupplierID: "hi", ReliabilityScore: store.Ptr(0.9)})
	require.NoError(t, err)

	m := NewManager(st, nil, nil)
	assert.False(t, m.Enabled())
	assert.Equal(t, 2, m.Statistics(context.Background()).TotalSuppliers)

	ranked, err := m.SupplierRanking(context.Background())
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "hi", ranked[0].SupplierID)

	m.Invalidate(context.Background(), store.KindSupplier)
}

func TestManagerFallsBackWhenRedisDown(t *testing.T) {
	st := testStore(t)
	require.NoError(t, st.SaveShipment(&store.Shipment{Status: "On Time"}))

	m := NewManager(st, unreachableRedis(t), nil)
	assert.True(t, m.Enabled())

	stats := m.Statistics(context.Background())
	assert.Equal(t, 1, stats.TotalShipments)

	ranked, err := m.SupplierRanking(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ranked)

	m.Invalidate(context.Background(), store.KindShipment)
}

func liveRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, time.Minute), mr
}

func TestManagerServesCachedStatisticsUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)
	require.NoError(t, st.SaveShipment(&store.Shipment{Status: "On Time"}))
	rs, mr := liveRedis(t)
	m := NewManager(st, rs, nil)

	assert.Equal(t, 1, m.Statistics(ctx).TotalShipments)
	require.True(t, mr.Exists(statsKey))

	// written behind the cache's back: the cached view is still served
	require.NoError(t, st.SaveShipment(&store.Shipment{Status: "Delayed"}))
	assert.Equal(t, 1, m.Statistics(ctx).TotalShipments)

	m.Invalidate(ctx, store.KindShipment)
	assert.False(t, mr.Exists(statsKey))
	assert.Equal(t, 2, m.Statistics(ctx).TotalShipments)

	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists(statsKey))
}

func TestManagerRankingInvalidatedBySupplierWrites(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)
	_, err := st.SaveSupplier(&store.Supplier{SupplierID: "a", ReliabilityScore: store.Ptr(0.5)})
	require.NoError(t, err)
	rs, mr := liveRedis(t)
	m := NewManager(st, rs, nil)

	ranked, err := m.SupplierRanking(ctx)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	require.True(t, mr.Exists(rankingKey))

	m.Invalidate(ctx, store.KindShipment)
	assert.True(t, mr.Exists(rankingKey), "shipment writes leave the ranking alone")

	_, err = st.SaveSupplier(&store.Supplier{SupplierID: "b", ReliabilityScore: store.Ptr(0.9)})
	require.NoError(t, err)
	m.Invalidate(ctx, store.KindSupplier)
	assert.False(t, mr.Exists(rankingKey))

	ranked, err = m.SupplierRanking(ctx)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "b", ranked[0].SupplierID)
}

func TestManagerDoesNotCachePartialStatistics(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(&config.StoreConfig{Driver: "csv", DataDir: dir})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, os.Remove(filepath.Join(dir, "routes.csv")))

	rs, mr := liveRedis(t)
	m := NewManager(st, rs, nil)

	stats := m.Statistics(context.Background())
	assert.Contains(t, stats.Errors, "routes")
	assert.False(t, mr.Exists(statsKey))
}

func TestManagerDropsFillRacingAnInvalidation(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)
	rs, mr := liveRedis(t)
	m := NewManager(st, rs, nil)

	gen := m.generation()
	snapshot := st.Statistics()
	require.NoError(t, st.SaveShipment(&store.Shipment{Status: "Delayed"}))
	m.Invalidate(ctx, store.KindShipment)

	m.fill(gen, "statistics", func() error { return rs.SetStatistics(ctx, snapshot) })
	assert.False(t, mr.Exists(statsKey), "stale snapshot must not be cached")

	assert.Equal(t, 1, m.Statistics(ctx).TotalShipments)
	assert.True(t, mr.Exists(statsKey))
}
