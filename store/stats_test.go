package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatisticsOnEmptyStore(t *testing.T) {
	at := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
	s, _ := testStore(t, WithClock(fixedClock(at)))

	st := s.Statistics()
	assert.Zero(t, st.TotalSuppliers)
	assert.Zero(t, st.TotalShipments)
	assert.Zero(t, st.TotalInventoryItems)
	assert.Zero(t, st.TotalPredictions)
	assert.Zero(t, st.TotalRoutes)
	assert.Equal(t, at, st.LastUpdated)
	assert.Empty(t, st.Errors)
}

func TestStatisticsIsolatesTableFailures(t *testing.T) {
	s, dir := testStore(t)
	_, err := s.SaveSupplier(&Supplier{Name: "A"})
	require.NoError(t, err)
	require.NoError(t, s.SaveInventory(&InventoryItem{ItemName: "bolts"}))
	require.NoError(t, s.SaveShipment(&Shipment{Status: "On Time"}))
	require.NoError(t, os.Remove(filepath.Join(dir, "shipments.csv")))

	st := s.Statistics()
	assert.Equal(t, 1, st.TotalSuppliers)
	assert.Equal(t, 1, st.TotalInventoryItems)
	assert.Zero(t, st.TotalShipments)
	assert.Contains(t, st.Errors, "shipments")
	assert.Len(t, st.Errors, 1)
	assert.False(t, st.LastUpdated.IsZero())
}

func TestSupplierPerformanceOrdering(t *testing.T) {
	s, _ := testStore(t)
	for _, sp := range []*Supplier{
		{SupplierID: "A", ReliabilityScore: Ptr(0.9), Cost: Ptr(10.0)},
		{SupplierID: "B", Cost: Ptr(10.0)},
		{SupplierID: "C", Cost: Ptr(5.0)},
		{SupplierID: "D", ReliabilityScore: Ptr(0.5), Cost: Ptr(10.0)},
	} {
		_, err := s.SaveSupplier(sp)
		require.NoError(t, err)
	}

	ranked, err := s.SupplierPerformance()
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "D", "C", "B"}, supplierIDs(ranked))
}

func TestSupplierPerformanceInvalidKeysSortLast(t *testing.T) {
	s, dir := testStore(t)
	data := "supplier_id,name,lead_time,cost,past_orders,reliability_score,created_at\n" +
		"bad,,,cheap,,excellent,\n" +
		"tie2,,,20,,0.70,\n" +
		"tie1,,,15,,0.7,\n" +
		"nocost,,,,,0.7,\n" +
		"same1,,,15,,0.7,\n" +
		"top,,,99,,1,\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "suppliers.csv"), []byte(data), 0644))

	ranked, err := s.SupplierPerformance()
	require.NoError(t, err)
	// 0.70 and 0.7 are the same score; equal keys keep file order
	assert.Equal(t, []string{"top", "tie1", "same1", "tie2", "nocost", "bad"}, supplierIDs(ranked))
}

func TestSupplierPerformanceEmpty(t *testing.T) {
	s, _ := testStore(t)
	ranked, err := s.SupplierPerformance()
	require.NoError(t, err)
	assert.NotNil(t, ranked)
	assert.Empty(t, ranked)
}

func supplierIDs(list []*Supplier) []string {
	out := make([]string, 0, len(list))
	for _, sp := range list {
		out = append(out, sp.SupplierID)
	}
	return out
}
