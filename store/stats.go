package store

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Statistics counts the rows of every table. A table that cannot be loaded
// counts as zero and its failure is listed in Errors.
type Statistics struct {
	TotalSuppliers      int               `json:"total_suppliers"`
	TotalShipments      int               `json:"total_shipments"`
	TotalInventoryItems int               `json:"total_inventory_items"`
	TotalPredictions    int               `json:"total_predictions"`
	TotalRoutes         int               `json:"total_routes"`
	LastUpdated         time.Time         `json:"last_updated"`
	Errors              map[string]string `json:"errors,omitempty"`
}

func (st *Statistics) counter(k Kind) *int {
	switch k {
	case KindSupplier:
		return &st.TotalSuppliers
	case KindShipment:
		return &st.TotalShipments
	case KindInventory:
		return &st.TotalInventoryItems
	case KindPrediction:
		return &st.TotalPredictions
	case KindRoute:
		return &st.TotalRoutes
	}
	return nil
}

// Statistics never fails.
func (s *Store) Statistics() *Statistics {
	st := &Statistics{}
	for _, k := range Kinds {
		t := s.tables[k]
		n, err := t.Count()
		if err != nil {
			s.lg.Warnf("store: statistics: %v", err)
			if st.Errors == nil {
				st.Errors = make(map[string]string)
			}
			st.Errors[t.schema.Table] = err.Error()
			continue
		}
		*st.counter(k) = n
	}
	st.LastUpdated = s.clock.now().UTC()
	return st
}

type rankKey struct {
	score, cost       decimal.Decimal
	hasScore, hasCost bool
}

// SupplierPerformance returns every supplier ordered by reliability_score
// descending, then cost ascending. Missing or non-numeric keys sort after
// valid ones; equal keys keep file order.
func (s *Store) SupplierPerformance() ([]*Supplier, error) {
	rows, err := s.tables[KindSupplier].LoadAll()
	if err != nil {
		s.lg.Errorf("store: supplier performance: %v", err)
		return []*Supplier{}, err
	}
	keys := make([]rankKey, len(rows))
	idx := make([]int, len(rows))
	for i, r := range rows {
		idx[i] = i
		keys[i].score, keys[i].hasScore = parseDecimal(r[5])
		keys[i].cost, keys[i].hasCost = parseDecimal(r[3])
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return keys[idx[a]].less(keys[idx[b]])
	})
	out := make([]*Supplier, 0, len(rows))
	for _, i := range idx {
		out = append(out, supplierFromRow(rows[i]))
	}
	return out, nil
}

func (k rankKey) less(o rankKey) bool {
	if k.hasScore != o.hasScore {
		return k.hasScore
	}
	if k.hasScore {
		if c := k.score.Cmp(o.score); c != 0 {
			return c > 0
		}
	}
	if k.hasCost != o.hasCost {
		return k.hasCost
	}
	if k.hasCost {
		return k.cost.LessThan(o.cost)
	}
	return false
}
