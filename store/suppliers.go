package store

import (
	"time"
)

type Supplier struct {
	SupplierID       string    `json:"supplier_id"`
	Name             string    `json:"name"`
	LeadTime         *float64  `json:"lead_time"`
	Cost             *float64  `json:"cost"`
	PastOrders       *int64    `json:"past_orders"`
	ReliabilityScore *float64  `json:"reliability_score"`
	CreatedAt        time.Time `json:"created_at"`
}

func (sp *Supplier) row() Row {
	return Row{
		sp.SupplierID,
		sp.Name,
		formatFloat(sp.LeadTime),
		formatFloat(sp.Cost),
		formatInt(sp.PastOrders),
		formatFloat(sp.ReliabilityScore),
		formatTime(sp.CreatedAt),
	}
}

func supplierFromRow(r Row) *Supplier {
	return &Supplier{
		SupplierID:       r[0],
		Name:             r[1],
		LeadTime:         parseFloat(r[2]),
		Cost:             parseFloat(r[3]),
		PastOrders:       parseInt(r[4]),
		ReliabilityScore: parseFloat(r[5]),
		CreatedAt:        parseTime(r[6]),
	}
}

// SaveSupplier creates or replaces a supplier. A missing SupplierID is
// generated. When a row with the same id exists it is replaced in place and
// keeps its original created_at; extra rows with that id are dropped.
// created reports whether a new row was appended.
func (s *Store) SaveSupplier(sp *Supplier) (created bool, err error) {
	if sp.SupplierID == "" {
		sp.SupplierID = s.newID()
	}
	err = s.tables[KindSupplier].Mutate(func(rows []Row) ([]Row, error) {
		kept := make([]Row, 0, len(rows)+1)
		at := -1
		for _, r := range rows {
			if r.ID() == sp.SupplierID {
				if at >= 0 {
					continue
				}
				at = len(kept)
				sp.CreatedAt = parseTime(r[6])
			}
			kept = append(kept, r)
		}
		if at >= 0 {
			if sp.CreatedAt.IsZero() {
				sp.CreatedAt = s.clock.stamp()
			}
			kept[at] = sp.row()
			return kept, nil
		}
		created = true
		sp.CreatedAt = s.clock.stamp()
		return append(kept, sp.row()), nil
	})
	if err != nil {
		s.lg.Errorf("store: save supplier %s: %v", sp.SupplierID, err)
		return false, err
	}
	return created, nil
}

// GetSuppliers returns the first limit suppliers in file order.
func (s *Store) GetSuppliers(limit int) ([]*Supplier, error) {
	rows, err := s.tables[KindSupplier].LoadAll()
	if err != nil {
		s.lg.Errorf("store: read suppliers: %v", err)
		return []*Supplier{}, err
	}
	out := make([]*Supplier, 0, min(max(limit, 0), len(rows)))
	for _, r := range headLimit(rows, limit, nil) {
		out = append(out, supplierFromRow(r))
	}
	return out, nil
}

// GetSupplier returns the first supplier with the given id.
func (s *Store) GetSupplier(id string) (*Supplier, error) {
	rows, err := s.tables[KindSupplier].LoadAll()
	if err != nil {
		s.lg.Errorf("store: get supplier %s: %v", id, err)
		return nil, err
	}
	for _, r := range rows {
		if r.ID() == id {
			return supplierFromRow(r), nil
		}
	}
	return nil, ErrRecordNotFound
}

// DeleteSupplier removes every row with the given id and reports how many
// were removed. Removing nothing is not an error.
func (s *Store) DeleteSupplier(id string) (int, error) {
	removed := 0
	err := s.tables[KindSupplier].Mutate(func(rows []Row) ([]Row, error) {
		kept := make([]Row, 0, len(rows))
		for _, r := range rows {
			if r.ID() == id {
				removed++
				continue
			}
			kept = append(kept, r)
		}
		if removed == 0 {
			return nil, errUnchanged
		}
		return kept, nil
	})
	if err != nil {
		s.lg.Errorf("store: delete supplier %s: %v", id, err)
		return 0, err
	}
	return removed, nil
}
