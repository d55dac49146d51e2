package store

import "time"

type InventoryItem struct {
	InventoryID  string    `json:"inventory_id"`
	ItemName     string    `json:"item_name"`
	Quantity     *float64  `json:"quantity"`
	ReorderPoint *float64  `json:"reorder_point"`
	SafetyStock  *float64  `json:"safety_stock"`
	CreatedAt    time.Time `json:"created_at"`
}

func (it *InventoryItem) row() Row {
	return Row{
		it.InventoryID,
		it.ItemName,
		formatFloat(it.Quantity),
		formatFloat(it.ReorderPoint),
		formatFloat(it.SafetyStock),
		formatTime(it.CreatedAt),
	}
}

func inventoryFromRow(r Row) *InventoryItem {
	return &InventoryItem{
		InventoryID:  r[0],
		ItemName:     r[1],
		Quantity:     parseFloat(r[2]),
		ReorderPoint: parseFloat(r[3]),
		SafetyStock:  parseFloat(r[4]),
		CreatedAt:    parseTime(r[5]),
	}
}

// SaveInventory appends an inventory item with a generated identifier.
func (s *Store) SaveInventory(it *InventoryItem) error {
	it.InventoryID = s.newID()
	err := s.tables[KindInventory].Mutate(func(rows []Row) ([]Row, error) {
		it.CreatedAt = s.clock.stamp()
		return append(rows, it.row()), nil
	})
	if err != nil {
		s.lg.Errorf("store: save inventory: %v", err)
	}
	return err
}

func (s *Store) GetInventory(limit int) ([]*InventoryItem, error) {
	rows, err := s.tables[KindInventory].LoadAll()
	if err != nil {
		s.lg.Errorf("store: read inventory: %v", err)
		return []*InventoryItem{}, err
	}
	out := make([]*InventoryItem, 0, min(max(limit, 0), len(rows)))
	for _, r := range headLimit(rows, limit, nil) {
		out = append(out, inventoryFromRow(r))
	}
	return out, nil
}
