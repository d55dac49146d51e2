package store

import "time"

type Shipment struct {
	ShipmentID   string    `json:"shipment_id"`
	DeliveryTime *int64    `json:"delivery_time"`
	Quantity     *int64    `json:"quantity"`
	DelayTime    *int64    `json:"delay_time"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

func (sh *Shipment) row() Row {
	return Row{
		sh.ShipmentID,
		formatInt(sh.DeliveryTime),
		formatInt(sh.Quantity),
		formatInt(sh.DelayTime),
		sh.Status,
		formatTime(sh.CreatedAt),
	}
}

func shipmentFromRow(r Row) *Shipment {
	return &Shipment{
		ShipmentID:   r[0],
		DeliveryTime: parseInt(r[1]),
		Quantity:     parseInt(r[2]),
		DelayTime:    parseInt(r[3]),
		Status:       r[4],
		CreatedAt:    parseTime(r[5]),
	}
}

// SaveShipment appends a shipment. The identifier is always generated.
func (s *Store) SaveShipment(sh *Shipment) error {
	sh.ShipmentID = s.newID()
	err := s.tables[KindShipment].Mutate(func(rows []Row) ([]Row, error) {
		sh.CreatedAt = s.clock.stamp()
		return append(rows, sh.row()), nil
	})
	if err != nil {
		s.lg.Errorf("store: save shipment: %v", err)
	}
	return err
}

func (s *Store) GetShipments(limit int) ([]*Shipment, error) {
	rows, err := s.tables[KindShipment].LoadAll()
	if err != nil {
		s.lg.Errorf("store: read shipments: %v", err)
		return []*Shipment{}, err
	}
	out := make([]*Shipment, 0, min(max(limit, 0), len(rows)))
	for _, r := range headLimit(rows, limit, nil) {
		out = append(out, shipmentFromRow(r))
	}
	return out, nil
}
