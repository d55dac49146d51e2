package store

import "time"

const defaultAlgorithm = "unknown"

type Route struct {
	RouteID       string    `json:"route_id"`
	Depot         Value     `json:"depot"`
	Customers     Value     `json:"customers"`
	TotalDistance *float64  `json:"total_distance"`
	Algorithm     string    `json:"algorithm"`
	CreatedAt     time.Time `json:"created_at"`
}

// SaveRoute appends a route. A null depot is stored as {}, null customers
// as [], a missing distance as 0 and an empty algorithm as "unknown".
func (s *Store) SaveRoute(rt *Route) error {
	if rt.Depot.IsNull() {
		rt.Depot = Object()
	}
	if rt.Customers.IsNull() {
		rt.Customers = Array()
	}
	if rt.TotalDistance == nil {
		rt.TotalDistance = Ptr(0.0)
	}
	if rt.Algorithm == "" {
		rt.Algorithm = defaultAlgorithm
	}
	depot, err := EncodeValue(rt.Depot)
	if err != nil {
		return err
	}
	customers, err := EncodeValue(rt.Customers)
	if err != nil {
		return err
	}

	rt.RouteID = s.newID()
	err = s.tables[KindRoute].Mutate(func(rows []Row) ([]Row, error) {
		rt.CreatedAt = s.clock.stamp()
		return append(rows, Row{rt.RouteID, depot, customers, formatFloat(rt.TotalDistance), rt.Algorithm, formatTime(rt.CreatedAt)}), nil
	})
	if err != nil {
		s.lg.Errorf("store: save route: %v", err)
	}
	return err
}

func (s *Store) GetRoutes(limit int) ([]*Route, error) {
	rows, err := s.tables[KindRoute].LoadAll()
	if err != nil {
		s.lg.Errorf("store: read routes: %v", err)
		return []*Route{}, err
	}
	picked := headLimit(rows, limit, nil)
	out := make([]*Route, 0, len(picked))
	for _, r := range picked {
		rt := &Route{
			RouteID:       r[0],
			TotalDistance: parseFloat(r[3]),
			Algorithm:     r[4],
			CreatedAt:     parseTime(r[5]),
		}
		var ok bool
		if rt.Depot, ok = decodeCell(r[1]); !ok {
			s.lg.Warnf("store: route %s: depot is not valid json, returning raw", rt.RouteID)
		}
		if rt.Customers, ok = decodeCell(r[2]); !ok {
			s.lg.Warnf("store: route %s: customers is not valid json, returning raw", rt.RouteID)
		}
		out = append(out, rt)
	}
	return out, nil
}
