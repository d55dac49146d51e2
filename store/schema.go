package store

// Kind names one of the fixed record categories.
type Kind string

const (
	KindSupplier   Kind = "supplier"
	KindShipment   Kind = "shipment"
	KindInventory  Kind = "inventory"
	KindPrediction Kind = "prediction"
	KindRoute      Kind = "route"
)

// Kinds lists every record kind in statistics order.
var Kinds = []Kind{KindSupplier, KindShipment, KindInventory, KindPrediction, KindRoute}

// Schema is the fixed column layout of one record kind. The first column is
// always the identifier.
type Schema struct {
	Kind    Kind
	Table   string
	Columns []string
}

var schemas = map[Kind]*Schema{
	KindSupplier: {
		Kind:    KindSupplier,
		Table:   "suppliers",
		Columns: []string{"supplier_id", "name", "lead_time", "cost", "past_orders", "reliability_score", "created_at"},
	},
	KindShipment: {
		Kind:    KindShipment,
		Table:   "shipments",
		Columns: []string{"shipment_id", "delivery_time", "quantity", "delay_time", "status", "created_at"},
	},
	KindInventory: {
		Kind:    KindInventory,
		Table:   "inventory",
		Columns: []string{"inventory_id", "item_name", "quantity", "reorder_point", "safety_stock", "created_at"},
	},
	KindPrediction: {
		Kind:    KindPrediction,
		Table:   "predictions",
		Columns: []string{"prediction_id", "prediction_type", "input_data", "result", "model_used", "created_at"},
	},
	KindRoute: {
		Kind:    KindRoute,
		Table:   "routes",
		Columns: []string{"route_id", "depot", "customers", "total_distance", "algorithm", "created_at"},
	},
}

func (s *Schema) IDColumn() string { return s.Columns[0] }
func (s *Schema) FileName() string { return s.Table + ".csv" }

// Index returns the position of col, or -1.
func (s *Schema) Index(col string) int {
	for i, c := range s.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// Row is one record as cells aligned with Schema.Columns. An empty cell is null.
type Row []string

// ID returns the identifier cell.
func (r Row) ID() string {
	if len(r) == 0 {
		return ""
	}
	return r[0]
}
