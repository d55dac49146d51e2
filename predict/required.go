package predict

import "encoding/json"

// requireKeys fails when any of keys is absent or null in the JSON object
// data. Decoding into the zero value would otherwise accept a missing field.
func requireKeys(data []byte, keys ...string) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for _, k := range keys {
		raw, ok := fields[k]
		if !ok || string(raw) == "null" {
			return invalid(k, "is required")
		}
	}
	return nil
}

func (in *SupplierInput) UnmarshalJSON(data []byte) error {
	if err := requireKeys(data, "lead_time", "cost", "past_orders"); err != nil {
		return err
	}
	type plain SupplierInput
	return json.Unmarshal(data, (*plain)(in))
}

func (in *ShipmentInput) UnmarshalJSON(data []byte) error {
	if err := requireKeys(data, "delivery_time", "quantity", "delay_time"); err != nil {
		return err
	}
	type plain ShipmentInput
	return json.Unmarshal(data, (*plain)(in))
}

func (in *InventoryInput) UnmarshalJSON(data []byte) error {
	if err := requireKeys(data, "annual_demand", "unit_cost", "demand_std", "lead_time_days"); err != nil {
		return err
	}
	type plain InventoryInput
	return json.Unmarshal(data, (*plain)(in))
}

func (l *Location) UnmarshalJSON(data []byte) error {
	if err := requireKeys(data, "lat", "lon"); err != nil {
		return err
	}
	type plain Location
	return json.Unmarshal(data, (*plain)(l))
}

func (in *RoutingInput) UnmarshalJSON(data []byte) error {
	if err := requireKeys(data, "depot", "customers"); err != nil {
		return err
	}
	type plain RoutingInput
	return json.Unmarshal(data, (*plain)(in))
}
