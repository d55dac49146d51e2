package predict

import (
	"fmt"
	"math"
)

// ValidationError reports a request field outside its allowed range.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

type SupplierInput struct {
	LeadTime   int     `json:"lead_time"`
	Cost       float64 `json:"cost"`
	PastOrders int     `json:"past_orders"`
}

func (in *SupplierInput) Validate() error {
	if in.LeadTime < 1 || in.LeadTime > 365 {
		return invalid("lead_time", "must be between 1 and 365")
	}
	if !(in.Cost > 0) || math.IsInf(in.Cost, 0) {
		return invalid("cost", "must be greater than 0")
	}
	if in.PastOrders < 0 {
		return invalid("past_orders", "must be 0 or more")
	}
	return nil
}

type ShipmentInput struct {
	DeliveryTime int `json:"delivery_time"`
	Quantity     int `json:"quantity"`
	DelayTime    int `json:"delay_time"`
}

func (in *ShipmentInput) Validate() error {
	if in.DeliveryTime < 1 {
		return invalid("delivery_time", "must be 1 or more")
	}
	if in.Quantity < 1 {
		return invalid("quantity", "must be 1 or more")
	}
	if in.DelayTime < 0 {
		return invalid("delay_time", "must be 0 or more")
	}
	return nil
}

type InventoryInput struct {
	AnnualDemand float64 `json:"annual_demand"`
	UnitCost     float64 `json:"unit_cost"`
	DemandStd    float64 `json:"demand_std"`
	LeadTimeDays int     `json:"lead_time_days"`
}

func (in *InventoryInput) Validate() error {
	if !(in.AnnualDemand > 0) {
		return invalid("annual_demand", "must be greater than 0")
	}
	if !(in.UnitCost > 0) {
		return invalid("unit_cost", "must be greater than 0")
	}
	if !(in.DemandStd >= 0) {
		return invalid("demand_std", "must be 0 or more")
	}
	if in.LeadTimeDays < 1 {
		return invalid("lead_time_days", "must be 1 or more")
	}
	return nil
}

type Location struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Name   string  `json:"name"`
	Demand float64 `json:"demand"`
}

func (l *Location) validate(field string) error {
	if !(l.Lat >= -90 && l.Lat <= 90) {
		return invalid(field+".lat", "must be between -90 and 90")
	}
	if !(l.Lon >= -180 && l.Lon <= 180) {
		return invalid(field+".lon", "must be between -180 and 180")
	}
	return nil
}

const DefaultRoutingAlgorithm = "clarke_wright"

type RoutingInput struct {
	Depot     Location   `json:"depot"`
	Customers []Location `json:"customers"`
	Algorithm string     `json:"algorithm"`
}

// Normalize fills the defaults the optimizer expects.
func (in *RoutingInput) Normalize() {
	if in.Algorithm == "" {
		in.Algorithm = DefaultRoutingAlgorithm
	}
	if in.Depot.Name == "" {
		in.Depot.Name = "Location"
	}
	if in.Customers == nil {
		in.Customers = []Location{}
	}
	for i := range in.Customers {
		if in.Customers[i].Name == "" {
			in.Customers[i].Name = "Location"
		}
	}
}

func (in *RoutingInput) Validate() error {
	if err := in.Depot.validate("depot"); err != nil {
		return err
	}
	for i := range in.Customers {
		if err := in.Customers[i].validate(fmt.Sprintf("customers[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}
