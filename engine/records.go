package engine

import (
	"context"

	"scmcore/store"
)

// SaveSupplier upserts a supplier and announces the change.
func (e *Engine) SaveSupplier(sp *store.Supplier) (bool, error) {
	created, err := e.store.SaveSupplier(sp)
	if err != nil {
		return false, err
	}
	e.Events.Emit(Event{Type: EventRecordSaved, Payload: RecordSavedEvent{
		Kind: store.KindSupplier, RecordID: sp.SupplierID, Created: created, Record: sp,
	}})
	return created, nil
}

// DeleteSupplier removes a supplier. Removing nothing returns
// store.ErrRecordNotFound so callers can answer 404.
func (e *Engine) DeleteSupplier(id string) error {
	removed, err := e.store.DeleteSupplier(id)
	if err != nil {
		return err
	}
	if removed == 0 {
		return store.ErrRecordNotFound
	}
	e.Events.Emit(Event{Type: EventRecordDeleted, Payload: RecordDeletedEvent{
		Kind: store.KindSupplier, RecordID: id, Removed: removed,
	}})
	return nil
}

func (e *Engine) SaveShipment(sh *store.Shipment) error {
	if err := e.store.SaveShipment(sh); err != nil {
		return err
	}
	e.Events.Emit(Event{Type: EventRecordSaved, Payload: RecordSavedEvent{
		Kind: store.KindShipment, RecordID: sh.ShipmentID, Created: true, Record: sh,
	}})
	return nil
}

func (e *Engine) SaveInventory(it *store.InventoryItem) error {
	if err := e.store.SaveInventory(it); err != nil {
		return err
	}
	e.Events.Emit(Event{Type: EventRecordSaved, Payload: RecordSavedEvent{
		Kind: store.KindInventory, RecordID: it.InventoryID, Created: true, Record: it,
	}})
	return nil
}

func (e *Engine) SaveRoute(rt *store.Route) error {
	if err := e.store.SaveRoute(rt); err != nil {
		return err
	}
	e.Events.Emit(Event{Type: EventRecordSaved, Payload: RecordSavedEvent{
		Kind: store.KindRoute, RecordID: rt.RouteID, Created: true, Record: rt,
	}})
	return nil
}

// LogPrediction records an engine call in the audit trail. input may be any
// JSON-representable value. Failures are logged, not returned, so a
// prediction that succeeded is still answered.
func (e *Engine) LogPrediction(predictionType string, input any, result store.Value, model string) *store.PredictionLog {
	in, err := store.ValueOf(input)
	if err != nil {
		e.lg.Warnf("engine: prediction %s: input not loggable: %v", predictionType, err)
		in = store.Null()
	}
	p, err := e.store.LogPrediction(predictionType, in, result, model)
	if err != nil {
		e.lg.Warnf("engine: log prediction %s: %v", predictionType, err)
		return nil
	}
	e.Events.Emit(Event{Type: EventPredictionLogged, Payload: PredictionLoggedEvent{
		PredictionID: p.PredictionID, PredictionType: p.PredictionType, ModelUsed: p.ModelUsed,
	}})
	return p
}

// Statistics goes through the cache when one is configured.
func (e *Engine) Statistics(ctx context.Context) *store.Statistics {
	return e.cache.Statistics(ctx)
}

// SupplierRanking goes through the cache when one is configured.
func (e *Engine) SupplierRanking(ctx context.Context) ([]*store.Supplier, error) {
	return e.cache.SupplierRanking(ctx)
}
