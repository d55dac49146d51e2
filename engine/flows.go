package engine

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"scmcore/predict"
	"scmcore/store"
)

// Prediction types recorded in the audit trail.
const (
	PredictionSupplier      = "supplier"
	PredictionForecast      = "inventory_forecast"
	PredictionShipment      = "shipment"
	PredictionInventory     = "inventory"
	PredictionRouting       = "routing"
	PredictionBatchSupplier = "batch_supplier"
)

// PredictSupplier scores one supplier profile.
func (e *Engine) PredictSupplier(ctx context.Context, in *predict.SupplierInput) (store.Value, error) {
	if err := in.Validate(); err != nil {
		return store.Null(), err
	}
	res, err := e.engines.PredictSupplier(ctx, in)
	if err != nil {
		e.lg.Errorf("engine: predict supplier: %v", err)
		return store.Null(), err
	}
	e.LogPrediction(PredictionSupplier, in, res, predict.ModelName(res, "RandomForest"))
	return res, nil
}

func (e *Engine) ForecastInventory(ctx context.Context, steps int, confidence float64) (store.Value, error) {
	if steps < 1 {
		return store.Null(), &predict.ValidationError{Field: "steps", Reason: "must be 1 or more"}
	}
	if !(confidence > 0 && confidence < 1) {
		return store.Null(), &predict.ValidationError{Field: "confidence_level", Reason: "must be between 0 and 1"}
	}
	res, err := e.engines.ForecastInventory(ctx, steps, confidence)
	if err != nil {
		e.lg.Errorf("engine: forecast inventory: %v", err)
		return store.Null(), err
	}
	input := store.Object(store.M("steps", store.Int(int64(steps))), store.M("confidence_level", store.Float(confidence)))
	e.LogPrediction(PredictionForecast, input, res, predict.ModelName(res, "ARIMA"))
	return res, nil
}

// PredictShipment predicts a delay and records the shipment with the
// predicted status.
func (e *Engine) PredictShipment(ctx context.Context, in *predict.ShipmentInput) (store.Value, error) {
	if err := in.Validate(); err != nil {
		return store.Null(), err
	}
	res, err := e.engines.PredictShipment(ctx, in)
	if err != nil {
		e.lg.Errorf("engine: predict shipment: %v", err)
		return store.Null(), err
	}
	e.LogPrediction(PredictionShipment, in, res, predict.ModelName(res, "LogisticRegression"))

	sh := &store.Shipment{
		DeliveryTime: store.Ptr(int64(in.DeliveryTime)),
		Quantity:     store.Ptr(int64(in.Quantity)),
		DelayTime:    store.Ptr(int64(in.DelayTime)),
		Status:       predict.StringField(res, "status", "Unknown"),
	}
	if err := e.SaveShipment(sh); err != nil {
		e.lg.Warnf("engine: save predicted shipment: %v", err)
	}
	return res, nil
}

func (e *Engine) OptimizeInventory(ctx context.Context, in *predict.InventoryInput) (store.Value, error) {
	if err := in.Validate(); err != nil {
		return store.Null(), err
	}
	res, err := e.engines.OptimizeInventory(ctx, in)
	if err != nil {
		e.lg.Errorf("engine: optimize inventory: %v", err)
		return store.Null(), err
	}
	e.LogPrediction(PredictionInventory, in, res, "EOQ_Model")
	return res, nil
}

// OptimizeRouting plans vehicle routes and keeps the plan as a route record.
func (e *Engine) OptimizeRouting(ctx context.Context, in *predict.RoutingInput) (store.Value, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return store.Null(), err
	}
	res, err := e.engines.OptimizeRouting(ctx, in)
	if err != nil {
		e.lg.Errorf("engine: optimize routing: %v", err)
		return store.Null(), err
	}
	e.LogPrediction(PredictionRouting, in, res, "VRP_"+in.Algorithm)

	if err := e.saveRoutePlan(in, res); err != nil {
		e.lg.Warnf("engine: save route plan: %v", err)
	}
	return res, nil
}

func (e *Engine) saveRoutePlan(in *predict.RoutingInput, res store.Value) error {
	depot, err := store.ValueOf(in.Depot)
	if err != nil {
		return err
	}
	customers, err := store.ValueOf(in.Customers)
	if err != nil {
		return err
	}
	rt := &store.Route{Depot: depot, Customers: customers, Algorithm: in.Algorithm}
	if d, ok := predict.FloatField(res, "total_distance"); ok {
		rt.TotalDistance = store.Ptr(d)
	}
	return e.SaveRoute(rt)
}

// BatchResult is the answer to a batch supplier evaluation.
type BatchResult struct {
	TotalSuppliers int           `json:"total_suppliers"`
	Results        []store.Value `json:"results"`
}

// BatchEvaluateSuppliers scores every input in parallel, bounded by the
// configured worker count. Results keep input order; the first failure
// cancels the rest.
func (e *Engine) BatchEvaluateSuppliers(ctx context.Context, inputs []predict.SupplierInput) (*BatchResult, error) {
	for i := range inputs {
		if err := inputs[i].Validate(); err != nil {
			return nil, fmt.Errorf("supplier %d: %w", i, err)
		}
	}

	results := make([]store.Value, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(e.cfg.Engines.ParallelWorkers, 1))
	for i := range inputs {
		g.Go(func() error {
			res, err := e.engines.PredictSupplier(gctx, &inputs[i])
			if err != nil {
				return fmt.Errorf("supplier %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.lg.Errorf("engine: batch evaluate: %v", err)
		return nil, err
	}

	e.LogPrediction(PredictionBatchSupplier,
		map[string]any{"suppliers": inputs},
		store.Object(store.M("results", store.Array(results...)), store.M("total", store.Int(int64(len(inputs))))),
		"RandomForest_Batch")
	return &BatchResult{TotalSuppliers: len(inputs), Results: results}, nil
}

// ScoreSupplier predicts reliability for a stored supplier and writes the
// score back to its record.
func (e *Engine) ScoreSupplier(ctx context.Context, id string) (*store.Supplier, store.Value, error) {
	sp, err := e.store.GetSupplier(id)
	if err != nil {
		return nil, store.Null(), err
	}
	if sp.LeadTime == nil || sp.Cost == nil || sp.PastOrders == nil {
		return nil, store.Null(), &predict.ValidationError{Field: "supplier", Reason: "needs lead_time, cost and past_orders to be scored"}
	}
	leadTime, ok := wholeDays(*sp.LeadTime)
	if !ok {
		return nil, store.Null(), &predict.ValidationError{Field: "lead_time", Reason: fmt.Sprintf("stored value %v is out of range", *sp.LeadTime)}
	}
	in := &predict.SupplierInput{LeadTime: leadTime, Cost: *sp.Cost, PastOrders: int(*sp.PastOrders)}
	res, err := e.PredictSupplier(ctx, in)
	if err != nil {
		return nil, store.Null(), err
	}
	score, ok := predict.FloatField(res, "reliability_score")
	if !ok {
		return nil, res, fmt.Errorf("engine returned no reliability_score for supplier %s", id)
	}
	sp.ReliabilityScore = store.Ptr(score)
	if _, err := e.SaveSupplier(sp); err != nil {
		return nil, res, err
	}
	return sp, res, nil
}

// Models describes the models loaded by the prediction engine.
func (e *Engine) Models(ctx context.Context) (store.Value, error) {
	return e.engines.Models(ctx)
}

func (e *Engine) ReloadModels(ctx context.Context) error {
	if err := e.engines.ReloadModels(ctx); err != nil {
		e.lg.Errorf("engine: reload models: %v", err)
		return err
	}
	e.lg.Infof("engine: models reloaded")
	return nil
}

// wholeDays rounds a stored lead time to the nearest day. Values that do not
// fit a positive int32 are rejected.
func wholeDays(f float64) (int, bool) {
	r := math.Round(f)
	if math.IsNaN(r) || r < 1 || r > math.MaxInt32 {
		return 0, false
	}
	return int(r), true
}
