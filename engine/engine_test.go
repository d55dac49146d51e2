package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scmcore/config"
	"scmcore/messaging"
	"scmcore/predict"
	"scmcore/protocol"
	"scmcore/store"
)

type fakeEngines struct {
	mu       sync.Mutex
	inFlight int32
	peak     int32
	fail     error
	delay    time.Duration
}

func (f *fakeEngines) PredictSupplier(ctx context.Context, in *predict.SupplierInput) (store.Value, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	f.mu.Lock()
	if n > f.peak {
		f.peak = n
	}
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.fail != nil {
		return store.Null(), f.fail
	}
	score := 1 / float64(in.LeadTime)
	return store.Object(
		store.M("reliability_score", store.Float(score)),
		store.M("model", store.String("RandomForest")),
	), nil
}

func (f *fakeEngines) ForecastInventory(ctx context.Context, steps int, confidence float64) (store.Value, error) {
	items := make([]store.Value, steps)
	for i := range items {
		items[i] = store.Int(int64(100 + i))
	}
	return store.Object(store.M("forecast", store.Array(items...))), nil
}

func (f *fakeEngines) PredictShipment(ctx context.Context, in *predict.ShipmentInput) (store.Value, error) {
	return store.Object(store.M("status", store.String("Delayed")), store.M("delay_probability", store.Float(0.7))), nil
}

func (f *fakeEngines) OptimizeInventory(ctx context.Context, in *predict.InventoryInput) (store.Value, error) {
	return store.Object(store.M("economic_order_quantity", store.Float(316.2))), nil
}

func (f *fakeEngines) OptimizeRouting(ctx context.Context, in *predict.RoutingInput) (store.Value, error) {
	return store.Object(store.M("total_distance", store.Float(42.5)), store.M("routes", store.Array())), nil
}

func (f *fakeEngines) Models(ctx context.Context) (store.Value, error) {
	return store.Object(store.M("loaded_models", store.Array(store.String("RandomForest")))), nil
}

func (f *fakeEngines) ReloadModels(ctx context.Context) error { return f.fail }

func testEngine(t *testing.T, fe *fakeEngines, withMessaging bool) *Engine {
	t.Helper()
	cfg := config.Defaults()
	cfg.Store.DataDir = t.TempDir()
	cfg.Engines.ParallelWorkers = 2
	st, err := store.Open(&cfg.Store)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	c := Config{AppConfig: cfg, Store: st, Engines: fe}
	if withMessaging {
		cfg.Messaging.Backend = "kafka"
		cfg.Messaging.OutboxDrainInterval = time.Hour
		c.MsgClient = messaging.NewClient(&cfg.Messaging)
	}
	eng := New(c)
	eng.Start()
	t.Cleanup(eng.Stop)
	return eng
}

func TestPredictSupplierLogsPrediction(t *testing.T) {
	eng := testEngine(t, &fakeEngines{}, false)

	res, err := eng.PredictSupplier(context.Background(), &predict.SupplierInput{LeadTime: 4, Cost: 10, PastOrders: 3})
	require.NoError(t, err)
	score, ok := predict.FloatField(res, "reliability_score")
	require.True(t, ok)
	assert.Equal(t, 0.25, score)

	logs, err := eng.Store().GetPredictions(10, PredictionSupplier)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "RandomForest", logs[0].ModelUsed)
	lt, _ := logs[0].InputData.Get("lead_time")
	assert.Equal(t, "4", lt.Literal())
}

func TestPredictSupplierRejectsInvalidInput(t *testing.T) {
	eng := testEngine(t, &fakeEngines{}, false)
	_, err := eng.PredictSupplier(context.Background(), &predict.SupplierInput{LeadTime: 0, Cost: 10})
	var ve *predict.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "lead_time", ve.Field)

	logs, _ := eng.Store().GetPredictions(10, "")
	assert.Empty(t, logs)
}

func TestPredictShipmentSavesRecord(t *testing.T) {
	eng := testEngine(t, &fakeEngines{}, false)
	_, err := eng.PredictShipment(context.Background(), &predict.ShipmentInput{DeliveryTime: 5, Quantity: 20, DelayTime: 2})
	require.NoError(t, err)

	shipments, err := eng.Store().GetShipments(10)
	require.NoError(t, err)
	require.Len(t, shipments, 1)
	assert.Equal(t, "Delayed", shipments[0].Status)
	assert.Equal(t, int64(20), *shipments[0].Quantity)

	logs, _ := eng.Store().GetPredictions(10, PredictionShipment)
	assert.Len(t, logs, 1)
}

func TestPredictShipmentAnswersWhenRecordSaveFails(t *testing.T) {
	eng := testEngine(t, &fakeEngines{}, false)
	require.NoError(t, os.Remove(filepath.Join(eng.AppConfig().Store.DataDir, "shipments.csv")))

	res, err := eng.PredictShipment(context.Background(), &predict.ShipmentInput{DeliveryTime: 5, Quantity: 20, DelayTime: 2})
	require.NoError(t, err)
	assert.Equal(t, "Delayed", predict.StringField(res, "status", ""))

	logs, _ := eng.Store().GetPredictions(10, PredictionShipment)
	assert.Len(t, logs, 1)
}

func TestOptimizeRoutingAnswersWhenRecordSaveFails(t *testing.T) {
	eng := testEngine(t, &fakeEngines{}, false)
	require.NoError(t, os.Remove(filepath.Join(eng.AppConfig().Store.DataDir, "routes.csv")))

	in := &predict.RoutingInput{Depot: predict.Location{Lat: 1, Lon: 1}}
	res, err := eng.OptimizeRouting(context.Background(), in)
	require.NoError(t, err)
	d, ok := predict.FloatField(res, "total_distance")
	require.True(t, ok)
	assert.Equal(t, 42.5, d)
}

func TestForecastInventory(t *testing.T) {
	eng := testEngine(t, &fakeEngines{}, false)
	res, err := eng.ForecastInventory(context.Background(), 3, 0.9)
	require.NoError(t, err)
	f, _ := res.Get("forecast")
	assert.Equal(t, 3, f.Len())

	logs, _ := eng.Store().GetPredictions(10, PredictionForecast)
	require.Len(t, logs, 1)
	assert.Equal(t, "ARIMA", logs[0].ModelUsed)

	_, err = eng.ForecastInventory(context.Background(), 0, 0.9)
	assert.Error(t, err)
	_, err = eng.ForecastInventory(context.Background(), 3, 1.5)
	assert.Error(t, err)
}

func TestOptimizeInventoryLogsEOQ(t *testing.T) {
	eng := testEngine(t, &fakeEngines{}, false)
	_, err := eng.OptimizeInventory(context.Background(), &predict.InventoryInput{AnnualDemand: 1000, UnitCost: 5, DemandStd: 10, LeadTimeDays: 7})
	require.NoError(t, err)
	logs, _ := eng.Store().GetPredictions(10, PredictionInventory)
	require.Len(t, logs, 1)
	assert.Equal(t, "EOQ_Model", logs[0].ModelUsed)
}

func TestOptimizeRoutingSavesRoute(t *testing.T) {
	eng := testEngine(t, &fakeEngines{}, false)
	in := &predict.RoutingInput{
		Depot:     predict.Location{Lat: 40.7, Lon: -74.0, Name: "DC"},
		Customers: []predict.Location{{Lat: 40.8, Lon: -73.9, Demand: 5}},
	}
	_, err := eng.OptimizeRouting(context.Background(), in)
	require.NoError(t, err)

	routes, err := eng.Store().GetRoutes(10)
	require.NoError(t, err)
	require.Len(t, routes, 1)
	r := routes[0]
	assert.Equal(t, predict.DefaultRoutingAlgorithm, r.Algorithm)
	assert.Equal(t, 42.5, *r.TotalDistance)
	name, _ := r.Depot.Get("name")
	s, _ := name.AsString()
	assert.Equal(t, "DC", s)
	assert.Equal(t, 1, r.Customers.Len())

	logs, _ := eng.Store().GetPredictions(10, PredictionRouting)
	require.Len(t, logs, 1)
	assert.Equal(t, "VRP_clarke_wright", logs[0].ModelUsed)
}

func TestBatchEvaluateKeepsOrderAndLimit(t *testing.T) {
	fe := &fakeEngines{delay: 10 * time.Millisecond}
	eng := testEngine(t, fe, false)

	inputs := []predict.SupplierInput{
		{LeadTime: 1, Cost: 1}, {LeadTime: 2, Cost: 1}, {LeadTime: 4, Cost: 1},
		{LeadTime: 5, Cost: 1}, {LeadTime: 10, Cost: 1},
	}
	res, err := eng.BatchEvaluateSuppliers(context.Background(), inputs)
	require.NoError(t, err)
	assert.Equal(t, 5, res.TotalSuppliers)
	want := []float64{1, 0.5, 0.25, 0.2, 0.1}
	for i, v := range res.Results {
		score, _ := predict.FloatField(v, "reliability_score")
		assert.Equal(t, want[i], score, "result %d", i)
	}
	assert.LessOrEqual(t, fe.peak, int32(2), "worker limit exceeded")

	logs, _ := eng.Store().GetPredictions(10, PredictionBatchSupplier)
	require.Len(t, logs, 1)
	total, _ := logs[0].Result.Get("total")
	assert.Equal(t, "5", total.Literal())
}

func TestBatchEvaluateFails(t *testing.T) {
	eng := testEngine(t, &fakeEngines{fail: errors.New("engine down")}, false)
	_, err := eng.BatchEvaluateSuppliers(context.Background(), []predict.SupplierInput{{LeadTime: 1, Cost: 1}})
	assert.Error(t, err)

	_, err = eng.BatchEvaluateSuppliers(context.Background(), []predict.SupplierInput{{LeadTime: 1, Cost: -1}})
	var ve *predict.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestScoreSupplierUpdatesRecord(t *testing.T) {
	eng := testEngine(t, &fakeEngines{}, false)
	sp := &store.Supplier{Name: "Acme", LeadTime: store.Ptr(5.0), Cost: store.Ptr(12.0), PastOrders: store.Ptr[int64](40)}
	_, err := eng.SaveSupplier(sp)
	require.NoError(t, err)

	scored, _, err := eng.ScoreSupplier(context.Background(), sp.SupplierID)
	require.NoError(t, err)
	assert.Equal(t, 0.2, *scored.ReliabilityScore)

	got, err := eng.Store().GetSupplier(sp.SupplierID)
	require.NoError(t, err)
	assert.Equal(t, 0.2, *got.ReliabilityScore)
	assert.True(t, got.CreatedAt.Equal(sp.CreatedAt))

	list, _ := eng.Store().GetSuppliers(10)
	assert.Len(t, list, 1)

	_, _, err = eng.ScoreSupplier(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrRecordNotFound)

	bare := &store.Supplier{Name: "NoData"}
	_, err = eng.SaveSupplier(bare)
	require.NoError(t, err)
	_, _, err = eng.ScoreSupplier(context.Background(), bare.SupplierID)
	var ve *predict.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestScoreSupplierRoundsStoredLeadTime(t *testing.T) {
	eng := testEngine(t, &fakeEngines{}, false)
	sp := &store.Supplier{Name: "Frac", LeadTime: store.Ptr(4.6), Cost: store.Ptr(3.0), PastOrders: store.Ptr[int64](1)}
	_, err := eng.SaveSupplier(sp)
	require.NoError(t, err)

	scored, _, err := eng.ScoreSupplier(context.Background(), sp.SupplierID)
	require.NoError(t, err)
	assert.Equal(t, 0.2, *scored.ReliabilityScore)

	huge := &store.Supplier{Name: "Huge", LeadTime: store.Ptr(1e19), Cost: store.Ptr(3.0), PastOrders: store.Ptr[int64](1)}
	_, err = eng.SaveSupplier(huge)
	require.NoError(t, err)
	_, _, err = eng.ScoreSupplier(context.Background(), huge.SupplierID)
	var ve *predict.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "lead_time", ve.Field)
}

func TestDeleteSupplierNotFound(t *testing.T) {
	eng := testEngine(t, &fakeEngines{}, false)
	assert.ErrorIs(t, eng.DeleteSupplier("nope"), store.ErrRecordNotFound)
}

func TestWritesEmitEventsAndQueueEnvelopes(t *testing.T) {
	eng := testEngine(t, &fakeEngines{}, true)

	var mu sync.Mutex
	var seen []EventType
	eng.Events.Subscribe(func(evt Event) {
		mu.Lock()
		seen = append(seen, evt.Type)
		mu.Unlock()
	})

	sp := &store.Supplier{Name: "Acme"}
	_, err := eng.SaveSupplier(sp)
	require.NoError(t, err)
	require.NoError(t, eng.DeleteSupplier(sp.SupplierID))
	eng.LogPrediction("supplier", map[string]any{"a": 1}, store.Null(), "m")

	mu.Lock()
	assert.Equal(t, []EventType{EventRecordSaved, EventRecordDeleted, EventPredictionLogged}, seen)
	mu.Unlock()

	// the kafka client never connected, so everything is still queued
	pending := eng.Outbox().ListPending(10)
	require.Len(t, pending, 3)
	assert.Equal(t, "scm.records.supplier", pending[0].Topic)
	assert.Equal(t, "scm.records.prediction", pending[2].Topic)

	env, err := protocol.Decode(pending[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, protocol.TypeRecordSaved, env.Type)
	var saved protocol.RecordSaved
	require.NoError(t, env.DecodePayload(&saved))
	assert.Equal(t, sp.SupplierID, saved.RecordID)
	assert.True(t, saved.Created)
	assert.Contains(t, string(saved.Record), `"name":"Acme"`)
}

func TestStatisticsAndRankingThroughEngine(t *testing.T) {
	eng := testEngine(t, &fakeEngines{}, false)
	_, err := eng.SaveSupplier(&store.Supplier{SupplierID: "b", ReliabilityScore: store.Ptr(0.3)})
	require.NoError(t, err)
	_, err = eng.SaveSupplier(&store.Supplier{SupplierID: "a", ReliabilityScore: store.Ptr(0.8)})
	require.NoError(t, err)
	require.NoError(t, eng.SaveInventory(&store.InventoryItem{ItemName: "bolts"}))

	st := eng.Statistics(context.Background())
	assert.Equal(t, 2, st.TotalSuppliers)
	assert.Equal(t, 1, st.TotalInventoryItems)

	ranked, err := eng.SupplierRanking(context.Background())
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "a", ranked[0].SupplierID)
}

func TestEventBusFiltersAndUnsubscribes(t *testing.T) {
	bus := NewEventBus()
	var saved, all int
	bus.SubscribeTypes(func(Event) { saved++ }, EventRecordSaved)
	id := bus.Subscribe(func(Event) { all++ })

	bus.Emit(Event{Type: EventRecordSaved})
	bus.Emit(Event{Type: EventRecordDeleted})
	bus.Unsubscribe(id)
	bus.Emit(Event{Type: EventRecordSaved})

	assert.Equal(t, 2, saved)
	assert.Equal(t, 2, all)
}
