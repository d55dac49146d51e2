package engine

import (
	"context"
	"time"

	"scmcore/config"
	"scmcore/logger"
	"scmcore/messaging"
	"scmcore/predict"
	"scmcore/statecache"
	"scmcore/store"
)

// Predictor is the external prediction engine and optimizer.
type Predictor interface {
	PredictSupplier(ctx context.Context, in *predict.SupplierInput) (store.Value, error)
	ForecastInventory(ctx context.Context, steps int, confidence float64) (store.Value, error)
	PredictShipment(ctx context.Context, in *predict.ShipmentInput) (store.Value, error)
	OptimizeInventory(ctx context.Context, in *predict.InventoryInput) (store.Value, error)
	OptimizeRouting(ctx context.Context, in *predict.RoutingInput) (store.Value, error)
	Models(ctx context.Context) (store.Value, error)
	ReloadModels(ctx context.Context) error
}

type Config struct {
	AppConfig *config.Config
	Store     *store.Store
	Cache     *statecache.Manager
	Engines   Predictor
	MsgClient *messaging.Client
	Logger    *logger.Logger
}

type Engine struct {
	cfg          *config.Config
	store        *store.Store
	cache        *statecache.Manager
	engines      Predictor
	msgClient    *messaging.Client
	outbox       *messaging.Outbox
	emitter      *messaging.Emitter
	drainer      *messaging.OutboxDrainer
	Events       *EventBus
	lg           *logger.Logger
	stopChan     chan struct{}
	msgConnected bool
}

func New(c Config) *Engine {
	lg := c.Logger
	if lg == nil {
		lg = logger.Nop()
	}
	cache := c.Cache
	if cache == nil {
		cache = statecache.NewManager(c.Store, nil, lg)
	}
	e := &Engine{
		cfg:       c.AppConfig,
		store:     c.Store,
		cache:     cache,
		engines:   c.Engines,
		msgClient: c.MsgClient,
		Events:    NewEventBus(),
		lg:        lg,
		stopChan:  make(chan struct{}),
	}
	if c.MsgClient != nil {
		mc := &e.cfg.Messaging
		e.outbox = messaging.NewOutbox(mc.OutboxCapacity)
		e.emitter = messaging.NewEmitter(e.outbox, mc.RecordsTopic, mc.StationID)
		e.drainer = messaging.NewOutboxDrainer(e.outbox, c.MsgClient, mc.OutboxDrainInterval, lg)
	}
	return e
}

func (e *Engine) Start() {
	e.wireEventHandlers()

	if e.drainer != nil {
		e.drainer.Start()
		e.checkConnectionStatus()
		go e.connectionHealthLoop()
	}

	e.lg.Infof("engine: started (store=%s, messaging=%s, cache=%t)", e.store.Driver(), e.cfg.Messaging.Backend, e.cache.Enabled())
}

func (e *Engine) Stop() {
	select {
	case <-e.stopChan:
		return
	default:
		close(e.stopChan)
	}
	if e.drainer != nil {
		e.drainer.Stop()
	}
	e.lg.Infof("engine: stopped")
}

// Accessors
func (e *Engine) Store() *store.Store          { return e.store }
func (e *Engine) AppConfig() *config.Config    { return e.cfg }
func (e *Engine) Cache() *statecache.Manager   { return e.cache }
func (e *Engine) Outbox() *messaging.Outbox    { return e.outbox }
func (e *Engine) Logger() *logger.Logger       { return e.lg }
func (e *Engine) MessagingConnected() bool     { return e.msgClient != nil && e.msgClient.IsConnected() }

func (e *Engine) checkConnectionStatus() {
	if e.msgClient.IsConnected() {
		if !e.msgConnected {
			e.msgConnected = true
			e.Events.Emit(Event{Type: EventMessagingConnected, Payload: ConnectionEvent{Detail: e.msgClient.Backend() + " connected"}})
		}
	} else {
		if e.msgConnected {
			e.msgConnected = false
			e.Events.Emit(Event{Type: EventMessagingDisconnected, Payload: ConnectionEvent{Detail: e.msgClient.Backend() + " disconnected"}})
		}
	}
}

func (e *Engine) connectionHealthLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-e.stopChan:
			return
		case <-ticker.C:
			e.checkConnectionStatus()
		}
	}
}
