package messaging

import (
	"sync"
	"time"

	"scmcore/logger"
	"scmcore/protocol"
)

// MaxRetries is how many failed publishes a message survives before it is
// dropped.
const MaxRetries = 5

// OutboxMessage is one queued publish.
type OutboxMessage struct {
	ID       int64
	Topic    string
	Payload  []byte
	Retries  int
	QueuedAt time.Time
}

// Outbox is a bounded in-memory FIFO of pending publishes. When full, the
// oldest message is dropped to make room.
type Outbox struct {
	mu       sync.Mutex
	capacity int
	nextID   int64
	pending  []*OutboxMessage
	dropped  int64
}

func NewOutbox(capacity int) *Outbox {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Outbox{capacity: capacity}
}

// Enqueue adds a message and returns its id.
func (o *Outbox) Enqueue(topic string, payload []byte) int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.nextID++
	if len(o.pending) >= o.capacity {
		o.pending = o.pending[1:]
		o.dropped++
	}
	o.pending = append(o.pending, &OutboxMessage{
		ID:       o.nextID,
		Topic:    topic,
		Payload:  payload,
		QueuedAt: time.Now(),
	})
	return o.nextID
}

// ListPending returns up to limit messages in queue order.
func (o *Outbox) ListPending(limit int) []*OutboxMessage {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := min(limit, len(o.pending))
	out := make([]*OutboxMessage, n)
	copy(out, o.pending[:n])
	return out
}

// Ack removes a delivered message.
func (o *Outbox) Ack(id int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, m := range o.pending {
		if m.ID == id {
			o.pending = append(o.pending[:i], o.pending[i+1:]...)
			return
		}
	}
}

// IncrementRetries records a failed publish and drops the message once it
// has failed MaxRetries times. It reports whether the message was dropped.
func (o *Outbox) IncrementRetries(id int64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, m := range o.pending {
		if m.ID == id {
			m.Retries++
			if m.Retries >= MaxRetries {
				o.pending = append(o.pending[:i], o.pending[i+1:]...)
				o.dropped++
				return true
			}
			return false
		}
	}
	return false
}

// Len returns the number of pending messages.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending)
}

// Dropped returns how many messages were discarded for overflow or retries.
func (o *Outbox) Dropped() int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dropped
}

// OutboxDrainer periodically sends pending outbox messages.
type OutboxDrainer struct {
	outbox   *Outbox
	client   Publisher
	interval time.Duration
	lg       *logger.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewOutboxDrainer(outbox *Outbox, client Publisher, interval time.Duration, lg *logger.Logger) *OutboxDrainer {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if lg == nil {
		lg = logger.Nop()
	}
	return &OutboxDrainer{
		outbox:   outbox,
		client:   client,
		interval: interval,
		lg:       lg,
		stopChan: make(chan struct{}),
	}
}

func (d *OutboxDrainer) Start() {
	d.wg.Add(1)
	go d.run()
}

// Stop ends the drain loop after one final drain attempt.
func (d *OutboxDrainer) Stop() {
	select {
	case <-d.stopChan:
	default:
		close(d.stopChan)
	}
	d.wg.Wait()
}

func (d *OutboxDrainer) run() {
	defer d.wg.Done()
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopChan:
			d.Drain()
			return
		case <-ticker.C:
			d.Drain()
		}
	}
}

// Drain publishes one batch of pending messages. Envelopes past their expiry
// are discarded instead of sent.
func (d *OutboxDrainer) Drain() {
	if !d.client.IsConnected() {
		return
	}
	for _, msg := range d.outbox.ListPending(50) {
		if hdr, err := protocol.PeekHeader(msg.Payload); err == nil && protocol.IsExpiredHeader(hdr) {
			d.lg.Warnf("outbox: msg %d (%s %s) expired unsent, dropping", msg.ID, hdr.Type, hdr.ID)
			d.outbox.Ack(msg.ID)
			continue
		}
		if err := d.client.Publish(msg.Topic, msg.Payload); err != nil {
			d.lg.Warnf("outbox: publish msg %d to %s failed: %v", msg.ID, msg.Topic, err)
			if d.outbox.IncrementRetries(msg.ID) {
				d.lg.Errorf("outbox: dropping msg %d after %d attempts", msg.ID, MaxRetries)
			}
			continue
		}
		d.outbox.Ack(msg.ID)
	}
}
