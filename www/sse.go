package www

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"scmcore/engine"
)

type SSEEvent struct {
	Event string
	Data  string
}

// sseClient is one open /events stream.
type sseClient struct {
	events chan SSEEvent
}

// EventHub fans engine events out to every /events stream. A client whose
// buffer is full misses events; the hub never blocks on it.
type EventHub struct {
	mu        sync.RWMutex
	clients   map[*sseClient]struct{}
	queue     chan SSEEvent
	done      chan struct{}
	stopOnce  sync.Once
	keepalive time.Duration
}

func NewEventHub() *EventHub {
	return &EventHub{
		clients:   make(map[*sseClient]struct{}),
		queue:     make(chan SSEEvent, 256),
		done:      make(chan struct{}),
		keepalive: 30 * time.Second,
	}
}

func (h *EventHub) Start() { go h.loop() }

func (h *EventHub) Stop() { h.stopOnce.Do(func() { close(h.done) }) }

func (h *EventHub) loop() {
	ping := time.NewTicker(h.keepalive)
	defer ping.Stop()
	for {
		select {
		case <-h.done:
			return
		case evt := <-h.queue:
			h.deliver(evt)
		case <-ping.C:
			h.deliver(SSEEvent{Event: "keepalive", Data: "ping"})
		}
	}
}

func (h *EventHub) deliver(evt SSEEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.events <- evt:
		default:
		}
	}
}

// Broadcast queues an event for every client. It drops the event when the
// hub is backed up.
func (h *EventHub) Broadcast(event, data string) {
	select {
	case h.queue <- SSEEvent{Event: event, Data: data}:
	default:
	}
}

// join registers a stream and returns the func that removes it.
func (h *EventHub) join() (*sseClient, func()) {
	c := &sseClient{events: make(chan SSEEvent, 64)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c, func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
	}
}

func (h *EventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SetupEngineListeners forwards every engine event; the event type becomes
// the SSE event name and the payload is sent as JSON.
func (h *EventHub) SetupEngineListeners(eng *engine.Engine) {
	lg := eng.Logger()
	eng.Events.Subscribe(func(evt engine.Event) {
		data, err := json.Marshal(evt.Payload)
		if err != nil {
			lg.Warnf("sse: encode %s: %v", evt.Type, err)
			return
		}
		h.Broadcast(string(evt.Type), string(data))
	})
}

func (h *EventHub) SSEHandler(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// join before the headers go out so nothing emitted after the client
	// sees the response is missed
	c, leave := h.join()
	defer leave()

	hdr := w.Header()
	hdr.Set("Content-Type", "text/event-stream")
	hdr.Set("Cache-Control", "no-cache")
	hdr.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-h.done:
			return
		case evt := <-c.events:
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Event, evt.Data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
