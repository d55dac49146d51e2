package www

import (
	"context"
	"net/http"
	"time"

	"scmcore/store"
)

// modelsSummary asks the prediction engine for its models without letting a
// dead engine hold up the status pages.
func (h *Handlers) modelsSummary(ctx context.Context) (store.Value, bool) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	info, err := h.engine.Models(ctx)
	if err != nil {
		h.engine.Logger().Warnf("www: models info: %v", err)
		return store.Null(), false
	}
	return info, true
}

func (h *Handlers) handleRoot(w http.ResponseWriter, r *http.Request) {
	models := store.Array()
	if info, ok := h.modelsSummary(r.Context()); ok {
		if loaded, found := info.Get("loaded_models"); found {
			models = loaded
		}
	}
	h.jsonOK(w, map[string]any{
		"status":        "online",
		"message":       "Supply Chain Optimization API",
		"models_loaded": models,
		"database": map[string]any{
			"type":       h.engine.Store().Driver(),
			"statistics": h.engine.Statistics(r.Context()),
		},
		"features": map[string]bool{
			"predictions":            true,
			"inventory_optimization": true,
			"vehicle_routing":        true,
			"parallel_processing":    true,
			"record_events":          true,
		},
	})
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	tables := h.engine.Store().Check()
	status := "healthy"
	for _, t := range tables {
		if t.Error != "" {
			status = "degraded"
			break
		}
	}
	models, ok := h.modelsSummary(r.Context())
	if !ok {
		models = store.Object(store.M("error", store.String("prediction engine unavailable")))
	}
	cfg := h.engine.AppConfig()
	h.jsonOK(w, map[string]any{
		"status":   status,
		"models":   models,
		"database": h.engine.Statistics(r.Context()),
		"tables":   tables,
		"config": map[string]any{
			"parallel_workers": cfg.Engines.ParallelWorkers,
			"vehicle_capacity": cfg.Engines.VehicleCapacity,
		},
		"messaging": map[string]any{
			"backend":   cfg.Messaging.Backend,
			"connected": h.engine.MessagingConnected(),
		},
		"cache":       h.engine.Cache().Enabled(),
		"sse_clients": h.eventHub.ClientCount(),
	})
}
