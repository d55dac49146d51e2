package www

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/sessions"

	"scmcore/engine"
)

type Handlers struct {
	engine   *engine.Engine
	sessions *sessions.CookieStore
	eventHub *EventHub
}

// NewRouter builds the HTTP surface. The returned func stops the SSE hub.
func NewRouter(eng *engine.Engine) (http.Handler, func()) {
	hub := NewEventHub()
	hub.Start()
	hub.SetupEngineListeners(eng)

	h := &Handlers{
		engine:   eng,
		sessions: newSessionStore(eng.AppConfig().Web.SessionSecret),
		eventHub: hub,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(eng.Logger()))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   eng.AppConfig().Web.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/events", hub.SSEHandler)

	r.Get("/", h.handleRoot)
	r.Get("/health", h.handleHealth)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)

	r.Route("/api/v1", func(r chi.Router) {
		// Engine calls. They log predictions but never change stored records
		// a client owns, so they stay open.
		r.Post("/predict/supplier", h.apiPredictSupplier)
		r.Get("/predict/inventory", h.apiForecastInventory)
		r.Post("/predict/shipment", h.apiPredictShipment)
		r.Post("/optimize/inventory", h.apiOptimizeInventory)
		r.Post("/optimize/routing", h.apiOptimizeRouting)
		r.Post("/batch/suppliers", h.apiBatchSuppliers)
		r.Get("/models/info", h.apiModelsInfo)

		r.Get("/suppliers", h.apiListSuppliers)
		r.Get("/suppliers/performance/ranking", h.apiSupplierRanking)
		r.Get("/suppliers/{id}", h.apiGetSupplier)
		r.Get("/shipments", h.apiListShipments)
		r.Get("/inventory", h.apiListInventory)
		r.Get("/predictions/history", h.apiPredictionHistory)
		r.Get("/routes", h.apiListRoutes)
		r.Get("/statistics", h.apiStatistics)

		// Protected when an admin password is configured
		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Post("/suppliers", h.apiSaveSupplier)
			r.Delete("/suppliers/{id}", h.apiDeleteSupplier)
			r.Post("/suppliers/{id}/score", h.apiScoreSupplier)
			r.Post("/inventory", h.apiSaveInventory)
			r.Post("/models/reload", h.apiReloadModels)
		})
	})

	return r, hub.Stop
}
