package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) SetupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(CORSMiddleware)
	if h.metrics != nil {
		r.Use(h.metrics.Middleware)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(healthTimeout))
		r.Get("/healthz", h.Healthz)
		r.Get("/readyz", h.Readyz)
		if h.metrics != nil {
			r.Handle("/metrics", h.metrics.Handler())
		}
	})

	r.Route("/api/events", func(r chi.Router) {
		r.Use(middleware.Timeout(eventsTimeout))
		r.Get("/", h.ListEvents)
		r.Post("/", h.CreateEvent)
		r.Delete("/", h.CleanupEvents)
		r.Get("/summary", h.EventSummary)
		r.Get("/{id}", h.GetEvent)
		r.Put("/{id}/status", h.UpdateEventStatus)
		r.Delete("/{id}", h.DeleteEvent)
	})

	r.Route("/api/integrations/connections", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(connectionsTimeout))
			r.Get("/", h.ListConnections)
			r.Post("/", h.CreateConnection)
			r.Put("/{kind}/status", h.UpdateConnectionStatus)
			r.Delete("/{id}", h.DeleteConnection)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(kubeTimeout))
			r.Post("/kubernetes/discover", h.DiscoverKubernetes)
			r.Get("/kubernetes/{id}/ping", h.PingConnection)
			r.Get("/kubernetes/{id}/operator", h.GetOperatorStatus)
			r.Put("/kubernetes/{id}/operator", h.SetOperator)
			r.Post("/kubernetes/{id}/meshsync/flush", h.FlushMeshSync)
		})
	})

	return r
}
