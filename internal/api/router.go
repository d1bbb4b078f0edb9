package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/andes-io/riverwatch/internal/api/alerts"
	"github.com/andes-io/riverwatch/internal/api/channels"
	"github.com/andes-io/riverwatch/internal/api/middleware"
	"github.com/andes-io/riverwatch/internal/api/notifications"
	"github.com/andes-io/riverwatch/internal/api/readings"
	"github.com/andes-io/riverwatch/internal/api/rules"
	"github.com/andes-io/riverwatch/internal/api/sensors"
)

// setupRouter creates and configures the chi router with all routes.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestLogger(s.config.Verbose))
	r.Use(middleware.PrometheusMiddleware)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		readingHandler := readings.NewHandler(s.storage, s.engine)
		r.Post("/readings", readingHandler.Ingest)

		sensorHandler := sensors.NewHandler(s.storage)
		r.Route("/rivers", func(r chi.Router) {
			r.Get("/", sensorHandler.ListRivers)
			r.Post("/", sensorHandler.CreateRiver)
		})
		r.Route("/sensors", func(r chi.Router) {
			r.Get("/", sensorHandler.List)
			r.Post("/", sensorHandler.Create)
			r.Get("/{id}", sensorHandler.GetByID)
			r.Get("/{id}/readings", readingHandler.ListBySensor)
		})

		alertHandler := alerts.NewHandler(s.storage)
		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", alertHandler.List)
			r.Get("/active", alertHandler.ListActive)
			r.Get("/summary", alertHandler.Summary)
			r.Get("/{id}", alertHandler.GetByID)
			r.Post("/{id}/acknowledge", alertHandler.Acknowledge)
			r.Post("/{id}/resolve", alertHandler.Resolve)
		})

		ruleHandler := rules.NewHandler(s.storage)
		r.Route("/rules", func(r chi.Router) {
			r.Get("/", ruleHandler.List)
			r.Post("/", ruleHandler.Create)
			r.Get("/{id}", ruleHandler.GetByID)
			r.Put("/{id}", ruleHandler.Update)
			r.Delete("/{id}", ruleHandler.Delete)
		})

		channelHandler := channels.NewHandler(s.storage)
		r.Route("/channels", func(r chi.Router) {
			r.Get("/", channelHandler.List)
			r.Post("/", channelHandler.Create)
			r.Get("/{id}", channelHandler.GetByID)
			r.Put("/{id}", channelHandler.Update)
			r.Delete("/{id}", channelHandler.Delete)
		})

		notificationHandler := notifications.NewHandler(s.storage)
		r.Get("/notifications", notificationHandler.List)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		OK(w, map[string]string{"status": "ok"})
	})

	return r
}
