package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/infra/http/handlers"
	"github.com/xavierca1/ligue-leads/internal/infra/http/middleware"
)

type routes struct {
	Lead   *handlers.LeadHandler
	Admin  *handlers.AdminHandler
	Review *handlers.ReviewHandler
	Health *handlers.HealthHandler
	Auth   middleware.Authenticator
}

func newRouter(h routes, allowedOrigins []string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health.Handle)
	r.Handle("/metrics", promhttp.Handler())

	// Público
	r.Post("/leads", h.Lead.CaptureLead)
	r.Post("/leads/{id}/resume", h.Lead.ResumeCapture)
	r.Get("/config/webhook", h.Lead.WebhookStatus)

	// Painel
	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", h.Admin.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(h.Auth))

			r.Post("/logout", h.Admin.Logout)

			r.Get("/leads", h.Review.ListLeads)
			r.Get("/leads/{id}", h.Review.GetLead)
			r.Post("/leads/{id}/outreach", h.Review.SendOutreach)
			r.Put("/leads/{id}/status", h.Review.SetStatus)

			r.Get("/webhooks", h.Admin.GetWebhooks)
			r.Put("/webhooks", h.Admin.UpdateWebhooks)
		})
	})

	return r
}
