package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/issue-tracker/api"
	"github.com/frahmantamala/issue-tracker/internal/attachment"
	"github.com/frahmantamala/issue-tracker/internal/auth"
	"github.com/frahmantamala/issue-tracker/internal/classifier"
	"github.com/frahmantamala/issue-tracker/internal/issue"
	"github.com/frahmantamala/issue-tracker/internal/transport/middleware"
	"github.com/frahmantamala/issue-tracker/internal/transport/swagger"
)

type Handlers struct {
	Health     *HealthHandler
	Auth       *auth.Handler
	Issue      *issue.Handler
	Classifier *classifier.Handler
	Attachment *attachment.Handler
	Feed       http.Handler
}

// RegisterAllRoutes mounts the API under /api/v1. Nil handlers leave their
// routes out.
func RegisterAllRoutes(router chi.Router, h Handlers, allowedOrigins string, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.CORS(allowedOrigins))
	router.Use(middleware.LoggingMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(api.OpenAPI)
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		if h.Health != nil {
			r.Get("/health", h.Health.Health)
			r.Get("/ping", h.Health.Ping)
		}
		if h.Feed != nil {
			r.Method(http.MethodGet, "/events", h.Feed)
		}
		if h.Auth == nil {
			return
		}

		r.Route("/auth", func(ar chi.Router) {
			ar.Get("/", h.Auth.GetAuth)
			ar.Post("/login", h.Auth.Login)
			ar.Post("/register", h.Auth.Register)
			ar.Post("/logout", h.Auth.Logout)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.RequireSession)

			if h.Issue != nil {
				pr.Route("/issues", func(ir chi.Router) {
					ir.Get("/", h.Issue.ListIssues)
					ir.Post("/", h.Issue.CreateIssue)
					ir.Get("/stats", h.Issue.GetStats)
					ir.Get("/{id}", h.Issue.GetIssue)
					ir.Delete("/{id}", h.Issue.DeleteIssue)
					ir.Patch("/{id}/status", h.Issue.UpdateStatus)
					ir.Post("/{id}/comments", h.Issue.AddComment)
				})
				pr.Get("/admin/analytics", h.Issue.GetAnalytics)
			}
			if h.Classifier != nil {
				pr.Post("/classify", h.Classifier.Classify)
			}
			if h.Attachment != nil {
				pr.Post("/attachments", h.Attachment.Upload)
			}
		})
	})
}
