package server

import (
	"net/http"

	"github.com/cloo-solutions/chapterkit/internal/api"
	"github.com/cloo-solutions/chapterkit/internal/api/handlers"
	"github.com/cloo-solutions/chapterkit/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	// APIToken guards the /runs routes. Empty leaves them open.
	APIToken   string
	RunHandler *handlers.RunHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(handlers.MaxRunRequestBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerToken(cfg.APIToken))

		r.Route("/runs", func(r chi.Router) {
			r.Get("/", cfg.RunHandler.List)
			r.Post("/", cfg.RunHandler.Create)
			r.Get("/{id}", cfg.RunHandler.Get)
		})
	})

	return r
}
