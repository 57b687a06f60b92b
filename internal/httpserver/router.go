package httpserver

import (
	"net/http"

	"chatrelay/internal/middleware"

	"log/slog"

	"github.com/go-chi/chi/v5"
)

// Dashboard набор обработчиков HTTP-поверхности дашборда.
type Dashboard interface {
	Index(w http.ResponseWriter, r *http.Request)
	Status(w http.ResponseWriter, r *http.Request)
	Webhook(w http.ResponseWriter, r *http.Request)
	Health(w http.ResponseWriter, r *http.Request)
}

type RouterDeps struct {
	Logger    *slog.Logger
	Dashboard Dashboard
}

// NewRouter собирает chi-роутер дашборда с общими middleware.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recover(deps.Logger))
	r.Use(middleware.Logging(deps.Logger))

	r.Get("/", deps.Dashboard.Index)
	r.Get("/api/status", deps.Dashboard.Status)
	r.Post("/webhook", deps.Dashboard.Webhook)
	r.Get("/health", deps.Dashboard.Health)

	return r
}
