package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/workroom-erp/workroom-erp/internal/catalog"
	"github.com/workroom-erp/workroom-erp/internal/quotes"
	"github.com/workroom-erp/workroom-erp/internal/settings"
	"github.com/workroom-erp/workroom-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	QuotesHandler   *quotes.Handler
	SettingsHandler *settings.Handler
	CatalogHandler  *catalog.Handler
	JobsHandler     *jobs.Handler
}

// NewRouter constructs the chi.Router with Workroom defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		params.QuotesHandler.MountRoutes(r)
		params.SettingsHandler.MountRoutes(r)
		params.CatalogHandler.MountRoutes(r)
		if params.JobsHandler != nil {
			r.Route("/jobs", params.JobsHandler.MountRoutes)
		}
	})

	return r
}
