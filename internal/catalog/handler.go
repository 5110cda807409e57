package catalog

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/workroom-erp/workroom-erp/internal/platform/httpx"
)

// Handler serves catalog reads used by the quote editing UI.
type Handler struct {
	logger *slog.Logger
	repo   Repository
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, repo Repository) *Handler {
	return &Handler{logger: logger, repo: repo}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/materials", h.ListMaterials)
	r.Get("/misc-materials", h.ListMiscMaterials)
}

// ListMaterials returns the materials catalog.
func (h *Handler) ListMaterials(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.ListMaterials(r.Context())
	if err != nil {
		h.logger.Error("list materials failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"materials": items})
}

// ListMiscMaterials returns active flat-price extras.
func (h *Handler) ListMiscMaterials(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.ListActiveMiscMaterials(r.Context())
	if err != nil {
		h.logger.Error("list misc materials failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"misc_materials": items})
}
