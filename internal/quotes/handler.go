package quotes

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/workroom-erp/workroom-erp/internal/platform/httpx"
	"github.com/workroom-erp/workroom-erp/internal/shared"
)

// EmailEnqueuer hands a sent quote to the delivery collaborator.
type EmailEnqueuer interface {
	EnqueueQuoteEmail(ctx context.Context, quoteID int64) error
}

// Handler exposes the quote lifecycle as a JSON API.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	validate    *validator.Validate
	idempotency *shared.IdempotencyStore
	enqueuer    EmailEnqueuer
}

// NewHandler constructs a Handler. idempotency and enqueuer may be nil.
func NewHandler(logger *slog.Logger, service *Service, idempotency *shared.IdempotencyStore, enqueuer EmailEnqueuer) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		validate:    validator.New(),
		idempotency: idempotency,
		enqueuer:    enqueuer,
	}
}

func (h *Handler) quoteID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) actor(r *http.Request) int64 {
	return shared.ActorFromContext(r.Context())
}

// Create handles POST /quotes.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateQuoteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}

	idemKey := r.Header.Get("Idempotency-Key")
	if h.idempotency != nil && idemKey != "" {
		if err := h.idempotency.CheckAndInsert(r.Context(), idemKey, "quotes"); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}

	quote, err := h.service.Create(r.Context(), req, h.actor(r))
	if err != nil {
		if h.idempotency != nil && idemKey != "" {
			_ = h.idempotency.Delete(r.Context(), idemKey)
		}
		h.logger.Error("create quote failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, quote)
}

// Show handles GET /quotes/{id}.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quoteID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid quote id")
		return
	}
	quote, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

// List handles GET /quotes.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := ListQuotesRequest{Limit: 50}

	if v := r.URL.Query().Get("status"); v != "" {
		status := Status(v)
		if !ValidStatus(status) {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Status", "unknown status "+v)
			return
		}
		req.Status = &status
	}
	if v := r.URL.Query().Get("client_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.ClientID = &id
		}
	}
	if v := r.URL.Query().Get("quote_number"); v != "" {
		req.QuoteNumber = &v
	}
	req.IncludeArchived = r.URL.Query().Get("include_archived") == "true"
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			req.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			req.Offset = n
		}
	}

	quotes, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list quotes failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"quotes": quotes, "total": total})
}

// Update handles PUT /quotes/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quoteID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid quote id")
		return
	}
	var req UpdateQuoteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}

	quote, err := h.service.Update(r.Context(), id, req, h.actor(r))
	if err != nil {
		h.logger.Error("update quote failed", slog.Int64("quote_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

// Delete handles DELETE /quotes/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quoteID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid quote id")
		return
	}
	if err := h.service.Delete(r.Context(), id, h.actor(r)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateRevision handles POST /quotes/{id}/revisions.
func (h *Handler) CreateRevision(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quoteID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid quote id")
		return
	}
	quote, err := h.service.CreateRevision(r.Context(), id, h.actor(r))
	if err != nil {
		h.logger.Error("create revision failed", slog.Int64("quote_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"new_id":   quote.ID,
		"revision": quote.Revision,
		"quote":    quote,
	})
}

// UpdateStatus handles POST /quotes/{id}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quoteID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid quote id")
		return
	}
	var req UpdateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}

	quote, err := h.service.UpdateStatus(r.Context(), id, Status(req.Status), h.actor(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	if quote.Status == StatusSent && h.enqueuer != nil {
		if err := h.enqueuer.EnqueueQuoteEmail(r.Context(), quote.ID); err != nil {
			h.logger.Error("enqueue quote email failed", slog.Int64("quote_id", quote.ID), slog.Any("error", err))
		}
	}
	httpx.JSON(w, http.StatusOK, quote)
}

// Archive handles POST /quotes/{id}/archive.
func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quoteID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid quote id")
		return
	}
	quote, err := h.service.Archive(r.Context(), id, h.actor(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

// Unarchive handles POST /quotes/{id}/unarchive.
func (h *Handler) Unarchive(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quoteID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid quote id")
		return
	}
	quote, err := h.service.Unarchive(r.Context(), id, h.actor(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

// Recalculate handles POST /quotes/{id}/recalculate.
func (h *Handler) Recalculate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quoteID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid quote id")
		return
	}
	totals, err := h.service.Recalculate(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, totals)
}

// AddMaterialLine handles POST /quotes/{id}/materials.
func (h *Handler) AddMaterialLine(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quoteID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid quote id")
		return
	}
	var req MaterialLineRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}

	line, err := h.service.AddMaterialLine(r.Context(), id, req, h.actor(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, line)
}

func (h *Handler) materialLineID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "lineID"), 10, 64)
	return id, err == nil && id > 0
}

// UpdateMaterialLine handles PUT /quotes/{id}/materials/{lineID}.
func (h *Handler) UpdateMaterialLine(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quoteID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid quote id")
		return
	}
	lineID, ok := h.materialLineID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid line id")
		return
	}
	var req UpdateMaterialLineRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}

	line, err := h.service.UpdateMaterialLine(r.Context(), id, lineID, req, h.actor(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, line)
}

// RemoveMaterialLine handles DELETE /quotes/{id}/materials/{lineID}.
func (h *Handler) RemoveMaterialLine(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quoteID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid quote id")
		return
	}
	lineID, ok := h.materialLineID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid line id")
		return
	}
	if err := h.service.RemoveMaterialLine(r.Context(), id, lineID, h.actor(r)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearMaterialLines handles DELETE /quotes/{id}/materials.
func (h *Handler) ClearMaterialLines(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quoteID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid quote id")
		return
	}
	if err := h.service.ClearMaterialLines(r.Context(), id, h.actor(r)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetMiscLine handles PUT /quotes/{id}/misc/{miscID}.
func (h *Handler) SetMiscLine(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quoteID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid quote id")
		return
	}
	miscID, err := strconv.ParseInt(chi.URLParam(r, "miscID"), 10, 64)
	if err != nil || miscID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid misc material id")
		return
	}
	var req SetMiscLineRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}

	line, err := h.service.SetMiscLine(r.Context(), id, miscID, req, h.actor(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, line)
}
