package counterparties

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/ledger/internal/platform/httpx"
)

// Handler exposes counterparty endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers counterparty routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/companies/{companyID}/counterparties", h.list)
	r.Post("/companies/{companyID}/counterparties/sync", h.sync)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	kind := Kind(r.URL.Query().Get("kind"))
	if kind == "" {
		kind = KindVendor
	}
	items, err := h.service.List(r.Context(), chi.URLParam(r, "companyID"), kind)
	if err != nil {
		h.logger.Warn("list counterparties", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")
	res, err := h.service.Sync(r.Context(), companyID)
	if err != nil {
		h.logger.Error("sync counterparties", slog.String("company_id", companyID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}
