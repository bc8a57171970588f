package periods

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/ledger/internal/platform/httpx"
	"github.com/odyssey-erp/ledger/internal/shared"
)

// Handler exposes period endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers period routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/companies/{companyID}/periods", h.list)
	r.Post("/companies/{companyID}/periods/generate", h.generate)
	r.Get("/periods/{id}", h.get)
	r.Post("/periods/{id}/close", h.closePeriod)
}

type generateRequest struct {
	StartYear int `json:"start_year" validate:"required"`
	EndYear   int `json:"end_year" validate:"required"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")
	if raw := r.URL.Query().Get("date"); raw != "" {
		day, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "date must be YYYY-MM-DD")
			return
		}
		period, err := h.service.FindByDate(r.Context(), companyID, day)
		if err != nil {
			h.fail(w, "find period", err)
			return
		}
		httpx.JSON(w, http.StatusOK, []Period{period})
		return
	}
	items, err := h.service.List(r.Context(), companyID)
	if err != nil {
		h.fail(w, "list periods", err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := shared.ValidateStruct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	items, err := h.service.Generate(r.Context(), chi.URLParam(r, "companyID"), req.StartYear, req.EndYear)
	if err != nil {
		h.fail(w, "generate periods", err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	period, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get period", err)
		return
	}
	httpx.JSON(w, http.StatusOK, period)
}

func (h *Handler) closePeriod(w http.ResponseWriter, r *http.Request) {
	period, err := h.service.Close(r.Context(), chi.URLParam(r, "id"), shared.ActorFromContext(r.Context()))
	if err != nil {
		h.fail(w, "close period", err)
		return
	}
	httpx.JSON(w, http.StatusOK, period)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Warn(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
