package dimensions

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/ledger/internal/platform/httpx"
)

// Handler exposes dimension endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers dimension routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/dimensions", h.list)
	r.Post("/dimensions", h.create)
	r.Get("/dimensions/{id}", h.get)
	r.Post("/dimensions/{id}/values", h.addValue)
	r.Post("/dimension-values/{id}/deactivate", h.deactivateValue)
	r.Post("/dimension-values/{id}/activate", h.activateValue)
	r.Get("/lines/{lineID}/dimensions", h.lineTags)
	r.Post("/lines/{lineID}/dimensions", h.tagLine)
}

type addValueRequest struct {
	Value string `json:"value"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context(), r.URL.Query().Get("company_id"))
	if err != nil {
		h.fail(w, "list dimensions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in CreateDimensionInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	dim, err := h.service.CreateDimension(r.Context(), in)
	if err != nil {
		h.fail(w, "create dimension", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, dim)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	dim, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get dimension", err)
		return
	}
	httpx.JSON(w, http.StatusOK, dim)
}

func (h *Handler) addValue(w http.ResponseWriter, r *http.Request) {
	var req addValueRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	v, err := h.service.AddValue(r.Context(), chi.URLParam(r, "id"), req.Value)
	if err != nil {
		h.fail(w, "add dimension value", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, v)
}

func (h *Handler) deactivateValue(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.DeactivateValue(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "deactivate dimension value", err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *Handler) activateValue(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.ActivateValue(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "activate dimension value", err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *Handler) lineTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.service.LineTags(r.Context(), chi.URLParam(r, "lineID"))
	if err != nil {
		h.fail(w, "list line tags", err)
		return
	}
	httpx.JSON(w, http.StatusOK, tags)
}

func (h *Handler) tagLine(w http.ResponseWriter, r *http.Request) {
	var in TagInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	tag, err := h.service.TagLine(r.Context(), chi.URLParam(r, "lineID"), in)
	if err != nil {
		h.fail(w, "tag line", err)
		return
	}
	httpx.JSON(w, http.StatusOK, tag)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Warn(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
