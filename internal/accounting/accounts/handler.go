package accounts

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/ledger/internal/platform/httpx"
)

// Handler exposes chart of accounts endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers account routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/accounts", h.list)
	r.Post("/accounts", h.create)
	r.Get("/accounts/{id}", h.get)
	r.Get("/accounts/{id}/ancestors", h.ancestors)
	r.Get("/accounts/{id}/descendants", h.descendants)
	r.Post("/accounts/{id}/deactivate", h.deactivate)
	r.Post("/accounts/{id}/activate", h.activate)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	includeInactive, _ := strconv.ParseBool(r.URL.Query().Get("include_inactive"))
	items, err := h.service.List(r.Context(), r.URL.Query().Get("company_id"), includeInactive)
	if err != nil {
		h.fail(w, "list accounts", err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	account, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.fail(w, "create account", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, account)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	account, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get account", err)
		return
	}
	httpx.JSON(w, http.StatusOK, account)
}

func (h *Handler) ancestors(w http.ResponseWriter, r *http.Request) {
	chain, err := h.service.ResolveChain(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "resolve account chain", err)
		return
	}
	httpx.JSON(w, http.StatusOK, chain)
}

func (h *Handler) descendants(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Descendants(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "account descendants", err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

type deactivateResponse struct {
	Deactivated []string `json:"deactivated"`
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	ids, err := h.service.Deactivate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "deactivate account", err)
		return
	}
	httpx.JSON(w, http.StatusOK, deactivateResponse{Deactivated: ids})
}

func (h *Handler) activate(w http.ResponseWriter, r *http.Request) {
	account, err := h.service.Activate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "activate account", err)
		return
	}
	httpx.JSON(w, http.StatusOK, account)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Warn(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
