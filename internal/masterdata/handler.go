package masterdata

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/ledger/internal/masterdata/companies"
	"github.com/odyssey-erp/ledger/internal/masterdata/counterparties"
	"github.com/odyssey-erp/ledger/internal/masterdata/organizations"
	"github.com/odyssey-erp/ledger/internal/platform/httpx"
)

// Handler manages master data endpoints.
type Handler struct {
	logger         *slog.Logger
	organizations  *organizations.Service
	companies      *companies.Service
	counterparties *counterparties.Handler
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, orgs *organizations.Service, comps *companies.Service, cps *counterparties.Service) *Handler {
	return &Handler{
		logger:         logger,
		organizations:  orgs,
		companies:      comps,
		counterparties: counterparties.NewHandler(logger, cps),
	}
}

// MountRoutes registers master data routes.
func (h *Handler) MountRoutes(r chi.Router) {
	// Organizations
	r.Get("/organizations", h.listOrganizations)
	r.Post("/organizations", h.createOrganization)
	r.Get("/organizations/{id}", h.showOrganization)
	r.Patch("/organizations/{id}", h.renameOrganization)

	// Companies
	r.Get("/companies", h.listCompanies)
	r.Post("/companies", h.createCompany)
	r.Get("/companies/{companyID}", h.showCompany)

	if h.counterparties != nil {
		h.counterparties.MountRoutes(r)
	}
}

func (h *Handler) listOrganizations(w http.ResponseWriter, r *http.Request) {
	items, err := h.organizations.List(r.Context())
	if err != nil {
		h.fail(w, "list organizations", err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) createOrganization(w http.ResponseWriter, r *http.Request) {
	var input organizations.CreateInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	org, err := h.organizations.Create(r.Context(), input)
	if err != nil {
		h.fail(w, "create organization", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, org)
}

func (h *Handler) showOrganization(w http.ResponseWriter, r *http.Request) {
	org, err := h.organizations.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get organization", err)
		return
	}
	httpx.JSON(w, http.StatusOK, org)
}

type renameRequest struct {
	Name string `json:"name"`
}

func (h *Handler) renameOrganization(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	org, err := h.organizations.Rename(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		h.fail(w, "rename organization", err)
		return
	}
	httpx.JSON(w, http.StatusOK, org)
}

func (h *Handler) listCompanies(w http.ResponseWriter, r *http.Request) {
	items, err := h.companies.List(r.Context(), r.URL.Query().Get("organization_id"))
	if err != nil {
		h.fail(w, "list companies", err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) createCompany(w http.ResponseWriter, r *http.Request) {
	var input companies.CreateInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	company, err := h.companies.Create(r.Context(), input)
	if err != nil {
		h.fail(w, "create company", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, company)
}

func (h *Handler) showCompany(w http.ResponseWriter, r *http.Request) {
	company, err := h.companies.Get(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		h.fail(w, "get company", err)
		return
	}
	httpx.JSON(w, http.StatusOK, company)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Warn(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
