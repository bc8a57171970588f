package accounting

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/ledger/internal/accounting/dimensions"
	"github.com/odyssey-erp/ledger/internal/accounting/journals"
	"github.com/odyssey-erp/ledger/internal/accounting/periods"
	"github.com/odyssey-erp/ledger/internal/accounting/reports"
)

// Handler wires finance ledger endpoints.
type Handler struct {
	accounts   *accounts.Handler
	periods    *periods.Handler
	journals   *journals.Handler
	dimensions *dimensions.Handler
	reports    *reports.Handler
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, m *Module) *Handler {
	return &Handler{
		accounts:   accounts.NewHandler(logger, m.Accounts),
		periods:    periods.NewHandler(logger, m.Periods),
		journals:   journals.NewHandler(logger, m.Journals, m.idem),
		dimensions: dimensions.NewHandler(logger, m.Dimensions),
		reports:    reports.NewHandler(logger, m.Reports),
	}
}

// MountRoutes registers HTTP routes for the ledger module.
func (h *Handler) MountRoutes(r chi.Router) {
	h.accounts.MountRoutes(r)
	h.periods.MountRoutes(r)
	h.journals.MountRoutes(r)
	h.dimensions.MountRoutes(r)
	h.reports.MountRoutes(r)
}
