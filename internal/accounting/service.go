package accounting

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/ledger/internal/accounting/dimensions"
	"github.com/odyssey-erp/ledger/internal/accounting/journals"
	"github.com/odyssey-erp/ledger/internal/accounting/periods"
	"github.com/odyssey-erp/ledger/internal/accounting/reports"
	"github.com/odyssey-erp/ledger/internal/platform/cache"
	"github.com/odyssey-erp/ledger/internal/shared"
)

// Metrics combines the observers used by the ledger services.
type Metrics interface {
	journals.MetricsPort
	periods.MetricsPort
}

// Deps carries the collaborators shared by every ledger service.
type Deps struct {
	Pool        *pgxpool.Pool
	Cache       *cache.Cache
	Audit       *shared.AuditLogger
	Idempotency *shared.IdempotencyStore
	Metrics     Metrics
}

// Module bundles the ledger services backed by one Postgres pool.
type Module struct {
	Accounts   *accounts.Service
	Periods    *periods.Service
	Journals   *journals.Service
	Dimensions *dimensions.Service
	Reports    *reports.Service

	idem journals.IdempotencyPort
}

// NewModule wires repositories and services.
func NewModule(deps Deps) *Module {
	var (
		journalMetrics journals.MetricsPort
		periodMetrics  periods.MetricsPort
		journalAudit   journals.AuditPort
		periodAudit    periods.AuditPort
		idem           journals.IdempotencyPort
	)
	if deps.Metrics != nil {
		journalMetrics = deps.Metrics
		periodMetrics = deps.Metrics
	}
	if deps.Audit != nil {
		journalAudit = deps.Audit
		periodAudit = deps.Audit
	}
	if deps.Idempotency != nil {
		idem = deps.Idempotency
	}

	journalSvc := journals.NewService(journals.NewRepository(deps.Pool), journalAudit, journalMetrics)
	if deps.Cache != nil {
		journalSvc.WithCache(deps.Cache)
	}
	return &Module{
		Accounts:   accounts.NewService(accounts.NewRepository(deps.Pool)),
		Periods:    periods.NewService(periods.NewRepository(deps.Pool), periodAudit, periodMetrics),
		Journals:   journalSvc,
		Dimensions: dimensions.NewService(dimensions.NewRepository(deps.Pool)),
		Reports:    reports.NewService(reports.NewRepository(deps.Pool), deps.Cache),
		idem:       idem,
	}
}

// Handler builds the HTTP surface for the module.
func (m *Module) Handler(logger *slog.Logger) *Handler {
	return NewHandler(logger, m)
}
