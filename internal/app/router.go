package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/odyssey-erp/ledger/internal/accounting"
	closehttp "github.com/odyssey-erp/ledger/internal/close/http"
	"github.com/odyssey-erp/ledger/internal/masterdata"
	"github.com/odyssey-erp/ledger/internal/observability"
	"github.com/odyssey-erp/ledger/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	AccountingHandler *accounting.Handler
	MasterDataHandler *masterdata.Handler
	CloseHandler      *closehttp.Handler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
	Ready             func(r *http.Request) error
}

// NewRouter constructs the chi.Router with ledger defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if params.Ready != nil {
			if err := params.Ready(r); err != nil {
				params.Logger.Warn("readiness check", slog.Any("error", err))
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		if params.AccountingHandler != nil {
			params.AccountingHandler.MountRoutes(r)
		}
		if params.MasterDataHandler != nil {
			params.MasterDataHandler.MountRoutes(r)
		}
		if params.CloseHandler != nil {
			params.CloseHandler.MountRoutes(r)
		}
		if params.JobHandler != nil {
			params.JobHandler.MountRoutes(r)
		}
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	return r
}

// Routes builds the router for a wired container.
func (c *Container) Routes(jobHandler *jobs.Handler) http.Handler {
	return NewRouter(RouterParams{
		Logger:            c.Logger,
		Config:            c.Config,
		AccountingHandler: c.Ledger.Handler(c.Logger),
		MasterDataHandler: masterdata.NewHandler(c.Logger, c.Organizations, c.Companies, c.Counterparties),
		CloseHandler:      closehttp.NewHandler(c.Logger, c.Tasks),
		JobHandler:        jobHandler,
		Metrics:           c.Metrics,
		Ready: func(r *http.Request) error {
			return c.Pool.Ping(r.Context())
		},
	})
}
