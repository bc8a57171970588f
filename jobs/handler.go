package jobs

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/ledger/internal/platform/httpx"
	"github.com/odyssey-erp/ledger/internal/shared"
)

type queueInspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
}

// Enqueuer submits ledger maintenance tasks.
type Enqueuer interface {
	EnqueuePeriodsGenerate(ctx context.Context, payload PeriodsGeneratePayload) (*asynq.TaskInfo, error)
	EnqueueIntegrity(ctx context.Context, companyID string) (*asynq.TaskInfo, error)
}

// Handler exposes queue health and manual triggers for the maintenance jobs.
type Handler struct {
	inspector queueInspector
	enqueuer  Enqueuer
	logger    *slog.Logger
}

// NewHandler constructs the jobs HTTP handler. enqueuer may be nil, which
// disables the trigger endpoints.
func NewHandler(inspector queueInspector, enqueuer Enqueuer, logger *slog.Logger) *Handler {
	return &Handler{inspector: inspector, enqueuer: enqueuer, logger: logger}
}

// MountRoutes attaches job routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/jobs/health", h.health)
	if h.enqueuer != nil {
		r.Post("/jobs/periods/generate", h.triggerPeriods)
		r.Post("/jobs/integrity", h.triggerIntegrity)
	}
}

type queueHealth struct {
	Queue   string `json:"queue"`
	Pending int    `json:"pending"`
	Active  int    `json:"active"`
	Retry   int    `json:"retry"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	out := queueHealth{Queue: QueueDefault}
	if h.inspector != nil {
		info, err := h.inspector.GetQueueInfo(QueueDefault)
		if err != nil {
			h.logger.Warn("jobs health", slog.Any("error", err))
			httpx.Problem(w, http.StatusServiceUnavailable, "Queue Unavailable", "")
			return
		}
		if info != nil {
			out = queueHealth{Queue: info.Queue, Pending: info.Pending, Active: info.Active, Retry: info.Retry}
		}
	}
	httpx.JSON(w, http.StatusOK, out)
}

type enqueued struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

func (h *Handler) triggerPeriods(w http.ResponseWriter, r *http.Request) {
	var payload PeriodsGeneratePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if payload.StartYear != 0 && payload.EndYear != 0 && payload.EndYear < payload.StartYear {
		httpx.RespondError(w, shared.Validationf("end_year %d precedes start_year %d", payload.EndYear, payload.StartYear))
		return
	}
	info, err := h.enqueuer.EnqueuePeriodsGenerate(r.Context(), payload)
	h.respondEnqueued(w, "enqueue periods generate", info, err)
}

func (h *Handler) triggerIntegrity(w http.ResponseWriter, r *http.Request) {
	info, err := h.enqueuer.EnqueueIntegrity(r.Context(), r.URL.Query().Get("company_id"))
	h.respondEnqueued(w, "enqueue integrity", info, err)
}

func (h *Handler) respondEnqueued(w http.ResponseWriter, op string, info *asynq.TaskInfo, err error) {
	if err != nil {
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "Queue Unavailable", err.Error())
		return
	}
	httpx.JSON(w, http.StatusAccepted, enqueued{ID: info.ID, Type: info.Type})
}
