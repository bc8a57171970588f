package closehttp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/ledger/internal/close"
	"github.com/odyssey-erp/ledger/internal/platform/httpx"
	"github.com/odyssey-erp/ledger/internal/shared"
)

type closeService interface {
	CreateTask(ctx context.Context, in close.CreateTaskInput) (close.Task, error)
	TransitionTask(ctx context.Context, id string, in close.TransitionInput) (close.Task, error)
	GetTask(ctx context.Context, id string) (close.Task, error)
	ListTasks(ctx context.Context, filter close.ListFilter) ([]close.Task, error)
}

// Handler wires HTTP endpoints for closing tasks.
type Handler struct {
	logger  *slog.Logger
	service closeService
}

// NewHandler constructs the close HTTP handler.
func NewHandler(logger *slog.Logger, service closeService) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers task routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/tasks", h.list)
	r.Post("/tasks", h.create)
	r.Get("/tasks/{id}", h.get)
	r.Post("/tasks/{id}/transition", h.transition)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tasks, err := h.service.ListTasks(r.Context(), close.ListFilter{
		CompanyID: q.Get("company_id"),
		PeriodID:  q.Get("period_id"),
		Status:    close.TaskStatus(q.Get("status")),
	})
	if err != nil {
		h.fail(w, "list tasks", err)
		return
	}
	httpx.JSON(w, http.StatusOK, tasks)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in close.CreateTaskInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	in.CreatedBy = shared.ActorFromContext(r.Context())
	task, err := h.service.CreateTask(r.Context(), in)
	if err != nil {
		h.fail(w, "create task", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, task)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	task, err := h.service.GetTask(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get task", err)
		return
	}
	httpx.JSON(w, http.StatusOK, task)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	var in close.TransitionInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	in.ActorID = shared.ActorFromContext(r.Context())
	task, err := h.service.TransitionTask(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, "transition task", err)
		return
	}
	httpx.JSON(w, http.StatusOK, task)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Warn(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
