package closehttp

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/ledger/internal/close"
	"github.com/odyssey-erp/ledger/internal/shared"
)

type fakeService struct {
	tasks   map[string]close.Task
	created close.CreateTaskInput
}

func (f *fakeService) CreateTask(ctx context.Context, in close.CreateTaskInput) (close.Task, error) {
	f.created = in
	t := close.Task{ID: "t1", CompanyID: in.CompanyID, Kind: in.Kind, Title: in.Title, Status: close.TaskStatusPlanned}
	f.tasks[t.ID] = t
	return t, nil
}

func (f *fakeService) TransitionTask(ctx context.Context, id string, in close.TransitionInput) (close.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return close.Task{}, shared.NotFoundf("task %s", id)
	}
	if err := shared.ValidateTaskTransition(string(t.Status), string(in.Status)); err != nil {
		return close.Task{}, err
	}
	t.Status = in.Status
	f.tasks[id] = t
	return t, nil
}

func (f *fakeService) GetTask(ctx context.Context, id string) (close.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return close.Task{}, shared.NotFoundf("task %s", id)
	}
	return t, nil
}

func (f *fakeService) ListTasks(ctx context.Context, filter close.ListFilter) ([]close.Task, error) {
	if filter.CompanyID == "" {
		return nil, shared.Validationf("company id required")
	}
	var out []close.Task
	for _, t := range f.tasks {
		out = append(out, t)
	}
	return out, nil
}

func newRouter(svc *fakeService) chi.Router {
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func TestTaskLifecycleOverHTTP(t *testing.T) {
	svc := &fakeService{tasks: make(map[string]close.Task)}
	r := newRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(`{"company_id":"co","kind":"flux","title":"Flux review"}`))
	req = req.WithContext(shared.ContextWithActor(req.Context(), "u1"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "u1", svc.created.CreatedBy)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tasks/t1/transition", strings.NewReader(`{"status":"completed"}`)))
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tasks/t1/transition", strings.NewReader(`{"status":"in_progress"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"in_progress"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tasks/missing", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tasks", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTaskRejectsUnknownFields(t *testing.T) {
	r := newRouter(&fakeService{tasks: make(map[string]close.Task)})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(`{"company_id":"co","bogus":1}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
