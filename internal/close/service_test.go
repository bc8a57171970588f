package close

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/ledger/internal/shared"
)

type memoryRepo struct {
	companies map[string]bool
	periods   map[string]string
	accounts  map[string]string
	tasks     map[string]Task
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		companies: map[string]bool{"co": true, "other": true},
		periods:   map[string]string{"p1": "co", "xp": "other"},
		accounts:  map[string]string{"cash": "co", "xcash": "other"},
		tasks:     make(map[string]Task),
	}
}

func (r *memoryRepo) Get(ctx context.Context, id string) (Task, error) {
	t, ok := r.tasks[id]
	if !ok {
		return Task{}, shared.NotFoundf("task %s", id)
	}
	return t, nil
}

func (r *memoryRepo) List(ctx context.Context, filter ListFilter) ([]Task, error) {
	var out []Task
	for _, t := range r.tasks {
		if t.CompanyID != filter.CompanyID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snapshot := make(map[string]Task, len(r.tasks))
	for k, v := range r.tasks {
		snapshot[k] = v
	}
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.tasks = snapshot
		return err
	}
	return nil
}

func (tx *memoryTx) CompanyExists(ctx context.Context, id string) (bool, error) {
	return tx.repo.companies[id], nil
}

func (tx *memoryTx) PeriodCompany(ctx context.Context, id string) (string, error) {
	c, ok := tx.repo.periods[id]
	if !ok {
		return "", shared.NotFoundf("period %s", id)
	}
	return c, nil
}

func (tx *memoryTx) AccountCompany(ctx context.Context, id string) (string, error) {
	c, ok := tx.repo.accounts[id]
	if !ok {
		return "", shared.NotFoundf("account %s", id)
	}
	return c, nil
}

func (tx *memoryTx) Insert(ctx context.Context, t Task) (Task, error) {
	t.UpdatedAt = t.CreatedAt
	tx.repo.tasks[t.ID] = t
	return t, nil
}

func (tx *memoryTx) GetForUpdate(ctx context.Context, id string) (Task, error) {
	return tx.repo.Get(ctx, id)
}

func (tx *memoryTx) Update(ctx context.Context, t Task) error {
	tx.repo.tasks[t.ID] = t
	return nil
}

type stubAudit struct {
	actions []string
}

func (a *stubAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.actions = append(a.actions, log.Action)
	return nil
}

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestService(repo *memoryRepo) (*Service, *stubAudit) {
	audit := &stubAudit{}
	svc := NewService(repo, audit)
	svc.WithNow(func() time.Time { return fixedNow })
	seq := 0
	svc.WithIDs(func() string {
		seq++
		return fmt.Sprintf("task-%d", seq)
	})
	return svc, audit
}

func ptr(s string) *string { return &s }

func TestCreateTaskDefaults(t *testing.T) {
	svc, audit := newTestService(newMemoryRepo())
	task, err := svc.CreateTask(context.Background(), CreateTaskInput{
		CompanyID: "co",
		PeriodID:  ptr("p1"),
		AccountID: ptr("cash"),
		Kind:      TaskKindReconciliation,
		Title:     "Reconcile cash",
		CreatedBy: "u1",
	})
	require.NoError(t, err)
	require.Equal(t, TaskStatusPlanned, task.Status)
	require.Equal(t, FrequencyOnce, task.Frequency)
	require.Equal(t, "u1", *task.CreatedBy)
	require.Equal(t, []string{"task.create"}, audit.actions)
}

func TestCreateTaskRejectsForeignLinks(t *testing.T) {
	svc, _ := newTestService(newMemoryRepo())
	ctx := context.Background()
	base := CreateTaskInput{CompanyID: "co", Kind: TaskKindFlux, Title: "Flux"}

	in := base
	in.PeriodID = ptr("xp")
	_, err := svc.CreateTask(ctx, in)
	require.ErrorIs(t, err, shared.ErrValidation)

	in = base
	in.AccountID = ptr("xcash")
	_, err = svc.CreateTask(ctx, in)
	require.ErrorIs(t, err, shared.ErrValidation)

	in = base
	in.Kind = "audit"
	_, err = svc.CreateTask(ctx, in)
	require.ErrorIs(t, err, shared.ErrValidation)

	in = base
	in.Frequency = "hourly"
	_, err = svc.CreateTask(ctx, in)
	require.ErrorIs(t, err, shared.ErrValidation)

	in = base
	in.CompanyID = "ghost"
	_, err = svc.CreateTask(ctx, in)
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.CreateTask(ctx, CreateTaskInput{CompanyID: "co", Kind: TaskKindFlux})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestTransitionTaskForwardOneStep(t *testing.T) {
	repo := newMemoryRepo()
	svc, audit := newTestService(repo)
	ctx := context.Background()
	task, err := svc.CreateTask(ctx, CreateTaskInput{CompanyID: "co", Kind: TaskKindAccountReview, Title: "Review"})
	require.NoError(t, err)

	_, err = svc.TransitionTask(ctx, task.ID, TransitionInput{Status: TaskStatusCompleted})
	require.ErrorIs(t, err, shared.ErrInvalidTransition)

	task, err = svc.TransitionTask(ctx, task.ID, TransitionInput{Status: TaskStatusInProgress})
	require.NoError(t, err)
	require.Nil(t, task.CompletedAt)

	task, err = svc.TransitionTask(ctx, task.ID, TransitionInput{Status: TaskStatusCompleted, Resolution: "tied out"})
	require.NoError(t, err)
	require.Equal(t, "tied out", task.Resolution)
	require.Equal(t, fixedNow, *task.CompletedAt)

	_, err = svc.TransitionTask(ctx, task.ID, TransitionInput{Status: TaskStatusReviewed})
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Equal(t, TaskStatusCompleted, repo.tasks[task.ID].Status)

	task, err = svc.TransitionTask(ctx, task.ID, TransitionInput{Status: TaskStatusReviewed, ReviewerID: ptr("rev")})
	require.NoError(t, err)
	require.Equal(t, "rev", *task.ReviewerID)
	require.NotNil(t, task.ReviewedAt)

	_, err = svc.TransitionTask(ctx, task.ID, TransitionInput{Status: TaskStatusReviewed})
	require.ErrorIs(t, err, shared.ErrInvalidTransition)

	require.Equal(t, []string{"task.create", "task.in_progress", "task.completed", "task.reviewed"}, audit.actions)
}

func TestListTasks(t *testing.T) {
	svc, _ := newTestService(newMemoryRepo())
	ctx := context.Background()
	for _, title := range []string{"a", "b"} {
		_, err := svc.CreateTask(ctx, CreateTaskInput{CompanyID: "co", Kind: TaskKindCategory, Title: title})
		require.NoError(t, err)
	}
	tasks, err := svc.ListTasks(ctx, ListFilter{CompanyID: "co"})
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	_, err = svc.ListTasks(ctx, ListFilter{})
	require.ErrorIs(t, err, shared.ErrValidation)
}
