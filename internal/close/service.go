package close

import (
	"context"
	"time"

	"github.com/odyssey-erp/ledger/internal/shared"
)

// AuditPort records task changes.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service manages closing tasks.
type Service struct {
	repo  Repository
	audit AuditPort
	now   func() time.Time
	ids   shared.IDGenerator
}

// NewService constructs a Service instance. audit may be nil.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now, ids: shared.NewID}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// WithIDs overrides the identifier generator.
func (s *Service) WithIDs(ids shared.IDGenerator) {
	if ids != nil {
		s.ids = ids
	}
}

// CreateTask registers a planned task. Linked periods and accounts must belong
// to the task's company.
func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput) (Task, error) {
	if err := shared.ValidateStruct(in); err != nil {
		return Task{}, err
	}
	if !in.Kind.Valid() {
		return Task{}, shared.Validationf("unknown task kind %q", in.Kind)
	}
	if in.Frequency == "" {
		in.Frequency = FrequencyOnce
	}
	if !in.Frequency.Valid() {
		return Task{}, shared.Validationf("unknown frequency %q", in.Frequency)
	}
	var task Task
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		exists, err := tx.CompanyExists(ctx, in.CompanyID)
		if err != nil {
			return err
		}
		if !exists {
			return shared.NotFoundf("company %s", in.CompanyID)
		}
		if in.PeriodID != nil {
			owner, err := tx.PeriodCompany(ctx, *in.PeriodID)
			if err != nil {
				return err
			}
			if owner != in.CompanyID {
				return shared.Validationf("period %s belongs to another company", *in.PeriodID)
			}
		}
		if in.AccountID != nil {
			owner, err := tx.AccountCompany(ctx, *in.AccountID)
			if err != nil {
				return err
			}
			if owner != in.CompanyID {
				return shared.Validationf("account %s belongs to another company", *in.AccountID)
			}
		}
		var createdBy *string
		if in.CreatedBy != "" {
			createdBy = &in.CreatedBy
		}
		task, err = tx.Insert(ctx, Task{
			ID:         s.ids(),
			CompanyID:  in.CompanyID,
			PeriodID:   in.PeriodID,
			AccountID:  in.AccountID,
			Kind:       in.Kind,
			Title:      in.Title,
			AssigneeID: in.AssigneeID,
			ReviewerID: in.ReviewerID,
			CreatedBy:  createdBy,
			DueOn:      in.DueOn,
			Frequency:  in.Frequency,
			Status:     TaskStatusPlanned,
			CreatedAt:  s.now().UTC(),
		})
		return err
	})
	if err != nil {
		return Task{}, err
	}
	s.record(ctx, in.CreatedBy, "task.create", task)
	return task, nil
}

// TransitionTask moves a task exactly one step forward. Completing stamps
// CompletedAt and keeps the resolution note; reviewing requires a reviewer.
func (s *Service) TransitionTask(ctx context.Context, id string, in TransitionInput) (Task, error) {
	if err := shared.ValidateStruct(in); err != nil {
		return Task{}, err
	}
	var task Task
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		task, err = tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := shared.ValidateTaskTransition(string(task.Status), string(in.Status)); err != nil {
			return err
		}
		now := s.now().UTC()
		switch in.Status {
		case TaskStatusCompleted:
			task.CompletedAt = &now
			if in.Resolution != "" {
				task.Resolution = in.Resolution
			}
		case TaskStatusReviewed:
			if in.ReviewerID != nil && *in.ReviewerID != "" {
				task.ReviewerID = in.ReviewerID
			}
			if task.ReviewerID == nil {
				return shared.Validationf("reviewer required to review task %s", task.ID)
			}
			task.ReviewedAt = &now
		}
		task.Status = in.Status
		task.UpdatedAt = now
		return tx.Update(ctx, task)
	})
	if err != nil {
		return Task{}, err
	}
	s.record(ctx, in.ActorID, "task."+string(task.Status), task)
	return task, nil
}

// GetTask returns one task.
func (s *Service) GetTask(ctx context.Context, id string) (Task, error) {
	return s.repo.Get(ctx, id)
}

// ListTasks returns a company's tasks, earliest due first.
func (s *Service) ListTasks(ctx context.Context, filter ListFilter) ([]Task, error) {
	if filter.CompanyID == "" {
		return nil, shared.Validationf("company id required")
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) record(ctx context.Context, actorID, action string, task Task) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "task",
		EntityID: task.ID,
		Meta: map[string]any{
			"company_id": task.CompanyID,
			"status":     string(task.Status),
		},
		At: s.now(),
	})
}
