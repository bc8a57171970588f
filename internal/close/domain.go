package close

import (
	"time"

	"github.com/odyssey-erp/ledger/internal/shared"
)

// TaskStatus captures the lifecycle of a close task.
type TaskStatus string

const (
	TaskStatusPlanned    TaskStatus = shared.TaskStatusPlanned
	TaskStatusInProgress TaskStatus = shared.TaskStatusInProgress
	TaskStatusCompleted  TaskStatus = shared.TaskStatusCompleted
	TaskStatusReviewed   TaskStatus = shared.TaskStatusReviewed
)

// TaskKind classifies the work a task represents.
type TaskKind string

const (
	TaskKindAccountReview  TaskKind = "account_review"
	TaskKindReconciliation TaskKind = "reconciliation"
	TaskKindFlux           TaskKind = "flux"
	TaskKindCategory       TaskKind = "category"
)

// Valid reports whether k is a known kind.
func (k TaskKind) Valid() bool {
	switch k {
	case TaskKindAccountReview, TaskKindReconciliation, TaskKindFlux, TaskKindCategory:
		return true
	}
	return false
}

// Frequency describes how often a task recurs.
type Frequency string

const (
	FrequencyOnce      Frequency = "once"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyAnnually  Frequency = "annually"
)

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyOnce, FrequencyMonthly, FrequencyQuarterly, FrequencyAnnually:
		return true
	}
	return false
}

// Task is a closing workflow item, optionally tied to a period and account.
type Task struct {
	ID          string     `json:"id"`
	CompanyID   string     `json:"company_id"`
	PeriodID    *string    `json:"period_id,omitempty"`
	AccountID   *string    `json:"account_id,omitempty"`
	Kind        TaskKind   `json:"kind"`
	Title       string     `json:"title"`
	AssigneeID  *string    `json:"assignee_id,omitempty"`
	ReviewerID  *string    `json:"reviewer_id,omitempty"`
	CreatedBy   *string    `json:"created_by,omitempty"`
	DueOn       *time.Time `json:"due_on,omitempty"`
	Frequency   Frequency  `json:"frequency"`
	Status      TaskStatus `json:"status"`
	Resolution  string     `json:"resolution,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateTaskInput describes a new task.
type CreateTaskInput struct {
	CompanyID  string     `json:"company_id" validate:"required"`
	PeriodID   *string    `json:"period_id"`
	AccountID  *string    `json:"account_id"`
	Kind       TaskKind   `json:"kind" validate:"required"`
	Title      string     `json:"title" validate:"required,max=200"`
	AssigneeID *string    `json:"assignee_id"`
	ReviewerID *string    `json:"reviewer_id"`
	DueOn      *time.Time `json:"due_on"`
	Frequency  Frequency  `json:"frequency"`
	CreatedBy  string     `json:"-"`
}

// TransitionInput moves a task one step forward. ReviewerID may be supplied
// when reviewing a task that has none assigned.
type TransitionInput struct {
	Status     TaskStatus `json:"status" validate:"required"`
	Resolution string     `json:"resolution" validate:"max=2000"`
	ReviewerID *string    `json:"reviewer_id"`
	ActorID    string     `json:"-"`
}

// ListFilter narrows task listings.
type ListFilter struct {
	CompanyID string
	PeriodID  string
	Status    TaskStatus
}
