package journals

import (
	"time"

	"github.com/odyssey-erp/ledger/internal/accounting/dimensions"
	"github.com/odyssey-erp/ledger/internal/accounting/taxonomy"
)

// LineInput describes a journal line in a create or update request.
type LineInput struct {
	AccountID   *string               `json:"account_id"`
	Amount      int64                 `json:"amount"`
	Description string                `json:"description" validate:"max=500"`
	Dimensions  []dimensions.TagInput `json:"dimensions" validate:"dive"`
}

// CreateInput groups fields required to create a journal entry. Status is
// optional and defaults to Posted.
type CreateInput struct {
	CompanyID       string             `json:"company_id" validate:"required"`
	EntryType       taxonomy.EntryType `json:"entry_type" validate:"required"`
	TransactionDate *time.Time         `json:"transaction_date"`
	PeriodID        *string            `json:"period_id"`
	Status          EntryStatus        `json:"status"`
	Description     string             `json:"description" validate:"max=2000"`
	Lines           []LineInput        `json:"lines" validate:"dive"`
	CreatedBy       string             `json:"-"`
}

// UpdateInput patches an entry. Nil fields are left unchanged; a non-nil Lines
// replaces the whole line set.
type UpdateInput struct {
	EntryType       *taxonomy.EntryType `json:"entry_type"`
	TransactionDate *time.Time          `json:"transaction_date"`
	PeriodID        *string             `json:"period_id"`
	Status          *EntryStatus        `json:"status"`
	Description     *string             `json:"description" validate:"omitempty,max=2000"`
	Lines           *[]LineInput        `json:"lines"`
	UpdatedBy       string              `json:"-"`
}

// ListFilter narrows List results.
type ListFilter struct {
	CompanyID string
	PeriodID  string
	Status    EntryStatus
	Page      int
	PerPage   int
}
