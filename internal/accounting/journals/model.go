package journals

import (
	"time"

	"github.com/odyssey-erp/ledger/internal/accounting/dimensions"
	"github.com/odyssey-erp/ledger/internal/accounting/taxonomy"
)

// EntryStatus enumerates journal entry states.
type EntryStatus string

const (
	EntryStatusDraft     EntryStatus = "Draft"
	EntryStatusScheduled EntryStatus = "Scheduled"
	EntryStatusPosted    EntryStatus = "Posted"
)

// Valid reports whether s is a known status.
func (s EntryStatus) Valid() bool {
	switch s {
	case EntryStatusDraft, EntryStatusScheduled, EntryStatusPosted:
		return true
	}
	return false
}

// MustBalance reports whether entries in this status are bound by the balance law.
func (s EntryStatus) MustBalance() bool {
	return s == EntryStatusScheduled || s == EntryStatusPosted
}

// JournalEntry is one accounting transaction.
type JournalEntry struct {
	ID              string             `json:"id"`
	DisplayID       int64              `json:"display_id"`
	CompanyID       string             `json:"company_id"`
	EntryType       taxonomy.EntryType `json:"entry_type"`
	TransactionDate *time.Time         `json:"transaction_date,omitempty"`
	PeriodID        *string            `json:"period_id,omitempty"`
	Status          EntryStatus        `json:"status"`
	Description     string             `json:"description"`
	CreatedBy       *string            `json:"created_by,omitempty"`
	UpdatedBy       *string            `json:"updated_by,omitempty"`
	Deleted         bool               `json:"deleted"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
	Lines           []JournalLine      `json:"lines"`
}

// JournalLine is one signed component of an entry, in minor currency units.
type JournalLine struct {
	ID          string               `json:"id"`
	CompanyID   string               `json:"company_id"`
	EntryID     string               `json:"entry_id"`
	AccountID   *string              `json:"account_id,omitempty"`
	Amount      int64                `json:"amount"`
	Description string               `json:"description"`
	Dimensions  []dimensions.LineTag `json:"dimensions,omitempty"`
}

// AccountRef is the slice of an account the engine validates against.
type AccountRef struct {
	ID        string
	CompanyID string
	Active    bool
}
