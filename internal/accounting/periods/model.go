package periods

import (
	"time"

	"github.com/odyssey-erp/ledger/internal/shared"
)

// PeriodStatus enumerates valid period states.
type PeriodStatus string

const (
	PeriodStatusOpen   PeriodStatus = shared.PeriodStatusOpen
	PeriodStatusClosed PeriodStatus = shared.PeriodStatusClosed
)

// Period represents a fiscal period window. Dates are calendar days at UTC midnight.
type Period struct {
	ID          string       `json:"id"`
	CompanyID   string       `json:"company_id"`
	DisplayName string       `json:"display_name"`
	StartsOn    time.Time    `json:"starts_on"`
	EndsOn      time.Time    `json:"ends_on"`
	TargetClose time.Time    `json:"target_close"`
	Status      PeriodStatus `json:"status"`
	ClosedAt    *time.Time   `json:"closed_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Contains reports whether day falls inside the period, bounds inclusive.
func (p Period) Contains(day time.Time) bool {
	d := DateOf(day)
	return !d.Before(p.StartsOn) && !d.After(p.EndsOn)
}

// DateOf truncates t to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
