package dimensions

import (
	"time"

	"github.com/odyssey-erp/ledger/internal/accounting/taxonomy"
)

// Dimension is a company scoped categorical taxonomy such as Department.
type Dimension struct {
	ID        string            `json:"id"`
	CompanyID string            `json:"company_id"`
	Name      string            `json:"name"`
	Platform  taxonomy.Platform `json:"platform"`
	CreatedAt time.Time         `json:"created_at"`
	Values    []Value           `json:"values,omitempty"`
}

// Value is one member of a Dimension. Values are soft-deactivated, never removed.
type Value struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"company_id"`
	DimensionID string    `json:"dimension_id"`
	Value       string    `json:"value"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// LineTag attaches one dimension value to a journal line. Name and value are
// denormalized so reports need no joins.
type LineTag struct {
	ID               string `json:"id"`
	CompanyID        string `json:"company_id"`
	LineID           string `json:"line_id"`
	DimensionID      string `json:"dimension_id"`
	DimensionValueID string `json:"dimension_value_id"`
	DimensionName    string `json:"dimension_name"`
	Value            string `json:"value"`
}

// LineRef is the minimal view of a journal line needed for tagging.
type LineRef struct {
	ID        string
	CompanyID string
}

// CreateDimensionInput describes a new dimension.
type CreateDimensionInput struct {
	CompanyID string            `json:"company_id" validate:"required"`
	Name      string            `json:"name" validate:"required,max=100"`
	Platform  taxonomy.Platform `json:"platform"`
}

// TagInput names a dimension value to attach to a line.
type TagInput struct {
	DimensionID      string `json:"dimension_id" validate:"required"`
	DimensionValueID string `json:"dimension_value_id" validate:"required"`
}
