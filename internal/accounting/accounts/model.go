package accounts

import (
	"time"

	"github.com/odyssey-erp/ledger/internal/accounting/taxonomy"
)

// NameSeparator joins ancestor names into a fully qualified name.
const NameSeparator = ":"

// Account models a chart of accounts node.
type Account struct {
	ID                 string                   `json:"id"`
	CompanyID          string                   `json:"company_id"`
	Platform           taxonomy.Platform        `json:"platform"`
	SourceID           *string                  `json:"source_id,omitempty"`
	Currency           string                   `json:"currency"`
	FullyQualifiedName string                   `json:"fully_qualified_name"`
	Name               string                   `json:"name"`
	Classification     taxonomy.Classification  `json:"classification"`
	Type               taxonomy.AccountType     `json:"type"`
	Subtype            taxonomy.AccountSubtype  `json:"subtype"`
	SpecialUse         *taxonomy.SpecialUseType `json:"special_use,omitempty"`
	Active             bool                     `json:"active"`
	ParentID           *string                  `json:"parent_id,omitempty"`
	CreatedAt          time.Time                `json:"created_at"`
	UpdatedAt          time.Time                `json:"updated_at"`
}

// CreateInput describes a new account.
type CreateInput struct {
	CompanyID      string                   `json:"company_id" validate:"required"`
	Classification taxonomy.Classification  `json:"classification" validate:"required"`
	Type           taxonomy.AccountType     `json:"type" validate:"required"`
	Subtype        taxonomy.AccountSubtype  `json:"subtype" validate:"required"`
	Name           string                   `json:"name" validate:"required,max=200"`
	ParentID       *string                  `json:"parent_id"`
	Currency       string                   `json:"currency"`
	SpecialUse     *taxonomy.SpecialUseType `json:"special_use"`
	Platform       taxonomy.Platform        `json:"platform"`
	SourceID       *string                  `json:"source_id"`
}
