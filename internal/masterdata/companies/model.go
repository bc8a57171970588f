package companies

import (
	"time"

	"github.com/odyssey-erp/ledger/internal/accounting/taxonomy"
)

// Company is an accounting entity owned by an organization.
type Company struct {
	ID                   string              `json:"id"`
	OrganizationID       string              `json:"organization_id"`
	Name                 string              `json:"name"`
	Timezone             string              `json:"timezone"`
	Platform             taxonomy.Platform   `json:"platform"`
	BasePeriod           taxonomy.BasePeriod `json:"base_period"`
	FiscalYearStartMonth int                 `json:"fiscal_year_start_month"`
	FiscalYearStartDay   int                 `json:"fiscal_year_start_day"`
	MultiCurrency        bool                `json:"multi_currency"`
	HomeCurrency         string              `json:"home_currency"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
}

// CreateInput is the payload accepted by Service.Create.
type CreateInput struct {
	OrganizationID       string              `json:"organization_id" validate:"required"`
	Name                 string              `json:"name" validate:"required,max=200"`
	Timezone             string              `json:"timezone" validate:"required"`
	Platform             taxonomy.Platform   `json:"platform"`
	BasePeriod           taxonomy.BasePeriod `json:"base_period" validate:"required"`
	FiscalYearStartMonth int                 `json:"fiscal_year_start_month" validate:"min=1,max=12"`
	FiscalYearStartDay   int                 `json:"fiscal_year_start_day" validate:"min=1,max=31"`
	MultiCurrency        bool                `json:"multi_currency"`
	HomeCurrency         string              `json:"home_currency" validate:"required,len=3"`
}
