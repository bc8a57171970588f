package companies

import (
	"context"

	"github.com/odyssey-erp/ledger/internal/shared"
)

// Service manages companies.
type Service struct {
	repo Repository
	ids  shared.IDGenerator
}

// NewService builds the service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, ids: shared.NewID}
}

// WithIDs overrides the identifier generator.
func (s *Service) WithIDs(ids shared.IDGenerator) {
	if ids != nil {
		s.ids = ids
	}
}

// Create validates and registers a company.
func (s *Service) Create(ctx context.Context, input CreateInput) (Company, error) {
	if err := s.validate(&input); err != nil {
		return Company{}, err
	}
	return s.repo.Create(ctx, Company{
		ID:                   s.ids(),
		OrganizationID:       input.OrganizationID,
		Name:                 input.Name,
		Timezone:             input.Timezone,
		Platform:             input.Platform,
		BasePeriod:           input.BasePeriod,
		FiscalYearStartMonth: input.FiscalYearStartMonth,
		FiscalYearStartDay:   input.FiscalYearStartDay,
		MultiCurrency:        input.MultiCurrency,
		HomeCurrency:         input.HomeCurrency,
	})
}

// Get returns one company.
func (s *Service) Get(ctx context.Context, id string) (Company, error) {
	if id == "" {
		return Company{}, shared.Validationf("company id required")
	}
	return s.repo.Get(ctx, id)
}

// List returns the companies of an organization, or every company when organizationID is empty.
func (s *Service) List(ctx context.Context, organizationID string) ([]Company, error) {
	if organizationID == "" {
		return s.repo.ListAll(ctx)
	}
	return s.repo.ListByOrganization(ctx, organizationID)
}
