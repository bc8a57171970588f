package organizations

import (
	"context"
	"strings"

	"github.com/odyssey-erp/ledger/internal/shared"
)

// Service manages organizations.
type Service struct {
	repo Repository
}

// NewService builds the service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers an organization. The id is a stable slug and never changes.
func (s *Service) Create(ctx context.Context, input CreateInput) (Organization, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := shared.ValidateStruct(input); err != nil {
		return Organization{}, err
	}
	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = Slugify(input.Name)
	}
	if !validSlug(id) {
		return Organization{}, shared.Validationf("organization id %q must be a lowercase slug", id)
	}
	return s.repo.Create(ctx, Organization{ID: id, Name: input.Name})
}

// Get returns one organization.
func (s *Service) Get(ctx context.Context, id string) (Organization, error) {
	return s.repo.Get(ctx, id)
}

// List returns all organizations ordered by name.
func (s *Service) List(ctx context.Context) ([]Organization, error) {
	return s.repo.List(ctx)
}

// Rename changes the display name; the id is immutable.
func (s *Service) Rename(ctx context.Context, id, name string) (Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Organization{}, shared.Validationf("organization name required")
	}
	return s.repo.Rename(ctx, id, name)
}
