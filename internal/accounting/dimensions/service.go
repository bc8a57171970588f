package dimensions

import (
	"context"
	"strings"

	"github.com/odyssey-erp/ledger/internal/accounting/taxonomy"
	"github.com/odyssey-erp/ledger/internal/shared"
)

// Service manages dimensions, their values and line tags.
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

// CreateDimension registers a dimension for a company.
func (s *Service) CreateDimension(ctx context.Context, input CreateDimensionInput) (Dimension, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := shared.ValidateStruct(input); err != nil {
		return Dimension{}, err
	}
	if input.Platform == "" {
		input.Platform = taxonomy.PlatformManual
	}
	if !input.Platform.Valid() {
		return Dimension{}, shared.Validationf("unknown platform %q", input.Platform)
	}
	var created Dimension
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		ok, err := tx.CompanyExists(ctx, input.CompanyID)
		if err != nil {
			return err
		}
		if !ok {
			return shared.NotFoundf("company %s", input.CompanyID)
		}
		created, err = tx.InsertDimension(ctx, Dimension{
			ID:        s.ids(),
			CompanyID: input.CompanyID,
			Name:      input.Name,
			Platform:  input.Platform,
		})
		return err
	})
	if err != nil {
		return Dimension{}, err
	}
	return created, nil
}

// AddValue appends an active value to a dimension.
func (s *Service) AddValue(ctx context.Context, dimensionID, value string) (Value, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Value{}, shared.Validationf("dimension value required")
	}
	var created Value
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		dim, err := tx.GetDimension(ctx, dimensionID)
		if err != nil {
			return err
		}
		created, err = tx.InsertValue(ctx, Value{
			ID:          s.ids(),
			CompanyID:   dim.CompanyID,
			DimensionID: dim.ID,
			Value:       value,
			Active:      true,
		})
		return err
	})
	if err != nil {
		return Value{}, err
	}
	return created, nil
}

// DeactivateValue hides a value from new tags. Existing tags are kept.
func (s *Service) DeactivateValue(ctx context.Context, valueID string) (Value, error) {
	return s.setValueActive(ctx, valueID, false)
}

// ActivateValue makes a value taggable again.
func (s *Service) ActivateValue(ctx context.Context, valueID string) (Value, error) {
	return s.setValueActive(ctx, valueID, true)
}

func (s *Service) setValueActive(ctx context.Context, valueID string, active bool) (Value, error) {
	var value Value
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		value, err = tx.GetValueForUpdate(ctx, valueID)
		if err != nil {
			return err
		}
		if value.Active == active {
			return nil
		}
		if err := tx.SetValueActive(ctx, value.ID, active); err != nil {
			return err
		}
		value.Active = active
		return nil
	})
	if err != nil {
		return Value{}, err
	}
	return value, nil
}

// TagLine attaches a dimension value to a journal line. Re-tagging with the
// same value is a no-op; a different value of an already tagged dimension
// fails with DuplicateDimensionError.
func (s *Service) TagLine(ctx context.Context, lineID string, input TagInput) (LineTag, error) {
	if err := shared.ValidateStruct(input); err != nil {
		return LineTag{}, err
	}
	var tag LineTag
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		line, err := tx.GetLineForUpdate(ctx, lineID)
		if err != nil {
			return err
		}
		dim, err := tx.GetDimension(ctx, input.DimensionID)
		if err != nil {
			return err
		}
		value, err := tx.GetValueForUpdate(ctx, input.DimensionValueID)
		if err != nil {
			return err
		}
		existing, err := tx.ListLineTags(ctx, line.ID)
		if err != nil {
			return err
		}
		built, existed, err := BuildTag(line, dim, value, existing)
		if err != nil {
			return err
		}
		if existed {
			tag = built
			return nil
		}
		built.ID = s.ids()
		tag, err = tx.InsertLineTag(ctx, built)
		return err
	})
	if err != nil {
		return LineTag{}, err
	}
	return tag, nil
}

// LineTags returns the tags of a line.
func (s *Service) LineTags(ctx context.Context, lineID string) ([]LineTag, error) {
	return s.repo.ListLineTags(ctx, lineID)
}

// Get returns one dimension with its values.
func (s *Service) Get(ctx context.Context, id string) (Dimension, error) {
	dim, err := s.repo.GetDimension(ctx, id)
	if err != nil {
		return Dimension{}, err
	}
	dim.Values, err = s.repo.ListValues(ctx, id)
	if err != nil {
		return Dimension{}, err
	}
	return dim, nil
}

// List returns a company's dimensions with their values.
func (s *Service) List(ctx context.Context, companyID string) ([]Dimension, error) {
	if companyID == "" {
		return nil, shared.Validationf("company id required")
	}
	return s.repo.ListByCompany(ctx, companyID)
}

// ActiveValues returns the active values of the company dimension with the given name.
// A missing dimension yields no values.
func (s *Service) ActiveValues(ctx context.Context, companyID, name string) ([]Value, error) {
	dim, err := s.repo.FindByName(ctx, companyID, name)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	values, err := s.repo.ListValues(ctx, dim.ID)
	if err != nil {
		return nil, err
	}
	active := make([]Value, 0, len(values))
	for _, v := range values {
		if v.Active {
			active = append(active, v)
		}
	}
	return active, nil
}
