package counterparties

import (
	"context"
	"strings"
	"time"

	"github.com/odyssey-erp/ledger/internal/accounting/dimensions"
	"github.com/odyssey-erp/ledger/internal/shared"
)

// DimensionSource supplies the active values of a named company dimension.
type DimensionSource interface {
	ActiveValues(ctx context.Context, companyID, name string) ([]dimensions.Value, error)
}

// Service keeps vendors and customers aligned with their dimensions.
type Service struct {
	repo   Repository
	source DimensionSource
	now    func() time.Time
	ids    shared.IDGenerator
}

// NewService builds the service.
func NewService(repo Repository, source DimensionSource) *Service {
	return &Service{repo: repo, source: source, now: time.Now, ids: shared.NewID}
}

// WithNow overrides the clock.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// WithIDs overrides the identifier generator.
func (s *Service) WithIDs(ids shared.IDGenerator) {
	if ids != nil {
		s.ids = ids
	}
}

// List returns a company's counterparties of one kind.
func (s *Service) List(ctx context.Context, companyID string, kind Kind) ([]Counterparty, error) {
	if companyID == "" {
		return nil, shared.Validationf("company id required")
	}
	if !kind.Valid() {
		return nil, shared.Validationf("unknown counterparty kind %q", kind)
	}
	return s.repo.List(ctx, companyID, kind)
}

// Sync upserts vendors and customers from the active values of the company's
// "Vendor" and "Customer" dimensions. Names no longer present are deactivated;
// a company without the dimension keeps no active rows of that kind.
func (s *Service) Sync(ctx context.Context, companyID string) (SyncResult, error) {
	if companyID == "" {
		return SyncResult{}, shared.Validationf("company id required")
	}
	desired := make(map[Kind]map[string]struct{}, len(Kinds))
	for _, kind := range Kinds {
		values, err := s.source.ActiveValues(ctx, companyID, kind.DimensionName())
		if err != nil {
			return SyncResult{}, err
		}
		names := make(map[string]struct{}, len(values))
		for _, v := range values {
			if name := strings.TrimSpace(v.Value); name != "" {
				names[name] = struct{}{}
			}
		}
		desired[kind] = names
	}

	var total SyncResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		total = SyncResult{}
		for _, kind := range Kinds {
			res, err := s.syncKind(ctx, tx, companyID, kind, desired[kind])
			if err != nil {
				return err
			}
			total.add(res)
		}
		return nil
	})
	if err != nil {
		return SyncResult{}, err
	}
	return total, nil
}

func (s *Service) syncKind(ctx context.Context, tx TxRepository, companyID string, kind Kind, names map[string]struct{}) (SyncResult, error) {
	var res SyncResult
	existing, err := tx.ListForUpdate(ctx, companyID, kind)
	if err != nil {
		return res, err
	}
	active := make(map[string]Counterparty)
	inactive := make(map[string]Counterparty)
	for _, c := range existing {
		if c.Active {
			active[c.DisplayName] = c
		} else {
			inactive[c.DisplayName] = c
		}
	}
	now := s.now().UTC()

	for name, c := range active {
		if _, keep := names[name]; keep {
			res.Unchanged++
			continue
		}
		// An inactive twin already holds the (name, inactive) slot.
		if _, twin := inactive[name]; twin {
			if err := tx.Delete(ctx, kind, c.ID); err != nil {
				return res, err
			}
		} else if err := tx.SetActive(ctx, kind, c.ID, false, now); err != nil {
			return res, err
		}
		res.Deactivated++
	}
	for name := range names {
		if _, ok := active[name]; ok {
			continue
		}
		if c, ok := inactive[name]; ok {
			if err := tx.SetActive(ctx, kind, c.ID, true, now); err != nil {
				return res, err
			}
			res.Reactivated++
			continue
		}
		if err := tx.Insert(ctx, Counterparty{
			ID:          s.ids(),
			CompanyID:   companyID,
			Kind:        kind,
			DisplayName: name,
			Active:      true,
			CreatedAt:   now,
		}); err != nil {
			return res, err
		}
		res.Created++
	}
	return res, nil
}
