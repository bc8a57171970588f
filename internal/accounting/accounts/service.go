package accounts

import (
	"context"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/odyssey-erp/ledger/internal/accounting/taxonomy"
	"github.com/odyssey-erp/ledger/internal/shared"
)

// Service maintains the per-company chart of accounts tree.
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

// Create validates the classification triple against the registry and the
// parent (when given) and inserts the account as active.
func (s *Service) Create(ctx context.Context, input CreateInput) (Account, error) {
	name, err := normalizeName(input.Name)
	if err != nil {
		return Account{}, err
	}
	input.Name = name
	if err := shared.ValidateStruct(input); err != nil {
		return Account{}, err
	}
	if err := taxonomy.ValidateKind(input.Classification, input.Type, input.Subtype); err != nil {
		return Account{}, err
	}
	if err := taxonomy.ValidateSpecialUse(input.Classification, input.SpecialUse); err != nil {
		return Account{}, err
	}
	platform := input.Platform
	if platform == "" {
		platform = taxonomy.PlatformManual
	}
	if !platform.Valid() {
		return Account{}, shared.Validationf("unknown platform %q", platform)
	}

	var created Account
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		company, err := tx.GetCompany(ctx, input.CompanyID)
		if err != nil {
			return err
		}
		currency := company.HomeCurrency
		if strings.TrimSpace(input.Currency) != "" {
			if currency, err = taxonomy.NormalizeCurrency(input.Currency); err != nil {
				return err
			}
		}
		if !company.MultiCurrency && currency != company.HomeCurrency {
			return shared.Validationf("company %s is single-currency (%s), got %s", company.ID, company.HomeCurrency, currency)
		}

		fqn := name
		if input.ParentID != nil {
			parent, err := tx.GetAccountForUpdate(ctx, *input.ParentID)
			if err != nil {
				return err
			}
			if err := checkParent(parent, input); err != nil {
				return err
			}
			fqn = parent.FullyQualifiedName + NameSeparator + name
		}

		created, err = tx.InsertAccount(ctx, Account{
			ID:                 s.ids(),
			CompanyID:          company.ID,
			Platform:           platform,
			SourceID:           input.SourceID,
			Currency:           currency,
			FullyQualifiedName: fqn,
			Name:               name,
			Classification:     input.Classification,
			Type:               input.Type,
			Subtype:            input.Subtype,
			SpecialUse:         input.SpecialUse,
			Active:             true,
			ParentID:           input.ParentID,
		})
		return err
	})
	if err != nil {
		return Account{}, err
	}
	return created, nil
}

func checkParent(parent Account, input CreateInput) error {
	if parent.CompanyID != input.CompanyID {
		return shared.Validationf("parent %s belongs to another company", parent.ID)
	}
	if !parent.Active {
		return shared.Validationf("parent %s is inactive", parent.ID)
	}
	if parent.Classification != input.Classification || parent.Type != input.Type || parent.Subtype != input.Subtype {
		return shared.Validationf("child %s/%s/%s must match parent %s/%s/%s",
			input.Classification, input.Type, input.Subtype,
			parent.Classification, parent.Type, parent.Subtype)
	}
	return nil
}

func normalizeName(name string) (string, error) {
	name = norm.NFC.String(strings.TrimSpace(name))
	if name == "" {
		return "", shared.Validationf("account name required")
	}
	if strings.Contains(name, NameSeparator) {
		return "", shared.Validationf("account name %q may not contain %q", name, NameSeparator)
	}
	return name, nil
}

// Deactivate marks the account and every active descendant inactive in one
// transaction. It returns the ids that changed state.
func (s *Service) Deactivate(ctx context.Context, id string) ([]string, error) {
	var changed []string
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		changed = nil
		account, err := tx.GetAccountForUpdate(ctx, id)
		if err != nil {
			return err
		}
		descendants, err := walkDescendants(ctx, account.ID, tx.ListChildren)
		if err != nil {
			return err
		}
		// Deepest first so no intermediate state has an active child under an inactive parent.
		for i := len(descendants) - 1; i >= 0; i-- {
			if !descendants[i].Active {
				continue
			}
			if err := tx.SetActive(ctx, descendants[i].ID, false); err != nil {
				return err
			}
			changed = append(changed, descendants[i].ID)
		}
		if account.Active {
			if err := tx.SetActive(ctx, account.ID, false); err != nil {
				return err
			}
			changed = append(changed, account.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return changed, nil
}

// Activate re-enables a single account. Its parent must already be active;
// children stay as they are.
func (s *Service) Activate(ctx context.Context, id string) (Account, error) {
	var account Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		account, err = tx.GetAccountForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if account.Active {
			return nil
		}
		if account.ParentID != nil {
			parent, err := tx.GetAccountForUpdate(ctx, *account.ParentID)
			if err != nil {
				return err
			}
			if !parent.Active {
				return shared.Validationf("parent %s is inactive", parent.ID)
			}
		}
		if err := tx.SetActive(ctx, account.ID, true); err != nil {
			return err
		}
		account.Active = true
		return nil
	})
	if err != nil {
		return Account{}, err
	}
	return account, nil
}

// ResolveChain returns the ancestors of the account, nearest parent first.
func (s *Service) ResolveChain(ctx context.Context, id string) ([]Account, error) {
	account, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return walkAncestors(ctx, account, s.repo.Get)
}

// Descendants returns every account below id, breadth first.
func (s *Service) Descendants(ctx context.Context, id string) ([]Account, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return walkDescendants(ctx, id, s.repo.ListChildren)
}

// Get returns one account.
func (s *Service) Get(ctx context.Context, id string) (Account, error) {
	return s.repo.Get(ctx, id)
}

// List returns a company's accounts ordered by fully qualified name.
func (s *Service) List(ctx context.Context, companyID string, includeInactive bool) ([]Account, error) {
	if companyID == "" {
		return nil, shared.Validationf("company id required")
	}
	return s.repo.ListByCompany(ctx, companyID, includeInactive)
}
