package journals

import (
	"context"
	"errors"
	"time"

	"github.com/odyssey-erp/ledger/internal/accounting/dimensions"
	"github.com/odyssey-erp/ledger/internal/accounting/periods"
	ledgererrs "github.com/odyssey-erp/ledger/internal/accounting/shared"
	"github.com/odyssey-erp/ledger/internal/shared"
)

const maxDisplayIDAttempts = 3

// AuditPort records journal mutations.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MetricsPort observes the journal pipeline.
type MetricsPort interface {
	EntryCreated(status string)
	ValidationFailed(reason string)
	DisplayIDRetry()
}

// CacheInvalidator drops cached reports for a company after a ledger write.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, companyID string) error
}

// Service validates and persists journal entries.
type Service struct {
	repo    Repository
	audit   AuditPort
	metrics MetricsPort
	cache   CacheInvalidator
	now     func() time.Time
	ids     shared.IDGenerator
}

// NewService builds the engine. audit and metrics may be nil.
func NewService(repo Repository, audit AuditPort, metrics MetricsPort) *Service {
	return &Service{repo: repo, audit: audit, metrics: metrics, now: time.Now, ids: shared.NewID}
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

// WithCache registers the report cache to invalidate after writes.
func (s *Service) WithCache(cache CacheInvalidator) {
	s.cache = cache
}

// ListResult is one page of entries.
type ListResult struct {
	Entries    []JournalEntry    `json:"entries"`
	Pagination shared.Pagination `json:"pagination"`
}

// Create validates and persists a new entry with its lines and inline tags.
// The display id is allocated under a per-company lock; a lost race on the
// unique constraint retries the whole transaction.
func (s *Service) Create(ctx context.Context, in CreateInput) (JournalEntry, error) {
	if err := shared.ValidateStruct(in); err != nil {
		s.observeFailure(err)
		return JournalEntry{}, err
	}
	if !in.EntryType.Valid() {
		return JournalEntry{}, shared.Validationf("unknown entry type %q", in.EntryType)
	}
	var (
		entry JournalEntry
		err   error
	)
	for attempt := 0; attempt < maxDisplayIDAttempts; attempt++ {
		entry, err = s.create(ctx, in)
		if !errors.Is(err, ledgererrs.ErrDisplayIDConflict) {
			break
		}
		if s.metrics != nil {
			s.metrics.DisplayIDRetry()
		}
	}
	if err != nil {
		if errors.Is(err, ledgererrs.ErrDisplayIDConflict) {
			return JournalEntry{}, shared.Conflictf("display id allocation for company %s", in.CompanyID)
		}
		s.observeFailure(err)
		return JournalEntry{}, err
	}
	s.afterWrite(ctx, entry.CompanyID)
	if s.metrics != nil {
		s.metrics.EntryCreated(string(entry.Status))
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  in.CreatedBy,
			Action:   "journal.create",
			Entity:   "journal_entry",
			EntityID: entry.ID,
			Meta: map[string]any{
				"company_id": entry.CompanyID,
				"display_id": entry.DisplayID,
				"status":     string(entry.Status),
			},
			At: s.now(),
		})
	}
	return entry, nil
}

func (s *Service) create(ctx context.Context, in CreateInput) (JournalEntry, error) {
	today := periods.DateOf(s.now())
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		exists, err := tx.CompanyExists(ctx, in.CompanyID)
		if err != nil {
			return err
		}
		if !exists {
			return shared.NotFoundf("company %s", in.CompanyID)
		}
		period, err := s.loadPeriod(ctx, tx, in.CompanyID, in.PeriodID)
		if err != nil {
			return err
		}
		status, err := ResolveStatus(in.Status, period, today)
		if err != nil {
			return err
		}
		if err := CheckBalance(status, lineAmounts(in.Lines)); err != nil {
			return err
		}
		if err := s.checkAccounts(ctx, tx, in.CompanyID, in.TransactionDate, today, in.Lines); err != nil {
			return err
		}
		if err := tx.LockCompanySequence(ctx, in.CompanyID); err != nil {
			return err
		}
		displayID, err := tx.NextDisplayID(ctx, in.CompanyID)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		var createdBy *string
		if in.CreatedBy != "" {
			createdBy = &in.CreatedBy
		}
		entry, err = tx.InsertEntry(ctx, JournalEntry{
			ID:              s.ids(),
			DisplayID:       displayID,
			CompanyID:       in.CompanyID,
			EntryType:       in.EntryType,
			TransactionDate: dateOnly(in.TransactionDate),
			PeriodID:        in.PeriodID,
			Status:          status,
			Description:     in.Description,
			CreatedBy:       createdBy,
			UpdatedBy:       createdBy,
			CreatedAt:       now,
		})
		if err != nil {
			return err
		}
		entry.Lines, err = s.writeLines(ctx, tx, entry, in.Lines)
		return err
	})
	if err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

// Update patches an entry and re-runs the full validation pipeline against the
// resulting state. Posted entries remain editable.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (JournalEntry, error) {
	if err := shared.ValidateStruct(in); err != nil {
		return JournalEntry{}, err
	}
	if in.Lines != nil {
		for _, l := range *in.Lines {
			if err := shared.ValidateStruct(l); err != nil {
				return JournalEntry{}, err
			}
		}
	}
	today := periods.DateOf(s.now())
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Deleted {
			return shared.NotFoundf("journal entry %s", id)
		}
		if in.EntryType != nil {
			if !in.EntryType.Valid() {
				return shared.Validationf("unknown entry type %q", *in.EntryType)
			}
			current.EntryType = *in.EntryType
		}
		if in.TransactionDate != nil {
			current.TransactionDate = dateOnly(in.TransactionDate)
		}
		if in.PeriodID != nil {
			current.PeriodID = in.PeriodID
			if *in.PeriodID == "" {
				current.PeriodID = nil
			}
		}
		if in.Description != nil {
			current.Description = *in.Description
		}
		requested := current.Status
		if in.Status != nil {
			requested = *in.Status
		}
		period, err := s.loadPeriod(ctx, tx, current.CompanyID, current.PeriodID)
		if err != nil {
			return err
		}
		if current.Status, err = ResolveStatus(requested, period, today); err != nil {
			return err
		}

		existing, err := tx.ListLines(ctx, current.ID)
		if err != nil {
			return err
		}
		lines := toLineInputs(existing)
		if in.Lines != nil {
			lines = *in.Lines
		}
		if err := CheckBalance(current.Status, lineAmounts(lines)); err != nil {
			return err
		}
		if err := s.checkAccounts(ctx, tx, current.CompanyID, current.TransactionDate, today, lines); err != nil {
			return err
		}

		if in.UpdatedBy != "" {
			current.UpdatedBy = &in.UpdatedBy
		}
		current.UpdatedAt = s.now().UTC()
		if err := tx.UpdateEntry(ctx, current); err != nil {
			return err
		}
		current.Lines = existing
		if in.Lines != nil {
			if err := tx.DeleteLines(ctx, current.ID); err != nil {
				return err
			}
			if current.Lines, err = s.writeLines(ctx, tx, current, lines); err != nil {
				return err
			}
		}
		entry = current
		return nil
	})
	if err != nil {
		s.observeFailure(err)
		return JournalEntry{}, err
	}
	s.afterWrite(ctx, entry.CompanyID)
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  in.UpdatedBy,
			Action:   "journal.update",
			Entity:   "journal_entry",
			EntityID: entry.ID,
			Meta: map[string]any{
				"company_id": entry.CompanyID,
				"status":     string(entry.Status),
				"lines":      in.Lines != nil,
			},
			At: s.now(),
		})
	}
	return entry, nil
}

// Delete soft-deletes an entry. Deleting an already deleted entry is a no-op.
func (s *Service) Delete(ctx context.Context, id, actorID string) error {
	var (
		companyID string
		changed   bool
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, id)
		if err != nil {
			return err
		}
		companyID = current.CompanyID
		if current.Deleted {
			return nil
		}
		var by *string
		if actorID != "" {
			by = &actorID
		}
		changed = true
		return tx.SoftDelete(ctx, id, by, s.now().UTC())
	})
	if err != nil || !changed {
		return err
	}
	s.afterWrite(ctx, companyID)
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "journal.delete",
			Entity:   "journal_entry",
			EntityID: id,
			Meta:     map[string]any{"company_id": companyID},
			At:       s.now(),
		})
	}
	return nil
}

// Get returns a live entry with lines and tags.
func (s *Service) Get(ctx context.Context, id string) (JournalEntry, error) {
	return s.repo.Get(ctx, id)
}

// List returns one page of a company's live entries, newest display id first.
func (s *Service) List(ctx context.Context, filter ListFilter) (ListResult, error) {
	if filter.CompanyID == "" {
		return ListResult{}, shared.Validationf("company id required")
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return ListResult{}, shared.Validationf("unknown entry status %q", filter.Status)
	}
	page := shared.NewPagination(filter.Page, filter.PerPage, 0)
	filter.Page, filter.PerPage = page.Page, page.PerPage
	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Entries: entries, Pagination: shared.NewPagination(page.Page, page.PerPage, total)}, nil
}

func (s *Service) loadPeriod(ctx context.Context, tx TxRepository, companyID string, periodID *string) (*periods.Period, error) {
	if periodID == nil {
		return nil, nil
	}
	p, err := tx.GetPeriod(ctx, *periodID)
	if err != nil {
		return nil, err
	}
	if p.CompanyID != companyID {
		return nil, shared.Validationf("period %s belongs to another company", p.ID)
	}
	return &p, nil
}

func (s *Service) checkAccounts(ctx context.Context, tx TxRepository, companyID string, txDate *time.Time, today time.Time, lines []LineInput) error {
	ids := referencedAccounts(lines)
	if len(ids) == 0 {
		return nil
	}
	refs, err := tx.GetAccounts(ctx, ids)
	if err != nil {
		return err
	}
	found := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		found[ref.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return shared.NotFoundf("account %s", id)
		}
	}
	return CheckAccounts(companyID, txDate, today, refs)
}

func (s *Service) writeLines(ctx context.Context, tx TxRepository, entry JournalEntry, inputs []LineInput) ([]JournalLine, error) {
	lines := make([]JournalLine, len(inputs))
	for i, in := range inputs {
		lines[i] = JournalLine{
			ID:          s.ids(),
			CompanyID:   entry.CompanyID,
			EntryID:     entry.ID,
			AccountID:   in.AccountID,
			Amount:      in.Amount,
			Description: in.Description,
		}
	}
	if err := tx.InsertLines(ctx, lines); err != nil {
		return nil, err
	}
	for i, in := range inputs {
		ref := dimensions.LineRef{ID: lines[i].ID, CompanyID: lines[i].CompanyID}
		for _, tagIn := range in.Dimensions {
			dim, err := tx.GetDimension(ctx, tagIn.DimensionID)
			if err != nil {
				return nil, err
			}
			value, err := tx.GetDimensionValue(ctx, tagIn.DimensionValueID)
			if err != nil {
				return nil, err
			}
			tag, existed, err := dimensions.BuildTag(ref, dim, value, lines[i].Dimensions)
			if err != nil {
				return nil, err
			}
			if existed {
				continue
			}
			tag.ID = s.ids()
			if tag, err = tx.InsertLineTag(ctx, tag); err != nil {
				return nil, err
			}
			lines[i].Dimensions = append(lines[i].Dimensions, tag)
		}
	}
	return lines, nil
}

func (s *Service) afterWrite(ctx context.Context, companyID string) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, companyID)
	}
}

func (s *Service) observeFailure(err error) {
	if s.metrics == nil || err == nil {
		return
	}
	switch {
	case errors.Is(err, ledgererrs.ErrUnbalanced):
		s.metrics.ValidationFailed("unbalanced")
	case errors.Is(err, ledgererrs.ErrInactiveAccount):
		s.metrics.ValidationFailed("inactive_account")
	case errors.Is(err, ledgererrs.ErrDuplicateDimension):
		s.metrics.ValidationFailed("duplicate_dimension")
	case errors.Is(err, shared.ErrValidation):
		s.metrics.ValidationFailed("invalid_input")
	}
}

func dateOnly(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := periods.DateOf(*t)
	return &d
}
