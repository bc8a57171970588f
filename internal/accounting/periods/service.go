package periods

import (
	"context"
	"time"

	"github.com/odyssey-erp/ledger/internal/shared"
)

// AuditPort records period state changes.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MetricsPort observes generation output.
type MetricsPort interface {
	PeriodsGenerated(inserted int)
}

// Service generates and closes fiscal periods.
type Service struct {
	repo    Repository
	audit   AuditPort
	metrics MetricsPort
	now     func() time.Time
	ids     shared.IDGenerator
}

// NewService builds the service. audit and metrics may be nil.
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

// Generate persists the company's cadence windows for the inclusive year range
// and returns every period in that range ordered by start date. Windows that
// already exist are left untouched, so re-running is safe.
func (s *Service) Generate(ctx context.Context, companyID string, startYear, endYear int) ([]Period, error) {
	var (
		result   []Period
		inserted int
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		company, err := tx.GetCompany(ctx, companyID)
		if err != nil {
			return err
		}
		windows, err := BuildCalendar(company.BasePeriod, startYear, endYear, s.now())
		if err != nil {
			return err
		}
		rows := make([]Period, 0, len(windows))
		for _, w := range windows {
			rows = append(rows, Period{
				ID:          s.ids(),
				CompanyID:   company.ID,
				DisplayName: w.DisplayName,
				StartsOn:    w.StartsOn,
				EndsOn:      w.EndsOn,
				TargetClose: w.TargetClose,
				Status:      w.Status,
			})
		}
		if inserted, err = tx.InsertPeriods(ctx, rows); err != nil {
			return err
		}
		result, err = tx.ListRange(ctx, company.ID, windows[0].StartsOn, windows[len(windows)-1].EndsOn)
		return err
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.PeriodsGenerated(inserted)
	}
	return result, nil
}

// Close moves an open period to closed. Closing twice is an invalid transition.
func (s *Service) Close(ctx context.Context, periodID, actorID string) (Period, error) {
	var period Period
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		period, err = tx.GetForUpdate(ctx, periodID)
		if err != nil {
			return err
		}
		if err := shared.ValidatePeriodTransition(string(period.Status), string(PeriodStatusClosed)); err != nil {
			return err
		}
		at := s.now().UTC()
		if err := tx.MarkClosed(ctx, period.ID, at); err != nil {
			return err
		}
		period.Status = PeriodStatusClosed
		period.ClosedAt = &at
		return nil
	})
	if err != nil {
		return Period{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "period.close",
			Entity:   "period",
			EntityID: period.ID,
			Meta: map[string]any{
				"company_id":   period.CompanyID,
				"display_name": period.DisplayName,
			},
			At: s.now(),
		})
	}
	return period, nil
}

// Get returns one period.
func (s *Service) Get(ctx context.Context, id string) (Period, error) {
	return s.repo.Get(ctx, id)
}

// List returns a company's periods ordered by start date.
func (s *Service) List(ctx context.Context, companyID string) ([]Period, error) {
	if companyID == "" {
		return nil, shared.Validationf("company id required")
	}
	return s.repo.ListByCompany(ctx, companyID)
}

// FindByDate returns the company period covering day.
func (s *Service) FindByDate(ctx context.Context, companyID string, day time.Time) (Period, error) {
	return s.repo.FindByDate(ctx, companyID, day)
}
