package companies

import (
	"strings"
	"time"

	"github.com/odyssey-erp/ledger/internal/accounting/taxonomy"
	"github.com/odyssey-erp/ledger/internal/shared"
)

func (s *Service) validate(in *CreateInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Timezone = strings.TrimSpace(in.Timezone)
	if in.Platform == "" {
		in.Platform = taxonomy.PlatformManual
	}
	if err := shared.ValidateStruct(in); err != nil {
		return err
	}
	if _, err := time.LoadLocation(in.Timezone); err != nil {
		return shared.Validationf("unknown timezone %q", in.Timezone)
	}
	if !in.Platform.Valid() {
		return shared.Validationf("unknown platform %q", in.Platform)
	}
	if !in.BasePeriod.Valid() {
		return shared.Validationf("base period must be Month or Quarter, got %q", in.BasePeriod)
	}
	// Leap year so that 29 February stays a legal fiscal start.
	lastDay := time.Date(2000, time.Month(in.FiscalYearStartMonth)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if in.FiscalYearStartDay > lastDay {
		return shared.Validationf("fiscal year start day %d exceeds %d for month %d", in.FiscalYearStartDay, lastDay, in.FiscalYearStartMonth)
	}
	code, err := taxonomy.NormalizeCurrency(in.HomeCurrency)
	if err != nil {
		return err
	}
	in.HomeCurrency = code
	return nil
}
