package periods

import (
	"fmt"
	"time"

	"github.com/odyssey-erp/ledger/internal/accounting/taxonomy"
	"github.com/odyssey-erp/ledger/internal/shared"
)

const (
	targetCloseLead = 7
	maxYearSpan     = 100
)

// Window is one generated cadence slot before it is persisted.
type Window struct {
	DisplayName string
	StartsOn    time.Time
	EndsOn      time.Time
	TargetClose time.Time
	Status      PeriodStatus
}

// BuildCalendar lays out every window of the cadence for the inclusive year
// range. Windows ending strictly before today are marked closed.
func BuildCalendar(base taxonomy.BasePeriod, startYear, endYear int, today time.Time) ([]Window, error) {
	if !base.Valid() {
		return nil, shared.Validationf("unknown base period %q", base)
	}
	if startYear < 1 || endYear > 9999 || startYear > endYear {
		return nil, shared.Validationf("invalid year range %d-%d", startYear, endYear)
	}
	if endYear-startYear >= maxYearSpan {
		return nil, shared.Validationf("year range %d-%d spans more than %d years", startYear, endYear, maxYearSpan)
	}
	today = DateOf(today)
	months := 12 / base.PeriodsPerYear()

	windows := make([]Window, 0, (endYear-startYear+1)*base.PeriodsPerYear())
	for year := startYear; year <= endYear; year++ {
		for idx := 0; idx < base.PeriodsPerYear(); idx++ {
			start := time.Date(year, time.Month(idx*months+1), 1, 0, 0, 0, 0, time.UTC)
			end := start.AddDate(0, months, -1)
			status := PeriodStatusOpen
			if end.Before(today) {
				status = PeriodStatusClosed
			}
			windows = append(windows, Window{
				DisplayName: displayName(base, start, idx),
				StartsOn:    start,
				EndsOn:      end,
				TargetClose: TargetCloseDate(end),
				Status:      status,
			})
		}
	}
	return windows, nil
}

func displayName(base taxonomy.BasePeriod, start time.Time, idx int) string {
	if base == taxonomy.BasePeriodQuarter {
		return fmt.Sprintf("Q%d %d", idx+1, start.Year())
	}
	return fmt.Sprintf("%s %d", start.Format("Jan"), start.Year())
}

// TargetCloseDate is the last business day on or before endsOn minus seven days.
// Saturdays and Sundays are the only non-business days.
func TargetCloseDate(endsOn time.Time) time.Time {
	day := DateOf(endsOn).AddDate(0, 0, -targetCloseLead)
	for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
		day = day.AddDate(0, 0, -1)
	}
	return day
}
