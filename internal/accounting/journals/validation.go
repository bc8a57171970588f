package journals

import (
	"math"
	"time"

	"github.com/odyssey-erp/ledger/internal/accounting/periods"
	ledgererrs "github.com/odyssey-erp/ledger/internal/accounting/shared"
	"github.com/odyssey-erp/ledger/internal/shared"
)

// ResolveStatus derives the stored status. An entry booked into a period that
// starts after today is always Scheduled; otherwise the requested status is
// kept, defaulting to Posted.
func ResolveStatus(requested EntryStatus, period *periods.Period, today time.Time) (EntryStatus, error) {
	if requested != "" && !requested.Valid() {
		return "", shared.Validationf("unknown entry status %q", requested)
	}
	if period != nil && period.StartsOn.After(periods.DateOf(today)) {
		return EntryStatusScheduled, nil
	}
	if requested == "" {
		return EntryStatusPosted, nil
	}
	return requested, nil
}

// CheckBalance enforces that Scheduled and Posted entries with lines sum to zero.
func CheckBalance(status EntryStatus, amounts []int64) error {
	if !status.MustBalance() || len(amounts) == 0 {
		return nil
	}
	var sum int64
	for _, amount := range amounts {
		if (amount > 0 && sum > math.MaxInt64-amount) || (amount < 0 && sum < math.MinInt64-amount) {
			return shared.Validationf("line amounts overflow")
		}
		sum += amount
	}
	if sum != 0 {
		return &ledgererrs.UnbalancedEntryError{Discrepancy: sum}
	}
	return nil
}

// CheckAccounts verifies every referenced account belongs to the company and,
// for entries dated today or later, is active. Past-dated and undated entries
// may reference accounts that have since been deactivated.
func CheckAccounts(companyID string, txDate *time.Time, today time.Time, refs []AccountRef) error {
	requireActive := txDate != nil && !periods.DateOf(*txDate).Before(periods.DateOf(today))
	for _, ref := range refs {
		if ref.CompanyID != companyID {
			return shared.Validationf("account %s belongs to another company", ref.ID)
		}
		if requireActive && !ref.Active {
			return &ledgererrs.InactiveAccountError{AccountID: ref.ID}
		}
	}
	return nil
}

func lineAmounts(lines []LineInput) []int64 {
	out := make([]int64, len(lines))
	for i, l := range lines {
		out[i] = l.Amount
	}
	return out
}

func referencedAccounts(lines []LineInput) []string {
	seen := make(map[string]struct{}, len(lines))
	var ids []string
	for _, l := range lines {
		if l.AccountID == nil {
			continue
		}
		if _, ok := seen[*l.AccountID]; ok {
			continue
		}
		seen[*l.AccountID] = struct{}{}
		ids = append(ids, *l.AccountID)
	}
	return ids
}

func toLineInputs(lines []JournalLine) []LineInput {
	out := make([]LineInput, len(lines))
	for i, l := range lines {
		out[i] = LineInput{AccountID: l.AccountID, Amount: l.Amount, Description: l.Description}
	}
	return out
}
