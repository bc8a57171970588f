package reports

import (
	"sort"

	ledgererrs "github.com/odyssey-erp/ledger/internal/accounting/shared"
)

// AccountSum is the signed total of posted lines for one account in one
// period. Lines without an account are reported under an empty AccountID.
type AccountSum struct {
	AccountID          string `json:"account_id"`
	FullyQualifiedName string `json:"fully_qualified_name"`
	Currency           string `json:"currency"`
	Balance            int64  `json:"balance"`
}

// TrialBalance lists every account touched in a period with its net movement.
type TrialBalance struct {
	CompanyID string       `json:"company_id"`
	PeriodID  string       `json:"period_id"`
	Rows      []AccountSum `json:"rows"`
	Total     int64        `json:"total"`
}

// Balances returns the trial balance as an account id to balance mapping.
func (tb TrialBalance) Balances() map[string]int64 {
	out := make(map[string]int64, len(tb.Rows))
	for _, row := range tb.Rows {
		out[row.AccountID] += row.Balance
	}
	return out
}

// BuildTrialBalance orders the period sums and verifies they net to zero.
// A non-zero total yields the built report together with an OutOfBalanceError.
func BuildTrialBalance(companyID, periodID string, sums []AccountSum) (TrialBalance, error) {
	rows := make([]AccountSum, 0, len(sums))
	var total int64
	for _, s := range sums {
		rows = append(rows, s)
		total += s.Balance
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].FullyQualifiedName != rows[j].FullyQualifiedName {
			return rows[i].FullyQualifiedName < rows[j].FullyQualifiedName
		}
		return rows[i].AccountID < rows[j].AccountID
	})
	tb := TrialBalance{CompanyID: companyID, PeriodID: periodID, Rows: rows, Total: total}
	if total != 0 {
		return tb, &ledgererrs.OutOfBalanceError{PeriodID: periodID, Total: total}
	}
	return tb, nil
}
