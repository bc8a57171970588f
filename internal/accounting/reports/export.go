package reports

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/odyssey-erp/ledger/internal/accounting/taxonomy"
)

// WriteTrialBalanceCSV emits the trial balance with both minor-unit and
// major-unit amounts.
func WriteTrialBalanceCSV(w io.Writer, tb TrialBalance) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Account ID", "Account", "Currency", "Balance (minor)", "Balance"}); err != nil {
		return err
	}
	for _, row := range tb.Rows {
		if err := writer.Write([]string{
			row.AccountID,
			row.FullyQualifiedName,
			row.Currency,
			strconv.FormatInt(row.Balance, 10),
			taxonomy.MajorUnits(row.Balance, row.Currency).StringFixed(int32(taxonomy.Fraction(row.Currency))),
		}); err != nil {
			return err
		}
	}
	if err := writer.Write([]string{"", "Total", "", strconv.FormatInt(tb.Total, 10), ""}); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}
