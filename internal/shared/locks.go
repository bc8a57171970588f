package shared

import "fmt"

// LedgerLockKey builds the advisory lock key guarding per-company journal numbering.
func LedgerLockKey(companyID string) string {
	return fmt.Sprintf("ledger:company:%s:journal-seq", companyID)
}
