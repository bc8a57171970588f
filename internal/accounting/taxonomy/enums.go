package taxonomy

import "github.com/odyssey-erp/ledger/internal/shared"

// SpecialUseType tags accounts that automations look up by role.
type SpecialUseType string

const (
	SpecialUseAccruedExpense      SpecialUseType = "AccruedExpense"
	SpecialUseDepreciationExpense SpecialUseType = "DepreciationExpense"
	SpecialUsePrepaidExpense      SpecialUseType = "PrepaidExpense"
)

// ValidateSpecialUse enforces that special-use tags only decorate Expense accounts.
func ValidateSpecialUse(c Classification, su *SpecialUseType) error {
	if su == nil {
		return nil
	}
	switch *su {
	case SpecialUseAccruedExpense, SpecialUseDepreciationExpense, SpecialUsePrepaidExpense:
	default:
		return shared.Validationf("unknown special use %q", *su)
	}
	if c != ClassificationExpense {
		return shared.Validationf("special use %s requires Expense classification, got %s", *su, c)
	}
	return nil
}

// Platform identifies the source system a record was imported from.
type Platform string

const (
	PlatformManual           Platform = "Manual"
	PlatformQuickBooksOnline Platform = "QuickBooksOnline"
	PlatformXero             Platform = "Xero"
	PlatformNetSuite         Platform = "NetSuite"
)

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	switch p {
	case PlatformManual, PlatformQuickBooksOnline, PlatformXero, PlatformNetSuite:
		return true
	}
	return false
}

// EntryType enumerates the external transaction kinds a journal entry can mirror.
type EntryType string

const (
	EntryTypeJournalEntry    EntryType = "JournalEntry"
	EntryTypeInvoice         EntryType = "Invoice"
	EntryTypeBill            EntryType = "Bill"
	EntryTypePayment         EntryType = "Payment"
	EntryTypeBillPayment     EntryType = "BillPayment"
	EntryTypeDeposit         EntryType = "Deposit"
	EntryTypeTransfer        EntryType = "Transfer"
	EntryTypeExpense         EntryType = "Expense"
	EntryTypeCreditMemo      EntryType = "CreditMemo"
	EntryTypeVendorCredit    EntryType = "VendorCredit"
	EntryTypeSalesReceipt    EntryType = "SalesReceipt"
	EntryTypeRefundReceipt   EntryType = "RefundReceipt"
	EntryTypeInventoryAdjust EntryType = "InventoryQuantityAdjustment"
	EntryTypeOther           EntryType = "Other"
)

var entryTypes = map[EntryType]struct{}{
	EntryTypeJournalEntry: {}, EntryTypeInvoice: {}, EntryTypeBill: {}, EntryTypePayment: {},
	EntryTypeBillPayment: {}, EntryTypeDeposit: {}, EntryTypeTransfer: {}, EntryTypeExpense: {},
	EntryTypeCreditMemo: {}, EntryTypeVendorCredit: {}, EntryTypeSalesReceipt: {},
	EntryTypeRefundReceipt: {}, EntryTypeInventoryAdjust: {}, EntryTypeOther: {},
}

// Valid reports whether e is a known entry type.
func (e EntryType) Valid() bool {
	_, ok := entryTypes[e]
	return ok
}

// BasePeriod is a company's fiscal cadence.
type BasePeriod string

const (
	BasePeriodMonth   BasePeriod = "Month"
	BasePeriodQuarter BasePeriod = "Quarter"
)

// Valid reports whether b is a supported cadence.
func (b BasePeriod) Valid() bool {
	return b == BasePeriodMonth || b == BasePeriodQuarter
}

// PeriodsPerYear returns how many windows the cadence carves out of a calendar year.
func (b BasePeriod) PeriodsPerYear() int {
	if b == BasePeriodQuarter {
		return 4
	}
	return 12
}
