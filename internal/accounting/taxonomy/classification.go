// Package taxonomy holds the closed enumerations of the ledger: account
// classifications with their legal types and subtypes, special-use tags,
// source platforms, entry types, fiscal cadences and currencies.
package taxonomy

import (
	"sort"

	"github.com/odyssey-erp/ledger/internal/shared"
)

// Classification is the accounting nature of an account.
type Classification string

const (
	ClassificationAsset     Classification = "Asset"
	ClassificationLiability Classification = "Liability"
	ClassificationEquity    Classification = "Equity"
	ClassificationIncome    Classification = "Income"
	ClassificationExpense   Classification = "Expense"
	ClassificationUnknown   Classification = "Unknown"
)

// AccountType groups accounts within a classification.
type AccountType string

// AccountSubtype refines an AccountType.
type AccountSubtype string

const (
	TypeCurrentAsset       AccountType = "CurrentAsset"
	TypeBank               AccountType = "Bank"
	TypeAccountsReceivable AccountType = "AccountsReceivable"
	TypeFixedAsset         AccountType = "FixedAsset"
	TypeOtherAsset         AccountType = "OtherAsset"
	TypeAccountsPayable    AccountType = "AccountsPayable"
	TypeCreditCard         AccountType = "CreditCard"
	TypeCurrentLiability   AccountType = "CurrentLiability"
	TypeLongTermLiability  AccountType = "LongTermLiability"
	TypeEquity             AccountType = "Equity"
	TypeIncome             AccountType = "Income"
	TypeOtherIncome        AccountType = "OtherIncome"
	TypeCostOfGoodsSold    AccountType = "CostOfGoodsSold"
	TypeExpense            AccountType = "Expense"
	TypeOtherExpense       AccountType = "OtherExpense"
	TypeUnknown            AccountType = "Unknown"
)

const (
	SubtypeCash                    AccountSubtype = "Cash"
	SubtypeInventory               AccountSubtype = "Inventory"
	SubtypePrepaidExpenses         AccountSubtype = "PrepaidExpenses"
	SubtypeOtherCurrentAssets      AccountSubtype = "OtherCurrentAssets"
	SubtypeUndepositedFunds        AccountSubtype = "UndepositedFunds"
	SubtypeChecking                AccountSubtype = "Checking"
	SubtypeSavings                 AccountSubtype = "Savings"
	SubtypeCashOnHand              AccountSubtype = "CashOnHand"
	SubtypeMoneyMarket             AccountSubtype = "MoneyMarket"
	SubtypeAccountsReceivable      AccountSubtype = "AccountsReceivable"
	SubtypeBuildings               AccountSubtype = "Buildings"
	SubtypeFurnitureAndFixtures    AccountSubtype = "FurnitureAndFixtures"
	SubtypeMachineryAndEquipment   AccountSubtype = "MachineryAndEquipment"
	SubtypeVehicles                AccountSubtype = "Vehicles"
	SubtypeAccumulatedDepreciation AccountSubtype = "AccumulatedDepreciation"
	SubtypeLand                    AccountSubtype = "Land"
	SubtypeSecurityDeposits        AccountSubtype = "SecurityDeposits"
	SubtypeOtherLongTermAssets     AccountSubtype = "OtherLongTermAssets"
	SubtypeAccountsPayable         AccountSubtype = "AccountsPayable"
	SubtypeCreditCard              AccountSubtype = "CreditCard"
	SubtypeAccruedLiabilities      AccountSubtype = "AccruedLiabilities"
	SubtypePayrollLiabilities      AccountSubtype = "PayrollLiabilities"
	SubtypeSalesTaxPayable         AccountSubtype = "SalesTaxPayable"
	SubtypeOtherCurrentLiabilities AccountSubtype = "OtherCurrentLiabilities"
	SubtypeNotesPayable            AccountSubtype = "NotesPayable"
	SubtypeLongTermDebt            AccountSubtype = "LongTermDebt"
	SubtypeOpeningBalanceEquity    AccountSubtype = "OpeningBalanceEquity"
	SubtypeRetainedEarnings        AccountSubtype = "RetainedEarnings"
	SubtypeOwnersEquity            AccountSubtype = "OwnersEquity"
	SubtypeCommonStock             AccountSubtype = "CommonStock"
	SubtypeSalesOfProductIncome    AccountSubtype = "SalesOfProductIncome"
	SubtypeServiceFeeIncome        AccountSubtype = "ServiceFeeIncome"
	SubtypeDiscountsRefundsGiven   AccountSubtype = "DiscountsRefundsGiven"
	SubtypeInterestEarned          AccountSubtype = "InterestEarned"
	SubtypeOtherMiscIncome         AccountSubtype = "OtherMiscellaneousIncome"
	SubtypeSuppliesMaterialsCOGS   AccountSubtype = "SuppliesMaterialsCogs"
	SubtypeCostOfLaborCOGS         AccountSubtype = "CostOfLaborCogs"
	SubtypeShippingFreightCOGS     AccountSubtype = "ShippingFreightDeliveryCogs"
	SubtypeAdvertisingPromotional  AccountSubtype = "AdvertisingPromotional"
	SubtypeBankCharges             AccountSubtype = "BankCharges"
	SubtypeInsurance               AccountSubtype = "Insurance"
	SubtypeLegalProfessionalFees   AccountSubtype = "LegalProfessionalFees"
	SubtypeOfficeGeneralAdmin      AccountSubtype = "OfficeGeneralAdministrativeExpenses"
	SubtypePayrollExpenses         AccountSubtype = "PayrollExpenses"
	SubtypeRentOrLease             AccountSubtype = "RentOrLeaseOfBuildings"
	SubtypeUtilities               AccountSubtype = "Utilities"
	SubtypeDepreciation            AccountSubtype = "Depreciation"
	SubtypeExchangeGainOrLoss      AccountSubtype = "ExchangeGainOrLoss"
	SubtypeOtherMiscExpense        AccountSubtype = "OtherMiscellaneousExpense"
	SubtypeUnknown                 AccountSubtype = "Unknown"
)

// chart is the static classification -> type -> subtype table.
var chart = map[Classification]map[AccountType][]AccountSubtype{
	ClassificationAsset: {
		TypeCurrentAsset:       {SubtypeCash, SubtypeInventory, SubtypePrepaidExpenses, SubtypeOtherCurrentAssets, SubtypeUndepositedFunds},
		TypeBank:               {SubtypeChecking, SubtypeSavings, SubtypeCashOnHand, SubtypeMoneyMarket},
		TypeAccountsReceivable: {SubtypeAccountsReceivable},
		TypeFixedAsset:         {SubtypeBuildings, SubtypeFurnitureAndFixtures, SubtypeMachineryAndEquipment, SubtypeVehicles, SubtypeAccumulatedDepreciation, SubtypeLand},
		TypeOtherAsset:         {SubtypeSecurityDeposits, SubtypeOtherLongTermAssets},
	},
	ClassificationLiability: {
		TypeAccountsPayable:   {SubtypeAccountsPayable},
		TypeCreditCard:        {SubtypeCreditCard},
		TypeCurrentLiability:  {SubtypeAccruedLiabilities, SubtypePayrollLiabilities, SubtypeSalesTaxPayable, SubtypeOtherCurrentLiabilities},
		TypeLongTermLiability: {SubtypeNotesPayable, SubtypeLongTermDebt},
	},
	ClassificationEquity: {
		TypeEquity: {SubtypeOpeningBalanceEquity, SubtypeRetainedEarnings, SubtypeOwnersEquity, SubtypeCommonStock},
	},
	ClassificationIncome: {
		TypeIncome:      {SubtypeSalesOfProductIncome, SubtypeServiceFeeIncome, SubtypeDiscountsRefundsGiven},
		TypeOtherIncome: {SubtypeInterestEarned, SubtypeOtherMiscIncome},
	},
	ClassificationExpense: {
		TypeCostOfGoodsSold: {SubtypeSuppliesMaterialsCOGS, SubtypeCostOfLaborCOGS, SubtypeShippingFreightCOGS},
		TypeExpense: {
			SubtypeAdvertisingPromotional, SubtypeBankCharges, SubtypeInsurance, SubtypeLegalProfessionalFees,
			SubtypeOfficeGeneralAdmin, SubtypePayrollExpenses, SubtypeRentOrLease, SubtypeUtilities,
		},
		TypeOtherExpense: {SubtypeDepreciation, SubtypeExchangeGainOrLoss, SubtypeOtherMiscExpense},
	},
	ClassificationUnknown: {
		TypeUnknown: {SubtypeUnknown},
	},
}

// Valid reports whether c is a known classification.
func (c Classification) Valid() bool {
	_, ok := chart[c]
	return ok
}

// Types returns the legal account types for c in stable order.
func (c Classification) Types() []AccountType {
	types := make([]AccountType, 0, len(chart[c]))
	for t := range chart[c] {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Subtypes returns the legal subtypes of t under c.
func Subtypes(c Classification, t AccountType) []AccountSubtype {
	return append([]AccountSubtype(nil), chart[c][t]...)
}

// ValidateKind checks that the classification/type/subtype triple is legal.
func ValidateKind(c Classification, t AccountType, st AccountSubtype) error {
	types, ok := chart[c]
	if !ok {
		return shared.Validationf("unknown classification %q", c)
	}
	subtypes, ok := types[t]
	if !ok {
		return shared.Validationf("account type %q is not valid for classification %s", t, c)
	}
	for _, candidate := range subtypes {
		if candidate == st {
			return nil
		}
	}
	return shared.Validationf("account subtype %q is not valid for type %s", st, t)
}
