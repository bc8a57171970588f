package taxonomy

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/ledger/internal/shared"
)

// NormalizeCurrency upper-cases code and checks it against the ISO 4217 registry.
func NormalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "", shared.Validationf("currency required")
	}
	if money.GetCurrency(code) == nil {
		return "", shared.Validationf("unknown currency %q", code)
	}
	return code, nil
}

// Fraction returns the number of minor-unit digits for code; unknown codes default to 2.
func Fraction(code string) int {
	if cur := money.GetCurrency(code); cur != nil {
		return cur.Fraction
	}
	return 2
}

// MajorUnits converts a minor-unit amount into its decimal major-unit value.
func MajorUnits(amount int64, code string) decimal.Decimal {
	return decimal.New(amount, -int32(Fraction(code)))
}

// FormatAmount renders a minor-unit amount with the currency's symbol and grouping.
func FormatAmount(amount int64, code string) string {
	return money.New(amount, code).Display()
}
