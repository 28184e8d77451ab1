// Package money converts between major-unit decimal amounts and the payment
// gateway's integer minor units, and computes the gateway's fee-inclusive
// charge amounts per currency. All functions are pure and reject unsupported
// currencies instead of defaulting.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"

	"event-registration-backend/internal/domain"
)

// ErrUnsupportedCurrency is returned for any currency outside the supported
// set. Callers must treat it as a fatal input-validation error.
type ErrUnsupportedCurrency struct {
	Currency domain.Currency
}

func (e ErrUnsupportedCurrency) Error() string {
	return fmt.Sprintf("unsupported currency %q", string(e.Currency))
}

// feeSchedule models what the gateway actually debits: a fixed surcharge in
// minor units plus a percentage, so the card is charged enough to net the
// intended amount after the gateway's cut.
type feeSchedule struct {
	fixed decimal.Decimal
	rate  decimal.Decimal
}

var feeSchedules = map[domain.Currency]feeSchedule{
	domain.CurrencyUSD: {fixed: decimal.NewFromInt(30), rate: decimal.NewFromFloat(0.039)},
	domain.CurrencyCHF: {fixed: decimal.NewFromInt(30), rate: decimal.NewFromFloat(0.039)},
	domain.CurrencyCAD: {fixed: decimal.NewFromInt(30), rate: decimal.NewFromFloat(0.039)},
	domain.CurrencyEUR: {fixed: decimal.NewFromInt(25), rate: decimal.NewFromFloat(0.015)},
}

var hundred = decimal.NewFromInt(100)

// Supported reports whether the currency is in the supported set.
func Supported(c domain.Currency) bool {
	_, ok := feeSchedules[c]
	return ok
}

// ToMinorUnits converts a major-unit amount to the gateway's integer minor
// units (cents, centimes). Every supported currency scales by 100.
func ToMinorUnits(amount decimal.Decimal, c domain.Currency) (int64, error) {
	if !Supported(c) {
		return 0, ErrUnsupportedCurrency{Currency: c}
	}
	return amount.Mul(hundred).Round(0).IntPart(), nil
}

// FromMinorUnits is the inverse scaling of ToMinorUnits. It does not invert
// the fee schedule; it only moves the decimal point for display.
func FromMinorUnits(minor int64, c domain.Currency) (decimal.Decimal, error) {
	if !Supported(c) {
		return decimal.Decimal{}, ErrUnsupportedCurrency{Currency: c}
	}
	return decimal.NewFromInt(minor).Div(hundred).Round(2), nil
}

// GatewayChargeAmount returns the minor-unit amount the gateway must debit so
// the intended minor-unit amount is netted after its fixed surcharge and
// percentage fee, rounded to the nearest minor unit.
func GatewayChargeAmount(minor int64, c domain.Currency) (int64, error) {
	fees, ok := feeSchedules[c]
	if !ok {
		return 0, ErrUnsupportedCurrency{Currency: c}
	}
	amount := decimal.NewFromInt(minor)
	charge := fees.fixed.Add(amount.Add(amount.Mul(fees.rate)))
	return charge.Round(0).IntPart(), nil
}
