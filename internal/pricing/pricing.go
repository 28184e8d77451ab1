// Package pricing computes the total payable for a registration: base option
// price plus add-ons, minus discount codes and group discounts, with VAT
// handling for the invoice path. Pure functions, no persistence.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"event-registration-backend/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// PriceForRegistration returns the amount payable and its currency.
//
// Discounts are applied in a fixed order: percentage discounts first, each
// evaluated against the current running total, then absolute discounts as
// flat amounts. A registration-only discount is computed against (and
// subtracted from) the running registration subtotal, leaving add-ons
// untouched. The result never goes below zero.
func PriceForRegistration(
	option domain.RegistrationOption,
	addOns []domain.RegistrationOption,
	discounts []domain.DiscountTerms,
) (decimal.Decimal, domain.Currency, error) {
	if option.Price.IsNegative() {
		return decimal.Zero, "", fmt.Errorf("option %q has negative price", option.Item)
	}

	regTotal := option.Price
	addOnTotal := decimal.Zero
	for _, a := range addOns {
		if a.Currency != option.Currency {
			return decimal.Zero, "", fmt.Errorf(
				"add-on %q is priced in %s, registration option in %s",
				a.Item, a.Currency, option.Currency)
		}
		addOnTotal = addOnTotal.Add(a.Price)
	}

	// Percentage discounts against the running totals.
	for _, d := range discounts {
		if d.Percentage == nil {
			continue
		}
		pct := decimal.NewFromInt32(*d.Percentage).Div(hundred)
		if d.OnlyRegistration {
			regTotal = regTotal.Sub(regTotal.Mul(pct))
		} else {
			cut := regTotal.Add(addOnTotal).Mul(pct)
			regTotal = regTotal.Sub(cut)
		}
	}

	// Absolute discounts as flat amounts afterwards. A registration-only
	// absolute discount cannot eat into the add-on subtotal.
	for _, d := range discounts {
		if d.Absolute == nil {
			continue
		}
		cut := *d.Absolute
		if d.OnlyRegistration && cut.GreaterThan(regTotal) {
			cut = regTotal
		}
		regTotal = regTotal.Sub(cut)
	}

	total := regTotal.Add(addOnTotal)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return total.Round(2), option.Currency, nil
}

// NetPrice strips the VAT component from a gross amount when the event
// defines a VAT rate and the chosen method is not the credit-card exempt
// path; otherwise the gross amount is returned unchanged. vatRate is a
// percentage, e.g. 7.7.
func NetPrice(
	gross decimal.Decimal,
	vatRate *decimal.Decimal,
	method domain.PaymentMethod,
	noVATForCreditCards bool,
) decimal.Decimal {
	if vatRate == nil || vatRate.IsZero() {
		return gross
	}
	if noVATForCreditCards && method == domain.PaymentMethodStripe {
		return gross
	}
	divisor := decimal.NewFromInt(1).Add(vatRate.Div(hundred))
	return gross.Div(divisor).Round(2)
}
