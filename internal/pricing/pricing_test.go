package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"event-registration-backend/internal/domain"
)

func option(price string, currency domain.Currency) domain.RegistrationOption {
	return domain.RegistrationOption{
		Item:     "Conference ticket",
		Price:    decimal.RequireFromString(price),
		Currency: currency,
	}
}

func pctDiscount(pct int32, onlyRegistration bool) domain.DiscountTerms {
	return domain.DiscountTerms{OnlyRegistration: onlyRegistration, Percentage: &pct}
}

func absDiscount(amount string, onlyRegistration bool) domain.DiscountTerms {
	d := decimal.RequireFromString(amount)
	return domain.DiscountTerms{OnlyRegistration: onlyRegistration, Absolute: &d}
}

func TestPriceForRegistration(t *testing.T) {
	t.Run("No discounts", func(t *testing.T) {
		total, currency, err := PriceForRegistration(option("100", domain.CurrencyEUR), nil, nil)
		assert.NoError(t, err)
		assert.Equal(t, domain.CurrencyEUR, currency)
		assert.True(t, decimal.RequireFromString("100").Equal(total))
	})

	t.Run("Ten percent registration-only discount", func(t *testing.T) {
		total, _, err := PriceForRegistration(
			option("100", domain.CurrencyEUR), nil,
			[]domain.DiscountTerms{pctDiscount(10, true)})
		assert.NoError(t, err)
		assert.True(t, decimal.RequireFromString("90").Equal(total), "got %s", total)
	})

	t.Run("Registration-only discount leaves add-ons untouched", func(t *testing.T) {
		addOn := domain.RegistrationOption{
			Item: "Conference dinner", Price: decimal.RequireFromString("40"),
			Currency: domain.CurrencyEUR, AddOn: true,
		}
		total, _, err := PriceForRegistration(
			option("100", domain.CurrencyEUR),
			[]domain.RegistrationOption{addOn},
			[]domain.DiscountTerms{pctDiscount(50, true)})
		assert.NoError(t, err)
		// 50 + 40
		assert.True(t, decimal.RequireFromString("90").Equal(total), "got %s", total)
	})

	t.Run("Percentage evaluated before absolute", func(t *testing.T) {
		// Listed absolute-first to show ordering is fixed, not positional:
		// 100 -> 90 (10%) -> 70 (20 flat).
		total, _, err := PriceForRegistration(
			option("100", domain.CurrencyEUR), nil,
			[]domain.DiscountTerms{absDiscount("20", false), pctDiscount(10, false)})
		assert.NoError(t, err)
		assert.True(t, decimal.RequireFromString("70").Equal(total), "got %s", total)
	})

	t.Run("Stacked percentages compound against running total", func(t *testing.T) {
		// 100 -> 90 -> 81
		total, _, err := PriceForRegistration(
			option("100", domain.CurrencyEUR), nil,
			[]domain.DiscountTerms{pctDiscount(10, false), pctDiscount(10, false)})
		assert.NoError(t, err)
		assert.True(t, decimal.RequireFromString("81").Equal(total), "got %s", total)
	})

	t.Run("Floored at zero", func(t *testing.T) {
		total, _, err := PriceForRegistration(
			option("30", domain.CurrencyUSD), nil,
			[]domain.DiscountTerms{absDiscount("50", false)})
		assert.NoError(t, err)
		assert.True(t, total.IsZero(), "got %s", total)
	})

	t.Run("Registration-only absolute cannot eat add-ons", func(t *testing.T) {
		addOn := domain.RegistrationOption{
			Item: "Excursion", Price: decimal.RequireFromString("25"),
			Currency: domain.CurrencyCHF, AddOn: true,
		}
		total, _, err := PriceForRegistration(
			option("10", domain.CurrencyCHF),
			[]domain.RegistrationOption{addOn},
			[]domain.DiscountTerms{absDiscount("100", true)})
		assert.NoError(t, err)
		assert.True(t, decimal.RequireFromString("25").Equal(total), "got %s", total)
	})

	t.Run("Currency mismatch between option and add-on", func(t *testing.T) {
		addOn := domain.RegistrationOption{
			Item: "Dinner", Price: decimal.RequireFromString("40"),
			Currency: domain.CurrencyUSD, AddOn: true,
		}
		_, _, err := PriceForRegistration(
			option("100", domain.CurrencyEUR),
			[]domain.RegistrationOption{addOn}, nil)
		assert.Error(t, err)
	})
}

func TestNetPrice(t *testing.T) {
	rate := decimal.RequireFromString("7.7")

	t.Run("No VAT rate returns gross", func(t *testing.T) {
		gross := decimal.RequireFromString("107.70")
		assert.True(t, gross.Equal(NetPrice(gross, nil, domain.PaymentMethodInvoice, true)))
	})

	t.Run("Strips VAT on invoice path", func(t *testing.T) {
		gross := decimal.RequireFromString("107.70")
		net := NetPrice(gross, &rate, domain.PaymentMethodInvoice, true)
		assert.True(t, decimal.RequireFromString("100").Equal(net), "got %s", net)
	})

	t.Run("Credit-card exempt path keeps gross", func(t *testing.T) {
		gross := decimal.RequireFromString("107.70")
		net := NetPrice(gross, &rate, domain.PaymentMethodStripe, true)
		assert.True(t, gross.Equal(net))
	})

	t.Run("Card path without exemption strips VAT", func(t *testing.T) {
		gross := decimal.RequireFromString("107.70")
		net := NetPrice(gross, &rate, domain.PaymentMethodStripe, false)
		assert.True(t, decimal.RequireFromString("100").Equal(net), "got %s", net)
	})
}
