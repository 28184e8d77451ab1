// Package gateway wraps the card-payment provider behind a small interface so
// services and tests never touch the provider SDK directly.
package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"event-registration-backend/internal/domain"
)

// Intent is the provider-neutral view of a charge intent.
type Intent struct {
	ID           string
	ClientSecret string
	// AmountMinor is the fee-inclusive amount the card is charged, in minor
	// units.
	AmountMinor int64
	Currency    domain.Currency
	Succeeded   bool
	// Metadata round-trips the key/value pairs set at creation; confirmation
	// flows use it to tie an intent back to its payment.
	Metadata map[string]string
}

type PaymentGateway interface {
	// CreateIntent opens a charge intent for the fee-inclusive minor-unit
	// amount. The reference ends up on the cardholder statement.
	CreateIntent(ctx context.Context, amountMinor int64, currency domain.Currency, reference string, metadata map[string]string) (*Intent, error)
	// RetrieveIntent re-reads an intent; confirmation flows must not trust
	// client-reported state.
	RetrieveIntent(ctx context.Context, id string) (*Intent, error)
}

type stripeGateway struct {
	api *client.API
}

func NewStripeGateway(secretKey string) PaymentGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &stripeGateway{api: api}
}

func (g *stripeGateway) CreateIntent(ctx context.Context, amountMinor int64, currency domain.Currency, reference string, metadata map[string]string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(amountMinor),
		Currency:    stripe.String(strings.ToLower(string(currency))),
		Description: stripe.String(reference),
		Metadata:    metadata,
	}
	params.Context = ctx
	// A fresh idempotency key per attempt; retries of the same HTTP call are
	// deduplicated by Stripe itself.
	params.SetIdempotencyKey(uuid.NewString())

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return fromStripeIntent(pi), nil
}

func (g *stripeGateway) RetrieveIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := g.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve payment intent %s: %w", id, err)
	}
	return fromStripeIntent(pi), nil
}

func fromStripeIntent(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		AmountMinor:  pi.Amount,
		Currency:     domain.Currency(strings.ToUpper(string(pi.Currency))),
		Succeeded:    pi.Status == stripe.PaymentIntentStatusSucceeded,
		Metadata:     pi.Metadata,
	}
}
