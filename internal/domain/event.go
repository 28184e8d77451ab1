package domain

import (
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 code. Only the currencies the payment gateway and
// the bank accounts support are accepted; validation lives in internal/money.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyCHF Currency = "CHF"
	CurrencyEUR Currency = "EUR"
	CurrencyCAD Currency = "CAD"
)

type Event struct {
	ID                int32  `json:"id"`
	Code              string `json:"code"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	Public            bool   `json:"public"`
	// Registration window, both ends inclusive.
	RegistrationOpen  time.Time `json:"registration_open"`
	RegistrationClose time.Time `json:"registration_close"`
	// 0 = no participant limit.
	MaxParticipants     int32            `json:"max_participants"`
	MembersOnly         bool             `json:"members_only"`
	CreditCards         bool             `json:"credit_cards"`
	Free                bool             `json:"free"`
	VATRate             *decimal.Decimal `json:"vat_rate,omitempty"`
	ApplicationForm     *string          `json:"application_form,omitempty"`
	PaymentDeadlineDays int32            `json:"payment_deadline_days"`
	PaymentDetails      string           `json:"payment_details"`
	CreatedOn           time.Time        `json:"created_on"`
	UpdatedOn           time.Time        `json:"updated_on"`
}

// RegistrationIsOpen reports whether the registration window contains the
// given day.
func (e *Event) RegistrationIsOpen(now time.Time) bool {
	day := now.Truncate(24 * time.Hour)
	if day.Before(e.RegistrationOpen.Truncate(24 * time.Hour)) {
		return false
	}
	if e.RegistrationClose.IsZero() {
		return true
	}
	return !day.After(e.RegistrationClose.Truncate(24 * time.Hour))
}

// RequiresApplication reports whether participants go through the
// staff-reviewed application step before they may pick an option.
func (e *Event) RequiresApplication() bool {
	return e.ApplicationForm != nil && *e.ApplicationForm != ""
}

type RegistrationOption struct {
	ID       int32           `json:"id"`
	EventID  int32           `json:"event_id"`
	Item     string          `json:"item"`
	Price    decimal.Decimal `json:"price"`
	Currency Currency        `json:"currency"`
	AddOn    bool            `json:"add_on"`
	// Some options bundle a society membership running until the given year.
	IncludesMembership bool  `json:"includes_membership"`
	MembershipEndYear  int32 `json:"membership_end_year,omitempty"`
}

const eventCodeAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewEventCode returns a short random code used in registration URLs.
func NewEventCode() string {
	b := make([]byte, 8)
	for i := range b {
		b[i] = eventCodeAlphabet[rand.Intn(len(eventCodeAlphabet))]
	}
	return string(b)
}
