package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentCreated  PaymentStatus = "CREATED"
	PaymentIssued   PaymentStatus = "ISSUED"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentObsolete PaymentStatus = "OBSOLETE"
)

// PAID and OBSOLETE are terminal. A paid payment is never superseded because
// paid registrations cannot be edited, only cancelled and recreated.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentCreated:  {PaymentIssued, PaymentPaid, PaymentObsolete},
	PaymentIssued:   {PaymentPaid, PaymentObsolete},
	PaymentPaid:     {},
	PaymentObsolete: {},
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Live reports whether this payment counts against the at-most-one-live
// payment invariant of its registration or membership.
func (s PaymentStatus) Live() bool {
	return s != PaymentObsolete
}

type PaymentKind string

const (
	PaymentKindEvent      PaymentKind = "event"
	PaymentKindMembership PaymentKind = "membership"
)

type PaymentMethod string

const (
	PaymentMethodInvoice PaymentMethod = "INVOICE"
	PaymentMethodStripe  PaymentMethod = "STRIPE"
)

// Known reports whether the method is one of the closed set above. Request
// bodies carry the method as a free string, so it is checked before being
// frozen into payment data.
func (m PaymentMethod) Known() bool {
	return m == PaymentMethodInvoice || m == PaymentMethodStripe
}

// UserSnapshot freezes the payer identity at payment creation so historical
// invoices stay stable when the account is later edited.
type UserSnapshot struct {
	ID      int32  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

type EventSnapshot struct {
	ID    int32  `json:"id"`
	Code  string `json:"code"`
	Title string `json:"title"`
	// VATRate, the payment deadline and the payment-details text are frozen
	// here so documents and reminders render without re-reading the event.
	VATRate             *decimal.Decimal `json:"vat_rate,omitempty"`
	PaymentDeadlineDays int32            `json:"payment_deadline_days,omitempty"`
	PaymentDetails      string           `json:"payment_details,omitempty"`
}

type OptionSnapshot struct {
	ID    int32           `json:"id"`
	Item  string          `json:"item"`
	Price decimal.Decimal `json:"price"`
	AddOn bool            `json:"add_on"`
}

type MembershipSnapshot struct {
	Type      MembershipType `json:"type"`
	UntilYear int32          `json:"until_year"`
}

// PaymentData is the frozen snapshot behind an invoice or receipt. One of
// Event/Option or Membership is set, matching Kind.
type PaymentData struct {
	Kind     PaymentKind     `json:"kind"`
	Method   PaymentMethod   `json:"method"`
	Currency Currency        `json:"currency"`
	Price    decimal.Decimal `json:"price"`
	User     UserSnapshot    `json:"user"`

	RegistrationID int32               `json:"registration_id,omitempty"`
	MembershipID   int32               `json:"membership_id,omitempty"`
	Event          *EventSnapshot      `json:"event,omitempty"`
	Option         *OptionSnapshot     `json:"option,omitempty"`
	AddOns         []OptionSnapshot    `json:"add_ons,omitempty"`
	Membership     *MembershipSnapshot `json:"membership,omitempty"`

	Extra string `json:"extra,omitempty"`

	// ChargeInProgress holds the fee-inclusive amount (major units) stashed
	// between the charge-intent request and the gateway confirmation
	// callback. Both round-trips must agree on the amount; on confirmation
	// Price is overwritten from this field and it is cleared.
	ChargeInProgress *decimal.Decimal `json:"stripe_charge_in_progress,omitempty"`
}

func (d PaymentData) Value() (driver.Value, error) {
	return json.Marshal(d)
}

func (d *PaymentData) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	default:
		return fmt.Errorf("cannot scan %T into PaymentData", src)
	}
}

type Payment struct {
	ID        int32         `json:"id"`
	Status    PaymentStatus `json:"status"`
	InvoiceNo int32         `json:"invoice_no"`
	Data      PaymentData   `json:"data"`
	CreatedOn time.Time     `json:"created_on"`
	UpdatedOn time.Time     `json:"updated_on"`
}

// InvoiceNoFormatted renders the stored number in the document form
// #{2-digit-year}{4-digit-sequence}, e.g. #260001.
func (p *Payment) InvoiceNoFormatted() string {
	return fmt.Sprintf("#%06d", p.InvoiceNo)
}

// MakeInvoiceNo packs a creation year and a per-year sequence into the
// integer invoice number. Assigned once at creation, never reassigned.
func MakeInvoiceNo(year int, sequence int) int32 {
	return int32((year%100)*10000 + sequence)
}
