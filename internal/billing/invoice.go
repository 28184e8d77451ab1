// Package billing assembles invoice and receipt documents from a payment's
// frozen snapshot and renders them as PDF. Assembly is pure: everything a
// document shows comes from the payment data and the billing configuration,
// never from live event or user rows.
package billing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"event-registration-backend/internal/domain"
	"event-registration-backend/internal/pricing"
)

// Row is one printed line of the document table. Sub-item rows render
// indented under the preceding main row and carry no quantity.
type Row struct {
	Quantity    int32
	Description string
	SubItem     bool
	Amount      decimal.Decimal
}

// Document is a fully assembled invoice or receipt, ready for rendering.
type Document struct {
	Title     string
	InvoiceNo string
	Date      time.Time
	Paid      bool

	PayerName    string
	PayerAddress string

	RecipientName    string
	RecipientAddress string

	PaymentTerms   string
	PaymentDetails string

	Currency domain.Currency
	Rows     []Row
	// VATRate and VATAmount are zero-valued when the event carries no VAT.
	VATRate   *decimal.Decimal
	VATAmount decimal.Decimal
	Total     decimal.Decimal
}

// Config carries the issuer-side document fields.
type Config struct {
	RecipientName    string
	RecipientAddress string
	// BankDetails maps a currency to the wire-transfer instructions printed
	// on invoices payable in that currency.
	BankDetails map[domain.Currency]string
	// DeadlineDays backs the payment-terms line on unpaid invoices. An event
	// may override it with its own deadline.
	DeadlineDays int32
	// NoVATForCards drops the VAT line from card-method documents; card
	// charges are settled gross through the gateway.
	NoVATForCards bool
}

// BuildDocument assembles the invoice (unpaid) or receipt (paid) for a
// payment. An obsolete payment has no document.
func BuildDocument(p *domain.Payment, cfg Config, now time.Time) (*Document, error) {
	if p.Status == domain.PaymentObsolete {
		return nil, fmt.Errorf("payment %d is obsolete, no document to issue", p.ID)
	}

	doc := &Document{
		InvoiceNo:        p.InvoiceNoFormatted(),
		Date:             now,
		Paid:             p.Status == domain.PaymentPaid,
		PayerName:        p.Data.User.Name,
		PayerAddress:     p.Data.User.Address,
		RecipientName:    cfg.RecipientName,
		RecipientAddress: cfg.RecipientAddress,
		Currency:         p.Data.Currency,
		Total:            p.Data.Price,
	}
	if doc.Paid {
		doc.Title = "Receipt"
	} else {
		doc.Title = "Invoice"
	}

	switch p.Data.Kind {
	case domain.PaymentKindEvent:
		if err := appendEventRows(doc, &p.Data); err != nil {
			return nil, err
		}
	case domain.PaymentKindMembership:
		if p.Data.Membership == nil {
			return nil, fmt.Errorf("payment %d: membership payment without membership snapshot", p.ID)
		}
		doc.Rows = append(doc.Rows, Row{
			Quantity: 1,
			Description: fmt.Sprintf("%s membership through %d",
				membershipLabel(p.Data.Membership.Type), p.Data.Membership.UntilYear),
			Amount: p.Data.Price,
		})
	default:
		return nil, fmt.Errorf("payment %d: unknown payment kind %q", p.ID, p.Data.Kind)
	}

	if rate := eventVATRate(&p.Data); rate != nil {
		net := pricing.NetPrice(p.Data.Price, rate, p.Data.Method, cfg.NoVATForCards)
		if vat := p.Data.Price.Sub(net); vat.IsPositive() {
			doc.VATRate = rate
			doc.VATAmount = vat
		}
	}

	switch {
	case doc.Paid:
		doc.PaymentTerms = "Paid, no payment due."
	case p.Data.Method == domain.PaymentMethodStripe:
		doc.PaymentTerms = "Payable online by credit card."
	default:
		deadline := cfg.DeadlineDays
		if p.Data.Event != nil && p.Data.Event.PaymentDeadlineDays > 0 {
			deadline = p.Data.Event.PaymentDeadlineDays
		}
		doc.PaymentTerms = fmt.Sprintf("Payable by bank transfer within %d days.", deadline)
		doc.PaymentDetails = cfg.BankDetails[p.Data.Currency]
		if p.Data.Event != nil && p.Data.Event.PaymentDetails != "" {
			doc.PaymentDetails = p.Data.Event.PaymentDetails
		}
	}

	return doc, nil
}

func eventVATRate(data *domain.PaymentData) *decimal.Decimal {
	if data.Kind != domain.PaymentKindEvent || data.Event == nil {
		return nil
	}
	if rate := data.Event.VATRate; rate != nil && !rate.IsZero() {
		return rate
	}
	return nil
}

// appendEventRows lays out the option, its add-ons as sub-items and, when the
// snapshot prices sum above the agreed total, a closing discount row so the
// table still adds up to the amount charged.
func appendEventRows(doc *Document, data *domain.PaymentData) error {
	if data.Event == nil || data.Option == nil {
		return fmt.Errorf("event payment without event or option snapshot")
	}

	doc.Rows = append(doc.Rows, Row{
		Quantity:    1,
		Description: fmt.Sprintf("%s: %s", data.Event.Title, data.Option.Item),
		Amount:      data.Option.Price,
	})
	listed := data.Option.Price
	for _, a := range data.AddOns {
		doc.Rows = append(doc.Rows, Row{
			Description: a.Item,
			SubItem:     true,
			Amount:      a.Price,
		})
		listed = listed.Add(a.Price)
	}
	if discount := listed.Sub(data.Price); discount.IsPositive() {
		doc.Rows = append(doc.Rows, Row{Description: "Discount", Amount: discount.Neg()})
	}
	return nil
}

func membershipLabel(t domain.MembershipType) string {
	switch t {
	case domain.MembershipRegular:
		return "Regular"
	case domain.MembershipAcademic:
		return "Academic"
	case domain.MembershipBusiness:
		return "Business"
	default:
		return string(t)
	}
}
