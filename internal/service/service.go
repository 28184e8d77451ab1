package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"event-registration-backend/internal/domain"
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrRegistrationClosed = errors.New("registration is not open")
	ErrEventFull          = errors.New("event has reached its participant limit")
	ErrMembersOnly        = errors.New("event is open to members only")
	ErrAlreadyRegistered  = errors.New("an active registration already exists for this event")
	ErrPaidRegistration   = errors.New("a paid registration cannot be edited")
	ErrInvalidTransition  = errors.New("status transition not allowed")
	ErrPaymentNotPending  = errors.New("payment is not awaiting confirmation")
)

type AuthService interface {
	Signup(ctx context.Context, name, email, address, password string) (*domain.User, string, string, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, string, error)
	RefreshToken(ctx context.Context, refresh string) (string, string, error)
	GetUser(ctx context.Context, userID int32) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID int32, name, address string) (*domain.User, error)
}

type EventService interface {
	CreateEvent(ctx context.Context, event *domain.Event, options []domain.RegistrationOption) error
	GetEventByCode(ctx context.Context, code string) (*domain.Event, []domain.RegistrationOption, error)
	ListEvents(ctx context.Context, includePrivate bool) ([]domain.Event, error)
	UpdateEvent(ctx context.Context, event *domain.Event) error
	// CreateDiscountCode and CreateGroupDiscount attach discounts to an
	// event. Staff only.
	CreateDiscountCode(ctx context.Context, eventCode string, c *domain.DiscountCode) error
	CreateGroupDiscount(ctx context.Context, eventCode string, g *domain.GroupDiscount) error
}

// RegisterRequest is the user-supplied part of a registration attempt.
type RegisterRequest struct {
	EventCode         string
	OptionID          int32
	AddOnIDs          []int32
	DiscountCode      string
	PaymentMethod     domain.PaymentMethod
	ApplicationAnswer string
	SendUpdateEmails  bool
}

type RegistrationService interface {
	// Register creates the user's registration for an event and, for priced
	// options, the accompanying payment.
	Register(ctx context.Context, userID int32, req RegisterRequest) (*domain.Registration, *domain.Payment, error)
	GetOwn(ctx context.Context, userID int32, eventCode string) (*domain.Registration, error)
	ListOwn(ctx context.Context, userID int32) ([]domain.Registration, error)
	// DecideApplication moves a SUBMITTED registration to SELECTED, WAITLIST
	// or DECLINED. Staff only.
	DecideApplication(ctx context.Context, regID int32, decision domain.RegistrationStatus) (*domain.Registration, error)
	// SelectOption fixes the option and add-ons of a SELECTED registration
	// and opens the payment step.
	SelectOption(ctx context.Context, userID, regID int32, req RegisterRequest) (*domain.Registration, *domain.Payment, error)
	// Withdraw is the participant leaving; Cancel is staff removing.
	Withdraw(ctx context.Context, userID, regID int32) error
	Cancel(ctx context.Context, regID int32) error
	// CompleteForPayment moves the registration owning the paid payment to
	// REGISTERED. Driven by the payment lifecycle.
	CompleteForPayment(ctx context.Context, payment *domain.Payment) error
}

type PaymentService interface {
	GetOwn(ctx context.Context, userID, paymentID int32) (*domain.Payment, error)
	// ProceedInvoice renders the invoice, emails it and marks the payment
	// ISSUED.
	ProceedInvoice(ctx context.Context, userID, paymentID int32) (*domain.Payment, error)
	// StartGatewayCheckout opens a charge intent for the fee-inclusive
	// amount and stashes it on the payment for the confirmation round-trip.
	StartGatewayCheckout(ctx context.Context, userID, paymentID int32) (*domain.Payment, string, error)
	// ConfirmGatewayPayment is the success-callback handler. Replays and
	// foreign callers are rejected without touching the row.
	ConfirmGatewayPayment(ctx context.Context, userID, paymentID int32, intentID string) (*domain.Payment, error)
	// MarkPaid is the staff path for bank-transfer invoices.
	MarkPaid(ctx context.Context, paymentID int32) (*domain.Payment, error)
	// InvoiceDocument renders the current invoice or receipt PDF.
	InvoiceDocument(ctx context.Context, userID, paymentID int32) (string, []byte, error)
	// SweepStale obsoletes CREATED payments untouched since the TTL.
	SweepStale(ctx context.Context, ttl time.Duration) (int, error)
}

type MembershipService interface {
	// Apply starts (or renews) a membership and creates its payment; a zero
	// cost activates immediately.
	Apply(ctx context.Context, userID int32, mType domain.MembershipType, method domain.PaymentMethod, mailingList bool) (*domain.Membership, *domain.Payment, error)
	GetOwn(ctx context.Context, userID int32) (*domain.Membership, error)
	// CompleteForPayment extends the membership once its payment is PAID.
	CompleteForPayment(ctx context.Context, payment *domain.Payment) error
	// Cost returns the configured yearly price for a membership type.
	Cost(mType domain.MembershipType) (decimal.Decimal, domain.Currency, error)
}

// BulkResult reports what a bulk admin action touched and what it skipped.
type BulkResult struct {
	Processed int      `json:"processed"`
	Skipped   int      `json:"skipped"`
	Messages  []string `json:"messages,omitempty"`
}

type AdminService interface {
	ListRegistrations(ctx context.Context, eventCode string) ([]domain.Registration, error)
	MarkInvoicesPaid(ctx context.Context, paymentIDs []int32) (*BulkResult, error)
	// EmailInvoices sends invoice PDFs for CREATED and ISSUED payments;
	// others are skipped with a message.
	EmailInvoices(ctx context.Context, paymentIDs []int32) (*BulkResult, error)
	// EmailReceipts sends receipt PDFs for PAID payments only.
	EmailReceipts(ctx context.Context, paymentIDs []int32) (*BulkResult, error)
	// DownloadDocuments bundles the PDFs of the given payments into a zip.
	DownloadDocuments(ctx context.Context, paymentIDs []int32) ([]byte, *BulkResult, error)
}

type EmailService interface {
	SendApplicationSubmitted(ctx context.Context, email, name, eventTitle string) error
	SendApplicationAccepted(ctx context.Context, email, name, eventTitle string, waitlisted bool) error
	SendRegistrationSuccess(ctx context.Context, email, name, eventTitle string) error
	SendInvoice(ctx context.Context, email, name, invoiceNo string, pdf []byte) error
	SendReceipt(ctx context.Context, email, name, invoiceNo string, pdf []byte) error
	SendCancellation(ctx context.Context, email, name, eventTitle string) error
	SendInvoiceReminder(ctx context.Context, email, name, invoiceNo, eventTitle string) error
}
