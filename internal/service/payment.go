package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"event-registration-backend/internal/billing"
	"event-registration-backend/internal/domain"
	"event-registration-backend/internal/gateway"
	"event-registration-backend/internal/logger"
	"event-registration-backend/internal/money"
	"event-registration-backend/internal/repository"
)

type paymentService struct {
	paymentRepo   repository.PaymentRepository
	userRepo      repository.UserRepository
	gateway       gateway.PaymentGateway
	emailSvc      EmailService
	billingCfg    billing.Config
	registrations RegistrationService
	memberships   MembershipService
}

func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	userRepo repository.UserRepository,
	gw gateway.PaymentGateway,
	emailSvc EmailService,
	billingCfg billing.Config,
	registrations RegistrationService,
	memberships MembershipService,
) PaymentService {
	return &paymentService{
		paymentRepo:   paymentRepo,
		userRepo:      userRepo,
		gateway:       gw,
		emailSvc:      emailSvc,
		billingCfg:    billingCfg,
		registrations: registrations,
		memberships:   memberships,
	}
}

func (s *paymentService) GetOwn(ctx context.Context, userID, paymentID int32) (*domain.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Data.User.ID != userID {
		return nil, ErrUnauthorized
	}
	return payment, nil
}

func (s *paymentService) ProceedInvoice(ctx context.Context, userID, paymentID int32) (*domain.Payment, error) {
	payment, err := s.GetOwn(ctx, userID, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Data.Method != domain.PaymentMethodInvoice {
		return nil, fmt.Errorf("payment %d is not on the invoice path", paymentID)
	}
	if payment.Status != domain.PaymentCreated {
		return nil, fmt.Errorf("%w: invoice already issued or settled", ErrPaymentNotPending)
	}

	doc, err := billing.BuildDocument(payment, s.billingCfg, time.Now())
	if err != nil {
		return nil, err
	}
	pdf, err := billing.RenderPDF(doc)
	if err != nil {
		return nil, err
	}

	if err := s.paymentRepo.UpdateStatusIfCurrent(ctx, payment.ID, domain.PaymentCreated, domain.PaymentIssued, nil); err != nil {
		return nil, err
	}
	payment.Status = domain.PaymentIssued

	if user, userErr := s.userRepo.GetByID(ctx, userID); userErr == nil {
		if err := s.emailSvc.SendInvoice(ctx, user.Email, user.Name, payment.InvoiceNoFormatted(), pdf); err != nil {
			logger.Warn("invoice email failed", "payment_id", payment.ID, "error", err)
		}
	}
	return payment, nil
}

func (s *paymentService) StartGatewayCheckout(ctx context.Context, userID, paymentID int32) (*domain.Payment, string, error) {
	payment, err := s.GetOwn(ctx, userID, paymentID)
	if err != nil {
		return nil, "", err
	}
	if payment.Data.Method != domain.PaymentMethodStripe {
		return nil, "", fmt.Errorf("payment %d is not on the card path", paymentID)
	}
	if payment.Status != domain.PaymentCreated {
		return nil, "", fmt.Errorf("%w: checkout already completed or retired", ErrPaymentNotPending)
	}

	minor, err := money.ToMinorUnits(payment.Data.Price, payment.Data.Currency)
	if err != nil {
		return nil, "", err
	}
	chargeMinor, err := money.GatewayChargeAmount(minor, payment.Data.Currency)
	if err != nil {
		return nil, "", err
	}
	chargeMajor, err := money.FromMinorUnits(chargeMinor, payment.Data.Currency)
	if err != nil {
		return nil, "", err
	}

	intent, err := s.gateway.CreateIntent(ctx, chargeMinor, payment.Data.Currency,
		payment.InvoiceNoFormatted(), map[string]string{
			"payment_id": strconv.Itoa(int(payment.ID)),
			"user_id":    strconv.Itoa(int(userID)),
		})
	if err != nil {
		return nil, "", err
	}

	// Stash the fee-inclusive amount; the confirmation callback overwrites
	// the price from this field so both round-trips agree.
	payment.Data.ChargeInProgress = &chargeMajor
	if err := s.paymentRepo.Update(ctx, payment); err != nil {
		return nil, "", err
	}
	return payment, intent.ClientSecret, nil
}

func (s *paymentService) ConfirmGatewayPayment(ctx context.Context, userID, paymentID int32, intentID string) (*domain.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	// Ownership and status guards run against the stored snapshot, not the
	// caller's claims. Replays land here and are rejected as no-ops.
	if payment.Data.User.ID != userID {
		return nil, ErrUnauthorized
	}
	if payment.Status != domain.PaymentCreated {
		return nil, fmt.Errorf("%w: already processed", ErrPaymentNotPending)
	}
	if payment.Data.ChargeInProgress == nil {
		return nil, fmt.Errorf("%w: no checkout in progress", ErrPaymentNotPending)
	}

	intent, err := s.gateway.RetrieveIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	// The metadata set at intent creation binds the intent to one payment; a
	// succeeded intent of the same user cannot confirm a different payment.
	if intent.Metadata["payment_id"] != strconv.Itoa(int(payment.ID)) {
		return nil, fmt.Errorf("%w: intent %s was not created for payment %d",
			ErrPaymentNotPending, intentID, payment.ID)
	}
	if !intent.Succeeded {
		return nil, fmt.Errorf("gateway reports intent %s not settled", intentID)
	}

	data := payment.Data
	data.Price = *data.ChargeInProgress
	data.ChargeInProgress = nil

	if err := s.paymentRepo.UpdateStatusIfCurrent(ctx, payment.ID, domain.PaymentCreated, domain.PaymentPaid, &data); err != nil {
		return nil, err
	}
	payment.Status = domain.PaymentPaid
	payment.Data = data

	s.settle(ctx, payment)
	return payment, nil
}

func (s *paymentService) MarkPaid(ctx context.Context, paymentID int32) (*domain.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !payment.Status.CanTransitionTo(domain.PaymentPaid) {
		return nil, fmt.Errorf("%w: %s payment cannot be marked paid", ErrInvalidTransition, payment.Status)
	}
	if err := s.paymentRepo.UpdateStatusIfCurrent(ctx, payment.ID, payment.Status, domain.PaymentPaid, nil); err != nil {
		return nil, err
	}
	payment.Status = domain.PaymentPaid

	s.settle(ctx, payment)
	return payment, nil
}

// settle runs the side effects of a payment turning PAID: the owning
// registration or membership completes and the payer gets a receipt.
func (s *paymentService) settle(ctx context.Context, payment *domain.Payment) {
	switch payment.Data.Kind {
	case domain.PaymentKindEvent:
		if err := s.registrations.CompleteForPayment(ctx, payment); err != nil {
			logger.Error("registration completion after payment failed", "payment_id", payment.ID, "error", err)
		}
	case domain.PaymentKindMembership:
		if err := s.memberships.CompleteForPayment(ctx, payment); err != nil {
			logger.Error("membership completion after payment failed", "payment_id", payment.ID, "error", err)
		}
	}

	user, err := s.userRepo.GetByID(ctx, payment.Data.User.ID)
	if err != nil {
		logger.Warn("receipt email skipped, payer lookup failed", "payment_id", payment.ID, "error", err)
		return
	}
	doc, err := billing.BuildDocument(payment, s.billingCfg, time.Now())
	if err != nil {
		logger.Warn("receipt assembly failed", "payment_id", payment.ID, "error", err)
		return
	}
	pdf, err := billing.RenderPDF(doc)
	if err != nil {
		logger.Warn("receipt rendering failed", "payment_id", payment.ID, "error", err)
		return
	}
	if err := s.emailSvc.SendReceipt(ctx, user.Email, user.Name, payment.InvoiceNoFormatted(), pdf); err != nil {
		logger.Warn("receipt email failed", "payment_id", payment.ID, "error", err)
	}
}

func (s *paymentService) InvoiceDocument(ctx context.Context, userID, paymentID int32) (string, []byte, error) {
	payment, err := s.GetOwn(ctx, userID, paymentID)
	if err != nil {
		return "", nil, err
	}
	doc, err := billing.BuildDocument(payment, s.billingCfg, time.Now())
	if err != nil {
		return "", nil, err
	}
	pdf, err := billing.RenderPDF(doc)
	if err != nil {
		return "", nil, err
	}
	name := fmt.Sprintf("%s_%06d.pdf", doc.Title, payment.InvoiceNo)
	return name, pdf, nil
}

func (s *paymentService) SweepStale(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := time.Now().Add(-ttl)
	stale, err := s.paymentRepo.ListStaleCreated(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	swept := 0
	for i := range stale {
		p := &stale[i]
		if err := s.paymentRepo.UpdateStatusIfCurrent(ctx, p.ID, domain.PaymentCreated, domain.PaymentObsolete, nil); err != nil {
			logger.Warn("stale payment sweep skipped one", "payment_id", p.ID, "error", err)
			continue
		}
		swept++
	}
	return swept, nil
}
