package service

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"time"

	"event-registration-backend/internal/billing"
	"event-registration-backend/internal/domain"
	"event-registration-backend/internal/logger"
	"event-registration-backend/internal/repository"
)

type adminService struct {
	eventRepo   repository.EventRepository
	regRepo     repository.RegistrationRepository
	paymentRepo repository.PaymentRepository
	userRepo    repository.UserRepository
	payments    PaymentService
	emailSvc    EmailService
	billingCfg  billing.Config
}

func NewAdminService(
	eventRepo repository.EventRepository,
	regRepo repository.RegistrationRepository,
	paymentRepo repository.PaymentRepository,
	userRepo repository.UserRepository,
	payments PaymentService,
	emailSvc EmailService,
	billingCfg billing.Config,
) AdminService {
	return &adminService{
		eventRepo:   eventRepo,
		regRepo:     regRepo,
		paymentRepo: paymentRepo,
		userRepo:    userRepo,
		payments:    payments,
		emailSvc:    emailSvc,
		billingCfg:  billingCfg,
	}
}

func (s *adminService) ListRegistrations(ctx context.Context, eventCode string) ([]domain.Registration, error) {
	event, err := s.eventRepo.GetByCode(ctx, eventCode)
	if err != nil {
		return nil, err
	}
	return s.regRepo.ListByEvent(ctx, event.ID)
}

func (s *adminService) MarkInvoicesPaid(ctx context.Context, paymentIDs []int32) (*BulkResult, error) {
	payments, err := s.paymentRepo.GetByIDs(ctx, paymentIDs)
	if err != nil {
		return nil, err
	}

	result := &BulkResult{}
	for i := range payments {
		p := &payments[i]
		if !p.Status.CanTransitionTo(domain.PaymentPaid) {
			result.skip("payment %s is %s, not markable paid", p.InvoiceNoFormatted(), p.Status)
			continue
		}
		if _, err := s.payments.MarkPaid(ctx, p.ID); err != nil {
			result.skip("payment %s: %v", p.InvoiceNoFormatted(), err)
			continue
		}
		result.Processed++
	}
	return result, nil
}

func (s *adminService) EmailInvoices(ctx context.Context, paymentIDs []int32) (*BulkResult, error) {
	return s.emailDocuments(ctx, paymentIDs, func(status domain.PaymentStatus) bool {
		return status == domain.PaymentCreated || status == domain.PaymentIssued
	}, s.emailSvc.SendInvoice, "unpaid")
}

func (s *adminService) EmailReceipts(ctx context.Context, paymentIDs []int32) (*BulkResult, error) {
	return s.emailDocuments(ctx, paymentIDs, func(status domain.PaymentStatus) bool {
		return status == domain.PaymentPaid
	}, s.emailSvc.SendReceipt, "paid")
}

func (s *adminService) emailDocuments(
	ctx context.Context,
	paymentIDs []int32,
	eligible func(domain.PaymentStatus) bool,
	send func(ctx context.Context, email, name, invoiceNo string, pdf []byte) error,
	wanted string,
) (*BulkResult, error) {
	payments, err := s.paymentRepo.GetByIDs(ctx, paymentIDs)
	if err != nil {
		return nil, err
	}

	result := &BulkResult{}
	for i := range payments {
		p := &payments[i]
		if !eligible(p.Status) {
			result.skip("payment %s is %s, not %s", p.InvoiceNoFormatted(), p.Status, wanted)
			continue
		}
		user, err := s.userRepo.GetByID(ctx, p.Data.User.ID)
		if err != nil {
			result.skip("payment %s: payer lookup failed", p.InvoiceNoFormatted())
			continue
		}
		pdf, err := s.renderDocument(p)
		if err != nil {
			result.skip("payment %s: %v", p.InvoiceNoFormatted(), err)
			continue
		}
		if err := send(ctx, user.Email, user.Name, p.InvoiceNoFormatted(), pdf); err != nil {
			logger.Warn("bulk document email failed", "payment_id", p.ID, "error", err)
			result.skip("payment %s: email failed", p.InvoiceNoFormatted())
			continue
		}
		result.Processed++
	}
	return result, nil
}

func (s *adminService) DownloadDocuments(ctx context.Context, paymentIDs []int32) ([]byte, *BulkResult, error) {
	payments, err := s.paymentRepo.GetByIDs(ctx, paymentIDs)
	if err != nil {
		return nil, nil, err
	}

	result := &BulkResult{}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i := range payments {
		p := &payments[i]
		if p.Status == domain.PaymentObsolete {
			result.skip("payment %s is obsolete", p.InvoiceNoFormatted())
			continue
		}
		pdf, err := s.renderDocument(p)
		if err != nil {
			result.skip("payment %s: %v", p.InvoiceNoFormatted(), err)
			continue
		}
		kind := "invoice"
		if p.Status == domain.PaymentPaid {
			kind = "receipt"
		}
		w, err := zw.Create(fmt.Sprintf("%s_%06d.pdf", kind, p.InvoiceNo))
		if err != nil {
			zw.Close()
			return nil, nil, err
		}
		if _, err := w.Write(pdf); err != nil {
			zw.Close()
			return nil, nil, err
		}
		result.Processed++
	}
	if err := zw.Close(); err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), result, nil
}

func (s *adminService) renderDocument(p *domain.Payment) ([]byte, error) {
	doc, err := billing.BuildDocument(p, s.billingCfg, time.Now())
	if err != nil {
		return nil, err
	}
	return billing.RenderPDF(doc)
}

func (r *BulkResult) skip(format string, args ...any) {
	r.Skipped++
	r.Messages = append(r.Messages, fmt.Sprintf(format, args...))
}
