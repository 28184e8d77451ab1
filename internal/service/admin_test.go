package service_test

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"event-registration-backend/internal/billing"
	"event-registration-backend/internal/domain"
	"event-registration-backend/internal/service"
)

// MockPaymentService
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) GetOwn(ctx context.Context, userID, paymentID int32) (*domain.Payment, error) {
	args := m.Called(ctx, userID, paymentID)
	p, _ := args.Get(0).(*domain.Payment)
	return p, args.Error(1)
}
func (m *MockPaymentService) ProceedInvoice(ctx context.Context, userID, paymentID int32) (*domain.Payment, error) {
	args := m.Called(ctx, userID, paymentID)
	p, _ := args.Get(0).(*domain.Payment)
	return p, args.Error(1)
}
func (m *MockPaymentService) StartGatewayCheckout(ctx context.Context, userID, paymentID int32) (*domain.Payment, string, error) {
	args := m.Called(ctx, userID, paymentID)
	p, _ := args.Get(0).(*domain.Payment)
	return p, args.String(1), args.Error(2)
}
func (m *MockPaymentService) ConfirmGatewayPayment(ctx context.Context, userID, paymentID int32, intentID string) (*domain.Payment, error) {
	args := m.Called(ctx, userID, paymentID, intentID)
	p, _ := args.Get(0).(*domain.Payment)
	return p, args.Error(1)
}
func (m *MockPaymentService) MarkPaid(ctx context.Context, paymentID int32) (*domain.Payment, error) {
	args := m.Called(ctx, paymentID)
	p, _ := args.Get(0).(*domain.Payment)
	return p, args.Error(1)
}
func (m *MockPaymentService) InvoiceDocument(ctx context.Context, userID, paymentID int32) (string, []byte, error) {
	args := m.Called(ctx, userID, paymentID)
	pdf, _ := args.Get(1).([]byte)
	return args.String(0), pdf, args.Error(2)
}
func (m *MockPaymentService) SweepStale(ctx context.Context, ttl time.Duration) (int, error) {
	args := m.Called(ctx, ttl)
	return args.Int(0), args.Error(1)
}

type adminFixture struct {
	eventRepo   *MockEventRepo
	regRepo     *MockRegistrationRepo
	paymentRepo *MockPaymentRepo
	userRepo    *MockUserRepo
	payments    *MockPaymentService
	emailSvc    *MockEmailService
	svc         service.AdminService
}

func newAdminFixture() *adminFixture {
	f := &adminFixture{
		eventRepo:   new(MockEventRepo),
		regRepo:     new(MockRegistrationRepo),
		paymentRepo: new(MockPaymentRepo),
		userRepo:    new(MockUserRepo),
		payments:    new(MockPaymentService),
		emailSvc:    new(MockEmailService),
	}
	cfg := billing.Config{
		RecipientName: "Example Society",
		BankDetails:   map[domain.Currency]string{domain.CurrencyEUR: "IBAN DE00"},
		DeadlineDays:  30,
	}
	f.svc = service.NewAdminService(
		f.eventRepo, f.regRepo, f.paymentRepo, f.userRepo,
		f.payments, f.emailSvc, cfg)
	return f
}

func TestAdminService_MarkInvoicesPaid(t *testing.T) {
	f := newAdminFixture()
	ctx := context.Background()

	issued := eventPayment(domain.PaymentIssued, domain.PaymentMethodInvoice)
	paid := eventPayment(domain.PaymentPaid, domain.PaymentMethodInvoice)
	paid.ID = 8

	f.paymentRepo.On("GetByIDs", ctx, []int32{7, 8}).Return([]domain.Payment{*issued, *paid}, nil)
	f.payments.On("MarkPaid", ctx, int32(7)).Return(issued, nil)

	result, err := f.svc.MarkInvoicesPaid(ctx, []int32{7, 8})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Messages, 1)
	assert.Contains(t, result.Messages[0], "PAID")
	f.payments.AssertNotCalled(t, "MarkPaid", ctx, int32(8))
}

func TestAdminService_EmailReceipts_PaidOnly(t *testing.T) {
	f := newAdminFixture()
	ctx := context.Background()

	paid := eventPayment(domain.PaymentPaid, domain.PaymentMethodInvoice)
	created := eventPayment(domain.PaymentCreated, domain.PaymentMethodInvoice)
	created.ID = 8

	f.paymentRepo.On("GetByIDs", ctx, []int32{7, 8}).Return([]domain.Payment{*paid, *created}, nil)
	f.userRepo.On("GetByID", ctx, int32(3)).Return(testUser(), nil)
	f.emailSvc.On("SendReceipt", ctx, "ada@example.org", "Ada Example", "#260042", mock.AnythingOfType("[]uint8")).Return(nil)

	result, err := f.svc.EmailReceipts(ctx, []int32{7, 8})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Skipped)
	f.emailSvc.AssertNumberOfCalls(t, "SendReceipt", 1)
}

func TestAdminService_EmailInvoices_SkipsPaid(t *testing.T) {
	f := newAdminFixture()
	ctx := context.Background()

	issued := eventPayment(domain.PaymentIssued, domain.PaymentMethodInvoice)
	paid := eventPayment(domain.PaymentPaid, domain.PaymentMethodInvoice)
	paid.ID = 8

	f.paymentRepo.On("GetByIDs", ctx, []int32{7, 8}).Return([]domain.Payment{*issued, *paid}, nil)
	f.userRepo.On("GetByID", ctx, int32(3)).Return(testUser(), nil)
	f.emailSvc.On("SendInvoice", ctx, "ada@example.org", "Ada Example", "#260042", mock.AnythingOfType("[]uint8")).Return(nil)

	result, err := f.svc.EmailInvoices(ctx, []int32{7, 8})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Skipped)
}

func TestAdminService_DownloadDocuments(t *testing.T) {
	f := newAdminFixture()
	ctx := context.Background()

	issued := eventPayment(domain.PaymentIssued, domain.PaymentMethodInvoice)
	paid := eventPayment(domain.PaymentPaid, domain.PaymentMethodInvoice)
	paid.ID = 8
	paid.InvoiceNo = domain.MakeInvoiceNo(2026, 43)
	obsolete := eventPayment(domain.PaymentObsolete, domain.PaymentMethodInvoice)
	obsolete.ID = 9

	f.paymentRepo.On("GetByIDs", ctx, []int32{7, 8, 9}).
		Return([]domain.Payment{*issued, *paid, *obsolete}, nil)

	archive, result, err := f.svc.DownloadDocuments(ctx, []int32{7, 8, 9})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Skipped)

	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	require.NoError(t, err)
	names := make([]string, 0, len(zr.File))
	for _, file := range zr.File {
		names = append(names, file.Name)
	}
	assert.ElementsMatch(t, []string{"invoice_260042.pdf", "receipt_260043.pdf"}, names)
}
