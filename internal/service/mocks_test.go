package service_test

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"event-registration-backend/internal/domain"
	"event-registration-backend/internal/gateway"
	"event-registration-backend/internal/service"
)

// MockUserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *MockUserRepo) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockEventRepo
type MockEventRepo struct {
	mock.Mock
}

func (m *MockEventRepo) Create(ctx context.Context, event *domain.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
func (m *MockEventRepo) GetByID(ctx context.Context, id int32) (*domain.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Event), args.Error(1)
}
func (m *MockEventRepo) GetByCode(ctx context.Context, code string) (*domain.Event, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Event), args.Error(1)
}
func (m *MockEventRepo) List(ctx context.Context, publicOnly bool) ([]domain.Event, error) {
	args := m.Called(ctx, publicOnly)
	return args.Get(0).([]domain.Event), args.Error(1)
}
func (m *MockEventRepo) Update(ctx context.Context, event *domain.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
func (m *MockEventRepo) CreateOption(ctx context.Context, option *domain.RegistrationOption) error {
	args := m.Called(ctx, option)
	return args.Error(0)
}
func (m *MockEventRepo) GetOption(ctx context.Context, id int32) (*domain.RegistrationOption, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RegistrationOption), args.Error(1)
}
func (m *MockEventRepo) GetOptions(ctx context.Context, ids []int32) ([]domain.RegistrationOption, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RegistrationOption), args.Error(1)
}
func (m *MockEventRepo) ListOptions(ctx context.Context, eventID int32) ([]domain.RegistrationOption, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).([]domain.RegistrationOption), args.Error(1)
}
func (m *MockEventRepo) ActiveRegistrationCount(ctx context.Context, eventID int32) (int32, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).(int32), args.Error(1)
}

// MockRegistrationRepo
type MockRegistrationRepo struct {
	mock.Mock
}

func (m *MockRegistrationRepo) Create(ctx context.Context, reg *domain.Registration) error {
	args := m.Called(ctx, reg)
	return args.Error(0)
}
func (m *MockRegistrationRepo) GetByID(ctx context.Context, id int32) (*domain.Registration, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Registration), args.Error(1)
}
func (m *MockRegistrationRepo) GetActiveByEventAndUser(ctx context.Context, eventID, userID int32) (*domain.Registration, error) {
	args := m.Called(ctx, eventID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Registration), args.Error(1)
}
func (m *MockRegistrationRepo) ListByEvent(ctx context.Context, eventID int32) ([]domain.Registration, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).([]domain.Registration), args.Error(1)
}
func (m *MockRegistrationRepo) ListByUser(ctx context.Context, userID int32) ([]domain.Registration, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Registration), args.Error(1)
}
func (m *MockRegistrationRepo) Update(ctx context.Context, reg *domain.Registration) error {
	args := m.Called(ctx, reg)
	return args.Error(0)
}

// MockPaymentRepo
type MockPaymentRepo struct {
	mock.Mock
}

func (m *MockPaymentRepo) Create(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}
func (m *MockPaymentRepo) CreateReplacing(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}
func (m *MockPaymentRepo) GetByID(ctx context.Context, id int32) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}
func (m *MockPaymentRepo) GetByIDs(ctx context.Context, ids []int32) ([]domain.Payment, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]domain.Payment), args.Error(1)
}
func (m *MockPaymentRepo) Update(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}
func (m *MockPaymentRepo) UpdateStatusIfCurrent(ctx context.Context, id int32, from, to domain.PaymentStatus, data *domain.PaymentData) error {
	args := m.Called(ctx, id, from, to, data)
	return args.Error(0)
}
func (m *MockPaymentRepo) ListStaleCreated(ctx context.Context, cutoff time.Time) ([]domain.Payment, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).([]domain.Payment), args.Error(1)
}
func (m *MockPaymentRepo) ListByStatus(ctx context.Context, statuses []domain.PaymentStatus) ([]domain.Payment, error) {
	args := m.Called(ctx, statuses)
	return args.Get(0).([]domain.Payment), args.Error(1)
}

// MockMembershipRepo
type MockMembershipRepo struct {
	mock.Mock
}

func (m *MockMembershipRepo) Create(ctx context.Context, ms *domain.Membership) error {
	args := m.Called(ctx, ms)
	return args.Error(0)
}
func (m *MockMembershipRepo) GetByID(ctx context.Context, id int32) (*domain.Membership, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Membership), args.Error(1)
}
func (m *MockMembershipRepo) GetByUser(ctx context.Context, userID int32) (*domain.Membership, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Membership), args.Error(1)
}
func (m *MockMembershipRepo) Update(ctx context.Context, ms *domain.Membership) error {
	args := m.Called(ctx, ms)
	return args.Error(0)
}

// MockDiscountRepo
type MockDiscountRepo struct {
	mock.Mock
}

func (m *MockDiscountRepo) GetCode(ctx context.Context, eventID int32, code string) (*domain.DiscountCode, error) {
	args := m.Called(ctx, eventID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DiscountCode), args.Error(1)
}
func (m *MockDiscountRepo) ListGroupDiscounts(ctx context.Context, eventID int32, groups []string) ([]domain.GroupDiscount, error) {
	args := m.Called(ctx, eventID, groups)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.GroupDiscount), args.Error(1)
}
func (m *MockDiscountRepo) CreateCode(ctx context.Context, c *domain.DiscountCode) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}
func (m *MockDiscountRepo) CreateGroupDiscount(ctx context.Context, g *domain.GroupDiscount) error {
	args := m.Called(ctx, g)
	return args.Error(0)
}

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendApplicationSubmitted(ctx context.Context, email, name, eventTitle string) error {
	args := m.Called(ctx, email, name, eventTitle)
	return args.Error(0)
}
func (m *MockEmailService) SendApplicationAccepted(ctx context.Context, email, name, eventTitle string, waitlisted bool) error {
	args := m.Called(ctx, email, name, eventTitle, waitlisted)
	return args.Error(0)
}
func (m *MockEmailService) SendRegistrationSuccess(ctx context.Context, email, name, eventTitle string) error {
	args := m.Called(ctx, email, name, eventTitle)
	return args.Error(0)
}
func (m *MockEmailService) SendInvoice(ctx context.Context, email, name, invoiceNo string, pdf []byte) error {
	args := m.Called(ctx, email, name, invoiceNo, pdf)
	return args.Error(0)
}
func (m *MockEmailService) SendReceipt(ctx context.Context, email, name, invoiceNo string, pdf []byte) error {
	args := m.Called(ctx, email, name, invoiceNo, pdf)
	return args.Error(0)
}
func (m *MockEmailService) SendCancellation(ctx context.Context, email, name, eventTitle string) error {
	args := m.Called(ctx, email, name, eventTitle)
	return args.Error(0)
}
func (m *MockEmailService) SendInvoiceReminder(ctx context.Context, email, name, invoiceNo, eventTitle string) error {
	args := m.Called(ctx, email, name, invoiceNo, eventTitle)
	return args.Error(0)
}

// MockGateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateIntent(ctx context.Context, amountMinor int64, currency domain.Currency, reference string, metadata map[string]string) (*gateway.Intent, error) {
	args := m.Called(ctx, amountMinor, currency, reference, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Intent), args.Error(1)
}
func (m *MockGateway) RetrieveIntent(ctx context.Context, id string) (*gateway.Intent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Intent), args.Error(1)
}

// MockRegistrationService (used by the payment lifecycle tests)
type MockRegistrationService struct {
	mock.Mock
}

func (m *MockRegistrationService) Register(ctx context.Context, userID int32, req service.RegisterRequest) (*domain.Registration, *domain.Payment, error) {
	args := m.Called(ctx, userID, req)
	reg, _ := args.Get(0).(*domain.Registration)
	payment, _ := args.Get(1).(*domain.Payment)
	return reg, payment, args.Error(2)
}
func (m *MockRegistrationService) GetOwn(ctx context.Context, userID int32, eventCode string) (*domain.Registration, error) {
	args := m.Called(ctx, userID, eventCode)
	reg, _ := args.Get(0).(*domain.Registration)
	return reg, args.Error(1)
}
func (m *MockRegistrationService) ListOwn(ctx context.Context, userID int32) ([]domain.Registration, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Registration), args.Error(1)
}
func (m *MockRegistrationService) DecideApplication(ctx context.Context, regID int32, decision domain.RegistrationStatus) (*domain.Registration, error) {
	args := m.Called(ctx, regID, decision)
	reg, _ := args.Get(0).(*domain.Registration)
	return reg, args.Error(1)
}
func (m *MockRegistrationService) SelectOption(ctx context.Context, userID, regID int32, req service.RegisterRequest) (*domain.Registration, *domain.Payment, error) {
	args := m.Called(ctx, userID, regID, req)
	reg, _ := args.Get(0).(*domain.Registration)
	payment, _ := args.Get(1).(*domain.Payment)
	return reg, payment, args.Error(2)
}
func (m *MockRegistrationService) Withdraw(ctx context.Context, userID, regID int32) error {
	args := m.Called(ctx, userID, regID)
	return args.Error(0)
}
func (m *MockRegistrationService) Cancel(ctx context.Context, regID int32) error {
	args := m.Called(ctx, regID)
	return args.Error(0)
}
func (m *MockRegistrationService) CompleteForPayment(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

// MockMembershipService
type MockMembershipService struct {
	mock.Mock
}

func (m *MockMembershipService) Apply(ctx context.Context, userID int32, mType domain.MembershipType, method domain.PaymentMethod, mailingList bool) (*domain.Membership, *domain.Payment, error) {
	args := m.Called(ctx, userID, mType, method, mailingList)
	ms, _ := args.Get(0).(*domain.Membership)
	payment, _ := args.Get(1).(*domain.Payment)
	return ms, payment, args.Error(2)
}
func (m *MockMembershipService) GetOwn(ctx context.Context, userID int32) (*domain.Membership, error) {
	args := m.Called(ctx, userID)
	ms, _ := args.Get(0).(*domain.Membership)
	return ms, args.Error(1)
}
func (m *MockMembershipService) CompleteForPayment(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}
func (m *MockMembershipService) Cost(mType domain.MembershipType) (decimal.Decimal, domain.Currency, error) {
	args := m.Called(mType)
	return args.Get(0).(decimal.Decimal), args.Get(1).(domain.Currency), args.Error(2)
}
