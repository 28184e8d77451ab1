package service_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"event-registration-backend/internal/domain"
	"event-registration-backend/internal/repository"
	"event-registration-backend/internal/service"
)

type registrationFixture struct {
	eventRepo      *MockEventRepo
	regRepo        *MockRegistrationRepo
	paymentRepo    *MockPaymentRepo
	membershipRepo *MockMembershipRepo
	discountRepo   *MockDiscountRepo
	userRepo       *MockUserRepo
	emailSvc       *MockEmailService
	svc            service.RegistrationService
}

func newRegistrationFixture() *registrationFixture {
	f := &registrationFixture{
		eventRepo:      new(MockEventRepo),
		regRepo:        new(MockRegistrationRepo),
		paymentRepo:    new(MockPaymentRepo),
		membershipRepo: new(MockMembershipRepo),
		discountRepo:   new(MockDiscountRepo),
		userRepo:       new(MockUserRepo),
		emailSvc:       new(MockEmailService),
	}
	f.svc = service.NewRegistrationService(
		f.eventRepo, f.regRepo, f.paymentRepo, f.membershipRepo,
		f.discountRepo, f.userRepo, f.emailSvc)
	return f
}

func openEvent() *domain.Event {
	return &domain.Event{
		ID:                5,
		Code:              "spring26",
		Title:             "Spring Conference",
		Public:            true,
		RegistrationOpen:  time.Now().Add(-24 * time.Hour),
		RegistrationClose: time.Now().Add(24 * time.Hour),
	}
}

func testUser() *domain.User {
	return &domain.User{ID: 3, Email: "ada@example.org", Name: "Ada Example", Address: "1 Example Lane"}
}

func TestRegistrationService_Register_FreeEvent(t *testing.T) {
	f := newRegistrationFixture()
	ctx := context.Background()

	event := openEvent()
	event.Free = true

	f.eventRepo.On("GetByCode", ctx, "spring26").Return(event, nil)
	f.userRepo.On("GetByID", ctx, int32(3)).Return(testUser(), nil)
	f.regRepo.On("GetActiveByEventAndUser", ctx, int32(5), int32(3)).Return(nil, sql.ErrNoRows)
	f.regRepo.On("Create", ctx, mock.AnythingOfType("*domain.Registration")).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Registration).ID = 11
	}).Return(nil)
	f.emailSvc.On("SendRegistrationSuccess", ctx, "ada@example.org", "Ada Example", "Spring Conference").Return(nil)

	reg, payment, err := f.svc.Register(ctx, 3, service.RegisterRequest{EventCode: "spring26"})
	require.NoError(t, err)
	assert.Nil(t, payment)
	assert.Equal(t, domain.RegistrationRegistered, reg.Status)
	f.emailSvc.AssertExpectations(t)
}

func TestRegistrationService_Register_PaidWithDiscount(t *testing.T) {
	f := newRegistrationFixture()
	ctx := context.Background()

	event := openEvent()
	option := &domain.RegistrationOption{
		ID: 1, EventID: 5, Item: "Full ticket",
		Price: decimal.RequireFromString("100"), Currency: domain.CurrencyEUR,
	}
	pct := int32(10)

	f.eventRepo.On("GetByCode", ctx, "spring26").Return(event, nil)
	f.userRepo.On("GetByID", ctx, int32(3)).Return(testUser(), nil)
	f.regRepo.On("GetActiveByEventAndUser", ctx, int32(5), int32(3)).Return(nil, sql.ErrNoRows)
	f.eventRepo.On("GetOption", ctx, int32(1)).Return(option, nil)
	f.discountRepo.On("GetCode", ctx, int32(5), "EARLY10").Return(&domain.DiscountCode{
		ID: 9, EventID: 5, Code: "EARLY10",
		DiscountTerms: domain.DiscountTerms{OnlyRegistration: true, Percentage: &pct},
	}, nil)
	f.membershipRepo.On("GetByUser", ctx, int32(3)).Return(nil, sql.ErrNoRows)
	f.regRepo.On("Create", ctx, mock.AnythingOfType("*domain.Registration")).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Registration).ID = 11
	}).Return(nil)
	f.paymentRepo.On("CreateReplacing", ctx, mock.AnythingOfType("*domain.Payment")).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Payment).ID = 7
	}).Return(nil)
	f.regRepo.On("Update", ctx, mock.AnythingOfType("*domain.Registration")).Return(nil)

	reg, payment, err := f.svc.Register(ctx, 3, service.RegisterRequest{
		EventCode:     "spring26",
		OptionID:      1,
		DiscountCode:  "EARLY10",
		PaymentMethod: domain.PaymentMethodInvoice,
	})
	require.NoError(t, err)
	require.NotNil(t, payment)
	assert.Equal(t, domain.RegistrationPaymentPending, reg.Status)
	assert.Equal(t, domain.PaymentCreated, payment.Status)
	assert.True(t, decimal.RequireFromString("90").Equal(payment.Data.Price), "got %s", payment.Data.Price)
	assert.Equal(t, int32(3), payment.Data.User.ID)
	assert.Equal(t, int32(11), payment.Data.RegistrationID)
	require.NotNil(t, reg.PaymentID)
	assert.Equal(t, int32(7), *reg.PaymentID)
}

func TestRegistrationService_Register_ZeroTotalCompletesWithoutPayment(t *testing.T) {
	f := newRegistrationFixture()
	ctx := context.Background()

	event := openEvent()
	option := &domain.RegistrationOption{
		ID: 2, EventID: 5, Item: "Volunteer ticket",
		Price: decimal.Zero, Currency: domain.CurrencyEUR,
	}

	f.eventRepo.On("GetByCode", ctx, "spring26").Return(event, nil)
	f.userRepo.On("GetByID", ctx, int32(3)).Return(testUser(), nil)
	f.regRepo.On("GetActiveByEventAndUser", ctx, int32(5), int32(3)).Return(nil, sql.ErrNoRows)
	f.eventRepo.On("GetOption", ctx, int32(2)).Return(option, nil)
	f.membershipRepo.On("GetByUser", ctx, int32(3)).Return(nil, sql.ErrNoRows)
	f.regRepo.On("Create", ctx, mock.AnythingOfType("*domain.Registration")).Return(nil)
	f.emailSvc.On("SendRegistrationSuccess", ctx, "ada@example.org", "Ada Example", "Spring Conference").Return(nil)

	reg, payment, err := f.svc.Register(ctx, 3, service.RegisterRequest{EventCode: "spring26", OptionID: 2})
	require.NoError(t, err)
	assert.Nil(t, payment)
	assert.Equal(t, domain.RegistrationRegistered, reg.Status)
	f.paymentRepo.AssertNotCalled(t, "CreateReplacing", mock.Anything, mock.Anything)
}

func TestRegistrationService_Register_Guards(t *testing.T) {
	ctx := context.Background()

	t.Run("Window closed", func(t *testing.T) {
		f := newRegistrationFixture()
		event := openEvent()
		event.RegistrationClose = time.Now().Add(-48 * time.Hour)
		event.RegistrationOpen = time.Now().Add(-96 * time.Hour)

		f.eventRepo.On("GetByCode", ctx, "spring26").Return(event, nil)
		f.userRepo.On("GetByID", ctx, int32(3)).Return(testUser(), nil)

		_, _, err := f.svc.Register(ctx, 3, service.RegisterRequest{EventCode: "spring26"})
		assert.ErrorIs(t, err, service.ErrRegistrationClosed)
	})

	t.Run("Event full", func(t *testing.T) {
		f := newRegistrationFixture()
		event := openEvent()
		event.MaxParticipants = 2

		f.eventRepo.On("GetByCode", ctx, "spring26").Return(event, nil)
		f.userRepo.On("GetByID", ctx, int32(3)).Return(testUser(), nil)
		f.regRepo.On("GetActiveByEventAndUser", ctx, int32(5), int32(3)).Return(nil, sql.ErrNoRows)
		f.eventRepo.On("ActiveRegistrationCount", ctx, int32(5)).Return(int32(2), nil)

		_, _, err := f.svc.Register(ctx, 3, service.RegisterRequest{EventCode: "spring26"})
		assert.ErrorIs(t, err, service.ErrEventFull)
	})

	t.Run("Duplicate active registration", func(t *testing.T) {
		f := newRegistrationFixture()
		f.eventRepo.On("GetByCode", ctx, "spring26").Return(openEvent(), nil)
		f.userRepo.On("GetByID", ctx, int32(3)).Return(testUser(), nil)
		f.regRepo.On("GetActiveByEventAndUser", ctx, int32(5), int32(3)).
			Return(&domain.Registration{ID: 11, Status: domain.RegistrationRegistered}, nil)

		_, _, err := f.svc.Register(ctx, 3, service.RegisterRequest{EventCode: "spring26"})
		assert.ErrorIs(t, err, service.ErrAlreadyRegistered)
	})

	t.Run("Concurrent duplicate loses at the index", func(t *testing.T) {
		f := newRegistrationFixture()
		event := openEvent()
		event.Free = true

		f.eventRepo.On("GetByCode", ctx, "spring26").Return(event, nil)
		f.userRepo.On("GetByID", ctx, int32(3)).Return(testUser(), nil)
		f.regRepo.On("GetActiveByEventAndUser", ctx, int32(5), int32(3)).Return(nil, sql.ErrNoRows)
		f.regRepo.On("Create", ctx, mock.AnythingOfType("*domain.Registration")).
			Return(repository.ErrDuplicateActive)

		_, _, err := f.svc.Register(ctx, 3, service.RegisterRequest{EventCode: "spring26"})
		assert.ErrorIs(t, err, service.ErrAlreadyRegistered)
	})

	t.Run("Unknown payment method", func(t *testing.T) {
		f := newRegistrationFixture()
		option := &domain.RegistrationOption{
			ID: 1, EventID: 5, Item: "Full ticket",
			Price: decimal.RequireFromString("100"), Currency: domain.CurrencyEUR,
		}

		f.eventRepo.On("GetByCode", ctx, "spring26").Return(openEvent(), nil)
		f.userRepo.On("GetByID", ctx, int32(3)).Return(testUser(), nil)
		f.regRepo.On("GetActiveByEventAndUser", ctx, int32(5), int32(3)).Return(nil, sql.ErrNoRows)
		f.eventRepo.On("GetOption", ctx, int32(1)).Return(option, nil)
		f.membershipRepo.On("GetByUser", ctx, int32(3)).Return(nil, sql.ErrNoRows)

		_, _, err := f.svc.Register(ctx, 3, service.RegisterRequest{
			EventCode: "spring26", OptionID: 1, PaymentMethod: "BARTER",
		})
		assert.ErrorContains(t, err, "unknown payment method")
		f.paymentRepo.AssertNotCalled(t, "CreateReplacing", mock.Anything, mock.Anything)
	})

	t.Run("Card payment on an event without card support", func(t *testing.T) {
		f := newRegistrationFixture()
		option := &domain.RegistrationOption{
			ID: 1, EventID: 5, Item: "Full ticket",
			Price: decimal.RequireFromString("100"), Currency: domain.CurrencyEUR,
		}

		f.eventRepo.On("GetByCode", ctx, "spring26").Return(openEvent(), nil)
		f.userRepo.On("GetByID", ctx, int32(3)).Return(testUser(), nil)
		f.regRepo.On("GetActiveByEventAndUser", ctx, int32(5), int32(3)).Return(nil, sql.ErrNoRows)
		f.eventRepo.On("GetOption", ctx, int32(1)).Return(option, nil)
		f.membershipRepo.On("GetByUser", ctx, int32(3)).Return(nil, sql.ErrNoRows)

		_, _, err := f.svc.Register(ctx, 3, service.RegisterRequest{
			EventCode: "spring26", OptionID: 1, PaymentMethod: domain.PaymentMethodStripe,
		})
		assert.ErrorContains(t, err, "does not take credit card payments")
		f.paymentRepo.AssertNotCalled(t, "CreateReplacing", mock.Anything, mock.Anything)
	})

	t.Run("Members only", func(t *testing.T) {
		f := newRegistrationFixture()
		event := openEvent()
		event.MembersOnly = true

		f.eventRepo.On("GetByCode", ctx, "spring26").Return(event, nil)
		f.userRepo.On("GetByID", ctx, int32(3)).Return(testUser(), nil)
		f.membershipRepo.On("GetByUser", ctx, int32(3)).Return(nil, sql.ErrNoRows)

		_, _, err := f.svc.Register(ctx, 3, service.RegisterRequest{EventCode: "spring26"})
		assert.ErrorIs(t, err, service.ErrMembersOnly)
	})
}

func TestRegistrationService_ApplicationFlow(t *testing.T) {
	f := newRegistrationFixture()
	ctx := context.Background()

	form := "Why do you want to attend?"
	event := openEvent()
	event.ApplicationForm = &form

	f.eventRepo.On("GetByCode", ctx, "spring26").Return(event, nil)
	f.userRepo.On("GetByID", ctx, int32(3)).Return(testUser(), nil)
	f.regRepo.On("GetActiveByEventAndUser", ctx, int32(5), int32(3)).Return(nil, sql.ErrNoRows)
	f.regRepo.On("Create", ctx, mock.AnythingOfType("*domain.Registration")).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Registration).ID = 11
	}).Return(nil)
	f.emailSvc.On("SendApplicationSubmitted", ctx, "ada@example.org", "Ada Example", "Spring Conference").Return(nil)

	reg, payment, err := f.svc.Register(ctx, 3, service.RegisterRequest{
		EventCode:         "spring26",
		ApplicationAnswer: "Because of the talks.",
	})
	require.NoError(t, err)
	assert.Nil(t, payment)
	assert.Equal(t, domain.RegistrationSubmitted, reg.Status)

	t.Run("Staff selects the applicant", func(t *testing.T) {
		f.regRepo.On("GetByID", ctx, int32(11)).Return(reg, nil)
		f.regRepo.On("Update", ctx, reg).Return(nil)
		f.eventRepo.On("GetByID", ctx, int32(5)).Return(event, nil)
		f.emailSvc.On("SendApplicationAccepted", ctx, "ada@example.org", "Ada Example", "Spring Conference", false).Return(nil)

		updated, err := f.svc.DecideApplication(ctx, 11, domain.RegistrationSelected)
		require.NoError(t, err)
		assert.Equal(t, domain.RegistrationSelected, updated.Status)
	})

	t.Run("Registered is not an application decision", func(t *testing.T) {
		_, err := f.svc.DecideApplication(ctx, 11, domain.RegistrationRegistered)
		assert.ErrorIs(t, err, service.ErrInvalidTransition)
	})
}

func TestRegistrationService_Withdraw(t *testing.T) {
	ctx := context.Background()

	t.Run("Retires the unpaid payment", func(t *testing.T) {
		f := newRegistrationFixture()
		paymentID := int32(7)
		reg := &domain.Registration{
			ID: 11, EventID: 5, UserID: 3,
			Status: domain.RegistrationPaymentPending, PaymentID: &paymentID,
		}

		f.regRepo.On("GetByID", ctx, int32(11)).Return(reg, nil)
		f.regRepo.On("Update", ctx, reg).Return(nil)
		f.paymentRepo.On("GetByID", ctx, paymentID).
			Return(&domain.Payment{ID: paymentID, Status: domain.PaymentIssued}, nil)
		f.paymentRepo.On("UpdateStatusIfCurrent", ctx, paymentID, domain.PaymentIssued, domain.PaymentObsolete, (*domain.PaymentData)(nil)).Return(nil)
		f.userRepo.On("GetByID", ctx, int32(3)).Return(testUser(), nil)
		f.eventRepo.On("GetByID", ctx, int32(5)).Return(openEvent(), nil)
		f.emailSvc.On("SendCancellation", ctx, "ada@example.org", "Ada Example", "Spring Conference").Return(nil)

		err := f.svc.Withdraw(ctx, 3, 11)
		require.NoError(t, err)
		assert.Equal(t, domain.RegistrationWithdrawn, reg.Status)
		f.paymentRepo.AssertExpectations(t)
	})

	t.Run("Only the owner may withdraw", func(t *testing.T) {
		f := newRegistrationFixture()
		f.regRepo.On("GetByID", ctx, int32(11)).
			Return(&domain.Registration{ID: 11, UserID: 3, Status: domain.RegistrationRegistered}, nil)

		err := f.svc.Withdraw(ctx, 99, 11)
		assert.ErrorIs(t, err, service.ErrUnauthorized)
	})

	t.Run("Withdrawn is terminal", func(t *testing.T) {
		f := newRegistrationFixture()
		f.regRepo.On("GetByID", ctx, int32(11)).
			Return(&domain.Registration{ID: 11, UserID: 3, Status: domain.RegistrationWithdrawn}, nil)

		err := f.svc.Withdraw(ctx, 3, 11)
		assert.ErrorIs(t, err, service.ErrInvalidTransition)
	})
}

func TestRegistrationService_SelectOption_PaidEditRejected(t *testing.T) {
	f := newRegistrationFixture()
	ctx := context.Background()

	paymentID := int32(7)
	reg := &domain.Registration{
		ID: 11, EventID: 5, UserID: 3,
		Status: domain.RegistrationRegistered, PaymentID: &paymentID,
	}

	f.regRepo.On("GetByID", ctx, int32(11)).Return(reg, nil)
	f.paymentRepo.On("GetByID", ctx, paymentID).
		Return(&domain.Payment{ID: paymentID, Status: domain.PaymentPaid}, nil)

	_, _, err := f.svc.SelectOption(ctx, 3, 11, service.RegisterRequest{OptionID: 2})
	assert.ErrorIs(t, err, service.ErrPaidRegistration)
}

func TestRegistrationService_CompleteForPayment(t *testing.T) {
	f := newRegistrationFixture()
	ctx := context.Background()

	optionID := int32(1)
	reg := &domain.Registration{
		ID: 11, EventID: 5, UserID: 3,
		Status: domain.RegistrationPaymentPending, OptionID: &optionID,
	}
	payment := &domain.Payment{
		ID:     7,
		Status: domain.PaymentPaid,
		Data: domain.PaymentData{
			Kind:           domain.PaymentKindEvent,
			RegistrationID: 11,
			User:           domain.UserSnapshot{ID: 3},
			Event:          &domain.EventSnapshot{ID: 5, Title: "Spring Conference"},
		},
	}

	f.regRepo.On("GetByID", ctx, int32(11)).Return(reg, nil)
	f.regRepo.On("Update", ctx, reg).Return(nil)
	f.eventRepo.On("GetOption", ctx, optionID).
		Return(&domain.RegistrationOption{ID: 1, EventID: 5, Item: "Full ticket"}, nil)
	f.userRepo.On("GetByID", ctx, int32(3)).Return(testUser(), nil)
	f.emailSvc.On("SendRegistrationSuccess", ctx, "ada@example.org", "Ada Example", "Spring Conference").Return(nil)

	err := f.svc.CompleteForPayment(ctx, payment)
	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationRegistered, reg.Status)
	require.NotNil(t, reg.PaymentID)
	assert.Equal(t, int32(7), *reg.PaymentID)
}
