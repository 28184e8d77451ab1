package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"event-registration-backend/internal/domain"
	"event-registration-backend/internal/logger"
	"event-registration-backend/internal/pricing"
	"event-registration-backend/internal/repository"
)

// membersGroup is the discount group every active member belongs to.
const membersGroup = "members"

type registrationService struct {
	eventRepo      repository.EventRepository
	regRepo        repository.RegistrationRepository
	paymentRepo    repository.PaymentRepository
	membershipRepo repository.MembershipRepository
	discountRepo   repository.DiscountRepository
	userRepo       repository.UserRepository
	emailSvc       EmailService
}

func NewRegistrationService(
	eventRepo repository.EventRepository,
	regRepo repository.RegistrationRepository,
	paymentRepo repository.PaymentRepository,
	membershipRepo repository.MembershipRepository,
	discountRepo repository.DiscountRepository,
	userRepo repository.UserRepository,
	emailSvc EmailService,
) RegistrationService {
	return &registrationService{
		eventRepo:      eventRepo,
		regRepo:        regRepo,
		paymentRepo:    paymentRepo,
		membershipRepo: membershipRepo,
		discountRepo:   discountRepo,
		userRepo:       userRepo,
		emailSvc:       emailSvc,
	}
}

func (s *registrationService) Register(ctx context.Context, userID int32, req RegisterRequest) (*domain.Registration, *domain.Payment, error) {
	event, err := s.eventRepo.GetByCode(ctx, req.EventCode)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	if err := s.guardCreation(ctx, event, userID); err != nil {
		return nil, nil, err
	}

	reg := &domain.Registration{
		EventID:          event.ID,
		UserID:           userID,
		SendUpdateEmails: req.SendUpdateEmails,
	}

	// Application-gated events park the registration until staff decide;
	// the option is picked after selection.
	if event.RequiresApplication() {
		if req.ApplicationAnswer == "" {
			return nil, nil, errors.New("this event requires an application")
		}
		reg.Status = domain.RegistrationSubmitted
		reg.ApplicationAnswer = &req.ApplicationAnswer
		if err := s.regRepo.Create(ctx, reg); err != nil {
			return nil, nil, mapDuplicateActive(err)
		}
		if err := s.emailSvc.SendApplicationSubmitted(ctx, user.Email, user.Name, event.Title); err != nil {
			logger.Warn("application-submitted email failed", "registration_id", reg.ID, "error", err)
		}
		return reg, nil, nil
	}

	if event.Free {
		reg.Status = domain.RegistrationRegistered
		if err := s.regRepo.Create(ctx, reg); err != nil {
			return nil, nil, mapDuplicateActive(err)
		}
		if err := s.emailSvc.SendRegistrationSuccess(ctx, user.Email, user.Name, event.Title); err != nil {
			logger.Warn("registration-success email failed", "registration_id", reg.ID, "error", err)
		}
		return reg, nil, nil
	}

	return s.attachOptionAndPayment(ctx, user, event, reg, req, s.regRepo.Create)
}

// SelectOption is the second step of the application path: a SELECTED
// participant picks their option, which opens the payment step.
func (s *registrationService) SelectOption(ctx context.Context, userID, regID int32, req RegisterRequest) (*domain.Registration, *domain.Payment, error) {
	reg, err := s.regRepo.GetByID(ctx, regID)
	if err != nil {
		return nil, nil, err
	}
	if reg.UserID != userID {
		return nil, nil, ErrUnauthorized
	}
	if err := s.rejectIfPaid(ctx, reg); err != nil {
		return nil, nil, err
	}
	if reg.Status != domain.RegistrationSelected && reg.Status != domain.RegistrationPaymentPending {
		return nil, nil, fmt.Errorf("%w: cannot pick an option in status %s", ErrInvalidTransition, reg.Status)
	}

	event, err := s.eventRepo.GetByID(ctx, reg.EventID)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return s.attachOptionAndPayment(ctx, user, event, reg, req, s.regRepo.Update)
}

// attachOptionAndPayment prices the chosen option, persists the registration
// through save and creates the payment when the total is above zero. A zero
// total completes the registration outright.
func (s *registrationService) attachOptionAndPayment(
	ctx context.Context,
	user *domain.User,
	event *domain.Event,
	reg *domain.Registration,
	req RegisterRequest,
	save func(context.Context, *domain.Registration) error,
) (*domain.Registration, *domain.Payment, error) {
	option, err := s.eventRepo.GetOption(ctx, req.OptionID)
	if err != nil {
		return nil, nil, err
	}
	if option.EventID != event.ID || option.AddOn {
		return nil, nil, errors.New("not a registration option of this event")
	}

	var addOns []domain.RegistrationOption
	if len(req.AddOnIDs) > 0 {
		addOns, err = s.eventRepo.GetOptions(ctx, req.AddOnIDs)
		if err != nil {
			return nil, nil, err
		}
		for _, a := range addOns {
			if a.EventID != event.ID || !a.AddOn {
				return nil, nil, fmt.Errorf("%q is not an add-on of this event", a.Item)
			}
		}
	}

	discounts, err := s.applicableDiscounts(ctx, event.ID, user.ID, req.DiscountCode)
	if err != nil {
		return nil, nil, err
	}

	total, currency, err := pricing.PriceForRegistration(*option, addOns, discounts)
	if err != nil {
		return nil, nil, err
	}

	reg.OptionID = &option.ID
	reg.AddOnIDs = req.AddOnIDs

	if total.IsZero() {
		reg.Status = domain.RegistrationRegistered
		reg.PaymentID = nil
		if err := save(ctx, reg); err != nil {
			return nil, nil, mapDuplicateActive(err)
		}
		if err := s.emailSvc.SendRegistrationSuccess(ctx, user.Email, user.Name, event.Title); err != nil {
			logger.Warn("registration-success email failed", "registration_id", reg.ID, "error", err)
		}
		return reg, nil, nil
	}

	if err := validatePaymentMethod(req.PaymentMethod, event); err != nil {
		return nil, nil, err
	}

	reg.Status = domain.RegistrationPaymentPending
	if err := save(ctx, reg); err != nil {
		return nil, nil, mapDuplicateActive(err)
	}

	data := domain.PaymentData{
		Kind:           domain.PaymentKindEvent,
		Method:         req.PaymentMethod,
		Currency:       currency,
		Price:          total,
		User:           domain.UserSnapshot{ID: user.ID, Name: user.Name, Address: user.Address},
		RegistrationID: reg.ID,
		Event: &domain.EventSnapshot{
			ID:                  event.ID,
			Code:                event.Code,
			Title:               event.Title,
			VATRate:             event.VATRate,
			PaymentDeadlineDays: event.PaymentDeadlineDays,
			PaymentDetails:      event.PaymentDetails,
		},
		Option: &domain.OptionSnapshot{ID: option.ID, Item: option.Item, Price: option.Price},
	}
	for _, a := range addOns {
		data.AddOns = append(data.AddOns, domain.OptionSnapshot{ID: a.ID, Item: a.Item, Price: a.Price, AddOn: true})
	}

	payment := &domain.Payment{Status: domain.PaymentCreated, Data: data}
	if err := s.paymentRepo.CreateReplacing(ctx, payment); err != nil {
		return nil, nil, err
	}

	reg.PaymentID = &payment.ID
	if err := s.regRepo.Update(ctx, reg); err != nil {
		return nil, nil, err
	}
	return reg, payment, nil
}

// mapDuplicateActive turns the unique-index violation on active
// (event, user) pairs into the error the API reports for double registration.
func mapDuplicateActive(err error) error {
	if errors.Is(err, repository.ErrDuplicateActive) {
		return ErrAlreadyRegistered
	}
	return err
}

// validatePaymentMethod rejects methods outside the closed set and the card
// path on events that do not take cards. Only called when a payment is about
// to be created; zero-total registrations carry no method.
func validatePaymentMethod(method domain.PaymentMethod, event *domain.Event) error {
	if !method.Known() {
		return fmt.Errorf("unknown payment method %q", method)
	}
	if method == domain.PaymentMethodStripe && !event.CreditCards {
		return errors.New("this event does not take credit card payments")
	}
	return nil
}

func (s *registrationService) guardCreation(ctx context.Context, event *domain.Event, userID int32) error {
	if !event.RegistrationIsOpen(time.Now()) {
		return ErrRegistrationClosed
	}

	if event.MembersOnly {
		membership, err := s.membershipRepo.GetByUser(ctx, userID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if membership == nil || !membership.ActiveIn(time.Now().Year()) {
			return ErrMembersOnly
		}
	}

	if _, err := s.regRepo.GetActiveByEventAndUser(ctx, event.ID, userID); err == nil {
		return ErrAlreadyRegistered
	} else if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	if event.MaxParticipants > 0 {
		count, err := s.eventRepo.ActiveRegistrationCount(ctx, event.ID)
		if err != nil {
			return err
		}
		if count >= event.MaxParticipants {
			return ErrEventFull
		}
	}
	return nil
}

func (s *registrationService) applicableDiscounts(ctx context.Context, eventID, userID int32, code string) ([]domain.DiscountTerms, error) {
	var discounts []domain.DiscountTerms

	if code != "" {
		dc, err := s.discountRepo.GetCode(ctx, eventID, code)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("unknown discount code %q", code)
			}
			return nil, err
		}
		discounts = append(discounts, dc.DiscountTerms)
	}

	membership, err := s.membershipRepo.GetByUser(ctx, userID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if membership != nil && membership.ActiveIn(time.Now().Year()) {
		groupDiscounts, err := s.discountRepo.ListGroupDiscounts(ctx, eventID, []string{membersGroup})
		if err != nil {
			return nil, err
		}
		for _, g := range groupDiscounts {
			discounts = append(discounts, g.DiscountTerms)
		}
	}
	return discounts, nil
}

func (s *registrationService) GetOwn(ctx context.Context, userID int32, eventCode string) (*domain.Registration, error) {
	event, err := s.eventRepo.GetByCode(ctx, eventCode)
	if err != nil {
		return nil, err
	}
	return s.regRepo.GetActiveByEventAndUser(ctx, event.ID, userID)
}

func (s *registrationService) ListOwn(ctx context.Context, userID int32) ([]domain.Registration, error) {
	return s.regRepo.ListByUser(ctx, userID)
}

func (s *registrationService) DecideApplication(ctx context.Context, regID int32, decision domain.RegistrationStatus) (*domain.Registration, error) {
	switch decision {
	case domain.RegistrationSelected, domain.RegistrationWaitlist, domain.RegistrationDeclined:
	default:
		return nil, fmt.Errorf("%w: %s is not an application decision", ErrInvalidTransition, decision)
	}

	reg, err := s.regRepo.GetByID(ctx, regID)
	if err != nil {
		return nil, err
	}
	if !reg.Status.CanTransitionTo(decision) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, reg.Status, decision)
	}
	reg.Status = decision
	if err := s.regRepo.Update(ctx, reg); err != nil {
		return nil, err
	}

	if decision != domain.RegistrationDeclined {
		user, err := s.userRepo.GetByID(ctx, reg.UserID)
		if err == nil {
			event, eventErr := s.eventRepo.GetByID(ctx, reg.EventID)
			if eventErr == nil {
				waitlisted := decision == domain.RegistrationWaitlist
				if err := s.emailSvc.SendApplicationAccepted(ctx, user.Email, user.Name, event.Title, waitlisted); err != nil {
					logger.Warn("application-accepted email failed", "registration_id", reg.ID, "error", err)
				}
			}
		}
	}
	return reg, nil
}

func (s *registrationService) Withdraw(ctx context.Context, userID, regID int32) error {
	reg, err := s.regRepo.GetByID(ctx, regID)
	if err != nil {
		return err
	}
	if reg.UserID != userID {
		return ErrUnauthorized
	}
	return s.close(ctx, reg, domain.RegistrationWithdrawn)
}

func (s *registrationService) Cancel(ctx context.Context, regID int32) error {
	reg, err := s.regRepo.GetByID(ctx, regID)
	if err != nil {
		return err
	}
	return s.close(ctx, reg, domain.RegistrationCancelled)
}

// close ends a registration and retires its live unpaid payment. A PAID
// payment stays untouched for the books.
func (s *registrationService) close(ctx context.Context, reg *domain.Registration, final domain.RegistrationStatus) error {
	if !reg.Status.CanTransitionTo(final) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, reg.Status, final)
	}
	reg.Status = final
	if err := s.regRepo.Update(ctx, reg); err != nil {
		return err
	}

	if reg.PaymentID != nil {
		payment, err := s.paymentRepo.GetByID(ctx, *reg.PaymentID)
		if err == nil && payment.Status != domain.PaymentPaid && payment.Status.Live() {
			if err := s.paymentRepo.UpdateStatusIfCurrent(ctx, payment.ID, payment.Status, domain.PaymentObsolete, nil); err != nil {
				logger.Warn("could not retire payment of closed registration", "payment_id", payment.ID, "error", err)
			}
		}
	}

	user, err := s.userRepo.GetByID(ctx, reg.UserID)
	if err == nil {
		event, eventErr := s.eventRepo.GetByID(ctx, reg.EventID)
		if eventErr == nil {
			if err := s.emailSvc.SendCancellation(ctx, user.Email, user.Name, event.Title); err != nil {
				logger.Warn("cancellation email failed", "registration_id", reg.ID, "error", err)
			}
		}
	}
	return nil
}

// rejectIfPaid blocks edits once the registration's payment is PAID.
func (s *registrationService) rejectIfPaid(ctx context.Context, reg *domain.Registration) error {
	if reg.PaymentID == nil {
		return nil
	}
	payment, err := s.paymentRepo.GetByID(ctx, *reg.PaymentID)
	if err != nil {
		return err
	}
	if payment.Status == domain.PaymentPaid {
		return ErrPaidRegistration
	}
	return nil
}

func (s *registrationService) CompleteForPayment(ctx context.Context, payment *domain.Payment) error {
	reg, err := s.regRepo.GetByID(ctx, payment.Data.RegistrationID)
	if err != nil {
		return err
	}
	if !reg.Status.CanTransitionTo(domain.RegistrationRegistered) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, reg.Status, domain.RegistrationRegistered)
	}
	reg.Status = domain.RegistrationRegistered
	reg.PaymentID = &payment.ID
	if err := s.regRepo.Update(ctx, reg); err != nil {
		return err
	}

	// Options can bundle a society membership; activate it now.
	if reg.OptionID != nil {
		option, err := s.eventRepo.GetOption(ctx, *reg.OptionID)
		if err == nil && option.IncludesMembership {
			s.extendBundledMembership(ctx, reg.UserID, option.MembershipEndYear, payment.ID)
		}
	}

	user, err := s.userRepo.GetByID(ctx, reg.UserID)
	if err == nil && payment.Data.Event != nil {
		if err := s.emailSvc.SendRegistrationSuccess(ctx, user.Email, user.Name, payment.Data.Event.Title); err != nil {
			logger.Warn("registration-success email failed", "registration_id", reg.ID, "error", err)
		}
	}
	return nil
}

func (s *registrationService) extendBundledMembership(ctx context.Context, userID, untilYear int32, paymentID int32) {
	membership, err := s.membershipRepo.GetByUser(ctx, userID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		m := &domain.Membership{UserID: userID, Type: domain.MembershipRegular, Until: untilYear, PaymentID: &paymentID}
		if err := s.membershipRepo.Create(ctx, m); err != nil {
			logger.Warn("bundled membership creation failed", "user_id", userID, "error", err)
		}
	case err != nil:
		logger.Warn("bundled membership lookup failed", "user_id", userID, "error", err)
	default:
		if untilYear > membership.Until {
			membership.Until = untilYear
			membership.PaymentID = &paymentID
			if err := s.membershipRepo.Update(ctx, membership); err != nil {
				logger.Warn("bundled membership extension failed", "user_id", userID, "error", err)
			}
		}
	}
}
