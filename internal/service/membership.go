package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"event-registration-backend/internal/domain"
	"event-registration-backend/internal/repository"
)

// MembershipCosts maps a membership type to its yearly price.
type MembershipCosts struct {
	Currency domain.Currency
	Prices   map[domain.MembershipType]decimal.Decimal
}

type membershipService struct {
	membershipRepo repository.MembershipRepository
	paymentRepo    repository.PaymentRepository
	userRepo       repository.UserRepository
	costs          MembershipCosts
}

func NewMembershipService(
	membershipRepo repository.MembershipRepository,
	paymentRepo repository.PaymentRepository,
	userRepo repository.UserRepository,
	costs MembershipCosts,
) MembershipService {
	return &membershipService{
		membershipRepo: membershipRepo,
		paymentRepo:    paymentRepo,
		userRepo:       userRepo,
		costs:          costs,
	}
}

func (s *membershipService) Cost(mType domain.MembershipType) (decimal.Decimal, domain.Currency, error) {
	price, ok := s.costs.Prices[mType]
	if !ok {
		return decimal.Zero, "", fmt.Errorf("no price configured for membership type %s", mType)
	}
	return price, s.costs.Currency, nil
}

func (s *membershipService) Apply(ctx context.Context, userID int32, mType domain.MembershipType, method domain.PaymentMethod, mailingList bool) (*domain.Membership, *domain.Payment, error) {
	if !domain.ValidMembershipType(mType) {
		return nil, nil, fmt.Errorf("unknown membership type %q", mType)
	}
	if !method.Known() {
		return nil, nil, fmt.Errorf("unknown payment method %q", method)
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	price, currency, err := s.Cost(mType)
	if err != nil {
		return nil, nil, err
	}

	year := int32(time.Now().Year())
	membership, err := s.membershipRepo.GetByUser(ctx, userID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		membership = &domain.Membership{
			UserID:      userID,
			Type:        mType,
			Until:       year - 1, // not active until the payment completes
			MailingList: mailingList,
		}
		if err := s.membershipRepo.Create(ctx, membership); err != nil {
			return nil, nil, err
		}
	case err != nil:
		return nil, nil, err
	default:
		if membership.Until >= year {
			return nil, nil, fmt.Errorf("membership already active through %d", membership.Until)
		}
		membership.Type = mType
		membership.MailingList = mailingList
		if err := s.membershipRepo.Update(ctx, membership); err != nil {
			return nil, nil, err
		}
	}

	if price.IsZero() {
		membership.Until = year
		if err := s.membershipRepo.Update(ctx, membership); err != nil {
			return nil, nil, err
		}
		return membership, nil, nil
	}

	payment := &domain.Payment{
		Status: domain.PaymentCreated,
		Data: domain.PaymentData{
			Kind:         domain.PaymentKindMembership,
			Method:       method,
			Currency:     currency,
			Price:        price,
			User:         domain.UserSnapshot{ID: user.ID, Name: user.Name, Address: user.Address},
			MembershipID: membership.ID,
			Membership:   &domain.MembershipSnapshot{Type: mType, UntilYear: year},
		},
	}
	if err := s.paymentRepo.CreateReplacing(ctx, payment); err != nil {
		return nil, nil, err
	}
	return membership, payment, nil
}

func (s *membershipService) GetOwn(ctx context.Context, userID int32) (*domain.Membership, error) {
	return s.membershipRepo.GetByUser(ctx, userID)
}

func (s *membershipService) CompleteForPayment(ctx context.Context, payment *domain.Payment) error {
	if payment.Data.Membership == nil {
		return errors.New("membership payment without membership snapshot")
	}
	membership, err := s.membershipRepo.GetByID(ctx, payment.Data.MembershipID)
	if err != nil {
		return err
	}
	if payment.Data.Membership.UntilYear > membership.Until {
		membership.Until = payment.Data.Membership.UntilYear
	}
	membership.PaymentID = &payment.ID
	return s.membershipRepo.Update(ctx, membership)
}
