package service

import (
	"context"
	"errors"
	"fmt"

	"event-registration-backend/internal/domain"
	"event-registration-backend/internal/money"
	"event-registration-backend/internal/repository"
)

type eventService struct {
	eventRepo    repository.EventRepository
	discountRepo repository.DiscountRepository
}

func NewEventService(eventRepo repository.EventRepository, discountRepo repository.DiscountRepository) EventService {
	return &eventService{eventRepo: eventRepo, discountRepo: discountRepo}
}

func (s *eventService) CreateEvent(ctx context.Context, event *domain.Event, options []domain.RegistrationOption) error {
	if event.Title == "" {
		return errors.New("event title is required")
	}
	if err := validateRegistrationWindow(event); err != nil {
		return err
	}
	if !event.Free && len(options) == 0 {
		return errors.New("a priced event needs at least one registration option")
	}
	for _, o := range options {
		if o.Price.IsNegative() {
			return fmt.Errorf("option %q: price must not be negative", o.Item)
		}
		if !o.Price.IsZero() && !money.Supported(o.Currency) {
			return money.ErrUnsupportedCurrency{Currency: o.Currency}
		}
	}

	if event.Code == "" {
		event.Code = domain.NewEventCode()
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return err
	}
	for i := range options {
		options[i].EventID = event.ID
		if err := s.eventRepo.CreateOption(ctx, &options[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *eventService) GetEventByCode(ctx context.Context, code string) (*domain.Event, []domain.RegistrationOption, error) {
	event, err := s.eventRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	options, err := s.eventRepo.ListOptions(ctx, event.ID)
	if err != nil {
		return nil, nil, err
	}
	return event, options, nil
}

func (s *eventService) ListEvents(ctx context.Context, includePrivate bool) ([]domain.Event, error) {
	return s.eventRepo.List(ctx, !includePrivate)
}

func (s *eventService) UpdateEvent(ctx context.Context, event *domain.Event) error {
	if err := validateRegistrationWindow(event); err != nil {
		return err
	}
	stored, err := s.eventRepo.GetByCode(ctx, event.Code)
	if err != nil {
		return err
	}
	event.ID = stored.ID
	return s.eventRepo.Update(ctx, event)
}

// validateRegistrationWindow rejects a close date at or before the open date.
// A zero close date means the window never closes.
func validateRegistrationWindow(event *domain.Event) error {
	if event.RegistrationClose.IsZero() {
		return nil
	}
	if !event.RegistrationClose.After(event.RegistrationOpen) {
		return errors.New("registration close must be after registration open")
	}
	return nil
}

func validateDiscountTerms(terms domain.DiscountTerms) error {
	hasPct := terms.Percentage != nil
	hasAbs := terms.Absolute != nil
	if hasPct == hasAbs {
		return errors.New("a discount sets exactly one of percentage or absolute")
	}
	if hasPct && (*terms.Percentage <= 0 || *terms.Percentage > 100) {
		return errors.New("discount percentage must be between 1 and 100")
	}
	if hasAbs && !terms.Absolute.IsPositive() {
		return errors.New("absolute discount must be positive")
	}
	return nil
}

func (s *eventService) CreateDiscountCode(ctx context.Context, eventCode string, c *domain.DiscountCode) error {
	if c.Code == "" {
		return errors.New("discount code is required")
	}
	if err := validateDiscountTerms(c.DiscountTerms); err != nil {
		return err
	}
	event, err := s.eventRepo.GetByCode(ctx, eventCode)
	if err != nil {
		return err
	}
	c.EventID = event.ID
	return s.discountRepo.CreateCode(ctx, c)
}

func (s *eventService) CreateGroupDiscount(ctx context.Context, eventCode string, g *domain.GroupDiscount) error {
	if g.Group == "" {
		return errors.New("user group is required")
	}
	if err := validateDiscountTerms(g.DiscountTerms); err != nil {
		return err
	}
	event, err := s.eventRepo.GetByCode(ctx, eventCode)
	if err != nil {
		return err
	}
	g.EventID = event.ID
	return s.discountRepo.CreateGroupDiscount(ctx, g)
}
