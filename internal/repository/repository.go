package repository

import (
	"context"
	"errors"
	"time"

	"event-registration-backend/internal/domain"
)

// ErrStaleStatus is returned by compare-and-swap updates when the row is no
// longer in the expected status, e.g. a replayed gateway callback.
var ErrStaleStatus = errors.New("row not in expected status")

// ErrDuplicateActive is returned when inserting a registration collides with
// the partial unique index on active (event, user) pairs. The service-level
// pre-check cannot catch two concurrent inserts; the index can.
var ErrDuplicateActive = errors.New("an active registration already exists")

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int32) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	GetByID(ctx context.Context, id int32) (*domain.Event, error)
	GetByCode(ctx context.Context, code string) (*domain.Event, error)
	List(ctx context.Context, publicOnly bool) ([]domain.Event, error)
	Update(ctx context.Context, event *domain.Event) error

	CreateOption(ctx context.Context, option *domain.RegistrationOption) error
	GetOption(ctx context.Context, id int32) (*domain.RegistrationOption, error)
	GetOptions(ctx context.Context, ids []int32) ([]domain.RegistrationOption, error)
	ListOptions(ctx context.Context, eventID int32) ([]domain.RegistrationOption, error)

	// ActiveRegistrationCount backs the participant cap; it counts every
	// non-withdrawn, non-cancelled registration.
	ActiveRegistrationCount(ctx context.Context, eventID int32) (int32, error)
}

type RegistrationRepository interface {
	Create(ctx context.Context, reg *domain.Registration) error
	GetByID(ctx context.Context, id int32) (*domain.Registration, error)
	// GetActiveByEventAndUser returns the user's single active registration
	// for the event, or sql.ErrNoRows.
	GetActiveByEventAndUser(ctx context.Context, eventID, userID int32) (*domain.Registration, error)
	ListByEvent(ctx context.Context, eventID int32) ([]domain.Registration, error)
	ListByUser(ctx context.Context, userID int32) ([]domain.Registration, error)
	Update(ctx context.Context, reg *domain.Registration) error
}

type PaymentRepository interface {
	// Create inserts the payment with a freshly assigned invoice number.
	Create(ctx context.Context, payment *domain.Payment) error
	// CreateReplacing atomically marks every live payment of the same
	// registration or membership OBSOLETE, then inserts the new payment.
	CreateReplacing(ctx context.Context, payment *domain.Payment) error
	GetByID(ctx context.Context, id int32) (*domain.Payment, error)
	GetByIDs(ctx context.Context, ids []int32) ([]domain.Payment, error)
	Update(ctx context.Context, payment *domain.Payment) error
	// UpdateStatusIfCurrent moves the payment from->to and stores data in the
	// same statement. Returns ErrStaleStatus when the row left `from` in the
	// meantime.
	UpdateStatusIfCurrent(ctx context.Context, id int32, from, to domain.PaymentStatus, data *domain.PaymentData) error
	// ListStaleCreated returns CREATED payments untouched since the cutoff.
	ListStaleCreated(ctx context.Context, cutoff time.Time) ([]domain.Payment, error)
	ListByStatus(ctx context.Context, statuses []domain.PaymentStatus) ([]domain.Payment, error)
}

type MembershipRepository interface {
	Create(ctx context.Context, m *domain.Membership) error
	GetByID(ctx context.Context, id int32) (*domain.Membership, error)
	GetByUser(ctx context.Context, userID int32) (*domain.Membership, error)
	Update(ctx context.Context, m *domain.Membership) error
}

type DiscountRepository interface {
	// GetCode resolves a discount code for an event, or sql.ErrNoRows.
	GetCode(ctx context.Context, eventID int32, code string) (*domain.DiscountCode, error)
	ListGroupDiscounts(ctx context.Context, eventID int32, groups []string) ([]domain.GroupDiscount, error)
	CreateCode(ctx context.Context, c *domain.DiscountCode) error
	CreateGroupDiscount(ctx context.Context, g *domain.GroupDiscount) error
}
