package postgres

import (
	"database/sql"

	_ "github.com/lib/pq"

	"event-registration-backend/internal/repository"
)

type Store struct {
	db *sql.DB
	repository.UserRepository
	repository.EventRepository
	repository.RegistrationRepository
	repository.PaymentRepository
	repository.MembershipRepository
	repository.DiscountRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                     db,
		UserRepository:         NewUserRepository(db),
		EventRepository:        NewEventRepository(db),
		RegistrationRepository: NewRegistrationRepository(db),
		PaymentRepository:      NewPaymentRepository(db),
		MembershipRepository:   NewMembershipRepository(db),
		DiscountRepository:     NewDiscountRepository(db),
	}
}
