package postgres

import (
	"context"
	"database/sql"
	"time"

	"event-registration-backend/internal/domain"
	"event-registration-backend/internal/repository"
)

type membershipRepository struct {
	db *sql.DB
}

func NewMembershipRepository(db *sql.DB) repository.MembershipRepository {
	return &membershipRepository{db: db}
}

const membershipColumns = `id, user_id, membership_type, until, payment_id, mailing_list, created_on, updated_on`

func (r *membershipRepository) Create(ctx context.Context, m *domain.Membership) error {
	query := `INSERT INTO memberships (user_id, membership_type, until, payment_id, mailing_list, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	return r.db.QueryRowContext(ctx, query, m.UserID, m.Type, m.Until, m.PaymentID, m.MailingList, time.Now(), time.Now()).Scan(&m.ID)
}

func (r *membershipRepository) GetByID(ctx context.Context, id int32) (*domain.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE id = $1`
	return scanMembership(r.db.QueryRowContext(ctx, query, id))
}

func (r *membershipRepository) GetByUser(ctx context.Context, userID int32) (*domain.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE user_id = $1`
	return scanMembership(r.db.QueryRowContext(ctx, query, userID))
}

func scanMembership(row *sql.Row) (*domain.Membership, error) {
	m := &domain.Membership{}
	err := row.Scan(&m.ID, &m.UserID, &m.Type, &m.Until, &m.PaymentID, &m.MailingList, &m.CreatedOn, &m.UpdatedOn)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *membershipRepository) Update(ctx context.Context, m *domain.Membership) error {
	query := `UPDATE memberships SET membership_type=$1, until=$2, payment_id=$3, mailing_list=$4, updated_on=$5 WHERE id=$6`
	_, err := r.db.ExecContext(ctx, query, m.Type, m.Until, m.PaymentID, m.MailingList, time.Now(), m.ID)
	return err
}
