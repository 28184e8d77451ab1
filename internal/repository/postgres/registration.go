package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"event-registration-backend/internal/domain"
	"event-registration-backend/internal/repository"
)

type registrationRepository struct {
	db *sql.DB
}

func NewRegistrationRepository(db *sql.DB) repository.RegistrationRepository {
	return &registrationRepository{db: db}
}

// The registrations table carries a partial unique index on
// (event_id, user_id) over rows whose status is not WITHDRAWN or CANCELLED.
// Create surfaces its violation as repository.ErrDuplicateActive so a
// concurrent double-register loses cleanly instead of leaving two active rows.
const registrationColumns = `id, event_id, user_id, option_id, add_on_ids, status,
	send_update_emails, payment_id, application_answer, created_on, updated_on`

func (r *registrationRepository) Create(ctx context.Context, reg *domain.Registration) error {
	query := `INSERT INTO registrations (event_id, user_id, option_id, add_on_ids, status,
	              send_update_emails, payment_id, application_answer, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		reg.EventID, reg.UserID, reg.OptionID, pq.Array(reg.AddOnIDs), reg.Status,
		reg.SendUpdateEmails, reg.PaymentID, reg.ApplicationAnswer, time.Now(), time.Now()).Scan(&reg.ID)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return repository.ErrDuplicateActive
	}
	return err
}

func scanRegistration(row interface{ Scan(...any) error }) (*domain.Registration, error) {
	reg := &domain.Registration{}
	var addOns pq.Int32Array
	err := row.Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.OptionID, &addOns,
		&reg.Status, &reg.SendUpdateEmails, &reg.PaymentID, &reg.ApplicationAnswer,
		&reg.CreatedOn, &reg.UpdatedOn)
	if err != nil {
		return nil, err
	}
	reg.AddOnIDs = []int32(addOns)
	return reg, nil
}

func (r *registrationRepository) GetByID(ctx context.Context, id int32) (*domain.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1`
	return scanRegistration(r.db.QueryRowContext(ctx, query, id))
}

func (r *registrationRepository) GetActiveByEventAndUser(ctx context.Context, eventID, userID int32) (*domain.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations
	          WHERE event_id = $1 AND user_id = $2 AND status NOT IN ('WITHDRAWN', 'CANCELLED')`
	return scanRegistration(r.db.QueryRowContext(ctx, query, eventID, userID))
}

func (r *registrationRepository) ListByEvent(ctx context.Context, eventID int32) ([]domain.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE event_id = $1 ORDER BY created_on`
	return r.list(ctx, query, eventID)
}

func (r *registrationRepository) ListByUser(ctx context.Context, userID int32) ([]domain.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE user_id = $1 ORDER BY created_on DESC`
	return r.list(ctx, query, userID)
}

func (r *registrationRepository) list(ctx context.Context, query string, arg any) ([]domain.Registration, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regs []domain.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, *reg)
	}
	return regs, rows.Err()
}

func (r *registrationRepository) Update(ctx context.Context, reg *domain.Registration) error {
	query := `UPDATE registrations SET option_id=$1, add_on_ids=$2, status=$3,
	              send_update_emails=$4, payment_id=$5, application_answer=$6, updated_on=$7
	          WHERE id=$8`
	_, err := r.db.ExecContext(ctx, query,
		reg.OptionID, pq.Array(reg.AddOnIDs), reg.Status,
		reg.SendUpdateEmails, reg.PaymentID, reg.ApplicationAnswer, time.Now(), reg.ID)
	return err
}
