package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"event-registration-backend/internal/domain"
	"event-registration-backend/internal/repository"
)

type eventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) repository.EventRepository {
	return &eventRepository{db: db}
}

const eventColumns = `id, code, title, description, public, registration_open, registration_close,
	max_participants, members_only, credit_cards, free, vat_rate, application_form,
	payment_deadline_days, payment_details, created_on, updated_on`

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `INSERT INTO events (code, title, description, public, registration_open, registration_close,
	              max_participants, members_only, credit_cards, free, vat_rate, application_form,
	              payment_deadline_days, payment_details, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16) RETURNING id`
	return r.db.QueryRowContext(ctx, query,
		e.Code, e.Title, e.Description, e.Public, e.RegistrationOpen, e.RegistrationClose,
		e.MaxParticipants, e.MembersOnly, e.CreditCards, e.Free, e.VATRate, e.ApplicationForm,
		e.PaymentDeadlineDays, e.PaymentDetails, time.Now(), time.Now()).Scan(&e.ID)
}

func scanEvent(row interface{ Scan(...any) error }) (*domain.Event, error) {
	e := &domain.Event{}
	err := row.Scan(&e.ID, &e.Code, &e.Title, &e.Description, &e.Public,
		&e.RegistrationOpen, &e.RegistrationClose, &e.MaxParticipants,
		&e.MembersOnly, &e.CreditCards, &e.Free, &e.VATRate, &e.ApplicationForm,
		&e.PaymentDeadlineDays, &e.PaymentDetails, &e.CreatedOn, &e.UpdatedOn)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) GetByID(ctx context.Context, id int32) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	return scanEvent(r.db.QueryRowContext(ctx, query, id))
}

func (r *eventRepository) GetByCode(ctx context.Context, code string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE code = $1`
	return scanEvent(r.db.QueryRowContext(ctx, query, code))
}

func (r *eventRepository) List(ctx context.Context, publicOnly bool) ([]domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events`
	if publicOnly {
		query += ` WHERE public = true`
	}
	query += ` ORDER BY registration_open DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	query := `UPDATE events SET title=$1, description=$2, public=$3, registration_open=$4,
	              registration_close=$5, max_participants=$6, members_only=$7, credit_cards=$8,
	              free=$9, vat_rate=$10, application_form=$11, payment_deadline_days=$12,
	              payment_details=$13, updated_on=$14
	          WHERE id=$15`
	_, err := r.db.ExecContext(ctx, query,
		e.Title, e.Description, e.Public, e.RegistrationOpen, e.RegistrationClose,
		e.MaxParticipants, e.MembersOnly, e.CreditCards, e.Free, e.VATRate, e.ApplicationForm,
		e.PaymentDeadlineDays, e.PaymentDetails, time.Now(), e.ID)
	return err
}

const optionColumns = `id, event_id, item, price, currency, add_on, includes_membership, membership_end_year`

func (r *eventRepository) CreateOption(ctx context.Context, o *domain.RegistrationOption) error {
	query := `INSERT INTO registration_options (event_id, item, price, currency, add_on, includes_membership, membership_end_year)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	return r.db.QueryRowContext(ctx, query, o.EventID, o.Item, o.Price, o.Currency, o.AddOn, o.IncludesMembership, o.MembershipEndYear).Scan(&o.ID)
}

func (r *eventRepository) GetOption(ctx context.Context, id int32) (*domain.RegistrationOption, error) {
	o := &domain.RegistrationOption{}
	query := `SELECT ` + optionColumns + ` FROM registration_options WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&o.ID, &o.EventID, &o.Item, &o.Price, &o.Currency, &o.AddOn, &o.IncludesMembership, &o.MembershipEndYear)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *eventRepository) GetOptions(ctx context.Context, ids []int32) ([]domain.RegistrationOption, error) {
	query := `SELECT ` + optionColumns + ` FROM registration_options WHERE id = ANY($1) ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOptions(rows)
}

func (r *eventRepository) ListOptions(ctx context.Context, eventID int32) ([]domain.RegistrationOption, error) {
	query := `SELECT ` + optionColumns + ` FROM registration_options WHERE event_id = $1 ORDER BY add_on, id`
	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOptions(rows)
}

func collectOptions(rows *sql.Rows) ([]domain.RegistrationOption, error) {
	var options []domain.RegistrationOption
	for rows.Next() {
		var o domain.RegistrationOption
		if err := rows.Scan(&o.ID, &o.EventID, &o.Item, &o.Price, &o.Currency, &o.AddOn, &o.IncludesMembership, &o.MembershipEndYear); err != nil {
			return nil, err
		}
		options = append(options, o)
	}
	return options, rows.Err()
}

func (r *eventRepository) ActiveRegistrationCount(ctx context.Context, eventID int32) (int32, error) {
	var count int32
	query := `SELECT count(*) FROM registrations WHERE event_id = $1 AND status NOT IN ('WITHDRAWN', 'CANCELLED')`
	err := r.db.QueryRowContext(ctx, query, eventID).Scan(&count)
	return count, err
}
