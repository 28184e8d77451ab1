package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"event-registration-backend/internal/domain"
	"event-registration-backend/internal/repository"
)

type paymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) repository.PaymentRepository {
	return &paymentRepository{db: db}
}

const paymentColumns = `id, status, invoice_no, data, created_on, updated_on`

// nextInvoiceNo assigns the next number in this year's {yy}{NNNN} block. Runs
// inside the insert transaction so two concurrent payments cannot share one.
func nextInvoiceNo(ctx context.Context, tx *sql.Tx, now time.Time) (int32, error) {
	base := domain.MakeInvoiceNo(now.Year(), 0)
	var current int32
	query := `SELECT COALESCE(MAX(invoice_no), $1) FROM payments WHERE invoice_no BETWEEN $1 AND $2`
	if err := tx.QueryRowContext(ctx, query, base, base+9999).Scan(&current); err != nil {
		return 0, err
	}
	return current + 1, nil
}

func insertPayment(ctx context.Context, tx *sql.Tx, p *domain.Payment) error {
	now := time.Now()
	invoiceNo, err := nextInvoiceNo(ctx, tx, now)
	if err != nil {
		return err
	}
	p.InvoiceNo = invoiceNo
	query := `INSERT INTO payments (status, invoice_no, data, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`
	return tx.QueryRowContext(ctx, query, p.Status, p.InvoiceNo, p.Data, now, now).Scan(&p.ID)
}

func (r *paymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertPayment(ctx, tx, p); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *paymentRepository) CreateReplacing(ctx context.Context, p *domain.Payment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Retire every live payment for the same registration or membership
	// before inserting the replacement; the two writes commit together.
	var obsolete string
	var key int32
	switch p.Data.Kind {
	case domain.PaymentKindEvent:
		obsolete = `UPDATE payments SET status='OBSOLETE', updated_on=$2
		            WHERE status <> 'OBSOLETE' AND (data->>'kind') = 'event'
		              AND (data->>'registration_id')::int = $1`
		key = p.Data.RegistrationID
	case domain.PaymentKindMembership:
		obsolete = `UPDATE payments SET status='OBSOLETE', updated_on=$2
		            WHERE status <> 'OBSOLETE' AND (data->>'kind') = 'membership'
		              AND (data->>'membership_id')::int = $1`
		key = p.Data.MembershipID
	default:
		return fmt.Errorf("unknown payment kind %q", p.Data.Kind)
	}
	if _, err := tx.ExecContext(ctx, obsolete, key, time.Now()); err != nil {
		return err
	}

	if err := insertPayment(ctx, tx, p); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *paymentRepository) GetByID(ctx context.Context, id int32) (*domain.Payment, error) {
	p := &domain.Payment{}
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Status, &p.InvoiceNo, &p.Data, &p.CreatedOn, &p.UpdatedOn)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *paymentRepository) GetByIDs(ctx context.Context, ids []int32) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = ANY($1) ORDER BY invoice_no`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPayments(rows)
}

func (r *paymentRepository) Update(ctx context.Context, p *domain.Payment) error {
	query := `UPDATE payments SET status=$1, data=$2, updated_on=$3 WHERE id=$4`
	_, err := r.db.ExecContext(ctx, query, p.Status, p.Data, time.Now(), p.ID)
	return err
}

func (r *paymentRepository) UpdateStatusIfCurrent(ctx context.Context, id int32, from, to domain.PaymentStatus, data *domain.PaymentData) error {
	query := `UPDATE payments SET status=$1, updated_on=$2`
	args := []any{to, time.Now()}
	if data != nil {
		query += `, data=$3 WHERE id=$4 AND status=$5`
		args = append(args, *data, id, from)
	} else {
		query += ` WHERE id=$3 AND status=$4`
		args = append(args, id, from)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrStaleStatus
	}
	return nil
}

func (r *paymentRepository) ListStaleCreated(ctx context.Context, cutoff time.Time) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE status = 'CREATED' AND updated_on < $1 ORDER BY updated_on`
	rows, err := r.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPayments(rows)
}

func (r *paymentRepository) ListByStatus(ctx context.Context, statuses []domain.PaymentStatus) ([]domain.Payment, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE status = ANY($1) ORDER BY invoice_no`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(names))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPayments(rows)
}

func collectPayments(rows *sql.Rows) ([]domain.Payment, error) {
	var payments []domain.Payment
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.Status, &p.InvoiceNo, &p.Data, &p.CreatedOn, &p.UpdatedOn); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
