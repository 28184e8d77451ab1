package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"event-registration-backend/internal/domain"
	"event-registration-backend/internal/repository"
)

type discountRepository struct {
	db *sql.DB
}

func NewDiscountRepository(db *sql.DB) repository.DiscountRepository {
	return &discountRepository{db: db}
}

func (r *discountRepository) GetCode(ctx context.Context, eventID int32, code string) (*domain.DiscountCode, error) {
	c := &domain.DiscountCode{}
	query := `SELECT id, event_id, code, only_registration, percentage, absolute
	          FROM discount_codes WHERE event_id = $1 AND code = $2`
	err := r.db.QueryRowContext(ctx, query, eventID, code).Scan(
		&c.ID, &c.EventID, &c.Code, &c.OnlyRegistration, &c.Percentage, &c.Absolute)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *discountRepository) ListGroupDiscounts(ctx context.Context, eventID int32, groups []string) ([]domain.GroupDiscount, error) {
	if len(groups) == 0 {
		return nil, nil
	}
	query := `SELECT id, event_id, user_group, only_registration, percentage, absolute
	          FROM group_discounts WHERE event_id = $1 AND user_group = ANY($2)`
	rows, err := r.db.QueryContext(ctx, query, eventID, pq.Array(groups))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var discounts []domain.GroupDiscount
	for rows.Next() {
		var g domain.GroupDiscount
		if err := rows.Scan(&g.ID, &g.EventID, &g.Group, &g.OnlyRegistration, &g.Percentage, &g.Absolute); err != nil {
			return nil, err
		}
		discounts = append(discounts, g)
	}
	return discounts, rows.Err()
}

func (r *discountRepository) CreateCode(ctx context.Context, c *domain.DiscountCode) error {
	query := `INSERT INTO discount_codes (event_id, code, only_registration, percentage, absolute)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`
	return r.db.QueryRowContext(ctx, query, c.EventID, c.Code, c.OnlyRegistration, c.Percentage, c.Absolute).Scan(&c.ID)
}

func (r *discountRepository) CreateGroupDiscount(ctx context.Context, g *domain.GroupDiscount) error {
	query := `INSERT INTO group_discounts (event_id, user_group, only_registration, percentage, absolute)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`
	return r.db.QueryRowContext(ctx, query, g.EventID, g.Group, g.OnlyRegistration, g.Percentage, g.Absolute).Scan(&g.ID)
}
