package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"gedenkseiten/internal/domain"
)

type orderRepository struct {
	DB *sql.DB
}

// NewOrderRepository returns a domain.OrderRepository implemented with Postgres.
func NewOrderRepository(db *sql.DB) domain.OrderRepository {
	return &orderRepository{DB: db}
}

func (r *orderRepository) Create(ctx context.Context, o *domain.Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	query := `
		INSERT INTO orders (id, user_id, memorial_id, tier_id, amount_cents, currency, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.DB.ExecContext(ctx, query,
		o.ID, o.UserID, o.MemorialID, o.TierID, o.AmountCents, o.Currency, o.Status, o.CreatedAt)
	return err
}

func (r *orderRepository) GetByCheckoutSessionID(ctx context.Context, sessionID string) (*domain.Order, error) {
	query := `
		SELECT id, user_id, memorial_id, tier_id, amount_cents, currency, status, checkout_session_id, created_at, paid_at
		FROM orders
		WHERE checkout_session_id = $1
	`
	o := &domain.Order{}
	var sessNull sql.NullString
	var paidNull sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, sessionID).Scan(
		&o.ID, &o.UserID, &o.MemorialID, &o.TierID, &o.AmountCents, &o.Currency,
		&o.Status, &sessNull, &o.CreatedAt, &paidNull)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	if sessNull.Valid {
		o.CheckoutSessionID = sessNull.String
	}
	if paidNull.Valid {
		o.PaidAt = &paidNull.Time
	}
	return o, nil
}

func (r *orderRepository) SetCheckoutSessionID(ctx context.Context, id, sessionID string) error {
	query := `UPDATE orders SET checkout_session_id = $1 WHERE id = $2`
	result, err := r.DB.ExecContext(ctx, query, sessionID, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) MarkPaid(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE orders SET status = 'paid', paid_at = $1 WHERE id = $2 AND status = 'pending'`
	result, err := r.DB.ExecContext(ctx, query, at, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}
