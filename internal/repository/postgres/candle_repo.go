package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"gedenkseiten/internal/domain"
)

type candleRepository struct {
	DB *sql.DB
}

// NewCandleRepository returns a domain.CandleRepository implemented with Postgres.
func NewCandleRepository(db *sql.DB) domain.CandleRepository {
	return &candleRepository{DB: db}
}

func (r *candleRepository) Create(ctx context.Context, c *domain.Candle) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	query := `
		INSERT INTO candles (id, memorial_id, name, email, message, duration_hours, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.DB.ExecContext(ctx, query,
		c.ID, c.MemorialID, c.Name, c.Email, c.Message, c.DurationH, c.ExpiresAt, c.CreatedAt)
	return err
}

func (r *candleRepository) ListActiveByMemorialID(ctx context.Context, memorialID string, now time.Time) ([]*domain.Candle, error) {
	query := `
		SELECT id, memorial_id, name, email, message, duration_hours, expires_at, created_at
		FROM candles
		WHERE memorial_id = $1 AND expires_at > $2
		ORDER BY created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, memorialID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	candles := make([]*domain.Candle, 0)
	for rows.Next() {
		c := &domain.Candle{}
		if err := rows.Scan(&c.ID, &c.MemorialID, &c.Name, &c.Email, &c.Message, &c.DurationH, &c.ExpiresAt, &c.CreatedAt); err != nil {
			return nil, err
		}
		candles = append(candles, c)
	}
	return candles, rows.Err()
}

func (r *candleRepository) CountActiveByMemorialID(ctx context.Context, memorialID string, now time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM candles WHERE memorial_id = $1 AND expires_at > $2`
	err := r.DB.QueryRowContext(ctx, query, memorialID, now).Scan(&count)
	return count, err
}
