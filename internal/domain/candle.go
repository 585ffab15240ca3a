package domain

import (
	"context"
	"time"
)

// Candle is a guestbook candle lit by a visitor on a memorial page.
// Candles are append-only; they burn out by comparing ExpiresAt against the
// current time at read time, nothing ever deletes them.
// swagger:model Candle
type Candle struct {
	ID         string    `json:"id"`
	MemorialID string    `json:"memorial_id"`
	Name       string    `json:"name,omitempty"`
	Email      string    `json:"-"`
	Message    string    `json:"message,omitempty"`
	DurationH  int       `json:"duration_hours"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// Burning reports whether the candle is still lit at the given time.
func (c *Candle) Burning(at time.Time) bool { return c.ExpiresAt.After(at) }

// CandleRepository defines storage operations for candles.
type CandleRepository interface {
	Create(ctx context.Context, c *Candle) error
	// ListActiveByMemorialID returns candles with expires_at after the
	// given time, newest first.
	ListActiveByMemorialID(ctx context.Context, memorialID string, now time.Time) ([]*Candle, error)
	CountActiveByMemorialID(ctx context.Context, memorialID string, now time.Time) (int, error)
}

// CandleService is the public candle-lighting API. No authentication is
// required; visitors may light candles anonymously.
type CandleService interface {
	Light(ctx context.Context, memorialID, name, email, message string, durationHours int) (*Candle, error)
	ListActive(ctx context.Context, memorialID string) ([]*Candle, error)
}
