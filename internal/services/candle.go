package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gedenkseiten/internal/domain"
)

const (
	minCandleHours = 1
	maxCandleHours = 24 * 365
)

type candleService struct {
	candleRepo     domain.CandleRepository
	memorialRepo   domain.MemorialRepository
	contextTimeout time.Duration
	now            func() time.Time
}

// NewCandleService returns the public candle-lighting service.
func NewCandleService(
	candleRepo domain.CandleRepository,
	memorialRepo domain.MemorialRepository,
	timeout time.Duration,
) domain.CandleService {
	return &candleService{
		candleRepo:     candleRepo,
		memorialRepo:   memorialRepo,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *candleService) Light(ctx context.Context, memorialID, name, email, message string, durationHours int) (*domain.Candle, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if durationHours < minCandleHours || durationHours > maxCandleHours {
		return nil, fmt.Errorf("duration %dh out of range: %w", durationHours, domain.ErrInvalidInput)
	}
	m, err := s.memorialRepo.GetByID(ctx, memorialID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get memorial: %w", err)
	}
	if !m.IsPublished || m.Archived() {
		return nil, domain.ErrNotFound
	}

	now := s.now()
	c := &domain.Candle{
		MemorialID: memorialID,
		Name:       strings.TrimSpace(name),
		Email:      strings.TrimSpace(strings.ToLower(email)),
		Message:    strings.TrimSpace(message),
		DurationH:  durationHours,
		ExpiresAt:  now.Add(time.Duration(durationHours) * time.Hour),
		CreatedAt:  now,
	}
	if err := s.candleRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create candle: %w", err)
	}
	return c, nil
}

// ListActive returns burning candles only; burnt-out candles stay stored but
// are filtered by expiry at read time.
func (s *candleService) ListActive(ctx context.Context, memorialID string) ([]*domain.Candle, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	candles, err := s.candleRepo.ListActiveByMemorialID(ctx, memorialID, s.now())
	if err != nil {
		return nil, fmt.Errorf("list candles: %w", err)
	}
	if candles == nil {
		candles = []*domain.Candle{}
	}
	return candles, nil
}
